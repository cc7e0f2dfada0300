package collectors

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/domalab/ttop/daemon/common"
	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/collecterr"
	"github.com/domalab/ttop/daemon/services/simd"
)

// NetworkCollector reads /proc/net/dev into a structure-of-arrays sample
// (one lane per interface) and diffs each interface's monotonic counters
// against the previous cycle's SoA. A counter going backwards (driver
// reset, interface re-creation) clamps the delta to zero rather than
// reconstructing a wraparound, so one odd sample never shows as an
// exabyte-per-second spike. The two SoA buffers ping-pong between cycles.
type NetworkCollector struct {
	netDevPath string
	curr, prev *simd.NetworkMetricsSoA
	prevLanes  int
	lastRead   time.Time
}

// NewNetworkCollector constructs a NetworkCollector reading /proc/net/dev.
func NewNetworkCollector() *NetworkCollector {
	return &NetworkCollector{netDevPath: common.ProcNetDev}
}

func (c *NetworkCollector) ID() string                  { return "network" }
func (c *NetworkCollector) DisplayName() string         { return "Network" }
func (c *NetworkCollector) IntervalHint() time.Duration { return PriorityHigh.Interval() }

func (c *NetworkCollector) IsAvailable() bool {
	_, err := os.Stat(c.netDevPath)
	return err == nil
}

func (c *NetworkCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	data, err := os.ReadFile(c.netDevPath)
	if err != nil {
		return metrics, &collecterr.IOError{Path: c.netDevPath, Err: err}
	}

	ifaceCount := len(simd.FindNewlines(data)) // upper bound: 2 headers, no trailing entry
	if c.curr == nil || ifaceCount > c.curr.Lanes {
		c.curr = simd.NewNetworkMetricsSoA(ifaceCount)
		c.prev = simd.NewNetworkMetricsSoA(ifaceCount)
		c.prevLanes = 0
	}

	lanes := parseNetDev(data, c.curr)

	elapsed := now.Sub(c.lastRead).Seconds()
	if c.lastRead.IsZero() {
		elapsed = 0
	}

	var primaryIface string
	var primaryTraffic uint64
	var primaryRxPerSec, primaryTxPerSec float64

	for lane := 0; lane < lanes; lane++ {
		iface := c.curr.Names[lane]
		if iface == "lo" {
			continue
		}

		var rxPerSec, txPerSec float64
		if prevLane := c.findPrevLane(iface); prevLane >= 0 && elapsed > 0 {
			rxDelta := saturatingSub(c.prev.RxBytes[prevLane], c.curr.RxBytes[lane])
			txDelta := saturatingSub(c.prev.TxBytes[prevLane], c.curr.TxBytes[lane])
			rxPerSec = float64(rxDelta) / elapsed
			txPerSec = float64(txDelta) / elapsed
			metrics.Set(iface+"_rx_bytes_per_sec", dto.NewGauge(rxPerSec))
			metrics.Set(iface+"_tx_bytes_per_sec", dto.NewGauge(txPerSec))
		}
		metrics.Set(iface+"_rx_bytes", dto.NewCounter(c.curr.RxBytes[lane]))
		metrics.Set(iface+"_tx_bytes", dto.NewCounter(c.curr.TxBytes[lane]))
		metrics.Set(iface+"_rx_errors", dto.NewCounter(c.curr.RxErrors[lane]))
		metrics.Set(iface+"_tx_errors", dto.NewCounter(c.curr.TxErrors[lane]))

		traffic := c.curr.RxBytes[lane] + c.curr.TxBytes[lane]
		if primaryIface == "" || traffic > primaryTraffic {
			primaryIface = iface
			primaryTraffic = traffic
			primaryRxPerSec = rxPerSec
			primaryTxPerSec = txPerSec
		}
	}

	if primaryIface != "" {
		metrics.Set("primary_interface", dto.NewText(primaryIface))
		metrics.Set("rx_bytes_per_sec", dto.NewGauge(primaryRxPerSec))
		metrics.Set("tx_bytes_per_sec", dto.NewGauge(primaryTxPerSec))
	}

	c.curr, c.prev = c.prev, c.curr
	c.prevLanes = lanes
	c.lastRead = now
	return metrics, nil
}

// saturatingSub returns curr-prev, clamped to zero when the counter went
// backwards.
func saturatingSub(prev, curr uint64) uint64 {
	if curr >= prev {
		return curr - prev
	}
	return 0
}

// findPrevLane locates an interface's lane in the previous sample.
// Interfaces come and go (VPN tunnels, docker bridges), so lane positions
// aren't stable across cycles; a linear scan is fine at interface counts.
func (c *NetworkCollector) findPrevLane(iface string) int {
	for lane := 0; lane < c.prevLanes; lane++ {
		if c.prev.Names[lane] == iface {
			return lane
		}
	}
	return -1
}

// parseNetDev parses /proc/net/dev's fixed 16-column layout per interface
// (8 receive counters then 8 transmit counters) into soa, returning the
// number of lanes filled.
func parseNetDev(buf []byte, soa *simd.NetworkMetricsSoA) int {
	lanes := 0
	offsets := simd.FindNewlines(buf)
	start := 0
	lineNum := 0
	for _, end := range offsets {
		line := string(buf[start:end])
		start = end + 1
		lineNum++
		if lineNum <= 2 {
			continue // header lines
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 || lanes >= soa.Lanes {
			continue
		}
		iface := strings.TrimSpace(line[:colon])
		rest := line[colon+1:]
		values := simd.ParseIntegers([]byte(rest), 0, len(rest))
		if len(values) < 16 {
			continue
		}
		soa.Names[lanes] = iface
		soa.RxBytes[lanes] = values[0]
		soa.RxPackets[lanes] = values[1]
		soa.RxErrors[lanes] = values[2]
		soa.RxDropped[lanes] = values[3]
		soa.TxBytes[lanes] = values[8]
		soa.TxPackets[lanes] = values[9]
		soa.TxErrors[lanes] = values[10]
		soa.TxDropped[lanes] = values[11]
		lanes++
	}
	return lanes
}
