package collectors

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/domalab/ttop/daemon/common"
	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/collecterr"
	"github.com/domalab/ttop/daemon/services/simd"
)

// CPUCollector reads /proc/stat each cycle into a structure-of-arrays
// sample (lane 0 the aggregate line, lanes 1..N the per-core lines) and
// turns the cumulative jiffie counters into per-core usage percentages by
// diffing against the previous cycle's SoA. The two SoA buffers ping-pong
// between cycles, so steady-state collection allocates nothing.
type CPUCollector struct {
	curr, prev  *simd.CPUMetricsSoA
	prevLanes   int
	loadAvgPath string
	statPath    string
}

// NewCPUCollector constructs a CPUCollector reading the standard /proc
// paths.
func NewCPUCollector() *CPUCollector {
	return &CPUCollector{
		loadAvgPath: common.ProcLoadavg,
		statPath:    common.ProcStat,
	}
}

func (c *CPUCollector) ID() string                  { return "cpu" }
func (c *CPUCollector) DisplayName() string         { return "CPU" }
func (c *CPUCollector) IntervalHint() time.Duration { return PriorityHigh.Interval() }

func (c *CPUCollector) IsAvailable() bool {
	_, err := os.Stat(c.statPath)
	return err == nil
}

func (c *CPUCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	data, err := os.ReadFile(c.statPath)
	if err != nil {
		if os.IsNotExist(err) {
			return metrics, &collecterr.CollectorUnavailableError{CollectorID: c.ID(), Reason: c.statPath + " missing"}
		}
		return metrics, &collecterr.IOError{Path: c.statPath, Err: err}
	}

	lanes := countCPULines(data)
	if lanes == 0 {
		return metrics, &collecterr.CollectionFailedError{Collector: c.ID(), Message: "no cpu lines found in /proc/stat"}
	}
	if c.curr == nil || lanes > c.curr.Lanes {
		c.curr = simd.NewCPUMetricsSoA(lanes)
		c.prev = simd.NewCPUMetricsSoA(lanes)
		c.prevLanes = 0
	}

	parseProcStat(data, c.curr)

	if c.prevLanes == lanes {
		for lane, pct := range usagePercents(c.prev, c.curr, lanes) {
			metrics.Set(laneMetricName(lane), dto.NewGauge(pct))
		}
	}

	c.curr, c.prev = c.prev, c.curr
	c.prevLanes = lanes

	if avg, err := readLoadAverage(c.loadAvgPath); err == nil {
		metrics.Set("load.1", dto.NewGauge(avg[0]))
		metrics.Set("load.5", dto.NewGauge(avg[1]))
		metrics.Set("load.15", dto.NewGauge(avg[2]))
	}

	return metrics, nil
}

// countCPULines counts the "cpu*" lines in a /proc/stat snapshot so the
// SoA buffers can be sized before parsing.
func countCPULines(buf []byte) int {
	count := 0
	offsets := simd.FindNewlines(buf)
	start := 0
	for _, end := range offsets {
		if end > start+3 && string(buf[start:start+3]) == "cpu" {
			count++
		}
		start = end + 1
	}
	return count
}

// parseProcStat fills soa with each "cpu*" line's 8 jiffie fields
// (user,nice,system,idle,iowait,irq,softirq,steal). The aggregate "cpu"
// line lands in lane 0 and each "cpuN" line in lane N+1, matching the
// order /proc/stat lists them.
func parseProcStat(buf []byte, soa *simd.CPUMetricsSoA) int {
	lanes := 0
	offsets := simd.FindNewlines(buf)
	start := 0
	for _, end := range offsets {
		line := buf[start:end]
		start = end + 1
		if len(line) < 4 || string(line[:3]) != "cpu" {
			continue
		}
		labelEnd := 3
		for labelEnd < len(line) && line[labelEnd] != ' ' {
			labelEnd++
		}
		values := simd.ParseIntegers(line, labelEnd, len(line))
		if len(values) < 8 || lanes >= soa.Lanes {
			continue
		}
		soa.User[lanes] = values[0]
		soa.Nice[lanes] = values[1]
		soa.System[lanes] = values[2]
		soa.Idle[lanes] = values[3]
		soa.IOWait[lanes] = values[4]
		soa.IRQ[lanes] = values[5]
		soa.SoftIRQ[lanes] = values[6]
		soa.Steal[lanes] = values[7]
		lanes++
	}
	return lanes
}

// usagePercents computes each lane's busy percentage over the window
// between two SoA samples: field-wise deltas via the SIMD delta kernel,
// busy = total - (idle + iowait), then 100*busy/total clamped to [0,100]
// (0 when the window saw no jiffies at all).
func usagePercents(prev, curr *simd.CPUMetricsSoA, lanes int) []float64 {
	total := make([]uint64, lanes)
	idle := make([]uint64, lanes)

	fields := [...]struct {
		prev, curr []uint64
		isIdle     bool
	}{
		{prev.User, curr.User, false},
		{prev.Nice, curr.Nice, false},
		{prev.System, curr.System, false},
		{prev.Idle, curr.Idle, true},
		{prev.IOWait, curr.IOWait, true},
		{prev.IRQ, curr.IRQ, false},
		{prev.SoftIRQ, curr.SoftIRQ, false},
		{prev.Steal, curr.Steal, false},
	}
	for _, f := range fields {
		deltas := simd.Delta(f.prev[:lanes], f.curr[:lanes])
		for lane, d := range deltas {
			total[lane] += d
			if f.isIdle {
				idle[lane] += d
			}
		}
	}

	out := make([]float64, lanes)
	for lane := range out {
		out[lane] = simd.Percent(float64(total[lane]-idle[lane]), float64(total[lane]))
	}
	return out
}

// laneMetricName maps an SoA lane to the dotted metric name: lane 0 is
// the aggregate cpu.total, lane N+1 publishes cpu.core.N.
func laneMetricName(lane int) string {
	if lane == 0 {
		return "total"
	}
	return fmt.Sprintf("core.%d", lane-1)
}

// computeUsagePct is the single-lane form of usagePercents, operating on
// one lane's 8 field deltas in /proc/stat order. Kept as the reference
// the SoA path's per-lane math must agree with.
func computeUsagePct(deltas []uint64) float64 {
	if len(deltas) < 8 {
		return 0
	}
	var total uint64
	for _, d := range deltas {
		total += d
	}
	if total == 0 {
		return 0
	}
	idle := deltas[3] + deltas[4] // idle + iowait
	return simd.Percent(float64(total-idle), float64(total))
}

func readLoadAverage(path string) ([3]float64, error) {
	var result [3]float64
	f, err := os.Open(path)
	if err != nil {
		return result, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return result, scanner.Err()
	}
	fields := strings.Fields(scanner.Text())
	for i := 0; i < 3 && i < len(fields); i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			continue
		}
		result[i] = v
	}
	return result, nil
}
