package collectors

import (
	"context"
	"os"
	"time"

	"github.com/domalab/ttop/daemon/common"
	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/collecterr"
	"github.com/domalab/ttop/daemon/services/simd"
)

// meminfoKeys are the /proc/meminfo line prefixes this collector pulls
// out, located in one multi-key scan over the raw snapshot instead of a
// per-line split. "Cached:" also occurs inside "SwapCached:", so
// parseMeminfo only accepts matches that sit at a line start.
var meminfoKeys = []string{
	"MemTotal:", "MemFree:", "MemAvailable:", "Buffers:", "Cached:",
	"SwapTotal:", "SwapFree:", "Dirty:", "Slab:",
}

// MemoryCollector reads /proc/meminfo once per cycle. Unlike CPU usage it
// needs no previous-sample diff since the kernel already reports
// instantaneous totals.
type MemoryCollector struct {
	meminfoPath string
	sample      simd.MemoryMetricsSoA
}

// NewMemoryCollector constructs a MemoryCollector reading /proc/meminfo.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{meminfoPath: common.ProcMeminfo}
}

func (c *MemoryCollector) ID() string                  { return "memory" }
func (c *MemoryCollector) DisplayName() string         { return "Memory" }
func (c *MemoryCollector) IntervalHint() time.Duration { return PriorityHigh.Interval() }

func (c *MemoryCollector) IsAvailable() bool {
	_, err := os.Stat(c.meminfoPath)
	return err == nil
}

func (c *MemoryCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	data, err := os.ReadFile(c.meminfoPath)
	if err != nil {
		return metrics, &collecterr.IOError{Path: c.meminfoPath, Err: err}
	}

	fields := parseMeminfo(data)
	if len(fields) == 0 {
		return metrics, &collecterr.CollectionFailedError{Collector: c.ID(), Message: "no fields parsed from /proc/meminfo"}
	}

	c.sample = simd.MemoryMetricsSoA{
		Total:     fields["MemTotal"],
		Free:      fields["MemFree"],
		Available: fields["MemAvailable"],
		Buffers:   fields["Buffers"],
		Cached:    fields["Cached"],
		SwapTotal: fields["SwapTotal"],
		SwapFree:  fields["SwapFree"],
	}

	swapUsedKB := uint64(0)
	if c.sample.SwapTotal > c.sample.SwapFree {
		swapUsedKB = c.sample.SwapTotal - c.sample.SwapFree
	}
	usedBytes := c.sample.UsedBytes()

	metrics.Set("total", dto.NewGauge(float64(c.sample.Total)*1024))
	metrics.Set("available", dto.NewGauge(float64(c.sample.Available)*1024))
	metrics.Set("free", dto.NewGauge(float64(c.sample.Free)*1024))
	metrics.Set("used", dto.NewGauge(float64(usedBytes)))
	metrics.Set("buffers", dto.NewGauge(float64(c.sample.Buffers)*1024))
	metrics.Set("cached", dto.NewGauge(float64(c.sample.Cached)*1024))
	metrics.Set("dirty", dto.NewGauge(float64(fields["Dirty"])*1024))
	metrics.Set("slab", dto.NewGauge(float64(fields["Slab"])*1024))
	metrics.Set("used.percent", dto.NewGauge(simd.Percent(float64(usedBytes), float64(c.sample.Total)*1024)))
	metrics.Set("swap.total", dto.NewGauge(float64(c.sample.SwapTotal)*1024))
	metrics.Set("swap.used", dto.NewGauge(float64(swapUsedKB)*1024))
	metrics.Set("swap.percent", dto.NewGauge(simd.Percent(float64(swapUsedKB), float64(c.sample.SwapTotal))))

	return metrics, nil
}

// parseMeminfo pulls each known key's kB value out of a raw /proc/meminfo
// snapshot. One multi-key scan locates every key, then only the digits
// after each match are parsed; the rest of the file is never touched.
func parseMeminfo(buf []byte) map[string]uint64 {
	out := make(map[string]uint64, len(meminfoKeys))
	matches := simd.MultiKeySearch(buf, meminfoKeys)
	for _, key := range meminfoKeys {
		for _, off := range matches[key] {
			if off != 0 && buf[off-1] != '\n' {
				continue
			}
			lineEnd := off + len(key)
			for lineEnd < len(buf) && buf[lineEnd] != '\n' {
				lineEnd++
			}
			values := simd.ParseIntegers(buf, off+len(key), lineEnd)
			if len(values) > 0 {
				out[key[:len(key)-1]] = values[0]
			}
			break
		}
	}
	return out
}
