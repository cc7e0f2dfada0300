package collectors

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/command"
	"github.com/domalab/ttop/daemon/services/simd"
)

// GPUCollector shells out to NVIDIA's nvidia-smi or, when that is absent,
// AMD's rocm-smi. Each call goes through the subprocess gateway so a hung
// driver tool can't stall the scheduler. nvidia-smi rows are parsed into a
// per-device SoA reused across cycles; rocm-smi output is published as one
// raw text value. intel_gpu_top only counts towards IsAvailable: Collect
// runs no Intel tool and emits no metrics for it.
type GPUCollector struct {
	timeout time.Duration
	sample  *simd.GPUMetricsSoA
}

// NewGPUCollector constructs a GPUCollector.
func NewGPUCollector() *GPUCollector {
	return &GPUCollector{timeout: 3 * time.Second}
}

func (c *GPUCollector) ID() string                  { return "gpu" }
func (c *GPUCollector) DisplayName() string         { return "GPU" }
func (c *GPUCollector) IntervalHint() time.Duration { return PriorityMedium.Interval() }

func (c *GPUCollector) IsAvailable() bool {
	for _, bin := range []string{"nvidia-smi", "rocm-smi", "intel_gpu_top"} {
		if binaryExists(bin) {
			return true
		}
	}
	return false
}

func (c *GPUCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	if binaryExists("nvidia-smi") {
		c.collectNvidia(ctx, &metrics)
		return metrics, nil
	}
	if binaryExists("rocm-smi") {
		c.collectAMD(ctx, &metrics)
		return metrics, nil
	}
	return metrics, nil
}

func (c *GPUCollector) collectNvidia(ctx context.Context, metrics *dto.Metrics) {
	result := command.RunWithTimeout(ctx, c.timeout, "nvidia-smi",
		"--query-gpu=index,name,utilization.gpu,utilization.memory,memory.used,memory.total,temperature.gpu,power.draw",
		"--format=csv,noheader,nounits")
	if result.Outcome != command.Success {
		return
	}

	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	if c.sample == nil || len(lines) > c.sample.Lanes {
		c.sample = simd.NewGPUMetricsSoA(len(lines))
	}

	lane := 0
	powerMW := make([]float64, 0, len(lines))
	for _, line := range lines {
		fields := splitCSVFields(line)
		if len(fields) < 8 || lane >= c.sample.Lanes {
			continue
		}

		c.sample.Names[lane] = strings.TrimSpace(fields[1])
		if v, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err == nil {
			c.sample.UtilPct[lane] = v
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64); err == nil {
			c.sample.MemUsedBytes[lane] = uint64(v) * 1024 * 1024
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64); err == nil {
			c.sample.MemTotalBytes[lane] = uint64(v) * 1024 * 1024
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(fields[6]), 64); err == nil {
			c.sample.TempMilliC[lane] = int64(v * 1000)
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(fields[7]), 64); err == nil {
			powerMW = append(powerMW, v*1000)
		} else {
			powerMW = append(powerMW, 0)
		}

		prefix := strings.TrimSpace(fields[0]) + "."
		metrics.Set(prefix+"name", dto.NewText(c.sample.Names[lane]))
		metrics.Set(prefix+"util", dto.NewGauge(c.sample.UtilPct[lane]))
		if v, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64); err == nil {
			metrics.Set(prefix+"mem_util", dto.NewGauge(v))
		}
		metrics.Set(prefix+"mem_used_mb", dto.NewGauge(float64(c.sample.MemUsedBytes[lane])/(1024*1024)))
		metrics.Set(prefix+"mem_total_mb", dto.NewGauge(float64(c.sample.MemTotalBytes[lane])/(1024*1024)))
		metrics.Set(prefix+"temp", dto.NewGauge(float64(c.sample.TempMilliC[lane])/1000))
		metrics.Set(prefix+"power_mw", dto.NewGauge(powerMW[lane]))
		lane++
	}
}

func (c *GPUCollector) collectAMD(ctx context.Context, metrics *dto.Metrics) {
	result := command.RunWithTimeout(ctx, c.timeout, "rocm-smi", "--showuse", "--showmeminfo", "vram", "--csv")
	if result.Outcome != command.Success {
		return
	}
	metrics.Set("0.raw_rocm_smi", dto.NewText(strings.TrimSpace(result.Stdout)))
}

func splitCSVFields(line string) []string {
	return strings.Split(line, ",")
}

func binaryExists(name string) bool {
	for _, dir := range strings.Split(os.Getenv("PATH"), ":") {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir + "/" + name); err == nil {
			return true
		}
	}
	return false
}
