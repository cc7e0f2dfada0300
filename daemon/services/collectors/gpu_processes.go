package collectors

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/cache"
	"github.com/domalab/ttop/daemon/services/command"
)

// gpuProcess is one row of nvidia-smi pmon output: a process holding the
// GPU, with its compute/graphics type and SM/memory utilization.
type gpuProcess struct {
	gpuIdx   int
	pid      int
	procType string // "C" compute, "G" graphics
	smUtil   int
	memUtil  int
	command  string
}

// GPUProcessesCollector lists the individual processes using the GPU,
// supplementing the aggregate GPUCollector with per-process attribution
// via `nvidia-smi pmon -c 1` (one sample, no streaming).
type GPUProcessesCollector struct {
	timeout time.Duration
}

// NewGPUProcessesCollector constructs a GPUProcessesCollector.
func NewGPUProcessesCollector() *GPUProcessesCollector {
	return &GPUProcessesCollector{timeout: 3 * time.Second}
}

func (c *GPUProcessesCollector) ID() string                  { return "gpu_processes" }
func (c *GPUProcessesCollector) DisplayName() string         { return "GPU Processes" }
func (c *GPUProcessesCollector) IntervalHint() time.Duration { return PriorityMedium.Interval() }

func (c *GPUProcessesCollector) IsAvailable() bool {
	return binaryExists("nvidia-smi")
}

func (c *GPUProcessesCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	procCache := cache.GetGPUProcessInfoCache()
	if cached, ok := procCache.Get("processes"); ok {
		for name, v := range cached.(map[string]dto.MetricValue) {
			metrics.Set(name, v)
		}
		return metrics, nil
	}

	result := command.RunWithTimeout(ctx, c.timeout, "nvidia-smi", "pmon", "-c", "1")
	if result.Outcome != command.Success {
		return metrics, nil
	}

	processes := parsePmonOutput(result.Stdout)

	values := make(map[string]dto.MetricValue, 2*len(processes)+1)
	for _, p := range processes {
		key := fmt.Sprintf("pid%d_%s", p.pid, sanitizeMetricKey(p.command))
		values[key+"_sm_util_pct"] = dto.NewGauge(float64(p.smUtil))
		values[key+"_mem_util_pct"] = dto.NewGauge(float64(p.memUtil))
	}
	values["count"] = dto.NewGauge(float64(len(processes)))

	for name, v := range values {
		metrics.Set(name, v)
	}
	procCache.Set("processes", values)

	return metrics, nil
}

// parsePmonOutput parses `nvidia-smi pmon` rows. The layout is
//
//	# gpu   pid   type   sm   mem   enc   dec   jpg   ofa   command
//
// with "#"-prefixed header lines and "-" in utilization columns for
// processes the driver reports no figure for (treated as 0). Rows come
// back sorted by SM utilization, busiest first.
func parsePmonOutput(output string) []gpuProcess {
	var processes []gpuProcess

	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 10 {
			continue
		}

		gpuIdx, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		pid, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		procType := parts[2]
		if procType != "C" && procType != "G" {
			continue
		}

		smUtil, _ := strconv.Atoi(parts[3])
		memUtil, _ := strconv.Atoi(parts[4])

		processes = append(processes, gpuProcess{
			gpuIdx:   gpuIdx,
			pid:      pid,
			procType: procType,
			smUtil:   smUtil,
			memUtil:  memUtil,
			command:  parts[9],
		})
	}

	sort.SliceStable(processes, func(i, j int) bool {
		return processes[i].smUtil > processes[j].smUtil
	})
	return processes
}
