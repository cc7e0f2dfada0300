package collectors

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/cache"
	"github.com/domalab/ttop/daemon/services/command"
)

// ContainersCollector shells out to `docker stats` for a single
// point-in-time snapshot of every running container's CPU and memory
// usage. Results are cached for the interval so a slow docker daemon
// never stalls the scheduler tick it's sampled on.
type ContainersCollector struct {
	timeout time.Duration
}

// NewContainersCollector constructs a ContainersCollector.
func NewContainersCollector() *ContainersCollector {
	return &ContainersCollector{timeout: 5 * time.Second}
}

func (c *ContainersCollector) ID() string                  { return "containers" }
func (c *ContainersCollector) DisplayName() string         { return "Containers" }
func (c *ContainersCollector) IntervalHint() time.Duration { return PriorityMedium.Interval() }

func (c *ContainersCollector) IsAvailable() bool {
	return binaryExists("docker")
}

func (c *ContainersCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	containerCache := cache.GetContainerInfoCache()
	if cached, ok := containerCache.Get("stats"); ok {
		for name, v := range cached.(map[string]dto.MetricValue) {
			metrics.Set(name, v)
		}
		return metrics, nil
	}

	result := command.RunWithTimeout(ctx, c.timeout, "docker", "stats", "--no-stream",
		"--format", "{{.Name}}\t{{.CPUPerc}}\t{{.MemUsage}}\t{{.MemPerc}}")
	if result.Outcome != command.Success {
		return metrics, nil
	}

	values := make(map[string]dto.MetricValue)
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			continue
		}
		name := sanitizeMetricKey(fields[0])
		cpuPct := parsePercentField(fields[1])
		usedBytes, limitBytes := parseMemUsage(fields[2])
		memPct := parsePercentField(fields[3])

		values[fmt.Sprintf("%s_cpu_pct", name)] = dto.NewGauge(cpuPct)
		values[fmt.Sprintf("%s_mem_used_bytes", name)] = dto.NewGauge(usedBytes)
		values[fmt.Sprintf("%s_mem_limit_bytes", name)] = dto.NewGauge(limitBytes)
		values[fmt.Sprintf("%s_mem_pct", name)] = dto.NewGauge(memPct)
	}

	for name, v := range values {
		metrics.Set(name, v)
	}
	containerCache.Set("stats", values)

	return metrics, nil
}

func sanitizeMetricKey(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' || r == ' ' {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}

func parsePercentField(field string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(field), "%"), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseMemUsage parses docker stats' "123.4MiB / 1.953GiB" layout into
// bytes.
func parseMemUsage(field string) (used, limit float64) {
	parts := strings.Split(field, "/")
	if len(parts) != 2 {
		return 0, 0
	}
	return parseByteSize(parts[0]), parseByteSize(parts[1])
}

func parseByteSize(s string) float64 {
	s = strings.TrimSpace(s)
	units := []struct {
		suffix string
		mult   float64
	}{
		{"GiB", 1024 * 1024 * 1024},
		{"MiB", 1024 * 1024},
		{"KiB", 1024},
		{"GB", 1_000_000_000},
		{"MB", 1_000_000},
		{"KB", 1_000},
		{"B", 1},
	}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			numStr := strings.TrimSuffix(s, u.suffix)
			v, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
			if err != nil {
				return 0
			}
			return v * u.mult
		}
	}
	return 0
}
