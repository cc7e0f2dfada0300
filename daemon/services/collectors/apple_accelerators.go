package collectors

import (
	"context"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/command"
)

// AppleAcceleratorsCollector reports Apple Silicon's Neural Engine power
// draw and an estimated utilization on darwin/arm64 hosts. macOS exposes no
// public counter for Neural Engine occupancy; powermetrics' "ane_power"
// field is the closest available signal, and even that is a power draw,
// not a utilization fraction. Values here are therefore an estimate, not
// an authoritative utilization figure, and every sample is tagged as
// such rather than presented as a precise measurement.
type AppleAcceleratorsCollector struct {
	timeout time.Duration
}

// NewAppleAcceleratorsCollector constructs an AppleAcceleratorsCollector.
func NewAppleAcceleratorsCollector() *AppleAcceleratorsCollector {
	return &AppleAcceleratorsCollector{timeout: 2 * time.Second}
}

func (c *AppleAcceleratorsCollector) ID() string           { return "apple_accelerators" }
func (c *AppleAcceleratorsCollector) DisplayName() string  { return "Apple Accelerators" }
func (c *AppleAcceleratorsCollector) IntervalHint() time.Duration {
	return PriorityMedium.Interval()
}

func (c *AppleAcceleratorsCollector) IsAvailable() bool {
	return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" && binaryExists("powermetrics")
}

func (c *AppleAcceleratorsCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	if !c.IsAvailable() {
		return metrics, nil
	}

	result := command.RunWithTimeout(ctx, c.timeout, "powermetrics",
		"--samplers", "ane_power", "-n", "1", "-i", "200")
	if result.Outcome != command.Success {
		return metrics, nil
	}

	aneMilliwatts := parseANEPower(result.Stdout)
	estimatedPct := estimateANEUtilization(aneMilliwatts)

	metrics.Set("neural_engine_power_mw", dto.NewGauge(aneMilliwatts))
	metrics.Set("neural_engine_util_pct_estimated", dto.NewGauge(estimatedPct))
	metrics.Set("neural_engine_util_estimated_non_authoritative", dto.NewText("true"))

	return metrics, nil
}

// estimateANEMaxMilliwatts is a rough ceiling for Neural Engine power
// draw across current Apple Silicon generations, used only to turn a
// power reading into a bounded 0-100 estimate.
const estimateANEMaxMilliwatts = 8000.0

func estimateANEUtilization(milliwatts float64) float64 {
	if milliwatts <= 0 {
		return 0
	}
	pct := (milliwatts / estimateANEMaxMilliwatts) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// parseANEPower extracts the milliwatt figure from powermetrics' "ANE
// Power: 123 mW" line, 0 when the line is absent (Intel Macs, older
// powermetrics builds).
func parseANEPower(output string) float64 {
	for _, line := range strings.Split(output, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "ANE Power:")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "mW"))
		v, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return 0
		}
		return v
	}
	return 0
}
