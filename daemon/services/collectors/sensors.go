package collectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/domalab/ttop/daemon/common"
	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/cache"
	"github.com/domalab/ttop/daemon/services/simd"
)

// SensorsCollector reads temperature and fan-speed inputs under
// /sys/class/hwmon, the kernel's own sysfs sensor interface, into a
// per-input SoA sample. Results are cached briefly since hwmon directory
// enumeration involves several syscalls per chip.
type SensorsCollector struct {
	hwmonRoot string
	sample    *simd.SensorMetricsSoA
	lanes     int
}

// NewSensorsCollector constructs a SensorsCollector reading
// /sys/class/hwmon.
func NewSensorsCollector() *SensorsCollector {
	return &SensorsCollector{hwmonRoot: common.SysClassHwmon}
}

func (c *SensorsCollector) ID() string                  { return "sensors" }
func (c *SensorsCollector) DisplayName() string         { return "Sensors" }
func (c *SensorsCollector) IntervalHint() time.Duration { return PriorityMedium.Interval() }

func (c *SensorsCollector) IsAvailable() bool {
	_, err := os.Stat(c.hwmonRoot)
	return err == nil
}

func (c *SensorsCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	sensorsCache := cache.GetSensorDataCache()
	if cached, ok := sensorsCache.Get("chips"); ok {
		cachedValues := cached.(map[string]dto.MetricValue)
		for name, v := range cachedValues {
			metrics.Set(name, v)
		}
		c.setSummary(&metrics)
		return metrics, nil
	}

	chips, err := os.ReadDir(c.hwmonRoot)
	if err != nil {
		return metrics, nil
	}

	c.scanChips(chips)

	values := make(map[string]dto.MetricValue, c.lanes)
	for lane := 0; lane < c.lanes; lane++ {
		label := c.sample.Labels[lane]
		if c.sample.FanRPM[lane] > 0 {
			values[fmt.Sprintf("%s_fan_rpm", label)] = dto.NewGauge(float64(c.sample.FanRPM[lane]))
		} else {
			values[fmt.Sprintf("%s_temp_celsius", label)] = dto.NewGauge(float64(c.sample.TempMilliC[lane]) / 1000.0)
		}
	}

	for name, v := range values {
		metrics.Set(name, v)
	}
	c.setSummary(&metrics)
	sensorsCache.Set("chips", values)

	return metrics, nil
}

// scanChips walks every hwmon chip's temp*/fan* inputs into the SoA
// sample, growing it when a chip appears (USB fan controllers hotplug).
func (c *SensorsCollector) scanChips(chips []os.DirEntry) {
	lane := 0
	for _, chip := range chips {
		chipDir := filepath.Join(c.hwmonRoot, chip.Name())
		chipName := readSensorLabel(filepath.Join(chipDir, "name"))
		if chipName == "" {
			chipName = chip.Name()
		}

		entries, err := os.ReadDir(chipDir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			isTemp := strings.HasSuffix(name, "_input") && strings.HasPrefix(name, "temp")
			isFan := strings.HasSuffix(name, "_input") && strings.HasPrefix(name, "fan")
			if !isTemp && !isFan {
				continue
			}
			v, err := readSensorInt(filepath.Join(chipDir, name))
			if err != nil {
				continue
			}

			if c.sample == nil || lane >= c.sample.Lanes {
				grown := simd.NewSensorMetricsSoA(lane + 8)
				if c.sample != nil {
					copy(grown.Labels, c.sample.Labels)
					copy(grown.TempMilliC, c.sample.TempMilliC)
					copy(grown.FanRPM, c.sample.FanRPM)
				}
				c.sample = grown
			}

			c.sample.Labels[lane] = sensorLabelFor(chipDir, strings.TrimSuffix(name, "_input"), chipName)
			if isTemp {
				c.sample.TempMilliC[lane] = v
				c.sample.FanRPM[lane] = 0
			} else {
				c.sample.TempMilliC[lane] = 0
				c.sample.FanRPM[lane] = uint64(v)
			}
			lane++
		}
	}
	c.lanes = lane
}

// highTempThresholdC and criticalTempThresholdC classify sensor readings
// into the sensors.{high_count,critical_count} summary counters absent a
// per-chip vendor threshold file.
const (
	highTempThresholdC     = 70.0
	criticalTempThresholdC = 90.0
)

// setSummary derives the aggregate sensors.{count,max_temp,high_count,
// critical_count} metrics from the SoA sample's temperature lanes.
func (c *SensorsCollector) setSummary(metrics *dto.Metrics) {
	temps := make([]float64, 0, c.lanes)
	for lane := 0; lane < c.lanes; lane++ {
		if c.sample.FanRPM[lane] > 0 {
			continue
		}
		temps = append(temps, float64(c.sample.TempMilliC[lane])/1000.0)
	}

	var highCount, criticalCount int
	for _, temp := range temps {
		if temp >= criticalTempThresholdC {
			criticalCount++
		} else if temp >= highTempThresholdC {
			highCount++
		}
	}

	stats := simd.ComputeStatistics(temps)
	metrics.Set("count", dto.NewGauge(float64(stats.Count)))
	metrics.Set("max_temp", dto.NewGauge(stats.Max))
	metrics.Set("high_count", dto.NewGauge(float64(highCount)))
	metrics.Set("critical_count", dto.NewGauge(float64(criticalCount)))
}

func sensorLabelFor(chipDir, input, chipName string) string {
	labelPath := filepath.Join(chipDir, input+"_label")
	if label := readSensorLabel(labelPath); label != "" {
		return chipName + "_" + strings.ReplaceAll(label, " ", "_")
	}
	return chipName + "_" + input
}

func readSensorLabel(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readSensorInt(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}
