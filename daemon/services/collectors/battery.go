package collectors

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/domalab/ttop/daemon/common"
	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/simd"
)

// BatteryCollector reads /sys/class/power_supply. A laptop battery and a
// NAS's UPS both show up there, so no vendor-specific protocol is
// required. Samples land in a per-device SoA reused across cycles.
type BatteryCollector struct {
	powerSupplyRoot string
	sample          *simd.BatteryMetricsSoA
}

// NewBatteryCollector constructs a BatteryCollector reading
// /sys/class/power_supply.
func NewBatteryCollector() *BatteryCollector {
	return &BatteryCollector{powerSupplyRoot: common.SysClassPowerSupply}
}

func (c *BatteryCollector) ID() string                  { return "battery" }
func (c *BatteryCollector) DisplayName() string         { return "Battery" }
func (c *BatteryCollector) IntervalHint() time.Duration { return PriorityLow.Interval() }

func (c *BatteryCollector) IsAvailable() bool {
	devices, err := c.findBatteryDevices()
	return err == nil && len(devices) > 0
}

func (c *BatteryCollector) findBatteryDevices() ([]string, error) {
	entries, err := os.ReadDir(c.powerSupplyRoot)
	if err != nil {
		return nil, err
	}
	var devices []string
	for _, e := range entries {
		typePath := filepath.Join(c.powerSupplyRoot, e.Name(), "type")
		data, err := os.ReadFile(typePath)
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(data)) == "Battery" || strings.TrimSpace(string(data)) == "UPS" {
			devices = append(devices, e.Name())
		}
	}
	return devices, nil
}

func (c *BatteryCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	devices, err := c.findBatteryDevices()
	if err != nil || len(devices) == 0 {
		return metrics, nil
	}

	if c.sample == nil || len(devices) > c.sample.Lanes {
		c.sample = simd.NewBatteryMetricsSoA(len(devices))
	}

	for i, dev := range devices {
		devDir := filepath.Join(c.powerSupplyRoot, dev)

		var capacity int64
		var hasCapacity bool
		if v, err := readPowerSupplyInt(filepath.Join(devDir, "capacity")); err == nil {
			capacity, hasCapacity = v, true
			metrics.Set(dev+".capacity_pct", dto.NewGauge(float64(v)))
		}

		var charging bool
		if status := readPowerSupplyString(filepath.Join(devDir, "status")); status != "" {
			charging = status == "Charging"
			metrics.Set(dev+".status", dto.NewText(status))
			metrics.Set(dev+".charging", dto.NewGauge(boolToFloat(charging)))
		}

		var voltageMicrovolts, currentMicroamps int64
		var hasVoltage, hasCurrent bool
		if v, err := readPowerSupplyInt(filepath.Join(devDir, "voltage_now")); err == nil {
			voltageMicrovolts, hasVoltage = v, true
			metrics.Set(dev+".voltage_microvolts", dto.NewGauge(float64(v)))
		}
		if v, err := readPowerSupplyInt(filepath.Join(devDir, "current_now")); err == nil {
			currentMicroamps, hasCurrent = v, true
		}

		if hours, ok := timeRemainingHours(devDir, charging); ok {
			if charging {
				metrics.Set(dev+".time_to_full_hours", dto.NewGauge(hours))
			} else {
				metrics.Set(dev+".time_to_empty_hours", dto.NewGauge(hours))
			}
		}

		health := batteryHealth(devDir, capacity, hasCapacity)
		metrics.Set(dev+".health", dto.NewText(health))

		c.sample.Names[i] = dev
		c.sample.CapacityPct[i] = float64(capacity)
		c.sample.VoltageMicroV[i] = voltageMicrovolts
		c.sample.Charging[i] = charging

		// Report the first discovered device's fields under the bare
		// battery.{capacity,charging,power_watts,health} names;
		// additional devices are only addressable by their per-device keys.
		if i == 0 {
			if hasCapacity {
				metrics.Set("capacity", dto.NewGauge(c.sample.CapacityPct[0]))
			}
			metrics.Set("charging", dto.NewGauge(boolToFloat(c.sample.Charging[0])))
			metrics.Set("health", dto.NewText(health))
			if hasVoltage && hasCurrent {
				watts := (float64(c.sample.VoltageMicroV[0]) / 1e6) * (float64(currentMicroamps) / 1e6)
				metrics.Set("power_watts", dto.NewGauge(watts))
			}
		}
	}

	return metrics, nil
}

// timeRemainingHours estimates time to empty (discharging) or time to
// full (charging) from the kernel's energy/power readings. Drivers that
// report neither energy_now nor power_now make the estimate unavailable
// rather than zero.
func timeRemainingHours(devDir string, charging bool) (float64, bool) {
	energyNow, err := readPowerSupplyInt(filepath.Join(devDir, "energy_now"))
	if err != nil {
		return 0, false
	}
	powerNow, err := readPowerSupplyInt(filepath.Join(devDir, "power_now"))
	if err != nil || powerNow <= 0 {
		return 0, false
	}

	if !charging {
		return float64(energyNow) / float64(powerNow), true
	}
	energyFull, err := readPowerSupplyInt(filepath.Join(devDir, "energy_full"))
	if err != nil || energyFull <= energyNow {
		return 0, false
	}
	return float64(energyFull-energyNow) / float64(powerNow), true
}

// batteryHealth reads the kernel's own health verdict when present
// (/sys/class/power_supply/*/health, e.g. "Good", "Overheat"), falling
// back to a capacity-derived classification since many UPS drivers never
// populate it.
func batteryHealth(devDir string, capacity int64, hasCapacity bool) string {
	if h := readPowerSupplyString(filepath.Join(devDir, "health")); h != "" {
		return h
	}
	if !hasCapacity {
		return "Unknown"
	}
	switch {
	case capacity <= 5:
		return "Critical"
	case capacity <= 20:
		return "Low"
	default:
		return "Good"
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func readPowerSupplyInt(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}

func readPowerSupplyString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
