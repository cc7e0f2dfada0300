package collectors

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/domalab/ttop/daemon/common"
	"github.com/domalab/ttop/daemon/dto"
)

// PressureLevel classifies a PSI "some avg10" percentage into five bands
// for an at-a-glance indicator.
type PressureLevel int

const (
	PressureNone PressureLevel = iota
	PressureLow
	PressureMedium
	PressureHigh
	PressureCritical
)

func (p PressureLevel) String() string {
	switch p {
	case PressureCritical:
		return "critical"
	case PressureHigh:
		return "high"
	case PressureMedium:
		return "medium"
	case PressureLow:
		return "low"
	default:
		return "none"
	}
}

// ClassifyPressure buckets a some-avg10 percentage per the bands
// {5,15,40,70}: below 5 is None, below 15 Low, below 40 Medium, below 70
// High, otherwise Critical.
func ClassifyPressure(avg10 float64) PressureLevel {
	switch {
	case avg10 >= 70:
		return PressureCritical
	case avg10 >= 40:
		return PressureHigh
	case avg10 >= 15:
		return PressureMedium
	case avg10 >= 5:
		return PressureLow
	default:
		return PressureNone
	}
}

// PressureCollector reads /proc/pressure/{cpu,memory,io}, the kernel's
// Pressure Stall Information counters, absent before Linux 4.20 and
// disabled on some distro kernel configs — hence the IsAvailable check.
type PressureCollector struct {
	cpuPath string
	memPath string
	ioPath  string
}

// NewPressureCollector constructs a PressureCollector reading the
// standard /proc/pressure paths.
func NewPressureCollector() *PressureCollector {
	return &PressureCollector{
		cpuPath: common.PressureCPU,
		memPath: common.PressureMem,
		ioPath:  common.PressureIO,
	}
}

func (c *PressureCollector) ID() string                  { return "pressure" }
func (c *PressureCollector) DisplayName() string         { return "Pressure" }
func (c *PressureCollector) IntervalHint() time.Duration { return PriorityHigh.Interval() }

func (c *PressureCollector) IsAvailable() bool {
	_, err := os.Stat(c.cpuPath)
	return err == nil
}

func (c *PressureCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	for name, path := range map[string]string{"cpu": c.cpuPath, "memory": c.memPath, "io": c.ioPath} {
		some, full, err := readPSIFile(path)
		if err != nil {
			continue
		}
		metrics.Set(name+"_some_avg10", dto.NewGauge(some.avg10))
		metrics.Set(name+"_some_avg60", dto.NewGauge(some.avg60))
		metrics.Set(name+"_full_avg10", dto.NewGauge(full.avg10))
		metrics.Set(name+"_full_avg60", dto.NewGauge(full.avg60))
		metrics.Set(name+"_level", dto.NewText(ClassifyPressure(some.avg10).String()))
	}

	return metrics, nil
}

type psiAverages struct {
	avg10, avg60, avg300 float64
	total                uint64
}

// readPSIFile parses a /proc/pressure/* file's two lines:
//
//	some avg10=0.00 avg60=0.00 avg300=0.00 total=0
//	full avg10=0.00 avg60=0.00 avg300=0.00 total=0
//
// The "full" line is absent from /proc/pressure/cpu on older kernels, so
// its absence is not an error.
func readPSIFile(path string) (some, full psiAverages, err error) {
	f, err := os.Open(path)
	if err != nil {
		return some, full, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		parsed := parsePSILine(fields[1:])
		switch fields[0] {
		case "some":
			some = parsed
		case "full":
			full = parsed
		}
	}
	return some, full, nil
}

func parsePSILine(fields []string) psiAverages {
	var avgs psiAverages
	for _, field := range fields {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "avg10":
			avgs.avg10, _ = strconv.ParseFloat(kv[1], 64)
		case "avg60":
			avgs.avg60, _ = strconv.ParseFloat(kv[1], 64)
		case "avg300":
			avgs.avg300, _ = strconv.ParseFloat(kv[1], 64)
		case "total":
			avgs.total, _ = strconv.ParseUint(kv[1], 10, 64)
		}
	}
	return avgs
}
