package collectors

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudfoundry/gosigar"

	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/cache"
	"github.com/domalab/ttop/daemon/services/collecterr"
	"github.com/domalab/ttop/daemon/services/simd"
)

// excludedFSTypes are pseudo filesystems with no meaningful disk usage of
// their own; surfacing them would just clutter the disk list with zero-
// sized entries.
var excludedFSTypes = map[string]bool{
	"proc": true, "sysfs": true, "devtmpfs": true, "tmpfs": true,
	"devpts": true, "cgroup": true, "cgroup2": true, "pstore": true,
	"securityfs": true, "debugfs": true, "tracefs": true, "mqueue": true,
	"hugetlbfs": true, "configfs": true, "fusectl": true, "bpf": true,
}

// DiskCollector enumerates mounted filesystems via gosigar and reports
// usage per mount point. Cross-platform filesystem enumeration is exactly
// what gosigar abstracts over statfs/GetDiskFreeSpaceEx, so this collector
// leans on it instead of parsing /proc/mounts by hand. Per-mount usage
// lands in a SoA sample reused across cycles.
type DiskCollector struct {
	fsList sigar.FileSystemList
	sample *simd.DiskMetricsSoA
}

// NewDiskCollector constructs a DiskCollector.
func NewDiskCollector() *DiskCollector {
	return &DiskCollector{}
}

func (c *DiskCollector) ID() string                  { return "disk" }
func (c *DiskCollector) DisplayName() string         { return "Disk" }
func (c *DiskCollector) IntervalHint() time.Duration { return PriorityMedium.Interval() }

func (c *DiskCollector) IsAvailable() bool {
	var list sigar.FileSystemList
	return list.Get() == nil
}

func (c *DiskCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	if cached, ok := cache.GetDiskInfoCache().Get("filesystem_list"); ok {
		c.fsList = cached.(sigar.FileSystemList)
	} else {
		if err := c.fsList.Get(); err != nil {
			return metrics, &collecterr.CollectionFailedError{Collector: c.ID(), Message: err.Error()}
		}
		cache.GetDiskInfoCache().Set("filesystem_list", c.fsList)
	}

	if c.sample == nil || len(c.fsList.List) > c.sample.Lanes {
		c.sample = simd.NewDiskMetricsSoA(len(c.fsList.List))
	}

	lane := 0
	for i, fs := range c.fsList.List {
		if excludedFSTypes[fs.SysTypeName] {
			continue
		}

		usage := sigar.FileSystemUsage{}
		if err := usage.Get(fs.DirName); err != nil {
			continue
		}

		c.sample.Names[lane] = fs.DirName
		c.sample.UsedBytes[lane] = usage.Used
		c.sample.TotalBytes[lane] = usage.Total

		prefix := fmt.Sprintf("mount_%d", i)
		metrics.Set(prefix+"_path", dto.NewText(fs.DirName))
		metrics.Set(prefix+"_device", dto.NewText(fs.DevName))
		metrics.Set(prefix+"_total_bytes", dto.NewGauge(float64(usage.Total)))
		metrics.Set(prefix+"_used_bytes", dto.NewGauge(float64(usage.Used)))
		metrics.Set(prefix+"_free_bytes", dto.NewGauge(float64(usage.Avail)))
		metrics.Set(prefix+"_used_pct", dto.NewGauge(simd.Percent(float64(usage.Used), float64(usage.Total))))
		lane++
	}

	var totalUsed, totalSize uint64
	for l := 0; l < lane; l++ {
		totalUsed += c.sample.UsedBytes[l]
		totalSize += c.sample.TotalBytes[l]
	}

	metrics.Set("total_bytes", dto.NewGauge(float64(totalSize)))
	metrics.Set("used_bytes", dto.NewGauge(float64(totalUsed)))
	metrics.Set("used_pct", dto.NewGauge(simd.Percent(float64(totalUsed), float64(totalSize))))

	return metrics, nil
}
