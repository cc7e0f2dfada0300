package collectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/domalab/ttop/daemon/dto"
	"github.com/domalab/ttop/daemon/services/cache"
)

// LargeFile is one entry in the treemap scan's result: a path and its
// size, kept sorted largest-first.
type LargeFile struct {
	Path string
	Size int64
}

// TreemapCollector walks a configured root directory looking for the
// largest files, the data a disk-usage treemap visualization renders.
// Scans are expensive on large filesystems, so results are cached for a
// full minute and refreshed on a slower cadence than every other
// collector.
type TreemapCollector struct {
	root     string
	topN     int
	maxDepth int
	minSize  int64
}

// defaultMinFileSize keeps the scan's candidate list from filling up with
// small files that would never be visible in a treemap cell anyway.
const defaultMinFileSize = 1 << 20 // 1 MiB

// NewTreemapCollector constructs a TreemapCollector scanning root for up
// to topN of the largest files above the size threshold, bounded to
// maxDepth directory levels.
func NewTreemapCollector(root string, topN, maxDepth int) *TreemapCollector {
	if topN <= 0 {
		topN = 25
	}
	if maxDepth <= 0 {
		maxDepth = 6
	}
	return &TreemapCollector{root: root, topN: topN, maxDepth: maxDepth, minSize: defaultMinFileSize}
}

func (c *TreemapCollector) ID() string                  { return "treemap" }
func (c *TreemapCollector) DisplayName() string         { return "Large Files" }
func (c *TreemapCollector) IntervalHint() time.Duration { return 60 * time.Second }

func (c *TreemapCollector) IsAvailable() bool {
	info, err := os.Stat(c.root)
	return err == nil && info.IsDir()
}

func (c *TreemapCollector) Collect(ctx context.Context) (dto.Metrics, error) {
	now := time.Now()
	metrics := dto.NewMetrics(c.ID(), now)

	treemapCache := cache.GetTreemapScanCache()
	var files []LargeFile
	if cached, ok := treemapCache.Get(c.root); ok {
		files = cached.([]LargeFile)
	} else {
		files = c.scan(ctx)
		treemapCache.Set(c.root, files)
	}

	for i, f := range files {
		metrics.Set(fmt.Sprintf("file_%d_path", i), dto.NewText(f.Path))
		metrics.Set(fmt.Sprintf("file_%d_size_bytes", i), dto.NewGauge(float64(f.Size)))
	}
	metrics.Set("scanned_count", dto.NewGauge(float64(len(files))))

	return metrics, nil
}

func (c *TreemapCollector) scan(ctx context.Context) []LargeFile {
	var files []LargeFile
	rootDepth := strings.Count(filepath.Clean(c.root), string(os.PathSeparator))

	filepath.Walk(c.root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}
		if info.IsDir() {
			depth := strings.Count(filepath.Clean(path), string(os.PathSeparator)) - rootDepth
			if depth > c.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Size() >= c.minSize {
			files = append(files, LargeFile{Path: path, Size: info.Size()})
		}
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Size > files[j].Size })
	if len(files) > c.topN {
		files = files[:c.topN]
	}
	return files
}
