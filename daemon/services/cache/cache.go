// Package cache provides the small TTL caches the expensive collectors
// (treemap scan, hwmon enumeration, subprocess-backed listings) put their
// results in, so a collector ticking faster than its source is worth
// re-reading serves the previous result instead.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/domalab/ttop/daemon/logger"
)

// entry is one cached value with its expiry and LRU bookkeeping.
type entry struct {
	value      interface{}
	expiresAt  time.Time
	lastAccess time.Time
}

// Cache is a thread-safe TTL cache with LRU eviction at maxEntries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	defaultTTL      time.Duration
	maxEntries      int
	cleanupInterval time.Duration

	hits   atomic.Int64
	misses atomic.Int64

	stopCleanup chan struct{}
	cleanupWG   sync.WaitGroup
}

// NewCache creates a Cache holding at most maxEntries values for
// defaultTTL each, with a background sweep reclaiming expired entries.
func NewCache(defaultTTL time.Duration, maxEntries int) *Cache {
	c := &Cache{
		entries:         make(map[string]*entry),
		defaultTTL:      defaultTTL,
		maxEntries:      maxEntries,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	c.cleanupWG.Add(1)
	go c.sweepLoop()

	return c
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache) Get(key string) (interface{}, bool) {
	now := time.Now()

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && now.Before(e.expiresAt) {
		e.lastAccess = now
		c.mu.Unlock()
		c.hits.Add(1)
		return e.value, true
	}
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	c.misses.Add(1)
	return nil, false
}

// Set stores a value under key with the cache's default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value under key with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = &entry{
		value:      value,
		expiresAt:  now.Add(ttl),
		lastAccess: now,
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry and resets the hit/miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats is a point-in-time summary of a cache's effectiveness.
type Stats struct {
	Entries    int
	Hits       int64
	Misses     int64
	HitRate    float64
	MaxEntries int
}

// GetStats returns the cache's current Stats.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	s := Stats{Entries: n, Hits: hits, Misses: misses, MaxEntries: c.maxEntries}
	if total := hits + misses; total > 0 {
		s.HitRate = 100 * float64(hits) / float64(total)
	}
	return s
}

// evictOldestLocked drops the least recently accessed entry. Caller holds
// c.mu.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.lastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *Cache) sweepLoop() {
	defer c.cleanupWG.Done()

	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		logger.Blue("cache sweep reclaimed %d expired entries", removed)
	}
}

// Stop terminates the background sweep goroutine.
func (c *Cache) Stop() {
	close(c.stopCleanup)
	c.cleanupWG.Wait()
}

// Manager hands out named caches so each collector's cache is created
// once, on first use, with its documented TTL and size.
type Manager struct {
	mu     sync.Mutex
	caches map[string]*Cache
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{caches: make(map[string]*Cache)}
}

// GetCache returns the named cache, creating it with the given TTL and
// size the first time the name is seen.
func (m *Manager) GetCache(name string, defaultTTL time.Duration, maxEntries int) *Cache {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.caches[name]; ok {
		return c
	}
	c := NewCache(defaultTTL, maxEntries)
	m.caches[name] = c
	return c
}

// Stop stops every managed cache's sweep goroutine.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.caches {
		c.Stop()
	}
	m.caches = make(map[string]*Cache)
}

var globalManager = NewManager()

// Per-collector TTLs, matched to how quickly each source's answer goes
// stale.
const (
	TreemapScanTTL    = 60 * time.Second // large-file scan results
	SensorDataTTL     = 5 * time.Second  // hwmon sensor reads
	DiskInfoTTL       = 30 * time.Second // gosigar filesystem list
	ContainerInfoTTL  = 5 * time.Second  // container listing
	ConnectionsTTL    = 5 * time.Second  // /proc/net/tcp|udp snapshots
	GPUProcessInfoTTL = 5 * time.Second  // per-process GPU memory/utilization
)

// GetTreemapScanCache returns the cache backing the treemap collector's
// large-file scan results, which are expensive to recompute every tick.
func GetTreemapScanCache() *Cache {
	return globalManager.GetCache("treemap_scan", TreemapScanTTL, 8)
}

// GetSensorDataCache returns the hwmon sensor read cache.
func GetSensorDataCache() *Cache {
	return globalManager.GetCache("sensor_data", SensorDataTTL, 50)
}

// GetDiskInfoCache returns the filesystem enumeration cache.
func GetDiskInfoCache() *Cache {
	return globalManager.GetCache("disk_info", DiskInfoTTL, 50)
}

// GetContainerInfoCache returns the container listing cache.
func GetContainerInfoCache() *Cache {
	return globalManager.GetCache("container_info", ContainerInfoTTL, 100)
}

// GetConnectionsCache returns the connection-table snapshot cache.
func GetConnectionsCache() *Cache {
	return globalManager.GetCache("connections", ConnectionsTTL, 10)
}

// GetGPUProcessInfoCache returns the per-process GPU info cache.
func GetGPUProcessInfoCache() *Cache {
	return globalManager.GetCache("gpu_process_info", GPUProcessInfoTTL, 50)
}
