package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetAndGet(t *testing.T) {
	c := NewCache(time.Minute, 10)
	defer c.Stop()

	c.Set("key", "value")

	got, found := c.Get("key")
	require.True(t, found)
	assert.Equal(t, "value", got)
}

func TestCache_Miss(t *testing.T) {
	c := NewCache(time.Minute, 10)
	defer c.Stop()

	_, found := c.Get("absent")
	assert.False(t, found)
}

func TestCache_Expiration(t *testing.T) {
	c := NewCache(50*time.Millisecond, 10)
	defer c.Stop()

	c.Set("key", "value")
	time.Sleep(80 * time.Millisecond)

	_, found := c.Get("key")
	assert.False(t, found, "entry should have expired")
}

func TestCache_SetWithTTL_OverridesDefault(t *testing.T) {
	c := NewCache(time.Minute, 10)
	defer c.Stop()

	c.SetWithTTL("short", "value", 50*time.Millisecond)
	c.Set("long", "value")
	time.Sleep(80 * time.Millisecond)

	_, found := c.Get("short")
	assert.False(t, found)
	_, found = c.Get("long")
	assert.True(t, found)
}

func TestCache_Delete(t *testing.T) {
	c := NewCache(time.Minute, 10)
	defer c.Stop()

	c.Set("key", "value")
	c.Delete("key")

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestCache_Clear(t *testing.T) {
	c := NewCache(time.Minute, 10)
	defer c.Stop()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	assert.Equal(t, 0, c.GetStats().Entries)
	assert.Equal(t, int64(0), c.GetStats().Hits)
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	c := NewCache(time.Minute, 3)
	defer c.Stop()

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
		time.Sleep(time.Millisecond)
	}
	// Touch key-0 so key-1 becomes the LRU victim.
	_, found := c.Get("key-0")
	require.True(t, found)

	c.Set("key-3", 3)

	_, found = c.Get("key-1")
	assert.False(t, found, "LRU entry should have been evicted")
	_, found = c.Get("key-0")
	assert.True(t, found)
	_, found = c.Get("key-3")
	assert.True(t, found)
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := NewCache(time.Minute, 2)
	defer c.Stop()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10) // overwrite at capacity must not evict "b"

	_, found := c.Get("b")
	assert.True(t, found)
	got, _ := c.Get("a")
	assert.Equal(t, 10, got)
}

func TestCache_Stats(t *testing.T) {
	c := NewCache(time.Minute, 10)
	defer c.Stop()

	c.Set("key", "value")
	c.Get("key")
	c.Get("key")
	c.Get("absent")

	s := c.GetStats()
	assert.Equal(t, 1, s.Entries)
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.InDelta(t, 66.7, s.HitRate, 0.1)
}

func TestManager_GetCache_ReturnsSameInstance(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	a := m.GetCache("one", time.Minute, 10)
	b := m.GetCache("one", time.Hour, 99) // config of an existing name is ignored
	assert.Same(t, a, b)

	other := m.GetCache("two", time.Minute, 10)
	assert.NotSame(t, a, other)
}

func TestNamedCaches_AreSingletons(t *testing.T) {
	assert.Same(t, GetTreemapScanCache(), GetTreemapScanCache())
	assert.Same(t, GetSensorDataCache(), GetSensorDataCache())
	assert.NotSame(t, GetTreemapScanCache(), GetSensorDataCache())
}
