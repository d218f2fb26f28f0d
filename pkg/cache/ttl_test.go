package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestLRUCache_TTL(t *testing.T) {
	t.Parallel()

	t.Run("entry read after ttl is a miss", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := cache.NewLRUCache[string, string](10, cache.WithTTL(time.Second), cache.WithClock(clock.Now))

		c.Put("k", "v")
		clock.Advance(999 * time.Millisecond)
		v, ok := c.Get("k")
		require.True(t, ok)
		assert.Equal(t, "v", v)

		clock.Advance(time.Millisecond)
		_, ok = c.Get("k")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len(), "expired entry is dropped on read")

		stats := c.Stats()
		assert.Equal(t, uint64(1), stats.Hits)
		assert.Equal(t, uint64(1), stats.Misses)
		assert.Equal(t, uint64(1), stats.Expirations)
	})

	t.Run("put restarts ttl", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := cache.NewLRUCache[string, int](10, cache.WithTTL(time.Second), cache.WithClock(clock.Now))

		c.Put("k", 1)
		clock.Advance(800 * time.Millisecond)
		c.Put("k", 2)
		clock.Advance(800 * time.Millisecond)

		v, ok := c.Get("k")
		require.True(t, ok)
		assert.Equal(t, 2, v)
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := cache.NewLRUCache[string, int](10, cache.WithClock(clock.Now))

		c.Put("k", 1)
		clock.Advance(24 * 365 * time.Hour)
		_, ok := c.Get("k")
		assert.True(t, ok)
	})

	t.Run("expired entries are purged before live ones are evicted", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := cache.NewLRUCache[string, int](2, cache.WithTTL(time.Second), cache.WithClock(clock.Now))

		c.Put("old", 1)
		clock.Advance(500 * time.Millisecond)
		c.Put("live", 2)
		clock.Advance(600 * time.Millisecond)

		// "old" expired; inserting a third entry removes it instead of "live".
		c.Put("new", 3)

		_, ok := c.Get("live")
		assert.True(t, ok)
		_, ok = c.Get("new")
		assert.True(t, ok)
		assert.Equal(t, 2, c.Len())

		stats := c.Stats()
		assert.Equal(t, uint64(1), stats.Expirations)
		assert.Equal(t, uint64(0), stats.Evictions)
	})
}

func TestLRUCache_EvictsLeastRecentlyUsedOnOverflow(t *testing.T) {
	t.Parallel()

	const size = 5
	c := cache.NewLRUCache[int, int](size)
	for i := range size {
		c.Put(i, i)
	}
	// Touch everything except 2.
	for _, k := range []int{0, 1, 3, 4} {
		_, ok := c.Get(k)
		require.True(t, ok)
	}

	c.Put(size, size)

	_, ok := c.Get(2)
	assert.False(t, ok)
	assert.Equal(t, size, c.Len())
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestLRUCache_Reset(t *testing.T) {
	t.Parallel()

	var c cache.Cache[string, int] = cache.NewLRUCache[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)

	r, ok := c.(cache.Resetter)
	require.True(t, ok)
	r.Reset()

	_, found := c.Get("a")
	assert.False(t, found)
	_, found = c.Get("b")
	assert.False(t, found)
}
