package series

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/dates"
)

// fakeClock is a controllable clock for cache tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testSeries(ticker string) Series {
	return Series{
		Ticker: ticker,
		Points: []PricePoint{
			{Date: dates.Midday(time.Date(2016, 1, 4, 0, 0, 0, 0, time.UTC)), AdjClose: 10},
			{Date: dates.Midday(time.Date(2016, 1, 5, 0, 0, 0, 0, time.UTC)), AdjClose: 11},
		},
	}
}

func newTestCache(ttl time.Duration, capacity int, clock *fakeClock) *Cache {
	return NewCache(CacheConfig{TTL: ttl, Capacity: capacity, Now: clock.Now}, zerolog.Nop())
}

func TestCache_GetSet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	cache := newTestCache(24*time.Hour, 8, clock)

	s := testSeries("TSLA")
	key := CacheKey("TSLA", s.EffectiveStart(), s.EffectiveEnd())

	_, ok := cache.Get(key)
	assert.False(t, ok, "empty cache must miss")

	cache.Set(key, s)

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, s, got, "hit must return the stored snapshot unchanged")
}

func TestCache_TTLExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	cache := newTestCache(24*time.Hour, 8, clock)

	key := CacheKey("TSLA", testSeries("TSLA").EffectiveStart(), testSeries("TSLA").EffectiveEnd())
	cache.Set(key, testSeries("TSLA"))

	clock.Advance(23 * time.Hour)
	_, ok := cache.Get(key)
	assert.True(t, ok, "entry within TTL must hit")

	clock.Advance(2 * time.Hour)
	_, ok = cache.Get(key)
	assert.False(t, ok, "entry past TTL must miss")
	assert.Equal(t, 0, cache.Len(), "expired entry is removed on access")
}

func TestCache_LRUEviction(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	cache := newTestCache(24*time.Hour, 2, clock)

	cache.Set("a", testSeries("A"))
	cache.Set("b", testSeries("B"))

	// Touch "a" so "b" becomes the least recently used.
	_, ok := cache.Get("a")
	require.True(t, ok)

	cache.Set("c", testSeries("C"))

	assert.Equal(t, 2, cache.Len())
	_, ok = cache.Get("b")
	assert.False(t, ok, "least recently used entry must be evicted")
	_, ok = cache.Get("a")
	assert.True(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)
}

func TestCache_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	cache := newTestCache(time.Hour, 16, clock)

	for i := 0; i < 3; i++ {
		cache.Set(fmt.Sprintf("old-%d", i), testSeries("OLD"))
	}
	clock.Advance(2 * time.Hour)
	cache.Set("fresh", testSeries("FRESH"))

	pruned := cache.Sweep()

	assert.Equal(t, 3, pruned)
	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("fresh")
	assert.True(t, ok)
}

func TestCache_SetReplacesExisting(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	cache := newTestCache(time.Hour, 4, clock)

	cache.Set("k", testSeries("OLD"))
	clock.Advance(50 * time.Minute)

	replacement := testSeries("NEW")
	cache.Set("k", replacement)

	// Replacement refreshes the stored-at time.
	clock.Advance(30 * time.Minute)
	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, "NEW", got.Ticker)
	assert.Equal(t, 1, cache.Len())
}
