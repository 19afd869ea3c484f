package series

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/hindsightlab/hindsight/internal/dates"
	"github.com/rs/zerolog"
)

// CacheConfig holds cache tuning knobs. Both bounds are enforced
// independently: TTL bounds staleness, capacity bounds memory.
type CacheConfig struct {
	TTL      time.Duration
	Capacity int
	Now      func() time.Time // injectable clock, defaults to time.Now
}

// Cache is a TTL + LRU bounded cache of resolved price series, keyed by
// (ticker, requested start, requested end). Entries are immutable snapshots:
// a hit returns the stored series unchanged.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	ttl      time.Duration
	capacity int
	now      func() time.Time
	log      zerolog.Logger
}

type cacheEntry struct {
	key      string
	series   Series
	storedAt time.Time
}

// NewCache creates a series cache with the given bounds.
func NewCache(cfg CacheConfig, log zerolog.Logger) *Cache {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		ttl:      cfg.TTL,
		capacity: cfg.Capacity,
		now:      now,
		log:      log.With().Str("component", "series_cache").Logger(),
	}
}

// CacheKey builds the cache key for a requested window.
func CacheKey(ticker string, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%s", ticker, dates.FormatDay(start), dates.FormatDay(end))
}

// Get returns the cached series for key, if present and not expired.
// An expired entry is removed on access.
func (c *Cache) Get(key string) (Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return Series{}, false
	}

	entry := el.Value.(*cacheEntry)
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.removeLocked(el)
		return Series{}, false
	}

	c.order.MoveToFront(el)
	return entry.series, true
}

// Set stores a series under key, replacing any existing entry and evicting
// the least recently used entry when over capacity.
func (c *Cache) Set(key string, s Series) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.series = s
		entry.storedAt = c.now()
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&cacheEntry{key: key, series: s, storedAt: c.now()})
	c.entries[key] = el

	for c.capacity > 0 && c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.log.Debug().Str("key", oldest.Value.(*cacheEntry).key).Msg("Evicting LRU cache entry")
		c.removeLocked(oldest)
	}
}

// Sweep removes all expired entries and returns how many were pruned.
// Called periodically by the maintenance scheduler.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	pruned := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		entry := el.Value.(*cacheEntry)
		if c.now().Sub(entry.storedAt) > c.ttl {
			c.removeLocked(el)
			pruned++
		}
		el = prev
	}

	if pruned > 0 {
		c.log.Debug().Int("pruned", pruned).Int("remaining", c.order.Len()).Msg("Swept expired cache entries")
	}
	return pruned
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) removeLocked(el *list.Element) {
	entry := el.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.order.Remove(el)
}
