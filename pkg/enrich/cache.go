package enrich

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"comicshelf/pkg/domain"
)

// DefaultCacheTTL bounds how long search results stay reusable. External
// search results are cheap to refetch and staleness beyond an hour is
// acceptable for recommendation purposes.
const DefaultCacheTTL = time.Hour

// ResultCache stores search results keyed by normalized query string.
type ResultCache interface {
	Get(key string) ([]domain.ComicRecord, bool)
	Set(key string, results []domain.ComicRecord)
}

type cacheEntry struct {
	results  []domain.ComicRecord
	storedAt time.Time
}

// MemoryCache is an in-process ResultCache with lazy TTL eviction. There is
// no size bound and no sweep goroutine: entries leave only when a Get finds
// them expired or the cache is cleared.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

// MemoryCacheOption customizes a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithClock substitutes the wall clock, used by tests to advance time.
func WithClock(clock clockwork.Clock) MemoryCacheOption {
	return func(c *MemoryCache) {
		c.clock = clock
	}
}

// NewMemoryCache creates a cache with the given TTL (DefaultCacheTTL when
// ttl <= 0).
func NewMemoryCache(ttl time.Duration, options ...MemoryCacheOption) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		clock:   clockwork.NewRealClock(),
	}
	for _, option := range options {
		if option != nil {
			option(c)
		}
	}
	return c
}

// Get returns cached results for the key. Expired entries are evicted and
// reported as a miss.
func (c *MemoryCache) Get(key string) ([]domain.ComicRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Since(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.results, true
}

// Set stores results under the key, replacing any previous entry.
func (c *MemoryCache) Set(key string, results []domain.ComicRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{results: results, storedAt: c.clock.Now()}
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of live plus not-yet-evicted entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
