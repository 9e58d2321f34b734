// Package cache provides a bounded, content-addressed memoization cache.
//
// Values are keyed by a 64-bit content hash of the text that produced
// them. The cache is bounded by entry count with access-frequency
// eviction and supports optional time-based expiry.
//
// A Cache is NOT safe for concurrent use. Callers that share a cache
// across goroutines must serialize access externally; this layer is
// designed to live behind a single owning parser instance.
package cache

import (
	"time"

	"github.com/zeebo/xxh3"
)

// Key is a content hash identifying a document text.
// It is a best-effort content address, not a collision-free identity.
type Key uint64

// KeyFor computes the cache key for the given text.
func KeyFor(text string) Key {
	return Key(xxh3.HashString(text))
}

// entry is a cached value with its bookkeeping.
type entry[T any] struct {
	value       T
	createdAt   time.Time
	accessCount uint64
}

// Cache memoizes values by content key, bounded by entry count.
//
// Eviction removes the entry with the globally lowest access count
// (ties broken by map iteration order). This is an access-frequency
// approximation rather than a true recency-ordered LRU: a hot entry
// that goes cold keeps its count and may outlive fresher entries.
// The trade-off keeps Get at O(1) with no recency list to maintain.
type Cache[T any] struct {
	entries map[Key]*entry[T]
	maxSize int
	maxAge  time.Duration // 0 means entries never expire
	clone   func(T) T     // nil means values are returned as stored

	hits   uint64
	misses uint64

	// now is replaceable for expiry tests.
	now func() time.Time
}

// Option configures a Cache.
type Option[T any] func(*Cache[T])

// WithMaxAge sets a maximum entry age. Expired entries are removed on
// the first Get after expiry and counted as misses.
func WithMaxAge[T any](d time.Duration) Option[T] {
	return func(c *Cache[T]) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// WithClone sets a clone function applied to values returned by Get,
// isolating callers from the cache's stored copy.
func WithClone[T any](fn func(T) T) Option[T] {
	return func(c *Cache[T]) {
		c.clone = fn
	}
}

// New creates a cache holding at most maxSize entries.
func New[T any](maxSize int, opts ...Option[T]) *Cache[T] {
	if maxSize <= 0 {
		maxSize = 1
	}
	c := &Cache[T]{
		entries: make(map[Key]*entry[T]),
		maxSize: maxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key.
// A missing or expired entry is a miss; expired entries are removed.
func (c *Cache[T]) Get(key Key) (T, bool) {
	var zero T

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}

	if c.maxAge > 0 && c.now().Sub(e.createdAt) > c.maxAge {
		delete(c.entries, key)
		c.misses++
		return zero, false
	}

	e.accessCount++
	c.hits++

	if c.clone != nil {
		return c.clone(e.value), true
	}
	return e.value, true
}

// Put stores a value for key, evicting first if at capacity.
// The size never exceeds maxSize after any Put.
func (c *Cache[T]) Put(key Key, value T) {
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evict()
	}

	c.entries[key] = &entry[T]{
		value:     value,
		createdAt: c.now(),
	}
}

// evict removes the entry with the lowest access count.
func (c *Cache[T]) evict() {
	var (
		victim Key
		lowest uint64
		found  bool
	)
	for key, e := range c.entries {
		if !found || e.accessCount < lowest {
			victim = key
			lowest = e.accessCount
			found = true
		}
	}
	if found {
		delete(c.entries, victim)
	}
}

// Clear empties the cache and resets the hit/miss counters.
func (c *Cache[T]) Clear() {
	c.entries = make(map[Key]*entry[T])
	c.hits = 0
	c.misses = 0
}

// Len returns the number of cached entries.
func (c *Cache[T]) Len() int {
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[T]) Stats() Stats {
	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}

// Stats holds cache statistics.
type Stats struct {
	Size    int     // Current number of entries
	MaxSize int     // Maximum entries allowed
	Hits    uint64  // Number of cache hits
	Misses  uint64  // Number of cache misses
	HitRate float64 // Hit rate (0.0 - 1.0)
}
