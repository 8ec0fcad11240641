// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package cache provides the bounded in-memory response cache for upstream
// payloads: an LRU with per-entry TTL, lazy expiry and deterministic key
// generation from request parameters.
//
// Cache operations never fail; a missing, expired or otherwise unusable entry
// is reported as a miss. The cache is safe for concurrent use.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/comexboard/comexboard/internal/metrics"
)

// entry is a node of the doubly-linked recency list.
type entry struct {
	key       string
	value     interface{}
	prev      *entry
	next      *entry
	expiresAt time.Time
}

// Cache is a thread-safe LRU cache with TTL support. It uses a doubly-linked
// list for recency ordering and a map for O(1) lookups; eviction under
// capacity pressure removes the least recently accessed entry.
type Cache struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	cleanup  time.Duration

	items map[string]*entry

	// head.next is the most recently used, tail.prev the least.
	head *entry
	tail *entry

	hits      int64
	misses    int64
	evictions int64

	// now is replaceable in tests to exercise TTL expiry without sleeping.
	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the cache's time source. Tests use this to advance time
// past entry TTLs deterministically.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithCleanupInterval sets the janitor sweep interval used by Serve.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) { c.cleanup = d }
}

// New creates an LRU cache holding at most capacity entries, each expiring
// ttl after insertion.
func New(capacity int, ttl time.Duration, opts ...Option) *Cache {
	if capacity <= 0 {
		capacity = 512
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	c := &Cache{
		capacity: capacity,
		ttl:      ttl,
		cleanup:  5 * time.Minute,
		items:    make(map[string]*entry, capacity),
		head:     &entry{},
		tail:     &entry{},
		now:      time.Now,
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the payload stored under key if present and not expired.
// An expired entry is evicted eagerly and reported as a miss. A hit moves the
// entry to the front of the recency order.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.items[key]
	if !exists {
		c.misses++
		metrics.CacheMisses.Inc()
		return nil, false
	}

	if c.now().After(e.expiresAt) {
		c.removeEntry(e)
		c.misses++
		c.evictions++
		metrics.CacheMisses.Inc()
		metrics.CacheEvictions.WithLabelValues("expired").Inc()
		metrics.CacheSize.Set(float64(len(c.items)))
		return nil, false
	}

	c.moveToFront(e)
	c.hits++
	metrics.CacheHits.Inc()
	return e.value, true
}

// Put stores a payload under key with the cache's default TTL.
func (c *Cache) Put(key string, value interface{}) {
	c.PutWithTTL(key, value, c.ttl)
}

// PutWithTTL stores a payload with an explicit TTL. When the cache is at
// capacity the least recently accessed entry is evicted first.
func (c *Cache) PutWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)

	if e, exists := c.items[key]; exists {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(e)
	c.items[key] = e

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
	metrics.CacheSize.Set(float64(len(c.items)))
}

// Delete removes the entry stored under key, if any.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.items[key]
	if !exists {
		return false
	}
	c.removeEntry(e)
	c.evictions++
	metrics.CacheSize.Set(float64(len(c.items)))
	return true
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := len(c.items)
	c.items = make(map[string]*entry, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.evictions += int64(evicted)
	metrics.CacheEvictions.WithLabelValues("clear").Add(float64(evicted))
	metrics.CacheSize.Set(0)
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the configured maximum number of entries.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Keys returns the keys of all live (non-expired) entries in recency order,
// most recent first. Expired entries encountered during the walk are evicted.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	keys := make([]string, 0, len(c.items))
	for e := c.head.next; e != c.tail; {
		next := e.next
		if now.After(e.expiresAt) {
			c.removeEntry(e)
			c.evictions++
			metrics.CacheEvictions.WithLabelValues("expired").Inc()
		} else {
			keys = append(keys, e.key)
		}
		e = next
	}
	metrics.CacheSize.Set(float64(len(c.items)))
	return keys
}

// Stats returns a snapshot of hit/miss/eviction counters and the current
// entry count.
func (c *Cache) Stats() (hits, misses, evictions int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.evictions, len(c.items)
}

// CleanupExpired removes all expired entries and returns how many were
// removed. Serve calls this periodically; it is exported for tests and for
// operator tooling.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	// Walk from the tail (oldest) toward the head.
	for e := c.tail.prev; e != c.head; {
		prev := e.prev
		if now.After(e.expiresAt) {
			c.removeEntry(e)
			removed++
		}
		e = prev
	}
	if removed > 0 {
		c.evictions += int64(removed)
		metrics.CacheEvictions.WithLabelValues("expired").Add(float64(removed))
		metrics.CacheSize.Set(float64(len(c.items)))
	}
	return removed
}

// Serve runs the janitor sweep loop until the context is canceled. It
// implements suture.Service so the cache can live in the supervision tree.
func (c *Cache) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Internal list operations (must be called with mu held)

func (c *Cache) addToFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *Cache) moveToFront(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.addToFront(e)
}

func (c *Cache) removeEntry(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}

func (c *Cache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
	c.evictions++
	metrics.CacheEvictions.WithLabelValues("capacity").Inc()
}

// GenerateKey derives a deterministic cache key from an operation name and
// its parameters. Parameters are serialized from a fixed-field struct, so two
// logically identical requests produce the same key regardless of how the
// caller assembled them.
func GenerateKey(operation string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Unserializable params still deserve a usable (if verbose) key.
		return fmt.Sprintf("%s:%v", operation, params)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", operation, sum[:16])
}
