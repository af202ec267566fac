package cache

import (
	"sync"
	"time"
)

// Cache is a small read-through cache for hot-path lookups. Expiry policy
// belongs to the cache, not the caller: entries share one TTL fixed at
// construction time.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
}

// defaultMaxEntries bounds memory for long-running processes; the scan
// screen only ever re-polls a handful of tracking numbers.
const defaultMaxEntries = 512

type entry[V any] struct {
	value    V
	deadline time.Time
}

// TTLCache keeps values in memory until their shared TTL elapses. Expired
// entries are dropped lazily on read and swept on write once the cache
// grows past its bound.
type TTLCache[K comparable, V any] struct {
	ttl        time.Duration
	maxEntries int
	mu         sync.RWMutex
	items      map[K]entry[V]
}

// NewTTLCache constructs a cache whose entries live for ttl. A ttl of zero
// or less means entries never expire; use NoopCache to disable caching.
func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		ttl:        ttl,
		maxEntries: defaultMaxEntries,
		items:      make(map[K]entry[V]),
	}
}

// Get returns a cached value if present and not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if !item.deadline.IsZero() && time.Now().After(item.deadline) {
		c.Delete(key)
		return zero, false
	}
	return item.value, true
}

// Set stores a value under the cache's TTL.
func (c *TTLCache[K, V]) Set(key K, value V) {
	if c == nil {
		return
	}
	var deadline time.Time
	if c.ttl > 0 {
		deadline = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	if len(c.items) >= c.maxEntries {
		c.sweepLocked(time.Now())
	}
	c.items[key] = entry[V]{value: value, deadline: deadline}
	c.mu.Unlock()
}

// Delete removes a cached entry.
func (c *TTLCache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// sweepLocked drops expired entries; if nothing has expired the cache is
// cleared outright rather than growing without bound.
func (c *TTLCache[K, V]) sweepLocked(now time.Time) {
	swept := false
	for key, item := range c.items {
		if !item.deadline.IsZero() && now.After(item.deadline) {
			delete(c.items, key)
			swept = true
		}
	}
	if !swept {
		c.items = make(map[K]entry[V])
	}
}

// NoopCache always misses and ignores writes.
type NoopCache[K comparable, V any] struct{}

// Get always returns a miss.
func (NoopCache[K, V]) Get(key K) (V, bool) {
	var zero V
	return zero, false
}

// Set is a no-op.
func (NoopCache[K, V]) Set(key K, value V) {}

// Delete is a no-op.
func (NoopCache[K, V]) Delete(key K) {}
