// Package cache provides a small bounded TTL cache with request
// coalescing, used for user lookups and timeline cursors.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache maps string keys to values with a fixed TTL and a bounded entry
// count. Concurrent fetches of the same missing key are coalesced into
// one upstream call.
type Cache[V any] struct {
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]entry[V]
	group   singleflight.Group
	now     func() time.Time
}

// New returns a cache holding at most maxEntries values for ttl each.
func New[V any](ttl time.Duration, maxEntries int) *Cache[V] {
	return &Cache[V]{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]entry[V]),
		now:        time.Now,
	}
}

// Get returns the live value for key, if any.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, evicting if the cache is full.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value)
}

func (c *Cache[V]) put(key string, value V) {
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evict()
	}
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// evict drops expired entries, then the soonest-expiring one if the
// cache is still full. Called with the lock held.
func (c *Cache[V]) evict() {
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey, oldest = k, e.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// GetOrFetch returns the cached value for key, or runs fetch to fill it.
// Concurrent callers for the same key share one fetch; errors are not
// cached.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
