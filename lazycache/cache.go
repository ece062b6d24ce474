// Package lazycache memoizes expensive per-key fetches (embedding vectors,
// mostly) that are only loaded when the user asks to see them.
package lazycache

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultSize bounds the number of cached values.
const DefaultSize = 256

// FetchFunc loads the value for one key.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Cache is a bounded LRU of fetched values. Concurrent Gets for the same
// key share one fetch; a failed fetch is reported to every waiter and
// nothing is stored.
type Cache[K comparable, V any] struct {
	fetch FetchFunc[K, V]
	store *lru.Cache[K, V]
	group singleflight.Group

	mu sync.Mutex
	// gens is bumped by Evict, and epoch by Purge, so a fetch that started
	// before the eviction does not repopulate the entry.
	gens  map[K]uint64
	epoch uint64
}

// New returns a Cache holding at most size values. A non-positive size
// uses DefaultSize.
func New[K comparable, V any](size int, fetch FetchFunc[K, V]) *Cache[K, V] {
	if size <= 0 {
		size = DefaultSize
	}
	store, err := lru.New[K, V](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Cache[K, V]{
		fetch: fetch,
		store: store,
		gens:  make(map[K]uint64),
	}
}

// Get returns the cached value for key, fetching it on a miss.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := c.store.Get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	gen, epoch := c.gens[key], c.epoch
	c.mu.Unlock()

	// Keys are shared by their printed form; K is expected to print
	// uniquely (IDs, composite ID structs).
	sfKey := fmt.Sprintf("%d.%d:%v", epoch, gen, key)
	v, err, _ := c.group.Do(sfKey, func() (any, error) {
		// A shared call that finished after the miss above has stored it.
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		v, err := c.fetch(ctx, key)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		if c.gens[key] == gen && c.epoch == epoch {
			c.store.Add(key, v)
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	val, _ := v.(V)
	return val, nil
}

// Peek returns the cached value without fetching or touching recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	return c.store.Peek(key)
}

// Contains reports whether key is cached.
func (c *Cache[K, V]) Contains(key K) bool {
	return c.store.Contains(key)
}

// Evict drops key. A fetch already in flight for it still answers its
// waiters but is not stored.
func (c *Cache[K, V]) Evict(key K) {
	c.mu.Lock()
	c.gens[key]++
	c.store.Remove(key)
	c.mu.Unlock()
}

// Toggle flips the visibility of key's value: a cached entry is evicted
// and (zero, false, nil) returned; otherwise the value is fetched and
// returned with true.
func (c *Cache[K, V]) Toggle(ctx context.Context, key K) (V, bool, error) {
	if c.store.Contains(key) {
		c.Evict(key)
		var zero V
		return zero, false, nil
	}
	v, err := c.Get(ctx, key)
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

// Purge drops every entry.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	c.epoch++
	clear(c.gens)
	c.store.Purge()
	c.mu.Unlock()
}

// Len returns the number of cached values.
func (c *Cache[K, V]) Len() int {
	return c.store.Len()
}
