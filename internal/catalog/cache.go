package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

type entry[T any] struct {
	val T
	err error
}

// Cache memoizes the outcome of an async call per key. Concurrent callers of
// the same key share one call; once it returns, its value or error is kept
// for the lifetime of the cache.
type Cache[T any] struct {
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry[T]
}

// NewCache returns an empty Cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]entry[T])}
}

// Do returns the memoized result for key, running fn if no call for key has
// completed yet.
func (c *Cache[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	if e, ok := c.lookup(key); ok {
		return e.val, e.err
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		if e, ok := c.lookup(key); ok {
			return e, nil
		}
		val, err := fn(ctx)
		e := entry[T]{val: val, err: err}
		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()
		return e, nil
	})
	e := v.(entry[T])
	return e.val, e.err
}

func (c *Cache[T]) lookup(key string) (entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}
