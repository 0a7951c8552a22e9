package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is a cached payload with its fetch and expiry instants.
type Entry[T any] struct {
	Payload   T
	FetchedAt time.Time
	ExpiresAt time.Time
}

func (e Entry[T]) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// FetchFunc loads the payload for key on a miss.
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

// Cache is a TTL cache that fetches synchronously on a miss. Concurrent misses
// for the same key share one fetch.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]Entry[T]
	gens    map[string]uint64
	ttl     time.Duration
	fetch   FetchFunc[T]
	now     func() time.Time
	group   singleflight.Group
}

func New[T any](ttl time.Duration, fetch FetchFunc[T]) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]Entry[T]),
		gens:    make(map[string]uint64),
		ttl:     ttl,
		fetch:   fetch,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Tests only.
func (c *Cache[T]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Get returns the live entry for key, fetching it when absent or expired.
// The second return value reports whether the entry came from the cache.
func (c *Cache[T]) Get(ctx context.Context, key string) (Entry[T], bool, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !e.expired(c.now()) {
		c.mu.Unlock()
		return e, true, nil
	}
	c.mu.Unlock()

	// The shared fetch must not die with whichever caller started it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		c.mu.Lock()
		gen := c.gens[key]
		c.mu.Unlock()

		payload, err := c.fetch(fetchCtx, key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		now := c.now()
		e := Entry[T]{Payload: payload, FetchedAt: now, ExpiresAt: now.Add(c.ttl)}
		// An invalidation during the fetch means the result may predate a write.
		if c.gens[key] == gen {
			c.entries[key] = e
		}
		return e, nil
	})

	select {
	case <-ctx.Done():
		return Entry[T]{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Entry[T]{}, false, res.Err
		}
		return res.Val.(Entry[T]), false, nil
	}
}

// Invalidate drops key and marks any in-flight fetch for it as stale.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()
	c.group.Forget(key)
}

// Update applies fn to the live entry for key in place. It returns false and
// leaves the cache untouched when there is no live entry or fn declines.
func (c *Cache[T]) Update(key string, fn func(T) (T, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.expired(c.now()) {
		return false
	}
	payload, ok := fn(e.Payload)
	if !ok {
		return false
	}
	e.Payload = payload
	c.entries[key] = e
	return true
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
