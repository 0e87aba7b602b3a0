package engine

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Entry is one cached value with its insertion time. Entries are replaced
// wholesale on refresh, never mutated in place, so a concurrent reader sees
// either the old valid entry or the fully written new one.
type Entry[T any] struct {
	Value    T
	StoredAt time.Time
}

// TTLCache is a keyed cache whose entries are valid for a fixed duration
// after insertion. A stale entry is treated as absent and is never served as
// a fallback; callers substitute their own hardcoded defaults instead.
type TTLCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
	ttl     time.Duration
	max     int // 0 = unbounded

	group singleflight.Group
}

// NewTTLCache creates a cache with the given TTL. maxEntries > 0 caps the
// cache; inserting a new key at capacity first evicts exactly the entry with
// the oldest insertion time.
func NewTTLCache[T any](ttl time.Duration, maxEntries int) *TTLCache[T] {
	return &TTLCache[T]{
		entries: make(map[string]Entry[T]),
		ttl:     ttl,
		max:     maxEntries,
	}
}

// Get returns the value for key if a valid entry exists.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	v, ok := c.peek(key)
	if ok {
		IncrCacheHit()
	} else {
		IncrCacheMiss()
	}
	return v, ok
}

func (c *TTLCache[T]) peek(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.StoredAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.Value, true
}

// Set stores value under key, evicting the oldest-stored entry first when the
// insert would push the cache past its cap.
func (c *TTLCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && c.max > 0 && len(c.entries) >= c.max {
		c.evictOldestLocked()
	}
	c.entries[key] = Entry[T]{Value: value, StoredAt: time.Now()}
}

func (c *TTLCache[T]) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.StoredAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.StoredAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// Len returns the current entry count, expired entries included.
func (c *TTLCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrRefresh returns the cached value for key, or calls refresh and stores
// its result. Concurrent refreshes of the same key are collapsed into one
// upstream call. A failed refresh returns the error without touching any
// existing entry.
func (c *TTLCache[T]) GetOrRefresh(ctx context.Context, key string, refresh func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		val, err := refresh(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, val)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// ThumbCache caches thumbnail bytes per video id: an in-memory TTL tier that
// carries all the cap and eviction invariants, plus an optional Redis L2 that
// survives restarts, mirroring nothing into it but the raw bytes.
type ThumbCache struct {
	mem *TTLCache[[]byte]
	rdb *redis.Client // nil = L2 disabled
	ttl time.Duration
}

// NewThumbCache creates the thumbnail tier. rdb may be nil.
func NewThumbCache(ttl time.Duration, maxEntries int, rdb *redis.Client) *ThumbCache {
	return &ThumbCache{
		mem: NewTTLCache[[]byte](ttl, maxEntries),
		rdb: rdb,
		ttl: ttl,
	}
}

func thumbKey(id string) string { return "thumb:" + id }

// GetOrFetch returns cached thumbnail bytes for the video id, consulting
// memory, then Redis, then the fetch function.
func (t *ThumbCache) GetOrFetch(ctx context.Context, id string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if data, ok := t.mem.peek(id); ok {
		IncrCacheHit()
		return data, nil
	}
	if t.rdb != nil {
		if data, err := t.rdb.Get(ctx, thumbKey(id)).Bytes(); err == nil {
			IncrCacheHit()
			t.mem.Set(id, data)
			return data, nil
		}
	}
	data, err := t.mem.GetOrRefresh(ctx, id, fetch)
	if err != nil {
		return nil, err
	}
	if t.rdb != nil {
		t.rdb.Set(ctx, thumbKey(id), data, t.ttl)
	}
	return data, nil
}

// Len reports the in-memory entry count.
func (t *ThumbCache) Len() int { return t.mem.Len() }
