package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTTLCacheGetSet(t *testing.T) {
	c := NewTTLCache[string](time.Minute, 0)

	// Miss
	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss on empty cache")
	}

	// Set then hit
	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}
}

func TestTTLCacheExpiration(t *testing.T) {
	c := NewTTLCache[string](5*time.Millisecond, 0)

	c.Set("k", "temp")
	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after TTL elapsed")
	}
}

func TestTTLCacheEviction(t *testing.T) {
	c := NewTTLCache[int](time.Minute, 3)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		time.Sleep(2 * time.Millisecond) // distinct insertion times
	}

	t.Run("insert at cap evicts exactly the oldest", func(t *testing.T) {
		c.Set("k3", 3)
		if c.Len() != 3 {
			t.Errorf("len = %d, want 3", c.Len())
		}
		if _, ok := c.Get("k0"); ok {
			t.Error("oldest entry survived eviction")
		}
		for _, k := range []string{"k1", "k2", "k3"} {
			if _, ok := c.Get(k); !ok {
				t.Errorf("entry %s missing", k)
			}
		}
	})

	t.Run("rewriting an existing key does not evict", func(t *testing.T) {
		c.Set("k2", 42)
		if c.Len() != 3 {
			t.Errorf("len = %d, want 3", c.Len())
		}
		got, _ := c.Get("k2")
		if got != 42 {
			t.Errorf("got %d, want 42", got)
		}
	})

	t.Run("cap is never exceeded", func(t *testing.T) {
		for i := 10; i < 30; i++ {
			c.Set(fmt.Sprintf("k%d", i), i)
			if c.Len() > 3 {
				t.Fatalf("len = %d exceeds cap", c.Len())
			}
		}
	})
}

func TestTTLCacheGetOrRefresh(t *testing.T) {
	t.Run("stores the refreshed value", func(t *testing.T) {
		c := NewTTLCache[string](time.Minute, 0)
		got, err := c.GetOrRefresh(context.Background(), "k", func(context.Context) (string, error) {
			return "fresh", nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "fresh" {
			t.Errorf("got %q, want %q", got, "fresh")
		}
		if v, ok := c.Get("k"); !ok || v != "fresh" {
			t.Errorf("value not stored, got %q ok=%v", v, ok)
		}
	})

	t.Run("failed refresh stores nothing", func(t *testing.T) {
		c := NewTTLCache[string](time.Minute, 0)
		_, err := c.GetOrRefresh(context.Background(), "k", func(context.Context) (string, error) {
			return "", errors.New("upstream down")
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if _, ok := c.Get("k"); ok {
			t.Error("failed refresh left an entry behind")
		}
	})

	t.Run("concurrent refreshes collapse to one call", func(t *testing.T) {
		c := NewTTLCache[string](time.Minute, 0)
		var calls atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = c.GetOrRefresh(context.Background(), "k", func(context.Context) (string, error) {
					calls.Add(1)
					time.Sleep(10 * time.Millisecond)
					return "v", nil
				})
			}()
		}
		wg.Wait()
		if n := calls.Load(); n != 1 {
			t.Errorf("refresh called %d times, want 1", n)
		}
	})

	t.Run("valid entry short-circuits refresh", func(t *testing.T) {
		c := NewTTLCache[string](time.Minute, 0)
		c.Set("k", "cached")
		got, err := c.GetOrRefresh(context.Background(), "k", func(context.Context) (string, error) {
			t.Error("refresh should not run for a valid entry")
			return "", nil
		})
		if err != nil || got != "cached" {
			t.Errorf("got %q err=%v, want cached", got, err)
		}
	})
}

func TestThumbCacheMissCountedOnce(t *testing.T) {
	tc := NewThumbCache(time.Minute, 10, nil)

	before := GetMetrics()["cache_misses"]
	_, err := tc.GetOrFetch(context.Background(), "fresh-id", func(context.Context) ([]byte, error) {
		return []byte{1}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := GetMetrics()["cache_misses"] - before; got != 1 {
		t.Errorf("miss counted %d times, want 1", got)
	}

	beforeHits := GetMetrics()["cache_hits"]
	if _, err := tc.GetOrFetch(context.Background(), "fresh-id", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := GetMetrics()["cache_hits"] - beforeHits; got != 1 {
		t.Errorf("hit counted %d times, want 1", got)
	}
}

func TestThumbCacheMemoryTier(t *testing.T) {
	// No Redis: memory tier only
	tc := NewThumbCache(time.Minute, 10, nil)

	var calls atomic.Int64
	fetch := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte{0xff, 0xd8}, nil
	}

	for i := 0; i < 3; i++ {
		data, err := tc.GetOrFetch(context.Background(), "abc", fetch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != 2 {
			t.Errorf("got %d bytes, want 2", len(data))
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
	if tc.Len() != 1 {
		t.Errorf("len = %d, want 1", tc.Len())
	}
}
