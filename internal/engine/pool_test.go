package engine

import (
	"testing"
)

func TestEndpointPoolSample(t *testing.T) {
	endpoints := []string{"a", "b", "c", "d", "e"}
	pool := NewEndpointPool(endpoints)

	t.Run("returns k distinct endpoints", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			sample := pool.Sample(3)
			if len(sample) != 3 {
				t.Fatalf("len = %d, want 3", len(sample))
			}
			seen := map[string]bool{}
			for _, s := range sample {
				if seen[s] {
					t.Fatalf("duplicate endpoint %q in sample", s)
				}
				seen[s] = true
			}
		}
	})

	t.Run("k larger than pool clamps", func(t *testing.T) {
		sample := pool.Sample(10)
		if len(sample) != len(endpoints) {
			t.Errorf("len = %d, want %d", len(sample), len(endpoints))
		}
	})

	t.Run("non-positive k yields nothing", func(t *testing.T) {
		if got := pool.Sample(0); len(got) != 0 {
			t.Errorf("Sample(0) = %v, want empty", got)
		}
		if got := pool.Sample(-1); len(got) != 0 {
			t.Errorf("Sample(-1) = %v, want empty", got)
		}
	})

	t.Run("every endpoint is reachable", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 200; i++ {
			for _, s := range pool.Sample(2) {
				seen[s] = true
			}
		}
		for _, e := range endpoints {
			if !seen[e] {
				t.Errorf("endpoint %q never sampled", e)
			}
		}
	})

	t.Run("empty pool", func(t *testing.T) {
		empty := NewEndpointPool(nil)
		if got := empty.Sample(3); len(got) != 0 {
			t.Errorf("Sample on empty pool = %v, want empty", got)
		}
	})
}

func TestEndpointPoolCopiesInput(t *testing.T) {
	src := []string{"a", "b"}
	pool := NewEndpointPool(src)
	src[0] = "mutated"
	sample := pool.Sample(2)
	for _, s := range sample {
		if s == "mutated" {
			t.Error("pool aliases caller slice")
		}
	}
}
