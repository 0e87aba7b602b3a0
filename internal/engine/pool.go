package engine

import (
	"math/rand/v2"
)

// EndpointPool holds the fixed set of mirror base URLs. It tracks no health
// state: a dead mirror is exactly as likely to be picked on the next call as
// a healthy one.
type EndpointPool struct {
	endpoints []string
}

// NewEndpointPool copies the given base URLs into an immutable pool.
func NewEndpointPool(endpoints []string) *EndpointPool {
	cp := make([]string, len(endpoints))
	copy(cp, endpoints)
	return &EndpointPool{endpoints: cp}
}

// Len returns the number of known endpoints.
func (p *EndpointPool) Len() int { return len(p.endpoints) }

// Sample returns min(k, Len) distinct endpoints chosen uniformly at random
// without replacement.
func (p *EndpointPool) Sample(k int) []string {
	if k > len(p.endpoints) {
		k = len(p.endpoints)
	}
	if k <= 0 {
		return nil
	}
	out := make([]string, 0, k)
	for _, i := range rand.Perm(len(p.endpoints))[:k] {
		out = append(out, p.endpoints[i])
	}
	return out
}
