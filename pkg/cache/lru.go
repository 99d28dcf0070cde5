// Package cache implements the fixed-capacity LRU (C1) and the two-tier
// preview cache built on top of it (C2).
package cache

import (
	"sync"

	simplelru "github.com/hashicorp/golang-lru/v2/simplelru"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

// LRU is a fixed-capacity key->PreviewImage map with recency eviction.
// Capacity 0 is legal: store is a no-op and get always misses.
//
// The backing structure is hashicorp/golang-lru/v2's simplelru.LRU, which
// gives us the doubly-linked-list + map asymptotics a bounded LRU needs
// without hand-rolling one; we add our own mutex because simplelru.LRU
// itself is not safe for concurrent use (the two-tier cache is shared by
// every worker in the preview pool).
type LRU struct {
	mu       sync.Mutex
	capacity int
	inner    *simplelru.LRU[string, v1.PreviewImage]
}

// NewLRU builds an LRU of the given capacity.
func NewLRU(capacity int) *LRU {
	l := &LRU{capacity: capacity}
	if capacity > 0 {
		inner, err := simplelru.NewLRU[string, v1.PreviewImage](capacity, nil)
		if err != nil {
			// simplelru only errors on capacity <= 0, which we've guarded
			// against above; treat as unreachable but degrade safely.
			inner = nil
		}
		l.inner = inner
	}
	return l
}

// Store inserts or overwrites key, promoting it to most-recently-used.
func (l *LRU) Store(key string, value v1.PreviewImage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner == nil {
		return
	}
	l.inner.Add(key, value)
}

// Get returns the value for key, promoting it to most-recently-used on hit.
func (l *LRU) Get(key string) (v1.PreviewImage, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner == nil {
		return v1.PreviewImage{}, false
	}
	return l.inner.Get(key)
}

// Size returns the number of entries currently held.
func (l *LRU) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner == nil {
		return 0
	}
	return l.inner.Len()
}

// Capacity returns the configured capacity.
func (l *LRU) Capacity() int {
	return l.capacity
}
