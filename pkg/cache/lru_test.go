package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

func img(key string) v1.PreviewImage {
	return v1.PreviewImage{CacheKey: key, Pixels: []byte{1, 2, 3}}
}

func TestLRUCapacityZero(t *testing.T) {
	l := NewLRU(0)
	l.Store("a", img("a"))
	_, ok := l.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, l.Size())
}

func TestLRUEvictsOldest(t *testing.T) {
	l := NewLRU(2)
	l.Store("a", img("a"))
	l.Store("b", img("b"))
	l.Store("c", img("c"))

	assert.Equal(t, 2, l.Size())
	_, ok := l.Get("a")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = l.Get("b")
	assert.True(t, ok)
	_, ok = l.Get("c")
	assert.True(t, ok)
}

func TestLRUGetPromotesRecency(t *testing.T) {
	l := NewLRU(2)
	l.Store("a", img("a"))
	l.Store("b", img("b"))

	// touching "a" makes it MRU, so "b" should be evicted next.
	_, ok := l.Get("a")
	assert.True(t, ok)

	l.Store("c", img("c"))

	_, ok = l.Get("b")
	assert.False(t, ok)
	_, ok = l.Get("a")
	assert.True(t, ok)
	_, ok = l.Get("c")
	assert.True(t, ok)
}

func TestLRUOverwritePromotes(t *testing.T) {
	l := NewLRU(2)
	l.Store("a", img("a"))
	l.Store("b", img("b"))
	l.Store("a", img("a-v2"))
	l.Store("c", img("c"))

	_, ok := l.Get("b")
	assert.False(t, ok)
	_, ok = l.Get("a")
	assert.True(t, ok)
}

func TestLRUConcurrentUse(t *testing.T) {
	l := NewLRU(16)
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%8)
			l.Store(key, img(key))
			l.Get(key)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, l.Size(), 16)
}
