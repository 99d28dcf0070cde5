package cache

import (
	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

// DefaultRamCapacity and DefaultPreloadCapacity are the Preview Service's
// default tier sizes.
const (
	DefaultRamCapacity     = 64
	DefaultPreloadCapacity = 8
)

// TwoTier composes a RAM tier and a Preload tier with lookup fallthrough.
// A preload-tier hit does not get copied into RAM: that would let neighbor
// prefetch thrash the working set, which is exactly what the two tiers
// exist to prevent.
type TwoTier struct {
	ram     *LRU
	preload *LRU
}

// NewTwoTier builds a two-tier cache with the given per-tier capacities.
func NewTwoTier(ramCapacity, preloadCapacity int) *TwoTier {
	return &TwoTier{
		ram:     NewLRU(ramCapacity),
		preload: NewLRU(preloadCapacity),
	}
}

// Put writes image into the specified tier only.
func (t *TwoTier) Put(image v1.PreviewImage, tier v1.Tier) {
	switch tier {
	case v1.TierPreload:
		t.preload.Store(image.CacheKey, image)
	default:
		t.ram.Store(image.CacheKey, image)
	}
}

// Get consults RAM first, then Preload; the first hit wins and promotes in
// its own tier.
func (t *TwoTier) Get(key string) (v1.PreviewImage, v1.Tier, bool) {
	if img, ok := t.ram.Get(key); ok {
		return img, v1.TierRam, true
	}
	if img, ok := t.preload.Get(key); ok {
		return img, v1.TierPreload, true
	}
	return v1.PreviewImage{}, "", false
}

// RamSize returns the number of entries in the RAM tier.
func (t *TwoTier) RamSize() int { return t.ram.Size() }

// PreloadSize returns the number of entries in the Preload tier.
func (t *TwoTier) PreloadSize() int { return t.preload.Size() }
