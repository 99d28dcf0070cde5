package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

func TestTwoTierRamBeforePreload(t *testing.T) {
	tt := NewTwoTier(4, 4)
	ramImg := v1.PreviewImage{CacheKey: "x", Pixels: []byte{9}}
	preloadImg := v1.PreviewImage{CacheKey: "x", Pixels: []byte{1}}

	tt.Put(preloadImg, v1.TierPreload)
	tt.Put(ramImg, v1.TierRam)

	got, tier, ok := tt.Get("x")
	assert.True(t, ok)
	assert.Equal(t, v1.TierRam, tier)
	assert.Equal(t, ramImg.Pixels, got.Pixels)
}

func TestTwoTierFallsThroughToPreload(t *testing.T) {
	tt := NewTwoTier(4, 4)
	tt.Put(v1.PreviewImage{CacheKey: "y", Pixels: []byte{7}}, v1.TierPreload)

	got, tier, ok := tt.Get("y")
	assert.True(t, ok)
	assert.Equal(t, v1.TierPreload, tier)
	assert.Equal(t, byte(7), got.Pixels[0])
}

func TestTwoTierNoCrossTierPromotion(t *testing.T) {
	tt := NewTwoTier(4, 4)
	tt.Put(v1.PreviewImage{CacheKey: "z"}, v1.TierPreload)
	_, _, ok := tt.Get("z")
	assert.True(t, ok)

	assert.Equal(t, 0, tt.RamSize())
	assert.Equal(t, 1, tt.PreloadSize())
}

func TestTwoTierMiss(t *testing.T) {
	tt := NewTwoTier(4, 4)
	_, _, ok := tt.Get("missing")
	assert.False(t, ok)
}
