package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyDeterministic(t *testing.T) {
	tests := []struct {
		name string
		o    RenderOptions
		want string
	}{
		{"no dimensions", RenderOptions{OutputKind: Normal}, "normal_0_0"},
		{"width only", RenderOptions{OutputKind: Blurred, Width: Uint32Ptr(8)}, "blurred_8_0"},
		{"height only", RenderOptions{OutputKind: Grayscale, Height: Uint32Ptr(10)}, "grayscale_0_10"},
		{"both dimensions", RenderOptions{OutputKind: DominantColor, Width: Uint32Ptr(8), Height: Uint32Ptr(8)}, "dominant-color_8_8"},
		{"average color", RenderOptions{OutputKind: AverageColor}, "average-color_0_0"},
		{"transparent", RenderOptions{OutputKind: Transparent}, "transparent_0_0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CacheKey(tt.o))
			// same options produce the same key bit-for-bit on repeated calls.
			assert.Equal(t, CacheKey(tt.o), CacheKey(tt.o))
		})
	}
}

func TestCacheKeyIgnoresDeliveryOnlyFields(t *testing.T) {
	base := RenderOptions{OutputKind: Normal, Width: Uint32Ptr(16)}
	withCache := base
	withCache.Cache = true
	withWrap := base
	withWrap.WrapWithSVG = true
	withReplace := base
	withReplace.ReplaceFunctionCall = true

	want := CacheKey(base)
	assert.Equal(t, want, CacheKey(withCache))
	assert.Equal(t, want, CacheKey(withWrap))
	assert.Equal(t, want, CacheKey(withReplace))
}

func TestOutputKindRoundTrip(t *testing.T) {
	kinds := []OutputKind{Normal, Blurred, Grayscale, DominantColor, AverageColor, Transparent}
	for _, k := range kinds {
		assert.Equal(t, k, ParseOutputKind(k.String()))
	}
}

func TestParseOutputKindUnknownFallsBackToNormal(t *testing.T) {
	assert.Equal(t, Normal, ParseOutputKind("not-a-real-kind"))
}
