package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeL2(t *testing.T) {
	x := []float32{3, 4}
	assert.True(t, NormalizeL2(x))
	assert.InDelta(t, 0.6, x[0], 1e-6)
	assert.InDelta(t, 0.8, x[1], 1e-6)
	assert.InDelta(t, 1.0, L2Norm(x), 1e-6)

	zero := []float32{0, 0, 0}
	assert.False(t, NormalizeL2(zero))
	assert.Equal(t, []float32{0, 0, 0}, zero)
}

func TestDot(t *testing.T) {
	assert.Equal(t, 11.0, Dot([]float32{1, 2}, []float32{3, 4}))
	assert.Equal(t, 0.0, Dot(nil, nil))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.3))
	assert.Equal(t, 1.0, Clamp01(1.0000001))
	assert.Equal(t, 0.5, Clamp01(0.5))
	assert.False(t, math.IsNaN(Clamp01(0)))
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
}

func TestAllFinite(t *testing.T) {
	assert.True(t, AllFinite([]float32{0, -1, 3.5}))
	assert.True(t, AllFinite(nil))
	assert.False(t, AllFinite([]float32{1, float32(math.NaN())}))
	assert.False(t, AllFinite([]float32{float32(math.Inf(-1))}))
}
