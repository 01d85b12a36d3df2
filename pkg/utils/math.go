package utils

import "math"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged and false is returned.
func NormalizeL2(x []float32) bool {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return false
	}
	norm := 1.0 / math.Sqrt(sum)
	for i := range x {
		x[i] = float32(float64(x[i]) * norm)
	}
	return true
}

// L2Norm returns the L2 norm of x.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of a and b. The caller guarantees equal lengths.
func Dot(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// Clamp01 bounds x to [0,1]. NaN maps to 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}

// AllFinite reports whether x holds no NaN or infinite component.
func AllFinite(x []float32) bool {
	for _, v := range x {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
