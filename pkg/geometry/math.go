package geometry

import "math"

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AtLeast returns v, or min if v is smaller (or NaN).
func AtLeast(v, min float64) float64 {
	if math.IsNaN(v) || v < min {
		return min
	}
	return v
}

// Within reports whether a and b are no more than threshold apart.
func Within(a, b, threshold float64) bool {
	return math.Abs(a-b) <= threshold
}

// ZoomThreshold scales a screen-space threshold into canvas units.
// A zoom of 2 halves the threshold; non-positive zoom is treated as 1.
func ZoomThreshold(threshold, zoom float64) float64 {
	if zoom <= 0 {
		return threshold
	}
	return threshold / zoom
}

// SnapToGrid rounds v to the nearest multiple of size.
func SnapToGrid(v, size float64) float64 {
	if size <= 0 {
		return v
	}
	return math.Round(v/size) * size
}

// NormalizeDegrees maps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
