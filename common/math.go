package common

import "math"

// https://stackoverflow.com/questions/18390266/how-can-we-truncate-float64-type-to-a-particular-precision
func Round(num float64) int {
	return int(num + math.Copysign(0.5, num))
}

// AlmostEqual compares two floats with a relative tolerance,
// falling back to an absolute tolerance near zero.
func AlmostEqual(a, b, tol float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	norm := math.Max(math.Abs(a), math.Abs(b))
	if norm < 1 {
		return diff <= tol
	}
	return diff <= tol*norm
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
