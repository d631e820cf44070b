package tensor

import (
	"math"
)

// MaxAbsDiff returns the largest element-wise absolute difference.
func MaxAbsDiff(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("MaxAbsDiff: length mismatch")
	}
	var maxAbs float64
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > maxAbs {
			maxAbs = d
		}
	}
	return maxAbs
}

// relFloor keeps RelError finite for entries that cancel to (almost) zero.
const relFloor = 1e-8

// RelError is |a-b| / max(|a|+|b|, 1e-8).
func RelError(a, b float64) float64 {
	den := max(math.Abs(a)+math.Abs(b), relFloor)
	return math.Abs(a-b) / den
}

// MaxRelError returns the largest element-wise RelError.
func MaxRelError(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("MaxRelError: length mismatch")
	}
	var worst float64
	for i := range a {
		if e := RelError(a[i], b[i]); e > worst {
			worst = e
		}
	}
	return worst
}
