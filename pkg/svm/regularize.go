package svm

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// sumSquares returns Σ w_ij².
func sumSquares(w mat.Matrix) float64 {
	r, c := w.Dims()
	if rm, ok := w.(mat.RawRowViewer); ok {
		var sum float64
		for i := 0; i < r; i++ {
			row := rm.RawRowView(i)
			sum += floats.Dot(row, row)
		}
		return sum
	}
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := w.At(i, j)
			sum += v * v
		}
	}
	return sum
}

// addRegularization applies the L2 penalty: loss + reg·ΣW² and grad + reg·W.
func addRegularization(loss float64, grad *mat.Dense, w mat.Matrix, reg float64) float64 {
	if reg == 0 {
		return loss
	}
	var scaled mat.Dense
	scaled.Scale(reg, w)
	grad.Add(grad, &scaled)
	return loss + reg*sumSquares(w)
}
