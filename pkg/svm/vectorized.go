package svm

import (
	"gonum.org/v1/gonum/mat"
)

// Vectorized computes the same loss and gradient as Naive with whole-matrix
// operations:
//
//	scores  = X·W
//	margins = max(0, scores − scores[i, y_i] + Δ), margins[i, y_i] = 0
//	coeff   = 1[margins > 0], coeff[i, y_i] = −Σ_j coeff[i, j]
//	grad    = Xᵀ·coeff / N + reg·W
func Vectorized(w, x mat.Matrix, y []int, reg float64) (float64, *mat.Dense, error) {
	dm, err := validate(w, x, y, reg)
	if err != nil {
		return 0, nil, err
	}
	n, d, c := dm.n, dm.d, dm.c

	scores := mat.NewDense(n, c, nil)
	scores.Mul(x, w)

	correct := gather(scores, y)

	margins := mat.NewDense(n, c, nil)
	margins.Apply(func(i, _ int, s float64) float64 {
		return max(0, s-correct[i]+Delta)
	}, scores)
	scatter(margins, y, nil)

	loss := mat.Sum(margins) / float64(n)

	coeff := mat.NewDense(n, c, nil)
	coeff.Apply(func(_, _ int, m float64) float64 {
		if m > 0 {
			return 1
		}
		return 0
	}, margins)

	counts := mat.NewVecDense(n, nil)
	counts.MulVec(coeff, ones(c))
	counts.ScaleVec(-1, counts)
	scatter(coeff, y, counts.RawVector().Data)

	grad := mat.NewDense(d, c, nil)
	grad.Mul(x.T(), coeff)
	grad.Scale(1/float64(n), grad)

	loss = addRegularization(loss, grad, w, reg)
	return loss, grad, nil
}

// gather returns m[i, idx[i]] for every row i.
func gather(m *mat.Dense, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = m.At(i, j)
	}
	return out
}

// scatter stores vals[i] at m[i, idx[i]]; a nil vals stores zeros.
func scatter(m *mat.Dense, idx []int, vals []float64) {
	for i, j := range idx {
		var v float64
		if vals != nil {
			v = vals[i]
		}
		m.Set(i, j, v)
	}
}

func ones(n int) *mat.VecDense {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return mat.NewVecDense(n, v)
}
