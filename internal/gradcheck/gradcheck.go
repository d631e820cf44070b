// Package gradcheck compares analytic gradients against central finite
// differences.
package gradcheck

import (
	"math/rand"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/hinge/internal/tensor"
)

// DefaultStep is the finite difference step. The hinge loss is piecewise
// linear, so the step only needs to stay well inside a linear piece.
const DefaultStep = 1e-5

// Func evaluates a scalar loss at the given weights.
type Func func(w *mat.Dense) float64

// Sample is one sampled coordinate.
type Sample struct {
	Row, Col int
	Numeric  float64
	Analytic float64
	RelError float64
}

// Full estimates every partial derivative of f at w with central differences.
// w is not modified.
func Full(f Func, w *mat.Dense, step float64) *mat.Dense {
	if step <= 0 {
		step = DefaultStep
	}
	r, c := w.Dims()
	eval := func(v []float64) float64 {
		return f(mat.NewDense(r, c, v))
	}
	grad := fd.Gradient(nil, eval, flatten(w), &fd.Settings{
		Formula: fd.Central,
		Step:    step,
	})
	return mat.NewDense(r, c, grad)
}

// Sparse samples n random coordinates of w, comparing central differences of
// f with the analytic gradient. w is restored after every sample.
func Sparse(f Func, w, analytic *mat.Dense, n int, step float64, rng *rand.Rand) []Sample {
	if step <= 0 {
		step = DefaultStep
	}
	r, c := w.Dims()
	samples := make([]Sample, 0, n)
	for range n {
		i, j := rng.Intn(r), rng.Intn(c)
		old := w.At(i, j)

		w.Set(i, j, old+step)
		plus := f(w)
		w.Set(i, j, old-step)
		minus := f(w)
		w.Set(i, j, old)

		numeric := (plus - minus) / (2 * step)
		a := analytic.At(i, j)
		samples = append(samples, Sample{
			Row:      i,
			Col:      j,
			Numeric:  numeric,
			Analytic: a,
			RelError: tensor.RelError(numeric, a),
		})
	}
	return samples
}

// MaxRelError returns the worst RelError over the samples.
func MaxRelError(samples []Sample) float64 {
	var worst float64
	for _, s := range samples {
		worst = max(worst, s.RelError)
	}
	return worst
}

// MatrixRelError returns the worst element-wise relative error between a and b.
func MatrixRelError(a, b *mat.Dense) float64 {
	return tensor.MaxRelError(flatten(a), flatten(b))
}

func flatten(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}
