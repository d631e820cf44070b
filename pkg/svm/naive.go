package svm

import (
	"gonum.org/v1/gonum/mat"
)

// Naive computes the loss and gradient one example and one class at a time.
//
// For example i every incorrect class j with a positive margin adds the margin
// to the loss and x_i to column j of the gradient. The correct class column
// then absorbs −count·x_i, where count is the number of violating classes.
// The regularization gradient is reg·W (see the package documentation).
func Naive(w, x mat.Matrix, y []int, reg float64) (float64, *mat.Dense, error) {
	dm, err := validate(w, x, y, reg)
	if err != nil {
		return 0, nil, err
	}
	n, d, c := dm.n, dm.d, dm.c

	grad := mat.NewDense(d, c, nil)
	scores := mat.NewVecDense(c, nil)
	xi := make([]float64, d)
	xv := mat.NewVecDense(d, xi)

	var loss float64
	for i := 0; i < n; i++ {
		mat.Row(xi, i, x)
		scores.MulVec(w.T(), xv)
		correct := scores.AtVec(y[i])

		violations := 0
		for j := 0; j < c; j++ {
			if j == y[i] {
				continue
			}
			margin := scores.AtVec(j) - correct + Delta
			if margin > 0 {
				violations++
				loss += margin
				addToColumn(grad, j, 1, xi)
			}
		}
		if violations > 0 {
			addToColumn(grad, y[i], -float64(violations), xi)
		}
	}

	inv := 1 / float64(n)
	loss *= inv
	grad.Scale(inv, grad)

	loss = addRegularization(loss, grad, w, reg)
	return loss, grad, nil
}

// addToColumn computes grad[:, j] += alpha·v.
func addToColumn(grad *mat.Dense, j int, alpha float64, v []float64) {
	raw := grad.RawMatrix()
	for k, vk := range v {
		raw.Data[k*raw.Stride+j] += alpha * vk
	}
}
