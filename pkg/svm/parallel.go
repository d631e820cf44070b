package svm

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/hinge/internal/tensor"
)

// Parallel is the vectorized formulation run on the blocked GEMM kernels and
// shared worker pool of the tensor package, using every available worker.
func Parallel(w, x mat.Matrix, y []int, reg float64) (float64, *mat.Dense, error) {
	return parallelLoss(w, x, y, reg, 0)
}

// ParallelWorkers returns a LossFunc like Parallel limited to the given number
// of workers. workers <= 0 uses GOMAXPROCS.
func ParallelWorkers(workers int) LossFunc {
	return func(w, x mat.Matrix, y []int, reg float64) (float64, *mat.Dense, error) {
		return parallelLoss(w, x, y, reg, workers)
	}
}

func parallelLoss(w, x mat.Matrix, y []int, reg float64, workers int) (float64, *mat.Dense, error) {
	dm, err := validate(w, x, y, reg)
	if err != nil {
		return 0, nil, err
	}
	n, d, c := dm.n, dm.d, dm.c

	W := tensor.AsMat(w)
	X := tensor.AsMat(x)

	// scores is rewritten in place into the coefficient matrix.
	scores := tensor.NewMat(n, c)
	tensor.GemmPar(&scores, &X, &W, 1, 0, workers)

	rowLoss := make([]float64, n)
	tensor.ParallelRows(n, workers, func(rs, re int) {
		for i := rs; i < re; i++ {
			rowLoss[i] = hingeRow(scores.Row(i), y[i])
		}
	})
	loss := floats.Sum(rowLoss) / float64(n)

	g := tensor.NewMat(d, c)
	tensor.GemmTN(&g, &X, &scores, 1/float64(n), 0, workers)
	grad := g.Dense()

	loss = addRegularization(loss, grad, w, reg)
	return loss, grad, nil
}

// hingeRow returns the summed positive margins of one score row and replaces
// the row with its gradient coefficients.
func hingeRow(row []float64, label int) float64 {
	correct := row[label]
	var sum, count float64
	for j, s := range row {
		if j == label {
			continue
		}
		margin := s - correct + Delta
		if margin > 0 {
			sum += margin
			count++
			row[j] = 1
		} else {
			row[j] = 0
		}
	}
	row[label] = -count
	return sum
}
