package svm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type dims struct {
	n, d, c int
}

// Validate checks that w (D×C), x (N×D), y (N) and reg form a well defined
// problem and returns the first violation found.
func Validate(w, x mat.Matrix, y []int, reg float64) error {
	_, err := validate(w, x, y, reg)
	return err
}

func validate(w, x mat.Matrix, y []int, reg float64) (dims, error) {
	n, d := x.Dims()
	wr, c := w.Dims()
	if wr != d {
		return dims{}, &ShapeError{Op: "weight rows vs batch columns", Want: d, Got: wr}
	}
	if len(y) != n {
		return dims{}, &ShapeError{Op: "label count vs batch rows", Want: n, Got: len(y)}
	}
	if n == 0 {
		return dims{}, ErrEmptyBatch
	}
	if c == 0 {
		return dims{}, ErrNoClasses
	}
	if d == 0 {
		return dims{}, ErrNoFeatures
	}
	if reg < 0 || math.IsNaN(reg) || math.IsInf(reg, 0) {
		return dims{}, fmt.Errorf("%w: got %g", ErrNegativeRegularization, reg)
	}
	for i, label := range y {
		if label < 0 || label >= c {
			return dims{}, &LabelError{Index: i, Label: label, Classes: c}
		}
	}
	return dims{n: n, d: d, c: c}, nil
}
