package svm

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

// LossFunc is the contract shared by every implementation: weights (D×C),
// batch (N×D), labels (N) and regularization in, loss and a fresh D×C
// gradient out.
type LossFunc func(w, x mat.Matrix, y []int, reg float64) (float64, *mat.Dense, error)

const (
	NameNaive      = "naive"
	NameVectorized = "vectorized"
	NameParallel   = "parallel"
)

var implementations = map[string]LossFunc{
	NameNaive:      Naive,
	NameVectorized: Vectorized,
	NameParallel:   Parallel,
}

// Lookup returns the implementation registered under name.
func Lookup(name string) (LossFunc, error) {
	fn, ok := implementations[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownImplementation, name, Names())
	}
	return fn, nil
}

// Names lists the registered implementations in sorted order.
func Names() []string {
	names := lo.Keys(implementations)
	slices.Sort(names)
	return names
}
