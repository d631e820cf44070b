// Package problem builds loss-evaluation inputs: seeded random problems for
// checks and benchmarks, and problem documents read from JSON or YAML.
package problem

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrRagged    = errors.New("problem: ragged matrix")
	ErrEmpty     = errors.New("problem: empty matrix")
	ErrBadConfig = errors.New("problem: invalid config")
	ErrSeparable = errors.New("problem: separable problems need dims >= classes")
	ErrFormat    = errors.New("problem: unsupported format")
)

// DefaultWeightScale matches the small random initialisation used when
// checking gradients of a freshly initialised classifier.
const DefaultWeightScale = 1e-4

// Instance is a problem in matrix form.
type Instance struct {
	W   *mat.Dense // D×C
	X   *mat.Dense // N×D
	Y   []int      // N
	Reg float64
}

// Dims returns (N, D, C).
func (in Instance) Dims() (n, d, c int) {
	n, d = in.X.Dims()
	_, c = in.W.Dims()
	return n, d, c
}

// Config describes a random problem.
type Config struct {
	N, D, C        int
	Regularization float64
	// WeightScale multiplies standard normal weights. Zero uses DefaultWeightScale.
	WeightScale float64
	Seed        int64
}

func (c Config) validate() error {
	if c.N <= 0 || c.D <= 0 || c.C <= 0 {
		return fmt.Errorf("%w: n=%d d=%d c=%d must be positive", ErrBadConfig, c.N, c.D, c.C)
	}
	if c.Regularization < 0 {
		return fmt.Errorf("%w: regularization %g is negative", ErrBadConfig, c.Regularization)
	}
	return nil
}

// Random draws W = scale·N(0,1), X ~ N(0,1) and uniform labels.
func Random(cfg Config) (Instance, error) {
	if err := cfg.validate(); err != nil {
		return Instance{}, err
	}
	scale := cfg.WeightScale
	if scale == 0 {
		scale = DefaultWeightScale
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	w := mat.NewDense(cfg.D, cfg.C, nil)
	w.Apply(func(_, _ int, _ float64) float64 { return scale * rng.NormFloat64() }, w)

	x := mat.NewDense(cfg.N, cfg.D, nil)
	x.Apply(func(_, _ int, _ float64) float64 { return rng.NormFloat64() }, x)

	y := make([]int, cfg.N)
	for i := range y {
		y[i] = rng.Intn(cfg.C)
	}
	return Instance{W: w, X: x, Y: y, Reg: cfg.Regularization}, nil
}

// Separable builds a problem whose correct class beats every other class by
// more than the hinge margin on every example, so only the regularization
// term contributes to the loss. Requires D >= C.
func Separable(cfg Config) (Instance, error) {
	if err := cfg.validate(); err != nil {
		return Instance{}, err
	}
	if cfg.D < cfg.C {
		return Instance{}, fmt.Errorf("%w: d=%d c=%d", ErrSeparable, cfg.D, cfg.C)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	// Rows k < C hold an identity block with off-diagonal noise in (-0.1, 0.1);
	// rows k >= C are never hit by the one-hot batch and carry arbitrary values.
	w := mat.NewDense(cfg.D, cfg.C, nil)
	w.Apply(func(k, j int, _ float64) float64 {
		switch {
		case k >= cfg.C:
			return rng.NormFloat64()
		case k == j:
			return 1
		default:
			return (rng.Float64() - 0.5) * 0.2
		}
	}, w)

	y := make([]int, cfg.N)
	x := mat.NewDense(cfg.N, cfg.D, nil)
	for i := range y {
		y[i] = rng.Intn(cfg.C)
		x.Set(i, y[i], 2)
	}
	return Instance{W: w, X: x, Y: y, Reg: cfg.Regularization}, nil
}

// Duplicate returns an instance with every example repeated once, in order.
func Duplicate(in Instance) Instance {
	n, d := in.X.Dims()
	x := mat.NewDense(2*n, d, nil)
	x.Stack(in.X, in.X)
	y := make([]int, 0, 2*n)
	y = append(y, in.Y...)
	y = append(y, in.Y...)
	return Instance{W: mat.DenseCopyOf(in.W), X: x, Y: y, Reg: in.Reg}
}
