package svm

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/hinge/internal/gradcheck"
	"github.com/samcharles93/hinge/internal/problem"
	"github.com/samcharles93/hinge/internal/tensor"
)

type namedImpl struct {
	name string
	fn   LossFunc
}

func allImpls() []namedImpl {
	return []namedImpl{
		{NameNaive, Naive},
		{NameVectorized, Vectorized},
		{NameParallel, Parallel},
		{"parallel-1", ParallelWorkers(1)},
		{"parallel-3", ParallelWorkers(3)},
	}
}

func mustRandom(t testing.TB, cfg problem.Config) problem.Instance {
	t.Helper()
	in, err := problem.Random(cfg)
	if err != nil {
		t.Fatalf("random problem: %v", err)
	}
	return in
}

func mustEval(t testing.TB, fn LossFunc, in problem.Instance) (float64, *mat.Dense) {
	t.Helper()
	loss, grad, err := fn(in.W, in.X, in.Y, in.Reg)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	return loss, grad
}

// maxAbs returns the largest element-wise absolute difference.
func maxAbs(a, b mat.Matrix) float64 {
	r, c := a.Dims()
	var worst float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			worst = max(worst, math.Abs(a.At(i, j)-b.At(i, j)))
		}
	}
	return worst
}

// shapeOnly is a matrix of zeros with arbitrary, possibly empty, dimensions.
// mat.Dense refuses zero-length dimensions.
type shapeOnly struct{ r, c int }

func (m shapeOnly) Dims() (int, int)    { return m.r, m.c }
func (m shapeOnly) At(_, _ int) float64 { return 0 }
func (m shapeOnly) T() mat.Matrix       { return mat.Transpose{Matrix: m} }

// violations counts the incorrect-class margins that are positive.
func violations(in problem.Instance) (positive, total int) {
	var scores mat.Dense
	scores.Mul(in.X, in.W)
	n, c := scores.Dims()
	for i := 0; i < n; i++ {
		correct := scores.At(i, in.Y[i])
		for j := 0; j < c; j++ {
			if j == in.Y[i] {
				continue
			}
			total++
			if scores.At(i, j)-correct+Delta > 0 {
				positive++
			}
		}
	}
	return positive, total
}

// mustMixedMargins fails unless the problem has margins on both sides of the
// hinge, so a gradient check covers both branches.
func mustMixedMargins(t testing.TB, in problem.Instance) {
	t.Helper()
	if pos, total := violations(in); pos == 0 || pos == total {
		t.Fatalf("%d of %d margins positive; want a mix", pos, total)
	}
}

func TestImplementationsAgree(t *testing.T) {
	t.Parallel()
	cases := []problem.Config{
		{N: 1, D: 1, C: 1, Seed: 1},
		{N: 1, D: 3, C: 2, Seed: 2},
		{N: 17, D: 9, C: 4, Regularization: 0.5, Seed: 3},
		{N: 64, D: 129, C: 10, Regularization: 5e-6, Seed: 4},
		{N: 33, D: 20, C: 7, Regularization: 1, WeightScale: 1, Seed: 5},
	}
	for _, cfg := range cases {
		t.Run(fmt.Sprintf("n%d_d%d_c%d", cfg.N, cfg.D, cfg.C), func(t *testing.T) {
			t.Parallel()
			in := mustRandom(t, cfg)
			refLoss, refGrad := mustEval(t, Naive, in)
			for _, impl := range allImpls()[1:] {
				loss, grad := mustEval(t, impl.fn, in)
				if e := tensor.RelError(loss, refLoss); e > 1e-7 {
					t.Fatalf("%s loss: got %.12g want %.12g (relative error %g)", impl.name, loss, refLoss, e)
				}
				if e := gradcheck.MatrixRelError(grad, refGrad); e > 1e-7 {
					t.Fatalf("%s gradient: relative error %g", impl.name, e)
				}
			}
		})
	}
}

func TestLossNonNegative(t *testing.T) {
	t.Parallel()
	for seed := int64(0); seed < 10; seed++ {
		in := mustRandom(t, problem.Config{N: 12, D: 8, C: 5, WeightScale: 2, Seed: seed})
		for _, impl := range allImpls() {
			if loss, _ := mustEval(t, impl.fn, in); loss < 0 {
				t.Fatalf("%s seed %d: negative loss %g", impl.name, seed, loss)
			}
		}
	}
}

func TestZeroWeightsLossIsClassesMinusOne(t *testing.T) {
	t.Parallel()
	in := mustRandom(t, problem.Config{N: 20, D: 6, C: 10, Seed: 7})
	in.W.Zero()
	for _, impl := range allImpls() {
		loss, _ := mustEval(t, impl.fn, in)
		if math.Abs(loss-9) > 1e-12 {
			t.Fatalf("%s: got %g want 9", impl.name, loss)
		}
	}
}

func TestGradientMatchesFiniteDifferences(t *testing.T) {
	t.Parallel()
	in := mustRandom(t, problem.Config{N: 15, D: 12, C: 5, WeightScale: 0.5, Seed: 11})
	mustMixedMargins(t, in)
	for _, impl := range allImpls() {
		t.Run(impl.name, func(t *testing.T) {
			t.Parallel()
			_, grad := mustEval(t, impl.fn, in)
			f := func(w *mat.Dense) float64 {
				loss, _, _ := impl.fn(w, in.X, in.Y, 0)
				return loss
			}

			num := gradcheck.Full(f, in.W, 0)
			if e := gradcheck.MatrixRelError(num, grad); e > 1e-5 {
				t.Fatalf("full check: relative error %g", e)
			}

			w := mat.DenseCopyOf(in.W)
			samples := gradcheck.Sparse(f, w, grad, 10, 0, rand.New(rand.NewSource(1)))
			if e := gradcheck.MaxRelError(samples); e > 1e-5 {
				t.Fatalf("sparse check: relative error %g", e)
			}
		})
	}
}

func TestRegularizationGradientIsRegTimesW(t *testing.T) {
	t.Parallel()
	in := mustRandom(t, problem.Config{N: 15, D: 12, C: 5, Regularization: 0.3, WeightScale: 0.5, Seed: 13})
	mustMixedMargins(t, in)
	for _, impl := range allImpls() {
		_, grad := mustEval(t, impl.fn, in)
		f := func(w *mat.Dense) float64 {
			loss, _, _ := impl.fn(w, in.X, in.Y, in.Reg)
			return loss
		}
		num := gradcheck.Full(f, in.W, 0)

		// The numeric derivative of reg·ΣW² is 2·reg·W; the analytic one
		// carries reg·W, so they differ by exactly reg·W.
		var offset, want mat.Dense
		offset.Sub(num, grad)
		want.Scale(in.Reg, in.W)
		if d := maxAbs(&offset, &want); d > 1e-7 {
			t.Fatalf("%s: offset differs from reg·W by %g", impl.name, d)
		}
	}
}

func TestSeparableProblemIsRegularizationOnly(t *testing.T) {
	t.Parallel()
	in, err := problem.Separable(problem.Config{N: 30, D: 8, C: 4, Regularization: 0.25, Seed: 17})
	if err != nil {
		t.Fatalf("separable: %v", err)
	}
	var want mat.Dense
	want.Scale(in.Reg, in.W)
	wantLoss := in.Reg * sumSquares(in.W)

	for _, impl := range allImpls() {
		loss, grad := mustEval(t, impl.fn, in)
		if math.Abs(loss-wantLoss) > 1e-12*wantLoss {
			t.Fatalf("%s loss: got %.15g want %.15g", impl.name, loss, wantLoss)
		}
		if !mat.EqualApprox(grad, &want, 1e-15) {
			t.Fatalf("%s: gradient is not reg·W", impl.name)
		}
	}
}

func TestDuplicatingBatchKeepsLoss(t *testing.T) {
	t.Parallel()
	in := mustRandom(t, problem.Config{N: 25, D: 10, C: 6, Regularization: 0.1, WeightScale: 0.5, Seed: 19})
	dup := problem.Duplicate(in)
	for _, impl := range allImpls() {
		loss, grad := mustEval(t, impl.fn, in)
		dupLoss, dupGrad := mustEval(t, impl.fn, dup)
		if math.Abs(loss-dupLoss) > 1e-10 {
			t.Fatalf("%s loss: %g vs %g", impl.name, loss, dupLoss)
		}
		if d := maxAbs(grad, dupGrad); d > 1e-10 {
			t.Fatalf("%s gradient differs by %g", impl.name, d)
		}
	}
}

func TestInputsUntouchedAndGradientFresh(t *testing.T) {
	t.Parallel()
	in := mustRandom(t, problem.Config{N: 10, D: 7, C: 3, Regularization: 0.2, Seed: 23})
	w, x, y := mat.DenseCopyOf(in.W), mat.DenseCopyOf(in.X), slices.Clone(in.Y)

	for _, impl := range allImpls() {
		loss, grad := mustEval(t, impl.fn, in)
		if !mat.Equal(in.W, w) || !mat.Equal(in.X, x) || !slices.Equal(in.Y, y) {
			t.Fatalf("%s modified its inputs", impl.name)
		}

		before := mat.DenseCopyOf(grad)
		grad.Scale(100, grad)
		loss2, grad2 := mustEval(t, impl.fn, in)
		if loss2 != loss || !mat.Equal(grad2, before) {
			t.Fatalf("%s: result depends on a previously returned gradient", impl.name)
		}
		if !mat.Equal(in.W, w) {
			t.Fatalf("%s: gradient aliases the weights", impl.name)
		}
	}
}

func TestAcceptsNonDenseInputs(t *testing.T) {
	t.Parallel()
	in := mustRandom(t, problem.Config{N: 9, D: 5, C: 4, Regularization: 0.1, Seed: 29})
	wt := mat.DenseCopyOf(in.W.T())
	xt := mat.DenseCopyOf(in.X.T())

	refLoss, refGrad := mustEval(t, Naive, in)
	for _, impl := range allImpls() {
		loss, grad, err := impl.fn(wt.T(), xt.T(), in.Y, in.Reg)
		if err != nil {
			t.Fatalf("%s: %v", impl.name, err)
		}
		if math.Abs(loss-refLoss) > 1e-10 || maxAbs(grad, refGrad) > 1e-10 {
			t.Fatalf("%s: transposed views give a different result", impl.name)
		}
	}
}

func TestValidation(t *testing.T) {
	t.Parallel()
	w := mat.NewDense(3, 2, nil)
	x := mat.NewDense(4, 3, nil)
	y := []int{0, 1, 1, 0}

	cases := []struct {
		name string
		w, x mat.Matrix
		y    []int
		reg  float64
		want error
	}{
		{"weight rows", mat.NewDense(2, 2, nil), x, y, 0, ErrShapeMismatch},
		{"label count", w, x, y[:3], 0, ErrShapeMismatch},
		{"shape before emptiness", w, &mat.Dense{}, nil, 0, ErrShapeMismatch},
		{"empty batch", w, shapeOnly{0, 3}, nil, 0, ErrEmptyBatch},
		{"no classes", shapeOnly{3, 0}, x, y, 0, ErrNoClasses},
		{"no features", shapeOnly{0, 2}, shapeOnly{2, 0}, []int{0, 1}, 0, ErrNoFeatures},
		{"negative reg", w, x, y, -1, ErrNegativeRegularization},
		{"nan reg", w, x, y, math.NaN(), ErrNegativeRegularization},
		{"inf reg", w, x, y, math.Inf(1), ErrNegativeRegularization},
		{"label high", w, x, []int{0, 2, 1, 0}, 0, ErrLabelOutOfRange},
		{"label negative", w, x, []int{0, 1, -1, 0}, 0, ErrLabelOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := Validate(tc.w, tc.x, tc.y, tc.reg); !errors.Is(err, tc.want) {
				t.Fatalf("Validate: got %v want %v", err, tc.want)
			}
			for _, impl := range allImpls() {
				loss, grad, err := impl.fn(tc.w, tc.x, tc.y, tc.reg)
				if !errors.Is(err, tc.want) {
					t.Fatalf("%s: got %v want %v", impl.name, err, tc.want)
				}
				if loss != 0 || grad != nil {
					t.Fatalf("%s: returned a result with an error", impl.name)
				}
			}
		})
	}
}

func TestValidationErrorDetails(t *testing.T) {
	t.Parallel()
	w := mat.NewDense(3, 2, nil)
	x := mat.NewDense(2, 3, nil)

	err := Validate(w, x, []int{1, 5}, 0)
	var le *LabelError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LabelError, got %T", err)
	}
	if le.Index != 1 || le.Label != 5 || le.Classes != 2 {
		t.Fatalf("unexpected details: %+v", le)
	}

	err = Validate(mat.NewDense(4, 2, nil), x, []int{0, 0}, 0)
	var se *ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ShapeError, got %T", err)
	}
	if se.Want != 3 || se.Got != 4 {
		t.Fatalf("unexpected details: %+v", se)
	}
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	t.Parallel()
	in := mustRandom(t, problem.Config{N: 200, D: 64, C: 10, Regularization: 1e-3, WeightScale: 0.1, Seed: 31})
	for _, impl := range allImpls() {
		wantLoss, wantGrad := mustEval(t, impl.fn, in)

		const callers = 8
		losses := make([]float64, callers)
		grads := make([]*mat.Dense, callers)
		errs := make([]error, callers)
		var wg sync.WaitGroup
		for i := range callers {
			wg.Go(func() {
				losses[i], grads[i], errs[i] = impl.fn(in.W, in.X, in.Y, in.Reg)
			})
		}
		wg.Wait()

		for i := range callers {
			if errs[i] != nil {
				t.Fatalf("%s caller %d: %v", impl.name, i, errs[i])
			}
			if losses[i] != wantLoss || !mat.Equal(grads[i], wantGrad) {
				t.Fatalf("%s caller %d: result differs from a sequential call", impl.name, i)
			}
		}
	}
}

func TestParallelDeterministicAcrossWorkers(t *testing.T) {
	t.Parallel()
	in := mustRandom(t, problem.Config{N: 101, D: 37, C: 6, Regularization: 0.01, Seed: 37})
	wantLoss, wantGrad := mustEval(t, ParallelWorkers(1), in)
	for _, workers := range []int{0, 2, 5, 64} {
		loss, grad := mustEval(t, ParallelWorkers(workers), in)
		if loss != wantLoss || !mat.Equal(grad, wantGrad) {
			t.Fatalf("workers=%d: result differs from a single worker", workers)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()
	if got, want := Names(), []string{NameNaive, NameParallel, NameVectorized}; !slices.Equal(got, want) {
		t.Fatalf("Names: got %v want %v", got, want)
	}
	for _, name := range Names() {
		if fn, err := Lookup(name); err != nil || fn == nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
	}
	if _, err := Lookup("simd"); !errors.Is(err, ErrUnknownImplementation) {
		t.Fatalf("Lookup(simd): got %v", err)
	}
}

func benchmarkLoss(b *testing.B, fn LossFunc) {
	in, err := problem.Random(problem.Config{N: 500, D: 3073, C: 10, Regularization: 5e-6, Seed: 1})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		if _, _, err := fn(in.W, in.X, in.Y, in.Reg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNaive(b *testing.B)      { benchmarkLoss(b, Naive) }
func BenchmarkVectorized(b *testing.B) { benchmarkLoss(b, Vectorized) }
func BenchmarkParallel(b *testing.B)   { benchmarkLoss(b, Parallel) }
