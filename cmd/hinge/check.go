package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/hinge/internal/gradcheck"
	"github.com/samcharles93/hinge/internal/logger"
	"github.com/samcharles93/hinge/internal/problem"
	"github.com/samcharles93/hinge/pkg/svm"
)

// checkResult is one implementation's outcome on the shared problem.
type checkResult struct {
	name     string
	loss     float64
	grad     *mat.Dense
	elapsed  time.Duration
	gradErr  float64 // worst relative error of grad against naive
	fdErr    float64 // worst sparse finite-difference error at reg 0
}

// checkWeightScale spreads the margins on both sides of zero so the sparse
// check also lands on coordinates where some examples do not violate.
const checkWeightScale = 0.5

func checkCmd() *cli.Command {
	var (
		opts    problemOptions
		tol     float64
		samples int64
	)
	flags := append(problemFlags(&opts, checkWeightScale),
		&cli.Float64Flag{
			Name:        "tol",
			Usage:       "maximum accepted relative error",
			Value:       1e-5,
			Destination: &tol,
		},
		&cli.Int64Flag{
			Name:        "samples",
			Usage:       "coordinates sampled by the sparse gradient check",
			Value:       10,
			Destination: &samples,
		},
	)

	return &cli.Command{
		Name:  "check",
		Usage: "Check every implementation against naive and finite differences",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyProblemConfig(cmd, fileConfig, &opts)
			applyCheckConfig(cmd, fileConfig, &tol)

			in, err := problem.Random(opts.config())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Info("checking implementations", "n", opts.n, "d", opts.d, "c", opts.c, "reg", opts.reg, "seed", opts.seed)

			results, err := runCheck(ctx, in, int(samples), opts.seed)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			w := outWriter(cmd)
			fmt.Fprintf(w, "%-12s %18s %14s %14s %12s\n", "impl", "loss", "grad err", "fd err", "time")
			failed := 0
			for _, r := range results {
				status := ""
				if r.gradErr > tol || r.fdErr > tol {
					status = "  FAIL"
					failed++
				}
				fmt.Fprintf(w, "%-12s %18.12f %14.3e %14.3e %12s%s\n",
					r.name, r.loss, r.gradErr, r.fdErr, r.elapsed.Round(time.Microsecond), status)
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("check failed: %d implementation(s) exceed tolerance %g", failed, tol), 1)
			}
			log.Info("all implementations agree", "tol", tol)
			return nil
		},
	}
}

func (o problemOptions) config() problem.Config {
	return problem.Config{
		N:              int(o.n),
		D:              int(o.d),
		C:              int(o.c),
		Regularization: o.reg,
		WeightScale:    o.weightScale,
		Seed:           o.seed,
	}
}

// runCheck evaluates every registered implementation concurrently. Each
// worker also runs a sparse finite-difference check at zero regularization
// on its own copy of the weights, where the analytic gradient is exact.
func runCheck(ctx context.Context, in problem.Instance, samples int, seed int64) ([]checkResult, error) {
	names := svm.Names()
	results := make([]checkResult, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn, err := svm.Lookup(name)
			if err != nil {
				return err
			}
			start := time.Now()
			loss, grad, err := fn(in.W, in.X, in.Y, in.Reg)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			elapsed := time.Since(start)

			_, grad0, err := fn(in.W, in.X, in.Y, 0)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			f := func(w *mat.Dense) float64 {
				l, _, _ := fn(w, in.X, in.Y, 0)
				return l
			}
			fd := gradcheck.Sparse(f, mat.DenseCopyOf(in.W), grad0, samples, 0, rand.New(rand.NewSource(seed)))

			results[i] = checkResult{
				name:     name,
				loss:     loss,
				grad:     grad,
				elapsed:  elapsed,
				fdErr:    gradcheck.MaxRelError(fd),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ref *mat.Dense
	for _, r := range results {
		if r.name == svm.NameNaive {
			ref = r.grad
		}
	}
	for i := range results {
		results[i].gradErr = gradcheck.MatrixRelError(ref, results[i].grad)
	}
	return results, nil
}
