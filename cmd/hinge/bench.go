package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/hinge/internal/logger"
	"github.com/samcharles93/hinge/internal/problem"
	"github.com/samcharles93/hinge/internal/tensor"
	"github.com/samcharles93/hinge/pkg/svm"
)

type benchResult struct {
	name string
	best time.Duration
	mean time.Duration
	loss float64
}

func benchCmd() *cli.Command {
	var (
		opts       problemOptions
		warmupRuns int64
		benchRuns  int64
		impls      []string
	)

	flags := append(problemFlags(&opts, problem.DefaultWeightScale),
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "number of warmup runs",
			Value:       1,
			Destination: &warmupRuns,
		},
		&cli.Int64Flag{
			Name:        "runs",
			Usage:       "number of benchmark runs",
			Value:       5,
			Destination: &benchRuns,
		},
		&cli.StringSliceFlag{
			Name:        "impl",
			Usage:       "implementations to time (default: all)",
			Destination: &impls,
		},
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time each implementation on a random problem",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyProblemConfig(cmd, fileConfig, &opts)
			if benchRuns < 1 {
				return cli.Exit("error: --runs must be at least 1", 1)
			}
			if len(impls) == 0 {
				impls = svm.Names()
			}

			in, err := problem.Random(opts.config())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			w := outWriter(cmd)
			printSystem(w, opts, int(warmupRuns), int(benchRuns))

			results := make([]benchResult, 0, len(impls))
			for _, name := range impls {
				if err := ctx.Err(); err != nil {
					return err
				}
				fn, err := svm.Lookup(name)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				log.Debug("timing", "impl", name)
				r, err := timeImpl(name, fn, in, int(warmupRuns), int(benchRuns))
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %s: %v", name, err), 1)
				}
				results = append(results, r)
			}
			printBench(w, results)
			return nil
		},
	}
}

func timeImpl(name string, fn svm.LossFunc, in problem.Instance, warmup, runs int) (benchResult, error) {
	for range warmup {
		if _, _, err := fn(in.W, in.X, in.Y, in.Reg); err != nil {
			return benchResult{}, err
		}
	}
	times := make([]time.Duration, 0, runs)
	var loss float64
	for range runs {
		start := time.Now()
		l, _, err := fn(in.W, in.X, in.Y, in.Reg)
		if err != nil {
			return benchResult{}, err
		}
		times = append(times, time.Since(start))
		loss = l
	}
	return benchResult{
		name: name,
		best: slices.Min(times),
		mean: lo.Sum(times) / time.Duration(len(times)),
		loss: loss,
	}, nil
}

func printSystem(w io.Writer, opts problemOptions, warmup, runs int) {
	f := tensor.Features()
	fmt.Fprintln(w, "=== Hinge Benchmark ===")
	fmt.Fprintf(w, "Problem:    N=%d D=%d C=%d reg=%g\n", opts.n, opts.d, opts.c, opts.reg)
	fmt.Fprintf(w, "CPUs:       %d\n", runtime.NumCPU())
	fmt.Fprintf(w, "GOMAXPROCS: %d (pool %d)\n", runtime.GOMAXPROCS(0), tensor.Workers())
	fmt.Fprintf(w, "Arch:       %s avx2=%t fma=%t avx512=%t asimd=%t\n", runtime.GOARCH, f.HasAVX2, f.HasFMA, f.HasAVX512, f.HasASIMD)
	fmt.Fprintf(w, "Warmup:     %d runs\n", warmup)
	fmt.Fprintf(w, "Runs:       %d\n", runs)
	fmt.Fprintln(w)
}

func printBench(w io.Writer, results []benchResult) {
	base, hasBase := lo.Find(results, func(r benchResult) bool { return r.name == svm.NameNaive })
	fmt.Fprintf(w, "%-12s %12s %12s %10s %18s\n", "impl", "best", "mean", "speedup", "loss")
	for _, r := range results {
		speedup := "-"
		if hasBase && r.mean > 0 {
			speedup = fmt.Sprintf("%.1fx", float64(base.mean)/float64(r.mean))
		}
		fmt.Fprintf(w, "%-12s %12s %12s %10s %18.12f\n",
			r.name, r.best.Round(time.Microsecond), r.mean.Round(time.Microsecond), speedup, r.loss)
	}
}
