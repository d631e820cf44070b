package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/hinge/internal/logger"
	"github.com/samcharles93/hinge/internal/problem"
	"github.com/samcharles93/hinge/pkg/svm"
)

type evalOutput struct {
	Implementation string      `json:"implementation"`
	Loss           float64     `json:"loss"`
	Gradient       [][]float64 `json:"gradient"`
}

func evalCmd() *cli.Command {
	var (
		input  string
		format string
		impl   string
		reg    float64
	)

	return &cli.Command{
		Name:  "eval",
		Usage: "Evaluate loss and gradient for a problem file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "problem file (JSON or YAML), - for stdin",
				Required:    true,
				Destination: &input,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "input format (json, yaml); inferred from the extension when empty",
				Destination: &format,
			},
			&cli.StringFlag{
				Name:        "impl",
				Usage:       "implementation to run",
				Value:       svm.NameVectorized,
				Destination: &impl,
			},
			&cli.Float64Flag{
				Name:        "reg",
				Usage:       "override the regularization stored in the file",
				Destination: &reg,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			fn, err := svm.Lookup(impl)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			in, err := readProblem(input, format)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if cmd.IsSet("reg") {
				in.Reg = reg
			}
			n, d, c := in.Dims()
			log.Debug("evaluating", "impl", impl, "n", n, "d", d, "c", c, "reg", in.Reg)

			loss, grad, err := fn(in.W, in.X, in.Y, in.Reg)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			enc := json.NewEncoder(outWriter(cmd))
			enc.SetIndent("", "  ")
			return enc.Encode(evalOutput{
				Implementation: impl,
				Loss:           loss,
				Gradient:       problem.Rows(grad),
			})
		},
	}
}

func readProblem(path, format string) (problem.Instance, error) {
	var (
		f   problem.Format
		err error
	)
	switch {
	case format != "":
		f, err = problem.ParseFormat(format)
	case path == "-":
		f = problem.FormatJSON
	default:
		f, err = problem.FormatFromPath(path)
	}
	if err != nil {
		return problem.Instance{}, err
	}

	var r io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return problem.Instance{}, err
		}
		defer file.Close()
		r = file
	}

	doc, err := problem.Decode(r, f)
	if err != nil {
		return problem.Instance{}, err
	}
	return doc.Instance()
}
