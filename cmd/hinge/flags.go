package main

import "github.com/urfave/cli/v3"

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool
)

// problemOptions describes the random problem used by check and bench.
type problemOptions struct {
	n, d, c     int64
	reg         float64
	weightScale float64
	seed        int64
}

func problemFlags(o *problemOptions, weightScale float64) []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "n",
			Aliases:     []string{"batch"},
			Usage:       "number of examples",
			Value:       500,
			Destination: &o.n,
		},
		&cli.Int64Flag{
			Name:        "d",
			Aliases:     []string{"dims"},
			Usage:       "feature dimension (including any bias column)",
			Value:       3073,
			Destination: &o.d,
		},
		&cli.Int64Flag{
			Name:        "c",
			Aliases:     []string{"classes"},
			Usage:       "number of classes",
			Value:       10,
			Destination: &o.c,
		},
		&cli.Float64Flag{
			Name:        "reg",
			Usage:       "regularization strength",
			Value:       5e-6,
			Destination: &o.reg,
		},
		&cli.Float64Flag{
			Name:        "weight-scale",
			Usage:       "standard deviation of the random weights",
			Value:       weightScale,
			Destination: &o.weightScale,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "random seed",
			Value:       1,
			Destination: &o.seed,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Value:       configPath(),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
