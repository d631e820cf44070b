package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the hinge configuration file (~/.config/hinge/config.yaml).
// Numeric fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Problem defaults for check and bench
	Seed           *int64   `yaml:"seed"`
	Batch          *int64   `yaml:"batch"`
	Dims           *int64   `yaml:"dims"`
	Classes        *int64   `yaml:"classes"`
	Regularization *float64 `yaml:"regularization"`
	Tolerance      *float64 `yaml:"tolerance"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

// fileConfig is loaded once by the root Before hook.
var fileConfig Config

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hinge", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't
// exist; a file that exists but does not parse is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyLoggingConfig applies config file defaults to the root logging flags
// when the corresponding CLI flag was not explicitly set.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyProblemConfig applies config file defaults to the problem flags.
func applyProblemConfig(c *cli.Command, cfg Config, o *problemOptions) {
	if cfg.Batch != nil && !c.IsSet("n") {
		o.n = *cfg.Batch
	}
	if cfg.Dims != nil && !c.IsSet("d") {
		o.d = *cfg.Dims
	}
	if cfg.Classes != nil && !c.IsSet("c") {
		o.c = *cfg.Classes
	}
	if cfg.Regularization != nil && !c.IsSet("reg") {
		o.reg = *cfg.Regularization
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		o.seed = *cfg.Seed
	}
}

// applyCheckConfig applies config file defaults to check command variables.
func applyCheckConfig(c *cli.Command, cfg Config, tol *float64) {
	if cfg.Tolerance != nil && !c.IsSet("tol") {
		*tol = *cfg.Tolerance
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
