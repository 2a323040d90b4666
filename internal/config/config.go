// SPDX-License-Identifier: Apache-2.0

// Package config loads service configuration from an optional YAML file and
// the environment, then validates it against an embedded CUE schema.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/goccy/go-yaml"
)

//go:embed schema.cue
var schemaSource string

type HTTP struct {
	Addr           string `json:"addr" yaml:"addr"`
	MaxBodyBytes   int64  `json:"max_body_bytes" yaml:"max_body_bytes"`
	ReadTimeoutMS  int    `json:"read_timeout_ms" yaml:"read_timeout_ms"`
	WriteTimeoutMS int    `json:"write_timeout_ms" yaml:"write_timeout_ms"`
}

type Solver struct {
	TimeoutMS        int      `json:"timeout_ms" yaml:"timeout_ms"`
	MaxProblemLength int      `json:"max_problem_length" yaml:"max_problem_length"`
	Disabled         []string `json:"disabled" yaml:"disabled"`
	// Fallback names the solver used when none claims a problem. Empty
	// means unclaimed problems fail.
	Fallback string `json:"fallback" yaml:"fallback"`
}

type Batch struct {
	MaxProblems int `json:"max_problems" yaml:"max_problems"`
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

type History struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

type Explain struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

type Config struct {
	LogLevel string  `json:"log_level" yaml:"log_level"`
	HTTP     HTTP    `json:"http" yaml:"http"`
	Solver   Solver  `json:"solver" yaml:"solver"`
	Batch    Batch   `json:"batch" yaml:"batch"`
	History  History `json:"history" yaml:"history"`
	Explain  Explain `json:"explain" yaml:"explain"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		LogLevel: "info",
		HTTP: HTTP{
			Addr:           ":8080",
			MaxBodyBytes:   1 << 20,
			ReadTimeoutMS:  15000,
			WriteTimeoutMS: 60000,
		},
		Solver: Solver{
			TimeoutMS:        5000,
			MaxProblemLength: 1000,
			Disabled:         []string{},
		},
		Batch: Batch{
			MaxProblems: 10,
			Concurrency: 4,
		},
		History: History{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
		Explain: Explain{
			Provider: "narrator",
			Model:    "gemini-1.5-flash",
		},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("MATHSOLVER_HTTP_ADDR", &cfg.HTTP.Addr)
	str("MATHSOLVER_HISTORY_DRIVER", &cfg.History.Driver)
	str("MATHSOLVER_HISTORY_DSN", &cfg.History.DSN)
	str("MATHSOLVER_EXPLAIN_PROVIDER", &cfg.Explain.Provider)
	str("GEMINI_API_KEY", &cfg.Explain.APIKey)
	str("GEMINI_MODEL", &cfg.Explain.Model)
	str("LOG_LEVEL", &cfg.LogLevel)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if v, ok := os.LookupEnv("MATHSOLVER_TIMEOUT_MS"); ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MATHSOLVER_TIMEOUT_MS: %w", err)
		}
		cfg.Solver.TimeoutMS = ms
	}
	if v, ok := os.LookupEnv("MATHSOLVER_HISTORY_DRIVER"); ok && strings.EqualFold(v, "none") {
		cfg.History.Driver = ""
	}
	return nil
}

// Validate checks cfg against the embedded #Config schema.
func (c Config) Validate() error {
	if c.Solver.Disabled == nil {
		c.Solver.Disabled = []string{}
	}
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup #Config: %w", err)
	}
	val := ctx.Encode(c)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) SolverTimeout() time.Duration {
	return time.Duration(c.Solver.TimeoutMS) * time.Millisecond
}

func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.HTTP.ReadTimeoutMS) * time.Millisecond
}

func (c Config) WriteTimeout() time.Duration {
	return time.Duration(c.HTTP.WriteTimeoutMS) * time.Millisecond
}
