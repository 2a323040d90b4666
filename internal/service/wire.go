// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mathkitproj/mathsolver-mcp/internal/config"
	"github.com/mathkitproj/mathsolver-mcp/internal/explain"
	"github.com/mathkitproj/mathsolver-mcp/internal/history"
	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
	"github.com/mathkitproj/mathsolver-mcp/internal/solver/solvers"
)

// FromConfig builds a Service with its registry, explainer and history store
// as described by cfg. Callers must Close the returned Service.
func FromConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	regOpts := []solver.RegistryOption{
		solver.WithTimeout(cfg.SolverTimeout()),
		solver.WithLogger(logger),
	}
	if cfg.Solver.Fallback != "" {
		regOpts = append(regOpts, solver.WithFallback(cfg.Solver.Fallback))
	}
	registry := solver.NewRegistry(regOpts...)
	solvers.Register(registry, cfg.Solver.Disabled...)

	opts := []Option{
		WithLogger(logger),
		WithBatchLimits(cfg.Batch.MaxProblems, cfg.Batch.Concurrency),
		WithExplainer(newExplainer(cfg.Explain, logger)),
	}

	if cfg.History.Driver != "" {
		store, err := history.Open(ctx, cfg.History.Driver, cfg.History.DSN)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		opts = append(opts, WithHistory(store))
	}
	return New(registry, opts...), nil
}

func newExplainer(cfg config.Explain, logger *slog.Logger) explain.Explainer {
	if cfg.Provider == "gemini" {
		if cfg.APIKey == "" {
			logger.Warn("gemini explainer selected without an API key; explanations will use step narration")
		}
		return explain.NewGemini(cfg.APIKey, cfg.Model, logger)
	}
	return explain.NewStepNarrator()
}
