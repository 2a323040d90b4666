// SPDX-License-Identifier: Apache-2.0

package problem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
)

// solverForSubject maps subjects without a dedicated solver onto the solver
// that covers them.
var solverForSubject = map[string]string{
	"trigonometry": "geometry",
}

// Parser runs validation, classification and solving for one problem at a
// time. It holds no per-call state.
type Parser struct {
	registry *solver.Registry
	logger   *slog.Logger
}

type Option func(*Parser)

func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewParser(registry *solver.Registry, opts ...Option) *Parser {
	p := &Parser{registry: registry, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the registry the parser solves with.
func (p *Parser) Registry() *solver.Registry {
	return p.registry
}

// ClassifyAndSolve validates text, classifies it and hands it to the
// registry, preferring the solver of the classified subject. It never
// panics; every failure is a Result with Success=false.
func (p *Parser) ClassifyAndSolve(ctx context.Context, text string, opts solver.Options) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("problem parsing failed", "panic", r)
			res = Result{
				Error:          fmt.Sprintf("Problem parsing failed: %v", r),
				Classification: Unknown(),
				SolverUsed:     "none",
				ProblemType:    "unknown",
				Elapsed:        time.Since(start),
			}
		}
	}()

	if err := Validate(text); err != nil {
		return Result{
			Error:          "validation: " + err.Error(),
			Classification: Unknown(),
			SolverUsed:     "none",
			ProblemType:    "unknown",
			Elapsed:        time.Since(start),
		}
	}

	cls := Classify(text, opts.SubjectHint)
	p.logger.Debug("classified problem", "subject", cls.Subject, "confidence", cls.Confidence, "method", cls.Method)

	preferred := cls.Subject
	if mapped, ok := solverForSubject[preferred]; ok {
		preferred = mapped
	}
	if opts.SubjectHint == "" {
		opts.SubjectHint = cls.Subject
	}

	out := p.registry.SolveProblem(ctx, text, opts, preferred)
	return Result{
		Success:        out.Success,
		Error:          out.Error,
		Classification: cls,
		Solution:       out.Solution,
		SolverUsed:     out.SolverUsed,
		ProblemType:    out.ProblemType,
		Registry:       out.Registry,
		Elapsed:        time.Since(start),
	}
}
