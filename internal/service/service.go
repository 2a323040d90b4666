// SPDX-License-Identifier: Apache-2.0

// Package service is the request-level adapter shared by the MCP tools, the
// HTTP API and the CLI. It validates input, runs the classify-and-solve
// pipeline, optionally explains the result and records it in history.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mathkitproj/mathsolver-mcp/internal/explain"
	"github.com/mathkitproj/mathsolver-mcp/internal/format"
	"github.com/mathkitproj/mathsolver-mcp/internal/history"
	"github.com/mathkitproj/mathsolver-mcp/internal/problem"
	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
)

// Version is reported by health checks and the version command.
const Version = "1.0.0"

// Request timeout bounds, in milliseconds.
const (
	MinTimeoutMS = 1000
	MaxTimeoutMS = 30000
)

// MaxBatchSize is the hard upper bound on problems per batch.
const MaxBatchSize = 10

var (
	ErrHistoryDisabled = errors.New("history is disabled")
	ErrBatchSize       = errors.New("batch must contain between 1 and 10 problems")
)

type SolveRequest struct {
	ProblemText        string `json:"problem_text" yaml:"problem_text"`
	SubjectArea        string `json:"subject_area,omitempty" yaml:"subject_area,omitempty"`
	DifficultyLevel    string `json:"difficulty_level,omitempty" yaml:"difficulty_level,omitempty"`
	TimeoutMS          int    `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	IncludeExplanation bool   `json:"include_explanation,omitempty" yaml:"include_explanation,omitempty"`
}

// SolveResult wraps a formatted response with the per-request identity.
type SolveResult struct {
	RequestID       string    `json:"request_id" yaml:"request_id"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`
	ProblemText     string    `json:"problem_text" yaml:"problem_text"`
	format.Response `yaml:",inline"`
}

type BatchRequest struct {
	Problems []SolveRequest `json:"problems" yaml:"problems"`
	// Parallel defaults to true when unset.
	Parallel *bool `json:"parallel,omitempty" yaml:"parallel,omitempty"`
}

type BatchSummary struct {
	Total      int `json:"total" yaml:"total"`
	Successful int `json:"successful" yaml:"successful"`
	Failed     int `json:"failed" yaml:"failed"`
}

type BatchResult struct {
	Success   bool          `json:"success" yaml:"success"`
	RequestID string        `json:"request_id" yaml:"request_id"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Results   []SolveResult `json:"results" yaml:"results"`
	Summary   BatchSummary  `json:"summary" yaml:"summary"`
}

// Validation reports whether a problem would be accepted and how it would
// be classified.
type Validation struct {
	Valid          bool                   `json:"valid" yaml:"valid"`
	Error          string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Length         int                    `json:"length" yaml:"length"`
	Classification problem.Classification `json:"classification" yaml:"classification"`
	Scores         map[string]int         `json:"scores" yaml:"scores"`
}

type Service struct {
	registry         *solver.Registry
	parser           *problem.Parser
	explainer        explain.Explainer
	history          history.Store
	logger           *slog.Logger
	batchMax         int
	batchConcurrency int
	now              func() time.Time
}

type Option func(*Service)

func WithExplainer(e explain.Explainer) Option {
	return func(s *Service) {
		if e != nil {
			s.explainer = e
		}
	}
}

// WithHistory records every solve in h. A nil store disables history.
func WithHistory(h history.Store) Option {
	return func(s *Service) { s.history = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBatchLimits caps batch size and parallelism.
func WithBatchLimits(maxProblems, concurrency int) Option {
	return func(s *Service) {
		if maxProblems > 0 && maxProblems <= MaxBatchSize {
			s.batchMax = maxProblems
		}
		if concurrency > 0 {
			s.batchConcurrency = concurrency
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(registry *solver.Registry, opts ...Option) *Service {
	s := &Service{
		registry:         registry,
		explainer:        explain.NewStepNarrator(),
		logger:           slog.Default(),
		batchMax:         MaxBatchSize,
		batchConcurrency: 4,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = problem.NewParser(registry, problem.WithLogger(s.logger))
	return s
}

func (s *Service) Registry() *solver.Registry {
	return s.registry
}

// Solve runs one problem through the pipeline. Failures are reported in the
// result, never as a Go error.
func (s *Service) Solve(ctx context.Context, req SolveRequest) SolveResult {
	start := s.now()
	out := SolveResult{
		RequestID:   uuid.Must(uuid.NewV7()).String(),
		Timestamp:   start.UTC(),
		ProblemText: req.ProblemText,
	}

	res, ok := s.precheck(req)
	if ok {
		res = s.parser.ClassifyAndSolve(ctx, req.ProblemText, solver.Options{
			SubjectHint:    req.SubjectArea,
			DifficultyHint: req.DifficultyLevel,
			Timeout:        time.Duration(req.TimeoutMS) * time.Millisecond,
		})
	}

	var exp *explain.Explanation
	if req.IncludeExplanation && res.Success {
		exp = s.explain(ctx, req, res)
	}

	extras := map[string]any{"difficulty_level": explain.Difficulty(req.DifficultyLevel)}
	if exp != nil {
		extras["explainer"] = s.explainer.Name()
	}
	out.Response = format.FromResult(res, exp, extras)

	if res.Success {
		s.logger.Info("solved problem", "request_id", out.RequestID, "solver", res.SolverUsed, "elapsed", res.Elapsed)
	} else {
		s.logger.Warn("problem not solved", "request_id", out.RequestID, "solver", res.SolverUsed, "error", res.Error)
	}
	s.record(ctx, out.RequestID, req.ProblemText, res)
	return out
}

// precheck validates the request before any solver runs.
func (s *Service) precheck(req SolveRequest) (problem.Result, bool) {
	fail := func(msg string) (problem.Result, bool) {
		return problem.Result{
			Error:          msg,
			Classification: problem.Unknown(),
			SolverUsed:     "none",
			ProblemType:    "unknown",
		}, false
	}
	if req.TimeoutMS != 0 && (req.TimeoutMS < MinTimeoutMS || req.TimeoutMS > MaxTimeoutMS) {
		return fail(fmt.Sprintf("validation: timeout_ms must be between %d and %d", MinTimeoutMS, MaxTimeoutMS))
	}
	if err := problem.Validate(req.ProblemText); err != nil {
		return fail("validation: " + err.Error())
	}
	return problem.Result{}, true
}

func (s *Service) explain(ctx context.Context, req SolveRequest, res problem.Result) *explain.Explanation {
	subject := req.SubjectArea
	if subject == "" {
		subject = res.Classification.Subject
	}
	e, err := s.explainer.Explain(ctx, explain.FromSolution(req.ProblemText, res.Solution, subject, req.DifficultyLevel))
	if err != nil {
		s.logger.Warn("explanation failed", "explainer", s.explainer.Name(), "error", err)
		return &explain.Explanation{Method: s.explainer.Name(), Error: err.Error()}
	}
	return &e
}

func (s *Service) record(ctx context.Context, id, text string, res problem.Result) {
	if s.history == nil {
		return
	}
	_, err := s.history.Record(ctx, history.Entry{
		ID:           id,
		Problem:      text,
		Subject:      res.Classification.Subject,
		SolverUsed:   res.SolverUsed,
		Success:      res.Success,
		Error:        res.Error,
		ProcessingMS: float64(res.Elapsed) / float64(time.Millisecond),
	})
	if err != nil {
		s.logger.Warn("recording history failed", "request_id", id, "error", err)
	}
}

// Batch solves up to the configured number of problems. Each problem gets an
// independent result and results keep the input order.
func (s *Service) Batch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	n := len(req.Problems)
	if n == 0 || n > s.batchMax {
		return BatchResult{}, fmt.Errorf("%w (got %d, limit %d)", ErrBatchSize, n, s.batchMax)
	}

	results := make([]SolveResult, n)
	if req.Parallel == nil || *req.Parallel {
		var g errgroup.Group
		g.SetLimit(s.batchConcurrency)
		for i, p := range req.Problems {
			g.Go(func() error {
				results[i] = s.Solve(ctx, p)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, p := range req.Problems {
			results[i] = s.Solve(ctx, p)
		}
	}

	out := BatchResult{
		Success:   true,
		RequestID: uuid.Must(uuid.NewV7()).String(),
		Timestamp: s.now().UTC(),
		Results:   results,
		Summary:   BatchSummary{Total: n},
	}
	for _, r := range results {
		if r.Success {
			out.Summary.Successful++
		} else {
			out.Summary.Failed++
		}
	}
	return out, nil
}

// Validate checks text without solving it.
func (s *Service) Validate(text string) Validation {
	v := Validation{
		Length:         len([]rune(text)),
		Classification: problem.Unknown(),
		Scores:         map[string]int{},
	}
	if err := problem.Validate(text); err != nil {
		v.Error = "validation: " + err.Error()
		return v
	}
	v.Valid = true
	v.Classification = problem.Classify(text, "")
	v.Scores = problem.Scores(text)
	return v
}

func (s *Service) Stats(ctx context.Context) (history.Stats, error) {
	if s.history == nil {
		return history.Stats{}, ErrHistoryDisabled
	}
	return s.history.Stats(ctx)
}

func (s *Service) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Recent(ctx, limit)
}

func (s *Service) Solvers() format.Solvers {
	return format.SolversResponse(s.registry)
}

func (s *Service) Health() format.Health {
	hist := "disabled"
	if s.history != nil {
		hist = "enabled"
	}
	return format.HealthResponse(s.registry.RegisteredSolvers(), map[string]string{
		"explainer": s.explainer.Name(),
		"history":   hist,
	}, Version)
}

// Close releases the history store.
func (s *Service) Close() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}
