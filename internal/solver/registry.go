// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a Solve call when neither the registry nor the
// request configures one.
const DefaultTimeout = 5 * time.Second

// Library names the engine the registered solvers are built on.
const Library = "symbolic"

// NoSolverMessage is the Outcome error when nothing can take a problem.
const NoSolverMessage = "No suitable solver available"

var (
	ErrNoSolver = errors.New("no suitable solver available")
	ErrTimeout  = errors.New("solver timed out")
)

// Registration is an entry in the registry.
type Registration struct {
	Name   string
	Solver Solver
}

// RegistryInfo is the introspection block attached to every outcome.
type RegistryInfo struct {
	AvailableSolvers []string `json:"available_solvers"`
	SelectedSolver   string   `json:"selected_solver"`
	SolverLibrary    string   `json:"solver_library"`
}

// Outcome is the result of Registry.SolveProblem.
type Outcome struct {
	Success     bool
	Error       string
	Solution    *Solution
	SolverUsed  string
	ProblemType string
	Registry    RegistryInfo
	Elapsed     time.Duration
}

// Registry holds solvers in registration order. It is populated once at
// startup and only read afterwards, so concurrent SolveProblem calls are safe.
type Registry struct {
	entries  []Registration
	fallback string
	timeout  time.Duration
	logger   *slog.Logger
}

type RegistryOption func(*Registry)

// WithTimeout sets the per-solve deadline used when a request has none.
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithFallback designates the solver used when no solver claims a problem.
func WithFallback(name string) RegistryOption {
	return func(r *Registry) { r.fallback = name }
}

func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{timeout: DefaultTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register inserts s under name, replacing any solver already registered
// under that name while keeping its original position.
func (r *Registry) Register(name string, s Solver) {
	for i, e := range r.entries {
		if e.Name == name {
			r.entries[i].Solver = s
			r.logger.Info("replaced solver", "name", name)
			return
		}
	}
	r.entries = append(r.entries, Registration{Name: name, Solver: s})
	r.logger.Info("registered solver", "name", name, "library", Library)
}

// Lookup returns the solver registered under name.
func (r *Registry) Lookup(name string) (Solver, bool) {
	for _, e := range r.entries {
		if e.Name == name {
			return e.Solver, true
		}
	}
	return nil, false
}

// RegisteredSolvers returns the names of all registered solvers in order.
func (r *Registry) RegisteredSolvers() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Capabilities maps each solver name to its declared sub-skills.
func (r *Registry) Capabilities() map[string][]string {
	out := make(map[string][]string, len(r.entries))
	for _, e := range r.entries {
		out[e.Name] = e.Solver.Capabilities()
	}
	return out
}

// FindBestSolver picks the preferred solver if it claims the problem, else
// the first claiming solver in registration order, else the fallback.
func (r *Registry) FindBestSolver(problem, subjectHint, preferred string) (Registration, bool) {
	if preferred != "" {
		if s, ok := r.Lookup(preferred); ok && s.CanSolve(problem, subjectHint) {
			r.logger.Debug("using preferred solver", "name", preferred)
			return Registration{Name: preferred, Solver: s}, true
		}
	}
	for _, e := range r.entries {
		if e.Solver.CanSolve(problem, subjectHint) {
			r.logger.Debug("selected solver", "name", e.Name, "problem", truncate(problem, 50))
			return e, true
		}
	}
	if r.fallback != "" {
		if s, ok := r.Lookup(r.fallback); ok {
			r.logger.Debug("no solver claimed problem, using fallback", "name", r.fallback)
			return Registration{Name: r.fallback, Solver: s}, true
		}
	}
	r.logger.Warn("no suitable solver found", "problem", truncate(problem, 50))
	return Registration{}, false
}

// SolveProblem resolves a solver and runs it under a deadline. It never
// panics and never returns an error: every failure is an Outcome with
// Success=false.
func (r *Registry) SolveProblem(ctx context.Context, problem string, opts Options, preferred string) Outcome {
	start := time.Now()
	info := RegistryInfo{
		AvailableSolvers: r.RegisteredSolvers(),
		SolverLibrary:    Library,
	}

	reg, ok := r.FindBestSolver(problem, opts.SubjectHint, preferred)
	if !ok {
		return Outcome{
			Error:       NoSolverMessage,
			SolverUsed:  "none",
			ProblemType: "unknown",
			Registry:    info,
			Elapsed:     time.Since(start),
		}
	}
	info.SelectedSolver = reg.Name

	timeout := r.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	sol, err := runWithDeadline(ctx, reg.Solver, problem, opts, timeout)
	out := Outcome{
		SolverUsed:  reg.Name,
		ProblemType: reg.Name,
		Registry:    info,
		Elapsed:     time.Since(start),
	}
	switch {
	case err != nil:
		r.logger.Warn("solver failed", "name", reg.Name, "error", err)
		out.Error = err.Error()
		out.ProblemType = "unknown"
	case !sol.Success:
		r.logger.Warn("solver returned failure", "name", reg.Name, "error", sol.Error)
		out.Solution = sol
		out.Error = fmt.Sprintf("%s solver: %s", reg.Name, sol.Error)
	default:
		out.Success = true
		out.Solution = sol
	}
	return out
}

func runWithDeadline(ctx context.Context, s Solver, problem string, opts Options, timeout time.Duration) (*Solution, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan *Solution, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- Failure("Solver execution failed: %v", p)
			}
		}()
		done <- s.Solve(ctx, problem, opts)
	}()

	select {
	case sol := <-done:
		if sol == nil {
			return nil, fmt.Errorf("solver %s returned no solution", s.Name())
		}
		return sol, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("solver %s timed out after %s: %w", s.Name(), timeout, ErrTimeout)
		}
		return nil, fmt.Errorf("solver %s: %w", s.Name(), ctx.Err())
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
