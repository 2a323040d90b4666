// SPDX-License-Identifier: Apache-2.0

package solver_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
)

// stubSolver claims problems containing its keyword.
type stubSolver struct {
	name    string
	keyword string
	delay   time.Duration
	panics  bool
	fail    string
}

func (s *stubSolver) Name() string { return s.name }

func (s *stubSolver) CanSolve(problem, hint string) bool {
	return solver.HintIs(hint, s.name) || (s.keyword != "" && strings.Contains(problem, s.keyword))
}

func (s *stubSolver) Solve(_ context.Context, problem string, _ solver.Options) *solver.Solution {
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.fail != "" {
		return solver.Failure("%s", s.fail)
	}
	var t solver.Trace
	t.Add("echo", "Echo the problem", problem, "")
	return t.Done(problem, s.name+"_echo", 1, "", nil)
}

func (s *stubSolver) Capabilities() []string { return []string{s.name + "_things"} }

func newRegistry(opts ...solver.RegistryOption) *solver.Registry {
	r := solver.NewRegistry(opts...)
	r.Register("first", &stubSolver{name: "first", keyword: "both"})
	r.Register("second", &stubSolver{name: "second", keyword: "two"})
	return r
}

// ---------------------------------------------------------------------------
// Registry selection
// ---------------------------------------------------------------------------

func TestRegistry_FindBestSolver(t *testing.T) {
	r := newRegistry()
	r.Register("second", &stubSolver{name: "second", keyword: "both"})

	tests := []struct {
		name      string
		problem   string
		preferred string
		want      string
		wantOK    bool
	}{
		{name: "registration order wins", problem: "both", want: "first", wantOK: true},
		{name: "preferred solver that claims the problem", problem: "both", preferred: "second", want: "second", wantOK: true},
		{name: "unregistered preferred solver falls through", problem: "both", preferred: "missing", want: "first", wantOK: true},
		{name: "nothing claims the problem", problem: "nothing here", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, ok := r.FindBestSolver(tt.problem, "", tt.preferred)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, reg.Name)
		})
	}
}

func TestRegistry_RegisterReplacesInPlace(t *testing.T) {
	r := newRegistry()
	r.Register("first", &stubSolver{name: "first", keyword: "other"})
	r.Register("third", &stubSolver{name: "third"})

	assert.Equal(t, []string{"first", "second", "third"}, r.RegisteredSolvers())
	s, ok := r.Lookup("first")
	require.True(t, ok)
	assert.True(t, s.CanSolve("other", ""))
	assert.Equal(t, []string{"third_things"}, r.Capabilities()["third"])
}

func TestRegistry_Fallback(t *testing.T) {
	r := newRegistry(solver.WithFallback("second"))
	reg, ok := r.FindBestSolver("unclaimed", "", "")
	require.True(t, ok)
	assert.Equal(t, "second", reg.Name)
}

// ---------------------------------------------------------------------------
// SolveProblem
// ---------------------------------------------------------------------------

func TestRegistry_SolveProblem(t *testing.T) {
	ctx := context.Background()

	t.Run("success carries registry info", func(t *testing.T) {
		out := newRegistry().SolveProblem(ctx, "two", solver.Options{}, "")
		require.True(t, out.Success, out.Error)
		assert.Equal(t, "second", out.SolverUsed)
		assert.Equal(t, "two", out.Solution.Answer)
		assert.Equal(t, []string{"first", "second"}, out.Registry.AvailableSolvers)
		assert.Equal(t, "second", out.Registry.SelectedSolver)
		assert.Equal(t, solver.Library, out.Registry.SolverLibrary)
	})

	t.Run("no solver", func(t *testing.T) {
		out := newRegistry().SolveProblem(ctx, "unclaimed", solver.Options{}, "")
		assert.False(t, out.Success)
		assert.Equal(t, "none", out.SolverUsed)
		assert.Equal(t, solver.NoSolverMessage, out.Error)
		assert.Nil(t, out.Solution)
	})

	t.Run("solver failure names the solver", func(t *testing.T) {
		r := solver.NewRegistry()
		r.Register("algebra", &stubSolver{name: "algebra", keyword: "x", fail: "cannot parse"})
		out := r.SolveProblem(ctx, "x", solver.Options{}, "")
		assert.False(t, out.Success)
		assert.Equal(t, "algebra solver: cannot parse", out.Error)
		assert.Equal(t, "algebra", out.SolverUsed)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		r := solver.NewRegistry()
		r.Register("bad", &stubSolver{name: "bad", keyword: "x", panics: true})
		out := r.SolveProblem(ctx, "x", solver.Options{}, "")
		assert.False(t, out.Success)
		assert.Contains(t, out.Error, "Solver execution failed: boom")
	})

	t.Run("deadline", func(t *testing.T) {
		r := solver.NewRegistry(solver.WithTimeout(time.Hour))
		r.Register("slow", &stubSolver{name: "slow", keyword: "x", delay: time.Second})
		out := r.SolveProblem(ctx, "x", solver.Options{Timeout: 20 * time.Millisecond}, "")
		assert.False(t, out.Success)
		assert.Equal(t, "slow", out.SolverUsed)
		assert.Contains(t, out.Error, "solver slow timed out after 20ms")
	})

	t.Run("hint short-circuits applicability", func(t *testing.T) {
		out := newRegistry().SolveProblem(ctx, "unclaimed", solver.Options{SubjectHint: "Second"}, "")
		require.True(t, out.Success)
		assert.Equal(t, "second", out.SolverUsed)
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestTrace(t *testing.T) {
	var tr solver.Trace
	assert.Empty(t, tr.Steps())
	assert.NotNil(t, tr.Steps())

	tr.Add("parse", "Parse", "x", "x")
	tr.AddWithConfidence("solve", "Solve", "x = 1", "", 0.5)
	sol := tr.Done("1", "linear_solving", 0.95, "ok", nil)

	require.Len(t, sol.Steps, 2)
	assert.Equal(t, 1, sol.Steps[0].StepNumber)
	assert.Equal(t, 2, sol.Steps[1].StepNumber)
	assert.Equal(t, 1.0, sol.Steps[0].Confidence)
	assert.Equal(t, 0.5, sol.Steps[1].Confidence)
	assert.True(t, sol.Success)
	assert.NotNil(t, sol.Metadata)
}

func TestFailure(t *testing.T) {
	sol := solver.Failure("bad %s", "input")
	assert.False(t, sol.Success)
	assert.Equal(t, "bad input", sol.Error)
	assert.Equal(t, "error", sol.Method)
	assert.NotNil(t, sol.Steps)
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{20, "20.0"},
		{0, "0.0"},
		{0.5, "0.5"},
		{-3, "-3.0"},
		{78.54, "78.54"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, solver.FormatDecimal(tt.in))
		})
	}
}

func TestExtractNumbers(t *testing.T) {
	assert.Equal(t, []float64{3, 4.5, 10}, solver.ExtractNumbers("a 3 and 4.5 then -10", false))
	assert.Equal(t, []float64{3, 4.5, -10}, solver.ExtractNumbers("a 3 and 4.5 then -10", true))
	assert.Nil(t, solver.ExtractNumbers("no digits", true))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 78.54, solver.Round(78.5398, 2))
	assert.Equal(t, 3.0, solver.Round(2.5, 0))
	assert.Equal(t, -3.0, solver.Round(-2.5, 0))
}
