// SPDX-License-Identifier: Apache-2.0

package problem_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathkitproj/mathsolver-mcp/internal/problem"
	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
	"github.com/mathkitproj/mathsolver-mcp/internal/solver/solvers"
)

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{name: "empty", text: "", want: problem.ErrEmpty},
		{name: "whitespace", text: " \t\n", want: problem.ErrEmpty},
		{name: "exactly max length", text: strings.Repeat("1", problem.MaxProblemLength)},
		{name: "one over max length", text: strings.Repeat("1", problem.MaxProblemLength+1), want: problem.ErrTooLong},
		{name: "length counts characters", text: strings.Repeat("é", problem.MaxProblemLength-1) + "1"},
		{name: "digit", text: "page 4"},
		{name: "operator", text: "a + b"},
		{name: "action word", text: "Evaluate the integral of sine"},
		{name: "no math", text: "what a lovely day", want: problem.ErrNotMath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := problem.Validate(tt.text)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// ---------------------------------------------------------------------------
// Classify
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		hint         string
		wantSubject  string
		wantMethod   string
		wantFallback []string
		minConf      float64
	}{
		{name: "linear equation", text: "2x + 5 = 13", wantSubject: "algebra", wantMethod: problem.MethodKeywordMatching, wantFallback: []string{}, minConf: 0.7},
		{name: "circle area", text: "area of circle with radius 5", wantSubject: "geometry", wantMethod: problem.MethodKeywordMatching, wantFallback: []string{}, minConf: 0.7},
		{name: "mean", text: "mean of 1, 2, 3, 4, 5", wantSubject: "statistics", wantMethod: problem.MethodKeywordMatching, wantFallback: []string{}, minConf: 0.7},
		{name: "derivative", text: "find the derivative of x^3", wantSubject: "calculus", wantMethod: problem.MethodKeywordMatching, wantFallback: []string{"algebra"}},
		{name: "trigonometry", text: "cos(x) of the hypotenuse", wantSubject: "trigonometry", wantMethod: problem.MethodKeywordMatching, wantFallback: []string{}},
		{name: "nothing matches", text: "hello 42", wantSubject: "arithmetic", wantMethod: problem.MethodDefaultFallback, wantFallback: []string{}},
		{name: "ambiguous", text: "solve the area", wantSubject: "algebra", wantMethod: problem.MethodKeywordMatching, wantFallback: []string{"geometry"}},
		{name: "hint overrides low confidence", text: "solve the area", hint: "Geometry", wantSubject: "geometry", wantMethod: problem.MethodUserProvided, wantFallback: []string{}, minConf: 0.8},
		{name: "hint ignored when confident", text: "2x + 5 = 13", hint: "geometry", wantSubject: "algebra", wantMethod: problem.MethodKeywordMatching, wantFallback: []string{}},
		{name: "unknown hint ignored", text: "solve the area", hint: "topology", wantSubject: "algebra", wantMethod: problem.MethodKeywordMatching, wantFallback: []string{"geometry"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := problem.Classify(tt.text, tt.hint)
			assert.Equal(t, tt.wantSubject, cls.Subject)
			assert.Equal(t, tt.wantMethod, cls.Method)
			assert.Equal(t, tt.wantFallback, cls.FallbackSubjects)
			assert.GreaterOrEqual(t, cls.Confidence, tt.minConf)
			assert.LessOrEqual(t, cls.Confidence, 0.9)
		})
	}
}

func TestScores(t *testing.T) {
	scores := problem.Scores("solve the area")
	assert.Len(t, scores, len(problem.Subjects))
	assert.Equal(t, 2, scores["algebra"])
	assert.Equal(t, 2, scores["geometry"])
	assert.Zero(t, scores["calculus"])
}

// ---------------------------------------------------------------------------
// ClassifyAndSolve
// ---------------------------------------------------------------------------

func TestClassifyAndSolve(t *testing.T) {
	r := solver.NewRegistry()
	solvers.Register(r)
	p := problem.NewParser(r)
	ctx := context.Background()

	tests := []struct {
		name       string
		text       string
		opts       solver.Options
		wantOK     bool
		wantSolver string
		wantAnswer string
		wantError  string
	}{
		{name: "algebra", text: "2x + 5 = 13", wantOK: true, wantSolver: "algebra", wantAnswer: "4"},
		{name: "arithmetic", text: "2 + 3 * 4", wantOK: true, wantSolver: "arithmetic", wantAnswer: "14"},
		{name: "statistics", text: "mean of 1, 2, 3, 4, 5", wantOK: true, wantSolver: "statistics"},
		{name: "validation", text: "", wantSolver: "none", wantError: "validation: empty problem text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.ClassifyAndSolve(ctx, tt.text, tt.opts)
			assert.Equal(t, tt.wantOK, res.Success, res.Error)
			assert.Equal(t, tt.wantSolver, res.SolverUsed)
			assert.Equal(t, tt.wantError, res.Error)
			if tt.wantAnswer != "" {
				require.NotNil(t, res.Solution)
				assert.Equal(t, tt.wantAnswer, res.Solution.Answer)
			}
			if !tt.wantOK {
				assert.Equal(t, "unknown", res.Classification.Subject)
				assert.NotNil(t, res.Classification.FallbackSubjects)
			}
		})
	}

	assert.Same(t, r, p.Registry())
}

func TestClassifyAndSolve_NoSolver(t *testing.T) {
	res := problem.NewParser(solver.NewRegistry()).ClassifyAndSolve(context.Background(), "2x + 5 = 13", solver.Options{})
	assert.False(t, res.Success)
	assert.Equal(t, "none", res.SolverUsed)
	assert.Equal(t, solver.NoSolverMessage, res.Error)
	assert.Equal(t, "algebra", res.Classification.Subject)
}
