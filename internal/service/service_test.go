// SPDX-License-Identifier: Apache-2.0

package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathkitproj/mathsolver-mcp/internal/config"
	"github.com/mathkitproj/mathsolver-mcp/internal/explain"
	"github.com/mathkitproj/mathsolver-mcp/internal/history"
	"github.com/mathkitproj/mathsolver-mcp/internal/service"
	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
	"github.com/mathkitproj/mathsolver-mcp/internal/solver/solvers"
)

type fixedExplainer struct{ calls int }

func (f *fixedExplainer) Name() string { return "fixed" }

func (f *fixedExplainer) Explain(_ context.Context, req explain.Request) (explain.Explanation, error) {
	f.calls++
	return explain.Explanation{Content: "answer is " + req.Answer, Method: "fixed", Success: true}, nil
}

func newService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	r := solver.NewRegistry()
	solvers.Register(r)
	return service.New(r, opts...)
}

func newHistory(t *testing.T) history.Store {
	t.Helper()
	store, err := history.Open(context.Background(), history.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// ---------------------------------------------------------------------------
// Solve
// ---------------------------------------------------------------------------

func TestSolve(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		req        service.SolveRequest
		wantOK     bool
		wantAnswer string
		wantSolver string
		wantError  string
	}{
		{name: "linear equation", req: service.SolveRequest{ProblemText: "2x + 5 = 13"}, wantOK: true, wantAnswer: "4", wantSolver: "algebra"},
		{name: "arithmetic", req: service.SolveRequest{ProblemText: "2 + 3 * 4"}, wantOK: true, wantAnswer: "14", wantSolver: "arithmetic"},
		{name: "empty", req: service.SolveRequest{ProblemText: "  "}, wantSolver: "none", wantError: "validation: empty problem text"},
		{name: "not math", req: service.SolveRequest{ProblemText: "hello there"}, wantSolver: "none", wantError: "validation: no mathematical content detected"},
		{name: "too long", req: service.SolveRequest{ProblemText: strings.Repeat("1", 1001)}, wantSolver: "none", wantError: "validation: problem text too long (max 1000 characters)"},
		{name: "timeout out of range", req: service.SolveRequest{ProblemText: "1 + 1", TimeoutMS: 10}, wantSolver: "none", wantError: "validation: timeout_ms must be between 1000 and 30000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Solve(ctx, tt.req)
			assert.Equal(t, tt.wantOK, res.Success, res.Error)
			assert.Len(t, res.RequestID, 36)
			assert.False(t, res.Timestamp.IsZero())
			assert.Equal(t, tt.req.ProblemText, res.ProblemText)
			assert.Equal(t, tt.wantAnswer, res.Solution.Answer)
			assert.Equal(t, tt.wantSolver, res.Metadata["solver_used"])
			assert.Equal(t, tt.wantError, res.Error)
			assert.Nil(t, res.Explanation)
		})
	}
}

func TestSolve_JSONShape(t *testing.T) {
	res := newService(t).Solve(context.Background(), service.SolveRequest{ProblemText: "2x + 5 = 13", DifficultyLevel: "beginner"})
	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"request_id", "timestamp", "problem_text", "success", "solution", "classification", "metadata"} {
		assert.Contains(t, decoded, key)
	}
	meta := decoded["metadata"].(map[string]any)
	assert.Equal(t, "beginner", meta["difficulty_level"])
}

func TestSolve_Explanation(t *testing.T) {
	fx := &fixedExplainer{}
	svc := newService(t, service.WithExplainer(fx))
	ctx := context.Background()

	res := svc.Solve(ctx, service.SolveRequest{ProblemText: "2x + 5 = 13", IncludeExplanation: true})
	require.True(t, res.Success)
	require.NotNil(t, res.Explanation)
	assert.Equal(t, "answer is 4", res.Explanation.Content)
	assert.Equal(t, "fixed", res.Metadata["explainer"])

	failed := svc.Solve(ctx, service.SolveRequest{ProblemText: "", IncludeExplanation: true})
	assert.False(t, failed.Success)
	assert.Nil(t, failed.Explanation)
	assert.Equal(t, 1, fx.calls)
}

func TestSolve_DefaultNarrator(t *testing.T) {
	res := newService(t).Solve(context.Background(), service.SolveRequest{ProblemText: "2x + 5 = 13", IncludeExplanation: true})
	require.NotNil(t, res.Explanation)
	assert.True(t, res.Explanation.Success)
	assert.Equal(t, "step_narration", res.Explanation.Method)
	assert.Contains(t, res.Explanation.Content, "**Answer**")
}

// ---------------------------------------------------------------------------
// Batch
// ---------------------------------------------------------------------------

func TestBatch(t *testing.T) {
	svc := newService(t, service.WithBatchLimits(5, 2))
	ctx := context.Background()
	problems := []service.SolveRequest{
		{ProblemText: "2x + 5 = 13"},
		{ProblemText: ""},
		{ProblemText: "2 + 3 * 4"},
	}
	sequential := false

	for _, parallel := range []*bool{nil, &sequential} {
		name := "parallel"
		if parallel != nil {
			name = "sequential"
		}
		t.Run(name, func(t *testing.T) {
			out, err := svc.Batch(ctx, service.BatchRequest{Problems: problems, Parallel: parallel})
			require.NoError(t, err)
			assert.True(t, out.Success)
			require.Len(t, out.Results, 3)
			assert.Equal(t, "4", out.Results[0].Solution.Answer)
			assert.False(t, out.Results[1].Success)
			assert.Equal(t, "14", out.Results[2].Solution.Answer)
			assert.Equal(t, service.BatchSummary{Total: 3, Successful: 2, Failed: 1}, out.Summary)
		})
	}
}

func TestBatch_Size(t *testing.T) {
	svc := newService(t, service.WithBatchLimits(2, 1))
	ctx := context.Background()

	_, err := svc.Batch(ctx, service.BatchRequest{})
	assert.ErrorIs(t, err, service.ErrBatchSize)

	_, err = svc.Batch(ctx, service.BatchRequest{Problems: make([]service.SolveRequest, 3)})
	assert.ErrorIs(t, err, service.ErrBatchSize)
}

// ---------------------------------------------------------------------------
// History, validation, introspection
// ---------------------------------------------------------------------------

func TestStats(t *testing.T) {
	ctx := context.Background()

	_, err := newService(t).Stats(ctx)
	assert.ErrorIs(t, err, service.ErrHistoryDisabled)

	svc := newService(t, service.WithHistory(newHistory(t)))
	svc.Solve(ctx, service.SolveRequest{ProblemText: "2x + 5 = 13"})
	svc.Solve(ctx, service.SolveRequest{ProblemText: "2 + 3 * 4"})
	svc.Solve(ctx, service.SolveRequest{ProblemText: ""})

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalRequests)
	assert.Equal(t, int64(2), st.SuccessfulRequests)
	assert.Equal(t, int64(1), st.SolverUsage["algebra"])
	assert.Equal(t, int64(1), st.SolverUsage["none"])
	assert.Equal(t, int64(1), st.SubjectDistribution["unknown"])

	recent, err := svc.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "", recent[0].Problem)
}

func TestValidate(t *testing.T) {
	svc := newService(t)

	v := svc.Validate("2x + 5 = 13")
	assert.True(t, v.Valid)
	assert.Equal(t, 11, v.Length)
	assert.Equal(t, "algebra", v.Classification.Subject)
	assert.Equal(t, 3, v.Scores["algebra"])

	bad := svc.Validate("")
	assert.False(t, bad.Valid)
	assert.Equal(t, "validation: empty problem text", bad.Error)
	assert.Equal(t, "unknown", bad.Classification.Subject)
}

func TestHealthAndSolvers(t *testing.T) {
	svc := newService(t, service.WithHistory(newHistory(t)))

	h := svc.Health()
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, service.Version, h.Version)
	assert.Len(t, h.Services.Solvers, 5)
	assert.Equal(t, "narrator", h.Services.ExternalServices["explainer"])
	assert.Equal(t, "enabled", h.Services.ExternalServices["history"])

	assert.Equal(t, []string{"arithmetic", "algebra", "geometry", "calculus", "statistics"}, svc.Solvers().AvailableSolvers)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Solver.Disabled = []string{"statistics"}
	cfg.Explain.Provider = "gemini"

	svc, err := service.FromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, []string{"arithmetic", "algebra", "geometry", "calculus"}, svc.Registry().RegisteredSolvers())
	h := svc.Health()
	assert.Equal(t, "gemini", h.Services.ExternalServices["explainer"])
	assert.Equal(t, "enabled", h.Services.ExternalServices["history"])

	_, err = svc.Stats(context.Background())
	assert.NoError(t, err)
}

func TestFromConfig_BadHistoryDriver(t *testing.T) {
	cfg := config.Default()
	cfg.History.Driver = "mysql"
	_, err := service.FromConfig(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, history.ErrUnknownDriver)
}
