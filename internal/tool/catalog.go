// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mathkitproj/mathsolver-mcp/internal/format"
	"github.com/mathkitproj/mathsolver-mcp/internal/history"
	"github.com/mathkitproj/mathsolver-mcp/internal/service"
)

// MetadataListSolvers describes the list_solvers tool.
var MetadataListSolvers = &mcp.Tool{
	Name:        "list_solvers",
	Description: "List the registered solvers in selection order together with the capabilities each one declares.",
	InputSchema: map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	},
}

// MetadataValidateProblem describes the validate_problem tool.
var MetadataValidateProblem = &mcp.Tool{
	Name: "validate_problem",
	Description: "Check whether a problem text would be accepted without solving it. " +
		"Valid problems also report the classification and the per-subject keyword scores.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"problem_text"},
		"properties": map[string]interface{}{
			"problem_text": map[string]interface{}{
				"type":        "string",
				"description": "The problem text to check.",
			},
		},
	},
}

// MetadataSolveStats describes the solve_stats tool.
var MetadataSolveStats = &mcp.Tool{
	Name:        "solve_stats",
	Description: "Report processing statistics over the solve history and list the most recent solves.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"recent": map[string]interface{}{
				"type":        "integer",
				"description": "Number of recent solves to include. Defaults to 0.",
				"minimum":     0,
				"maximum":     100,
			},
		},
	},
}

// InputListSolvers is the input for the ListSolvers tool.
type InputListSolvers struct{}

// InputValidateProblem is the input for the ValidateProblem tool.
type InputValidateProblem struct {
	ProblemText string `json:"problem_text"`
}

// InputSolveStats is the input for the SolveStats tool.
type InputSolveStats struct {
	Recent int `json:"recent,omitempty"`
}

type RecentSolve struct {
	ID           string  `json:"id"`
	Problem      string  `json:"problem"`
	Subject      string  `json:"subject"`
	SolverUsed   string  `json:"solver_used"`
	Success      bool    `json:"success"`
	Error        string  `json:"error,omitempty"`
	ProcessingMS float64 `json:"processing_time_ms"`
	CreatedAt    string  `json:"created_at"`
}

// OutputSolveStats is the output for the SolveStats tool.
type OutputSolveStats struct {
	// Enabled is false when the server runs without a history store.
	Enabled bool          `json:"enabled"`
	Stats   history.Stats `json:"stats"`
	Recent  []RecentSolve `json:"recent"`
}

// ListSolvers reports the registry.
func (t *Tools) ListSolvers(_ context.Context, _ *mcp.CallToolRequest, _ InputListSolvers) (*mcp.CallToolResult, format.Solvers, error) {
	return nil, t.svc.Solvers(), nil
}

// ValidateProblem checks a problem text without solving it.
func (t *Tools) ValidateProblem(_ context.Context, _ *mcp.CallToolRequest, input InputValidateProblem) (*mcp.CallToolResult, service.Validation, error) {
	return nil, t.svc.Validate(input.ProblemText), nil
}

// SolveStats reports history statistics.
func (t *Tools) SolveStats(ctx context.Context, _ *mcp.CallToolRequest, input InputSolveStats) (*mcp.CallToolResult, OutputSolveStats, error) {
	out := OutputSolveStats{
		Stats:  history.Stats{SolverUsage: map[string]int64{}, SubjectDistribution: map[string]int64{}},
		Recent: []RecentSolve{},
	}
	st, err := t.svc.Stats(ctx)
	if errors.Is(err, service.ErrHistoryDisabled) {
		return nil, out, nil
	}
	if err != nil {
		return nil, OutputSolveStats{}, err
	}
	out.Enabled = true
	out.Stats = st

	if input.Recent > 0 {
		entries, err := t.svc.Recent(ctx, input.Recent)
		if err != nil {
			return nil, OutputSolveStats{}, err
		}
		for _, e := range entries {
			out.Recent = append(out.Recent, RecentSolve{
				ID:           e.ID,
				Problem:      e.Problem,
				Subject:      e.Subject,
				SolverUsed:   e.SolverUsed,
				Success:      e.Success,
				Error:        e.Error,
				ProcessingMS: e.ProcessingMS,
				CreatedAt:    e.CreatedAt.Format(time.RFC3339Nano),
			})
		}
	}
	return nil, out, nil
}
