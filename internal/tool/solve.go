// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mathkitproj/mathsolver-mcp/internal/format"
	"github.com/mathkitproj/mathsolver-mcp/internal/service"
)

var subjectEnum = []string{"arithmetic", "algebra", "geometry", "calculus", "statistics"}

var difficultyEnum = []string{"beginner", "intermediate", "advanced"}

func problemProperties() map[string]interface{} {
	return map[string]interface{}{
		"problem_text": map[string]interface{}{
			"type":        "string",
			"description": "The mathematical problem as plain text, at most 1000 characters.",
		},
		"subject_area": map[string]interface{}{
			"type":        "string",
			"description": "Optional subject hint. Used when keyword classification is not confident.",
			"enum":        subjectEnum,
		},
		"difficulty_level": map[string]interface{}{
			"type":        "string",
			"description": "Audience level for explanations. Defaults to intermediate.",
			"enum":        difficultyEnum,
		},
		"timeout_ms": map[string]interface{}{
			"type":        "integer",
			"description": "Per-solve time budget in milliseconds (1000 to 30000). Defaults to the server setting.",
			"minimum":     service.MinTimeoutMS,
			"maximum":     service.MaxTimeoutMS,
		},
	}
}

// MetadataSolveMathProblem describes the solve_math_problem tool.
var MetadataSolveMathProblem = &mcp.Tool{
	Name: "solve_math_problem",
	Description: "Classify a text math problem into a subject (arithmetic, algebra, geometry, calculus, " +
		"statistics) and solve it with the matching solver. Returns the answer, the method, numbered " +
		"steps with expressions and LaTeX, a verification string and the classification. " +
		"Failures are returned as success=false with an error naming the stage that failed.",
	InputSchema: map[string]interface{}{
		"type":       "object",
		"required":   []string{"problem_text"},
		"properties": problemProperties(),
	},
}

// MetadataExplainMathProblem describes the explain_math_problem tool.
var MetadataExplainMathProblem = &mcp.Tool{
	Name: "explain_math_problem",
	Description: "Solve a text math problem like solve_math_problem and add a natural-language explanation " +
		"of the solution steps, pitched at the requested difficulty level.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"problem_text"},
		"properties": func() map[string]interface{} {
			props := problemProperties()
			props["include_explanation"] = map[string]interface{}{
				"type":        "boolean",
				"description": "Set to false to skip the explanation. Defaults to true.",
			}
			return props
		}(),
	},
}

// MetadataSolveMathBatch describes the solve_math_batch tool.
var MetadataSolveMathBatch = &mcp.Tool{
	Name:        "solve_math_batch",
	Description: "Solve up to 10 problems in one call. Each problem gets its own result, in input order.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"problems"},
		"properties": map[string]interface{}{
			"problems": map[string]interface{}{
				"type":     "array",
				"minItems": 1,
				"maxItems": service.MaxBatchSize,
				"items": map[string]interface{}{
					"type":       "object",
					"required":   []string{"problem_text"},
					"properties": problemProperties(),
				},
			},
			"parallel": map[string]interface{}{
				"type":        "boolean",
				"description": "Solve problems concurrently. Defaults to true.",
			},
		},
	},
}

// InputSolveMathProblem is the input for the SolveMathProblem tool.
type InputSolveMathProblem struct {
	ProblemText     string `json:"problem_text"`
	SubjectArea     string `json:"subject_area,omitempty"`
	DifficultyLevel string `json:"difficulty_level,omitempty"`
	TimeoutMS       int    `json:"timeout_ms,omitempty"`
}

func (in InputSolveMathProblem) request() service.SolveRequest {
	return service.SolveRequest{
		ProblemText:     in.ProblemText,
		SubjectArea:     in.SubjectArea,
		DifficultyLevel: in.DifficultyLevel,
		TimeoutMS:       in.TimeoutMS,
	}
}

// InputExplainMathProblem is the input for the ExplainMathProblem tool.
type InputExplainMathProblem struct {
	InputSolveMathProblem
	IncludeExplanation *bool `json:"include_explanation,omitempty"`
}

// OutputSolveMathProblem is the output of the solve and explain tools.
type OutputSolveMathProblem struct {
	RequestID      string                `json:"request_id"`
	Timestamp      string                `json:"timestamp"`
	ProblemText    string                `json:"problem_text"`
	Success        bool                  `json:"success"`
	Error          string                `json:"error,omitempty"`
	ErrorType      string                `json:"error_type,omitempty"`
	Solution       format.Solution       `json:"solution"`
	Classification format.Classification `json:"classification"`
	Explanation    *format.Explanation   `json:"explanation,omitempty"`
	Metadata       map[string]any        `json:"metadata"`
}

func toOutput(r service.SolveResult) OutputSolveMathProblem {
	out := OutputSolveMathProblem{
		RequestID:      r.RequestID,
		Timestamp:      r.Timestamp.Format(time.RFC3339Nano),
		ProblemText:    r.ProblemText,
		Success:        r.Success,
		Error:          r.Error,
		Solution:       r.Solution,
		Classification: r.Classification,
		Explanation:    r.Explanation,
		Metadata:       r.Metadata,
	}
	if r.Error != "" {
		out.ErrorType = format.ErrorType(r.Error)
	}
	return out
}

// InputSolveMathBatch is the input for the SolveMathBatch tool.
type InputSolveMathBatch struct {
	Problems []InputSolveMathProblem `json:"problems"`
	Parallel *bool                   `json:"parallel,omitempty"`
}

// OutputSolveMathBatch is the output for the SolveMathBatch tool.
type OutputSolveMathBatch struct {
	RequestID string                   `json:"request_id"`
	Timestamp string                   `json:"timestamp"`
	Results   []OutputSolveMathProblem `json:"results"`
	Summary   service.BatchSummary     `json:"summary"`
}

func requireProblem(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("problem_text is required")
	}
	return nil
}

// SolveMathProblem classifies and solves one problem.
func (t *Tools) SolveMathProblem(ctx context.Context, _ *mcp.CallToolRequest, input InputSolveMathProblem) (*mcp.CallToolResult, OutputSolveMathProblem, error) {
	if err := requireProblem(input.ProblemText); err != nil {
		return nil, OutputSolveMathProblem{}, err
	}
	return nil, toOutput(t.svc.Solve(ctx, input.request())), nil
}

// ExplainMathProblem solves one problem and explains the solution.
func (t *Tools) ExplainMathProblem(ctx context.Context, _ *mcp.CallToolRequest, input InputExplainMathProblem) (*mcp.CallToolResult, OutputSolveMathProblem, error) {
	if err := requireProblem(input.ProblemText); err != nil {
		return nil, OutputSolveMathProblem{}, err
	}
	req := input.request()
	req.IncludeExplanation = input.IncludeExplanation == nil || *input.IncludeExplanation
	return nil, toOutput(t.svc.Solve(ctx, req)), nil
}

// SolveMathBatch solves several problems independently.
func (t *Tools) SolveMathBatch(ctx context.Context, _ *mcp.CallToolRequest, input InputSolveMathBatch) (*mcp.CallToolResult, OutputSolveMathBatch, error) {
	req := service.BatchRequest{Parallel: input.Parallel}
	for _, p := range input.Problems {
		req.Problems = append(req.Problems, p.request())
	}
	res, err := t.svc.Batch(ctx, req)
	if err != nil {
		return nil, OutputSolveMathBatch{}, err
	}
	out := OutputSolveMathBatch{
		RequestID: res.RequestID,
		Timestamp: res.Timestamp.Format(time.RFC3339Nano),
		Results:   make([]OutputSolveMathProblem, 0, len(res.Results)),
		Summary:   res.Summary,
	}
	for _, r := range res.Results {
		out.Results = append(out.Results, toOutput(r))
	}
	return nil, out, nil
}
