// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mathkitproj/mathsolver-mcp/internal/problemset"
	"github.com/mathkitproj/mathsolver-mcp/internal/problemset/parsers"
	"github.com/mathkitproj/mathsolver-mcp/internal/service"
)

// MetadataSolveProblemSet describes the solve_problem_set tool.
var MetadataSolveProblemSet = &mcp.Tool{
	Name: "solve_problem_set",
	Description: "Read a problem set document and solve every problem in it. " +
		"Supported formats: yaml, json, markdown, text. YAML and JSON take a list of strings or of " +
		"objects with problem_text, subject_area and difficulty_level, optionally under a problems key. " +
		"Markdown takes one problem per list item and uses the section heading as the subject hint. " +
		"Text takes one problem per line. At most 10 problems per call.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Raw content of the problem set document",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"description": "Format hint for the document. If omitted, auto-detection is used.",
				"enum":        []string{"yaml", "json", "markdown", "text"},
			},
			"source_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional identifier for the document (file path, URL, etc.) used in entry references.",
			},
			"difficulty_level": map[string]interface{}{
				"type":        "string",
				"description": "Default audience level for entries that do not set one.",
				"enum":        difficultyEnum,
			},
			"include_explanation": map[string]interface{}{
				"type":        "boolean",
				"description": "Add an explanation to every solved problem. Defaults to false.",
			},
		},
	},
}

// InputSolveProblemSet is the input for the SolveProblemSet tool.
type InputSolveProblemSet struct {
	Content            string `json:"content"`
	Format             string `json:"format,omitempty"`
	SourceID           string `json:"source_id,omitempty"`
	DifficultyLevel    string `json:"difficulty_level,omitempty"`
	IncludeExplanation bool   `json:"include_explanation,omitempty"`
}

// OutputSolveProblemSet is the output for the SolveProblemSet tool.
type OutputSolveProblemSet struct {
	ParserUsed string                   `json:"parser_used"`
	Refs       []string                 `json:"refs"`
	RequestID  string                   `json:"request_id"`
	Timestamp  string                   `json:"timestamp"`
	Results    []OutputSolveMathProblem `json:"results"`
	Summary    service.BatchSummary     `json:"summary"`
}

// SolveProblemSet parses a problem set document and solves its entries as
// one batch.
func (t *Tools) SolveProblemSet(ctx context.Context, _ *mcp.CallToolRequest, input InputSolveProblemSet) (*mcp.CallToolResult, OutputSolveProblemSet, error) {
	if input.Content == "" {
		return nil, OutputSolveProblemSet{}, fmt.Errorf("content is required")
	}

	set, err := parsers.Default().Load(ctx, problemset.Source{
		Content: []byte(input.Content),
		Format:  input.Format,
		ID:      input.SourceID,
	})
	if err != nil {
		return nil, OutputSolveProblemSet{}, err
	}

	res, err := t.svc.Batch(ctx, service.BatchRequest{
		Problems: service.SetRequests(set, service.SolveRequest{
			DifficultyLevel:    input.DifficultyLevel,
			IncludeExplanation: input.IncludeExplanation,
		}),
	})
	if err != nil {
		return nil, OutputSolveProblemSet{}, err
	}

	out := OutputSolveProblemSet{
		ParserUsed: set.ParserUsed,
		Refs:       make([]string, 0, len(set.Entries)),
		RequestID:  res.RequestID,
		Timestamp:  res.Timestamp.Format(time.RFC3339Nano),
		Results:    make([]OutputSolveMathProblem, 0, len(res.Results)),
		Summary:    res.Summary,
	}
	for _, e := range set.Entries {
		out.Refs = append(out.Refs, e.Ref)
	}
	for _, r := range res.Results {
		out.Results = append(out.Results, toOutput(r))
	}
	return nil, out, nil
}
