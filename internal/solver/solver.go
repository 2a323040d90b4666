// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"context"
	"fmt"
	"time"
)

// Step is one explainable move in a derivation.
type Step struct {
	StepNumber  int     `json:"step_number"`
	Operation   string  `json:"operation"`
	Description string  `json:"description"`
	Expression  string  `json:"expression"`
	LaTeX       string  `json:"latex,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Solution is the result of solving one problem. Solvers construct it once
// and never touch it after returning.
type Solution struct {
	Answer       string         `json:"answer"`
	Method       string         `json:"method"`
	Confidence   float64        `json:"confidence"`
	Steps        []Step         `json:"steps"`
	Verification string         `json:"verification"`
	Metadata     map[string]any `json:"metadata"`

	// Success is false when the solver caught an internal failure; Error
	// then carries the message and the other fields may be empty.
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Failure builds the Solution-shaped error result a solver returns instead
// of propagating an error.
func Failure(format string, args ...any) *Solution {
	return &Solution{
		Method:   "error",
		Steps:    []Step{},
		Metadata: map[string]any{},
		Error:    fmt.Sprintf(format, args...),
	}
}

type Options struct {
	SubjectHint    string
	DifficultyHint string
	// Timeout bounds a single Solve call. Zero means the registry default.
	Timeout time.Duration
}

type Solver interface {
	// Name is the registry key and the subject the solver covers.
	Name() string
	CanSolve(problem, subjectHint string) bool
	Solve(ctx context.Context, problem string, opts Options) *Solution
	Capabilities() []string
}

// Trace accumulates numbered steps for a solution in progress.
type Trace struct {
	steps []Step
}

// Add appends a step with full confidence.
func (t *Trace) Add(operation, description, expression, latex string) {
	t.AddWithConfidence(operation, description, expression, latex, 1.0)
}

func (t *Trace) AddWithConfidence(operation, description, expression, latex string, confidence float64) {
	t.steps = append(t.steps, Step{
		StepNumber:  len(t.steps) + 1,
		Operation:   operation,
		Description: description,
		Expression:  expression,
		LaTeX:       latex,
		Confidence:  confidence,
	})
}

// Steps returns the recorded steps. An empty trace yields an empty, non-nil slice.
func (t *Trace) Steps() []Step {
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

func (t *Trace) Len() int { return len(t.steps) }

// Done assembles a successful Solution from the trace.
func (t *Trace) Done(answer, method string, confidence float64, verification string, metadata map[string]any) *Solution {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Solution{
		Answer:       answer,
		Method:       method,
		Confidence:   confidence,
		Steps:        t.Steps(),
		Verification: verification,
		Metadata:     metadata,
		Success:      true,
	}
}
