// SPDX-License-Identifier: Apache-2.0

// Package format turns pipeline results into the stable records returned by
// every surface. Formatting is pure: the same inputs always produce the same
// record, and nothing here stamps times or identifiers.
package format

import (
	"strings"
	"time"

	"github.com/mathkitproj/mathsolver-mcp/internal/explain"
	"github.com/mathkitproj/mathsolver-mcp/internal/problem"
	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
)

// Error types reported in ErrorRecord.Type.
const (
	ValidationError = "validation_error"
	ProcessingError = "processing_error"
	NoSolverError   = "no_solver_error"
	TimeoutError    = "timeout_error"
	InternalError   = "internal_error"
)

const confidencePlaces = 3

type Step struct {
	StepNumber  int     `json:"step_number" yaml:"step_number"`
	Operation   string  `json:"operation" yaml:"operation"`
	Description string  `json:"description" yaml:"description"`
	Expression  string  `json:"expression" yaml:"expression"`
	LaTeX       string  `json:"latex,omitempty" yaml:"latex,omitempty"`
	Confidence  float64 `json:"confidence" yaml:"confidence"`
}

type Solution struct {
	Answer       string         `json:"answer" yaml:"answer"`
	Method       string         `json:"method" yaml:"method"`
	Confidence   float64        `json:"confidence" yaml:"confidence"`
	Steps        []Step         `json:"steps" yaml:"steps"`
	Verification string         `json:"verification" yaml:"verification"`
	Metadata     map[string]any `json:"metadata" yaml:"metadata"`
}

type Classification struct {
	Subject          string   `json:"subject" yaml:"subject"`
	Confidence       float64  `json:"confidence" yaml:"confidence"`
	Method           string   `json:"method" yaml:"method"`
	FallbackSubjects []string `json:"fallback_subjects" yaml:"fallback_subjects"`
}

type Explanation struct {
	Content    string `json:"content" yaml:"content"`
	Method     string `json:"method" yaml:"method"`
	Success    bool   `json:"success" yaml:"success"`
	TokensUsed int    `json:"tokens_used" yaml:"tokens_used"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	Error      string `json:"error" yaml:"error"`
}

// Response is the formatted result of one solve.
type Response struct {
	Success        bool           `json:"success" yaml:"success"`
	Error          string         `json:"error,omitempty" yaml:"error,omitempty"`
	Solution       Solution       `json:"solution" yaml:"solution"`
	Classification Classification `json:"classification" yaml:"classification"`
	Explanation    *Explanation   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Metadata       map[string]any `json:"metadata" yaml:"metadata"`
}

// Meta carries the outer facts about a solve that are not part of the
// solution itself.
type Meta struct {
	SolverUsed     string
	ProblemType    string
	ProcessingTime time.Duration
	Registry       *solver.RegistryInfo
	Error          string
	Extras         map[string]any
}

// SolveResponse formats a classification, solution and optional explanation.
// A nil solution yields an empty, fully shaped solution block.
func SolveResponse(cls problem.Classification, sol *solver.Solution, exp *explain.Explanation, meta Meta) Response {
	resp := Response{
		Success:        sol != nil && sol.Success && meta.Error == "",
		Error:          meta.Error,
		Solution:       formatSolution(sol),
		Classification: formatClassification(cls),
		Metadata:       formatMeta(meta),
	}
	if resp.Error == "" && sol != nil && !sol.Success {
		resp.Error = sol.Error
	}
	if exp != nil {
		resp.Explanation = &Explanation{
			Content:    exp.Content,
			Method:     exp.Method,
			Success:    exp.Success,
			TokensUsed: exp.TokensUsed,
			Model:      exp.Model,
			Error:      exp.Error,
		}
	}
	return resp
}

// FromResult formats a parser result.
func FromResult(res problem.Result, exp *explain.Explanation, extras map[string]any) Response {
	info := res.Registry
	meta := Meta{
		SolverUsed:     res.SolverUsed,
		ProblemType:    res.ProblemType,
		ProcessingTime: res.Elapsed,
		Extras:         extras,
	}
	if len(info.AvailableSolvers) > 0 {
		meta.Registry = &info
	}
	if !res.Success {
		meta.Error = res.Error
	}
	return SolveResponse(res.Classification, res.Solution, exp, meta)
}

func formatSolution(sol *solver.Solution) Solution {
	out := Solution{Steps: []Step{}, Metadata: map[string]any{}}
	if sol == nil {
		return out
	}
	out.Answer = sol.Answer
	out.Method = sol.Method
	out.Confidence = solver.Round(sol.Confidence, confidencePlaces)
	out.Verification = sol.Verification
	for i, st := range sol.Steps {
		conf := st.Confidence
		if conf == 0 {
			conf = 1.0
		}
		out.Steps = append(out.Steps, Step{
			StepNumber:  i + 1,
			Operation:   st.Operation,
			Description: st.Description,
			Expression:  st.Expression,
			LaTeX:       st.LaTeX,
			Confidence:  solver.Round(conf, confidencePlaces),
		})
	}
	for k, v := range sol.Metadata {
		out.Metadata[k] = v
	}
	return out
}

func formatClassification(cls problem.Classification) Classification {
	fallback := make([]string, len(cls.FallbackSubjects))
	copy(fallback, cls.FallbackSubjects)
	subject := cls.Subject
	if subject == "" {
		subject = "unknown"
	}
	return Classification{
		Subject:          subject,
		Confidence:       solver.Round(cls.Confidence, confidencePlaces),
		Method:           cls.Method,
		FallbackSubjects: fallback,
	}
}

func formatMeta(meta Meta) map[string]any {
	out := make(map[string]any, len(meta.Extras)+4)
	for k, v := range meta.Extras {
		out[k] = v
	}
	solverUsed := meta.SolverUsed
	if solverUsed == "" {
		solverUsed = "none"
	}
	out["solver_used"] = solverUsed
	out["processing_time_ms"] = solver.Round(float64(meta.ProcessingTime)/float64(time.Millisecond), confidencePlaces)
	if meta.ProblemType != "" {
		out["problem_type"] = meta.ProblemType
	}
	if meta.Registry != nil {
		out["registry_info"] = map[string]any{
			"available_solvers": append([]string{}, meta.Registry.AvailableSolvers...),
			"selected_solver":   meta.Registry.SelectedSolver,
			"solver_library":    meta.Registry.SolverLibrary,
		}
	}
	return out
}

// ErrorRecord describes a failed request.
type ErrorRecord struct {
	Message string `json:"message" yaml:"message"`
	Type    string `json:"type" yaml:"type"`
}

type ErrorBody struct {
	Success bool        `json:"success" yaml:"success"`
	Error   ErrorRecord `json:"error" yaml:"error"`
}

// ErrorResponse wraps a failure message, typing it by the stage it names.
func ErrorResponse(message string) ErrorBody {
	return ErrorBody{Error: ErrorRecord{Message: message, Type: ErrorType(message)}}
}

// ErrorType maps a pipeline error message to its error type.
func ErrorType(message string) string {
	switch {
	case strings.HasPrefix(message, "validation:"):
		return ValidationError
	case message == solver.NoSolverMessage:
		return NoSolverError
	case strings.Contains(message, "timed out after"):
		return TimeoutError
	case strings.HasPrefix(message, "Problem parsing failed"), strings.Contains(message, "Solver execution failed"):
		return InternalError
	default:
		return ProcessingError
	}
}

type Services struct {
	Solvers          []string          `json:"solvers" yaml:"solvers"`
	ExternalServices map[string]string `json:"external_services" yaml:"external_services"`
}

type Health struct {
	Success  bool     `json:"success" yaml:"success"`
	Status   string   `json:"status" yaml:"status"`
	Services Services `json:"services" yaml:"services"`
	Version  string   `json:"version" yaml:"version"`
}

// HealthResponse reports the registered solvers and the state of optional
// collaborators such as the explainer and history store.
func HealthResponse(solvers []string, external map[string]string, version string) Health {
	ext := make(map[string]string, len(external))
	for k, v := range external {
		ext[k] = v
	}
	return Health{
		Success: true,
		Status:  "healthy",
		Services: Services{
			Solvers:          append([]string{}, solvers...),
			ExternalServices: ext,
		},
		Version: version,
	}
}

type SolverDetail struct {
	Name            string   `json:"name" yaml:"name"`
	Capabilities    []string `json:"capabilities" yaml:"capabilities"`
	CapabilityCount int      `json:"capability_count" yaml:"capability_count"`
}

type Solvers struct {
	Success          bool                `json:"success" yaml:"success"`
	AvailableSolvers []string            `json:"available_solvers" yaml:"available_solvers"`
	Capabilities     map[string][]string `json:"capabilities" yaml:"capabilities"`
	SolverDetails    []SolverDetail      `json:"solver_details" yaml:"solver_details"`
}

// SolversResponse lists the registry in registration order.
func SolversResponse(r *solver.Registry) Solvers {
	names := r.RegisteredSolvers()
	caps := r.Capabilities()
	out := Solvers{
		Success:          true,
		AvailableSolvers: names,
		Capabilities:     make(map[string][]string, len(caps)),
		SolverDetails:    make([]SolverDetail, 0, len(names)),
	}
	for _, name := range names {
		c := append([]string{}, caps[name]...)
		out.Capabilities[name] = c
		out.SolverDetails = append(out.SolverDetails, SolverDetail{Name: name, Capabilities: c, CapabilityCount: len(c)})
	}
	return out
}
