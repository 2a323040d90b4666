// SPDX-License-Identifier: Apache-2.0

// Package explain turns a solved problem into a natural-language
// explanation. It only reads the answer, method and steps of a solution.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
)

const (
	Beginner     = "beginner"
	Intermediate = "intermediate"
	Advanced     = "advanced"
)

var ErrNoAnswer = errors.New("explain: solution has no answer")

type Request struct {
	Problem    string
	Answer     string
	Method     string
	Steps      []solver.Step
	Subject    string
	Difficulty string
}

type Explanation struct {
	Content    string `json:"content" yaml:"content"`
	Method     string `json:"method" yaml:"method"`
	Success    bool   `json:"success" yaml:"success"`
	TokensUsed int    `json:"tokens_used" yaml:"tokens_used"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Explainer produces explanations. Provider failures come back as an
// Explanation with Success=false; the error return is reserved for
// requests that cannot be explained at all.
type Explainer interface {
	Name() string
	Explain(ctx context.Context, req Request) (Explanation, error)
}

// FromSolution builds a Request from a solved problem.
func FromSolution(problem string, sol *solver.Solution, subject, difficulty string) Request {
	req := Request{Problem: problem, Subject: subject, Difficulty: difficulty}
	if sol != nil {
		req.Answer = sol.Answer
		req.Method = sol.Method
		req.Steps = sol.Steps
	}
	return req
}

// Difficulty normalizes a difficulty level, defaulting to intermediate.
func Difficulty(level string) string {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case Beginner, Intermediate, Advanced:
		return l
	default:
		return Intermediate
	}
}

var subjectContext = map[string]string{
	"algebra":      "focus on equations, variables, and algebraic manipulation",
	"geometry":     "focus on shapes, angles, areas, and geometric relationships",
	"calculus":     "focus on derivatives, integrals, and limits",
	"statistics":   "focus on data analysis, probability, and statistical methods",
	"trigonometry": "focus on angles, triangles, and trigonometric functions",
	"arithmetic":   "focus on basic operations and number properties",
}

var difficultyContext = map[string]string{
	Beginner:     "provide clear, simple explanations suitable for learning",
	Intermediate: "provide detailed explanations with mathematical reasoning",
	Advanced:     "provide comprehensive analysis with advanced mathematical concepts",
}

const systemInstruction = `You are an expert mathematics tutor. Explain solved problems so a student
understands why each step is taken and which rule it applies. Use language that
fits the requested difficulty level. Keep the explanation direct, like a
textbook example.`

// Prompt renders the user prompt sent to a language model.
func Prompt(req Request) string {
	difficulty := Difficulty(req.Difficulty)
	subject := req.Subject
	if subject == "" {
		subject = "maths"
	}
	sctx, ok := subjectContext[subject]
	if !ok {
		sctx = "general mathematics"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PROBLEM: %s\n\n", req.Problem)
	b.WriteString("SOLUTION PROVIDED:\n")
	fmt.Fprintf(&b, "- Answer: %s\n", req.Answer)
	fmt.Fprintf(&b, "- Method Used: %s\n", req.Method)
	b.WriteString("- Steps Taken:\n")
	for i, st := range req.Steps {
		fmt.Fprintf(&b, "Step %d: %s - %s\n", i+1, st.Description, st.Expression)
	}
	b.WriteString("\nCONTEXT:\n")
	fmt.Fprintf(&b, "- Subject Area: %s (%s)\n", subject, sctx)
	fmt.Fprintf(&b, "- Difficulty Level: %s (%s)\n\n", difficulty, difficultyContext[difficulty])
	b.WriteString("FORMAT YOUR RESPONSE AS:\n**Solution process**\n[Brief explanation of the method used]\n\n")
	b.WriteString("**Step-by-Step Explanation:**\n[Show each step with clear reasoning]\n\n**Answer**\n[Final result]\n")
	return b.String()
}

// estimateTokens approximates a token count at four characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}
