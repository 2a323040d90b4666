// SPDX-License-Identifier: Apache-2.0

package solvers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
	"github.com/mathkitproj/mathsolver-mcp/internal/symbolic"
)

var algebraSignals = signals{
	keywords: []string{
		"solve", "equation", "simplify", "factor", "expand",
		"linear", "quadratic", "polynomial", "algebraic",
		"variable", "unknown", "x=", "y=", "z=",
	},
	symbols: []*regexp.Regexp{
		regexp.MustCompile(`(?:^|[^a-zA-Z])[xyz](?:$|[^a-zA-Z])`),
	},
}

var algebraOps = regexp.MustCompile(`[+\-*/^]`)

// verifyTolerance is the residual below which a substituted root counts
// as correct.
const verifyTolerance = 1e-10

// AlgebraSolver solves univariate equations and simplifies expressions.
type AlgebraSolver struct{}

func NewAlgebraSolver() *AlgebraSolver {
	return &AlgebraSolver{}
}

func (s *AlgebraSolver) Name() string {
	return "algebra"
}

func (s *AlgebraSolver) CanSolve(problem, subjectHint string) bool {
	if solver.HintIs(subjectHint, "algebra", "algebraic") {
		return true
	}
	lower := strings.ToLower(problem)
	if algebraSignals.keywordHits(lower) >= 1 {
		return true
	}
	hasVars := algebraSignals.symbolHit(problem)
	return hasVars && (strings.Contains(problem, "=") || algebraOps.MatchString(problem))
}

func (s *AlgebraSolver) Solve(_ context.Context, problem string, _ solver.Options) *solver.Solution {
	body := stripInstruction(problem)
	if strings.Contains(body, "=") {
		return s.solveEquation(body)
	}
	return s.simplifyExpression(problem, body)
}

func (s *AlgebraSolver) Capabilities() []string {
	return []string{
		"linear_equations",
		"quadratic_equations",
		"polynomial_equations",
		"expression_simplification",
		"factoring",
		"expansion",
		"collecting_like_terms",
		"equation_verification",
	}
}

func equationType(degree int) string {
	switch {
	case degree == 1:
		return "linear"
	case degree == 2:
		return "quadratic"
	case degree == 3:
		return "cubic"
	case degree > 3:
		return fmt.Sprintf("polynomial_degree_%d", degree)
	default:
		return "algebraic"
	}
}

// solveFor picks x when present, otherwise the first free symbol.
func solveFor(vars []string) string {
	for _, v := range vars {
		if v == "x" {
			return v
		}
	}
	return vars[0]
}

func (s *AlgebraSolver) solveEquation(body string) *solver.Solution {
	eq, err := symbolic.ParseEquation(body)
	if err != nil {
		return solver.Failure("Equation solving failed: %v", err)
	}

	var t solver.Trace
	t.Add("parse", "Parse the equation", eq.String(), eq.LaTeX())

	residual := eq.Residual()
	vars := symbolic.FreeSymbols(residual)
	if len(vars) == 0 {
		vars = symbolic.FreeSymbols(symbolic.Sum(eq.LHS, eq.RHS))
	}
	if len(vars) == 0 {
		return solver.Failure("Equation solving failed: no variables to solve for")
	}
	v := solveFor(vars)

	degree := symbolic.Degree(residual, v)
	if degree < 0 {
		degree = 0
	}
	kind := equationType(degree)
	t.AddWithConfidence("identify", "Identify equation type: "+kind, "Type: "+kind, "", 0.9)

	standard := symbolic.Equation{LHS: symbolic.Collect(residual, v), RHS: symbolic.Int(0)}
	if standard.String() != eq.String() {
		t.Add("rearrange", "Rearrange equation to standard form", standard.String(), standard.LaTeX())
	}

	metadata := map[string]any{
		"equation_type":  kind,
		"variable_count": len(symbolic.FreeSymbols(symbolic.Sum(eq.LHS, eq.RHS))),
		"degree":         degree,
	}

	roots, err := symbolic.Solve(eq, v)
	switch {
	case errors.Is(err, symbolic.ErrIdentity):
		answer := "All real numbers"
		t.Add("solve", "Solve for "+v, v+" ∈ ℝ", v+` \in \mathbb{R}`)
		t.AddWithConfidence("verify", "Verify the solution", "The equation reduces to 0 = 0", "", 0.95)
		return t.Done(answer, "identity_solving", 0.95, "Equation holds for every "+v, metadata)
	case err != nil:
		return solver.Failure("Equation solving failed: %v", err)
	}

	answers := make([]string, len(roots))
	latex := make([]string, len(roots))
	for i, r := range roots {
		answers[i] = r.String()
		latex[i] = r.LaTeX()
	}
	if len(roots) == 1 {
		t.Add("solve", "Solve for "+v, v+" = "+answers[0], v+" = "+latex[0])
	} else {
		t.Add("solve", "Solve for "+v, v+" = ["+strings.Join(answers, ", ")+"]", v+` \in \left\{`+strings.Join(latex, ", ")+`\right\}`)
	}

	verification := verifyRoots(eq, v, roots)
	t.AddWithConfidence("verify", "Verify the solution", verification, "", 0.95)

	metadata["solutions"] = answers
	return t.Done(strings.Join(answers, ", "), kind+"_solving", 0.95, verification, metadata)
}

func verifyRoots(eq symbolic.Equation, v string, roots []symbolic.Root) string {
	results := make([]string, len(roots))
	for i, r := range roots {
		residual, err := symbolic.Check(eq, v, r)
		switch {
		case err != nil:
			results[i] = fmt.Sprintf("? %s could not be verified", r)
		case residual < verifyTolerance:
			results[i] = fmt.Sprintf("✓ %s is correct", r)
		default:
			results[i] = fmt.Sprintf("✗ %s verification failed", r)
		}
	}
	return strings.Join(results, "; ")
}

func (s *AlgebraSolver) simplifyExpression(problem, body string) *solver.Solution {
	expr, err := symbolic.Parse(body)
	if err != nil {
		return solver.Failure("Expression simplification failed: %v", err)
	}

	var t solver.Trace
	t.Add("parse", "Parse the expression", expr.String(), expr.LaTeX())

	current := expr
	if expanded := symbolic.Expand(current); expanded.String() != current.String() {
		t.Add("expand", "Expand the expression", expanded.String(), expanded.LaTeX())
		current = expanded
	}
	if vars := symbolic.FreeSymbols(current); len(vars) == 1 {
		if collected := symbolic.Collect(current, vars[0]); collected.String() != current.String() {
			t.Add("collect", "Collect like terms", collected.String(), collected.LaTeX())
			current = collected
		}
	}
	if factored := symbolic.Factor(current); factored.String() != current.String() && len(factored.String()) < len(current.String()) {
		t.Add("factor", "Factor the expression", factored.String(), factored.LaTeX())
		current = factored
	}
	if simplified := symbolic.Simplify(current); simplified.String() != current.String() && len(simplified.String()) <= len(current.String()) {
		t.Add("simplify", "Simplify the expression", simplified.String(), simplified.LaTeX())
		current = simplified
	}

	answer := current.String()
	original := len(problem)
	return t.Done(answer, "expression_simplification", 0.9, "Expression simplified successfully",
		map[string]any{
			"original_length":   original,
			"simplified_length": len(answer),
			"reduction_ratio":   solver.Round(float64(len(answer))/float64(original), 3),
		})
}
