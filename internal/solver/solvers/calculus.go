// SPDX-License-Identifier: Apache-2.0

package solvers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
	"github.com/mathkitproj/mathsolver-mcp/internal/symbolic"
)

var calculusSignals = signals{
	keywords: []string{
		"derivative", "differentiate", "integral", "integrate",
		"limit", "differential", "calculus", "d/dx", "∫", "lim",
	},
	symbols: []*regexp.Regexp{
		regexp.MustCompile(`d/d[a-z]`),
		regexp.MustCompile(`∫`),
		regexp.MustCompile(`∂`),
		regexp.MustCompile(`\blim\b`),
		regexp.MustCompile(`[a-z]\s*(?:→|->)`),
	},
	phrases: []*regexp.Regexp{
		regexp.MustCompile(`as\s+[a-z]\s+(?:approaches|tends\s+to)`),
	},
}

var (
	diffEquation   = regexp.MustCompile(`d([a-z])/d([a-z])\s*=|\b([a-z])'\s*=`)
	derivVariable  = regexp.MustCompile(`d/d([a-z])\b|d[a-z]/d([a-z])\b`)
	derivPrefix    = regexp.MustCompile(`(?i)^.*?(?:d/d[a-z]|d[a-z]/d[a-z]|derivative\s+of|differentiate)\s*(?:of\s+)?`)
	respectTo      = regexp.MustCompile(`(?i)\s*(?:with\s+respect\s+to|wrt)\s+([a-z])\b`)
	integralPrefix = regexp.MustCompile(`(?i)^.*?(?:∫|integral\s+of|integrate|antiderivative\s+of)\s*(?:of\s+)?`)
	differential   = regexp.MustCompile(`^(.*?)\s*\*?\s*d([a-z])$`)
	bounds         = regexp.MustCompile(`(?i)\s*from\s+(-?[\d.]+|-?pi|-?π)\s+to\s+(-?[\d.]+|-?pi|-?π)`)
	limitPoint     = regexp.MustCompile(`(?i)([a-z])\s*(?:->|→|approaches|tends\s+to|goes\s+to)\s*(-?\s*(?:∞|infinity|inf|oo)|[-+]?\d+\.?\d*|-?pi|-?π)`)
	limitNoise     = regexp.MustCompile(`(?i)\b(?:find|evaluate|compute|calculate|what\s+is|the|limit\s+of|limit|as|of)\b|\blim(?:_|\b)|_?\{\s*\}|\(\s*\)|,`)
	functionDef    = regexp.MustCompile(`^.*=\s*`)
	ordinalOrder   = map[string]int{"second": 2, "2nd": 2, "third": 3, "3rd": 3}
)

var trigFuncs = []string{"sin", "cos", "tan", "asin", "acos", "atan"}

// CalculusSolver differentiates, integrates, evaluates limits and solves
// first-order differential equations of separable form.
type CalculusSolver struct{}

func NewCalculusSolver() *CalculusSolver {
	return &CalculusSolver{}
}

func (s *CalculusSolver) Name() string {
	return "calculus"
}

func (s *CalculusSolver) CanSolve(problem, subjectHint string) bool {
	if solver.HintIs(subjectHint, "calculus", "derivative", "integral") {
		return true
	}
	lower := strings.ToLower(problem)
	return calculusSignals.keywordHits(lower) >= 1 ||
		calculusSignals.symbolHit(lower) ||
		calculusSignals.phraseHit(lower) ||
		strings.Contains(lower, "dy/dx")
}

func (s *CalculusSolver) Solve(ctx context.Context, problem string, _ solver.Options) *solver.Solution {
	lower := strings.ToLower(problem)
	switch {
	case diffEquation.MatchString(lower):
		return s.solveDifferentialEquation(problem)
	case containsAny(lower, "d/dx", "derivative", "differentiate", "dy/dx") || derivVariable.MatchString(lower):
		return s.solveDerivative(problem)
	case containsAny(lower, "∫", "integral", "integrate"):
		return s.solveIntegral(ctx, problem)
	case containsAny(lower, "lim", "limit", "as x approaches", "x→", "x->"):
		return s.solveLimit(problem)
	default:
		return solver.Failure("Unknown calculus problem type")
	}
}

func (s *CalculusSolver) Capabilities() []string {
	return []string{
		"derivatives",
		"integrals",
		"limits",
		"differential_equations",
		"power_rule",
		"chain_rule",
		"product_rule",
		"quotient_rule",
		"trigonometric_differentiation",
		"exponential_differentiation",
		"logarithmic_differentiation",
		"definite_integrals",
	}
}

// walk visits e and every subexpression.
func walk(e symbolic.Expr, visit func(symbolic.Expr)) {
	visit(e)
	switch x := e.(type) {
	case *symbolic.Add:
		for _, t := range x.Terms {
			walk(t, visit)
		}
	case *symbolic.Mul:
		for _, f := range x.Factors {
			walk(f, visit)
		}
	case *symbolic.Pow:
		walk(x.Base, visit)
		walk(x.Exp, visit)
	case *symbolic.Func:
		walk(x.Arg, visit)
	}
}

func hasFunc(e symbolic.Expr, names ...string) bool {
	found := false
	walk(e, func(n symbolic.Expr) {
		if f, ok := n.(*symbolic.Func); ok {
			for _, name := range names {
				if f.Name == name {
					found = true
				}
			}
		}
	})
	return found
}

func argCount(e symbolic.Expr) int {
	switch x := e.(type) {
	case *symbolic.Add:
		return len(x.Terms)
	case *symbolic.Mul:
		return len(x.Factors)
	case *symbolic.Pow:
		return 2
	case *symbolic.Func:
		return 1
	}
	return 0
}

func functionType(e symbolic.Expr, v string) string {
	switch {
	case hasFunc(e, trigFuncs...):
		return "trigonometric"
	case hasFunc(e, "exp"):
		return "exponential"
	case hasFunc(e, "log"):
		return "logarithmic"
	}
	if _, ok := e.(*symbolic.Pow); ok {
		return "power"
	}
	if symbolic.Degree(e, v) >= 0 {
		return "polynomial"
	}
	return "general"
}

func expressionComplexity(e symbolic.Expr) string {
	score := argCount(e)
	if hasFunc(e, "sin", "cos", "tan", "exp", "log") {
		score += 2
	}
	switch {
	case score <= 3:
		return "simple"
	case score <= 6:
		return "moderate"
	default:
		return "complex"
	}
}

// differentiationRules names the rules a derivative of e uses, judged from
// the shape of the expression.
func differentiationRules(e symbolic.Expr, v string) []string {
	var rules []string
	add := func(r string) {
		for _, have := range rules {
			if have == r {
				return
			}
		}
		rules = append(rules, r)
	}
	switch x := e.(type) {
	case *symbolic.Pow:
		add("power_rule")
	case *symbolic.Mul:
		varying := 0
		for _, f := range x.Factors {
			if symbolic.Contains(f, v) {
				varying++
			}
		}
		if varying > 1 {
			add("product_rule")
		}
	case *symbolic.Add:
		add("sum_rule")
	}
	walk(e, func(n symbolic.Expr) {
		switch x := n.(type) {
		case *symbolic.Pow:
			if symbolic.Contains(x.Base, v) {
				add("power_rule")
				if _, bare := x.Base.(*symbolic.Sym); !bare {
					add("chain_rule")
				}
				if c, ok := symbolic.IsNumber(x.Exp); ok && c.Sign() < 0 {
					add("quotient_rule")
				}
			}
		case *symbolic.Func:
			if _, bare := x.Arg.(*symbolic.Sym); !bare && symbolic.Contains(x.Arg, v) {
				add("chain_rule")
			}
		}
	})
	if hasFunc(e, trigFuncs...) {
		add("trigonometric_rule")
	}
	if hasFunc(e, "exp") {
		add("exponential_rule")
	}
	if hasFunc(e, "log") {
		add("logarithmic_rule")
	}
	if len(rules) == 0 {
		return []string{"basic_rule"}
	}
	return rules
}

func integrationMethod(e symbolic.Expr) string {
	if _, ok := e.(*symbolic.Pow); ok {
		return "power_rule"
	}
	switch {
	case hasFunc(e, "sin", "cos", "tan"):
		return "trigonometric"
	case hasFunc(e, "exp"):
		return "exponential"
	case hasFunc(e, "log"):
		return "logarithmic"
	}
	if _, ok := e.(*symbolic.Sym); ok {
		return "power_rule"
	}
	return "basic"
}

// pickVariable prefers the variable named by the notation, then x, then
// the first free symbol.
func pickVariable(named string, e symbolic.Expr) string {
	if named != "" {
		return named
	}
	vars := symbolic.FreeSymbols(e)
	if len(vars) == 0 {
		return "x"
	}
	return solveFor(vars)
}

func cleanBody(body string) string {
	return strings.TrimSpace(trailingPunct.ReplaceAllString(strings.TrimSpace(body), ""))
}

func derivativeOrder(lower string) int {
	for word, n := range ordinalOrder {
		if strings.Contains(lower, word+" derivative") {
			return n
		}
	}
	return 1
}

func (s *CalculusSolver) solveDerivative(problem string) *solver.Solution {
	lower := strings.ToLower(problem)
	named := ""
	if m := derivVariable.FindStringSubmatch(lower); m != nil {
		named = m[1] + m[2]
	}
	body := derivPrefix.ReplaceAllString(problem, "")
	if m := respectTo.FindStringSubmatch(body); m != nil {
		named = strings.ToLower(m[1])
		body = respectTo.ReplaceAllString(body, "")
	}
	body = functionDef.ReplaceAllString(cleanBody(body), "")

	f, err := symbolic.Parse(body)
	if err != nil {
		return solver.Failure("Derivative solving failed: %v", err)
	}
	f = symbolic.Simplify(f)
	v := pickVariable(named, f)
	order := derivativeOrder(lower)

	var t solver.Trace
	t.Add("parse", "Parse the function to differentiate", f.String(), f.LaTeX())
	rules := differentiationRules(f, v)
	t.AddWithConfidence("identify_rules", "Identify applicable rules: "+strings.Join(rules, ", "), "Rules: "+strings.Join(rules, ", "), "", 0.9)

	derivative := f
	notation := "d/d" + v
	for i := 1; i <= order; i++ {
		prev := derivative
		derivative = symbolic.Diff(derivative, v)
		label := "Apply differentiation"
		if order > 1 {
			label = fmt.Sprintf("Apply differentiation (order %d)", i)
		}
		t.Add("differentiate", label, fmt.Sprintf("%s(%s) = %s", notation, prev, derivative), derivative.LaTeX())
	}
	if expanded := symbolic.Expand(derivative); expanded.String() != derivative.String() && len(expanded.String()) < len(derivative.String()) {
		t.Add("simplify", "Simplify the derivative", expanded.String(), expanded.LaTeX())
		derivative = expanded
	}

	answer := derivative.String()
	return t.Done(answer, "derivative_calculation", 0.95, fmt.Sprintf("%s(%s) = %s", notation, f, answer),
		map[string]any{
			"rules_applied": rules,
			"function_type": functionType(f, v),
			"complexity":    expressionComplexity(f),
			"variable":      v,
			"order":         order,
		})
}

func parseBound(text string) (symbolic.Expr, error) {
	return symbolic.Parse(strings.ReplaceAll(text, " ", ""))
}

func (s *CalculusSolver) solveIntegral(ctx context.Context, problem string) *solver.Solution {
	body := integralPrefix.ReplaceAllString(problem, "")
	named := ""
	if m := respectTo.FindStringSubmatch(body); m != nil {
		named = strings.ToLower(m[1])
		body = respectTo.ReplaceAllString(body, "")
	}
	var lo, hi symbolic.Expr
	if m := bounds.FindStringSubmatch(body); m != nil {
		var err error
		if lo, err = parseBound(m[1]); err != nil {
			return solver.Failure("Integral solving failed: lower bound: %v", err)
		}
		if hi, err = parseBound(m[2]); err != nil {
			return solver.Failure("Integral solving failed: upper bound: %v", err)
		}
		body = bounds.ReplaceAllString(body, "")
	}
	body = cleanBody(body)
	if m := differential.FindStringSubmatch(body); m != nil && strings.TrimSpace(m[1]) != "" {
		body, named = m[1], m[2]
	}

	integrand, err := symbolic.Parse(body)
	if err != nil {
		return solver.Failure("Integral solving failed: %v", err)
	}
	integrand = symbolic.Simplify(integrand)
	v := pickVariable(named, integrand)
	method := integrationMethod(integrand)

	var t solver.Trace
	t.Add("parse", "Parse the integrand", integrand.String(), integrand.LaTeX())
	t.AddWithConfidence("identify_method", "Identify integration method: "+method, "Method: "+method, "", 0.9)

	anti, closed := symbolic.Integrate(integrand, v)
	t.Add("integrate", fmt.Sprintf("Apply %s integration", method),
		fmt.Sprintf("∫(%s) d%s = %s", integrand, v, anti), anti.LaTeX())

	metadata := map[string]any{
		"integration_method": method,
		"integrand_type":     functionType(integrand, v),
		"variable":           v,
	}

	if lo != nil {
		return s.definite(ctx, &t, integrand, anti, closed, v, lo, hi, method, metadata)
	}

	answer := anti.String()
	if closed {
		answer += " + C"
		t.Add("add_constant", "Add constant of integration", answer, anti.LaTeX()+" + C")
	}
	metadata["has_constant"] = closed
	return t.Done(answer, "integration_"+method, 0.9, fmt.Sprintf("∫(%s) d%s = %s", integrand, v, answer), metadata)
}

// simpsonIntervals is the panel count for numeric definite integrals.
const simpsonIntervals = 1000

func (s *CalculusSolver) definite(ctx context.Context, t *solver.Trace, integrand, anti symbolic.Expr, closed bool, v string, lo, hi symbolic.Expr, method string, metadata map[string]any) *solver.Solution {
	metadata["lower_bound"] = lo.String()
	metadata["upper_bound"] = hi.String()
	metadata["has_constant"] = false

	if closed {
		upper := symbolic.Subs(anti, v, hi)
		lower := symbolic.Subs(anti, v, lo)
		value := symbolic.Simplify(symbolic.Sub(upper, lower))
		t.Add("evaluate_bounds",
			fmt.Sprintf("Evaluate F(%s) - F(%s)", hi, lo),
			fmt.Sprintf("%s - (%s) = %s", upper, lower, value), value.LaTeX())
		answer := value.String()
		if _, exact := symbolic.IsNumber(value); !exact {
			if f, err := symbolic.Eval(value, nil); err == nil {
				answer = fmt.Sprintf("%s ≈ %s", value, symbolic.FormatFloat(f))
			}
		}
		return t.Done(answer, "integration_"+method, 0.9,
			fmt.Sprintf("∫[%s, %s] (%s) d%s = %s", lo, hi, integrand, v, answer), metadata)
	}

	a, errA := symbolic.Eval(lo, nil)
	b, errB := symbolic.Eval(hi, nil)
	if errA != nil || errB != nil {
		return solver.Failure("Integral solving failed: bounds must be numeric")
	}
	h := (b - a) / simpsonIntervals
	sum := 0.0
	for i := 0; i <= simpsonIntervals; i++ {
		if i%100 == 0 && ctx.Err() != nil {
			return solver.Failure("Integral solving failed: %v", ctx.Err())
		}
		y, err := symbolic.EvalAt(integrand, v, a+float64(i)*h)
		if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
			return solver.Failure("Integral solving failed: integrand is not finite on [%s, %s]", lo, hi)
		}
		switch {
		case i == 0 || i == simpsonIntervals:
			sum += y
		case i%2 == 1:
			sum += 4 * y
		default:
			sum += 2 * y
		}
	}
	value := sum * h / 3
	answer := symbolic.FormatFloat(value)
	t.AddWithConfidence("numeric_integration",
		fmt.Sprintf("No closed form found; apply Simpson's rule with %d intervals", simpsonIntervals),
		fmt.Sprintf("∫[%s, %s] ≈ %s", lo, hi, answer), "", 0.8)
	return t.Done(answer, "integration_numeric", 0.8,
		fmt.Sprintf("∫[%s, %s] (%s) d%s ≈ %s", lo, hi, integrand, v, answer), metadata)
}

// parseLimit returns the expression, variable and point. The point
// defaults to 0 when the text names none; the bool reports that.
func parseLimit(problem string) (symbolic.Expr, string, symbolic.Expr, bool, error) {
	v := "x"
	var point symbolic.Expr = symbolic.Int(0)
	defaulted := true
	body := problem
	if m := limitPoint.FindStringSubmatch(body); m != nil {
		v = strings.ToLower(m[1])
		p, err := parsePoint(m[2])
		if err != nil {
			return nil, "", nil, false, err
		}
		point, defaulted = p, false
		body = strings.Replace(body, m[0], " ", 1)
	}
	body = limitNoise.ReplaceAllString(body, " ")
	body = cleanBody(body)
	expr, err := symbolic.Parse(body)
	if err != nil {
		return nil, "", nil, false, err
	}
	return expr, v, point, defaulted, nil
}

func parsePoint(text string) (symbolic.Expr, error) {
	t := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), " ", "")
	neg := strings.HasPrefix(t, "-")
	switch strings.TrimPrefix(t, "-") {
	case "∞", "infinity", "inf", "oo":
		if neg {
			return symbolic.Neg(symbolic.Infinity), nil
		}
		return symbolic.Infinity, nil
	}
	return symbolic.Parse(t)
}

func pointString(p symbolic.Expr) string {
	return symbolic.LimitResult{Value: symbolic.Simplify(p)}.String()
}

func (s *CalculusSolver) solveLimit(problem string) *solver.Solution {
	expr, v, point, defaulted, err := parseLimit(problem)
	if err != nil {
		return solver.Failure("Limit solving failed: %v", err)
	}
	expr = symbolic.Simplify(expr)
	ps := pointString(point)

	var t solver.Trace
	desc := fmt.Sprintf("Parse the limit: lim(%s) as %s → %s", expr, v, ps)
	if defaulted {
		desc += " (no limit point given; assuming " + v + " → 0)"
	}
	t.Add("parse", desc, fmt.Sprintf("lim(%s) as %s → %s", expr, v, ps), fmt.Sprintf(`\lim_{%s \to %s} %s`, v, symbolic.Simplify(point).LaTeX(), expr.LaTeX()))

	form := symbolic.IndeterminateForm(expr, v, point)
	if form != "" {
		t.AddWithConfidence("identify_form", "Identify indeterminate form: "+form, "Form: "+form, "", 0.9)
	}

	res, err := symbolic.Limit(expr, v, point)
	if err != nil {
		if errors.Is(err, symbolic.ErrLimitUndefined) {
			return solver.Failure("Limit solving failed: the limit of %s as %s → %s does not exist", expr, v, ps)
		}
		return solver.Failure("Limit solving failed: %v", err)
	}
	answer := res.String()
	t.Add("evaluate_limit", fmt.Sprintf("Evaluate limit as %s → %s using %s", v, ps, strings.ReplaceAll(res.Method, "_", " ")),
		fmt.Sprintf("lim(%s) = %s", expr, answer), res.LaTeX())

	var formMeta any
	if form != "" {
		formMeta = form
	}
	return t.Done(answer, "limit_evaluation", 0.9, fmt.Sprintf("lim(%s) as %s → %s = %s", expr, v, ps, answer),
		map[string]any{
			"indeterminate_form": formMeta,
			"limit_point":        ps,
			"variable":           v,
			"evaluation_method":  res.Method,
			"point_defaulted":    defaulted,
		})
}

// solveDifferentialEquation handles dy/dx = a*y + b with constant a, b and
// dy/dx = f(x).
func (s *CalculusSolver) solveDifferentialEquation(problem string) *solver.Solution {
	lower := strings.ToLower(problem)
	m := diffEquation.FindStringSubmatchIndex(lower)
	dep, indep := "y", "x"
	if m[2] >= 0 {
		dep, indep = lower[m[2]:m[3]], lower[m[4]:m[5]]
	} else if m[6] >= 0 {
		dep = lower[m[6]:m[7]]
	}
	rhsText := cleanBody(problem[m[1]:])
	rhs, err := symbolic.Parse(rhsText)
	if err != nil {
		return solver.Failure("Differential equation solving failed: %v", err)
	}
	rhs = symbolic.Simplify(rhs)
	lhs := fmt.Sprintf("d%s/d%s", dep, indep)
	c := symbolic.Var("C")

	var t solver.Trace
	t.Add("parse", "Parse the differential equation", fmt.Sprintf("%s = %s", lhs, rhs), fmt.Sprintf(`\frac{d%s}{d%s} = %s`, dep, indep, rhs.LaTeX()))

	var (
		kind     string
		solution symbolic.Expr
	)
	switch {
	case !symbolic.Contains(rhs, dep):
		kind = "direct_integration"
		t.AddWithConfidence("identify_type", "Identify equation type: "+kind, "Type: "+kind, "", 0.9)
		anti, ok := symbolic.Integrate(rhs, indep)
		if !ok {
			return solver.Failure("Differential equation solving failed: no closed form for ∫(%s) d%s", rhs, indep)
		}
		t.Add("integrate", fmt.Sprintf("Integrate both sides with respect to %s", indep), fmt.Sprintf("%s = ∫(%s) d%s", dep, rhs, indep), anti.LaTeX())
		solution = symbolic.Simplify(symbolic.Sum(anti, c))
	default:
		coeffs, ok := symbolic.PolyCoeffs(rhs, dep)
		if !ok || len(coeffs) != 2 || symbolic.Contains(rhs, indep) {
			return solver.Failure("Differential equation solving failed: unsupported form %s = %s", lhs, rhs)
		}
		a, b := symbolic.Rat(coeffs[1]), symbolic.Rat(coeffs[0])
		if a.Sign() == 0 {
			return solver.Failure("Differential equation solving failed: unsupported form %s = %s", lhs, rhs)
		}
		kind = "exponential_growth"
		if a.Sign() < 0 {
			kind = "exponential_decay"
		}
		if b.Sign() != 0 {
			kind = "linear_first_order"
		}
		t.AddWithConfidence("identify_type", "Identify equation type: "+kind, "Type: "+kind, "", 0.9)
		t.Add("separate", "Separate variables", fmt.Sprintf("d%s/(%s) = d%s", dep, rhs, indep), "")
		growth := symbolic.Call("exp", symbolic.Product(a, symbolic.Var(indep)))
		solution = symbolic.Simplify(symbolic.Sub(symbolic.Product(c, growth), symbolic.Div(b, a)))
	}

	eq := fmt.Sprintf("%s = %s", dep, solution)
	t.Add("solve", "Solve the differential equation", eq, fmt.Sprintf("%s = %s", dep, solution.LaTeX()))

	check := symbolic.Simplify(symbolic.Sub(symbolic.Diff(solution, indep), symbolic.Subs(rhs, dep, solution)))
	verification := "✓ " + eq + " satisfies the equation"
	if n, ok := symbolic.IsNumber(check); !ok || n.Sign() != 0 {
		verification = "✗ substitution left residual " + check.String()
	}
	t.AddWithConfidence("verify", "Substitute the solution back into the equation", verification, "", 0.95)

	return t.Done(eq, "differential_equation_"+kind, 0.85, verification,
		map[string]any{
			"equation_type":        kind,
			"order":                1,
			"dependent_variable":   dep,
			"independent_variable": indep,
			"general_solution":     eq,
		})
}
