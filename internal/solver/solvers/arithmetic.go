// SPDX-License-Identifier: Apache-2.0

package solvers

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strings"

	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
	"github.com/mathkitproj/mathsolver-mcp/internal/symbolic"
)

var arithmeticSignals = signals{
	keywords: []string{
		"add", "subtract", "multiply", "divide", "sum", "difference",
		"product", "quotient", "plus", "minus", "times", "divided by",
		"arithmetic", "basic", "simple", "calculate", "compute",
	},
	symbols: []*regexp.Regexp{
		regexp.MustCompile(`\d+/\d+`),
		regexp.MustCompile(`%`),
	},
	phrases: []*regexp.Regexp{
		regexp.MustCompile(`\bper\s?cent`),
	},
}

var (
	fractionToken = regexp.MustCompile(`\d+/\d+`)
	arithmeticRun = regexp.MustCompile(`[\d.\s+\-*/^()×÷]+`)
	percentNumber = regexp.MustCompile(`(\d+\.?\d*)\s*(?:%|percent)`)
	ofNumber      = regexp.MustCompile(`\bof\s+(\d+\.?\d*)`)
	letters       = regexp.MustCompile(`[a-zA-Z]`)
)

// Word operators are rewritten longest first so "divided by" wins over "by".
var operatorWords = []struct{ word, symbol string }{
	{"multiplied by", "*"},
	{"divided by", "/"},
	{"plus", "+"},
	{"minus", "-"},
	{"times", "*"},
	{"×", "*"},
	{"÷", "/"},
}

var percentFormulas = map[string]string{
	"find_percentage":  "Percentage = (Part / Whole) × 100",
	"find_part":        "Part = (Percentage / 100) × Whole",
	"basic_percentage": "Result = (Percentage / 100) × Number",
}

// Checked in order; the first list with a hit decides the operation.
var wordOperations = []struct {
	op    string
	words []string
}{
	{"addition", []string{"add", "plus", "sum", "total", "altogether", "combined"}},
	{"subtraction", []string{"subtract", "minus", "difference", "left", "remaining"}},
	{"multiplication", []string{"multiply", "times", "product", "each", "per"}},
	{"division", []string{"divide", "split", "share", "equally"}},
}

// ArithmeticSolver evaluates numeric expressions, percentages, exact
// fractions and one-step word problems.
type ArithmeticSolver struct{}

func NewArithmeticSolver() *ArithmeticSolver {
	return &ArithmeticSolver{}
}

func (s *ArithmeticSolver) Name() string {
	return "arithmetic"
}

func (s *ArithmeticSolver) CanSolve(problem, subjectHint string) bool {
	if solver.HintIs(subjectHint, "arithmetic", "basic") {
		return true
	}
	lower := strings.ToLower(problem)
	if arithmeticSignals.keywordHits(lower) >= 1 {
		return true
	}
	if arithmeticSignals.symbolHit(problem) || arithmeticSignals.phraseHit(lower) {
		return true
	}
	hasDigits := strings.IndexAny(problem, "0123456789") >= 0
	hasOps := containsAny(problem, "+", "-", "*", "/", "×", "÷") || containsAny(lower, "plus", "minus", "times", "divided by")
	return hasDigits && hasOps && len(strings.Fields(problem)) <= 10
}

func (s *ArithmeticSolver) Solve(_ context.Context, problem string, _ solver.Options) *solver.Solution {
	lower := strings.ToLower(problem)
	switch {
	case containsAny(lower, "%", "percent"):
		return s.solvePercentage(problem)
	case isFractionProblem(problem):
		return s.solveFraction(problem)
	case containsAny(lower, "has", "have", "total", "altogether", "left", "remaining", "more than", "less than"):
		return s.solveWordProblem(problem)
	default:
		return s.solveExpression(problem)
	}
}

func (s *ArithmeticSolver) Capabilities() []string {
	return []string{
		"basic_arithmetic",
		"order_of_operations",
		"percentage_calculations",
		"fraction_operations",
		"word_problems",
		"addition",
		"subtraction",
		"multiplication",
		"division",
		"pemdas",
		"decimal_arithmetic",
		"integer_arithmetic",
	}
}

// isFractionProblem accepts explicit fraction vocabulary, or a/b notation
// where at most one operator remains once the fractions are taken out.
func isFractionProblem(problem string) bool {
	lower := strings.ToLower(problem)
	if containsAny(lower, "fraction", "numerator", "denominator") {
		return true
	}
	if !fractionToken.MatchString(problem) {
		return false
	}
	rest := fractionToken.ReplaceAllString(problem, " ")
	if letters.MatchString(stripInstruction(rest)) || strings.ContainsAny(rest, "()^") {
		return false
	}
	ops := 0
	for _, r := range rest {
		if strings.ContainsRune("+-*/×÷", r) {
			ops++
		}
	}
	return ops <= 1
}

func normalizeExpression(problem string) string {
	expr := strings.ToLower(stripInstruction(problem))
	for _, w := range operatorWords {
		expr = strings.ReplaceAll(expr, w.word, w.symbol)
	}
	// Keep the longest purely numeric run so surrounding prose is ignored.
	best := ""
	for _, m := range arithmeticRun.FindAllString(expr, -1) {
		m = strings.TrimSpace(m)
		if len(m) > len(best) && strings.IndexAny(m, "0123456789") >= 0 {
			best = m
		}
	}
	if best == "" {
		return strings.TrimSpace(expr)
	}
	return best
}

func (s *ArithmeticSolver) solveExpression(problem string) *solver.Solution {
	expression := normalizeExpression(problem)
	parsed, err := symbolic.Parse(expression)
	if err != nil {
		return solver.Failure("Basic arithmetic failed: %v", err)
	}
	if vars := symbolic.FreeSymbols(parsed); len(vars) > 0 {
		return solver.Failure("Basic arithmetic failed: unexpected variables %s", strings.Join(vars, ", "))
	}

	var t solver.Trace
	t.AddWithConfidence("parse", "Parse the expression: "+expression, "Expression: "+expression, parsed.LaTeX(), 0.95)

	if strings.Contains(expression, "(") {
		t.AddWithConfidence("parentheses", "Evaluate expressions in parentheses first", "PEMDAS: P (Parentheses)", "", 0.95)
	}
	if containsAny(expression, "**", "^") {
		t.AddWithConfidence("exponents", "Evaluate exponents", "PEMDAS: E (Exponents)", "", 0.95)
	}
	if containsAny(strings.ReplaceAll(expression, "**", ""), "*", "/") {
		t.AddWithConfidence("multiplication_division", "Evaluate multiplication and division from left to right", "PEMDAS: MD (Multiplication, Division)", "", 0.95)
	}
	if containsAny(expression, "+", "-") {
		t.AddWithConfidence("addition_subtraction", "Evaluate addition and subtraction from left to right", "PEMDAS: AS (Addition, Subtraction)", "", 0.95)
	}

	result, err := renderValue(symbolic.Simplify(parsed))
	if err != nil {
		return solver.Failure("Basic arithmetic failed: %v", err)
	}
	t.AddWithConfidence("final_result", fmt.Sprintf("Final calculation: %s = %s", expression, result), "Result = "+result, "", 0.95)

	ops := countOperations(expression)
	return t.Done(result, "arithmetic_evaluation", 0.95,
		fmt.Sprintf("Expression evaluation: %s = %s", expression, result),
		map[string]any{
			"expression":       expression,
			"operations_count": ops,
			"complexity":       operationComplexity(ops),
		})
}

// renderValue prints exact integers as integers and everything else as a
// decimal.
func renderValue(e symbolic.Expr) (string, error) {
	if n, ok := symbolic.IsNumber(e); ok && n.IsInt() {
		return n.String(), nil
	}
	f, err := symbolic.Eval(e, nil)
	if err != nil {
		return "", err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", fmt.Errorf("division by zero")
	}
	return solver.FormatDecimal(f), nil
}

func countOperations(expression string) int {
	n := 0
	for _, op := range []string{"+", "-", "*", "/", "**", "^"} {
		if strings.Contains(expression, op) {
			n++
		}
	}
	return n
}

func operationComplexity(ops int) string {
	switch {
	case ops <= 1:
		return "simple"
	case ops <= 3:
		return "moderate"
	default:
		return "complex"
	}
}

func percentageType(lower string) string {
	switch {
	case containsAny(lower, "what percent", "what percentage"):
		return "find_percentage"
	case strings.Contains(lower, "percent of"):
		return "find_part"
	default:
		return "basic_percentage"
	}
}

// percentageValues assigns roles to the first two numbers. The number after
// "of" is the whole and a number tagged with % or "percent" is the
// percentage; anything left takes the remaining role in textual order.
func percentageValues(kind, text string) (map[string]float64, error) {
	nums := solver.ExtractNumbers(text, false)
	if len(nums) == 0 {
		return nil, fmt.Errorf("no numbers found")
	}
	if len(nums) > 2 {
		nums = nums[:2]
	}
	first, second := "percentage", "whole"
	if kind == "find_percentage" {
		first = "part"
	}
	if kind == "basic_percentage" {
		second = "number"
	}

	values := map[string]float64{}
	used := make([]bool, len(nums))
	assign := func(role string, v float64) {
		for i, n := range nums {
			if !used[i] && n == v {
				used[i] = true
				values[role] = v
				return
			}
		}
	}
	lower := strings.ToLower(text)
	if m := ofNumber.FindStringSubmatch(lower); m != nil {
		if v := solver.ExtractNumbers(m[1], false); len(v) == 1 {
			assign(second, v[0])
		}
	}
	if first == "percentage" {
		if m := percentNumber.FindStringSubmatch(lower); m != nil {
			if v := solver.ExtractNumbers(m[1], false); len(v) == 1 {
				assign(first, v[0])
			}
		}
	}
	for _, role := range []string{first, second} {
		if _, ok := values[role]; ok {
			continue
		}
		for i, n := range nums {
			if !used[i] {
				used[i] = true
				values[role] = n
				break
			}
		}
	}
	if _, ok := values[second]; !ok {
		values[second] = 1
	}
	return values, nil
}

func (s *ArithmeticSolver) solvePercentage(problem string) *solver.Solution {
	kind := percentageType(strings.ToLower(problem))
	values, err := percentageValues(kind, problem)
	if err != nil {
		return solver.Failure("Percentage calculation failed: %v", err)
	}
	formula := percentFormulas[kind]

	var t solver.Trace
	t.AddWithConfidence("identify_type", "Identify percentage type: "+kind, "Type: "+kind, "", 0.9)
	t.AddWithConfidence("extract_values", "Extract values: "+describeValues(values), "Values: "+describeValues(values), "", 0.9)
	t.AddWithConfidence("apply_formula", "Apply formula: "+formula, "Formula: "+formula, "", 0.95)

	var result float64
	switch kind {
	case "find_percentage":
		part, whole := values["part"], values["whole"]
		if whole == 0 {
			return solver.Failure("Percentage calculation failed: whole is zero")
		}
		result = part / whole * 100
		t.AddWithConfidence("calculate_percentage",
			fmt.Sprintf("Calculate percentage: (%s / %s) × 100 = %s%%", fnum(part), fnum(whole), fnum(result)),
			fmt.Sprintf("Percentage = %s%%", fnum(result)), "", 0.95)
	case "find_part":
		pct, whole := values["percentage"], values["whole"]
		result = pct / 100 * whole
		t.AddWithConfidence("calculate_part",
			fmt.Sprintf("Calculate part: (%s / 100) × %s = %s", fnum(pct), fnum(whole), fnum(result)),
			"Part = "+fnum(result), "", 0.95)
	default:
		pct, number := values["percentage"], values["number"]
		result = pct / 100 * number
		t.AddWithConfidence("calculate_basic",
			fmt.Sprintf("Calculate: (%s / 100) × %s = %s", fnum(pct), fnum(number), fnum(result)),
			"Result = "+fnum(result), "", 0.95)
	}

	answer := solver.FormatDecimal(solver.Round(result, 2))
	return t.Done(answer, "percentage_"+kind, 0.95, "Percentage calculation: "+answer,
		map[string]any{
			"percentage_type": kind,
			"values":          values,
			"formula":         formula,
		})
}

func describeValues(values map[string]float64) string {
	var parts []string
	for _, role := range []string{"percentage", "part", "whole", "number"} {
		if v, ok := values[role]; ok {
			parts = append(parts, role+"="+fnum(v))
		}
	}
	return strings.Join(parts, ", ")
}

func fnum(f float64) string { return solver.FormatDecimal(f) }

func fractionOperation(problem string) string {
	lower := strings.ToLower(problem)
	switch {
	case containsAny(lower, "add", "sum", "plus"):
		return "addition"
	case containsAny(lower, "subtract", "minus", "difference"):
		return "subtraction"
	case containsAny(lower, "multiply", "product", "times"):
		return "multiplication"
	case containsAny(lower, "divide", "quotient"):
		return "division"
	}
	rest := fractionToken.ReplaceAllString(problem, " ")
	switch {
	case strings.Contains(rest, "+"):
		return "addition"
	case strings.Contains(rest, "-"):
		return "subtraction"
	case containsAny(rest, "*", "×"):
		return "multiplication"
	case containsAny(rest, "/", "÷"):
		return "division"
	}
	return "simplify"
}

var fractionSteps = map[string]struct{ op, verb, sym string }{
	"addition":       {"add_fractions", "Add", "+"},
	"subtraction":    {"subtract_fractions", "Subtract", "-"},
	"multiplication": {"multiply_fractions", "Multiply", "×"},
	"division":       {"divide_fractions", "Divide", "÷"},
}

func (s *ArithmeticSolver) solveFraction(problem string) *solver.Solution {
	op := fractionOperation(problem)
	var fracs []*big.Rat
	for _, tok := range fractionToken.FindAllString(problem, -1) {
		if _, den, _ := strings.Cut(tok, "/"); strings.Trim(strings.TrimSpace(den), "0") == "" {
			return solver.Failure("Fraction calculation failed: division by zero")
		}
		r, ok := new(big.Rat).SetString(tok)
		if !ok {
			continue
		}
		fracs = append(fracs, r)
	}
	if len(fracs) == 0 {
		return solver.Failure("Fraction calculation failed: no fractions found")
	}
	names := make([]string, len(fracs))
	for i, f := range fracs {
		names[i] = f.RatString()
	}

	var t solver.Trace
	t.AddWithConfidence("identify_operation", "Identify fraction operation: "+op, "Operation: "+op, "", 0.9)
	t.AddWithConfidence("extract_fractions", "Extract fractions: "+strings.Join(names, ", "), "Fractions: "+strings.Join(names, ", "), "", 0.9)

	result := new(big.Rat).Set(fracs[0])
	if step, ok := fractionSteps[op]; ok && len(fracs) >= 2 {
		for _, f := range fracs[1:] {
			before := result.RatString()
			switch op {
			case "addition":
				result.Add(result, f)
			case "subtraction":
				result.Sub(result, f)
			case "multiplication":
				result.Mul(result, f)
			case "division":
				if f.Sign() == 0 {
					return solver.Failure("Fraction calculation failed: division by zero")
				}
				result.Quo(result, f)
			}
			t.AddWithConfidence(step.op,
				fmt.Sprintf("%s fractions: %s %s %s = %s", step.verb, before, step.sym, f.RatString(), result.RatString()),
				"Result = "+result.RatString(), symbolic.Rat(result).LaTeX(), 0.95)
		}
	} else {
		op = "simplify"
		t.AddWithConfidence("simplify_fraction",
			fmt.Sprintf("Reduce %s to lowest terms: %s", fractionToken.FindString(problem), result.RatString()),
			"Result = "+result.RatString(), symbolic.Rat(result).LaTeX(), 0.95)
	}

	answer := result.RatString()
	return t.Done(answer, "fraction_"+op, 0.95, "Fraction operation result: "+answer,
		map[string]any{
			"operation":   op,
			"fractions":   names,
			"result_type": "fraction",
		})
}

func wordOperation(lower string) string {
	for _, w := range wordOperations {
		if containsAny(lower, w.words...) {
			return w.op
		}
	}
	return "addition"
}

var wordSymbols = map[string]string{
	"addition":       "+",
	"subtraction":    "-",
	"multiplication": "×",
	"division":       "÷",
}

func (s *ArithmeticSolver) solveWordProblem(problem string) *solver.Solution {
	op := wordOperation(strings.ToLower(problem))
	nums := solver.ExtractNumbers(problem, false)

	var t solver.Trace
	t.AddWithConfidence("identify_operation", "Identify operation needed: "+op, "Operation: "+op, "", 0.9)
	t.AddWithConfidence("extract_numbers", "Extract numbers: "+joinFloats(nums), "Numbers: "+joinFloats(nums), "", 0.9)

	var result float64
	switch {
	case len(nums) == 0:
		return solver.Failure("Word problem failed: no numbers found")
	case len(nums) == 1:
		result = nums[0]
	default:
		a, b := nums[0], nums[1]
		calc := fmt.Sprintf("%s %s %s", fnum(a), wordSymbols[op], fnum(b))
		t.AddWithConfidence("setup_calculation", "Set up calculation: "+calc, "Calculation: "+calc, "", 0.9)
		switch op {
		case "addition":
			result = a + b
		case "subtraction":
			result = a - b
		case "multiplication":
			result = a * b
		case "division":
			if b == 0 {
				return solver.Failure("Word problem failed: division by zero")
			}
			result = a / b
		}
		result = solver.Round(result, 2)
		t.AddWithConfidence("calculate_result", "Calculate result: "+fnum(result), "Result = "+fnum(result), "", 0.95)
	}

	answer := fnum(result)
	return t.Done(answer, "word_problem_"+op, 0.9, "Word problem solution: "+answer,
		map[string]any{
			"operation":    op,
			"numbers":      nums,
			"problem_type": "word_problem",
		})
}

func joinFloats(nums []float64) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fnum(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
