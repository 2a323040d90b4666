// SPDX-License-Identifier: Apache-2.0

package solvers_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
	"github.com/mathkitproj/mathsolver-mcp/internal/solver/solvers"
)

func solve(t *testing.T, s solver.Solver, problem string) *solver.Solution {
	t.Helper()
	sol := s.Solve(context.Background(), problem, solver.Options{})
	require.NotNil(t, sol)
	require.True(t, sol.Success, "solve %q: %s", problem, sol.Error)
	for i, st := range sol.Steps {
		assert.Equal(t, i+1, st.StepNumber, "step numbers must be contiguous")
		assert.GreaterOrEqual(t, st.Confidence, 0.0)
		assert.LessOrEqual(t, st.Confidence, 1.0)
	}
	return sol
}

func operations(sol *solver.Solution) []string {
	ops := make([]string, len(sol.Steps))
	for i, st := range sol.Steps {
		ops[i] = st.Operation
	}
	return ops
}

// ---------------------------------------------------------------------------
// Default set
// ---------------------------------------------------------------------------

func TestAll_RegistrationOrder(t *testing.T) {
	r := solver.NewRegistry()
	solvers.Register(r, "statistics")
	assert.Equal(t, []string{"arithmetic", "algebra", "geometry", "calculus"}, r.RegisteredSolvers())

	for _, s := range solvers.All() {
		assert.NotEmpty(t, s.Capabilities(), s.Name())
		assert.True(t, s.CanSolve("anything", strings.ToUpper(s.Name())), "hint must short-circuit %s", s.Name())
	}
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

func TestArithmeticSolver(t *testing.T) {
	s := solvers.NewArithmeticSolver()

	tests := []struct {
		name       string
		problem    string
		wantAnswer string
		wantMethod string
	}{
		{name: "precedence", problem: "2 + 3 * 4", wantAnswer: "14", wantMethod: "arithmetic_evaluation"},
		{name: "parentheses", problem: "Calculate (2 + 3) * 4", wantAnswer: "20", wantMethod: "arithmetic_evaluation"},
		{name: "operator words", problem: "what is 6 times 7", wantAnswer: "42", wantMethod: "arithmetic_evaluation"},
		{name: "find percentage", problem: "what percent of 50 is 10", wantAnswer: "20.0", wantMethod: "percentage_find_percentage"},
		{name: "percent of", problem: "20% of 150", wantAnswer: "30.0", wantMethod: "percentage_basic_percentage"},
		{name: "fraction addition", problem: "1/2 + 1/3", wantAnswer: "5/6", wantMethod: "fraction_addition"},
		{name: "fraction multiplication", problem: "multiply the fractions 2/3 and 3/4", wantAnswer: "1/2", wantMethod: "fraction_multiplication"},
		{name: "word problem", problem: "John has 5 apples and buys 3 more. How many apples in total?", wantAnswer: "8.0", wantMethod: "word_problem_addition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := solve(t, s, tt.problem)
			assert.Equal(t, tt.wantAnswer, sol.Answer)
			assert.Equal(t, tt.wantMethod, sol.Method)
		})
	}
}

func TestArithmeticSolver_PrecedenceSteps(t *testing.T) {
	sol := solve(t, solvers.NewArithmeticSolver(), "2 + 3 * 4")
	assert.Equal(t, []string{"parse", "multiplication_division", "addition_subtraction", "final_result"}, operations(sol))
	assert.Equal(t, "moderate", sol.Metadata["complexity"])
}

func TestArithmeticSolver_PowerOperatorSteps(t *testing.T) {
	sol := solve(t, solvers.NewArithmeticSolver(), "2**3 + 1")
	assert.Equal(t, "9", sol.Answer)
	assert.Contains(t, operations(sol), "exponents")
	assert.NotContains(t, operations(sol), "multiplication_division")
}

func TestArithmeticSolver_DivisionByZero(t *testing.T) {
	tests := []struct {
		name    string
		problem string
	}{
		{name: "expression", problem: "5 / 0 + 1"},
		{name: "fraction", problem: "1/0 + 1/2"},
		{name: "fraction with zero padding", problem: "3/00 - 1/4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := solvers.NewArithmeticSolver().Solve(context.Background(), tt.problem, solver.Options{})
			assert.False(t, sol.Success)
			assert.Contains(t, sol.Error, "division by zero")
		})
	}
}

// ---------------------------------------------------------------------------
// Algebra
// ---------------------------------------------------------------------------

func TestAlgebraSolver_Equations(t *testing.T) {
	s := solvers.NewAlgebraSolver()

	tests := []struct {
		name       string
		problem    string
		wantRoots  []string
		wantMethod string
	}{
		{name: "linear", problem: "2x + 5 = 13", wantRoots: []string{"4"}, wantMethod: "linear_solving"},
		{name: "linear with prefix", problem: "Solve for x: 3x - 7 = 11", wantRoots: []string{"6"}, wantMethod: "linear_solving"},
		{name: "quadratic", problem: "x^2 - 5x + 6 = 0", wantRoots: []string{"2", "3"}, wantMethod: "quadratic_solving"},
		{name: "cubic", problem: "x^3 - 6x^2 + 11x - 6 = 0", wantRoots: []string{"1", "2", "3"}, wantMethod: "cubic_solving"},
		{name: "implicit product", problem: "x(x-1) = 6", wantRoots: []string{"-2", "3"}, wantMethod: "quadratic_solving"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := solve(t, s, tt.problem)
			assert.ElementsMatch(t, tt.wantRoots, strings.Split(sol.Answer, ", "))
			assert.Equal(t, tt.wantMethod, sol.Method)
			assert.NotContains(t, sol.Verification, "✗")
			assert.Contains(t, sol.Verification, "✓")
			assert.Equal(t, "verify", sol.Steps[len(sol.Steps)-1].Operation)
		})
	}
}

func TestAlgebraSolver_LinearVerification(t *testing.T) {
	sol := solve(t, solvers.NewAlgebraSolver(), "2x + 5 = 13")
	assert.Equal(t, "✓ 4 is correct", sol.Verification)
	assert.Equal(t, "linear", sol.Metadata["equation_type"])
	assert.Equal(t, 1, sol.Metadata["degree"])
}

func TestAlgebraSolver_Identity(t *testing.T) {
	sol := solve(t, solvers.NewAlgebraSolver(), "x + 1 = x + 1")
	assert.Equal(t, "All real numbers", sol.Answer)
}

func TestAlgebraSolver_Simplify(t *testing.T) {
	sol := solve(t, solvers.NewAlgebraSolver(), "simplify 2x + 3x")
	assert.Equal(t, "5*x", sol.Answer)
	assert.Equal(t, "expression_simplification", sol.Method)
}

// ---------------------------------------------------------------------------
// Geometry
// ---------------------------------------------------------------------------

func TestGeometrySolver(t *testing.T) {
	s := solvers.NewGeometrySolver()

	tests := []struct {
		name       string
		problem    string
		wantAnswer string
		wantMethod string
	}{
		{name: "circle area", problem: "area of circle with radius 5", wantAnswer: "78.54", wantMethod: "circle_area_calculation"},
		{name: "rectangle area with units", problem: "Find the area of a rectangle with length 4 cm and width 3 cm", wantAnswer: "12.0 cm²", wantMethod: "rectangle_area_calculation"},
		{name: "cube volume", problem: "volume of a cube with side 3", wantAnswer: "27.0", wantMethod: "cube_volume_calculation"},
		{name: "square perimeter", problem: "perimeter of a square with side 5", wantAnswer: "20.0", wantMethod: "square_perimeter_calculation"},
		{name: "rectangle perimeter", problem: "perimeter of rectangle 4 and 5", wantAnswer: "18.0", wantMethod: "rectangle_perimeter_calculation"},
		{name: "triangle perimeter", problem: "perimeter of a triangle with sides 3, 4 and 5", wantAnswer: "12.0", wantMethod: "triangle_perimeter_calculation"},
		{name: "pythagorean", problem: "right triangle with legs 3 and 4, find the hypotenuse", wantAnswer: "5.0", wantMethod: "pythagorean_theorem"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := solve(t, s, tt.problem)
			assert.Equal(t, tt.wantAnswer, sol.Answer)
			assert.Equal(t, tt.wantMethod, sol.Method)
		})
	}
}

func TestGeometrySolver_PythagoreanSteps(t *testing.T) {
	sol := solve(t, solvers.NewGeometrySolver(), "right triangle with legs 3 and 4, find the hypotenuse")
	assert.Equal(t, []string{"identify_theorem", "extract_sides", "calculate_squares", "calculate_square_root"}, operations(sol))
	assert.Equal(t, "a² + b² = 25", sol.Steps[2].Expression)
	assert.Equal(t, "c = 5", sol.Steps[3].Expression)
}

func TestGeometrySolver_MissingDimension(t *testing.T) {
	sol := solvers.NewGeometrySolver().Solve(context.Background(), "area of a rectangle with length 4", solver.Options{})
	assert.False(t, sol.Success)
}

// ---------------------------------------------------------------------------
// Calculus
// ---------------------------------------------------------------------------

func TestCalculusSolver(t *testing.T) {
	s := solvers.NewCalculusSolver()

	tests := []struct {
		name       string
		problem    string
		wantAnswer string
		wantMethod string
	}{
		{name: "derivative", problem: "Find the derivative of x^3 + 2*x", wantAnswer: "3*x^2 + 2", wantMethod: "derivative_calculation"},
		{name: "d/dx notation", problem: "d/dx sin(x)", wantAnswer: "cos(x)", wantMethod: "derivative_calculation"},
		{name: "indefinite integral", problem: "integrate x^2 dx", wantAnswer: "x^3/3 + C", wantMethod: "integration_power_rule"},
		{name: "definite integral", problem: "integral of x^2 from 0 to 3", wantAnswer: "9", wantMethod: "integration_power_rule"},
		{name: "limit", problem: "lim x→0 sin(x)/x", wantAnswer: "1", wantMethod: "limit_evaluation"},
		{name: "limit phrase", problem: "limit of (x^2 - 1)/(x - 1) as x approaches 1", wantAnswer: "2", wantMethod: "limit_evaluation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := solve(t, s, tt.problem)
			assert.Equal(t, tt.wantAnswer, sol.Answer)
			assert.Equal(t, tt.wantMethod, sol.Method)
		})
	}
}

func TestAlgebraSolver_TwoVariables(t *testing.T) {
	sol := solve(t, solvers.NewAlgebraSolver(), "x*y + 1 = 3")
	assert.Contains(t, sol.Answer, "y")
	assert.NotEmpty(t, sol.Steps)
}

func TestCalculusSolver_ProductTerms(t *testing.T) {
	s := solvers.NewCalculusSolver()

	tests := []struct {
		name       string
		problem    string
		contains   []string
		wantMethod string
	}{
		{name: "product rule", problem: "derivative of x*sin(x)", contains: []string{"sin(x)", "x*cos(x)"}, wantMethod: "derivative_calculation"},
		{name: "by parts", problem: "integral of x*e^x", contains: []string{"exp(x)", "C"}, wantMethod: "integration_exponential"},
		{name: "growth", problem: "dy/dx = y", contains: []string{"y = ", "exp(x)"}, wantMethod: "differential_equation_exponential_growth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := solve(t, s, tt.problem)
			for _, want := range tt.contains {
				assert.Contains(t, sol.Answer, want)
			}
			assert.Equal(t, tt.wantMethod, sol.Method)
		})
	}
}

func TestCalculusSolver_DerivativeMetadata(t *testing.T) {
	sol := solve(t, solvers.NewCalculusSolver(), "Find the derivative of x^3 + 2*x")
	assert.Contains(t, sol.Metadata["rules_applied"], "sum_rule")
	assert.Contains(t, sol.Metadata["rules_applied"], "power_rule")
	assert.Equal(t, "polynomial", sol.Metadata["function_type"])
}

func TestCalculusSolver_Limit(t *testing.T) {
	sol := solve(t, solvers.NewCalculusSolver(), "lim x→0 sin(x)/x")
	assert.Equal(t, "0/0", sol.Metadata["indeterminate_form"])
	assert.Equal(t, false, sol.Metadata["point_defaulted"])
	assert.Contains(t, operations(sol), "identify_form")
}

func TestCalculusSolver_LimitPointDefaultsToZero(t *testing.T) {
	sol := solve(t, solvers.NewCalculusSolver(), "limit of x^2 + 1")
	assert.Equal(t, "1", sol.Answer)
	assert.Equal(t, true, sol.Metadata["point_defaulted"])
}

func TestCalculusSolver_UnevaluatedIntegral(t *testing.T) {
	sol := solve(t, solvers.NewCalculusSolver(), "integrate sin(x^2) dx")
	assert.Equal(t, "Integral(sin(x^2), x)", sol.Answer)
	assert.Equal(t, false, sol.Metadata["has_constant"])
}

func TestCalculusSolver_DifferentialEquation(t *testing.T) {
	sol := solve(t, solvers.NewCalculusSolver(), "dy/dx = 2*y")
	assert.Equal(t, "differential_equation_exponential_growth", sol.Method)
	assert.Contains(t, sol.Answer, "exp(2*x)")
	assert.True(t, strings.HasPrefix(sol.Answer, "y = "))

	sol = solve(t, solvers.NewCalculusSolver(), "dy/dx = 2*x")
	assert.Equal(t, "differential_equation_direct_integration", sol.Method)
	assert.Contains(t, sol.Answer, "x^2")
}

// ---------------------------------------------------------------------------
// Statistics
// ---------------------------------------------------------------------------

func TestStatisticsSolver_Mean(t *testing.T) {
	sol := solve(t, solvers.NewStatisticsSolver(), "mean of 1, 2, 3, 4, 5")
	assert.Equal(t, "descriptive_statistics", sol.Method)
	results, ok := sol.Metadata["results"].(map[string]float64)
	require.True(t, ok)
	assert.Equal(t, 3.0, results["mean"])
	assert.Equal(t, 5, sol.Metadata["data_points"])
}

func TestStatisticsSolver_Defaults(t *testing.T) {
	sol := solve(t, solvers.NewStatisticsSolver(), "statistics for 2, 4, 4, 4, 5, 5, 7, 9")
	results := sol.Metadata["results"].(map[string]float64)
	assert.Equal(t, 5.0, results["mean"])
	assert.Equal(t, 4.5, results["median"])
	assert.InDelta(t, 2.14, results["standard_deviation"], 0.01)
}

func TestStatisticsSolver_Probability(t *testing.T) {
	s := solvers.NewStatisticsSolver()

	tests := []struct {
		name       string
		problem    string
		wantMethod string
	}{
		{name: "basic die", problem: "What is the probability of rolling a 6 on a die?", wantMethod: "probability_basic"},
		{name: "binomial", problem: "binomial probability of 3 successes in 5 trials with p = 0.5", wantMethod: "probability_binomial"},
		{name: "combination", problem: "how many combinations choose 2 from 5", wantMethod: "probability_combination"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := solve(t, s, tt.problem)
			assert.Equal(t, tt.wantMethod, sol.Method)
			assert.NotEmpty(t, sol.Answer)
		})
	}
}

func TestStatisticsSolver_MinMax(t *testing.T) {
	s := solvers.NewStatisticsSolver()

	tests := []struct {
		name    string
		problem string
		claimed bool
	}{
		{name: "short words", problem: "find min and max of 3 9 1", claimed: true},
		{name: "long words", problem: "the maximum of 4, 8, 2", claimed: true},
		{name: "inside another word", problem: "determine x when 2x = 4", claimed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.claimed, s.CanSolve(tt.problem, ""))
		})
	}

	sol := solve(t, s, "find min and max of 3 9 1")
	results := sol.Metadata["results"].(map[string]float64)
	assert.Equal(t, 1.0, results["minimum"])
	assert.Equal(t, 9.0, results["maximum"])
}

func TestStatisticsSolver_Numerics(t *testing.T) {
	tests := []struct {
		name    string
		problem string
		stat    string
		want    float64
	}{
		{name: "odd median", problem: "median of 7, 1, 3", stat: "median", want: 3},
		{name: "even median", problem: "median of 4, 1, 3, 2", stat: "median", want: 2.5},
		{name: "mode tie picks smallest", problem: "mode of 5, 2, 5, 2, 9", stat: "mode", want: 2},
		{name: "sample variance", problem: "variance of 2, 4, 4, 4, 5, 5, 7, 9", stat: "variance", want: 4.57},
		{name: "single value variance", problem: "variance of 7", stat: "variance", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := solve(t, solvers.NewStatisticsSolver(), tt.problem)
			results := sol.Metadata["results"].(map[string]float64)
			assert.InDelta(t, tt.want, results[tt.stat], 0.005)
		})
	}
}

func TestStatisticsSolver_Distributions(t *testing.T) {
	tests := []struct {
		name    string
		problem string
		want    float64
	}{
		{name: "binomial", problem: "binomial probability of 3 successes in 5 trials with p = 0.5", want: 0.3125},
		{name: "binomial certain", problem: "binomial probability of 4 successes in 4 trials with p = 1", want: 1},
		{name: "normal lower tail", problem: "normal distribution with mean 0 and standard deviation 1, probability X less than 1.96", want: 0.975},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := solve(t, solvers.NewStatisticsSolver(), tt.problem)
			assert.InDelta(t, tt.want, sol.Metadata["value"], 0.001)
		})
	}
}

func TestStatisticsSolver_SampleDataFallback(t *testing.T) {
	sol := solve(t, solvers.NewStatisticsSolver(), "find the average")
	assert.Equal(t, true, sol.Metadata["sample_data"])
	assert.Equal(t, 0.5, sol.Steps[0].Confidence)
}
