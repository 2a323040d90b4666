// SPDX-License-Identifier: Apache-2.0

package symbolic_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathkitproj/mathsolver-mcp/internal/symbolic"
)

// ---------------------------------------------------------------------------
// Parse + Simplify
// ---------------------------------------------------------------------------

func TestSimplify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "precedence", input: "2 + 3 * 4", want: "14"},
		{name: "parentheses", input: "(2 + 3) * 4", want: "20"},
		{name: "power is right associative", input: "2^3^2", want: "512"},
		{name: "like terms", input: "2x + 3x", want: "5*x"},
		{name: "like factors", input: "x*x*x", want: "x^3"},
		{name: "cancellation", input: "x + 1 - (x + 1)", want: "0"},
		{name: "exact fraction", input: "1/2 + 1/3", want: "5/6"},
		{name: "division by symbol", input: "x/2", want: "x/2"},
		{name: "perfect square root", input: "sqrt(16)", want: "4"},
		{name: "square factor extraction", input: "sqrt(8)", want: "2*sqrt(2)"},
		{name: "unary minus", input: "-x + 2*x", want: "x"},
		{name: "function identity", input: "sin(0) + cos(0)", want: "1"},
		{name: "power operator alias", input: "x**2", want: "x^2"},
		{name: "unicode operators", input: "6 × 2 ÷ 3", want: "4"},
		{name: "like product terms", input: "x*y + x*y", want: "2*x*y"},
		{name: "product terms cancel", input: "x*y + 1 - x*y", want: "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := symbolic.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, symbolic.Simplify(e).String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, input := range []string{"", "2 +", "(x + 1", "3 $ 4"} {
		t.Run(input, func(t *testing.T) {
			_, err := symbolic.Parse(input)
			require.Error(t, err)
			var perr *symbolic.ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestParseEquation(t *testing.T) {
	eq, err := symbolic.ParseEquation("2x + 5 = 13")
	require.NoError(t, err)
	assert.Equal(t, "2*x - 8", eq.Residual().String())

	_, err = symbolic.ParseEquation("x = 1 = 2")
	assert.Error(t, err)
}

func TestFreeSymbols(t *testing.T) {
	e := symbolic.MustParse("x*y + z - x")
	assert.Equal(t, []string{"x", "y", "z"}, symbolic.FreeSymbols(e))
}

func TestEval(t *testing.T) {
	v, err := symbolic.Eval(symbolic.MustParse("sqrt(16) + 2^3"), nil)
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	_, err = symbolic.Eval(symbolic.MustParse("x + 1"), nil)
	assert.Error(t, err)
}

func TestLaTeX(t *testing.T) {
	e := symbolic.Simplify(symbolic.MustParse("x^2/2"))
	assert.Equal(t, `\frac{x^{2}}{2}`, e.LaTeX())
	assert.Equal(t, `\sqrt{x}`, symbolic.MustParse("sqrt(x)").LaTeX())
}

// ---------------------------------------------------------------------------
// Polynomials
// ---------------------------------------------------------------------------

func TestExpand(t *testing.T) {
	assert.Equal(t, "x^2 + 2*x + 1", symbolic.Expand(symbolic.MustParse("(x+1)^2")).String())
	assert.Equal(t, "x^2 - 1", symbolic.Expand(symbolic.MustParse("(x+1)(x-1)")).String())
}

func TestDegree(t *testing.T) {
	assert.Equal(t, 1, symbolic.Degree(symbolic.MustParse("2x + 5"), "x"))
	assert.Equal(t, 2, symbolic.Degree(symbolic.MustParse("(x+1)^2 - 3"), "x"))
	assert.Equal(t, 0, symbolic.Degree(symbolic.MustParse("7"), "x"))
	assert.Equal(t, -1, symbolic.Degree(symbolic.MustParse("sin(x)"), "x"))
}

func TestFactor(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "x^2 - 4", want: "(x + 2)*(x - 2)"},
		{input: "2x + 4", want: "2*(x + 2)"},
		{input: "x^2 + 1", want: "x^2 + 1"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, symbolic.Factor(symbolic.MustParse(tt.input)).String())
		})
	}
}

// ---------------------------------------------------------------------------
// Solve
// ---------------------------------------------------------------------------

func rootStrings(roots []symbolic.Root) []string {
	out := make([]string, len(roots))
	for i, r := range roots {
		out[i] = r.String()
	}
	return out
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "linear", input: "2x + 5 = 13", want: []string{"4"}},
		{name: "linear fraction", input: "3x = 2", want: []string{"2/3"}},
		{name: "quadratic rational", input: "x^2 - 5x + 6 = 0", want: []string{"2", "3"}},
		{name: "quadratic surd", input: "x^2 = 2", want: []string{"-sqrt(2)", "sqrt(2)"}},
		{name: "cubic rational roots", input: "x^3 - 6x^2 + 11x - 6 = 0", want: []string{"1", "2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq, err := symbolic.ParseEquation(tt.input)
			require.NoError(t, err)
			roots, err := symbolic.Solve(eq, "x")
			require.NoError(t, err)
			assert.Equal(t, tt.want, rootStrings(roots))
			for _, r := range roots {
				res, err := symbolic.Check(eq, "x", r)
				require.NoError(t, err)
				assert.Less(t, res, 1e-10)
			}
		})
	}
}

func TestSolve_ComplexRoots(t *testing.T) {
	eq, err := symbolic.ParseEquation("x^2 + 1 = 0")
	require.NoError(t, err)
	roots, err := symbolic.Solve(eq, "x")
	require.NoError(t, err)
	require.Len(t, roots, 2)
	for _, r := range roots {
		assert.False(t, r.IsReal())
		assert.InDelta(t, 1.0, math.Abs(r.Im), 1e-12)
	}
}

func TestSolve_Degenerate(t *testing.T) {
	eq, err := symbolic.ParseEquation("x + 1 = x + 1")
	require.NoError(t, err)
	_, err = symbolic.Solve(eq, "x")
	assert.ErrorIs(t, err, symbolic.ErrIdentity)

	eq, err = symbolic.ParseEquation("x + 1 = x + 2")
	require.NoError(t, err)
	_, err = symbolic.Solve(eq, "x")
	assert.ErrorIs(t, err, symbolic.ErrNoSolution)
}

func TestSolve_Numeric(t *testing.T) {
	eq, err := symbolic.ParseEquation("2^x = 8")
	require.NoError(t, err)
	roots, err := symbolic.Solve(eq, "x")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.InDelta(t, 3.0, roots[0].Re, 1e-9)
}

// ---------------------------------------------------------------------------
// Calculus
// ---------------------------------------------------------------------------

func TestDiff(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "x^3 + 2*x", want: "3*x^2 + 2"},
		{input: "sin(x)", want: "cos(x)"},
		{input: "exp(2*x)", want: "2*exp(2*x)"},
		{input: "5", want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, symbolic.Diff(symbolic.MustParse(tt.input), "x").String())
		})
	}
}

func TestIntegrate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "x^2", want: "x^3/3"},
		{input: "3x^2", want: "x^3"},
		{input: "1/x", want: "log(x)"},
		{input: "cos(x)", want: "sin(x)"},
		{input: "5", want: "5*x"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := symbolic.Integrate(symbolic.MustParse(tt.input), "x")
			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestIntegrate_ByParts(t *testing.T) {
	e := symbolic.MustParse("x*exp(x)")
	got, ok := symbolic.Integrate(e, "x")
	require.True(t, ok)
	// d/dx of the antiderivative must give back the integrand.
	assert.True(t, symbolic.Equal(e, symbolic.Diff(got, "x")))
}

func TestIntegrate_NoClosedForm(t *testing.T) {
	got, ok := symbolic.Integrate(symbolic.MustParse("sin(x^2)"), "x")
	assert.False(t, ok)
	_, isIntegral := got.(*symbolic.Integral)
	assert.True(t, isIntegral)
}

func TestLimit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		point symbolic.Expr
		want  string
		form  string
	}{
		{name: "direct", input: "x^2 + 1", point: symbolic.Int(2), want: "5"},
		{name: "sinc", input: "sin(x)/x", point: symbolic.Int(0), want: "1", form: symbolic.FormZeroOverZero},
		{name: "removable", input: "(x^2 - 1)/(x - 1)", point: symbolic.Int(1), want: "2", form: symbolic.FormZeroOverZero},
		{name: "at infinity", input: "1/x", point: symbolic.Infinity, want: "0"},
		{name: "ratio at infinity", input: "(3x^2 + 1)/x^2", point: symbolic.Infinity, want: "3", form: symbolic.FormInfOverInf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := symbolic.Limit(symbolic.MustParse(tt.input), "x", tt.point)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.String())
			assert.Equal(t, tt.form, r.Form)
		})
	}
}

func TestLimit_DoesNotExist(t *testing.T) {
	_, err := symbolic.Limit(symbolic.MustParse("1/x"), "x", symbolic.Int(0))
	assert.ErrorIs(t, err, symbolic.ErrLimitUndefined)
}
