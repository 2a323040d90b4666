// SPDX-License-Identifier: Apache-2.0

package symbolic

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/cmplx"
	"sort"
	"strconv"
)

var (
	// ErrNoSolution is returned when an equation has no root.
	ErrNoSolution = errors.New("no solution")
	// ErrIdentity is returned when an equation holds for every value.
	ErrIdentity = errors.New("equation holds for every value of the variable")
)

// Imag is the imaginary unit used when rendering complex roots.
var Imag = &Sym{Name: "I"}

// Root is one solution of a univariate equation. Expr is the exact form
// when one is known; numeric roots carry only Re and Im.
type Root struct {
	Expr Expr
	Re   float64
	Im   float64
}

// IsReal reports whether the root has no imaginary part.
func (r Root) IsReal() bool { return r.Im == 0 }

// Exact reports whether the root has a closed form.
func (r Root) Exact() bool { return r.Expr != nil }

func (r Root) String() string {
	if r.Expr != nil {
		return r.Expr.String()
	}
	if r.IsReal() {
		return FormatFloat(r.Re)
	}
	sign := "+"
	im := r.Im
	if im < 0 {
		sign = "-"
		im = -im
	}
	return FormatFloat(r.Re) + " " + sign + " " + FormatFloat(im) + "*I"
}

// LaTeX renders the root.
func (r Root) LaTeX() string {
	if r.Expr != nil {
		return r.Expr.LaTeX()
	}
	return r.String()
}

// FormatFloat renders f with at most ten significant digits and no
// trailing zeros.
func FormatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "∞"
	}
	if math.IsInf(f, -1) {
		return "-∞"
	}
	s := strconv.FormatFloat(f, 'g', 10, 64)
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == 0 {
		return "0"
	}
	return s
}

func exactRoot(e Expr) Root {
	e = Simplify(e)
	re, err := Eval(e, nil)
	if err != nil {
		re = math.NaN()
	}
	return Root{Expr: e, Re: re}
}

// Solve finds the roots of eq in v.
func Solve(eq Equation, v string) ([]Root, error) {
	f := eq.Residual()
	if !Contains(f, v) {
		if n, ok := f.(*Num); ok && n.isZero() {
			return nil, ErrIdentity
		}
		return nil, ErrNoSolution
	}
	if coeffs, ok := PolyCoeffs(f, v); ok {
		return solvePoly(coeffs)
	}
	if terms, deg, ok := polyTerms(f, v); ok && deg <= 2 {
		return solveSymbolicPoly(terms, deg)
	}
	return solveNumeric(f, v)
}

func solvePoly(coeffs []*big.Rat) ([]Root, error) {
	deg := len(coeffs) - 1
	switch deg {
	case 0:
		if coeffs[0].Sign() == 0 {
			return nil, ErrIdentity
		}
		return nil, ErrNoSolution
	case 1:
		r := new(big.Rat).Quo(new(big.Rat).Neg(coeffs[0]), coeffs[1])
		return []Root{exactRoot(Rat(r))}, nil
	case 2:
		return quadraticRoots(coeffs[2], coeffs[1], coeffs[0]), nil
	}

	ints, _ := toIntPoly(coeffs)
	content := contentOf(ints)
	for i := range ints {
		ints[i] = new(big.Int).Quo(ints[i], content)
	}
	found, rest := rationalRoots(ints)
	var roots []Root
	for _, g := range groupRoots(found) {
		roots = append(roots, exactRoot(Rat(g.value)))
	}
	restRat := make([]*big.Rat, len(rest))
	for i, c := range rest {
		restRat[i] = new(big.Rat).SetInt(c)
	}
	switch len(rest) - 1 {
	case 0:
	case 1:
		r := new(big.Rat).Quo(new(big.Rat).Neg(restRat[0]), restRat[1])
		roots = append(roots, exactRoot(Rat(r)))
	case 2:
		roots = append(roots, quadraticRoots(restRat[2], restRat[1], restRat[0])...)
	default:
		roots = append(roots, numericPolyRoots(restRat)...)
	}
	sortRoots(roots)
	return dedupeRoots(roots), nil
}

func quadraticRoots(a, b, c *big.Rat) []Root {
	disc := new(big.Rat).Mul(b, b)
	disc.Sub(disc, new(big.Rat).Mul(big.NewRat(4, 1), new(big.Rat).Mul(a, c)))
	twoA := new(big.Rat).Mul(big.NewRat(2, 1), a)
	vertex := new(big.Rat).Quo(new(big.Rat).Neg(b), twoA)

	if disc.Sign() == 0 {
		return []Root{exactRoot(Rat(vertex))}
	}

	absDisc := new(big.Rat).Abs(disc)
	half := new(big.Rat).Quo(big.NewRat(1, 1), new(big.Rat).Abs(twoA))
	if disc.Sign() > 0 {
		if s, ok := ratPow(disc, big.NewRat(1, 2)); ok {
			d := new(big.Rat).Quo(s, new(big.Rat).Abs(twoA))
			lo := new(big.Rat).Sub(vertex, d)
			hi := new(big.Rat).Add(vertex, d)
			return []Root{exactRoot(Rat(lo)), exactRoot(Rat(hi))}
		}
		radical := Simplify(&Mul{Factors: []Expr{Rat(half), Sqrt(Rat(absDisc))}})
		lo := exactRoot(&Add{Terms: []Expr{Rat(vertex), Neg(radical)}})
		hi := exactRoot(&Add{Terms: []Expr{Rat(vertex), radical}})
		return []Root{lo, hi}
	}

	imPart := Simplify(&Mul{Factors: []Expr{Rat(half), Sqrt(Rat(absDisc))}})
	imF, _ := Eval(imPart, nil)
	reF, _ := vertex.Float64()
	mk := func(sign int64) Root {
		term := Simplify(&Mul{Factors: []Expr{Int(sign), imPart, Imag}})
		var e Expr = term
		if vertex.Sign() != 0 {
			e = &Add{Terms: []Expr{Rat(vertex), term}}
		}
		return Root{Expr: e, Re: reF, Im: float64(sign) * imF}
	}
	return []Root{mk(-1), mk(1)}
}

func solveSymbolicPoly(terms map[int]Expr, deg int) ([]Root, error) {
	coeff := func(d int) Expr {
		if c, ok := terms[d]; ok {
			return c
		}
		return Int(0)
	}
	switch deg {
	case 0:
		return nil, ErrNoSolution
	case 1:
		return []Root{exactRoot(Div(Neg(coeff(0)), coeff(1)))}, nil
	}
	a, b, c := coeff(2), coeff(1), coeff(0)
	disc := Simplify(Sub(Power(b, Int(2)), Product(Int(4), a, c)))
	dv, err := Eval(disc, nil)
	if err != nil {
		return nil, fmt.Errorf("symbolic coefficients: %w", err)
	}
	if dv < 0 {
		return nil, ErrNoSolution
	}
	twoA := Product(Int(2), a)
	lo := exactRoot(Div(Sub(Neg(b), Sqrt(disc)), twoA))
	hi := exactRoot(Div(Sum(Neg(b), Sqrt(disc)), twoA))
	roots := []Root{lo, hi}
	sortRoots(roots)
	return dedupeRoots(roots), nil
}

func numericPolyRoots(coeffs []*big.Rat) []Root {
	fs := make([]float64, len(coeffs))
	for i, c := range coeffs {
		fs[i], _ = c.Float64()
	}
	var out []Root
	for _, z := range durandKerner(fs) {
		re, im := real(z), imag(z)
		if math.Abs(im) < 1e-9*math.Max(1, math.Abs(re)) {
			im = 0
		}
		out = append(out, Root{Re: re, Im: im})
	}
	return out
}

func hornerC(coeffs []complex128, z complex128) complex128 {
	acc := complex(0, 0)
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = acc*z + coeffs[i]
	}
	return acc
}

// durandKerner finds all complex roots of a polynomial, lowest degree
// coefficient first.
func durandKerner(coeffs []float64) []complex128 {
	n := len(coeffs) - 1
	lead := coeffs[n]
	monic := make([]complex128, len(coeffs))
	for i, c := range coeffs {
		monic[i] = complex(c/lead, 0)
	}
	roots := make([]complex128, n)
	seed := complex(0.4, 0.9)
	for i := range roots {
		roots[i] = cmplx.Pow(seed, complex(float64(i), 0))
	}
	for iter := 0; iter < 1000; iter++ {
		maxDelta := 0.0
		for i := range roots {
			den := complex(1, 0)
			for j := range roots {
				if i != j {
					den *= roots[i] - roots[j]
				}
			}
			if den == 0 {
				den = complex(1e-12, 0)
			}
			delta := hornerC(monic, roots[i]) / den
			roots[i] -= delta
			maxDelta = math.Max(maxDelta, cmplx.Abs(delta))
		}
		if maxDelta < 1e-15 {
			break
		}
	}
	deriv := make([]complex128, n)
	for i := 1; i <= n; i++ {
		deriv[i-1] = monic[i] * complex(float64(i), 0)
	}
	for i, z := range roots {
		for k := 0; k < 20; k++ {
			d := hornerC(deriv, z)
			if d == 0 {
				break
			}
			step := hornerC(monic, z) / d
			z -= step
			if cmplx.Abs(step) < 1e-16 {
				break
			}
		}
		roots[i] = z
	}
	return roots
}

const (
	scanLo   = -100.0
	scanHi   = 100.0
	scanStep = 0.05
)

// solveNumeric brackets sign changes of f on a fixed window and refines
// each one by bisection followed by Newton steps.
func solveNumeric(f Expr, v string) ([]Root, error) {
	df := Simplify(Diff(f, v))
	eval := func(x float64) float64 {
		y, err := EvalAt(f, v, x)
		if err != nil {
			return math.NaN()
		}
		return y
	}

	var roots []Root
	add := func(x float64) {
		for k := 0; k < 30; k++ {
			d, err := EvalAt(df, v, x)
			if err != nil || d == 0 || math.IsNaN(d) {
				break
			}
			step := eval(x) / d
			if math.IsNaN(step) || math.IsInf(step, 0) {
				break
			}
			x -= step
			if math.Abs(step) < 1e-15 {
				break
			}
		}
		y := eval(x)
		if math.IsNaN(y) || math.Abs(y) > 1e-9 {
			return
		}
		if r := math.Round(x); math.Abs(x-r) < 1e-9 {
			roots = append(roots, exactRoot(Float(r)))
			return
		}
		roots = append(roots, Root{Re: x})
	}

	prevX := scanLo
	prevY := eval(prevX)
	for x := scanLo + scanStep; x <= scanHi+scanStep/2; x += scanStep {
		y := eval(x)
		switch {
		case math.IsNaN(y) || math.IsNaN(prevY) || math.IsInf(y, 0) || math.IsInf(prevY, 0):
		case prevY == 0:
			add(prevX)
		case prevY*y < 0:
			lo, hi := prevX, x
			for i := 0; i < 200; i++ {
				mid := (lo + hi) / 2
				if eval(lo)*eval(mid) <= 0 {
					hi = mid
				} else {
					lo = mid
				}
			}
			add((lo + hi) / 2)
		}
		prevX, prevY = x, y
	}
	sortRoots(roots)
	roots = dedupeRoots(roots)
	if len(roots) == 0 {
		return nil, ErrNoSolution
	}
	return roots, nil
}

func sortRoots(roots []Root) {
	sort.SliceStable(roots, func(i, j int) bool {
		ri, rj := roots[i], roots[j]
		if ri.IsReal() != rj.IsReal() {
			return ri.IsReal()
		}
		if ri.Re != rj.Re {
			return ri.Re < rj.Re
		}
		return ri.Im < rj.Im
	})
}

func dedupeRoots(roots []Root) []Root {
	var out []Root
	for _, r := range roots {
		if n := len(out); n > 0 {
			p := out[n-1]
			if math.Abs(p.Re-r.Re) < 1e-7 && math.Abs(p.Im-r.Im) < 1e-7 {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Check returns |lhs - rhs| with the root substituted for v.
func Check(eq Equation, v string, r Root) (float64, error) {
	f := eq.Residual()
	if r.IsReal() {
		y, err := EvalAt(f, v, r.Re)
		if err != nil {
			return 0, err
		}
		return math.Abs(y), nil
	}
	coeffs, ok := PolyCoeffs(f, v)
	if !ok {
		return 0, fmt.Errorf("cannot substitute complex root into %s", f)
	}
	cs := make([]complex128, len(coeffs))
	for i, c := range coeffs {
		fv, _ := c.Float64()
		cs[i] = complex(fv, 0)
	}
	return cmplx.Abs(hornerC(cs, complex(r.Re, r.Im))), nil
}
