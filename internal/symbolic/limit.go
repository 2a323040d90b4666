// SPDX-License-Identifier: Apache-2.0

package symbolic

import (
	"errors"
	"math"
	"math/big"
)

// ErrLimitUndefined is returned when the one-sided limits disagree or
// the expression oscillates.
var ErrLimitUndefined = errors.New("limit does not exist")

// Indeterminate forms reported by IndeterminateForm.
const (
	FormZeroOverZero  = "0/0"
	FormInfOverInf    = "∞/∞"
	FormInfMinusInf   = "∞ - ∞"
	FormInfinite      = "∞"
	maxLHopitalRounds = 5
)

// LimitResult is the value of a limit. Value is nil when only a numeric
// approximation is known.
type LimitResult struct {
	Value   Expr
	Numeric float64
	Form    string
	Method  string
}

func (r LimitResult) String() string {
	if r.Value != nil {
		if isInfinite(r.Value) {
			if c, _ := splitCoeff(r.Value); c.Sign() < 0 {
				return "-∞"
			}
			return "∞"
		}
		return r.Value.String()
	}
	return FormatFloat(r.Numeric)
}

// LaTeX renders the limit value.
func (r LimitResult) LaTeX() string {
	if r.Value != nil {
		return r.Value.LaTeX()
	}
	return FormatFloat(r.Numeric)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// pointValue evaluates e at the limit point. Infinite points are
// approximated by a large probe.
func pointValue(e Expr, v string, point Expr) float64 {
	if isInfinite(point) {
		x := 1e8
		if c, _ := splitCoeff(point); c.Sign() < 0 {
			x = -x
		}
		y, err := EvalAt(e, v, x)
		if err != nil {
			return math.NaN()
		}
		if math.Abs(y) > 1e6 {
			return math.Copysign(math.Inf(1), y)
		}
		return y
	}
	p, err := Eval(point, nil)
	if err != nil {
		return math.NaN()
	}
	y, err := EvalAt(e, v, p)
	if err != nil {
		return math.NaN()
	}
	return y
}

func nearZero(f float64) bool { return math.Abs(f) < 1e-9 }

// quotient splits e into numerator and denominator when e has one.
func quotient(e Expr) (Expr, Expr, bool) {
	switch x := e.(type) {
	case *Mul:
		neg, coeff, num, den := fraction(x)
		if len(den) == 0 && coeff.IsInt() {
			return nil, nil, false
		}
		n := new(big.Rat).SetInt(coeff.Num())
		if neg {
			n.Neg(n)
		}
		numerator := Simplify(&Mul{Factors: append([]Expr{Rat(n)}, num...)})
		denominator := Simplify(&Mul{Factors: append([]Expr{Rat(new(big.Rat).SetInt(coeff.Denom()))}, den...)})
		return numerator, denominator, true
	case *Pow:
		if n, ok := x.Exp.(*Num); ok && n.Sign() < 0 {
			return Int(1), Simplify(&Pow{Base: x.Base, Exp: &Num{v: new(big.Rat).Neg(n.v)}}), true
		}
	}
	return nil, nil, false
}

// IndeterminateForm reports the form obtained by substituting the limit
// point directly, or "" when substitution gives a finite value.
func IndeterminateForm(e Expr, v string, point Expr) string {
	s := Simplify(e)
	if num, den, ok := quotient(s); ok {
		nv, dv := pointValue(num, v, point), pointValue(den, v, point)
		switch {
		case nearZero(nv) && nearZero(dv):
			return FormZeroOverZero
		case math.IsInf(nv, 0) && math.IsInf(dv, 0):
			return FormInfOverInf
		}
	}
	if sum, ok := s.(*Add); ok {
		var pos, neg bool
		for _, t := range sum.Terms {
			tv := pointValue(t, v, point)
			pos = pos || math.IsInf(tv, 1)
			neg = neg || math.IsInf(tv, -1)
		}
		if pos && neg {
			return FormInfMinusInf
		}
	}
	if math.IsInf(pointValue(s, v, point), 0) {
		return FormInfinite
	}
	return ""
}

// Limit computes the limit of e as v approaches point. point may be
// Infinity or its negation.
func Limit(e Expr, v string, point Expr) (LimitResult, error) {
	s := Simplify(e)
	point = Simplify(point)
	form := IndeterminateForm(s, v, point)

	if !isInfinite(point) && form == "" {
		if p, err := Eval(point, nil); err == nil {
			if y, err := EvalAt(s, v, p); err == nil && finite(y) {
				return LimitResult{Value: Subs(s, v, point), Numeric: y, Method: "direct_substitution"}, nil
			}
		}
	}

	if form == FormZeroOverZero || form == FormInfOverInf {
		num, den, _ := quotient(s)
		if r, ok := lhopital(num, den, v, point); ok {
			return LimitResult{Value: r, Numeric: pointValue(r, v, point), Form: form, Method: "lhopitals_rule"}, nil
		}
	}

	r, ok := numericLimit(s, v, point)
	if !ok {
		return LimitResult{Form: form}, ErrLimitUndefined
	}
	r.Form = form
	return r, nil
}

func lhopital(num, den Expr, v string, point Expr) (Expr, bool) {
	for round := 0; round < maxLHopitalRounds; round++ {
		num, den = Diff(num, v), Diff(den, v)
		if isInfinite(point) {
			if !Contains(den, v) && !Contains(num, v) {
				if n, ok := den.(*Num); ok && n.isZero() {
					return nil, false
				}
				return Simplify(Div(num, den)), true
			}
		} else {
			dv := pointValue(den, v, point)
			if finite(dv) && !nearZero(dv) {
				r := Subs(Div(num, den), v, point)
				if y, err := Eval(r, nil); err == nil && finite(y) {
					return r, true
				}
				return nil, false
			}
		}
		nv, dv := pointValue(num, v, point), pointValue(den, v, point)
		indeterminate := (nearZero(nv) && nearZero(dv)) || (math.IsInf(nv, 0) && math.IsInf(dv, 0))
		if !indeterminate {
			return nil, false
		}
	}
	return nil, false
}

func numericLimit(e Expr, v string, point Expr) (LimitResult, bool) {
	eval := func(x float64) float64 {
		y, err := EvalAt(e, v, x)
		if err != nil {
			return math.NaN()
		}
		return y
	}

	if isInfinite(point) {
		sign := 1.0
		if c, _ := splitCoeff(point); c.Sign() < 0 {
			sign = -1
		}
		a, b := eval(sign*1e6), eval(sign*1e9)
		switch {
		case math.Abs(b) > 1e8 && math.Abs(b) > math.Abs(a) && math.Signbit(a) == math.Signbit(b):
			return infiniteResult(b), true
		case finite(a) && finite(b) && math.Abs(a-b) < 1e-4*(1+math.Abs(b)):
			return roundedResult(b), true
		}
		return LimitResult{}, false
	}

	p, err := Eval(point, nil)
	if err != nil {
		return LimitResult{}, false
	}
	const h = 1e-7
	left, right := eval(p-h), eval(p+h)
	if !finite(left) || !finite(right) {
		return LimitResult{}, false
	}
	if math.Abs(left) > 1e6 && math.Abs(right) > 1e6 {
		if math.Signbit(left) != math.Signbit(right) {
			return LimitResult{}, false
		}
		return infiniteResult(right), true
	}
	if math.Abs(left-right) > 1e-4*(1+math.Abs(right)) {
		return LimitResult{}, false
	}
	return roundedResult((left + right) / 2), true
}

func infiniteResult(sign float64) LimitResult {
	if sign < 0 {
		return LimitResult{Value: Neg(Infinity), Numeric: math.Inf(-1), Method: "numeric_approximation"}
	}
	return LimitResult{Value: Infinity, Numeric: math.Inf(1), Method: "numeric_approximation"}
}

func roundedResult(f float64) LimitResult {
	if r, ok := nearRational(f); ok {
		return LimitResult{Value: &Num{v: r}, Numeric: f, Method: "numeric_approximation"}
	}
	return LimitResult{Numeric: f, Method: "numeric_approximation"}
}

// nearRational finds a fraction with denominator at most 1000 within
// 1e-6 of f, by continued-fraction expansion.
func nearRational(f float64) (*big.Rat, bool) {
	if !finite(f) || math.Abs(f) > 1e12 {
		return nil, false
	}
	x := f
	h0, h1 := 0.0, 1.0
	k0, k1 := 1.0, 0.0
	for i := 0; i < 24; i++ {
		a := math.Floor(x)
		h := a*h1 + h0
		k := a*k1 + k0
		if k > 1000 {
			break
		}
		if math.Abs(f-h/k) < 1e-6 {
			return big.NewRat(int64(h), int64(k)), true
		}
		h0, h1 = h1, h
		k0, k1 = k1, k
		frac := x - a
		if frac < 1e-12 {
			break
		}
		x = 1 / frac
	}
	return nil, false
}
