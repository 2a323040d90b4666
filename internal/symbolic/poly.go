// SPDX-License-Identifier: Apache-2.0

package symbolic

import (
	"math/big"
	"sort"
)

const maxExpandPower = 12

// Expand distributes products over sums and multiplies out positive
// integer powers of sums.
func Expand(e Expr) Expr { return Simplify(expand(Simplify(e))) }

func expand(e Expr) Expr {
	switch x := e.(type) {
	case *Add:
		terms := make([]Expr, len(x.Terms))
		for i, t := range x.Terms {
			terms[i] = expand(t)
		}
		return Simplify(&Add{Terms: terms})
	case *Mul:
		var result Expr = Int(1)
		for _, f := range x.Factors {
			result = distribute(result, expand(f))
		}
		return result
	case *Pow:
		base := expand(x.Base)
		if n, ok := x.Exp.(*Num); ok && n.IsInt() && n.Sign() > 0 && n.v.Num().Int64() <= maxExpandPower {
			if _, isSum := base.(*Add); isSum {
				var result Expr = Int(1)
				for i := int64(0); i < n.v.Num().Int64(); i++ {
					result = distribute(result, base)
				}
				return result
			}
		}
		return Simplify(&Pow{Base: base, Exp: expand(x.Exp)})
	case *Func:
		return Simplify(&Func{Name: x.Name, Arg: expand(x.Arg)})
	}
	return e
}

func termsOf(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.Terms
	}
	return []Expr{e}
}

func distribute(a, b Expr) Expr {
	as, bs := termsOf(a), termsOf(b)
	out := make([]Expr, 0, len(as)*len(bs))
	for _, s := range as {
		for _, t := range bs {
			out = append(out, Simplify(&Mul{Factors: []Expr{s, t}}))
		}
	}
	return Simplify(&Add{Terms: out})
}

// monomial reads t as coeff*v^deg with coeff free of v.
func monomial(t Expr, v string) (int, Expr, bool) {
	if !Contains(t, v) {
		return 0, t, true
	}
	switch x := t.(type) {
	case *Sym:
		return 1, Int(1), true
	case *Pow:
		if s, ok := x.Base.(*Sym); ok && s.Name == v {
			if n, ok := x.Exp.(*Num); ok && n.IsInt() && n.Sign() > 0 && n.v.Num().IsInt64() {
				return int(n.v.Num().Int64()), Int(1), true
			}
		}
	case *Mul:
		deg := -1
		var rest []Expr
		for _, f := range x.Factors {
			if !Contains(f, v) {
				rest = append(rest, f)
				continue
			}
			if deg >= 0 {
				return 0, nil, false
			}
			d, _, ok := monomial(f, v)
			if !ok {
				return 0, nil, false
			}
			deg = d
		}
		var coeff Expr = Int(1)
		if len(rest) > 0 {
			coeff = Simplify(&Mul{Factors: rest})
		}
		return deg, coeff, true
	}
	return 0, nil, false
}

// polyTerms reads e as a polynomial in v, returning coefficient by degree.
func polyTerms(e Expr, v string) (map[int]Expr, int, bool) {
	coeffs := map[int]Expr{}
	maxDeg := 0
	for _, t := range termsOf(Expand(e)) {
		d, c, ok := monomial(t, v)
		if !ok {
			return nil, 0, false
		}
		if prev, has := coeffs[d]; has {
			coeffs[d] = Simplify(&Add{Terms: []Expr{prev, c}})
		} else {
			coeffs[d] = c
		}
		if d > maxDeg {
			maxDeg = d
		}
	}
	for maxDeg > 0 {
		c, has := coeffs[maxDeg]
		if n, ok := c.(*Num); has && !(ok && n.isZero()) {
			break
		}
		delete(coeffs, maxDeg)
		maxDeg--
	}
	return coeffs, maxDeg, true
}

// Degree returns the polynomial degree of e in v, or -1 if e is not a
// polynomial in v.
func Degree(e Expr, v string) int {
	_, d, ok := polyTerms(e, v)
	if !ok {
		return -1
	}
	return d
}

// PolyCoeffs returns the rational coefficients of e in v, lowest degree
// first. It fails when e is not a polynomial with rational coefficients.
func PolyCoeffs(e Expr, v string) ([]*big.Rat, bool) {
	terms, deg, ok := polyTerms(e, v)
	if !ok {
		return nil, false
	}
	out := make([]*big.Rat, deg+1)
	for i := range out {
		c, has := terms[i]
		if !has {
			out[i] = new(big.Rat)
			continue
		}
		n, isNum := c.(*Num)
		if !isNum {
			return nil, false
		}
		out[i] = n.Rat()
	}
	return out, true
}

// Collect groups the terms of e by powers of v, highest power first.
func Collect(e Expr, v string) Expr {
	terms, deg, ok := polyTerms(e, v)
	if !ok {
		return Simplify(e)
	}
	var out []Expr
	for d := deg; d >= 0; d-- {
		c, has := terms[d]
		if !has {
			continue
		}
		if n, ok := c.(*Num); ok && n.isZero() {
			continue
		}
		var mono Expr
		switch d {
		case 0:
			mono = c
		case 1:
			mono = &Mul{Factors: []Expr{c, Var(v)}}
		default:
			mono = &Mul{Factors: []Expr{c, &Pow{Base: Var(v), Exp: Int(int64(d))}}}
		}
		if _, isSum := c.(*Add); isSum {
			out = append(out, mono)
		} else {
			out = append(out, Simplify(mono))
		}
	}
	switch len(out) {
	case 0:
		return Int(0)
	case 1:
		return out[0]
	}
	return &Add{Terms: out}
}

// FromCoeffs builds the polynomial sum c[i]*v^i.
func FromCoeffs(coeffs []*big.Rat, v string) Expr {
	terms := make([]Expr, 0, len(coeffs))
	for i, c := range coeffs {
		if c.Sign() == 0 {
			continue
		}
		terms = append(terms, &Mul{Factors: []Expr{Rat(c), &Pow{Base: Var(v), Exp: Int(int64(i))}}})
	}
	return Simplify(&Add{Terms: terms})
}

// Factor factors a univariate polynomial with rational coefficients into
// its content, one linear factor per rational root and an irreducible
// remainder. Anything else comes back simplified but otherwise unchanged.
func Factor(e Expr) Expr {
	s := Simplify(e)
	syms := FreeSymbols(s)
	if len(syms) != 1 {
		return s
	}
	v := syms[0]
	coeffs, ok := PolyCoeffs(s, v)
	if !ok || len(coeffs) < 2 {
		return s
	}

	ints, scale := toIntPoly(coeffs)
	content := contentOf(ints)
	if ints[len(ints)-1].Sign() < 0 {
		content.Neg(content)
	}
	for i := range ints {
		ints[i] = new(big.Int).Quo(ints[i], content)
	}
	constant := new(big.Rat).SetFrac(content, scale)

	roots, rest := rationalRoots(ints)

	var factors []Expr
	if constant.Cmp(big.NewRat(1, 1)) != 0 {
		factors = append(factors, Rat(constant))
	}
	for _, r := range groupRoots(roots) {
		lin := Simplify(&Add{Terms: []Expr{
			&Mul{Factors: []Expr{&Num{v: new(big.Rat).SetInt(r.value.Denom())}, Var(v)}},
			&Num{v: new(big.Rat).Neg(new(big.Rat).SetInt(r.value.Num()))},
		}})
		if r.mult > 1 {
			factors = append(factors, &Pow{Base: lin, Exp: Int(int64(r.mult))})
		} else {
			factors = append(factors, lin)
		}
	}
	if len(rest) > 1 {
		restRat := make([]*big.Rat, len(rest))
		for i, c := range rest {
			restRat[i] = new(big.Rat).SetInt(c)
		}
		factors = append(factors, FromCoeffs(restRat, v))
	}

	nonConst := len(factors)
	if constant.Cmp(big.NewRat(1, 1)) != 0 {
		nonConst--
	}
	if nonConst <= 1 && constant.Cmp(big.NewRat(1, 1)) == 0 {
		return s
	}
	if len(factors) == 1 {
		return factors[0]
	}
	return &Mul{Factors: factors}
}

type rootMult struct {
	value *big.Rat
	mult  int
}

func groupRoots(roots []*big.Rat) []rootMult {
	sorted := append([]*big.Rat(nil), roots...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })
	var out []rootMult
	for _, r := range sorted {
		if n := len(out); n > 0 && out[n-1].value.Cmp(r) == 0 {
			out[n-1].mult++
			continue
		}
		out = append(out, rootMult{value: r, mult: 1})
	}
	return out
}

// toIntPoly clears denominators, returning the integer coefficients and
// the common multiplier applied.
func toIntPoly(coeffs []*big.Rat) ([]*big.Int, *big.Int) {
	l := big.NewInt(1)
	for _, c := range coeffs {
		g := new(big.Int).GCD(nil, nil, l, c.Denom())
		l.Mul(l, new(big.Int).Quo(c.Denom(), g))
	}
	out := make([]*big.Int, len(coeffs))
	for i, c := range coeffs {
		out[i] = new(big.Int).Mul(c.Num(), new(big.Int).Quo(l, c.Denom()))
	}
	return out, l
}

func contentOf(ints []*big.Int) *big.Int {
	g := new(big.Int)
	for _, c := range ints {
		g.GCD(nil, nil, g, new(big.Int).Abs(c))
	}
	if g.Sign() == 0 {
		return big.NewInt(1)
	}
	return g
}

const maxRootCandidate = 1_000_000

func divisors(n *big.Int) []int64 {
	a := new(big.Int).Abs(n)
	if !a.IsInt64() || a.Int64() > maxRootCandidate || a.Sign() == 0 {
		return nil
	}
	v := a.Int64()
	var out []int64
	for d := int64(1); d*d <= v; d++ {
		if v%d == 0 {
			out = append(out, d)
			if d != v/d {
				out = append(out, v/d)
			}
		}
	}
	return out
}

func evalRatPoly(p []*big.Rat, x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, p[i])
	}
	return acc
}

// divideRoot divides p by (x - r), lowest degree first.
func divideRoot(p []*big.Rat, r *big.Rat) []*big.Rat {
	n := len(p) - 1
	q := make([]*big.Rat, n)
	q[n-1] = new(big.Rat).Set(p[n])
	for i := n - 1; i >= 1; i-- {
		q[i-1] = new(big.Rat).Add(p[i], new(big.Rat).Mul(r, q[i]))
	}
	return q
}

// rationalRoots extracts every rational root (with multiplicity) of an
// integer polynomial and returns the deflated integer remainder.
func rationalRoots(ints []*big.Int) ([]*big.Rat, []*big.Int) {
	p := make([]*big.Rat, len(ints))
	for i, c := range ints {
		p[i] = new(big.Rat).SetInt(c)
	}
	var roots []*big.Rat
	for len(p) > 1 && p[0].Sign() == 0 {
		roots = append(roots, new(big.Rat))
		p = p[1:]
	}

	for len(p) > 1 {
		found := false
		lead := p[len(p)-1].Num()
		for _, a := range divisors(p[0].Num()) {
			for _, b := range divisors(lead) {
				for _, sign := range []int64{1, -1} {
					r := big.NewRat(sign*a, b)
					if evalRatPoly(p, r).Sign() == 0 {
						roots = append(roots, r)
						q := divideRoot(p, r)
						den := new(big.Rat).SetInt(r.Denom())
						for i := range q {
							q[i].Quo(q[i], den)
						}
						p = q
						found = true
						break
					}
				}
				if found {
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			break
		}
	}

	rest := make([]*big.Int, len(p))
	for i, c := range p {
		rest[i] = new(big.Int).Set(c.Num())
	}
	return roots, rest
}
