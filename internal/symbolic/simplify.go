// SPDX-License-Identifier: Apache-2.0

package symbolic

import (
	"math"
	"math/big"
	"sort"
)

// Simplify returns the canonical form of e: constants folded, nested sums
// and products flattened, like terms and like factors combined, numeric
// coefficients distributed over sums.
func Simplify(e Expr) Expr {
	switch x := e.(type) {
	case *Add:
		return simplifyAdd(x)
	case *Mul:
		return simplifyMul(x)
	case *Pow:
		return simplifyPow(x)
	case *Func:
		return simplifyFunc(x)
	}
	return e
}

type termBucket struct {
	coeff *big.Rat
	rest  Expr
}

func simplifyAdd(a *Add) Expr {
	work := make([]Expr, 0, len(a.Terms))
	for _, t := range a.Terms {
		work = append(work, Simplify(t))
	}

	constant := new(big.Rat)
	buckets := map[string]*termBucket{}
	var order []string
	var posInf, negInf bool

	for len(work) > 0 {
		t := work[0]
		work = work[1:]
		if inner, ok := t.(*Add); ok {
			work = append(work, inner.Terms...)
			continue
		}
		coeff, rest := splitCoeff(t)
		if rest == nil {
			constant.Add(constant, coeff)
			continue
		}
		if inner, ok := rest.(*Add); ok {
			for _, it := range inner.Terms {
				c, r := splitCoeff(it)
				work = append(work, withCoeff(new(big.Rat).Mul(c, coeff), r))
			}
			continue
		}
		if isInfinite(rest) {
			if coeff.Sign() > 0 {
				posInf = true
			} else if coeff.Sign() < 0 {
				negInf = true
			}
			continue
		}
		key := rest.String()
		if b, ok := buckets[key]; ok {
			b.coeff.Add(b.coeff, coeff)
			continue
		}
		buckets[key] = &termBucket{coeff: coeff, rest: rest}
		order = append(order, key)
	}

	switch {
	case posInf && negInf:
		return &Add{Terms: []Expr{Infinity, &Mul{Factors: []Expr{Int(-1), Infinity}}}}
	case posInf:
		return Infinity
	case negInf:
		return &Mul{Factors: []Expr{Int(-1), Infinity}}
	}

	terms := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		b := buckets[key]
		if b.coeff.Sign() == 0 {
			continue
		}
		terms = append(terms, withCoeff(b.coeff, b.rest))
	}
	sort.SliceStable(terms, func(i, j int) bool {
		_, ri := splitCoeff(terms[i])
		_, rj := splitCoeff(terms[j])
		di, dj := degreeKey(ri), degreeKey(rj)
		if di != dj {
			return di > dj
		}
		return ri.String() < rj.String()
	})
	if constant.Sign() != 0 {
		terms = append(terms, Rat(constant))
	}

	switch len(terms) {
	case 0:
		return Int(0)
	case 1:
		return terms[0]
	}
	return &Add{Terms: terms}
}

// degreeKey orders terms by total polynomial degree.
func degreeKey(e Expr) float64 {
	switch x := e.(type) {
	case *Sym:
		return 1
	case *Pow:
		if _, ok := x.Base.(*Sym); ok {
			if n, ok := x.Exp.(*Num); ok {
				return n.Float64()
			}
		}
	case *Mul:
		var d float64
		for _, f := range x.Factors {
			d += degreeKey(f)
		}
		return d
	}
	return 0
}

type factorBucket struct {
	base Expr
	exps []Expr
}

func simplifyMul(m *Mul) Expr {
	work := make([]Expr, 0, len(m.Factors))
	for _, f := range m.Factors {
		work = append(work, Simplify(f))
	}

	coeff := big.NewRat(1, 1)
	buckets := map[string]*factorBucket{}
	var order []string
	hasInf := false

	for len(work) > 0 {
		f := work[0]
		work = work[1:]
		if inner, ok := f.(*Mul); ok {
			work = append(work, inner.Factors...)
			continue
		}
		if n, ok := f.(*Num); ok {
			if n.isZero() {
				return Int(0)
			}
			coeff.Mul(coeff, n.v)
			continue
		}
		if isInfinite(f) {
			hasInf = true
			continue
		}
		base, exp := splitPow(f)
		key := base.String()
		if b, ok := buckets[key]; ok {
			b.exps = append(b.exps, exp)
			continue
		}
		buckets[key] = &factorBucket{base: base, exps: []Expr{exp}}
		order = append(order, key)
	}

	if hasInf {
		if coeff.Sign() < 0 {
			return &Mul{Factors: []Expr{Int(-1), Infinity}}
		}
		return Infinity
	}

	factors := make([]Expr, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		var exp Expr
		if len(b.exps) == 1 {
			exp = b.exps[0]
		} else {
			exp = Simplify(&Add{Terms: b.exps})
		}
		var f Expr
		if n, ok := exp.(*Num); ok && n.isOne() {
			f = b.base
		} else {
			f = simplifyPow(&Pow{Base: b.base, Exp: exp})
		}
		switch x := f.(type) {
		case *Num:
			if x.isZero() {
				return Int(0)
			}
			coeff.Mul(coeff, x.v)
		case *Mul:
			for _, inner := range x.Factors {
				if n, ok := inner.(*Num); ok {
					coeff.Mul(coeff, n.v)
					continue
				}
				factors = append(factors, inner)
			}
		default:
			factors = append(factors, f)
		}
	}

	sort.SliceStable(factors, func(i, j int) bool {
		ri, rj := factorRank(factors[i]), factorRank(factors[j])
		if ri != rj {
			return ri < rj
		}
		bi, _ := splitPow(factors[i])
		bj, _ := splitPow(factors[j])
		return bi.String() < bj.String()
	})

	if len(factors) == 0 {
		return Rat(coeff)
	}
	if len(factors) == 1 {
		if coeff.Cmp(big.NewRat(1, 1)) == 0 {
			return factors[0]
		}
		if sum, ok := factors[0].(*Add); ok {
			terms := make([]Expr, len(sum.Terms))
			for i, t := range sum.Terms {
				c, r := splitCoeff(t)
				terms[i] = withCoeff(new(big.Rat).Mul(c, coeff), r)
			}
			return simplifyAdd(&Add{Terms: terms})
		}
	}
	if coeff.Cmp(big.NewRat(1, 1)) == 0 {
		return &Mul{Factors: factors}
	}
	return &Mul{Factors: append([]Expr{Rat(coeff)}, factors...)}
}

func factorRank(e Expr) int {
	base, _ := splitPow(e)
	switch base.(type) {
	case *Const:
		return 0
	case *Sym:
		return 1
	case *Func:
		return 2
	case *Add:
		return 3
	}
	return 4
}

func simplifyPow(p *Pow) Expr {
	base := Simplify(p.Base)
	exp := Simplify(p.Exp)

	en, expIsNum := exp.(*Num)
	if expIsNum {
		if en.isZero() {
			return Int(1)
		}
		if en.isOne() {
			return base
		}
	}

	switch b := base.(type) {
	case *Num:
		if b.isOne() {
			return Int(1)
		}
		if b.isZero() {
			if expIsNum && en.Sign() > 0 {
				return Int(0)
			}
			return &Pow{Base: base, Exp: exp}
		}
		if expIsNum {
			if r, ok := ratPow(b.v, en.v); ok {
				return &Num{v: r}
			}
			if en.v.Cmp(big.NewRat(1, 2)) == 0 && b.IsInt() && b.Sign() > 0 {
				if out, ok := extractSquare(b.v.Num()); ok {
					return out
				}
			}
		}
	case *Const:
		if b.Name == E.Name {
			return simplifyFunc(&Func{Name: "exp", Arg: exp})
		}
		if b.Name == Infinity.Name && expIsNum {
			if en.Sign() > 0 {
				return Infinity
			}
			return Int(0)
		}
	case *Pow:
		if expIsNum && en.IsInt() {
			return Simplify(&Pow{Base: b.Base, Exp: &Mul{Factors: []Expr{b.Exp, en}}})
		}
	case *Mul:
		if expIsNum && en.IsInt() {
			factors := make([]Expr, len(b.Factors))
			for i, f := range b.Factors {
				factors[i] = &Pow{Base: f, Exp: en}
			}
			return simplifyMul(&Mul{Factors: factors})
		}
	case *Func:
		if b.Name == "exp" {
			return simplifyFunc(&Func{Name: "exp", Arg: Simplify(&Mul{Factors: []Expr{b.Arg, exp}})})
		}
	}
	return &Pow{Base: base, Exp: exp}
}

// ratPow computes b^e exactly when the result is rational.
func ratPow(b, e *big.Rat) (*big.Rat, bool) {
	if !e.Num().IsInt64() || !e.Denom().IsInt64() {
		return nil, false
	}
	p, q := e.Num().Int64(), e.Denom().Int64()
	if p > 512 || p < -512 || q > 16 {
		return nil, false
	}
	num, den := new(big.Int).Set(b.Num()), new(big.Int).Set(b.Denom())
	if q != 1 {
		neg := num.Sign() < 0
		if neg {
			if q%2 == 0 {
				return nil, false
			}
			num.Neg(num)
		}
		rn, ok := intRoot(num, int(q))
		if !ok {
			return nil, false
		}
		rd, ok := intRoot(den, int(q))
		if !ok {
			return nil, false
		}
		if neg {
			rn.Neg(rn)
		}
		num, den = rn, rd
	}
	if p < 0 {
		if num.Sign() == 0 {
			return nil, false
		}
		num, den = den, num
		p = -p
	}
	exp := big.NewInt(p)
	num.Exp(num, exp, nil)
	den.Exp(den, exp, nil)
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}
	return new(big.Rat).SetFrac(num, den), true
}

// intRoot returns the exact q-th root of a non-negative integer.
func intRoot(n *big.Int, q int) (*big.Int, bool) {
	if n.Sign() == 0 {
		return new(big.Int), true
	}
	if q == 2 {
		s := new(big.Int).Sqrt(n)
		if new(big.Int).Mul(s, s).Cmp(n) == 0 {
			return s, true
		}
		return nil, false
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	guess := int64(math.Round(math.Pow(f, 1/float64(q))))
	for c := guess - 1; c <= guess+1; c++ {
		if c < 0 {
			continue
		}
		r := big.NewInt(c)
		if new(big.Int).Exp(r, big.NewInt(int64(q)), nil).Cmp(n) == 0 {
			return r, true
		}
	}
	return nil, false
}

// extractSquare rewrites sqrt(n) as k*sqrt(m) when n has a square factor k².
func extractSquare(n *big.Int) (Expr, bool) {
	if !n.IsInt64() || n.Int64() > 1_000_000_000_000 {
		return nil, false
	}
	v := n.Int64()
	k := int64(1)
	for f := int64(2); f*f <= v; f++ {
		for v%(f*f) == 0 {
			v /= f * f
			k *= f
		}
	}
	if k == 1 {
		return nil, false
	}
	return &Mul{Factors: []Expr{Int(k), &Pow{Base: Int(v), Exp: Frac(1, 2)}}}, true
}

func simplifyFunc(f *Func) Expr {
	arg := Simplify(f.Arg)
	name := f.Name
	switch name {
	case "sqrt":
		return simplifyPow(&Pow{Base: arg, Exp: Frac(1, 2)})
	case "ln":
		name = "log"
	}

	if n, ok := arg.(*Num); ok {
		switch {
		case n.isZero() && (name == "sin" || name == "tan" || name == "asin" || name == "atan"):
			return Int(0)
		case n.isZero() && (name == "cos" || name == "exp"):
			return Int(1)
		case n.isOne() && (name == "log" || name == "acos"):
			return Int(0)
		case name == "abs":
			return &Num{v: new(big.Rat).Abs(n.v)}
		}
	}
	if c, ok := arg.(*Const); ok {
		switch {
		case c.Name == E.Name && name == "log":
			return Int(1)
		case c.Name == Pi.Name && (name == "sin" || name == "tan"):
			return Int(0)
		case c.Name == Pi.Name && name == "cos":
			return Int(-1)
		case c.Name == Infinity.Name && (name == "exp" || name == "log"):
			return Infinity
		}
	}
	if inner, ok := arg.(*Func); ok {
		if name == "exp" && inner.Name == "log" {
			return inner.Arg
		}
		if name == "log" && inner.Name == "exp" {
			return inner.Arg
		}
	}
	return &Func{Name: name, Arg: arg}
}
