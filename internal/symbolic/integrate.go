// SPDX-License-Identifier: Apache-2.0

package symbolic

// Integral is an unevaluated antiderivative, produced when no rule applies.
type Integral struct {
	Integrand Expr
	Var       string
}

func (i *Integral) expr() {}

func (i *Integral) String() string { return "Integral(" + i.Integrand.String() + ", " + i.Var + ")" }

func (i *Integral) LaTeX() string { return `\int ` + i.Integrand.LaTeX() + ` \, d` + i.Var }

const maxPartsDepth = 6

// Integrate returns an antiderivative of e with respect to v without the
// constant of integration. ok is false when no rule applies; the returned
// expression is then an *Integral.
func Integrate(e Expr, v string) (Expr, bool) {
	s := Simplify(e)
	if r, ok := integrate(s, v, 0); ok {
		return Simplify(r), true
	}
	if ex := Expand(s); ex.String() != s.String() {
		if r, ok := integrate(ex, v, 0); ok {
			return Simplify(r), true
		}
	}
	return &Integral{Integrand: s, Var: v}, false
}

// DefiniteIntegral evaluates the integral of e over [a, b].
func DefiniteIntegral(e Expr, v string, a, b Expr) (Expr, bool) {
	anti, ok := Integrate(e, v)
	if !ok {
		return anti, false
	}
	return Simplify(Sub(Subs(anti, v, b), Subs(anti, v, a))), true
}

func integrate(e Expr, v string, depth int) (Expr, bool) {
	if !Contains(e, v) {
		return &Mul{Factors: []Expr{e, Var(v)}}, true
	}
	switch x := e.(type) {
	case *Sym:
		return Div(Power(x, Int(2)), Int(2)), true
	case *Add:
		terms := make([]Expr, len(x.Terms))
		for i, t := range x.Terms {
			r, ok := integrate(t, v, depth)
			if !ok {
				return nil, false
			}
			terms[i] = r
		}
		return &Add{Terms: terms}, true
	case *Mul:
		return integrateProduct(x, v, depth)
	case *Pow:
		return integratePow(x, v)
	case *Func:
		return integrateFunc(x, v)
	}
	return nil, false
}

func integrateProduct(m *Mul, v string, depth int) (Expr, bool) {
	var consts, deps []Expr
	for _, f := range m.Factors {
		if Contains(f, v) {
			deps = append(deps, f)
		} else {
			consts = append(consts, f)
		}
	}
	var inner Expr
	var ok bool
	switch len(deps) {
	case 1:
		inner, ok = integrate(deps[0], v, depth)
	case 2:
		inner, ok = byParts(deps[0], deps[1], v, depth)
		if !ok {
			inner, ok = byParts(deps[1], deps[0], v, depth)
		}
	}
	if !ok {
		return nil, false
	}
	if len(consts) == 0 {
		return inner, true
	}
	return &Mul{Factors: append(consts, inner)}, true
}

// byParts integrates u*dv where u is a positive integer power of v and dv
// has a known antiderivative: ∫u dv = u*V - ∫u' V.
func byParts(u, dv Expr, v string, depth int) (Expr, bool) {
	if depth >= maxPartsDepth {
		return nil, false
	}
	if d, _, ok := monomial(u, v); !ok || d < 1 {
		return nil, false
	}
	V, ok := integrate(dv, v, depth+1)
	if !ok {
		return nil, false
	}
	V = Simplify(V)
	rest, ok := integrate(Simplify(&Mul{Factors: []Expr{Diff(u, v), V}}), v, depth+1)
	if !ok {
		return nil, false
	}
	return Sub(&Mul{Factors: []Expr{u, V}}, rest), true
}

// linear reads u as a*v + b with a non-zero and free of v.
func linear(u Expr, v string) (Expr, bool) {
	terms, deg, ok := polyTerms(u, v)
	if !ok || deg != 1 {
		return nil, false
	}
	return terms[1], true
}

func integratePow(p *Pow, v string) (Expr, bool) {
	switch {
	case !Contains(p.Exp, v):
		a, ok := linear(p.Base, v)
		if !ok {
			return nil, false
		}
		if n, isNum := Simplify(p.Exp).(*Num); isNum && n.v.Cmp(Int(-1).v) == 0 {
			return Div(&Func{Name: "log", Arg: p.Base}, a), true
		}
		next := Simplify(Sum(p.Exp, Int(1)))
		return Div(Power(p.Base, next), Product(a, next)), true
	case !Contains(p.Base, v):
		a, ok := linear(p.Exp, v)
		if !ok {
			return nil, false
		}
		return Div(p, Product(a, &Func{Name: "log", Arg: p.Base})), true
	}
	return nil, false
}

func integrateFunc(f *Func, v string) (Expr, bool) {
	a, ok := linear(f.Arg, v)
	if !ok {
		return nil, false
	}
	u := f.Arg
	var anti Expr
	switch f.Name {
	case "sin":
		anti = Neg(&Func{Name: "cos", Arg: u})
	case "cos":
		anti = &Func{Name: "sin", Arg: u}
	case "tan":
		anti = Neg(&Func{Name: "log", Arg: &Func{Name: "cos", Arg: u}})
	case "exp":
		anti = &Func{Name: "exp", Arg: u}
	case "log":
		anti = Sub(Product(u, &Func{Name: "log", Arg: u}), u)
	default:
		return nil, false
	}
	return Div(anti, a), true
}
