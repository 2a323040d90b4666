// SPDX-License-Identifier: Apache-2.0

package symbolic

// Diff differentiates e with respect to v. The result is simplified.
func Diff(e Expr, v string) Expr { return Simplify(diff(Simplify(e), v)) }

func diff(e Expr, v string) Expr {
	if !Contains(e, v) {
		return Int(0)
	}
	switch x := e.(type) {
	case *Sym:
		return Int(1)
	case *Add:
		terms := make([]Expr, len(x.Terms))
		for i, t := range x.Terms {
			terms[i] = diff(t, v)
		}
		return &Add{Terms: terms}
	case *Mul:
		terms := make([]Expr, 0, len(x.Factors))
		for i := range x.Factors {
			if !Contains(x.Factors[i], v) {
				continue
			}
			factors := make([]Expr, len(x.Factors))
			copy(factors, x.Factors)
			factors[i] = diff(x.Factors[i], v)
			terms = append(terms, &Mul{Factors: factors})
		}
		return &Add{Terms: terms}
	case *Pow:
		switch {
		case !Contains(x.Exp, v):
			// n * u^(n-1) * u'
			return &Mul{Factors: []Expr{
				x.Exp,
				&Pow{Base: x.Base, Exp: &Add{Terms: []Expr{x.Exp, Int(-1)}}},
				diff(x.Base, v),
			}}
		case !Contains(x.Base, v):
			// a^u * log(a) * u'
			return &Mul{Factors: []Expr{x, &Func{Name: "log", Arg: x.Base}, diff(x.Exp, v)}}
		}
		// u^w * (w' log u + w u'/u)
		return &Mul{Factors: []Expr{x, &Add{Terms: []Expr{
			&Mul{Factors: []Expr{diff(x.Exp, v), &Func{Name: "log", Arg: x.Base}}},
			&Mul{Factors: []Expr{x.Exp, diff(x.Base, v), &Pow{Base: x.Base, Exp: Int(-1)}}},
		}}}}
	case *Func:
		return &Mul{Factors: []Expr{funcDeriv(x.Name, x.Arg), diff(x.Arg, v)}}
	}
	return Int(0)
}

// funcDeriv is f'(u) for the elementary function f.
func funcDeriv(name string, u Expr) Expr {
	switch name {
	case "sin":
		return &Func{Name: "cos", Arg: u}
	case "cos":
		return Neg(&Func{Name: "sin", Arg: u})
	case "tan":
		return &Pow{Base: &Func{Name: "cos", Arg: u}, Exp: Int(-2)}
	case "exp":
		return &Func{Name: "exp", Arg: u}
	case "log", "ln":
		return &Pow{Base: u, Exp: Int(-1)}
	case "asin":
		return &Pow{Base: Sub(Int(1), Power(u, Int(2))), Exp: Frac(-1, 2)}
	case "acos":
		return Neg(&Pow{Base: Sub(Int(1), Power(u, Int(2))), Exp: Frac(-1, 2)})
	case "atan":
		return &Pow{Base: Sum(Int(1), Power(u, Int(2))), Exp: Int(-1)}
	case "abs":
		return Div(u, &Func{Name: "abs", Arg: u})
	case "sqrt":
		return Div(Int(1), Product(Int(2), Sqrt(u)))
	}
	return Int(0)
}
