// SPDX-License-Identifier: Apache-2.0

// Package symbolic is a small computer-algebra kernel over exact rationals.
//
// Expressions are immutable trees built from Num, Sym, Const, Add, Mul, Pow
// and Func nodes. Every transformation returns a new tree; callers usually
// pass results through Simplify to obtain the canonical form used for
// comparison and printing.
package symbolic

import (
	"math/big"
	"sort"
)

// Expr is a node in an expression tree.
type Expr interface {
	String() string
	LaTeX() string
	expr()
}

// Num is an exact rational constant.
type Num struct{ v *big.Rat }

// Sym is a free variable.
type Sym struct{ Name string }

// Const is a named mathematical constant: pi, e or oo (infinity).
type Const struct{ Name string }

// Add is a sum of terms.
type Add struct{ Terms []Expr }

// Mul is a product of factors.
type Mul struct{ Factors []Expr }

// Pow is Base raised to Exp.
type Pow struct{ Base, Exp Expr }

// Func is a single-argument elementary function application.
type Func struct {
	Name string
	Arg  Expr
}

func (*Num) expr()   {}
func (*Sym) expr()   {}
func (*Const) expr() {}
func (*Add) expr()   {}
func (*Mul) expr()   {}
func (*Pow) expr()   {}
func (*Func) expr()  {}

// Named constants.
var (
	Pi       = &Const{Name: "pi"}
	E        = &Const{Name: "e"}
	Infinity = &Const{Name: "oo"}
)

// Int returns the integer constant n.
func Int(n int64) *Num { return &Num{v: new(big.Rat).SetInt64(n)} }

// Frac returns the rational constant a/b. b must be non-zero.
func Frac(a, b int64) *Num { return &Num{v: big.NewRat(a, b)} }

// Rat wraps a copy of r.
func Rat(r *big.Rat) *Num { return &Num{v: new(big.Rat).Set(r)} }

// Float converts f to the exact rational it represents.
func Float(f float64) *Num {
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		return Int(0)
	}
	return &Num{v: r}
}

// Var returns the symbol called name.
func Var(name string) *Sym { return &Sym{Name: name} }

// Rat returns a copy of the receiver's value.
func (n *Num) Rat() *big.Rat { return new(big.Rat).Set(n.v) }

// Float64 returns the nearest float64.
func (n *Num) Float64() float64 {
	f, _ := n.v.Float64()
	return f
}

// IsInt reports whether the value is an integer.
func (n *Num) IsInt() bool { return n.v.IsInt() }

// Sign returns -1, 0 or +1.
func (n *Num) Sign() int { return n.v.Sign() }

func (n *Num) isZero() bool { return n.v.Sign() == 0 }
func (n *Num) isOne() bool  { return n.v.Cmp(big.NewRat(1, 1)) == 0 }

// Sum builds an unsimplified sum.
func Sum(terms ...Expr) Expr { return &Add{Terms: terms} }

// Product builds an unsimplified product.
func Product(factors ...Expr) Expr { return &Mul{Factors: factors} }

// Power builds base^exp.
func Power(base, exp Expr) Expr { return &Pow{Base: base, Exp: exp} }

// Neg builds -e.
func Neg(e Expr) Expr { return &Mul{Factors: []Expr{Int(-1), e}} }

// Sub builds a - b.
func Sub(a, b Expr) Expr { return &Add{Terms: []Expr{a, Neg(b)}} }

// Div builds a / b.
func Div(a, b Expr) Expr { return &Mul{Factors: []Expr{a, &Pow{Base: b, Exp: Int(-1)}}} }

// Call builds name(arg).
func Call(name string, arg Expr) Expr { return &Func{Name: name, Arg: arg} }

// Sqrt builds arg^(1/2).
func Sqrt(arg Expr) Expr { return &Pow{Base: arg, Exp: Frac(1, 2)} }

// Equal reports structural equality after simplification.
func Equal(a, b Expr) bool {
	return Simplify(a).String() == Simplify(b).String()
}

// Contains reports whether e references the symbol name.
func Contains(e Expr, name string) bool {
	switch x := e.(type) {
	case *Sym:
		return x.Name == name
	case *Add:
		for _, t := range x.Terms {
			if Contains(t, name) {
				return true
			}
		}
	case *Mul:
		for _, f := range x.Factors {
			if Contains(f, name) {
				return true
			}
		}
	case *Pow:
		return Contains(x.Base, name) || Contains(x.Exp, name)
	case *Func:
		return Contains(x.Arg, name)
	}
	return false
}

// FreeSymbols returns the sorted, de-duplicated symbol names in e.
func FreeSymbols(e Expr) []string {
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch x := e.(type) {
		case *Sym:
			seen[x.Name] = true
		case *Add:
			for _, t := range x.Terms {
				walk(t)
			}
		case *Mul:
			for _, f := range x.Factors {
				walk(f)
			}
		case *Pow:
			walk(x.Base)
			walk(x.Exp)
		case *Func:
			walk(x.Arg)
		}
	}
	walk(e)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Subs replaces every occurrence of the symbol name with val and simplifies.
func Subs(e Expr, name string, val Expr) Expr {
	return Simplify(replace(e, name, val))
}

func replace(e Expr, name string, val Expr) Expr {
	switch x := e.(type) {
	case *Sym:
		if x.Name == name {
			return val
		}
		return x
	case *Add:
		terms := make([]Expr, len(x.Terms))
		for i, t := range x.Terms {
			terms[i] = replace(t, name, val)
		}
		return &Add{Terms: terms}
	case *Mul:
		factors := make([]Expr, len(x.Factors))
		for i, f := range x.Factors {
			factors[i] = replace(f, name, val)
		}
		return &Mul{Factors: factors}
	case *Pow:
		return &Pow{Base: replace(x.Base, name, val), Exp: replace(x.Exp, name, val)}
	case *Func:
		return &Func{Name: x.Name, Arg: replace(x.Arg, name, val)}
	}
	return e
}

// splitCoeff separates a term into its rational coefficient and the rest.
// The rest is nil when the term is a pure number.
func splitCoeff(e Expr) (*big.Rat, Expr) {
	switch x := e.(type) {
	case *Num:
		return x.Rat(), nil
	case *Mul:
		coeff := big.NewRat(1, 1)
		var rest []Expr
		for _, f := range x.Factors {
			if n, ok := f.(*Num); ok {
				coeff.Mul(coeff, n.v)
				continue
			}
			rest = append(rest, f)
		}
		switch len(rest) {
		case 0:
			return coeff, nil
		case 1:
			return coeff, rest[0]
		}
		return coeff, &Mul{Factors: rest}
	}
	return big.NewRat(1, 1), e
}

// splitPow separates a factor into base and exponent.
func splitPow(e Expr) (Expr, Expr) {
	if p, ok := e.(*Pow); ok {
		return p.Base, p.Exp
	}
	return e, Int(1)
}

// withCoeff rebuilds coeff*rest without simplifying rest.
func withCoeff(coeff *big.Rat, rest Expr) Expr {
	if rest == nil {
		return Rat(coeff)
	}
	if coeff.Cmp(big.NewRat(1, 1)) == 0 {
		return rest
	}
	if m, ok := rest.(*Mul); ok {
		factors := append([]Expr{Rat(coeff)}, m.Factors...)
		return &Mul{Factors: factors}
	}
	return &Mul{Factors: []Expr{Rat(coeff), rest}}
}

// IsNumber reports whether e simplifies to an exact rational, returning it.
func IsNumber(e Expr) (*Num, bool) {
	n, ok := Simplify(e).(*Num)
	return n, ok
}

// isInfinite reports whether e is ∞ or a rational multiple of it.
func isInfinite(e Expr) bool {
	switch x := e.(type) {
	case *Const:
		return x.Name == Infinity.Name
	case *Mul:
		found := false
		for _, f := range x.Factors {
			if _, ok := f.(*Num); ok {
				continue
			}
			c, ok := f.(*Const)
			if !ok || c.Name != Infinity.Name || found {
				return false
			}
			found = true
		}
		return found
	}
	return false
}
