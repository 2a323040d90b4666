// SPDX-License-Identifier: Apache-2.0

package symbolic

import (
	"math/big"
	"strings"
)

// Precedence levels used to decide parenthesization.
const (
	precSum = iota + 1
	precProduct
	precPower
	precAtom
)

func prec(e Expr) int {
	switch x := e.(type) {
	case *Num:
		if x.Sign() < 0 {
			return precSum
		}
		if !x.IsInt() {
			return precProduct
		}
		return precAtom
	case *Add:
		return precSum
	case *Mul:
		coeff, _ := splitCoeff(x)
		if coeff.Sign() < 0 {
			return precSum
		}
		return precProduct
	case *Pow:
		if n, ok := x.Exp.(*Num); ok {
			if n.v.Cmp(big.NewRat(1, 2)) == 0 {
				return precAtom
			}
			if n.Sign() < 0 {
				return precProduct
			}
		}
		return precPower
	}
	return precAtom
}

func paren(s string) string { return "(" + s + ")" }

func wrapAt(e Expr, min int) string {
	if prec(e) < min {
		return paren(e.String())
	}
	return e.String()
}

func (n *Num) String() string { return n.v.RatString() }

func (s *Sym) String() string { return s.Name }

func (c *Const) String() string { return c.Name }

func (f *Func) String() string { return f.Name + "(" + f.Arg.String() + ")" }

func (a *Add) String() string {
	var b strings.Builder
	for i, t := range a.Terms {
		coeff, rest := splitCoeff(t)
		neg := coeff.Sign() < 0
		term := withCoeff(new(big.Rat).Abs(coeff), rest)
		s := term.String()
		if prec(term) == precSum && (neg || i > 0) {
			s = paren(s)
		}
		switch {
		case i == 0 && neg:
			b.WriteString("-")
		case i > 0 && neg:
			b.WriteString(" - ")
		case i > 0:
			b.WriteString(" + ")
		}
		b.WriteString(s)
	}
	return b.String()
}

// fraction splits a product into sign, numerator and denominator factors.
func fraction(m *Mul) (neg bool, coeff *big.Rat, num, den []Expr) {
	coeff = big.NewRat(1, 1)
	for _, f := range m.Factors {
		if n, ok := f.(*Num); ok {
			coeff.Mul(coeff, n.v)
			continue
		}
		if p, ok := f.(*Pow); ok {
			if n, ok := p.Exp.(*Num); ok && n.Sign() < 0 {
				inv := new(big.Rat).Neg(n.v)
				if inv.Cmp(big.NewRat(1, 1)) == 0 {
					den = append(den, p.Base)
				} else {
					den = append(den, &Pow{Base: p.Base, Exp: &Num{v: inv}})
				}
				continue
			}
		}
		num = append(num, f)
	}
	if coeff.Sign() < 0 {
		neg = true
		coeff.Neg(coeff)
	}
	return neg, coeff, num, den
}

func (m *Mul) String() string {
	neg, coeff, num, den := fraction(m)

	var numParts []string
	if !coeff.Num().IsInt64() || coeff.Num().Int64() != 1 || len(num) == 0 {
		numParts = append(numParts, coeff.Num().String())
	}
	for _, f := range num {
		numParts = append(numParts, wrapAt(f, precProduct))
	}

	var denParts []string
	if !coeff.IsInt() {
		denParts = append(denParts, coeff.Denom().String())
	}
	for _, f := range den {
		denParts = append(denParts, wrapAt(f, precPower))
	}

	out := strings.Join(numParts, "*")
	if len(denParts) > 0 {
		d := strings.Join(denParts, "*")
		if len(denParts) > 1 {
			d = paren(d)
		}
		out += "/" + d
	}
	if neg {
		return "-" + out
	}
	return out
}

func (p *Pow) String() string {
	if n, ok := p.Exp.(*Num); ok {
		if n.v.Cmp(big.NewRat(1, 2)) == 0 {
			return "sqrt(" + p.Base.String() + ")"
		}
		if n.Sign() < 0 {
			return (&Mul{Factors: []Expr{p}}).String()
		}
	}
	return wrapAt(p.Base, precAtom) + "^" + wrapAt(p.Exp, precAtom)
}

// LaTeX renderings.

func (n *Num) LaTeX() string {
	if n.IsInt() {
		return n.v.Num().String()
	}
	r := new(big.Rat).Abs(n.v)
	s := `\frac{` + r.Num().String() + `}{` + r.Denom().String() + `}`
	if n.Sign() < 0 {
		return "-" + s
	}
	return s
}

func (s *Sym) LaTeX() string { return s.Name }

func (c *Const) LaTeX() string {
	switch c.Name {
	case Pi.Name:
		return `\pi`
	case Infinity.Name:
		return `\infty`
	}
	return c.Name
}

var latexFuncs = map[string]string{
	"sin":  `\sin`,
	"cos":  `\cos`,
	"tan":  `\tan`,
	"asin": `\arcsin`,
	"acos": `\arccos`,
	"atan": `\arctan`,
	"log":  `\log`,
}

func (f *Func) LaTeX() string {
	switch f.Name {
	case "exp":
		return `e^{` + f.Arg.LaTeX() + `}`
	case "abs":
		return `\left|` + f.Arg.LaTeX() + `\right|`
	}
	name, ok := latexFuncs[f.Name]
	if !ok {
		name = `\operatorname{` + f.Name + `}`
	}
	return name + `\left(` + f.Arg.LaTeX() + `\right)`
}

func latexWrap(e Expr, min int) string {
	if prec(e) < min {
		return `\left(` + e.LaTeX() + `\right)`
	}
	return e.LaTeX()
}

func (a *Add) LaTeX() string {
	var b strings.Builder
	for i, t := range a.Terms {
		coeff, rest := splitCoeff(t)
		neg := coeff.Sign() < 0
		term := withCoeff(new(big.Rat).Abs(coeff), rest)
		s := term.LaTeX()
		if prec(term) == precSum && (neg || i > 0) {
			s = `\left(` + s + `\right)`
		}
		switch {
		case i == 0 && neg:
			b.WriteString("-")
		case i > 0 && neg:
			b.WriteString(" - ")
		case i > 0:
			b.WriteString(" + ")
		}
		b.WriteString(s)
	}
	return b.String()
}

func joinLaTeX(parts []string) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			if p != "" && p[0] >= '0' && p[0] <= '9' {
				b.WriteString(` \cdot `)
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(p)
	}
	return b.String()
}

func (m *Mul) LaTeX() string {
	neg, coeff, num, den := fraction(m)

	var numParts []string
	if !coeff.Num().IsInt64() || coeff.Num().Int64() != 1 || len(num) == 0 {
		numParts = append(numParts, coeff.Num().String())
	}
	for _, f := range num {
		numParts = append(numParts, latexWrap(f, precProduct))
	}
	out := joinLaTeX(numParts)

	var denParts []string
	if !coeff.IsInt() {
		denParts = append(denParts, coeff.Denom().String())
	}
	for _, f := range den {
		denParts = append(denParts, latexWrap(f, precProduct))
	}
	if len(denParts) > 0 {
		out = `\frac{` + out + `}{` + joinLaTeX(denParts) + `}`
	}
	if neg {
		return "-" + out
	}
	return out
}

func (p *Pow) LaTeX() string {
	if n, ok := p.Exp.(*Num); ok {
		if n.v.Cmp(big.NewRat(1, 2)) == 0 {
			return `\sqrt{` + p.Base.LaTeX() + `}`
		}
		if n.Sign() < 0 {
			return (&Mul{Factors: []Expr{p}}).LaTeX()
		}
	}
	return latexWrap(p.Base, precAtom) + `^{` + p.Exp.LaTeX() + `}`
}
