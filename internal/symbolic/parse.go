// SPDX-License-Identifier: Apache-2.0

package symbolic

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ParseError reports where and why an expression could not be read.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

// Equation is LHS = RHS.
type Equation struct {
	LHS, RHS Expr
}

// Residual returns LHS - RHS simplified.
func (eq Equation) Residual() Expr { return Simplify(Sub(eq.LHS, eq.RHS)) }

func (eq Equation) String() string { return eq.LHS.String() + " = " + eq.RHS.String() }

// LaTeX renders the equation.
func (eq Equation) LaTeX() string { return eq.LHS.LaTeX() + " = " + eq.RHS.LaTeX() }

// Functions recognised by the parser. ln is an alias for log.
var knownFuncs = []string{"sqrt", "asin", "acos", "atan", "sin", "cos", "tan", "exp", "log", "ln", "abs"}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokFunc
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var runeRewrites = map[rune]string{
	'×': "*",
	'·': "*",
	'÷': "/",
	'−': "-",
	'²': "^2",
	'³': "^3",
	'π': "pi",
}

func tokenize(input string) ([]token, error) {
	var b strings.Builder
	for _, r := range input {
		if s, ok := runeRewrites[r]; ok {
			b.WriteString(s)
			continue
		}
		b.WriteRune(r)
	}
	src := strings.ReplaceAll(b.String(), "**", "^")

	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case unicode.IsDigit(c) || c == '.':
			start := i
			dot := false
			for i < len(src) && (unicode.IsDigit(rune(src[i])) || (src[i] == '.' && !dot)) {
				if src[i] == '.' {
					dot = true
				}
				i++
			}
			if src[start:i] == "." {
				return nil, &ParseError{Input: input, Pos: start, Msg: "stray decimal point"}
			}
			toks = append(toks, token{kind: tokNum, text: src[start:i], pos: start})
		case isLetter(c):
			start := i
			for i < len(src) && isLetter(rune(src[i])) {
				i++
			}
			toks = append(toks, splitIdent(src[start:i], start)...)
		case strings.ContainsRune("+-*/^", c):
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(' || c == '[' || c == '{':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')' || c == ']' || c == '}':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, &ParseError{Input: input, Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func isLetter(c rune) bool { return c < unicode.MaxASCII && unicode.IsLetter(c) }

// splitIdent breaks a run of letters into function names, the constant pi,
// and single-letter symbols, so "2xy" and "sinx" read as products and calls.
func splitIdent(run string, pos int) []token {
	var out []token
	lower := strings.ToLower(run)
	for i := 0; i < len(run); {
		matched := false
		for _, fn := range knownFuncs {
			if strings.HasPrefix(lower[i:], fn) {
				out = append(out, token{kind: tokFunc, text: fn, pos: pos + i})
				i += len(fn)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if strings.HasPrefix(lower[i:], "pi") {
			out = append(out, token{kind: tokIdent, text: "pi", pos: pos + i})
			i += 2
			continue
		}
		out = append(out, token{kind: tokIdent, text: run[i : i+1], pos: pos + i})
		i++
	}
	return out
}

type parser struct {
	input string
	toks  []token
	pos   int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) fail(t token, format string, args ...any) error {
	return &ParseError{Input: p.input, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

// Parse reads an infix expression. Juxtaposition is multiplication.
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &ParseError{Input: input, Msg: "empty expression"}
	}
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: toks}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.fail(t, "unexpected %q", t.text)
	}
	return e, nil
}

// ParseEquation reads "lhs = rhs". Exactly one '=' is required.
func ParseEquation(input string) (Equation, error) {
	parts := strings.Split(input, "=")
	if len(parts) != 2 {
		return Equation{}, &ParseError{Input: input, Msg: fmt.Sprintf("expected one '=', found %d", len(parts)-1)}
	}
	lhs, err := Parse(parts[0])
	if err != nil {
		return Equation{}, fmt.Errorf("left side: %w", err)
	}
	rhs, err := Parse(parts[1])
	if err != nil {
		return Equation{}, fmt.Errorf("right side: %w", err)
	}
	return Equation{LHS: lhs, RHS: rhs}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) parseSum() (Expr, error) {
	first, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			break
		}
		p.next()
		rhs, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			rhs = Neg(rhs)
		}
		terms = append(terms, rhs)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return &Add{Terms: terms}, nil
}

func startsPrimary(t token) bool {
	return t.kind == tokNum || t.kind == tokIdent || t.kind == tokFunc || t.kind == tokLParen
}

func (p *parser) parseProduct() (Expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{first}
	for {
		t := p.peek()
		switch {
		case t.kind == tokOp && (t.text == "*" || t.text == "/"):
			p.next()
			rhs, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if t.text == "/" {
				rhs = &Pow{Base: rhs, Exp: Int(-1)}
			}
			factors = append(factors, rhs)
		case startsPrimary(t):
			rhs, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			factors = append(factors, rhs)
		default:
			if len(factors) == 1 {
				return first, nil
			}
			return &Mul{Factors: factors}, nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			if n, ok := operand.(*Num); ok {
				return &Num{v: new(big.Rat).Neg(n.v)}, nil
			}
			return Neg(operand), nil
		}
		return operand, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokOp && t.text == "^" {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Pow{Base: base, Exp: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, p.fail(t, "bad number %q", t.text)
		}
		return &Num{v: r}, nil
	case tokIdent:
		switch t.text {
		case "pi":
			return Pi, nil
		case "e":
			return E, nil
		}
		return &Sym{Name: t.text}, nil
	case tokFunc:
		name := t.text
		if name == "ln" {
			name = "log"
		}
		var arg Expr
		var err error
		if p.peek().kind == tokLParen {
			p.next()
			arg, err = p.parseSum()
			if err != nil {
				return nil, err
			}
			if c := p.next(); c.kind != tokRParen {
				return nil, p.fail(c, "expected ')' after argument of %s", name)
			}
		} else {
			arg, err = p.parsePower()
			if err != nil {
				return nil, err
			}
		}
		if name == "sqrt" {
			return Sqrt(arg), nil
		}
		return &Func{Name: name, Arg: arg}, nil
	case tokLParen:
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, p.fail(c, "expected ')'")
		}
		return inner, nil
	case tokEOF:
		return nil, p.fail(t, "unexpected end of expression")
	}
	return nil, p.fail(t, "unexpected %q", t.text)
}
