// SPDX-License-Identifier: Apache-2.0

package symbolic

import (
	"fmt"
	"math"
)

// Eval evaluates e numerically with the given variable bindings.
// Division by zero yields ±Inf rather than an error; the caller decides
// whether a non-finite value is acceptable.
func Eval(e Expr, env map[string]float64) (float64, error) {
	switch x := e.(type) {
	case *Num:
		return x.Float64(), nil
	case *Sym:
		v, ok := env[x.Name]
		if !ok {
			return 0, fmt.Errorf("unbound symbol %q", x.Name)
		}
		return v, nil
	case *Const:
		switch x.Name {
		case Pi.Name:
			return math.Pi, nil
		case E.Name:
			return math.E, nil
		}
		return math.Inf(1), nil
	case *Add:
		var sum float64
		for _, t := range x.Terms {
			v, err := Eval(t, env)
			if err != nil {
				return 0, err
			}
			sum += v
		}
		return sum, nil
	case *Mul:
		prod := 1.0
		for _, f := range x.Factors {
			v, err := Eval(f, env)
			if err != nil {
				return 0, err
			}
			prod *= v
		}
		return prod, nil
	case *Pow:
		b, err := Eval(x.Base, env)
		if err != nil {
			return 0, err
		}
		ex, err := Eval(x.Exp, env)
		if err != nil {
			return 0, err
		}
		if b == 0 && ex < 0 {
			return math.Inf(1), nil
		}
		if b < 0 && ex != math.Trunc(ex) {
			if n, ok := x.Exp.(*Num); ok && n.v.Denom().Bit(0) == 1 {
				// Odd root of a negative number.
				return -math.Pow(-b, ex), nil
			}
		}
		return math.Pow(b, ex), nil
	case *Func:
		a, err := Eval(x.Arg, env)
		if err != nil {
			return 0, err
		}
		return evalFunc(x.Name, a)
	}
	return 0, fmt.Errorf("cannot evaluate %T", e)
}

func evalFunc(name string, a float64) (float64, error) {
	switch name {
	case "sin":
		return math.Sin(a), nil
	case "cos":
		return math.Cos(a), nil
	case "tan":
		return math.Tan(a), nil
	case "asin":
		return math.Asin(a), nil
	case "acos":
		return math.Acos(a), nil
	case "atan":
		return math.Atan(a), nil
	case "exp":
		return math.Exp(a), nil
	case "log", "ln":
		if a == 0 {
			return math.Inf(-1), nil
		}
		return math.Log(a), nil
	case "sqrt":
		return math.Sqrt(a), nil
	case "abs":
		return math.Abs(a), nil
	}
	return 0, fmt.Errorf("unknown function %q", name)
}

// EvalAt evaluates an expression of one variable at x.
func EvalAt(e Expr, name string, x float64) (float64, error) {
	return Eval(e, map[string]float64{name: x})
}
