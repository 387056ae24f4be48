// Package expr implements the sandboxed expression evaluator used for the
// derive formulas, validity constraints, and expression-valued answers of
// a question family.
//
// Expressions are authored inside externally editable bank data and are
// never trusted. The sandbox therefore parses every expression into a
// closed, tagged-variant AST and evaluates it with an exhaustive switch
// over permitted node kinds: integer and decimal literals, environment
// names, the binary operators + - * / // % **, unary + and -, chainable
// comparisons, and calls to a fixed function table. Nothing else can be
// expressed; assignment, attribute access, subscripting, and statements
// are rejected at the lexer with ErrUnsupportedConstruct. The package
// never reaches for reflection or any dynamic evaluation facility.
//
// Evaluation is a pure function of the expression text and the supplied
// environment. It is deterministic, performs no I/O, and is safe for
// concurrent use.
package expr

import (
	"math"
)

// Env is the read-only variable environment an expression evaluates
// against: the union of a question instance's sampled parameters and
// resolved derived values.
type Env map[string]float64

// ValueKind discriminates the two result kinds an expression can produce.
type ValueKind int

const (
	// KindNumber is a numeric result from arithmetic.
	KindNumber ValueKind = iota
	// KindBool is a boolean result from a comparison chain.
	KindBool
)

// Value is the result of evaluating an expression: a number or a boolean.
// The zero value is the number 0.
type Value struct {
	kind ValueKind
	num  float64
	b    bool
}

// Number wraps a float64 as a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Boolean wraps a bool as a boolean Value.
func Boolean(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports whether the value is a number or a boolean.
func (v Value) Kind() ValueKind { return v.kind }

// Number returns the numeric value. The boolean result is false when the
// value is not a number.
func (v Value) Number() (float64, bool) { return v.num, v.kind == KindNumber }

// Bool returns the boolean value. The second result is false when the
// value is not a boolean.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// function is an entry in the fixed call allowlist. Arity is exact; the
// grammar has no keyword or variadic arguments.
type function struct {
	arity int
	apply func(args []float64) float64
}

// functions is the complete call allowlist. Adding an entry here is the
// only way to make a new function reachable from bank data.
var functions = map[string]function{
	"abs": {arity: 1, apply: func(a []float64) float64 { return math.Abs(a[0]) }},
	"min": {arity: 2, apply: func(a []float64) float64 { return math.Min(a[0], a[1]) }},
	"max": {arity: 2, apply: func(a []float64) float64 { return math.Max(a[0], a[1]) }},
}

// Expression is a parsed, reusable expression. A single Expression may be
// evaluated against many environments concurrently.
type Expression struct {
	src  string
	root node
}

// Parse validates exprText against the sandbox grammar and returns a
// reusable Expression. The returned error wraps ErrSyntax,
// ErrUnsupportedConstruct, or ErrUnsupportedOperator.
//
// Name resolution is deliberately not performed here: the environment
// exists only once an instance is being generated, so unknown names
// surface at evaluation time as ErrUnknownName.
func Parse(exprText string) (*Expression, error) {
	root, err := parse(exprText)
	if err != nil {
		return nil, err
	}
	return &Expression{src: exprText, root: root}, nil
}

// Source returns the original expression text.
func (e *Expression) Source() string { return e.src }

// Eval evaluates the expression against env.
func (e *Expression) Eval(env Env) (Value, error) {
	return eval(e.root, env)
}

// Evaluate parses and evaluates exprText against env in one call. Use
// Parse when the same expression will be evaluated repeatedly.
func Evaluate(exprText string, env Env) (Value, error) {
	e, err := Parse(exprText)
	if err != nil {
		return Value{}, err
	}
	return e.Eval(env)
}

// EvaluateNumber evaluates exprText and requires a numeric result,
// returning ErrType for a boolean.
func EvaluateNumber(exprText string, env Env) (float64, error) {
	v, err := Evaluate(exprText, env)
	if err != nil {
		return 0, err
	}
	n, ok := v.Number()
	if !ok {
		return 0, errAt(ErrType, 0, "expression %q yields a boolean, expected a number", exprText)
	}
	return n, nil
}

// EvaluateBool evaluates exprText and requires a boolean result,
// returning ErrType for a number. Constraint lists are evaluated through
// this entry point.
func EvaluateBool(exprText string, env Env) (bool, error) {
	v, err := Evaluate(exprText, env)
	if err != nil {
		return false, err
	}
	b, ok := v.Bool()
	if !ok {
		return false, errAt(ErrType, 0, "expression %q yields a number, expected a boolean", exprText)
	}
	return b, nil
}

func eval(n node, env Env) (Value, error) {
	switch t := n.(type) {
	case *numberLit:
		return Number(t.val), nil

	case *nameRef:
		v, ok := env[t.name]
		if !ok {
			return Value{}, errAt(ErrUnknownName, t.at, "name %q is not defined", t.name)
		}
		return Number(v), nil

	case *unaryExpr:
		operand, err := evalNumber(t.operand, env)
		if err != nil {
			return Value{}, err
		}
		if t.op == tokMinus {
			return Number(-operand), nil
		}
		return Number(operand), nil

	case *binaryExpr:
		left, err := evalNumber(t.left, env)
		if err != nil {
			return Value{}, err
		}
		right, err := evalNumber(t.right, env)
		if err != nil {
			return Value{}, err
		}
		return applyBinary(t.op, left, right, t.at)

	case *compareExpr:
		left, err := evalNumber(t.left, env)
		if err != nil {
			return Value{}, err
		}
		// Left-to-right with short-circuit: once a link is false the
		// remaining comparators are not evaluated.
		for i, op := range t.ops {
			right, err := evalNumber(t.rights[i], env)
			if err != nil {
				return Value{}, err
			}
			if !compare(op, left, right) {
				return Boolean(false), nil
			}
			left = right
		}
		return Boolean(true), nil

	case *callExpr:
		fn, ok := functions[t.fn]
		if !ok {
			return Value{}, errAt(ErrUnknownName, t.at, "function %q is not allowed", t.fn)
		}
		if len(t.args) != fn.arity {
			return Value{}, errAt(ErrBadArity, t.at, "%s takes %d argument(s), got %d", t.fn, fn.arity, len(t.args))
		}
		args := make([]float64, len(t.args))
		for i, a := range t.args {
			v, err := evalNumber(a, env)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return Number(fn.apply(args)), nil

	default:
		// Unreachable: the parser constructs no other node kinds.
		return Value{}, errAt(ErrUnsupportedConstruct, n.pos(), "unsupported expression node")
	}
}

func evalNumber(n node, env Env) (float64, error) {
	v, err := eval(n, env)
	if err != nil {
		return 0, err
	}
	num, ok := v.Number()
	if !ok {
		return 0, errAt(ErrType, n.pos(), "operand is a boolean, expected a number")
	}
	return num, nil
}

// applyBinary implements the arithmetic operators. Floor division and
// modulo follow the floor convention of the bank data's original format:
// // rounds toward negative infinity and the sign of % follows the
// divisor, so -7 // 2 == -4 and -7 % 3 == 2. This differs from Go's
// truncated math.Mod and is covered by explicit tests.
func applyBinary(op tokenKind, left, right float64, at int) (Value, error) {
	switch op {
	case tokPlus:
		return Number(left + right), nil
	case tokMinus:
		return Number(left - right), nil
	case tokStar:
		return Number(left * right), nil
	case tokSlash:
		if right == 0 {
			return Value{}, errAt(ErrDivisionByZero, at, "division by zero")
		}
		return Number(left / right), nil
	case tokSlashSlash:
		if right == 0 {
			return Value{}, errAt(ErrDivisionByZero, at, "integer division by zero")
		}
		return Number(math.Floor(left / right)), nil
	case tokPercent:
		if right == 0 {
			return Value{}, errAt(ErrDivisionByZero, at, "modulo by zero")
		}
		return Number(left - math.Floor(left/right)*right), nil
	case tokStarStar:
		return Number(math.Pow(left, right)), nil
	default:
		return Value{}, errAt(ErrUnsupportedOperator, at, "operator is not allowed")
	}
}

func compare(op tokenKind, left, right float64) bool {
	switch op {
	case tokEq:
		return left == right
	case tokNe:
		return left != right
	case tokLt:
		return left < right
	case tokLe:
		return left <= right
	case tokGt:
		return left > right
	case tokGe:
		return left >= right
	}
	return false
}
