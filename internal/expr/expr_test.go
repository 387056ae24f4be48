package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEvaluate_Arithmetic verifies operator semantics, precedence, and the
// floor-division sign convention over numeric expressions.
func TestEvaluate_Arithmetic(t *testing.T) {
	env := Env{"x": 1, "a": 2, "b": 3}

	tests := []struct {
		name     string
		expr     string
		expected float64
	}{
		{name: "precedence of multiplication", expr: "2 + 3 * 4", expected: 14},
		{name: "parentheses override precedence", expr: "(2 + 3) * 4", expected: 20},
		{name: "names from environment", expr: "a + b", expected: 5},
		{name: "float division", expr: "7 / 2", expected: 3.5},
		{name: "floor division", expr: "7 // 2", expected: 3},
		{name: "floor division negative dividend", expr: "-7 // 2", expected: -4},
		{name: "modulo positive", expr: "7 % 3", expected: 1},
		{name: "modulo sign follows divisor", expr: "-7 % 3", expected: 2},
		{name: "modulo negative divisor", expr: "7 % -3", expected: -2},
		{name: "power", expr: "2 ** 10", expected: 1024},
		{name: "power right associative", expr: "2 ** 3 ** 2", expected: 512},
		{name: "unary minus binds looser than power", expr: "-2 ** 2", expected: -4},
		{name: "negative exponent", expr: "2 ** -1", expected: 0.5},
		{name: "unary plus", expr: "+a", expected: 2},
		{name: "double negation", expr: "--a", expected: 2},
		{name: "abs builtin", expr: "abs(-5)", expected: 5},
		{name: "min builtin", expr: "min(a, b)", expected: 2},
		{name: "max builtin", expr: "max(a, b)", expected: 3},
		{name: "decimal literal", expr: "0.5 + .25", expected: 0.75},
		{name: "nested call", expr: "abs(a - b) * 2", expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Evaluate(tt.expr, env)
			require.NoError(t, err)
			n, ok := v.Number()
			require.True(t, ok, "expected a numeric result")
			assert.InDelta(t, tt.expected, n, 1e-12)
		})
	}
}

// TestEvaluate_Comparisons verifies boolean results, including chained
// comparisons with short-circuit semantics.
func TestEvaluate_Comparisons(t *testing.T) {
	env := Env{"a": 1, "b": 2, "c": 3}

	tests := []struct {
		name     string
		expr     string
		expected bool
	}{
		{name: "equality of computed value", expr: "(1+1)==2", expected: true},
		{name: "inequality", expr: "a != b", expected: true},
		{name: "less than", expr: "a < b", expected: true},
		{name: "chained true", expr: "a < b < c", expected: true},
		{name: "chained false middle link", expr: "a < c < b", expected: false},
		{name: "chained with equality", expr: "1 <= a <= 1", expected: true},
		{name: "greater or equal", expr: "c >= 3", expected: true},
		{name: "false comparison", expr: "b > c", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateBool(tt.expr, env)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// TestEvaluate_ShortCircuit proves that once a chain link is false the
// remaining comparators are never evaluated: the unresolved name after the
// false link must not surface as an error.
func TestEvaluate_ShortCircuit(t *testing.T) {
	got, err := EvaluateBool("2 < 1 < missing", Env{})
	require.NoError(t, err)
	assert.False(t, got)
}

// TestEvaluate_Errors verifies the error taxonomy: every rejected input
// maps to exactly one sentinel kind.
func TestEvaluate_Errors(t *testing.T) {
	env := Env{"x": 1}

	tests := []struct {
		name string
		expr string
		kind error
	}{
		{name: "division by zero", expr: "x/0", kind: ErrDivisionByZero},
		{name: "floor division by zero", expr: "x//0", kind: ErrDivisionByZero},
		{name: "modulo by zero", expr: "x%0", kind: ErrDivisionByZero},
		{name: "unknown name", expr: "x + y", kind: ErrUnknownName},
		{name: "dangerous-looking name is just unknown", expr: "exec", kind: ErrUnknownName},
		{name: "dunder name is just unknown", expr: "__import__", kind: ErrUnknownName},
		{name: "unknown function", expr: "open(x)", kind: ErrUnknownName},
		{name: "env name is not callable", expr: "x(1)", kind: ErrUnknownName},
		{name: "wrong arity", expr: "abs(1, 2)", kind: ErrBadArity},
		{name: "assignment", expr: "x = 2", kind: ErrUnsupportedConstruct},
		{name: "attribute access", expr: "x.bit_length", kind: ErrUnsupportedConstruct},
		{name: "subscripting", expr: "x[0]", kind: ErrUnsupportedConstruct},
		{name: "statement separator", expr: "x; x", kind: ErrUnsupportedConstruct},
		{name: "string literal", expr: "'abc'", kind: ErrUnsupportedConstruct},
		{name: "lambda-ish braces", expr: "{x}", kind: ErrUnsupportedConstruct},
		{name: "bitwise operator", expr: "x | 1", kind: ErrUnsupportedOperator},
		{name: "boolean not", expr: "!x", kind: ErrUnsupportedOperator},
		{name: "empty input", expr: "", kind: ErrSyntax},
		{name: "dangling operator", expr: "1 +", kind: ErrSyntax},
		{name: "two expressions", expr: "1 2", kind: ErrSyntax},
		{name: "unbalanced paren", expr: "(1 + 2", kind: ErrSyntax},
		{name: "arithmetic on boolean", expr: "(1 < 2) + 1", kind: ErrType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.expr, env)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

// TestParse_Reuse verifies that a parsed Expression can be evaluated
// against multiple environments.
func TestParse_Reuse(t *testing.T) {
	e, err := Parse("a * a")
	require.NoError(t, err)
	assert.Equal(t, "a * a", e.Source())

	for _, a := range []float64{-3, 0, 2.5} {
		v, err := e.Eval(Env{"a": a})
		require.NoError(t, err)
		n, _ := v.Number()
		assert.InDelta(t, a*a, n, 1e-12)
	}
}

// TestEvaluateNumber_RejectsBoolean verifies the typed entry points
// enforce their result kind.
func TestEvaluateNumber_RejectsBoolean(t *testing.T) {
	_, err := EvaluateNumber("1 < 2", Env{})
	assert.ErrorIs(t, err, ErrType)

	_, err = EvaluateBool("1 + 2", Env{})
	assert.ErrorIs(t, err, ErrType)
}
