package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-slate/internal/domain"
	"github.com/ahrav/go-slate/internal/expr"
)

func TestResolve_OutOfOrderDependencies(t *testing.T) {
	env := map[string]float64{"a": 2, "b": 3}
	derive := map[string]string{
		// Sorted sweep order visits double_sum before sum, forcing the
		// fixed point to take a second pass.
		"double_sum": "sum * 2",
		"sum":        "a + b",
	}

	derived, err := Resolve("fam", derive, env)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"sum": 5, "double_sum": 10}, derived)
	assert.Equal(t, 5.0, env["sum"], "resolved values merge into the environment")
	assert.Equal(t, 10.0, env["double_sum"])
}

func TestResolve_ChainNeedsOnePassPerLink(t *testing.T) {
	env := map[string]float64{"x": 1}
	derive := map[string]string{
		"d": "c + 1",
		"c": "b + 1",
		"b": "x + 1",
	}

	derived, err := Resolve("fam", derive, env)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"b": 2, "c": 3, "d": 4}, derived)
}

func TestResolve_SelfReferenceTerminates(t *testing.T) {
	env := map[string]float64{}
	_, err := Resolve("fam", map[string]string{"x": "x + 1"}, env)

	var derr *domain.DerivationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "fam", derr.FamilyID)
	assert.Equal(t, []string{"x"}, derr.Unresolved)
	assert.Equal(t, []string{"x", "x"}, derr.Cycle)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestResolve_MutualCycleReportsWitness(t *testing.T) {
	env := map[string]float64{}
	derive := map[string]string{
		"p": "q + 1",
		"q": "p - 1",
	}

	_, err := Resolve("fam", derive, env)

	var derr *domain.DerivationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, []string{"p", "q"}, derr.Unresolved)
	assert.Equal(t, []string{"p", "q", "p"}, derr.Cycle)
}

func TestResolve_MissingDependencyHasNoCycle(t *testing.T) {
	env := map[string]float64{"a": 1}
	_, err := Resolve("fam", map[string]string{"y": "never_defined + a"}, env)

	var derr *domain.DerivationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, []string{"y"}, derr.Unresolved)
	assert.Empty(t, derr.Cycle, "a dangling reference is not a cycle")
}

func TestResolve_NonNameErrorsAbortImmediately(t *testing.T) {
	tests := []struct {
		name   string
		derive map[string]string
		kind   error
	}{
		{name: "division by zero", derive: map[string]string{"bad": "1 / 0"}, kind: expr.ErrDivisionByZero},
		{name: "syntax error", derive: map[string]string{"bad": "1 +"}, kind: expr.ErrSyntax},
		{name: "boolean-valued derive", derive: map[string]string{"bad": "1 < 2"}, kind: expr.ErrType},
		{name: "disallowed construct", derive: map[string]string{"bad": "a[0]"}, kind: expr.ErrUnsupportedConstruct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve("fam", tt.derive, map[string]float64{"a": 1})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestResolve_EmptyDeriveMap(t *testing.T) {
	env := map[string]float64{"a": 1}
	derived, err := Resolve("fam", nil, env)
	require.NoError(t, err)
	assert.Empty(t, derived)
}
