package application

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-slate/infrastructure/render"
	"github.com/ahrav/go-slate/internal/domain"
	"github.com/ahrav/go-slate/internal/engine"
)

func newTestService(t *testing.T, seed int64) *Service {
	t.Helper()

	loader := newLoader(t)
	bank, err := loader.LoadFromFile(context.Background(), "testdata/quadratics.yaml")
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(seed))
	return NewService(bank, rng, engine.NewMemoryStore(), render.NewTemplateRenderer(), nil)
}

func TestService_CreateInstanceAndRender(t *testing.T) {
	svc := newTestService(t, 42)

	inst, err := svc.CreateInstance(context.Background(), "QF.int_roots",
		engine.GenerateOptions{PresetID: "golden"})
	require.NoError(t, err)

	env, err := svc.Environment(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, env["sum"])
	assert.Equal(t, 6.0, env["prod"])

	prompt, err := svc.RenderView(inst.ID, "question")
	require.NoError(t, err)
	assert.Equal(t, "Solve x**2 - 5x + 6 = 0", prompt)
}

func TestService_GradeRoundTrip(t *testing.T) {
	svc := newTestService(t, 42)

	inst, err := svc.CreateInstance(context.Background(), "QF.int_roots",
		engine.GenerateOptions{PresetID: "golden"})
	require.NoError(t, err)

	result, err := svc.Grade(context.Background(), inst.ID, "question", []float64{3, 2})
	require.NoError(t, err)
	assert.True(t, result.Correct, "roots submitted in either order are correct")

	result, err = svc.Grade(context.Background(), inst.ID, "question", []float64{2, 4})
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.Equal(t, []float64{2, 3}, result.Expected)

	result, err = svc.Grade(context.Background(), inst.ID, "question", "not numbers")
	require.NoError(t, err, "malformed submissions grade as incorrect, never error")
	assert.False(t, result.Correct)
}

func TestService_GradeFactoredView(t *testing.T) {
	svc := newTestService(t, 42)

	inst, err := svc.CreateInstance(context.Background(), "QF.int_roots",
		engine.GenerateOptions{PresetID: "golden"})
	require.NoError(t, err)

	result, err := svc.Grade(context.Background(), inst.ID, "factored", []any{"", 3, 2})
	require.NoError(t, err)
	assert.True(t, result.Correct, "blank leading coefficient stands for 1")
}

func TestService_Lookups(t *testing.T) {
	svc := newTestService(t, 1)

	_, err := svc.CreateInstance(context.Background(), "ghost", engine.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrFamilyNotFound)

	_, err = svc.CreateInstance(context.Background(), "QF.int_roots",
		engine.GenerateOptions{PresetID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrPresetNotFound)

	_, err = svc.Grade(context.Background(), "no-such-instance", "question", 1)
	assert.ErrorIs(t, err, domain.ErrInstanceNotFound)

	_, err = svc.Environment("no-such-instance")
	assert.ErrorIs(t, err, domain.ErrInstanceNotFound)

	inst, err := svc.CreateInstance(context.Background(), "QF.int_roots", engine.GenerateOptions{})
	require.NoError(t, err)

	_, err = svc.Grade(context.Background(), inst.ID, "no-such-view", 1)
	assert.ErrorIs(t, err, domain.ErrViewNotFound)

	_, err = svc.Grade(context.Background(), inst.ID, "worked", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration, "display-only views cannot be graded")
}

func TestService_SeedDeterminism(t *testing.T) {
	first := newTestService(t, 7)
	second := newTestService(t, 7)

	for i := 0; i < 5; i++ {
		a, err := first.CreateInstance(context.Background(), "QF.int_roots", engine.GenerateOptions{})
		require.NoError(t, err)
		b, err := second.CreateInstance(context.Background(), "QF.int_roots", engine.GenerateOptions{})
		require.NoError(t, err)

		assert.Equal(t, a.Params, b.Params, "iteration %d", i)
		assert.Equal(t, a.Derived, b.Derived, "iteration %d", i)
	}
}

func TestService_InstanceSatisfiesConstraints(t *testing.T) {
	svc := newTestService(t, 99)

	for i := 0; i < 20; i++ {
		inst, err := svc.CreateInstance(context.Background(), "QF.int_roots", engine.GenerateOptions{})
		require.NoError(t, err)

		env := inst.Environment()
		assert.NotEqual(t, env["r1"], env["r2"])
		assert.NotZero(t, env["r1"])
		assert.NotZero(t, env["r2"])
		assert.Equal(t, env["r1"]+env["r2"], env["sum"])
		assert.Equal(t, env["r1"]*env["r2"], env["prod"])
	}
}

func TestService_EnvironmentIsDetached(t *testing.T) {
	svc := newTestService(t, 3)

	inst, err := svc.CreateInstance(context.Background(), "QF.int_roots",
		engine.GenerateOptions{PresetID: "golden"})
	require.NoError(t, err)

	env, err := svc.Environment(inst.ID)
	require.NoError(t, err)
	env["sum"] = -999

	again, err := svc.Environment(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, again["sum"], "mutating a handed-out environment does not touch the instance")
}

func TestService_ForcedOverrides(t *testing.T) {
	svc := newTestService(t, 11)

	inst, err := svc.CreateInstance(context.Background(), "QF.int_roots",
		engine.GenerateOptions{
			PresetID:        "golden",
			ForcedOverrides: map[string]float64{"r1": 7},
		})
	require.NoError(t, err)

	env := inst.Environment()
	assert.Equal(t, 7.0, env["r1"])
	assert.Equal(t, 10.0, env["sum"])
}

func TestService_VariantFamily(t *testing.T) {
	svc := newTestService(t, 5)

	inst, err := svc.CreateInstance(context.Background(), "LF.slope", engine.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "steep", inst.VariantID, "the only variant is always picked")

	env := inst.Environment()
	assert.GreaterOrEqual(t, env["m"], 10.0)
	assert.NotZero(t, env["b"])

	result, err := svc.Grade(context.Background(), inst.ID, "question", env["m"]+env["b"])
	require.NoError(t, err)
	assert.True(t, result.Correct)
}
