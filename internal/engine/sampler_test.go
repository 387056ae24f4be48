package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-slate/internal/domain"
)

func newTestSampler(seed int64) *Sampler {
	return NewSampler(rand.New(rand.NewSource(seed)))
}

func TestSampler_RangeMode(t *testing.T) {
	s := newTestSampler(1)
	spec := domain.ParamSpec{Int: &domain.IntRange{Lo: -3, Hi: 3, Exclude: []int{0}}}

	for i := 0; i < 200; i++ {
		v, err := s.Sample(spec)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, -3.0)
		assert.LessOrEqual(t, v, 3.0)
		assert.NotZero(t, v, "excluded value must never be drawn")
		assert.Equal(t, v, float64(int(v)), "range mode draws integers")
	}
}

func TestSampler_SignFilter(t *testing.T) {
	tests := []struct {
		name string
		sign domain.SignFilter
		ok   func(v float64) bool
	}{
		{name: "positive", sign: domain.SignPositive, ok: func(v float64) bool { return v > 0 }},
		{name: "negative", sign: domain.SignNegative, ok: func(v float64) bool { return v < 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSampler(7)
			spec := domain.ParamSpec{Int: &domain.IntRange{Lo: -5, Hi: 5, Sign: tt.sign}}
			for i := 0; i < 100; i++ {
				v, err := s.Sample(spec)
				require.NoError(t, err)
				assert.True(t, tt.ok(v), "drew %v against sign filter %q", v, tt.sign)
			}
		})
	}
}

func TestSampler_ChoiceMode(t *testing.T) {
	s := newTestSampler(2)
	spec := domain.ParamSpec{Choices: []float64{2, 4, 8}}

	seen := map[float64]bool{}
	for i := 0; i < 100; i++ {
		v, err := s.Sample(spec)
		require.NoError(t, err)
		assert.Contains(t, []float64{2, 4, 8}, v)
		seen[v] = true
	}
	assert.Len(t, seen, 3, "uniform pick should hit every choice in 100 draws")
}

func TestSampler_EmptyDomain(t *testing.T) {
	s := newTestSampler(3)

	tests := []struct {
		name string
		spec domain.ParamSpec
	}{
		{
			name: "exclusions consume the whole range",
			spec: domain.ParamSpec{Int: &domain.IntRange{Lo: 1, Hi: 2, Exclude: []int{1, 2}}},
		},
		{
			name: "sign filter empties the range",
			spec: domain.ParamSpec{Int: &domain.IntRange{Lo: 1, Hi: 5, Sign: domain.SignNegative}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Sample(tt.spec)
			assert.ErrorIs(t, err, domain.ErrEmptyDomain)
		})
	}
}

func TestSampler_ExtraExclusions(t *testing.T) {
	s := newTestSampler(4)
	spec := domain.ParamSpec{Int: &domain.IntRange{Lo: 1, Hi: 3}}

	for i := 0; i < 50; i++ {
		v, err := s.Sample(spec, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, 2.0, v)
	}

	_, err := s.Sample(spec, 1, 2, 3)
	assert.ErrorIs(t, err, domain.ErrEmptyDomain)
}

// TestSampleAll_Determinism verifies that identical seeds draw identical
// sequences regardless of map insertion order, because sampling order is
// pick order first, then sorted declaration order.
func TestSampleAll_Determinism(t *testing.T) {
	specs := map[string]domain.ParamSpec{
		"c": {Int: &domain.IntRange{Lo: -9, Hi: 9}},
		"a": {Int: &domain.IntRange{Lo: -9, Hi: 9}},
		"b": {Choices: []float64{1, 2, 3, 4}},
	}
	pickOrder := []string{"b", "missing"}

	first, err := newTestSampler(42).SampleAll(specs, pickOrder)
	require.NoError(t, err)
	second, err := newTestSampler(42).SampleAll(specs, pickOrder)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestSampleAll_PropagatesEmptyDomain(t *testing.T) {
	specs := map[string]domain.ParamSpec{
		"ok":  {Choices: []float64{1}},
		"bad": {Int: &domain.IntRange{Lo: 1, Hi: 1, Exclude: []int{1}}},
	}
	_, err := newTestSampler(5).SampleAll(specs, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyDomain)
	assert.Contains(t, err.Error(), `"bad"`)
}
