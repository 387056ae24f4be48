// Package engine implements the generation core: parameter sampling,
// derived-value resolution, constraint validation, and the bounded-retry
// instance generator that orchestrates them.
package engine

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/ahrav/go-slate/internal/domain"
)

// Sampler draws concrete parameter values from sampling specs. It owns an
// injected random source so that sequences are reproducible under a fixed
// seed; the source is mutated by every draw, so a Sampler must be owned
// by a single generator or externally synchronized.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a Sampler around the given random source.
func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Sample draws one value for the given spec. Choice mode picks uniformly
// from the explicit list; range mode picks uniformly from the integers in
// [lo, hi] that survive the sign filter and the exclusion set, with any
// extra exclusions applied on top. An empty candidate set is surfaced as
// ErrEmptyDomain, never silently ignored.
func (s *Sampler) Sample(spec domain.ParamSpec, excludeExtra ...float64) (float64, error) {
	if len(spec.Choices) > 0 {
		candidates := spec.Choices
		if len(excludeExtra) > 0 {
			candidates = slices.DeleteFunc(slices.Clone(candidates), func(v float64) bool {
				return slices.Contains(excludeExtra, v)
			})
		}
		if len(candidates) == 0 {
			return 0, fmt.Errorf("%w: every choice excluded", domain.ErrEmptyDomain)
		}
		return candidates[s.rng.Intn(len(candidates))], nil
	}

	r := spec.Int
	if r == nil {
		return 0, fmt.Errorf("%w: parameter spec declares neither a range nor choices", domain.ErrInvalidConfiguration)
	}

	candidates := make([]int, 0, r.Hi-r.Lo+1)
	for v := r.Lo; v <= r.Hi; v++ {
		if r.Sign == domain.SignPositive && v <= 0 {
			continue
		}
		if r.Sign == domain.SignNegative && v >= 0 {
			continue
		}
		if slices.Contains(r.Exclude, v) {
			continue
		}
		if slices.Contains(excludeExtra, float64(v)) {
			continue
		}
		candidates = append(candidates, v)
	}
	if len(candidates) == 0 {
		return 0, fmt.Errorf("%w: range [%d, %d] has no candidates after exclusions", domain.ErrEmptyDomain, r.Lo, r.Hi)
	}
	return float64(candidates[s.rng.Intn(len(candidates))]), nil
}

// SampleAll draws every parameter in specs. Names listed in pickOrder are
// drawn first, in order; the rest follow in sorted declaration order so
// that map iteration never influences the random sequence.
func (s *Sampler) SampleAll(specs map[string]domain.ParamSpec, pickOrder []string) (map[string]float64, error) {
	order := make([]string, 0, len(specs))
	for _, name := range pickOrder {
		if _, ok := specs[name]; ok {
			order = append(order, name)
		}
	}
	for _, name := range domain.ParamNames(specs) {
		if !slices.Contains(order, name) {
			order = append(order, name)
		}
	}

	values := make(map[string]float64, len(specs))
	for _, name := range order {
		v, err := s.Sample(specs[name])
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}
