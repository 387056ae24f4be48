package engine

import (
	"errors"
	"fmt"
	"maps"
	"math/rand"

	"github.com/google/uuid"

	"github.com/ahrav/go-slate/internal/domain"
	"github.com/ahrav/go-slate/internal/expr"
	"github.com/ahrav/go-slate/internal/ports"
)

// DefaultMaxAttempts bounds parameter resampling per generation request.
// Small by design: a family that needs more than this is over-constrained
// and the caller should hear about it rather than burn CPU.
const DefaultMaxAttempts = 50

// GenerateOptions narrows one generation request.
type GenerateOptions struct {
	// PresetID selects a fixed parameter set declared by the family,
	// skipping sampling for the names it pins.
	PresetID string

	// ForcedOverrides pins parameter values directly. Overrides apply
	// last, on top of sampled and preset values alike.
	ForcedOverrides map[string]float64
}

// Generator runs the sampling / derivation / validation retry loop and
// stores accepted instances. It owns its random source: a Generator must
// not be shared across concurrent callers without external
// synchronization, or the reproducibility guarantee under a fixed seed
// is lost.
type Generator struct {
	families    map[string]*domain.Family
	sampler     *Sampler
	rng         *rand.Rand
	store       ports.InstanceStore
	metrics     ports.MetricsCollector
	maxAttempts int
}

// NewGenerator creates a Generator over the given read-only family set.
// The random source seeds both variant selection and parameter sampling.
// A nil metrics collector is replaced with a no-op.
func NewGenerator(
	families map[string]*domain.Family,
	rng *rand.Rand,
	store ports.InstanceStore,
	metrics ports.MetricsCollector,
) *Generator {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Generator{
		families:    families,
		sampler:     NewSampler(rng),
		rng:         rng,
		store:       store,
		metrics:     metrics,
		maxAttempts: DefaultMaxAttempts,
	}
}

// SetMaxAttempts overrides the retry budget. Values below one are ignored.
func (g *Generator) SetMaxAttempts(n int) {
	if n >= 1 {
		g.maxAttempts = n
	}
}

// Family returns the family with the given ID.
func (g *Generator) Family(id string) (*domain.Family, bool) {
	f, ok := g.families[id]
	return f, ok
}

// mergedFamily is one generation request's effective view of a family
// after variant and preset merging.
type mergedFamily struct {
	params      map[string]domain.ParamSpec
	pickOrder   []string
	derive      map[string]string
	constraints []string
	variantID   string
}

// merge flattens family-level and variant-level declarations. Variant
// params and derive entries take precedence on name collision; constraint
// lists are concatenated, family first, and never deduplicated.
func merge(fam *domain.Family, variant *domain.Variant) mergedFamily {
	m := mergedFamily{
		params:    make(map[string]domain.ParamSpec, len(fam.Params)),
		derive:    make(map[string]string, len(fam.Derive)),
		pickOrder: fam.PickOrder,
	}
	maps.Copy(m.params, fam.Params)
	maps.Copy(m.derive, fam.Derive)
	m.constraints = append(m.constraints, fam.Constraints...)

	if variant != nil {
		m.variantID = variant.ID
		maps.Copy(m.params, variant.Params)
		maps.Copy(m.derive, variant.Derive)
		m.constraints = append(m.constraints, variant.Constraints...)
		if len(variant.PickOrder) > 0 {
			m.pickOrder = variant.PickOrder
		}
	}
	return m
}

// Generate produces one accepted instance of the family, or fails.
//
// State machine per attempt: Sampling -> Deriving -> Validating. A false
// constraint rejects the attempt and resamples; derivation failures and
// constraint evaluation errors are configuration defects that abort the
// whole request; exceeding the attempt budget yields ErrExhaustedRetries,
// which the caller may retry wholesale.
func (g *Generator) Generate(familyID string, opts GenerateOptions) (*domain.Instance, error) {
	fam, ok := g.families[familyID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrFamilyNotFound, familyID)
	}

	var preset *domain.Preset
	if opts.PresetID != "" {
		p, ok := fam.Preset(opts.PresetID)
		if !ok {
			return nil, fmt.Errorf("%w: %q in family %q", domain.ErrPresetNotFound, opts.PresetID, familyID)
		}
		preset = &p
	}

	// A preset is already a concrete parameterization; variants only
	// apply to free sampling.
	var variant *domain.Variant
	if preset == nil && len(fam.Variants) > 0 {
		variant = &fam.Variants[g.rng.Intn(len(fam.Variants))]
	}
	m := merge(fam, variant)

	// Fixed values never enter the sampler: preset first, forced
	// overrides on top.
	fixed := make(map[string]float64, len(opts.ForcedOverrides))
	if preset != nil {
		maps.Copy(fixed, preset.Params)
	}
	maps.Copy(fixed, opts.ForcedOverrides)

	toSample := make(map[string]domain.ParamSpec, len(m.params))
	for name, spec := range m.params {
		if _, pinned := fixed[name]; !pinned {
			toSample[name] = spec
		}
	}

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		params := make(map[string]float64, len(fixed)+len(toSample))
		maps.Copy(params, fixed)

		sampled, err := g.sampler.SampleAll(toSample, m.pickOrder)
		if err != nil {
			// An empty candidate set cannot improve with retries.
			return nil, fmt.Errorf("family %q: %w", familyID, err)
		}
		maps.Copy(params, sampled)

		env := make(map[string]float64, len(params)+len(m.derive))
		maps.Copy(env, params)

		derived, err := Resolve(familyID, m.derive, env)
		if err != nil {
			g.metrics.RecordCounter("generation_total", 1, map[string]string{"family": familyID, "status": "derivation_failed"})
			g.countSandboxViolation(familyID, err)
			return nil, err
		}

		accepted := true
		for _, constraint := range m.constraints {
			holds, err := expr.EvaluateBool(constraint, env)
			if err != nil {
				g.metrics.RecordCounter("generation_total", 1, map[string]string{"family": familyID, "status": "constraint_error"})
				g.countSandboxViolation(familyID, err)
				return nil, &domain.ConstraintError{FamilyID: familyID, Constraint: constraint, Err: err}
			}
			if !holds {
				accepted = false
				break
			}
		}
		if !accepted {
			continue
		}

		inst := &domain.Instance{
			ID:        uuid.NewString(),
			FamilyID:  familyID,
			VariantID: m.variantID,
			Params:    params,
			Derived:   derived,
		}
		g.store.Put(inst)
		g.metrics.RecordCounter("generation_total", 1, map[string]string{"family": familyID, "status": "accepted"})
		g.metrics.RecordHistogram("generation_attempts", float64(attempt), map[string]string{"family": familyID})
		return inst, nil
	}

	g.metrics.RecordCounter("generation_total", 1, map[string]string{"family": familyID, "status": "exhausted"})
	return nil, &domain.RetryError{FamilyID: familyID, Attempts: g.maxAttempts}
}

// countSandboxViolation records expressions rejected by the sandbox's
// structural allowlist. These enter the engine only through bank data,
// so a nonzero count means someone is editing families by hand past the
// loader's parse checks.
func (g *Generator) countSandboxViolation(familyID string, err error) {
	if errors.Is(err, expr.ErrSyntax) ||
		errors.Is(err, expr.ErrUnsupportedConstruct) ||
		errors.Is(err, expr.ErrUnsupportedOperator) {
		g.metrics.RecordCounter("sandbox_violations", 1, map[string]string{"family": familyID})
	}
}
