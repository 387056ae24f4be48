package application

import (
	"fmt"
	"sort"

	"github.com/ahrav/go-slate/internal/domain"
)

// BankConfig defines the complete specification for a question bank
// and serves as the primary configuration entry point for the system.
// Use BankConfig when authoring banks of randomized question families
// that the engine samples, derives, and grades at runtime.
type BankConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the question bank
	// including name, tags, and labels for organization and discovery.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Families defines the question families in this bank, keyed by the
	// family identifier used when requesting instances.
	Families map[string]FamilyConfig `yaml:"families" validate:"required,min=1,dive"`
}

// Metadata provides descriptive information about a question bank
// to support organization, discovery, and operational management.
type Metadata struct {
	// Name is the human-readable identifier for this question bank
	// and must be unique within the deployment scope.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description provides a detailed explanation of the bank's content
	// and intended audience for documentation and discovery.
	Description string `yaml:"description" validate:"max=1000"`
	// Tags are categorical labels that enable filtering and grouping
	// of banks by subject area or curriculum unit.
	Tags []string `yaml:"tags" validate:"max=20,dive,min=1,max=50"`
	// Labels are arbitrary key-value pairs that provide flexible metadata
	// for integration with external systems and custom categorization.
	Labels map[string]string `yaml:"labels" validate:"max=50"`
}

// FamilyConfig defines one question family: the parameter specs to
// sample, derived values to compute, constraints to enforce, and the
// views students see.
type FamilyConfig struct {
	// Params maps parameter names to their sampling specifications.
	Params map[string]ParamConfig `yaml:"params" validate:"required,min=1,dive"`
	// PickOrder lists parameter names to sample first, in order. Names
	// not listed are sampled afterwards in lexical order.
	PickOrder []string `yaml:"pick_order"`
	// Derive maps derived-value names to sandbox expressions over the
	// sampled parameters and previously derived values.
	Derive map[string]string `yaml:"derive"`
	// Constraints are boolean sandbox expressions an instance must
	// satisfy; a false constraint rejects the draw and resamples.
	Constraints []string `yaml:"constraints"`
	// Views maps view names to the prompt and answer spec presented
	// for that view of an instance.
	Views map[string]ViewConfig `yaml:"views" validate:"required,min=1,dive"`
	// Presets are named fixed parameter assignments that bypass
	// sampling for the names they pin.
	Presets []PresetConfig `yaml:"presets" validate:"dive"`
	// Variants are alternative renditions of the family; one is picked
	// uniformly at generation time when no preset is requested.
	Variants []VariantConfig `yaml:"variants" validate:"dive"`
}

// ParamConfig specifies how one parameter is sampled: either an
// inclusive integer range with optional filters, or an explicit list
// of choices. Exactly one mode must be set.
type ParamConfig struct {
	// Int is an inclusive [lo, hi] integer range.
	Int []float64 `yaml:"int" validate:"omitempty,len=2"`
	// Exclude removes specific values from the range candidates.
	// Only meaningful with Int.
	Exclude []float64 `yaml:"exclude"`
	// Sign restricts range candidates to one side of zero:
	// "positive", "negative", or empty for no restriction.
	Sign string `yaml:"sign" validate:"omitempty,oneof=positive negative any"`
	// Choices is an explicit candidate list sampled uniformly.
	Choices []float64 `yaml:"choices"`
}

// ViewConfig defines one presentation of an instance: a prompt
// template and, for gradeable views, an answer specification.
type ViewConfig struct {
	// Prompt is the question text with {{name}} placeholders filled
	// from the instance environment at render time.
	Prompt string `yaml:"prompt" validate:"required,min=1"`
	// Answer specifies how submissions against this view are graded.
	// A view without an answer spec is display-only.
	Answer *AnswerConfig `yaml:"answer"`
}

// AnswerConfig specifies the grading rule for a view.
type AnswerConfig struct {
	// Kind names the grading strategy. Historical aliases such as
	// roots_set and pair_unordered_int are accepted.
	Kind string `yaml:"kind" validate:"required"`
	// Of lists the environment names or sandbox expressions the
	// expected value is built from. The ack kind takes none.
	Of []string `yaml:"of"`
	// Options tunes kind-specific comparison behavior.
	Options AnswerOptionsConfig `yaml:"options"`
}

// AnswerOptionsConfig tunes kind-specific grading behavior.
type AnswerOptionsConfig struct {
	// OrderedRoots makes factor-triplet roots order-sensitive.
	OrderedRoots bool `yaml:"ordered_roots"`
	// AllowImplicitLeading treats a blank or omitted leading
	// coefficient as 1 in factor-triplet submissions.
	AllowImplicitLeading bool `yaml:"allow_implicit_leading"`
	// FuzzyDistance allows one_of labels to match within the given
	// edit distance; 0 requires exact folded equality.
	FuzzyDistance int `yaml:"fuzzy_distance" validate:"min=0,max=5"`
}

// PresetConfig pins a named set of parameter values, bypassing
// sampling for the names it lists.
type PresetConfig struct {
	// ID is the identifier used to request this preset.
	ID string `yaml:"id" validate:"required,min=1,max=100"`
	// Params maps parameter names to their fixed values.
	Params map[string]float64 `yaml:"params" validate:"required,min=1"`
}

// VariantConfig is an alternative rendition of a family. Any field
// left empty inherits from the family; params and derive override on
// name collision, constraints concatenate, and a non-empty view map
// replaces the family's views outright.
type VariantConfig struct {
	// ID identifies the variant on generated instances.
	ID string `yaml:"id" validate:"required,min=1,max=100"`
	// Params adds to or overrides the family parameter specs.
	Params map[string]ParamConfig `yaml:"params" validate:"dive"`
	// PickOrder replaces the family pick order when non-empty.
	PickOrder []string `yaml:"pick_order"`
	// Derive adds to or overrides the family derive map.
	Derive map[string]string `yaml:"derive"`
	// Constraints are appended after the family constraints.
	Constraints []string `yaml:"constraints"`
	// Views replaces the family views when non-empty.
	Views map[string]ViewConfig `yaml:"views" validate:"dive"`
}

// compile transforms a validated bank configuration into the domain
// family set the engine consumes. compile assumes validateSemantics
// has already run; it reports only defects that survive validation,
// such as an alias that parses to no known answer kind.
func (c *BankConfig) compile() (map[string]*domain.Family, error) {
	families := make(map[string]*domain.Family, len(c.Families))

	ids := make([]string, 0, len(c.Families))
	for id := range c.Families {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		fc := c.Families[id]
		fam, err := compileFamily(id, fc)
		if err != nil {
			return nil, err
		}
		families[id] = fam
	}
	return families, nil
}

func compileFamily(id string, fc FamilyConfig) (*domain.Family, error) {
	params, err := compileParams(id, fc.Params)
	if err != nil {
		return nil, err
	}
	views, err := compileViews(id, fc.Views)
	if err != nil {
		return nil, err
	}

	fam := &domain.Family{
		ID:          id,
		Params:      params,
		PickOrder:   append([]string(nil), fc.PickOrder...),
		Derive:      copyStringMap(fc.Derive),
		Constraints: append([]string(nil), fc.Constraints...),
		Views:       views,
	}

	for _, pc := range fc.Presets {
		fam.Presets = append(fam.Presets, domain.Preset{
			ID:     pc.ID,
			Params: copyFloatMap(pc.Params),
		})
	}

	for _, vc := range fc.Variants {
		vparams, err := compileParams(id, vc.Params)
		if err != nil {
			return nil, err
		}
		vviews, err := compileViews(id, vc.Views)
		if err != nil {
			return nil, err
		}
		fam.Variants = append(fam.Variants, domain.Variant{
			ID:          vc.ID,
			Params:      vparams,
			PickOrder:   append([]string(nil), vc.PickOrder...),
			Derive:      copyStringMap(vc.Derive),
			Constraints: append([]string(nil), vc.Constraints...),
			Views:       vviews,
		})
	}

	return fam, nil
}

func compileParams(familyID string, configs map[string]ParamConfig) (map[string]domain.ParamSpec, error) {
	if len(configs) == 0 {
		return nil, nil
	}
	params := make(map[string]domain.ParamSpec, len(configs))
	for name, pc := range configs {
		spec := domain.ParamSpec{}
		if len(pc.Int) == 2 {
			sign := domain.SignFilter(pc.Sign)
			if sign == "any" {
				sign = domain.SignAny
			}
			var exclude []int
			for _, v := range pc.Exclude {
				exclude = append(exclude, int(v))
			}
			spec.Int = &domain.IntRange{
				Lo:      int(pc.Int[0]),
				Hi:      int(pc.Int[1]),
				Exclude: exclude,
				Sign:    sign,
			}
		}
		if len(pc.Choices) > 0 {
			spec.Choices = append([]float64(nil), pc.Choices...)
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("family %s param %s: %w", familyID, name, err)
		}
		params[name] = spec
	}
	return params, nil
}

func compileViews(familyID string, configs map[string]ViewConfig) (map[string]domain.View, error) {
	if len(configs) == 0 {
		return nil, nil
	}
	views := make(map[string]domain.View, len(configs))
	for name, vc := range configs {
		view := domain.View{Prompt: vc.Prompt}
		if vc.Answer != nil {
			kind, err := domain.ParseAnswerKind(vc.Answer.Kind)
			if err != nil {
				return nil, fmt.Errorf("family %s view %s: %w", familyID, name, err)
			}
			view.Answer = &domain.AnswerSpec{
				Kind: kind,
				Of:   append([]string(nil), vc.Answer.Of...),
				Options: domain.AnswerOptions{
					OrderedRoots:         vc.Answer.Options.OrderedRoots,
					AllowImplicitLeading: vc.Answer.Options.AllowImplicitLeading,
					FuzzyDistance:        vc.Answer.Options.FuzzyDistance,
				},
			}
		}
		views[name] = view
	}
	return views, nil
}

func copyStringMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
