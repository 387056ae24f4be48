// Package domain contains pure, dependency-free domain models and types
// for the question generation engine.
package domain

import (
	"fmt"
	"sort"
)

// SignFilter restricts a range-mode parameter spec to one side of zero.
type SignFilter string

const (
	// SignAny places no sign restriction on the candidate set.
	SignAny SignFilter = ""

	// SignPositive keeps only candidates strictly greater than zero.
	SignPositive SignFilter = "positive"

	// SignNegative keeps only candidates strictly less than zero.
	SignNegative SignFilter = "negative"
)

// IntRange describes range-mode sampling: the inclusive integer interval
// [Lo, Hi], minus Exclude, filtered by Sign.
type IntRange struct {
	// Lo is the inclusive lower bound.
	Lo int

	// Hi is the inclusive upper bound.
	Hi int

	// Exclude lists values removed from the candidate set.
	Exclude []int

	// Sign optionally restricts candidates to one side of zero.
	Sign SignFilter
}

// ParamSpec describes how one parameter is sampled. Exactly one mode must
// be set: either Int (range mode) or Choices (explicit finite choice set).
type ParamSpec struct {
	// Int is the range-mode specification, nil when choice mode is used.
	Int *IntRange

	// Choices is the explicit choice set, empty when range mode is used.
	Choices []float64
}

// Validate checks that exactly one sampling mode is specified and that a
// range-mode interval is not inverted.
func (s ParamSpec) Validate() error {
	switch {
	case s.Int == nil && len(s.Choices) == 0:
		return fmt.Errorf("%w: parameter spec declares neither a range nor choices", ErrInvalidConfiguration)
	case s.Int != nil && len(s.Choices) > 0:
		return fmt.Errorf("%w: parameter spec declares both a range and choices", ErrInvalidConfiguration)
	case s.Int != nil && s.Int.Lo > s.Int.Hi:
		return fmt.Errorf("%w: range [%d, %d] is inverted", ErrInvalidConfiguration, s.Int.Lo, s.Int.Hi)
	}
	if s.Int != nil {
		switch s.Int.Sign {
		case SignAny, SignPositive, SignNegative:
		default:
			return fmt.Errorf("%w: unknown sign filter %q", ErrInvalidConfiguration, s.Int.Sign)
		}
	}
	return nil
}

// View pairs a human-readable prompt template with the specification of
// the answer it expects. Prompt placeholders use {{name}} syntax and are
// filled from the instance environment by the renderer.
type View struct {
	// Prompt is the template text shown to the student.
	Prompt string

	// Answer describes how to extract the expected answer and compare the
	// student's submission. Nil means the view is ungraded.
	Answer *AnswerSpec
}

// Preset is a fixed parameterization of a family. Requesting a preset
// skips sampling for the names it pins.
type Preset struct {
	// ID identifies the preset within its family.
	ID string

	// Params maps parameter names to their fixed values.
	Params map[string]float64
}

// Variant is a semi-fixed parameterization of a family. At generation
// time one variant is picked uniformly when the family declares any;
// its entries override the family's on name collision, except constraints
// which are concatenated, never deduplicated.
type Variant struct {
	// ID identifies the variant within its family.
	ID string

	// Params are parameter specs overriding family specs by name.
	Params map[string]ParamSpec

	// PickOrder optionally overrides the family's sampling order.
	PickOrder []string

	// Derive are formulas overriding family formulas by name.
	Derive map[string]string

	// Constraints are appended to the family's constraint list.
	Constraints []string

	// Views replace the family's views when non-empty.
	Views map[string]View
}

// Family is a named question archetype: parameter specs, derived-value
// formulas, validity constraints, views, and optional presets and
// variants. Families are immutable once loaded and are shared read-only
// across all instance creations.
type Family struct {
	// ID uniquely identifies the family within the bank.
	ID string

	// Params maps parameter names to their sampling specs.
	Params map[string]ParamSpec

	// PickOrder lists parameters sampled first, in order. Parameters not
	// listed are sampled afterward in sorted declaration order.
	PickOrder []string

	// Derive maps derived-value names to formula text over parameters and
	// other derived names. Resolution order is implicit; the resolver
	// discovers it dynamically.
	Derive map[string]string

	// Constraints are boolean expressions that must all hold for an
	// instance to be accepted.
	Constraints []string

	// Views maps view names to prompt/answer descriptors.
	Views map[string]View

	// Presets are fixed parameter sets, addressable by ID.
	Presets []Preset

	// Variants are semi-fixed parameterizations, one picked per instance
	// when present.
	Variants []Variant
}

// Preset returns the preset with the given ID.
func (f *Family) Preset(id string) (Preset, bool) {
	for _, p := range f.Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// ParamNames returns the family's parameter names in sorted order.
// Sorting keeps map iteration out of the sampling path so generation is
// reproducible under a fixed seed.
func ParamNames(specs map[string]ParamSpec) []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
