package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-slate/internal/domain"
	"github.com/ahrav/go-slate/internal/expr"
)

// registerCustomValidators registers domain-specific validation functions
// with the validator instance.
// registerCustomValidators returns an error if any registration fails.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3
}

// validateFamilySemantics performs the family-level rules that cannot
// be expressed through struct tags: parameter mode exclusivity,
// reference integrity between pick order, presets, and params, and
// parse-checking every expression field against the sandbox grammar.
// Names inside expressions are deliberately not resolved here; the
// environment they run against exists only per generated instance.
func validateFamilySemantics(familyID string, fc FamilyConfig) error {
	if err := validateParamConfigs(familyID, fc.Params); err != nil {
		return err
	}
	if err := validatePickOrder(familyID, fc.PickOrder, fc.Params, nil); err != nil {
		return err
	}
	if err := validateExpressions(familyID, fc.Derive, fc.Constraints); err != nil {
		return err
	}
	if err := validateViewConfigs(familyID, fc.Views); err != nil {
		return err
	}

	presetIDs := make(map[string]struct{}, len(fc.Presets))
	for _, preset := range fc.Presets {
		if _, dup := presetIDs[preset.ID]; dup {
			return fmt.Errorf("family %s: duplicate preset ID %q", familyID, preset.ID)
		}
		presetIDs[preset.ID] = struct{}{}

		for name := range preset.Params {
			if _, ok := fc.Params[name]; !ok {
				return fmt.Errorf("family %s preset %s pins unknown parameter %q", familyID, preset.ID, name)
			}
		}
	}

	variantIDs := make(map[string]struct{}, len(fc.Variants))
	for _, variant := range fc.Variants {
		if _, dup := variantIDs[variant.ID]; dup {
			return fmt.Errorf("family %s: duplicate variant ID %q", familyID, variant.ID)
		}
		variantIDs[variant.ID] = struct{}{}

		if err := validateParamConfigs(familyID, variant.Params); err != nil {
			return fmt.Errorf("variant %s: %w", variant.ID, err)
		}
		if err := validatePickOrder(familyID, variant.PickOrder, fc.Params, variant.Params); err != nil {
			return fmt.Errorf("variant %s: %w", variant.ID, err)
		}
		if err := validateExpressions(familyID, variant.Derive, variant.Constraints); err != nil {
			return fmt.Errorf("variant %s: %w", variant.ID, err)
		}
		if err := validateViewConfigs(familyID, variant.Views); err != nil {
			return fmt.Errorf("variant %s: %w", variant.ID, err)
		}
	}

	return nil
}

// validateParamConfigs checks that each parameter spec selects exactly
// one sampling mode and that range bounds are ordered.
func validateParamConfigs(familyID string, params map[string]ParamConfig) error {
	for name, pc := range params {
		hasInt := len(pc.Int) == 2
		hasChoices := len(pc.Choices) > 0
		switch {
		case hasInt && hasChoices:
			return fmt.Errorf("family %s param %s: int range and choices are mutually exclusive", familyID, name)
		case !hasInt && !hasChoices:
			return fmt.Errorf("family %s param %s: needs an int range or a choice list", familyID, name)
		}
		if hasInt && pc.Int[0] > pc.Int[1] {
			return fmt.Errorf("family %s param %s: range lo %v exceeds hi %v", familyID, name, pc.Int[0], pc.Int[1])
		}
		if !hasInt && (len(pc.Exclude) > 0 || pc.Sign != "") {
			return fmt.Errorf("family %s param %s: exclude and sign apply only to int ranges", familyID, name)
		}
	}
	return nil
}

// validatePickOrder checks that every pick-order name resolves to a
// declared parameter, consulting variant overrides when present.
func validatePickOrder(familyID string, order []string, params, overrides map[string]ParamConfig) error {
	for _, name := range order {
		if _, ok := params[name]; ok {
			continue
		}
		if _, ok := overrides[name]; ok {
			continue
		}
		return fmt.Errorf("family %s pick_order references undeclared parameter %q", familyID, name)
	}
	return nil
}

// validateExpressions parse-checks derive and constraint expressions.
func validateExpressions(familyID string, derive map[string]string, constraints []string) error {
	for name, src := range derive {
		if _, err := expr.Parse(src); err != nil {
			return fmt.Errorf("family %s derive %s: %w", familyID, name, err)
		}
	}
	for i, src := range constraints {
		if _, err := expr.Parse(src); err != nil {
			return fmt.Errorf("family %s constraint %d: %w", familyID, i, err)
		}
	}
	return nil
}

// validateViewConfigs checks each view's answer spec: the kind tag must
// parse, non-ack kinds need at least one source, and sources that are
// not bare names must parse as sandbox expressions.
func validateViewConfigs(familyID string, views map[string]ViewConfig) error {
	for name, vc := range views {
		if vc.Answer == nil {
			continue
		}
		kind, err := domain.ParseAnswerKind(vc.Answer.Kind)
		if err != nil {
			return fmt.Errorf("family %s view %s: %w", familyID, name, err)
		}
		if kind != domain.AnswerAck && len(vc.Answer.Of) == 0 {
			return fmt.Errorf("family %s view %s: answer kind %s needs at least one source", familyID, name, kind)
		}
		for _, of := range vc.Answer.Of {
			if kind == domain.AnswerOneOf {
				continue // labels, not expressions
			}
			if _, err := expr.Parse(of); err != nil {
				return fmt.Errorf("family %s view %s: answer source %q: %w", familyID, name, of, err)
			}
		}
	}
	return nil
}
