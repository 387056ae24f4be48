package domain

import "maps"

// Instance is one successful generation: a family's parameters pinned to
// concrete values with every derived value resolved. Instances are
// immutable after creation; the engine stores them by ID and never
// mutates or deletes them for the life of the process.
type Instance struct {
	// ID is the opaque, process-unique instance identifier.
	ID string

	// FamilyID names the family this instance was generated from.
	FamilyID string

	// VariantID names the variant that was picked, empty when the family
	// declares none.
	VariantID string

	// Params holds the sampled (or preset/overridden) parameter values.
	Params map[string]float64

	// Derived holds the resolved derived values.
	Derived map[string]float64
}

// Environment returns the flat name-to-value mapping consumed by the
// constraint validator, the template renderer, and the answer grader:
// the union of parameters and derived values. The returned map is a
// fresh copy; callers may not reach the instance's internals through it.
func (i *Instance) Environment() map[string]float64 {
	env := make(map[string]float64, len(i.Params)+len(i.Derived))
	maps.Copy(env, i.Params)
	maps.Copy(env, i.Derived)
	return env
}
