package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors that can occur during generation and grading.
var (
	// ErrFamilyNotFound indicates a request for a family ID absent from
	// the loaded bank.
	ErrFamilyNotFound = errors.New("family not found")

	// ErrPresetNotFound indicates a request for a preset ID the family
	// does not declare.
	ErrPresetNotFound = errors.New("preset not found")

	// ErrInstanceNotFound indicates a grading or rendering request for an
	// instance ID the store has never seen.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrViewNotFound indicates a request for a view name the family does
	// not declare.
	ErrViewNotFound = errors.New("view not found")

	// ErrEmptyDomain indicates a parameter spec whose candidate set is
	// empty after exclusions and sign filtering.
	ErrEmptyDomain = errors.New("empty sampling domain")

	// ErrExhaustedRetries indicates that sampling could not satisfy the
	// constraints within the attempt budget. Recoverable: the caller may
	// retry the whole request, possibly under a different seed.
	ErrExhaustedRetries = errors.New("exhausted retries")

	// ErrUnsupportedAnswerKind indicates an answer kind tag outside the
	// closed set. Always a bank-authoring defect, never student input.
	ErrUnsupportedAnswerKind = errors.New("unsupported answer kind")

	// ErrInvalidConfiguration indicates structurally invalid family data:
	// missing required keys, malformed specs, or a derivation cycle.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// DerivationError reports derived values that could not be resolved: a
// dependency cycle or a reference to a name that never materializes.
// It is a data-authoring defect, not a retryable runtime condition, and
// aborts instance creation for the request.
type DerivationError struct {
	// FamilyID names the family whose derive map is defective.
	FamilyID string

	// Unresolved lists the derived names that never resolved, sorted.
	Unresolved []string

	// Cycle, when non-empty, is one witness dependency cycle among the
	// unresolved names.
	Cycle []string
}

// Error implements the error interface for DerivationError.
func (e *DerivationError) Error() string {
	msg := fmt.Sprintf("derivation failed for family %q: unresolved %v", e.FamilyID, e.Unresolved)
	if len(e.Cycle) > 0 {
		msg += ": cycle: " + strings.Join(e.Cycle, " -> ")
	}
	return msg
}

// Unwrap classifies derivation failures as configuration defects.
func (e *DerivationError) Unwrap() error { return ErrInvalidConfiguration }

// ConstraintError reports a constraint expression whose evaluation itself
// failed. Constraints must reference only names guaranteed present, so
// this is a configuration defect and aborts the whole generation rather
// than triggering a resample.
type ConstraintError struct {
	// FamilyID names the family whose constraint is defective.
	FamilyID string

	// Constraint is the offending expression text.
	Constraint string

	// Err is the underlying sandbox error.
	Err error
}

// Error implements the error interface for ConstraintError.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %q for family %q: %v", e.Constraint, e.FamilyID, e.Err)
}

// Unwrap returns the underlying sandbox error.
func (e *ConstraintError) Unwrap() error { return e.Err }

// RetryError reports retry-budget exhaustion for a family, carrying the
// attempt count for operator diagnostics. Persistent exhaustion suggests
// over-constrained specs rather than a one-off unlucky draw.
type RetryError struct {
	// FamilyID names the family that exhausted its budget.
	FamilyID string

	// Attempts is the number of sampling attempts made.
	Attempts int
}

// Error implements the error interface for RetryError.
func (e *RetryError) Error() string {
	return fmt.Sprintf("family %q: constraints not satisfied after %d attempts", e.FamilyID, e.Attempts)
}

// Unwrap classifies the failure as recoverable retry exhaustion.
func (e *RetryError) Unwrap() error { return ErrExhaustedRetries }
