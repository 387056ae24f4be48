package domain

import "fmt"

// AnswerKind discriminates the closed set of answer shapes the grader
// understands. Bank data uses string tags; ParseAnswerKind maps them, and
// their historical aliases, onto this enum so an unrecognized kind is
// caught at load time rather than reaching the grader.
type AnswerKind string

const (
	// AnswerNumeric expects a single number, named in the environment.
	AnswerNumeric AnswerKind = "numeric"

	// AnswerNumericExpr expects a single number computed by evaluating an
	// expression against the environment.
	AnswerNumericExpr AnswerKind = "numeric_expr"

	// AnswerTuple expects an ordered sequence compared element-wise.
	AnswerTuple AnswerKind = "tuple"

	// AnswerSet expects an unordered collection; both sides are sorted
	// before element-wise comparison and expected duplicates collapse.
	AnswerSet AnswerKind = "set"

	// AnswerMultiset expects an unordered collection with duplicates
	// preserved on both sides.
	AnswerMultiset AnswerKind = "multiset"

	// AnswerOneOf expects a single label matched case-insensitively
	// against a list of allowed labels.
	AnswerOneOf AnswerKind = "one_of"

	// AnswerFactorTriplet expects a leading coefficient plus two roots,
	// as produced by factoring a quadratic.
	AnswerFactorTriplet AnswerKind = "factor_triplet"

	// AnswerAck expects nothing; any submission is accepted. Used for
	// free-response views with no graded answer.
	AnswerAck AnswerKind = "ack"
)

// answerKindAliases maps the tags found in historical bank data onto the
// canonical kinds.
var answerKindAliases = map[string]AnswerKind{
	"numeric":            AnswerNumeric,
	"numeric_expr":       AnswerNumericExpr,
	"tuple":              AnswerTuple,
	"tuple_int":          AnswerTuple,
	"tuple_numeric":      AnswerTuple,
	"set":                AnswerSet,
	"set_numeric":        AnswerSet,
	"pair_unordered_int": AnswerSet,
	"roots_set":          AnswerSet,
	"multiset":           AnswerMultiset,
	"multiset_numeric":   AnswerMultiset,
	"roots_multiset":     AnswerMultiset,
	"one_of":             AnswerOneOf,
	"factor_triplet":     AnswerFactorTriplet,
	"ack":                AnswerAck,
}

// ParseAnswerKind maps a bank data tag onto the canonical AnswerKind,
// returning ErrUnsupportedAnswerKind for anything outside the closed set.
func ParseAnswerKind(tag string) (AnswerKind, error) {
	kind, ok := answerKindAliases[tag]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAnswerKind, tag)
	}
	return kind, nil
}

// AnswerOptions carries kind-specific comparison knobs.
type AnswerOptions struct {
	// OrderedRoots makes the root pair of a factor triplet order-sensitive.
	// Off by default: (x-2)(x-3) and (x-3)(x-2) are the same factoring.
	OrderedRoots bool

	// AllowImplicitLeading lets a blank or omitted leading coefficient in
	// a factor triplet stand for the multiplicative identity.
	AllowImplicitLeading bool

	// FuzzyDistance permits a one_of label to differ from an allowed
	// label by at most this Levenshtein distance. Zero means exact
	// (case-insensitive) matching.
	FuzzyDistance int
}

// AnswerSpec is the tagged description of how to extract the expected
// answer from an instance environment and how to compare a student's
// submission against it.
type AnswerSpec struct {
	// Kind selects the comparison arm.
	Kind AnswerKind

	// Of carries the kind-specific payload: a single name or expression
	// for numeric kinds, a list of names for collection kinds, allowed
	// labels for one_of, and leading coefficient plus two root names for
	// a factor triplet. Empty for ack.
	Of []string

	// Options carries the kind-specific comparison knobs.
	Options AnswerOptions
}
