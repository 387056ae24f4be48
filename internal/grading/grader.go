// Package grading implements the polymorphic answer grader: one
// comparison arm per answer kind, numeric comparisons under an absolute
// tolerance, and label comparisons under Unicode case folding with an
// optional fuzzy-distance allowance.
//
// Grading never crashes on malformed student input. Any submission whose
// shape cannot be coerced to what the answer kind requires grades as
// incorrect; the only errors the package returns are bank-authoring
// defects such as an unsupported answer kind or an answer spec that
// references a name missing from the instance environment.
package grading

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-slate/internal/domain"
	"github.com/ahrav/go-slate/internal/expr"
)

// DefaultTolerance is the absolute numeric comparison threshold applied
// when the caller does not configure one: effectively exact, loose only
// to floating rounding.
const DefaultTolerance = 1e-9

// foldCaser folds labels for case-insensitive comparison.
var foldCaser = cases.Fold()

// Result is the outcome of grading one submission.
type Result struct {
	// Correct reports whether the submission matches the expected answer
	// under the kind's comparison rule.
	Correct bool `json:"correct"`

	// Expected is the extracted expected answer, reported regardless of
	// correctness so callers can show the student what was expected.
	Expected any `json:"expected"`
}

// Grade compares a student's submission against the answer spec of one
// view, extracting the expected value from the instance environment.
// tolerance is the absolute threshold for every numeric comparison; pass
// DefaultTolerance unless the caller configures otherwise.
func Grade(spec domain.AnswerSpec, env map[string]float64, student any, tolerance float64) (Result, error) {
	switch spec.Kind {
	case domain.AnswerNumeric, domain.AnswerNumericExpr:
		return gradeNumeric(spec, env, student, tolerance)
	case domain.AnswerTuple:
		return gradeSequence(spec, env, student, tolerance, ordered)
	case domain.AnswerSet:
		return gradeSequence(spec, env, student, tolerance, unorderedUnique)
	case domain.AnswerMultiset:
		return gradeSequence(spec, env, student, tolerance, unordered)
	case domain.AnswerOneOf:
		return gradeOneOf(spec, student)
	case domain.AnswerFactorTriplet:
		return gradeFactorTriplet(spec, env, student, tolerance)
	case domain.AnswerAck:
		return Result{Correct: true, Expected: true}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedAnswerKind, spec.Kind)
	}
}

// operand resolves one answer-spec entry to a number: an environment name
// when it is one, otherwise a sandbox expression over the environment.
// A reference that resolves to neither is a bank defect, not bad input.
func operand(of string, env map[string]float64) (float64, error) {
	if v, ok := env[of]; ok {
		return v, nil
	}
	v, err := expr.EvaluateNumber(of, env)
	if err != nil {
		return 0, fmt.Errorf("%w: answer references %q: %v", domain.ErrInvalidConfiguration, of, err)
	}
	return v, nil
}

func gradeNumeric(spec domain.AnswerSpec, env map[string]float64, student any, tolerance float64) (Result, error) {
	if len(spec.Of) != 1 {
		return Result{}, fmt.Errorf("%w: numeric answer needs exactly one source, got %d", domain.ErrInvalidConfiguration, len(spec.Of))
	}
	expected, err := operand(spec.Of[0], env)
	if err != nil {
		return Result{}, err
	}

	got, ok := asNumber(student)
	if !ok {
		return Result{Correct: false, Expected: expected}, nil
	}
	return Result{Correct: withinTolerance(expected, got, tolerance), Expected: expected}, nil
}

type sequenceMode int

const (
	ordered sequenceMode = iota
	unordered
	unorderedUnique
)

func gradeSequence(spec domain.AnswerSpec, env map[string]float64, student any, tolerance float64, mode sequenceMode) (Result, error) {
	expected := make([]float64, 0, len(spec.Of))
	for _, of := range spec.Of {
		v, err := operand(of, env)
		if err != nil {
			return Result{}, err
		}
		expected = append(expected, v)
	}
	if mode == unorderedUnique {
		expected = dedupe(expected)
	}
	if mode != ordered {
		sort.Float64s(expected)
	}

	got, ok := asNumberSlice(student)
	if !ok || len(got) != len(expected) {
		return Result{Correct: false, Expected: expected}, nil
	}
	if mode != ordered {
		sort.Float64s(got)
	}

	for i := range expected {
		if !withinTolerance(expected[i], got[i], tolerance) {
			return Result{Correct: false, Expected: expected}, nil
		}
	}
	return Result{Correct: true, Expected: expected}, nil
}

func gradeOneOf(spec domain.AnswerSpec, student any) (Result, error) {
	if len(spec.Of) == 0 {
		return Result{}, fmt.Errorf("%w: one_of answer needs at least one label", domain.ErrInvalidConfiguration)
	}
	expected := spec.Of

	label, ok := asLabel(student)
	if !ok {
		return Result{Correct: false, Expected: expected}, nil
	}
	folded := foldCaser.String(strings.TrimSpace(label))

	for _, allowed := range expected {
		target := foldCaser.String(strings.TrimSpace(allowed))
		if folded == target {
			return Result{Correct: true, Expected: expected}, nil
		}
		if spec.Options.FuzzyDistance > 0 &&
			levenshtein.ComputeDistance(folded, target) <= spec.Options.FuzzyDistance {
			return Result{Correct: true, Expected: expected}, nil
		}
	}
	return Result{Correct: false, Expected: expected}, nil
}

// gradeFactorTriplet compares a factored form: a leading coefficient and
// two roots. The leading value must match exactly; the roots compare as
// an unordered pair unless order sensitivity is configured on. A blank or
// omitted leading value stands for 1 when the answer spec allows it.
func gradeFactorTriplet(spec domain.AnswerSpec, env map[string]float64, student any, tolerance float64) (Result, error) {
	if len(spec.Of) != 3 {
		return Result{}, fmt.Errorf("%w: factor_triplet answer needs a leading value and two roots, got %d entries", domain.ErrInvalidConfiguration, len(spec.Of))
	}
	leading, err := operand(spec.Of[0], env)
	if err != nil {
		return Result{}, err
	}
	root1, err := operand(spec.Of[1], env)
	if err != nil {
		return Result{}, err
	}
	root2, err := operand(spec.Of[2], env)
	if err != nil {
		return Result{}, err
	}

	expectedRoots := []float64{root1, root2}
	if !spec.Options.OrderedRoots {
		sort.Float64s(expectedRoots)
	}
	expected := []float64{leading, expectedRoots[0], expectedRoots[1]}

	gotLeading, gotRoots, ok := asTriplet(student, spec.Options.AllowImplicitLeading)
	if !ok {
		return Result{Correct: false, Expected: expected}, nil
	}
	if !spec.Options.OrderedRoots {
		sort.Float64s(gotRoots)
	}

	correct := withinTolerance(leading, gotLeading, 0) &&
		withinTolerance(expectedRoots[0], gotRoots[0], tolerance) &&
		withinTolerance(expectedRoots[1], gotRoots[1], tolerance)
	return Result{Correct: correct, Expected: expected}, nil
}

func withinTolerance(expected, got, tolerance float64) bool {
	if tolerance < 0 {
		tolerance = 0
	}
	return math.Abs(expected-got) <= tolerance
}

func dedupe(sorted []float64) []float64 {
	seen := make(map[float64]struct{}, len(sorted))
	out := sorted[:0]
	for _, v := range sorted {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// asNumber coerces the shapes a deserialized submission can arrive in:
// Go numerics, and numeric strings from form posts.
func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asNumberSlice(v any) ([]float64, bool) {
	switch t := v.(type) {
	case []float64:
		return append([]float64(nil), t...), true
	case []int:
		out := make([]float64, len(t))
		for i, n := range t {
			out[i] = float64(n)
		}
		return out, true
	case []any:
		out := make([]float64, len(t))
		for i, e := range t {
			f, ok := asNumber(e)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	case []string:
		out := make([]float64, len(t))
		for i, s := range t {
			f, ok := asNumber(s)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}

func asLabel(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}

// asTriplet accepts a factored-form submission as either a three-element
// sequence [leading, root1, root2] or a keyed mapping with "leading",
// "root1", and "root2". When implicitLeading is allowed, a blank or
// absent leading entry is read as 1.
func asTriplet(v any, implicitLeading bool) (leading float64, roots []float64, ok bool) {
	switch t := v.(type) {
	case []any:
		if len(t) != 3 {
			return 0, nil, false
		}
		lead, okLead := asNumber(t[0])
		if !okLead {
			s, isStr := t[0].(string)
			if implicitLeading && isStr && strings.TrimSpace(s) == "" {
				lead = 1
			} else {
				return 0, nil, false
			}
		}
		r1, ok1 := asNumber(t[1])
		r2, ok2 := asNumber(t[2])
		if !ok1 || !ok2 {
			return 0, nil, false
		}
		return lead, []float64{r1, r2}, true

	case []float64:
		if len(t) != 3 {
			return 0, nil, false
		}
		return t[0], []float64{t[1], t[2]}, true

	case map[string]any:
		lead := 1.0
		raw, present := t["leading"]
		switch {
		case present:
			l, okLead := asNumber(raw)
			if !okLead {
				s, isStr := raw.(string)
				if !(implicitLeading && isStr && strings.TrimSpace(s) == "") {
					return 0, nil, false
				}
				l = 1
			}
			lead = l
		case !implicitLeading:
			return 0, nil, false
		}
		r1, ok1 := asNumber(t["root1"])
		r2, ok2 := asNumber(t["root2"])
		if !ok1 || !ok2 {
			return 0, nil, false
		}
		return lead, []float64{r1, r2}, true

	default:
		return 0, nil, false
	}
}
