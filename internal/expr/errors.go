package expr

import (
	"errors"
	"fmt"
)

// Sentinel error kinds returned by the sandbox. Callers classify failures
// with errors.Is; every error produced by Parse or Evaluate wraps exactly
// one of these.
var (
	// ErrSyntax indicates malformed expression text that could not be
	// tokenized or parsed.
	ErrSyntax = errors.New("syntax error")

	// ErrUnsupportedConstruct indicates text that is lexically valid in a
	// general-purpose language but structurally outside the sandbox grammar:
	// assignment, attribute access, subscripting, statement separators,
	// string literals, and similar.
	ErrUnsupportedConstruct = errors.New("unsupported construct")

	// ErrUnknownName indicates a reference to a name that is neither in the
	// evaluation environment nor in the allowlisted function table.
	ErrUnknownName = errors.New("unknown name")

	// ErrUnsupportedOperator indicates an operator token outside the
	// arithmetic/comparison allowlist.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrDivisionByZero indicates a zero divisor in /, // or %.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrType indicates an operand of the wrong kind, such as arithmetic
	// on a boolean comparison result.
	ErrType = errors.New("type error")

	// ErrBadArity indicates a call to an allowlisted function with the
	// wrong number of arguments.
	ErrBadArity = errors.New("wrong number of arguments")
)

// Error describes a failure at a specific position in the expression text.
// It wraps one of the sentinel kinds above so that callers can branch on
// the failure class without parsing messages.
type Error struct {
	// Kind is the sentinel classifying this failure.
	Kind error

	// Pos is the zero-based byte offset into the expression text where the
	// failure was detected.
	Pos int

	// Msg describes the specific failure.
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Kind.Error(), e.Pos, e.Msg)
}

// Unwrap returns the sentinel kind, supporting errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

func errAt(kind error, pos int, format string, args ...any) error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
