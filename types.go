package searchql

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Comparison is the comparison token written between the nominator and the
// term of an explicit term, e.g. `age:>=30`.
type Comparison string

const (
	// CompareEq represents the plain field filter `field:value`.
	CompareEq Comparison = ":"
	// CompareGt represents greater-than.
	CompareGt Comparison = ":>"
	// CompareGte represents greater-than-or-equal.
	CompareGte Comparison = ":>="
	// CompareLt represents less-than.
	CompareLt Comparison = ":<"
	// CompareLte represents less-than-or-equal.
	CompareLte Comparison = ":<="
)

// Valid reports whether c is one of the known comparison tokens.
func (c Comparison) Valid() bool {
	switch c {
	case CompareEq, CompareGt, CompareGte, CompareLt, CompareLte:
		return true
	default:
		return false
	}
}

// ErrorCode represents specific error codes for query operations.
type ErrorCode int

const (
	// ErrCodeEmptyQuery is returned when an empty query is provided.
	ErrCodeEmptyQuery ErrorCode = iota + 1000

	// ErrCodeInvalidOption is returned when an invalid option is provided.
	ErrCodeInvalidOption

	// ErrCodeInvalidExpression is returned when an invalid expression is provided.
	ErrCodeInvalidExpression

	// ErrCodeTimeout is returned when a search operation times out.
	ErrCodeTimeout

	// ErrCodeCanceled is returned when a search operation is canceled.
	ErrCodeCanceled

	// ErrCodeNotImplemented is returned when a feature is not implemented.
	ErrCodeNotImplemented

	// ErrCodeBackendUnavailable is returned when the search backend is unavailable.
	ErrCodeBackendUnavailable

	// ErrCodeMalformedRange is returned when a range payload does not hold exactly two bounds.
	ErrCodeMalformedRange

	// ErrCodeUnsupportedNominator is returned when an explicit term nominator has no handler.
	ErrCodeUnsupportedNominator
)

// String returns the human-readable string representation of the error code.
// This implements the fmt.Stringer interface.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeEmptyQuery:
		return "empty query"
	case ErrCodeInvalidOption:
		return "invalid option"
	case ErrCodeInvalidExpression:
		return "invalid expression"
	case ErrCodeTimeout:
		return "operation timed out"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeNotImplemented:
		return "not implemented"
	case ErrCodeBackendUnavailable:
		return "backend unavailable"
	case ErrCodeMalformedRange:
		return "malformed range"
	case ErrCodeUnsupportedNominator:
		return "unsupported nominator"
	default:
		return "unknown error"
	}
}

// newErrorWithCode creates a new error with a code and message.
func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

// Common errors that can be returned by compile and search operations.
var (
	// ErrEmptyQuery is returned when an empty query is provided.
	ErrEmptyQuery = newErrorWithCode(ErrCodeEmptyQuery, "searchql: empty query")

	// ErrInvalidOption is returned when an invalid option is provided.
	ErrInvalidOption = newErrorWithCode(ErrCodeInvalidOption, "searchql: invalid option")

	// ErrInvalidExpression is returned when an expression tree is ill-formed.
	ErrInvalidExpression = newErrorWithCode(ErrCodeInvalidExpression, "searchql: invalid expression")

	// ErrTimeout is returned when a search operation times out.
	ErrTimeout = newErrorWithCode(ErrCodeTimeout, "searchql: operation timed out")

	// ErrCanceled is returned when a search operation is canceled.
	ErrCanceled = newErrorWithCode(ErrCodeCanceled, "searchql: operation canceled")

	// ErrNotImplemented is returned when a feature is not implemented.
	ErrNotImplemented = newErrorWithCode(ErrCodeNotImplemented, "searchql: not implemented")

	// ErrBackendUnavailable is returned when the search backend is unavailable.
	ErrBackendUnavailable = newErrorWithCode(ErrCodeBackendUnavailable, "searchql: backend unavailable")

	// ErrMalformedRange is matched by every *MalformedRangeError.
	ErrMalformedRange = newErrorWithCode(ErrCodeMalformedRange, "searchql: malformed range")

	// ErrUnsupportedNominator is returned by strict compilers when an explicit
	// term nominator is a node variant with no handler.
	ErrUnsupportedNominator = newErrorWithCode(ErrCodeUnsupportedNominator, "searchql: unsupported nominator")
)

// MalformedRangeError reports a range token that cannot be decoded into
// exactly two bounds.
type MalformedRangeError struct {
	// Token is the raw range payload.
	Token string
	// Reason describes what was wrong with it.
	Reason string
}

func (e *MalformedRangeError) Error() string {
	return fmt.Sprintf("searchql: malformed range %q: %s", e.Token, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedRange) hold for any *MalformedRangeError.
func (e *MalformedRangeError) Is(target error) bool {
	return target == ErrMalformedRange
}
