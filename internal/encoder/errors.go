package encoder

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes encoding failures.
type ErrorCode string

const (
	// ErrCodeAmbiguousAlias indicates one alias key bound to two table references.
	ErrCodeAmbiguousAlias ErrorCode = "AMBIGUOUS_ALIAS"

	// ErrCodeSelfJoin indicates one real table referenced twice in a query.
	ErrCodeSelfJoin ErrorCode = "UNSUPPORTED_SELF_JOIN"

	// ErrCodeUnknownTable indicates a table or alias that cannot be resolved.
	ErrCodeUnknownTable ErrorCode = "UNKNOWN_TABLE"

	// ErrCodeUnknownColumn indicates a (table, column) pair absent from the schema.
	ErrCodeUnknownColumn ErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeTypeMismatch indicates Text used in arithmetic or compared with a number.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnsupportedPredicate indicates a predicate kind the encoder cannot lower.
	ErrCodeUnsupportedPredicate ErrorCode = "UNSUPPORTED_PREDICATE"

	// ErrCodeUnresolvedExpression indicates an expression kind the encoder cannot lower.
	ErrCodeUnresolvedExpression ErrorCode = "UNRESOLVED_EXPRESSION"

	// ErrCodeUnknownJoinSide indicates a join side outside inner/left/right/full/cross.
	ErrCodeUnknownJoinSide ErrorCode = "UNKNOWN_JOIN_SIDE"
)

// EncodingError reports why a query could not be encoded.
type EncodingError struct {
	Code    ErrorCode
	Message string

	// Query is 1 or 2; zero when the error is not tied to one query.
	Query int

	Table  string
	Column string
	Expr   string
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Query != 0 {
		msg += fmt.Sprintf(" (query %d)", e.Query)
	}
	if e.Expr != "" {
		msg += fmt.Sprintf(" in %q", e.Expr)
	}
	return msg
}

func hasCode(err error, code ErrorCode) bool {
	var ee *EncodingError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// IsAmbiguousAlias returns true if err is an ambiguous alias error.
func IsAmbiguousAlias(err error) bool { return hasCode(err, ErrCodeAmbiguousAlias) }

// IsTypeMismatch returns true if err is a type mismatch error.
func IsTypeMismatch(err error) bool { return hasCode(err, ErrCodeTypeMismatch) }

// IsUnknownColumn returns true if err is an unknown column error.
func IsUnknownColumn(err error) bool { return hasCode(err, ErrCodeUnknownColumn) }

// IsUnsupportedPredicate returns true if err is an unsupported predicate error.
func IsUnsupportedPredicate(err error) bool { return hasCode(err, ErrCodeUnsupportedPredicate) }

// IsEncodingError returns true for any *EncodingError in err's chain.
func IsEncodingError(err error) bool {
	var ee *EncodingError
	return errors.As(err, &ee)
}
