package types

import "errors"

// Sentinel errors shared across the storage and query layers.
var (
	ErrNotFound     = errors.New("record not found")
	ErrClosed       = errors.New("context is closed")
	ErrNotAString   = errors.New("not a string")
	ErrNotANumber   = errors.New("not a number")
	ErrInvalidName  = errors.New("name is not valid")
	ErrReservedName = errors.New("name is reserved")

	// ErrTypeMismatch is returned when a write's scalar type disagrees
	// with the attribute's declared type. The message text is fixed.
	ErrTypeMismatch = errors.New("Data numeric does not match name")

	// ErrMixedKeyTypes is returned by batch upserts when the primary
	// keys are not all strings or all numbers.
	ErrMixedKeyTypes = errors.New("batch keys must be all strings or all numbers")
)

// ParseError is a dialect violation found while parsing query text.
// The message strings are fixed and user-facing.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return e.Msg
}

// ValidationError is an identifier, operator, or parameter-name
// syntax failure, raised both during parse and during compile.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}
