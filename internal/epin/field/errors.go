package field

import (
	"errors"
	"fmt"
)

// Format tags identify which record layout a field belongs to. They are
// carried in parse errors so a failure can be traced back to its layout.
type Format string

const (
	FormatVss110    Format = "VSS-110"
	FormatSubGroup4 Format = "VSS-SubGroup4"
	FormatTcr1      Format = "VSS-120-TCR1"
	FormatHeader    Format = "EPIN-Header"
)

// ErrorKind classifies field-level parse failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMalformedField
	KindMissingField
	KindOutOfRangeDate
	KindInvariantViolation
)

// Sentinel errors for errors.Is matching.
var (
	ErrMalformedField     = errors.New("malformed field")
	ErrMissingField       = errors.New("missing field")
	ErrOutOfRangeDate     = errors.New("date out of range")
	ErrInvariantViolation = errors.New("record invariant violation")
)

// Error describes a positional field failure with enough context to locate
// the offending bytes in the source file.
type Error struct {
	Kind     ErrorKind
	Field    string
	Expected string
	Value    string
	Line     int
	Format   Format
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("%s line %d: field %q missing (line too short, need %s)", e.Format, e.Line, e.Field, e.Expected)
	case KindOutOfRangeDate:
		return fmt.Sprintf("%s line %d: field %q date %q out of range %s", e.Format, e.Line, e.Field, e.Value, e.Expected)
	case KindInvariantViolation:
		return fmt.Sprintf("%s line %d: %s (field %q, value %q)", e.Format, e.Line, e.Expected, e.Field, e.Value)
	default:
		return fmt.Sprintf("%s line %d: field %q value %q does not match %s", e.Format, e.Line, e.Field, e.Value, e.Expected)
	}
}

// Is maps the structured kind onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrMalformedField:
		return e.Kind == KindMalformedField
	case ErrMissingField:
		return e.Kind == KindMissingField
	case ErrOutOfRangeDate:
		return e.Kind == KindOutOfRangeDate
	case ErrInvariantViolation:
		return e.Kind == KindInvariantViolation
	}
	if other, ok := target.(*Error); ok {
		return e.Kind == other.Kind && e.Field == other.Field
	}
	return false
}

// NewMalformed reports a field whose value fails its pattern or numeric
// contract.
func NewMalformed(format Format, line int, field, expected, value string) *Error {
	return &Error{Kind: KindMalformedField, Field: field, Expected: expected, Value: value, Line: line, Format: format}
}

// NewMissing reports a required field cut off by a short line.
func NewMissing(format Format, line int, field string, end int) *Error {
	return &Error{Kind: KindMissingField, Field: field, Expected: fmt.Sprintf("%d chars", end), Line: line, Format: format}
}

// NewOutOfRange reports a parsed date outside the accepted window.
func NewOutOfRange(format Format, line int, field, window, value string) *Error {
	return &Error{Kind: KindOutOfRangeDate, Field: field, Expected: window, Value: value, Line: line, Format: format}
}

// NewInvariant reports a cross-field consistency failure.
func NewInvariant(format Format, line int, field, description, value string) *Error {
	return &Error{Kind: KindInvariantViolation, Field: field, Expected: description, Value: value, Line: line, Format: format}
}
