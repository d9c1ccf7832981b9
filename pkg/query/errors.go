package query

import "fmt"

// ErrorKind classifies payload parse failures. Transport errors (including
// receive timeouts) are not wrapped and surface verbatim from the net layer.
type ErrorKind int

const (
	// KindInsufficientData marks a required segment or key missing from the payload.
	KindInsufficientData ErrorKind = iota
	// KindMalformedValue marks a numeric field with non-digit bytes or short port bytes.
	KindMalformedValue
	// KindStructural marks a payload whose section framing cannot be located.
	KindStructural
)

// String returns a short human-readable name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInsufficientData:
		return "insufficient data"
	case KindMalformedValue:
		return "malformed value"
	case KindStructural:
		return "structural"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against the kind of a *ParseError.
var (
	ErrInsufficientData = &ParseError{Kind: KindInsufficientData}
	ErrMalformedValue   = &ParseError{Kind: KindMalformedValue}
	ErrStructural       = &ParseError{Kind: KindStructural}
)

// ParseError is a typed payload decoding failure. Field names the payload
// field or section being decoded when the failure was detected, and may be
// empty for whole-payload failures.
type ParseError struct {
	Field string
	Kind  ErrorKind
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("query: %s in payload", e.Kind)
	}

	return fmt.Sprintf("query: %s in field %q", e.Kind, e.Field)
}

// Is reports kind equality, so errors.Is(err, ErrMalformedValue) matches any
// malformed-value failure regardless of field.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}

	return e.Kind == t.Kind && (t.Field == "" || t.Field == e.Field)
}
