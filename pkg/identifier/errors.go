package identifier

import (
	"errors"
	"fmt"
)

// Reason is the closed set of validation failures. Every reason is terminal:
// validating the same input again always yields the same verdict.
type Reason string

const (
	ReasonBadLength          Reason = "bad_length"
	ReasonBadFormat          Reason = "bad_format"
	ReasonChecksumMismatch   Reason = "checksum_mismatch"
	ReasonUnsupportedCountry Reason = "unsupported_country"
	ReasonWrongCountry       Reason = "wrong_country"
)

// String returns the wire form of the reason.
func (r Reason) String() string {
	return string(r)
}

// Sentinels for errors.Is matching on a reason, independent of kind.
var (
	ErrBadLength          = errors.New(string(ReasonBadLength))
	ErrBadFormat          = errors.New(string(ReasonBadFormat))
	ErrChecksumMismatch   = errors.New(string(ReasonChecksumMismatch))
	ErrUnsupportedCountry = errors.New(string(ReasonUnsupportedCountry))
	ErrWrongCountry       = errors.New(string(ReasonWrongCountry))
)

var reasonSentinels = map[Reason]error{
	ReasonBadLength:          ErrBadLength,
	ReasonBadFormat:          ErrBadFormat,
	ReasonChecksumMismatch:   ErrChecksumMismatch,
	ReasonUnsupportedCountry: ErrUnsupportedCountry,
	ReasonWrongCountry:       ErrWrongCountry,
}

// ValidationError reports why an identifier was rejected.
//
// Cause is set when the rejection comes from an embedded SIREN (inside a SIRET
// or a French VAT number). In that case Reason mirrors the SIREN's reason.
type ValidationError struct {
	Kind    Kind
	Reason  Reason
	Message string
	Cause   *ValidationError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the embedded SIREN failure, if any.
func (e *ValidationError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Is matches the reason sentinels, so errors.Is(err, ErrChecksumMismatch)
// holds for any checksum failure.
func (e *ValidationError) Is(target error) bool {
	return reasonSentinels[e.Reason] == target
}

// EmbeddedSiren reports whether the failure comes from the SIREN contained in
// a larger identifier rather than from the identifier's own rules.
func (e *ValidationError) EmbeddedSiren() bool {
	return e.Cause != nil && e.Cause.Kind == KindSiren
}

func newValidationError(kind Kind, reason Reason, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// embeddedSirenError wraps a SIREN failure found inside an identifier of kind.
func embeddedSirenError(kind Kind, cause *ValidationError) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Reason:  cause.Reason,
		Message: "embedded SIREN is invalid: " + cause.Message,
		Cause:   cause,
	}
}

// AsValidationError extracts the outermost ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ReasonOf returns the validation reason carried by err, or "" when err is
// not a validation failure.
func ReasonOf(err error) Reason {
	if ve, ok := AsValidationError(err); ok {
		return ve.Reason
	}
	return ""
}
