package verification

import (
	"errors"
	"time"

	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/identifier"
)

// Envelope is the uniform result of a verification. Data is set only on
// success; Error, ErrorCode and ErrorSource only on failure.
//
// ErrorSource names the identifier whose rule failed. It differs from the
// requested kind when a SIRET or French VAT number is rejected because of its
// embedded SIREN.
type Envelope struct {
	Success     bool   `json:"success"`
	Data        any    `json:"data,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
	ErrorSource string `json:"error_source,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// Project wraps a validation outcome into an Envelope. Validation failures
// carry their reason as ErrorCode; any other error is reported by its domain
// code without leaking internal detail.
func Project(data any, err error, now time.Time) Envelope {
	env := Envelope{Timestamp: now.Format(time.RFC3339)}
	if err == nil {
		env.Success = true
		env.Data = data
		return env
	}

	if ve, ok := identifier.AsValidationError(err); ok {
		env.Error = ve.Message
		env.ErrorCode = string(ve.Reason)
		env.ErrorSource = string(ve.Kind)
		if ve.EmbeddedSiren() {
			env.ErrorSource = string(ve.Cause.Kind)
		}
		return env
	}
	code := dErrors.CodeOf(err)
	env.ErrorCode = string(code)
	env.Error = "verification failed"
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		env.Error = de.Message
	}
	return env
}
