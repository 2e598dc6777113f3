package providers

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCategory is the provider-independent classification of a lookup
// failure. The registry service decides fallback and breaker accounting from
// it, never from provider-specific errors.
type ErrorCategory string

const (
	ErrorTimeout          ErrorCategory = "timeout"
	ErrorProviderOutage   ErrorCategory = "provider_outage"
	ErrorRateLimited      ErrorCategory = "rate_limited"
	ErrorNotFound         ErrorCategory = "not_found"
	ErrorAuthentication   ErrorCategory = "authentication"
	ErrorBadData          ErrorCategory = "bad_data"
	ErrorContractMismatch ErrorCategory = "contract_mismatch"
	ErrorInternal         ErrorCategory = "internal"
)

// Transient categories: another attempt, here or at the next provider, may
// succeed.
var retryableCategories = map[ErrorCategory]bool{
	ErrorTimeout:        true,
	ErrorProviderOutage: true,
	ErrorRateLimited:    true,
}

var (
	ErrNoProvidersAvailable = errors.New("no providers available for this type")
	ErrAllProvidersFailed   = errors.New("all providers failed")
	ErrCircuitOpen          = errors.New("provider circuit open")
)

// ProviderError is what every Provider returns on failure.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
	Retryable  bool
}

// NewProviderError builds a ProviderError; Retryable follows the category.
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryableCategories[category],
	}
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Underlying }

// IsRetryable reports whether err wraps a transient ProviderError.
func IsRetryable(err error) bool {
	pe, ok := asProviderError(err)
	return ok && pe.Retryable
}

// GetCategory returns the category of the ProviderError in err's chain, or
// ErrorInternal when there is none.
func GetCategory(err error) ErrorCategory {
	if pe, ok := asProviderError(err); ok {
		return pe.Category
	}
	return ErrorInternal
}

func asProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	ok := errors.As(err, &pe)
	return pe, ok
}

// ClassifyHTTPStatus maps an upstream status code to a category. ok is false
// for 2xx.
func ClassifyHTTPStatus(status int) (category ErrorCategory, ok bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status == http.StatusNotFound:
		return ErrorNotFound, true
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrorAuthentication, true
	case status == http.StatusTooManyRequests:
		return ErrorRateLimited, true
	case status >= 500:
		return ErrorProviderOutage, true
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrorBadData, true
	default:
		return ErrorContractMismatch, true
	}
}
