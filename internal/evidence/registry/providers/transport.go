package providers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// TransportConfig configures the retrying HTTP client shared by providers.
type TransportConfig struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// CheckRetry overrides retryablehttp.DefaultRetryPolicy.
	CheckRetry retryablehttp.CheckRetry
}

// NewHTTPClient returns an *http.Client that retries connection errors, 429
// and 5xx responses with exponential backoff. Once retries are exhausted the
// last response is returned unchanged so callers can classify its status.
func NewHTTPClient(cfg TransportConfig) *http.Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = max(cfg.RetryMax, 0)
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	rc.CheckRetry = retryablehttp.DefaultRetryPolicy
	if cfg.CheckRetry != nil {
		rc.CheckRetry = cfg.CheckRetry
	}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}
	return rc.StandardClient()
}

// ClassifyTransportError maps a failed round trip to the error taxonomy.
func ClassifyTransportError(providerID string, err error) *ProviderError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return NewProviderError(ErrorTimeout, providerID, "request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ErrorInternal, providerID, "request canceled", err)
	default:
		return NewProviderError(ErrorProviderOutage, providerID, "upstream unreachable", err)
	}
}
