// Package middleware charges API key quotas on inbound requests.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"docverify/internal/ratelimit/models"
	"docverify/internal/ratelimit/service/quota"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

type QuotaConsumer interface {
	Consume(ctx context.Context, acct quota.Account, cost int) (*models.RateLimitResult, error)
}

// AccountResolver maps the authenticated key ID to its quota account.
type AccountResolver func(ctx context.Context, keyID string) (quota.Account, error)

type Middleware struct {
	quota    QuotaConsumer
	accounts AccountResolver
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables quota enforcement entirely (for demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(q QuotaConsumer, accounts AccountResolver, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		quota:    q,
		accounts: accounts,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("quota enforcement disabled")
	}
	return m
}

// RequireQuota charges one unit per request to the authenticated key. It must
// run after API key authentication. When the quota store is unavailable the
// request is let through.
func (m *Middleware) RequireQuota(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)
		acct, err := m.accounts(ctx, requestcontext.APIKeyID(ctx))
		if err != nil {
			m.logger.WarnContext(ctx, "quota account lookup failed", "request_id", requestID, "error", err)
			httputil.WriteError(w, err)
			return
		}

		result, err := m.quota.Consume(ctx, acct, 1)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check quota", "request_id", requestID, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		WriteQuotaHeaders(w, result)
		if !result.Allowed {
			WriteQuotaExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WriteQuotaHeaders sets the X-RateLimit-* headers.
func WriteQuotaHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// WriteQuotaExceeded writes the 429 response.
func WriteQuotaExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.QuotaExceededResponse{
		Error:      string(dErrors.CodeTooManyRequests),
		Message:    "Daily request quota exhausted for this API key.",
		QuotaLimit: result.Limit,
		QuotaReset: result.ResetAt,
		RetryAfter: result.RetryAfter,
	})
}
