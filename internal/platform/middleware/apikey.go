// Package middleware holds the service-wide authentication middleware.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// HeaderAPIKey carries the client's API key.
const HeaderAPIKey = "X-API-Key"

// APIKeyVerifier resolves a presented API key to its ID.
type APIKeyVerifier interface {
	VerifyAPIKey(ctx context.Context, presented string) (string, error)
}

// RequireAPIKey rejects requests without a valid X-API-Key and stores the key
// ID in the request context.
func RequireAPIKey(verifier APIKeyVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			keyID, err := verifier.VerifyAPIKey(ctx, r.Header.Get(HeaderAPIKey))
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					logger.WarnContext(ctx, "unauthorized access - invalid API key",
						"request_id", requestID,
						"client_ip", requestcontext.ClientIP(ctx),
					)
					httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnauthorized, "Invalid or missing API key"))
					return
				}
				logger.ErrorContext(ctx, "api key verification failed",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithAPIKeyID(ctx, keyID)))
		})
	}
}
