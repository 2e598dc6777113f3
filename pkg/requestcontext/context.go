// Package requestcontext carries request-scoped values (request ID, caller key,
// client IP and request time) through context.Context so that services and
// loggers can read them without importing net/http.
package requestcontext

import (
	"context"
	"time"
)

type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyAPIKeyID
	keyClientIP
	keyRequestTime
)

func stringValue(ctx context.Context, key ctxKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// RequestID returns the request ID, or "" outside a request.
func RequestID(ctx context.Context) string {
	return stringValue(ctx, keyRequestID)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// APIKeyID returns the ID of the authenticated API key, or "".
func APIKeyID(ctx context.Context) string {
	return stringValue(ctx, keyAPIKeyID)
}

func WithAPIKeyID(ctx context.Context, keyID string) context.Context {
	return context.WithValue(ctx, keyAPIKeyID, keyID)
}

// ClientIP returns the caller's address as resolved by the metadata middleware.
func ClientIP(ctx context.Context) string {
	return stringValue(ctx, keyClientIP)
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, keyClientIP, ip)
}

// Now returns the time captured when the request started, so every timestamp
// produced while serving it agrees. Outside a request it is time.Now.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(keyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the request time. Tests use it to freeze the clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, keyRequestTime, t)
}
