// Package ports declares the storage the quota service runs on.
package ports

import (
	"context"
	"time"

	"docverify/internal/ratelimit/models"
)

// BucketStore keeps one sliding window of charges per key. Implementations
// must make AllowN atomic: a charge that would exceed limit is not recorded.
type BucketStore interface {
	AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.RateLimitResult, error)
	GetCurrentCount(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}
