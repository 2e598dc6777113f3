// Package quota enforces the daily request allowance of each API key.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docverify/internal/ratelimit/metrics"
	"docverify/internal/ratelimit/models"
	"docverify/internal/ratelimit/ports"
	dErrors "docverify/pkg/domain-errors"
)

// DailyWindow is the length of the sliding quota window.
const DailyWindow = 24 * time.Hour

type Store = ports.BucketStore

// Account identifies whose allowance is charged.
type Account struct {
	KeyID      string
	Tier       string
	DailyLimit int
}

type Service struct {
	store   Store
	window  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithWindow overrides the quota window.
func WithWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("quota store is required")
	}
	svc := &Service{
		store:  store,
		window: DailyWindow,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func bucketKey(keyID string) string {
	return "quota:" + keyID
}

// Consume charges cost units to the account. A rejected charge consumes
// nothing. The returned error is only set when the store fails.
func (s *Service) Consume(ctx context.Context, acct Account, cost int) (*models.RateLimitResult, error) {
	if cost <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "quota cost must be positive")
	}
	result, err := s.store.AllowN(ctx, bucketKey(acct.KeyID), cost, acct.DailyLimit, s.window)
	if err != nil {
		s.metrics.IncrementStoreErrors()
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "quota store unavailable")
	}
	if !result.Allowed {
		s.metrics.IncrementRejections(acct.Tier)
		s.logger.InfoContext(ctx, "api_key_quota_exceeded",
			"api_key_id", acct.KeyID,
			"cost", cost,
			"daily_limit", acct.DailyLimit,
			"remaining", result.Remaining,
		)
		return result, nil
	}
	s.metrics.IncrementConsumed(acct.Tier, cost)
	return result, nil
}

// Usage reports how much of the allowance the account used in the window.
func (s *Service) Usage(ctx context.Context, acct Account) (*models.QuotaUsage, error) {
	used, err := s.store.GetCurrentCount(ctx, bucketKey(acct.KeyID), s.window)
	if err != nil {
		s.metrics.IncrementStoreErrors()
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "quota store unavailable")
	}
	return &models.QuotaUsage{
		KeyID:     acct.KeyID,
		Limit:     acct.DailyLimit,
		Used:      used,
		Remaining: max(acct.DailyLimit-used, 0),
	}, nil
}

// Reset clears the account's window.
func (s *Service) Reset(ctx context.Context, keyID string) error {
	if keyID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "api_key_id is required")
	}
	if err := s.store.Reset(ctx, bucketKey(keyID)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset quota")
	}
	s.logger.InfoContext(ctx, "api_key_quota_reset", "api_key_id", keyID)
	return nil
}
