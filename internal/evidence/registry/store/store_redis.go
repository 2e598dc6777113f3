package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docverify/internal/evidence/registry/metrics"
	"docverify/internal/evidence/registry/models"
	"docverify/pkg/platform/sentinel"
)

// RedisCache shares registry records across instances. Values are JSON and
// expire through the key TTL.
type RedisCache struct {
	client   redis.UniversalClient
	cacheTTL time.Duration
	metrics  *metrics.Metrics
}

// NewRedisCache constructs a Redis-backed registry cache. m may be nil.
func NewRedisCache(client redis.UniversalClient, cacheTTL time.Duration, m *metrics.Metrics) *RedisCache {
	return &RedisCache{client: client, cacheTTL: cacheTTL, metrics: m}
}

func (c *RedisCache) SaveCompany(ctx context.Context, kind models.CompanyKind, number string, record *models.CompanyRecord) error {
	if record == nil {
		return nil
	}
	if err := c.set(ctx, companyKey(kind, number), record); err != nil {
		return fmt.Errorf("save company cache: %w", err)
	}
	return nil
}

func (c *RedisCache) FindCompany(ctx context.Context, kind models.CompanyKind, number string) (*models.CompanyRecord, error) {
	var record models.CompanyRecord
	if err := c.get(ctx, recordTypeCompany, companyKey(kind, number), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *RedisCache) SaveVAT(ctx context.Context, record *models.VATCheck) error {
	if record == nil {
		return nil
	}
	if err := c.set(ctx, vatKey(record.VATNumber), record); err != nil {
		return fmt.Errorf("save vat cache: %w", err)
	}
	return nil
}

func (c *RedisCache) FindVAT(ctx context.Context, number string) (*models.VATCheck, error) {
	var record models.VATCheck
	if err := c.get(ctx, recordTypeVAT, vatKey(number), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *RedisCache) set(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.cacheTTL).Err()
}

func (c *RedisCache) get(ctx context.Context, recordType, key string, dst any) error {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.RecordCacheMiss(recordType)
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s cache: %w", recordType, err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		// A record from an older layout is treated as a miss and overwritten
		// by the next save.
		c.metrics.RecordCacheMiss(recordType)
		return sentinel.ErrNotFound
	}
	c.metrics.RecordCacheHit(recordType)
	return nil
}
