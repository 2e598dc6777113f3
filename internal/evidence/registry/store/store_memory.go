package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docverify/internal/evidence/registry/metrics"
	"docverify/internal/evidence/registry/models"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

const (
	recordTypeCompany = "company"
	recordTypeVAT     = "vat"
)

type cachedCompany struct {
	record   models.CompanyRecord
	storedAt time.Time
}

type cachedVAT struct {
	record   models.VATCheck
	storedAt time.Time
}

// InMemoryCache keeps registry records for cacheTTL. Entries are stamped with
// the request time, so tests drive expiry through requestcontext.WithTime.
type InMemoryCache struct {
	mu        sync.RWMutex
	companies map[string]cachedCompany
	vat       map[string]cachedVAT
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
}

// NewInMemoryCache creates a cache with the given TTL. m may be nil.
func NewInMemoryCache(cacheTTL time.Duration, m *metrics.Metrics) *InMemoryCache {
	return &InMemoryCache{
		companies: make(map[string]cachedCompany),
		vat:       make(map[string]cachedVAT),
		cacheTTL:  cacheTTL,
		metrics:   m,
	}
}

// SaveCompany stores record under (kind, number). A nil record is a no-op.
func (c *InMemoryCache) SaveCompany(ctx context.Context, kind models.CompanyKind, number string, record *models.CompanyRecord) error {
	if record == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.companies[companyKey(kind, number)] = cachedCompany{record: cloneCompany(*record), storedAt: requestcontext.Now(ctx)}
	return nil
}

// FindCompany returns sentinel.ErrNotFound when nothing fresh is cached.
func (c *InMemoryCache) FindCompany(ctx context.Context, kind models.CompanyKind, number string) (*models.CompanyRecord, error) {
	c.mu.RLock()
	cached, ok := c.companies[companyKey(kind, number)]
	c.mu.RUnlock()
	if !ok || !c.fresh(ctx, cached.storedAt) {
		c.metrics.RecordCacheMiss(recordTypeCompany)
		return nil, sentinel.ErrNotFound
	}
	c.metrics.RecordCacheHit(recordTypeCompany)
	record := cloneCompany(cached.record)
	return &record, nil
}

// SaveVAT stores record under its VAT number. A nil record is a no-op.
func (c *InMemoryCache) SaveVAT(ctx context.Context, record *models.VATCheck) error {
	if record == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vat[vatKey(record.VATNumber)] = cachedVAT{record: cloneVAT(*record), storedAt: requestcontext.Now(ctx)}
	return nil
}

// FindVAT returns sentinel.ErrNotFound when nothing fresh is cached.
func (c *InMemoryCache) FindVAT(ctx context.Context, number string) (*models.VATCheck, error) {
	c.mu.RLock()
	cached, ok := c.vat[vatKey(number)]
	c.mu.RUnlock()
	if !ok || !c.fresh(ctx, cached.storedAt) {
		c.metrics.RecordCacheMiss(recordTypeVAT)
		return nil, sentinel.ErrNotFound
	}
	c.metrics.RecordCacheHit(recordTypeVAT)
	record := cloneVAT(cached.record)
	return &record, nil
}

func (c *InMemoryCache) fresh(ctx context.Context, storedAt time.Time) bool {
	return requestcontext.Now(ctx).Sub(storedAt) < c.cacheTTL
}

func companyKey(kind models.CompanyKind, number string) string {
	return fmt.Sprintf("registry:company:%s:%s", kind, number)
}

func vatKey(number string) string {
	return "registry:vat:" + number
}

func cloneCompany(r models.CompanyRecord) models.CompanyRecord {
	if r.Address != nil {
		addr := *r.Address
		r.Address = &addr
	}
	return r
}

func cloneVAT(r models.VATCheck) models.VATCheck {
	if r.Valid != nil {
		v := *r.Valid
		r.Valid = &v
	}
	return r
}
