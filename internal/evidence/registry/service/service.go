// Package service looks up company and VAT evidence through the registered
// providers, behind a TTL cache and per-provider circuit breakers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"docverify/internal/evidence/registry/metrics"
	"docverify/internal/evidence/registry/models"
	"docverify/internal/evidence/registry/providers"
	"docverify/pkg/platform/circuit"
	"docverify/pkg/platform/sentinel"
)

const (
	defaultLookupTimeout = 10 * time.Second
	tracerName           = "docverify/internal/evidence/registry"
)

// Cache stores registry records between lookups. Find methods return
// sentinel.ErrNotFound on a miss.
type Cache interface {
	FindCompany(ctx context.Context, kind models.CompanyKind, number string) (*models.CompanyRecord, error)
	SaveCompany(ctx context.Context, kind models.CompanyKind, number string, record *models.CompanyRecord) error
	FindVAT(ctx context.Context, number string) (*models.VATCheck, error)
	SaveVAT(ctx context.Context, record *models.VATCheck) error
}

// Provider health statuses.
const (
	StatusUp   = "up"
	StatusDown = "down"
)

// ProviderHealth is the outcome of one provider health probe.
type ProviderHealth struct {
	ID      string                 `json:"id"`
	Type    providers.ProviderType `json:"type"`
	Status  string                 `json:"status"`
	Breaker circuit.State          `json:"circuit"`
	Error   string                 `json:"error,omitempty"`
}

// Service coordinates registry lookups with caching and provider fallback.
type Service struct {
	registry      *providers.ProviderRegistry
	cache         Cache
	lookupTimeout time.Duration
	breakerOpts   []circuit.Option
	metrics       *metrics.Metrics
	logger        *slog.Logger
	tracer        trace.Tracer

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

type Option func(*Service)

// WithCache enables cache-first lookups.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLookupTimeout bounds each provider call.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookupTimeout = d
		}
	}
}

// WithBreakerOptions configures the breaker created for each provider.
func WithBreakerOptions(opts ...circuit.Option) Option {
	return func(s *Service) {
		s.breakerOpts = append(s.breakerOpts, opts...)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func New(registry *providers.ProviderRegistry, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("provider registry is required")
	}
	s := &Service{
		registry:      registry,
		lookupTimeout: defaultLookupTimeout,
		logger:        slog.Default(),
		tracer:        otel.Tracer(tracerName),
		breakers:      make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Company returns the registry record for a SIREN or SIRET. Errors wrap
// sentinel.ErrNotFound when the registry has no such company and
// sentinel.ErrUnavailable for every other failure.
func (s *Service) Company(ctx context.Context, kind models.CompanyKind, number string) (*models.CompanyRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Company", trace.WithAttributes(
		attribute.String("registry.kind", string(kind)),
	))
	defer span.End()

	var filter string
	switch kind {
	case models.CompanyKindSiren:
		filter = providers.FilterSiren
	case models.CompanyKindSiret:
		filter = providers.FilterSiret
	default:
		return nil, fmt.Errorf("unknown company kind %q: %w", kind, sentinel.ErrUnavailable)
	}

	if s.cache != nil {
		cached, err := s.cache.FindCompany(ctx, kind, number)
		if err == nil {
			span.SetAttributes(attribute.Bool("registry.cache_hit", true))
			return cached, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "registry cache read failed", "record_type", "company", "error", err)
		}
	}

	ev, err := s.lookup(ctx, providers.ProviderTypeCompany, map[string]string{filter: number})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	record := EvidenceToCompanyRecord(ev)

	if s.cache != nil {
		if err := s.cache.SaveCompany(ctx, kind, number, record); err != nil {
			s.logger.WarnContext(ctx, "registry cache write failed", "record_type", "company", "error", err)
		}
	}
	return record, nil
}

// VAT cross-checks a VAT number carrying its country prefix. Errors follow
// the same convention as Company.
func (s *Service) VAT(ctx context.Context, number string) (*models.VATCheck, error) {
	ctx, span := s.tracer.Start(ctx, "registry.VAT", trace.WithAttributes(
		attribute.String("registry.country", prefix(number)),
	))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.FindVAT(ctx, number)
		if err == nil {
			span.SetAttributes(attribute.Bool("registry.cache_hit", true))
			return cached, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "registry cache read failed", "record_type", "vat", "error", err)
		}
	}

	ev, err := s.lookup(ctx, providers.ProviderTypeVAT, map[string]string{providers.FilterVATNumber: number})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	check := EvidenceToVATCheck(ev)

	if s.cache != nil {
		if err := s.cache.SaveVAT(ctx, check); err != nil {
			s.logger.WarnContext(ctx, "registry cache write failed", "record_type", "vat", "error", err)
		}
	}
	return check, nil
}

// Health probes every provider concurrently. It never fails; unhealthy
// providers are reported in the result.
func (s *Service) Health(ctx context.Context) []ProviderHealth {
	all := s.registry.All()
	results := make([]ProviderHealth, len(all))

	var g errgroup.Group
	for i, p := range all {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
			defer cancel()

			h := ProviderHealth{
				ID:      p.ID(),
				Type:    p.Capabilities().Type,
				Status:  StatusUp,
				Breaker: s.breaker(p.ID()).State(),
			}
			if err := p.Health(callCtx); err != nil {
				h.Status = StatusDown
				h.Error = string(providers.GetCategory(err))
			}
			results[i] = h
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// lookup walks the providers of type t in registration order. A retryable
// failure or an open circuit moves on to the next provider; anything else
// ends the walk.
func (s *Service) lookup(ctx context.Context, t providers.ProviderType, filters map[string]string) (*providers.Evidence, error) {
	candidates := s.registry.ListByType(t)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %w", sentinel.ErrUnavailable, providers.ErrNoProvidersAvailable)
	}

	var lastErr error
	for _, p := range candidates {
		id := p.ID()
		b := s.breaker(id)
		if !b.Allow() {
			lastErr = providers.NewProviderError(providers.ErrorProviderOutage, id, "circuit open", providers.ErrCircuitOpen)
			continue
		}

		ev, err := s.call(ctx, p, filters)
		if err == nil {
			s.recordSuccess(ctx, b)
			return ev, nil
		}

		category := providers.GetCategory(err)
		s.metrics.RecordProviderFailure(id, string(category))
		switch {
		case category == providers.ErrorNotFound:
			// The provider answered; only the record is missing.
			s.recordSuccess(ctx, b)
			return nil, fmt.Errorf("%w: %w", sentinel.ErrNotFound, err)
		case providers.IsRetryable(err):
			s.recordFailure(ctx, b)
			s.logger.WarnContext(ctx, "registry provider failed, trying next",
				"provider", id,
				"category", category,
				"error", err,
			)
			lastErr = err
		default:
			s.logger.ErrorContext(ctx, "registry provider rejected lookup",
				"provider", id,
				"category", category,
				"error", err,
			)
			return nil, fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
		}
	}
	return nil, fmt.Errorf("%w: %w: %w", sentinel.ErrUnavailable, providers.ErrAllProvidersFailed, lastErr)
}

func (s *Service) call(ctx context.Context, p providers.Provider, filters map[string]string) (*providers.Evidence, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, "registry.provider.Lookup", trace.WithAttributes(
		attribute.String("registry.provider", p.ID()),
	))
	defer span.End()

	start := time.Now()
	ev, err := p.Lookup(ctx, filters)
	s.metrics.ObserveLookupDuration(p.ID(), time.Since(start).Seconds())

	if err == nil && ev == nil {
		err = providers.NewProviderError(providers.ErrorContractMismatch, p.ID(), "lookup returned no evidence", nil)
	}
	if err != nil {
		var pe *providers.ProviderError
		if !errors.As(err, &pe) {
			err = providers.ClassifyTransportError(p.ID(), err)
		}
		recordSpanError(span, err)
		return nil, err
	}
	return ev, nil
}

func (s *Service) breaker(id string) *circuit.Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakers[id]
	if !ok {
		b = circuit.New(id, s.breakerOpts...)
		s.breakers[id] = b
	}
	return b
}

func (s *Service) recordFailure(ctx context.Context, b *circuit.Breaker) {
	if _, change := b.RecordFailure(); change.Opened {
		s.logger.WarnContext(ctx, "registry circuit opened", "provider", b.Name())
		s.metrics.SetBreakerOpen(b.Name(), true)
	}
}

func (s *Service) recordSuccess(ctx context.Context, b *circuit.Breaker) {
	if _, change := b.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "registry circuit closed", "provider", b.Name())
		s.metrics.SetBreakerOpen(b.Name(), false)
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(providers.GetCategory(err)))
}

func prefix(number string) string {
	if len(number) < 2 {
		return ""
	}
	return number[:2]
}
