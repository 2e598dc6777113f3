// Package verification validates identifiers and enriches the valid ones with
// registry data. Enrichment outcomes never change a validity verdict.
package verification

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	registrymodels "docverify/internal/evidence/registry/models"
	"docverify/internal/verification/metrics"
	"docverify/internal/verification/ports"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/identifier"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

const (
	defaultBatchConcurrency = 8

	sourceCompany = "company"
	sourceVIES    = "vies"
)

// Service runs verifications. It is safe for concurrent use.
type Service struct {
	registry    ports.Registry
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

type Option func(*Service)

// WithRegistry enables enrichment. Without it every enrichment is skipped.
func WithRegistry(r ports.Registry) Option {
	return func(s *Service) {
		s.registry = r
	}
}

// WithBatchConcurrency bounds how many batch items are verified at once.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
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

func New(opts ...Option) *Service {
	s := &Service{
		concurrency: defaultBatchConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifySiren validates a SIREN and, when includeCompany is set, attaches the
// legal unit from the registry.
func (s *Service) VerifySiren(ctx context.Context, raw string, includeCompany bool) Envelope {
	siren, err := identifier.ValidateSiren(raw)
	s.metrics.RecordVerification(string(identifier.KindSiren), err == nil)
	if err != nil {
		return s.project(ctx, nil, err)
	}

	result := SirenResult{Siren: siren.String(), FormatValid: true, Enrichment: EnrichmentSkipped}
	if includeCompany {
		result.Company, result.Enrichment = s.company(ctx, registrymodels.CompanyKindSiren, siren.String())
	}
	return s.project(ctx, result, nil)
}

// VerifySiret validates a SIRET, including its embedded SIREN, and optionally
// attaches the establishment from the registry.
func (s *Service) VerifySiret(ctx context.Context, raw string, includeCompany bool) Envelope {
	siret, err := identifier.ValidateSiret(raw)
	s.metrics.RecordVerification(string(identifier.KindSiret), err == nil)
	if err != nil {
		return s.project(ctx, nil, err)
	}

	result := SiretResult{
		Siret:       siret.String(),
		Siren:       siret.Siren().String(),
		NIC:         siret.NIC(),
		FormatValid: true,
		Enrichment:  EnrichmentSkipped,
	}
	if includeCompany {
		result.Company, result.Enrichment = s.company(ctx, registrymodels.CompanyKindSiret, siret.String())
	}
	return s.project(ctx, result, nil)
}

// VerifyVAT validates the structure of an EU VAT number and, when checkVIES is
// set, cross-checks it with VIES.
func (s *Service) VerifyVAT(ctx context.Context, raw string, checkVIES bool) Envelope {
	vat, err := identifier.ValidateVAT(raw)
	s.metrics.RecordVerification(string(identifier.KindVAT), err == nil)
	if err != nil {
		return s.project(ctx, nil, err)
	}

	result := VATResult{VATNumber: vat, FormatValid: true, Enrichment: EnrichmentSkipped}
	if checkVIES {
		result.VIES, result.Enrichment = s.vies(ctx, vat.Number)
	}
	return s.project(ctx, result, nil)
}

// VerifyIBAN validates a French IBAN. It has no enrichment.
func (s *Service) VerifyIBAN(ctx context.Context, raw string) Envelope {
	iban, err := identifier.ValidateIBANFR(raw)
	s.metrics.RecordVerification(string(identifier.KindIBAN), err == nil)
	if err != nil {
		return s.project(ctx, nil, err)
	}
	return s.project(ctx, IBANResult{
		IBAN:           iban,
		Display:        iban.Display(),
		CountryName:    iban.CountryName(),
		FormatValid:    true,
		IBANCheckValid: true,
	}, nil)
}

// VerifyBatch verifies items with bounded parallelism. Results keep the order
// of items, one per item.
func (s *Service) VerifyBatch(ctx context.Context, items []BatchItem) []BatchResult {
	s.metrics.ObserveBatchSize(len(items))
	results := make([]BatchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, item := range items {
		g.Go(func() error {
			results[i] = BatchResult{
				Type:     item.Type,
				Value:    item.Value,
				Envelope: s.verifyItem(gctx, item),
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) verifyItem(ctx context.Context, item BatchItem) Envelope {
	kind, err := identifier.ParseKind(item.Type)
	if err != nil {
		return s.project(ctx, nil, dErrors.Wrap(err, dErrors.CodeValidation, "unsupported identifier type"))
	}
	switch kind {
	case identifier.KindSiren:
		return s.VerifySiren(ctx, item.Value, item.IncludeEnrichment)
	case identifier.KindSiret:
		return s.VerifySiret(ctx, item.Value, item.IncludeEnrichment)
	case identifier.KindVAT:
		return s.VerifyVAT(ctx, item.Value, item.IncludeEnrichment)
	default:
		return s.VerifyIBAN(ctx, item.Value)
	}
}

func (s *Service) company(ctx context.Context, kind registrymodels.CompanyKind, number string) (*registrymodels.CompanyRecord, EnrichmentStatus) {
	if s.registry == nil {
		return nil, EnrichmentSkipped
	}
	record, err := s.registry.Company(ctx, kind, number)
	status := enrichmentStatus(err)
	s.metrics.RecordEnrichment(sourceCompany, string(status))
	if status == EnrichmentUnavailable {
		s.logger.WarnContext(ctx, "company enrichment unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"kind", kind,
			"error", err,
		)
	}
	if err != nil {
		return nil, status
	}
	return record, status
}

func (s *Service) vies(ctx context.Context, number string) (*VIESResult, EnrichmentStatus) {
	if s.registry == nil {
		return nil, EnrichmentSkipped
	}
	check, err := s.registry.VAT(ctx, number)
	if err == nil && check == nil {
		err = sentinel.ErrUnavailable
	}
	status := enrichmentStatus(err)
	s.metrics.RecordEnrichment(sourceVIES, string(status))
	switch status {
	case EnrichmentOK:
		return &VIESResult{Valid: check.Valid, Name: check.Name, Address: check.Address, Source: viesSource}, status
	case EnrichmentNotFound:
		return nil, status
	default:
		s.logger.WarnContext(ctx, "VIES enrichment unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return &VIESResult{Error: "enrichment unavailable", Source: viesSource}, status
	}
}

func enrichmentStatus(err error) EnrichmentStatus {
	switch {
	case err == nil:
		return EnrichmentOK
	case errors.Is(err, sentinel.ErrNotFound):
		return EnrichmentNotFound
	default:
		return EnrichmentUnavailable
	}
}

func (s *Service) project(ctx context.Context, data any, err error) Envelope {
	return Project(data, err, requestcontext.Now(ctx))
}
