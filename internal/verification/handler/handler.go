package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apikeymodels "docverify/internal/apikey/models"
	ratelimitmw "docverify/internal/ratelimit/middleware"
	ratelimitmodels "docverify/internal/ratelimit/models"
	"docverify/internal/ratelimit/service/quota"
	"docverify/internal/verification"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

const defaultMaxBatchItems = 100

// Service defines the verification operations exposed over HTTP.
type Service interface {
	VerifySiren(ctx context.Context, raw string, includeCompany bool) verification.Envelope
	VerifySiret(ctx context.Context, raw string, includeCompany bool) verification.Envelope
	VerifyVAT(ctx context.Context, raw string, checkVIES bool) verification.Envelope
	VerifyIBAN(ctx context.Context, raw string) verification.Envelope
	VerifyBatch(ctx context.Context, items []verification.BatchItem) []verification.BatchResult
}

// KeyLookup resolves the authenticated key ID to its key.
type KeyLookup interface {
	Get(ctx context.Context, id string) (*apikeymodels.Key, error)
}

// Quota charges and reports daily usage.
type Quota interface {
	Consume(ctx context.Context, acct quota.Account, cost int) (*ratelimitmodels.RateLimitResult, error)
	Usage(ctx context.Context, acct quota.Account) (*ratelimitmodels.QuotaUsage, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service       Service
	keys          KeyLookup
	quota         Quota
	logger        *slog.Logger
	maxBatchItems int
}

type Option func(*Handler)

// WithMaxBatchItems caps the number of items in one batch request.
func WithMaxBatchItems(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBatchItems = n
		}
	}
}

// New constructs a verification handler with its dependencies.
func New(service Service, keys KeyLookup, q Quota, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:       service,
		keys:          keys,
		quota:         q,
		logger:        logger,
		maxBatchItems: defaultMaxBatchItems,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the endpoints. Single verifications run behind metered,
// which charges one quota unit per request; batch charges per item itself and
// stats is free.
func (h *Handler) Register(r chi.Router, metered func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if metered != nil {
			r.Use(metered)
		}
		r.Post("/verify/siret", h.HandleVerifySiret)
		r.Post("/verify/siren", h.HandleVerifySiren)
		r.Post("/verify/tva", h.HandleVerifyVAT)
		r.Post("/verify/iban", h.HandleVerifyIBAN)
	})
	r.Post("/verify/batch", h.HandleVerifyBatch)
	r.Get("/stats", h.HandleStats)
}

// HandleVerifySiret handles POST /verify/siret.
func (h *Handler) HandleVerifySiret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SiretRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.writeEnvelope(ctx, w, "siret", h.service.VerifySiret(ctx, *req.Siret, orDefault(req.IncludeCompanyData, true)))
}

// HandleVerifySiren handles POST /verify/siren.
func (h *Handler) HandleVerifySiren(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SirenRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.writeEnvelope(ctx, w, "siren", h.service.VerifySiren(ctx, *req.Siren, orDefault(req.IncludeCompanyData, true)))
}

// HandleVerifyVAT handles POST /verify/tva.
func (h *Handler) HandleVerifyVAT(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[VATRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.writeEnvelope(ctx, w, "vat", h.service.VerifyVAT(ctx, *req.NumeroTVA, orDefault(req.VerifyVIES, true)))
}

// HandleVerifyIBAN handles POST /verify/iban.
func (h *Handler) HandleVerifyIBAN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[IBANRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.writeEnvelope(ctx, w, "iban", h.service.VerifyIBAN(ctx, *req.IBAN))
}

// HandleVerifyBatch handles POST /verify/batch. Premium keys only; the quota
// is charged once per item before any verification runs.
func (h *Handler) HandleVerifyBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	key, err := h.keys.Get(ctx, requestcontext.APIKeyID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "batch key lookup failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	if !key.IsPremium() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "batch verification is reserved for premium keys"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[BatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	items := []verification.BatchItem(*req)
	if len(items) > h.maxBatchItems {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation,
			"a batch holds at most "+strconv.Itoa(h.maxBatchItems)+" items"))
		return
	}

	result, err := h.quota.Consume(ctx, accountFor(key), len(items))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check quota", "request_id", requestID, "error", err)
	} else {
		ratelimitmw.WriteQuotaHeaders(w, result)
		if !result.Allowed {
			ratelimitmw.WriteQuotaExceeded(w, result)
			return
		}
	}

	results := h.service.VerifyBatch(ctx, items)
	h.logger.InfoContext(ctx, "batch verified",
		"request_id", requestID,
		"items", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, BatchResponse{Success: true, Results: results, Total: len(results)})
}

// HandleStats handles GET /stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	key, err := h.keys.Get(ctx, requestcontext.APIKeyID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	usage, err := h.quota.Usage(ctx, accountFor(key))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read quota usage", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatsResponse{
		Name:       key.Name,
		Tier:       string(key.Tier),
		DailyLimit: usage.Limit,
		UsedToday:  usage.Used,
		Remaining:  usage.Remaining,
	})
}

func (h *Handler) writeEnvelope(ctx context.Context, w http.ResponseWriter, kind string, env verification.Envelope) {
	h.logger.InfoContext(ctx, "identifier verified",
		"request_id", requestcontext.RequestID(ctx),
		"kind", kind,
		"success", env.Success,
		"error_code", env.ErrorCode,
	)
	httputil.WriteJSON(w, http.StatusOK, env)
}

// accountFor maps an API key to its quota account.
func accountFor(key *apikeymodels.Key) quota.Account {
	return quota.Account{KeyID: key.ID, Tier: string(key.Tier), DailyLimit: key.DailyLimit}
}

// AccountResolver adapts key lookup to the quota middleware.
func AccountResolver(keys KeyLookup) ratelimitmw.AccountResolver {
	return func(ctx context.Context, keyID string) (quota.Account, error) {
		key, err := keys.Get(ctx, keyID)
		if err != nil {
			return quota.Account{}, err
		}
		return accountFor(key), nil
	}
}
