// Package httptransport assembles the public HTTP surface: service discovery,
// health, metrics and the authenticated /api/v1 routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	registryservice "docverify/internal/evidence/registry/service"
	"docverify/internal/platform/metrics"
	authmw "docverify/internal/platform/middleware"
	verifyhandler "docverify/internal/verification/handler"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/platform/middleware/metadata"
	"docverify/pkg/platform/middleware/request"
	"docverify/pkg/platform/middleware/requesttime"
	"docverify/pkg/requestcontext"
)

const (
	serviceName = "docverify"
	apiPrefix   = "/api/v1"
)

// ProviderHealthChecker reports the state of every registry provider.
type ProviderHealthChecker interface {
	Health(ctx context.Context) []registryservice.ProviderHealth
}

// Handler holds what the router needs. Providers and Metrics may be nil.
type Handler struct {
	Version      string
	Verification *verifyhandler.Handler
	Keys         authmw.APIKeyVerifier
	Metered      func(http.Handler) http.Handler
	Providers    ProviderHealthChecker
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
}

// ServiceInfo is the body of GET /.
type ServiceInfo struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ProvidersResponse is the body of GET /health/providers.
type ProvidersResponse struct {
	Status    string                           `json:"status"`
	Providers []registryservice.ProviderHealth `json:"providers"`
}

var publicEndpoints = []string{
	"POST " + apiPrefix + "/verify/siret",
	"POST " + apiPrefix + "/verify/siren",
	"POST " + apiPrefix + "/verify/tva",
	"POST " + apiPrefix + "/verify/iban",
	"POST " + apiPrefix + "/verify/batch",
	"GET " + apiPrefix + "/stats",
	"GET /health",
	"GET /health/providers",
	"GET /metrics",
}

// NewRouter wires every route behind the shared middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(h.Metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no such endpoint"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{Error: "method_not_allowed"})
	})

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Get("/health/providers", h.handleProviders)
	if h.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route(apiPrefix, func(r chi.Router) {
		r.Use(authmw.RequireAPIKey(h.Keys, h.Logger))
		h.Verification.Register(r, h.Metered)
	})
	return r
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, ServiceInfo{
		Service:   serviceName,
		Version:   h.Version,
		Endpoints: publicEndpoints,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: requestcontext.Now(r.Context()).Format(time.RFC3339),
	})
}

// handleProviders always answers 200 so that a registry outage does not take
// the instance out of rotation; the body says what is down.
func (h *Handler) handleProviders(w http.ResponseWriter, r *http.Request) {
	resp := ProvidersResponse{Status: "healthy", Providers: []registryservice.ProviderHealth{}}
	if h.Providers != nil {
		resp.Providers = h.Providers.Health(r.Context())
	}
	for _, p := range resp.Providers {
		if p.Status != registryservice.StatusUp {
			resp.Status = "degraded"
			break
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
