package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	apikeyservice "docverify/internal/apikey/service"
	apikeystore "docverify/internal/apikey/store"
	registryservice "docverify/internal/evidence/registry/service"
	"docverify/internal/platform/config"
	"docverify/internal/platform/metrics"
	authmw "docverify/internal/platform/middleware"
	ratelimitmw "docverify/internal/ratelimit/middleware"
	"docverify/internal/ratelimit/service/quota"
	"docverify/internal/ratelimit/store/bucket"
	"docverify/internal/verification"
	verifyhandler "docverify/internal/verification/handler"
	"docverify/pkg/testutil"
)

const (
	demoSecret    = "demo_key_123"
	premiumSecret = "premium_key_456"
)

type fixedHealth []registryservice.ProviderHealth

func (f fixedHealth) Health(context.Context) []registryservice.ProviderHealth { return f }

// RouterSuite runs the real middleware chain against in-memory stores.
type RouterSuite struct {
	suite.Suite
	router http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.router = newTestRouter(s.T(), nil)
}

func newTestRouter(t *testing.T, providers ProviderHealthChecker) http.Handler {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	keyStore := apikeystore.NewInMemoryKeyStore()
	require.NoError(t, apikeystore.SeedFromConfig(ctx, keyStore, []config.APIKeySeed{
		{Secret: demoSecret, Name: "Demo User", Tier: "free", DailyLimit: 2},
		{Secret: premiumSecret, Name: "Premium User", Tier: "premium", DailyLimit: 10},
	}, bcrypt.MinCost))
	keys, err := apikeyservice.New(keyStore, apikeyservice.WithLogger(logger))
	require.NoError(t, err)

	quotas, err := quota.New(bucket.NewInMemoryBucketStore(), quota.WithLogger(logger))
	require.NoError(t, err)
	metered := ratelimitmw.New(quotas, verifyhandler.AccountResolver(keys), logger)

	reg := prometheus.NewRegistry()
	verifications := verifyhandler.New(verification.New(verification.WithLogger(logger)), keys, quotas, logger)

	return NewRouter(&Handler{
		Version:      "test",
		Verification: verifications,
		Keys:         keys,
		Metered:      metered.RequireQuota,
		Providers:    providers,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Logger:       logger,
	})
}

func withKey(req *http.Request, secret string) *http.Request {
	req.Header.Set(authmw.HeaderAPIKey, secret)
	return req
}

func (s *RouterSuite) TestPublicEndpoints() {
	s.Run("service info", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/"))
		testutil.AssertStatusOK(s.T(), rr)
		info := testutil.UnmarshalResponse[ServiceInfo](s.T(), rr)
		s.Equal("docverify", info.Service)
		s.Contains(info.Endpoints, "POST /api/v1/verify/batch")
	})

	s.Run("health echoes a request ID", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/health")
		req.Header.Set("X-Request-ID", "trace-42")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		s.Equal("trace-42", rr.Header().Get("X-Request-ID"))
		body := testutil.UnmarshalResponse[HealthResponse](s.T(), rr)
		s.Equal("healthy", body.Status)
		s.NotEmpty(body.Timestamp)
	})

	s.Run("providers without a registry", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/health/providers"))
		testutil.AssertStatusOK(s.T(), rr)
		body := testutil.UnmarshalResponse[ProvidersResponse](s.T(), rr)
		s.Equal("healthy", body.Status)
		s.Empty(body.Providers)
	})

	s.Run("unknown route", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/nope"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *RouterSuite) TestAuthentication() {
	body := map[string]any{"siren": "732829320"}

	s.Run("missing key", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/verify/siren", body)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("wrong key", func() {
		req := withKey(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/verify/siren", body), "not-a-key")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

// Justification: the daily quota is enforced across the whole chain, with
// the limit taken from the authenticated key.
func (s *RouterSuite) TestQuotaIsChargedPerRequest() {
	verify := func() *http.Request {
		return withKey(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/verify/siren",
			map[string]any{"siren": "732829320"}), demoSecret)
	}

	first := testutil.DoRequest(s.router, verify())
	testutil.AssertStatusOK(s.T(), first)
	s.Equal("1", first.Header().Get("X-RateLimit-Remaining"))
	env := testutil.UnmarshalResponse[verification.Envelope](s.T(), first)
	s.True(env.Success)

	testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, verify()))

	third := testutil.DoRequest(s.router, verify())
	testutil.AssertStatus(s.T(), third, http.StatusTooManyRequests)
	s.NotEmpty(third.Header().Get("Retry-After"))

	stats := testutil.DoRequest(s.router, withKey(testutil.NewRequest(s.T(), http.MethodGet, "/api/v1/stats"), demoSecret))
	testutil.AssertStatusOK(s.T(), stats)
	usage := testutil.UnmarshalResponse[verifyhandler.StatsResponse](s.T(), stats)
	s.Equal(2, usage.UsedToday)
	s.Equal(0, usage.Remaining)
	s.Equal("Demo User", usage.Name)
}

// Justification: malformed identifiers are verdicts, not request errors. An
// empty or overlong value runs through the real validators and answers 200.
func (s *RouterSuite) TestInvalidInputIsAnEnvelope() {
	for name, value := range map[string]string{
		"empty":    "",
		"overlong": strings.Repeat("1", 65),
	} {
		s.Run(name, func() {
			req := withKey(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/verify/siren",
				map[string]any{"siren": value}), premiumSecret)
			rr := testutil.DoRequest(s.router, req)

			testutil.AssertStatusOK(s.T(), rr)
			env := testutil.UnmarshalResponse[verification.Envelope](s.T(), rr)
			s.False(env.Success)
			s.Equal("bad_length", env.ErrorCode)
			s.Equal("siren", env.ErrorSource)
		})
	}
}

func (s *RouterSuite) TestBatchRequiresPremium() {
	items := []map[string]any{{"type": "iban", "value": "FR7630006000011234567890189"}}

	free := testutil.DoRequest(s.router,
		withKey(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/verify/batch", items), demoSecret))
	testutil.AssertStatusAndError(s.T(), free, http.StatusForbidden, "forbidden")

	premium := testutil.DoRequest(s.router,
		withKey(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/verify/batch", items), premiumSecret))
	testutil.AssertStatusOK(s.T(), premium)
	resp := testutil.UnmarshalResponse[verifyhandler.BatchResponse](s.T(), premium)
	s.Equal(1, resp.Total)
	s.True(resp.Results[0].Success)
}

func TestProvidersHealth_Degraded(t *testing.T) {
	router := newTestRouter(t, fixedHealth{
		{ID: "sirene", Type: "company", Status: registryservice.StatusUp, Breaker: "closed"},
		{ID: "vies", Type: "vat", Status: registryservice.StatusDown, Breaker: "open", Error: "provider_outage"},
	})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health/providers"))

	testutil.AssertStatusOK(t, rr)
	body := testutil.UnmarshalResponse[ProvidersResponse](t, rr)
	assert.Equal(t, "degraded", body.Status)
	require.Len(t, body.Providers, 2)
	assert.Equal(t, "provider_outage", body.Providers[1].Error)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)
	testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))

	testutil.AssertStatusOK(t, rr)
	body := string(testutil.ReadBody(t, rr))
	assert.True(t, strings.Contains(body, `docverify_http_requests_total{method="GET",route="/health",status="200"} 1`), body)
}
