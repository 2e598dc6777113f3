package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service,KeyLookup,Quota

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	apikeymodels "docverify/internal/apikey/models"
	ratelimitmodels "docverify/internal/ratelimit/models"
	"docverify/internal/ratelimit/service/quota"
	"docverify/internal/verification"
	"docverify/internal/verification/handler/mocks"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/testutil"
)

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

var (
	freeKey    = &apikeymodels.Key{ID: "key-free", Name: "Demo User", Tier: apikeymodels.TierFree, DailyLimit: 100}
	premiumKey = &apikeymodels.Key{ID: "key-premium", Name: "Premium User", Tier: apikeymodels.TierPremium, DailyLimit: 10000}
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	keys    *mocks.MockKeyLookup
	quota   *mocks.MockQuota
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.keys = mocks.NewMockKeyLookup(s.ctrl)
	s.quota = mocks.NewMockQuota(s.ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, s.keys, s.quota, logger, WithMaxBatchItems(3))
	s.router = chi.NewRouter()
	h.Register(s.router, nil)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func okEnvelope(data any) verification.Envelope {
	return verification.Envelope{Success: true, Data: data, Timestamp: fixedNow.Format(time.RFC3339)}
}

// Justification: single verifications always answer 200 with the envelope;
// invalid identifiers are reported inside it, not through the HTTP status.
func (s *HandlerSuite) TestSingleVerifications() {
	s.Run("siret defaults include_company_data to true", func() {
		s.service.EXPECT().VerifySiret(gomock.Any(), "73282932000017", true).
			Return(okEnvelope(map[string]any{"siret": "73282932000017"}))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/siret", map[string]any{"siret": "73282932000017"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		env := testutil.UnmarshalResponse[verification.Envelope](s.T(), rr)
		s.True(env.Success)
		s.Equal(fixedNow.Format(time.RFC3339), env.Timestamp)
	})

	s.Run("siren honours include_company_data false", func() {
		s.service.EXPECT().VerifySiren(gomock.Any(), "732829320", false).Return(okEnvelope(nil))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/siren",
			map[string]any{"siren": "732829320", "include_company_data": false})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("tva reads numero_tva and verify_vies", func() {
		s.service.EXPECT().VerifyVAT(gomock.Any(), "FR44732829320", false).Return(okEnvelope(nil))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/tva",
			map[string]any{"numero_tva": "FR44732829320", "verify_vies": false})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("invalid iban is still a 200", func() {
		s.service.EXPECT().VerifyIBAN(gomock.Any(), "DE89370400440532013000").Return(verification.Envelope{
			Success:   false,
			Error:     "IBAN must be French",
			ErrorCode: "wrong_country",
			Timestamp: fixedNow.Format(time.RFC3339),
		})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/iban", map[string]any{"iban": "DE89370400440532013000"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		env := testutil.UnmarshalResponse[verification.Envelope](s.T(), rr)
		s.False(env.Success)
		s.Equal("wrong_country", env.ErrorCode)
	})
}

func (s *HandlerSuite) TestMalformedRequests() {
	s.Run("invalid JSON", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/verify/siret", "{not json")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("missing field", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/siren", map[string]any{})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("null field", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/verify/iban", `{"iban": null}`)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

// Justification: empty, blank and overlong identifiers are invalid input, not
// malformed requests. They reach the service verbatim and come back as a 200
// envelope carrying the validator's reason.
func (s *HandlerSuite) TestRawValuesReachTheService() {
	invalid := func(code string) verification.Envelope {
		return verification.Envelope{Success: false, Error: "rejected", ErrorCode: code, Timestamp: fixedNow.Format(time.RFC3339)}
	}

	s.Run("empty siren", func() {
		s.service.EXPECT().VerifySiren(gomock.Any(), "", true).Return(invalid("bad_length"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/siren", map[string]any{"siren": ""})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		env := testutil.UnmarshalResponse[verification.Envelope](s.T(), rr)
		s.False(env.Success)
		s.Equal("bad_length", env.ErrorCode)
	})

	s.Run("blank iban is not trimmed", func() {
		s.service.EXPECT().VerifyIBAN(gomock.Any(), "   ").Return(invalid("wrong_country"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/iban", map[string]any{"iban": "   "})
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req))
	})

	s.Run("overlong vat number", func() {
		long := strings.Repeat("1", 65)
		s.service.EXPECT().VerifyVAT(gomock.Any(), long, true).Return(invalid("bad_format"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/tva", map[string]any{"numero_tva": long})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		s.Equal("bad_format", testutil.UnmarshalResponse[verification.Envelope](s.T(), rr).ErrorCode)
	})

	s.Run("overlong siret", func() {
		long := strings.Repeat("1", 65)
		s.service.EXPECT().VerifySiret(gomock.Any(), long, true).Return(invalid("bad_length"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/siret", map[string]any{"siret": long})
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req))
	})
}

func batchRequest(t *testing.T, keyID string, items []map[string]any) *http.Request {
	req := testutil.NewJSONRequest(t, http.MethodPost, "/verify/batch", items)
	return testutil.WithAPIKey(req, keyID)
}

// Justification: batch is a premium feature charged per item; the checks
// must run in order (tier, shape, quota) so nothing is charged for a
// rejected request.
func (s *HandlerSuite) TestBatch() {
	items := []map[string]any{
		{"type": "siren", "value": "732829320"},
		{"type": "tva", "value": "FR44732829320", "include_enrichment": true},
	}

	s.Run("free key is forbidden", func() {
		s.keys.EXPECT().Get(gomock.Any(), freeKey.ID).Return(freeKey, nil)

		rr := testutil.DoRequest(s.router, batchRequest(s.T(), freeKey.ID, items))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("unknown key", func() {
		s.keys.EXPECT().Get(gomock.Any(), "ghost").
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid API key"))

		rr := testutil.DoRequest(s.router, batchRequest(s.T(), "ghost", items))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	s.Run("unsupported type is rejected before charging", func() {
		s.keys.EXPECT().Get(gomock.Any(), premiumKey.ID).Return(premiumKey, nil)

		rr := testutil.DoRequest(s.router, batchRequest(s.T(), premiumKey.ID, []map[string]any{
			{"type": "passport", "value": "X1"},
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("empty batch", func() {
		s.keys.EXPECT().Get(gomock.Any(), premiumKey.ID).Return(premiumKey, nil)

		rr := testutil.DoRequest(s.router, batchRequest(s.T(), premiumKey.ID, []map[string]any{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("too many items", func() {
		s.keys.EXPECT().Get(gomock.Any(), premiumKey.ID).Return(premiumKey, nil)

		many := make([]map[string]any, 4)
		for i := range many {
			many[i] = map[string]any{"type": "siren", "value": "732829320"}
		}
		rr := testutil.DoRequest(s.router, batchRequest(s.T(), premiumKey.ID, many))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("quota exhausted", func() {
		s.keys.EXPECT().Get(gomock.Any(), premiumKey.ID).Return(premiumKey, nil)
		s.quota.EXPECT().Consume(gomock.Any(), quota.Account{KeyID: premiumKey.ID, Tier: "premium", DailyLimit: 10000}, 2).
			Return(&ratelimitmodels.RateLimitResult{Allowed: false, Limit: 10000, Remaining: 1, ResetAt: fixedNow.Add(time.Hour), RetryAfter: 3600}, nil)

		rr := testutil.DoRequest(s.router, batchRequest(s.T(), premiumKey.ID, items))
		testutil.AssertStatus(s.T(), rr, http.StatusTooManyRequests)
		testutil.AssertJSONContains(s.T(), rr, "error", string(dErrors.CodeTooManyRequests))
		s.Equal("3600", rr.Header().Get("Retry-After"))
	})

	s.Run("results keep input order", func() {
		s.keys.EXPECT().Get(gomock.Any(), premiumKey.ID).Return(premiumKey, nil)
		s.quota.EXPECT().Consume(gomock.Any(), gomock.Any(), 2).
			Return(&ratelimitmodels.RateLimitResult{Allowed: true, Limit: 10000, Remaining: 9998, ResetAt: fixedNow.Add(time.Hour)}, nil)
		s.service.EXPECT().VerifyBatch(gomock.Any(), []verification.BatchItem{
			{Type: "siren", Value: "732829320"},
			{Type: "tva", Value: "FR44732829320", IncludeEnrichment: true},
		}).Return([]verification.BatchResult{
			{Type: "siren", Value: "732829320", Envelope: okEnvelope(nil)},
			{Type: "tva", Value: "FR44732829320", Envelope: okEnvelope(nil)},
		})

		rr := testutil.DoRequest(s.router, batchRequest(s.T(), premiumKey.ID, items))
		testutil.AssertStatusOK(s.T(), rr)
		s.Equal("9998", rr.Header().Get("X-RateLimit-Remaining"))

		resp := testutil.UnmarshalResponse[BatchResponse](s.T(), rr)
		s.True(resp.Success)
		s.Equal(2, resp.Total)
		require.Len(s.T(), resp.Results, 2)
		s.Equal("siren", resp.Results[0].Type)
		s.Equal("tva", resp.Results[1].Type)
	})

	s.Run("quota store failure fails open", func() {
		s.keys.EXPECT().Get(gomock.Any(), premiumKey.ID).Return(premiumKey, nil)
		s.quota.EXPECT().Consume(gomock.Any(), gomock.Any(), 2).Return(nil, errors.New("redis down"))
		s.service.EXPECT().VerifyBatch(gomock.Any(), gomock.Any()).Return([]verification.BatchResult{
			{Type: "siren", Value: "732829320", Envelope: okEnvelope(nil)},
			{Type: "tva", Value: "FR44732829320", Envelope: okEnvelope(nil)},
		})

		rr := testutil.DoRequest(s.router, batchRequest(s.T(), premiumKey.ID, items))
		testutil.AssertStatusOK(s.T(), rr)
		s.Empty(rr.Header().Get("X-RateLimit-Remaining"))
	})
}

func (s *HandlerSuite) TestStats() {
	s.Run("reports usage without charging", func() {
		s.keys.EXPECT().Get(gomock.Any(), freeKey.ID).Return(freeKey, nil)
		s.quota.EXPECT().Usage(gomock.Any(), quota.Account{KeyID: freeKey.ID, Tier: "free", DailyLimit: 100}).
			Return(&ratelimitmodels.QuotaUsage{KeyID: freeKey.ID, Limit: 100, Used: 7, Remaining: 93}, nil)

		req := testutil.WithAPIKey(testutil.NewRequest(s.T(), http.MethodGet, "/stats"), freeKey.ID)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[StatsResponse](s.T(), rr)
		s.Equal(StatsResponse{Name: "Demo User", Tier: "free", DailyLimit: 100, UsedToday: 7, Remaining: 93}, *resp)
	})

	s.Run("usage store unavailable", func() {
		s.keys.EXPECT().Get(gomock.Any(), freeKey.ID).Return(freeKey, nil)
		s.quota.EXPECT().Usage(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("timeout"), dErrors.CodeUnavailable, "quota store unavailable"))

		req := testutil.WithAPIKey(testutil.NewRequest(s.T(), http.MethodGet, "/stats"), freeKey.ID)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))
	})
}

func TestRegister_MeteredOnlyWrapsSingleVerifications(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockService(ctrl)
	keys := mocks.NewMockKeyLookup(ctrl)
	q := mocks.NewMockQuota(ctrl)

	var metered []string
	meter := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metered = append(metered, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewRouter()
	New(service, keys, q, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r, meter)

	service.EXPECT().VerifyIBAN(gomock.Any(), "FR7630006000011234567890189").Return(okEnvelope(nil))
	keys.EXPECT().Get(gomock.Any(), freeKey.ID).Return(freeKey, nil)
	q.EXPECT().Usage(gomock.Any(), gomock.Any()).Return(&ratelimitmodels.QuotaUsage{Limit: 100, Remaining: 100}, nil)

	testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/verify/iban", map[string]any{"iban": "FR7630006000011234567890189"}))
	testutil.DoRequest(r, testutil.WithAPIKey(testutil.NewRequest(t, http.MethodGet, "/stats"), freeKey.ID))

	assert.Equal(t, []string{"/verify/iban"}, metered)
}
