// Package sirene looks up French companies in the INSEE Sirene register
// (API version 3.11).
package sirene

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docverify/internal/evidence/registry/providers"
	"docverify/pkg/identifier/checksum"
)

const (
	apiVersion   = "3.11"
	headerAPIKey = "X-INSEE-Api-Key-Integration"
	maxBodyBytes = 1 << 20
)

// Evidence data keys.
const (
	FieldSiren         = "siren"
	FieldSiret         = "siret"
	FieldName          = "name"
	FieldNumber        = "address_number"
	FieldStreet        = "address_street"
	FieldPostalCode    = "address_postal_code"
	FieldCity          = "address_city"
	FieldActivityCode  = "activity_code"
	FieldLegalCategory = "legal_category"
	FieldCreatedOn     = "created_on"
	FieldActive        = "active"
)

// Provider queries Sirene over HTTP.
type Provider struct {
	id      string
	baseURL string
	apiKey  string
	client  *http.Client
	now     func() time.Time
}

type Option func(*Provider)

// WithHTTPClient replaces the retrying client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.client = c
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a Sirene provider. apiKey may be empty for the anonymous quota.
func New(id, baseURL, apiKey string, transport providers.TransportConfig, opts ...Option) *Provider {
	p := &Provider{
		id:      id,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  providers.NewHTTPClient(transport),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) ID() string { return p.id }

func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Protocol: providers.ProtocolHTTP,
		Type:     providers.ProviderTypeCompany,
		Version:  apiVersion,
		Fields: []providers.FieldCapability{
			{FieldName: FieldSiren, Available: true, Filterable: true},
			{FieldName: FieldSiret, Available: true, Filterable: true},
			{FieldName: FieldName, Available: true},
			{FieldName: FieldStreet, Available: true},
			{FieldName: FieldActivityCode, Available: true},
			{FieldName: FieldLegalCategory, Available: true},
			{FieldName: FieldActive, Available: true},
		},
		Filters: []string{providers.FilterSiren, providers.FilterSiret},
	}
}

// Lookup fetches an establishment (siret filter) or a legal unit (siren filter).
func (p *Provider) Lookup(ctx context.Context, filters map[string]string) (*providers.Evidence, error) {
	path, number, err := p.resolvePath(filters)
	if err != nil {
		return nil, err
	}

	body, err := p.get(ctx, path, number)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if path == "siret" {
		data, err = parseEstablishment(body)
	} else {
		data, err = parseLegalUnit(body)
	}
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, p.id, "malformed Sirene response", err)
	}
	if data[FieldSiren] == "" {
		return nil, providers.NewProviderError(providers.ErrorContractMismatch, p.id,
			fmt.Sprintf("response for %s carries no siren", number), nil)
	}

	return &providers.Evidence{
		ProviderID:   p.id,
		ProviderType: providers.ProviderTypeCompany,
		Confidence:   1.0,
		Data:         data,
		CheckedAt:    p.now(),
		Metadata:     map[string]string{"api_version": apiVersion, "endpoint": path},
	}, nil
}

// Health calls the service information endpoint.
func (p *Provider) Health(ctx context.Context) error {
	_, err := p.get(ctx, "informations")
	return err
}

func (p *Provider) resolvePath(filters map[string]string) (string, string, error) {
	if siret, ok := filters[providers.FilterSiret]; ok {
		if len(siret) != 14 || !checksum.IsDigits(siret) {
			return "", "", providers.NewProviderError(providers.ErrorBadData, p.id, "siret filter must be 14 digits", nil)
		}
		return "siret", siret, nil
	}
	if siren, ok := filters[providers.FilterSiren]; ok {
		if len(siren) != 9 || !checksum.IsDigits(siren) {
			return "", "", providers.NewProviderError(providers.ErrorBadData, p.id, "siren filter must be 9 digits", nil)
		}
		return "siren", siren, nil
	}
	return "", "", providers.NewProviderError(providers.ErrorBadData, p.id, "siren or siret filter required", nil)
}

// get performs GET {base}/{resource}[/{number}] and returns the body of a 2xx
// response.
func (p *Provider) get(ctx context.Context, resource string, number ...string) ([]byte, error) {
	target := p.baseURL + "/" + resource
	for _, n := range number {
		target += "/" + url.PathEscape(n)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, p.id, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set(headerAPIKey, p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, providers.ClassifyTransportError(p.id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, providers.ClassifyTransportError(p.id, err)
	}
	if category, failed := providers.ClassifyHTTPStatus(resp.StatusCode); failed {
		return nil, providers.NewProviderError(category, p.id, fmt.Sprintf("Sirene returned HTTP %d", resp.StatusCode), nil)
	}
	return body, nil
}

type legalUnitFields struct {
	Denomination  string  `json:"denominationUniteLegale"`
	FirstName     string  `json:"prenom1UniteLegale"`
	LastName      string  `json:"nomUniteLegale"`
	LegalCategory string  `json:"categorieJuridiqueUniteLegale"`
	ActivityCode  string  `json:"activitePrincipaleUniteLegale"`
	State         string  `json:"etatAdministratifUniteLegale"`
	PeriodEndedOn *string `json:"dateFin"`
	CreatedOn     string  `json:"dateCreationUniteLegale"`
}

type legalUnit struct {
	Siren string `json:"siren"`
	legalUnitFields
	Periods []legalUnitFields `json:"periodesUniteLegale"`
}

type establishmentPeriod struct {
	State        string  `json:"etatAdministratifEtablissement"`
	ActivityCode string  `json:"activitePrincipaleEtablissement"`
	EndedOn      *string `json:"dateFin"`
}

type establishment struct {
	Siren        string    `json:"siren"`
	Siret        string    `json:"siret"`
	CreatedOn    string    `json:"dateCreationEtablissement"`
	State        string    `json:"etatAdministratifEtablissement"`
	ActivityCode string    `json:"activitePrincipaleEtablissement"`
	LegalUnit    legalUnit `json:"uniteLegale"`
	Address      struct {
		Number     string `json:"numeroVoieEtablissement"`
		StreetType string `json:"typeVoieEtablissement"`
		Street     string `json:"libelleVoieEtablissement"`
		PostalCode string `json:"codePostalEtablissement"`
		City       string `json:"libelleCommuneEtablissement"`
	} `json:"adresseEtablissement"`
	Periods []establishmentPeriod `json:"periodesEtablissement"`
}

func parseEstablishment(body []byte) (map[string]any, error) {
	var envelope struct {
		Establishment *establishment `json:"etablissement"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Establishment == nil {
		return nil, fmt.Errorf("missing etablissement")
	}
	e := envelope.Establishment

	state, activity := e.State, e.ActivityCode
	if current := currentEstablishmentPeriod(e.Periods); current != nil {
		state = firstNonEmpty(state, current.State)
		activity = firstNonEmpty(activity, current.ActivityCode)
	}
	unit := e.LegalUnit.resolved()
	street := strings.TrimSpace(strings.Join(nonEmpty(e.Address.StreetType, e.Address.Street), " "))

	return map[string]any{
		FieldSiren:         firstNonEmpty(e.Siren, e.LegalUnit.Siren),
		FieldSiret:         e.Siret,
		FieldName:          unit.displayName(),
		FieldNumber:        e.Address.Number,
		FieldStreet:        street,
		FieldPostalCode:    e.Address.PostalCode,
		FieldCity:          e.Address.City,
		FieldActivityCode:  activity,
		FieldLegalCategory: unit.LegalCategory,
		FieldCreatedOn:     e.CreatedOn,
		FieldActive:        state == "A",
	}, nil
}

func parseLegalUnit(body []byte) (map[string]any, error) {
	var envelope struct {
		LegalUnit *legalUnit `json:"uniteLegale"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.LegalUnit == nil {
		return nil, fmt.Errorf("missing uniteLegale")
	}
	u := envelope.LegalUnit
	fields := u.resolved()

	return map[string]any{
		FieldSiren:         u.Siren,
		FieldName:          fields.displayName(),
		FieldActivityCode:  fields.ActivityCode,
		FieldLegalCategory: fields.LegalCategory,
		FieldCreatedOn:     u.CreatedOn,
		FieldActive:        fields.State == "A",
	}, nil
}

// resolved prefers the flat fields and fills gaps from the current period.
func (u legalUnit) resolved() legalUnitFields {
	out := u.legalUnitFields
	var current *legalUnitFields
	for i := range u.Periods {
		if u.Periods[i].PeriodEndedOn == nil {
			current = &u.Periods[i]
			break
		}
	}
	if current == nil && len(u.Periods) > 0 {
		current = &u.Periods[0]
	}
	if current == nil {
		return out
	}
	out.Denomination = firstNonEmpty(out.Denomination, current.Denomination)
	out.LastName = firstNonEmpty(out.LastName, current.LastName)
	out.LegalCategory = firstNonEmpty(out.LegalCategory, current.LegalCategory)
	out.ActivityCode = firstNonEmpty(out.ActivityCode, current.ActivityCode)
	out.State = firstNonEmpty(out.State, current.State)
	return out
}

// displayName is the denomination, or "first last" for sole traders.
func (f legalUnitFields) displayName() string {
	if f.Denomination != "" {
		return f.Denomination
	}
	return strings.Join(nonEmpty(f.FirstName, f.LastName), " ")
}

func currentEstablishmentPeriod(periods []establishmentPeriod) *establishmentPeriod {
	for i := range periods {
		if periods[i].EndedOn == nil {
			return &periods[i]
		}
	}
	if len(periods) > 0 {
		return &periods[0]
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
