// Package vies cross-checks EU VAT numbers against the European Commission
// VIES SOAP service.
package vies

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"docverify/internal/evidence/registry/providers"
)

const (
	soapNamespace  = "http://schemas.xmlsoap.org/soap/envelope/"
	typesNamespace = "urn:ec.europa.eu:taxud:vies:services:checkVat:types"
	serviceVersion = "checkVat"
	maxBodyBytes   = 256 << 10

	// placeholder VIES returns when a member state does not disclose a field
	undisclosed = "---"
)

// Evidence data keys. Name and address are omitted when undisclosed.
const (
	FieldVATNumber   = "vat_number"
	FieldCountryCode = "country_code"
	FieldValid       = "valid"
	FieldName        = "name"
	FieldAddress     = "address"
	FieldRequestDate = "request_date"
)

// Provider calls checkVat over SOAP.
type Provider struct {
	id       string
	endpoint string
	client   *http.Client
	now      func() time.Time
}

type Option func(*Provider)

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

// New creates a VIES provider posting to endpoint. Unless the transport sets
// its own policy, only transient faults are retried.
func New(id, endpoint string, transport providers.TransportConfig, opts ...Option) *Provider {
	if transport.CheckRetry == nil {
		transport.CheckRetry = retryTransientFaults
	}
	p := &Provider{
		id:       id,
		endpoint: endpoint,
		client:   providers.NewHTTPClient(transport),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) ID() string { return p.id }

func (p *Provider) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Protocol: providers.ProtocolSOAP,
		Type:     providers.ProviderTypeVAT,
		Version:  serviceVersion,
		Fields: []providers.FieldCapability{
			{FieldName: FieldVATNumber, Available: true, Filterable: true},
			{FieldName: FieldValid, Available: true},
			{FieldName: FieldName, Available: true},
			{FieldName: FieldAddress, Available: true},
		},
		Filters: []string{providers.FilterVATNumber},
	}
}

type checkVatRequest struct {
	XMLName     xml.Name `xml:"urn:ec.europa.eu:taxud:vies:services:checkVat:types checkVat"`
	CountryCode string   `xml:"countryCode"`
	VATNumber   string   `xml:"vatNumber"`
}

type requestEnvelope struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Body    struct {
		CheckVat checkVatRequest
	} `xml:"http://schemas.xmlsoap.org/soap/envelope/ Body"`
}

type checkVatResponse struct {
	CountryCode string `xml:"countryCode"`
	VATNumber   string `xml:"vatNumber"`
	RequestDate string `xml:"requestDate"`
	Valid       *bool  `xml:"valid"`
	Name        string `xml:"name"`
	Address     string `xml:"address"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type responseEnvelope struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Body    struct {
		Response *checkVatResponse `xml:"urn:ec.europa.eu:taxud:vies:services:checkVat:types checkVatResponse"`
		Fault    *soapFault        `xml:"http://schemas.xmlsoap.org/soap/envelope/ Fault"`
	} `xml:"http://schemas.xmlsoap.org/soap/envelope/ Body"`
}

// Lookup checks the vat_number filter. The number carries its two-letter
// prefix ("FR44732829320"); Greece uses EL, as VIES expects.
func (p *Provider) Lookup(ctx context.Context, filters map[string]string) (*providers.Evidence, error) {
	vat := strings.ToUpper(strings.TrimSpace(filters[providers.FilterVATNumber]))
	if len(vat) < 3 || !isLetter(vat[0]) || !isLetter(vat[1]) {
		return nil, providers.NewProviderError(providers.ErrorBadData, p.id, "vat_number filter must start with a country code", nil)
	}

	var envelope requestEnvelope
	envelope.Body.CheckVat = checkVatRequest{CountryCode: vat[:2], VATNumber: vat[2:]}
	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, p.id, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint,
		bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, p.id, "build request", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, providers.ClassifyTransportError(p.id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, providers.ClassifyTransportError(p.id, err)
	}

	// Faults arrive with HTTP 500, so the body is inspected before the status.
	var parsed responseEnvelope
	decodeErr := xml.Unmarshal(body, &parsed)
	if decodeErr == nil && parsed.Body.Fault != nil {
		return nil, p.faultError(parsed.Body.Fault)
	}
	if category, failed := providers.ClassifyHTTPStatus(resp.StatusCode); failed {
		return nil, providers.NewProviderError(category, p.id, fmt.Sprintf("VIES returned HTTP %d", resp.StatusCode), nil)
	}
	if decodeErr != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, p.id, "malformed VIES response", decodeErr)
	}
	r := parsed.Body.Response
	if r == nil || r.Valid == nil {
		return nil, providers.NewProviderError(providers.ErrorContractMismatch, p.id, "checkVatResponse without a valid element", nil)
	}

	data := map[string]any{
		FieldVATNumber:   vat,
		FieldCountryCode: vat[:2],
		FieldValid:       *r.Valid,
	}
	if name := disclosed(r.Name); name != "" {
		data[FieldName] = name
	}
	if address := disclosed(r.Address); address != "" {
		data[FieldAddress] = address
	}
	if r.RequestDate != "" {
		data[FieldRequestDate] = r.RequestDate
	}

	return &providers.Evidence{
		ProviderID:   p.id,
		ProviderType: providers.ProviderTypeVAT,
		Confidence:   1.0,
		Data:         data,
		CheckedAt:    p.now(),
		Metadata:     map[string]string{"service": serviceVersion},
	}, nil
}

// Health fetches the service WSDL.
func (p *Provider) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?wsdl", nil)
	if err != nil {
		return providers.NewProviderError(providers.ErrorInternal, p.id, "build request", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return providers.ClassifyTransportError(p.id, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	if category, failed := providers.ClassifyHTTPStatus(resp.StatusCode); failed {
		return providers.NewProviderError(category, p.id, fmt.Sprintf("VIES returned HTTP %d", resp.StatusCode), nil)
	}
	return nil
}

// transientFaults are the fault strings that may clear on retry.
var transientFaults = map[string]bool{
	"MS_UNAVAILABLE":            true,
	"SERVICE_UNAVAILABLE":       true,
	"TIMEOUT":                   true,
	"MS_MAX_CONCURRENT_REQ":     true,
	"GLOBAL_MAX_CONCURRENT_REQ": true,
}

func (p *Provider) faultError(f *soapFault) *providers.ProviderError {
	reason := strings.TrimSpace(f.String)
	msg := "VIES fault " + reason
	switch {
	case reason == "INVALID_INPUT", reason == "INVALID_REQUESTER_INFO":
		return providers.NewProviderError(providers.ErrorBadData, p.id, msg, nil)
	case transientFaults[reason]:
		return providers.NewProviderError(providers.ErrorProviderOutage, p.id, msg, nil)
	default:
		return providers.NewProviderError(providers.ErrorContractMismatch, p.id, msg, nil)
	}
}

// retryTransientFaults retries like retryablehttp.DefaultRetryPolicy, except
// that a SOAP fault is retried only when its fault string is transient. The
// body is read and restored so Lookup can still classify the response.
func retryTransientFaults(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil && resp.StatusCode == http.StatusInternalServerError {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(body))
		if readErr == nil {
			var parsed responseEnvelope
			if xml.Unmarshal(body, &parsed) == nil && parsed.Body.Fault != nil {
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				return transientFaults[strings.TrimSpace(parsed.Body.Fault.String)], nil
			}
		}
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func disclosed(s string) string {
	s = strings.TrimSpace(s)
	if s == undisclosed {
		return ""
	}
	return s
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
