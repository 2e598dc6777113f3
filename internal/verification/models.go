package verification

import (
	registrymodels "docverify/internal/evidence/registry/models"
	"docverify/pkg/identifier"
)

// EnrichmentStatus reports what happened to the registry lookup attached to a
// verification. It never affects validity.
type EnrichmentStatus string

const (
	EnrichmentOK          EnrichmentStatus = "ok"
	EnrichmentNotFound    EnrichmentStatus = "not_found"
	EnrichmentUnavailable EnrichmentStatus = "unavailable"
	EnrichmentSkipped     EnrichmentStatus = "skipped"
)

const viesSource = "VIES"

type SirenResult struct {
	Siren       string                        `json:"siren"`
	FormatValid bool                          `json:"format_valid"`
	Company     *registrymodels.CompanyRecord `json:"company,omitempty"`
	Enrichment  EnrichmentStatus              `json:"enrichment"`
}

type SiretResult struct {
	Siret       string                        `json:"siret"`
	Siren       string                        `json:"siren"`
	NIC         string                        `json:"nic"`
	FormatValid bool                          `json:"format_valid"`
	Company     *registrymodels.CompanyRecord `json:"company,omitempty"`
	Enrichment  EnrichmentStatus              `json:"enrichment"`
}

// VIESResult is the cross-check block of a VAT verification. Valid is null
// when VIES could not be reached.
type VIESResult struct {
	Valid   *bool  `json:"valid"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Error   string `json:"error,omitempty"`
	Source  string `json:"source"`
}

type VATResult struct {
	identifier.VATNumber
	FormatValid bool             `json:"format_valid"`
	VIES        *VIESResult      `json:"vies,omitempty"`
	Enrichment  EnrichmentStatus `json:"enrichment"`
}

type IBANResult struct {
	identifier.IBAN
	Display        string `json:"display"`
	CountryName    string `json:"country_name"`
	FormatValid    bool   `json:"format_valid"`
	IBANCheckValid bool   `json:"iban_check_valid"`
}

// BatchItem is one identifier of a batch request. Type accepts the kinds
// understood by identifier.ParseKind.
type BatchItem struct {
	Type              string `json:"type"`
	Value             string `json:"value"`
	IncludeEnrichment bool   `json:"include_enrichment"`
}

// BatchResult is the envelope for one batch item, tagged with its input.
type BatchResult struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Envelope
}
