package models

import "time"

// CompanyKind says which register a company lookup targets.
type CompanyKind string

const (
	CompanyKindSiren CompanyKind = "siren" // legal unit
	CompanyKindSiret CompanyKind = "siret" // establishment
)

// Address is a French postal address as returned by Sirene.
type Address struct {
	Number     string `json:"number,omitempty"`
	Street     string `json:"street,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
}

// CompanyRecord is company data from the registry. Siret is empty for
// legal-unit lookups.
type CompanyRecord struct {
	Siren         string    `json:"siren"`
	Siret         string    `json:"siret,omitempty"`
	Name          string    `json:"name,omitempty"`
	Address       *Address  `json:"address,omitempty"`
	ActivityCode  string    `json:"activity_code,omitempty"`
	LegalCategory string    `json:"legal_category,omitempty"`
	CreatedOn     string    `json:"created_on,omitempty"`
	Active        bool      `json:"active"`
	Status        string    `json:"status"`
	CheckedAt     time.Time `json:"checked_at"`
	Source        string    `json:"source"`
}

// VATCheck is the outcome of a VIES cross-check. Valid is nil when VIES could
// not answer.
type VATCheck struct {
	VATNumber   string    `json:"vat_number"`
	CountryCode string    `json:"country_code"`
	Valid       *bool     `json:"valid"`
	Name        string    `json:"name,omitempty"`
	Address     string    `json:"address,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
	Source      string    `json:"source"`
}

// CompanyStatus returns the status label for an administrative state code.
func CompanyStatus(active bool) string {
	if active {
		return "active"
	}
	return "closed"
}
