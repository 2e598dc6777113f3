package service

import (
	"docverify/internal/evidence/registry/models"
	"docverify/internal/evidence/registry/providers"
)

// EvidenceToCompanyRecord converts company evidence to a CompanyRecord.
// Returns nil if the evidence is nil or not a company type.
func EvidenceToCompanyRecord(ev *providers.Evidence) *models.CompanyRecord {
	if ev == nil || ev.ProviderType != providers.ProviderTypeCompany {
		return nil
	}
	active := getBool(ev.Data, "active")
	record := &models.CompanyRecord{
		Siren:         getString(ev.Data, "siren"),
		Siret:         getString(ev.Data, "siret"),
		Name:          getString(ev.Data, "name"),
		ActivityCode:  getString(ev.Data, "activity_code"),
		LegalCategory: getString(ev.Data, "legal_category"),
		CreatedOn:     getString(ev.Data, "created_on"),
		Active:        active,
		Status:        models.CompanyStatus(active),
		CheckedAt:     ev.CheckedAt,
		Source:        ev.ProviderID,
	}
	addr := models.Address{
		Number:     getString(ev.Data, "address_number"),
		Street:     getString(ev.Data, "address_street"),
		PostalCode: getString(ev.Data, "address_postal_code"),
		City:       getString(ev.Data, "address_city"),
	}
	if addr != (models.Address{}) {
		record.Address = &addr
	}
	return record
}

// EvidenceToVATCheck converts VAT evidence to a VATCheck. Valid stays nil
// when the evidence carries no verdict.
// Returns nil if the evidence is nil or not a VAT type.
func EvidenceToVATCheck(ev *providers.Evidence) *models.VATCheck {
	if ev == nil || ev.ProviderType != providers.ProviderTypeVAT {
		return nil
	}
	check := &models.VATCheck{
		VATNumber:   getString(ev.Data, "vat_number"),
		CountryCode: getString(ev.Data, "country_code"),
		Name:        getString(ev.Data, "name"),
		Address:     getString(ev.Data, "address"),
		CheckedAt:   ev.CheckedAt,
		Source:      ev.ProviderID,
	}
	if v, ok := ev.Data["valid"].(bool); ok {
		check.Valid = &v
	}
	return check
}

func getString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func getBool(data map[string]any, key string) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return false
}
