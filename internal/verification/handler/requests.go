package handler

import (
	"strconv"

	"docverify/internal/verification"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/identifier"
)

// SiretRequest is the body of POST /verify/siret.
type SiretRequest struct {
	Siret              *string `json:"siret"`
	IncludeCompanyData *bool   `json:"include_company_data"`
}

func (r *SiretRequest) Validate() error {
	return requirePresent("siret", r.Siret)
}

// SirenRequest is the body of POST /verify/siren.
type SirenRequest struct {
	Siren              *string `json:"siren"`
	IncludeCompanyData *bool   `json:"include_company_data"`
}

func (r *SirenRequest) Validate() error {
	return requirePresent("siren", r.Siren)
}

// VATRequest is the body of POST /verify/tva.
type VATRequest struct {
	NumeroTVA  *string `json:"numero_tva"`
	VerifyVIES *bool   `json:"verify_vies"`
}

func (r *VATRequest) Validate() error {
	return requirePresent("numero_tva", r.NumeroTVA)
}

// IBANRequest is the body of POST /verify/iban.
type IBANRequest struct {
	IBAN *string `json:"iban"`
}

func (r *IBANRequest) Validate() error {
	return requirePresent("iban", r.IBAN)
}

// BatchRequest is the body of POST /verify/batch: a bare JSON array.
type BatchRequest []verification.BatchItem

// Validate checks every item. The upper bound on items is enforced by the
// handler, which knows the configured limit.
func (r *BatchRequest) Validate() error {
	if r == nil || len(*r) == 0 {
		return dErrors.New(dErrors.CodeValidation, "batch must contain at least one item")
	}
	for i, item := range *r {
		if _, err := identifier.ParseKind(item.Type); err != nil {
			return dErrors.New(dErrors.CodeValidation, "item "+strconv.Itoa(i)+": type must be one of siren, siret, tva, iban")
		}
	}
	return nil
}

// requirePresent rejects an absent field only. Empty, blank or overlong values
// reach the validators untouched and come back as an invalid verdict; the body
// size is capped by httputil.DecodeAndPrepare.
func requirePresent(field string, v *string) error {
	if v == nil {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	return nil
}

// orDefault returns *b, or def when the field was omitted.
func orDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
