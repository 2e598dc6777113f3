// Package identifier validates French business and banking identifiers:
// SIREN, SIRET, EU intracommunity VAT numbers and French IBANs.
//
// Validators accept any raw string and return either the parsed identifier or
// a *ValidationError carrying one of the closed Reason values. They never
// panic, hold no state and are safe for concurrent use. Whether an identifier
// exists in a registry is out of scope here.
package identifier

import (
	"fmt"
	"strings"
)

// Kind tags the identifier families.
type Kind string

const (
	KindSiren Kind = "siren"
	KindSiret Kind = "siret"
	KindVAT   Kind = "vat"
	KindIBAN  Kind = "iban"
)

// ParseKind accepts the canonical kind names plus the French "tva" alias.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "siren":
		return KindSiren, nil
	case "siret":
		return KindSiret, nil
	case "vat", "tva":
		return KindVAT, nil
	case "iban":
		return KindIBAN, nil
	}
	return "", fmt.Errorf("unknown identifier kind %q", s)
}

func (k Kind) String() string {
	return string(k)
}

// Validate dispatches raw to the validator for kind. The returned value is a
// Siren, Siret, VATNumber or IBAN.
func Validate(kind Kind, raw string) (any, error) {
	switch kind {
	case KindSiren:
		return ValidateSiren(raw)
	case KindSiret:
		return ValidateSiret(raw)
	case KindVAT:
		return ValidateVAT(raw)
	case KindIBAN:
		return ValidateIBANFR(raw)
	}
	return nil, fmt.Errorf("unknown identifier kind %q", kind)
}
