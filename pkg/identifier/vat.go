package identifier

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	vatPattern   = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]+$`)
	vatFRPattern = regexp.MustCompile(`^FR[0-9A-Z]{2}[0-9]{9}$`)
)

// vatCountries lists the prefixes accepted for intracommunity VAT numbers.
// Greece uses EL rather than its ISO code.
var vatCountries = []string{
	"AT", "BE", "BG", "CY", "CZ", "DE", "DK", "EE", "EL", "ES", "FI", "FR", "HR", "HU",
	"IE", "IT", "LT", "LU", "LV", "MT", "NL", "PL", "PT", "RO", "SE", "SI", "SK",
}

// SupportedVATCountries returns a copy of the accepted VAT prefixes.
func SupportedVATCountries() []string {
	return slices.Clone(vatCountries)
}

// VATNumber is a structurally valid EU VAT number.
type VATNumber struct {
	Number      string `json:"vat_number"`
	CountryCode string `json:"country_code"`

	// French numbers only.
	Siren       Siren  `json:"siren,omitempty"`
	Key         string `json:"key,omitempty"`
	ExpectedKey string `json:"expected_key,omitempty"`
	KeyMatches  *bool  `json:"key_matches,omitempty"`
}

func (v VATNumber) String() string {
	return v.Number
}

// Local returns the number without its country prefix, as expected by VIES.
func (v VATNumber) Local() string {
	return v.Number[2:]
}

// FrenchVATKey computes the 2-digit key of a French VAT number from its SIREN:
// (12 + 3 * (SIREN mod 97)) mod 97.
func FrenchVATKey(siren Siren) string {
	rem := 0
	for i := 0; i < len(siren); i++ {
		rem = (rem*10 + int(siren[i]-'0')) % 97
	}
	return fmt.Sprintf("%02d", (12+3*rem)%97)
}

// ValidateVAT checks the structure of an EU VAT number. Dots are accepted as
// separators. For French numbers the trailing 9 digits must form a valid SIREN;
// the 2-character key is reported against the computed one but never rejected.
func ValidateVAT(raw string) (VATNumber, error) {
	s := strings.ReplaceAll(Normalize(raw), ".", "")
	if !vatPattern.MatchString(s) {
		return VATNumber{}, newValidationError(KindVAT, ReasonBadFormat,
			"VAT number must be two letters followed by letters or digits")
	}

	country := s[:2]
	if !slices.Contains(vatCountries, country) {
		return VATNumber{}, newValidationError(KindVAT, ReasonUnsupportedCountry,
			"country code %s is not an EU VAT prefix", country)
	}

	vat := VATNumber{Number: s, CountryCode: country}
	if country != "FR" {
		return vat, nil
	}

	if !vatFRPattern.MatchString(s) {
		return VATNumber{}, newValidationError(KindVAT, ReasonBadFormat,
			"French VAT number must be FR, a 2-character key and a 9-digit SIREN")
	}
	siren := s[4:]
	if verr := checkSiren(siren); verr != nil {
		return VATNumber{}, embeddedSirenError(KindVAT, verr)
	}

	vat.Siren = Siren(siren)
	vat.Key = s[2:4]
	vat.ExpectedKey = FrenchVATKey(vat.Siren)
	matches := vat.Key == vat.ExpectedKey
	vat.KeyMatches = &matches
	return vat, nil
}
