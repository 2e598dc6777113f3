package identifier

import (
	"fmt"
	"regexp"
	"strings"

	"docverify/pkg/identifier/checksum"
)

const ibanFRLength = 27

var ibanFRPattern = regexp.MustCompile(`^FR[0-9]{2}[0-9A-Z]{23}$`)

// BBAN holds the fixed-width fields of a French basic bank account number.
// BankCode + BranchCode + AccountNumber + RIBKey reconstructs the BBAN.
type BBAN struct {
	BankCode      string `json:"bank_code"`
	BranchCode    string `json:"branch_code"`
	AccountNumber string `json:"account_number"`
	RIBKey        string `json:"rib_key"`
}

func (b BBAN) String() string {
	return b.BankCode + b.BranchCode + b.AccountNumber + b.RIBKey
}

// IBAN is a French IBAN whose check digits verify.
type IBAN struct {
	Number      string `json:"iban"`
	CountryCode string `json:"country"`
	CheckDigits string `json:"check_digits"`
	BBAN

	// ComputedRIBKey is derived from the account fields and is informational
	// only. A mismatch with RIBKey never invalidates the IBAN.
	ComputedRIBKey string `json:"computed_rib_key"`
	RIBKeyMatches  bool   `json:"rib_key_matches"`
}

func (i IBAN) String() string {
	return i.Number
}

// CountryName returns the display name of the IBAN country.
func (i IBAN) CountryName() string {
	return "France"
}

// Display formats the IBAN in groups of four characters.
func (i IBAN) Display() string {
	return groupsOfFour(i.Number)
}

// ValidateIBANFR checks a French IBAN: FR prefix, 27 characters, two check
// digits then 23 alphanumerics, and an ISO 7064 MOD-97 remainder of 1 over
// BBAN + country + check digits.
func ValidateIBANFR(raw string) (IBAN, error) {
	s := Normalize(raw)
	if !strings.HasPrefix(s, "FR") {
		return IBAN{}, newValidationError(KindIBAN, ReasonWrongCountry, "IBAN must start with FR")
	}
	if len(s) != ibanFRLength {
		return IBAN{}, newValidationError(KindIBAN, ReasonBadLength,
			"French IBAN must contain %d characters, got %d", ibanFRLength, len(s))
	}
	if !ibanFRPattern.MatchString(s) {
		return IBAN{}, newValidationError(KindIBAN, ReasonBadFormat,
			"French IBAN must be FR, 2 check digits and 23 letters or digits")
	}

	country, check, bban := s[:2], s[2:4], s[4:]
	rem, err := checksum.Mod97(bban + country + check)
	if err != nil || rem != 1 {
		return IBAN{}, newValidationError(KindIBAN, ReasonChecksumMismatch, "IBAN check digits are invalid")
	}

	fields := BBAN{
		BankCode:      bban[0:5],
		BranchCode:    bban[5:10],
		AccountNumber: bban[10:21],
		RIBKey:        bban[21:23],
	}
	iban := IBAN{
		Number:      s,
		CountryCode: country,
		CheckDigits: check,
		BBAN:        fields,
	}
	if key, err := checksum.RIBKey(fields.BankCode, fields.BranchCode, fields.AccountNumber); err == nil {
		iban.ComputedRIBKey = fmt.Sprintf("%02d", key)
		iban.RIBKeyMatches = iban.ComputedRIBKey == fields.RIBKey
	}
	return iban, nil
}

func groupsOfFour(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	for i := 0; i < len(s); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i:min(i+4, len(s))])
	}
	return b.String()
}
