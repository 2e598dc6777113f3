package identifier

import "docverify/pkg/identifier/checksum"

const (
	sirenLength = 9
	siretLength = 14
)

// Siren is a checksum-valid 9-digit French company identifier.
type Siren string

func (s Siren) String() string {
	return string(s)
}

// Siret is a checksum-valid 14-digit French establishment identifier.
type Siret string

func (s Siret) String() string {
	return string(s)
}

// Siren returns the company part of the SIRET.
func (s Siret) Siren() Siren {
	return Siren(s[:sirenLength])
}

// NIC returns the 5-digit establishment suffix.
func (s Siret) NIC() string {
	return string(s[sirenLength:])
}

// ValidateSiren checks that raw holds exactly 9 digits passing the Luhn check.
func ValidateSiren(raw string) (Siren, error) {
	s := Normalize(raw)
	if verr := checkSiren(s); verr != nil {
		return "", verr
	}
	return Siren(s), nil
}

// ValidateSiret checks that raw holds exactly 14 digits passing the Luhn check
// and that its first 9 digits form a valid SIREN.
func ValidateSiret(raw string) (Siret, error) {
	s := Normalize(raw)
	if len(s) != siretLength || !checksum.IsDigits(s) {
		return "", newValidationError(KindSiret, ReasonBadLength, "SIRET must contain exactly %d digits", siretLength)
	}
	if !checksum.Luhn(s) {
		return "", newValidationError(KindSiret, ReasonChecksumMismatch, "SIRET checksum is invalid")
	}
	if verr := checkSiren(s[:sirenLength]); verr != nil {
		return "", embeddedSirenError(KindSiret, verr)
	}
	return Siret(s), nil
}

// checkSiren validates an already normalized SIREN.
func checkSiren(s string) *ValidationError {
	if len(s) != sirenLength || !checksum.IsDigits(s) {
		return newValidationError(KindSiren, ReasonBadLength, "SIREN must contain exactly %d digits", sirenLength)
	}
	if !checksum.Luhn(s) {
		return newValidationError(KindSiren, ReasonChecksumMismatch, "SIREN checksum is invalid")
	}
	return nil
}
