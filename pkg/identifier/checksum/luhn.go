// Package checksum holds the numeric check algorithms used by French business
// and banking identifiers: the Luhn mod-10 sum (SIREN, SIRET), ISO 7064 MOD-97
// (IBAN check digits) and the French RIB national key.
//
// All functions are pure and safe for concurrent use.
package checksum

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Luhn reports whether digits passes the Luhn mod-10 check. Walking from the
// rightmost digit, every second digit is doubled and reduced by 9 when the
// result exceeds 9. The number is valid when the sum is a multiple of 10.
//
// Luhn returns false for empty input or input containing anything other than
// ASCII digits.
func Luhn(digits string) bool {
	if !IsDigits(digits) {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
