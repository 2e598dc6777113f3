package checksum

import (
	"errors"
	"fmt"
)

// ErrInvalidCharacter is returned when a MOD-97 or RIB input contains a
// character outside 0-9 and A-Z.
var ErrInvalidCharacter = errors.New("invalid character")

// ISOLetterValue maps an uppercase letter to its ISO 13616 value (A=10 ... Z=35).
// This is the table used for IBAN check digits. It is not the RIB table; see
// RIBLetterDigit.
func ISOLetterValue(c byte) (int, bool) {
	if c < 'A' || c > 'Z' {
		return 0, false
	}
	return int(c-'A') + 10, true
}

// Mod97 returns the remainder modulo 97 of the decimal numeral obtained by
// replacing every letter of s with its ISO value. The numeral is reduced
// digit by digit so inputs of any length are supported.
func Mod97(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("mod97 of empty input: %w", ErrInvalidCharacter)
	}

	acc := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			acc = (acc*10 + int(c-'0')) % 97
		default:
			v, ok := ISOLetterValue(c)
			if !ok {
				return 0, fmt.Errorf("mod97 at position %d (%q): %w", i, c, ErrInvalidCharacter)
			}
			// Letter values are always two decimal digits.
			acc = (acc*100 + v) % 97
		}
	}
	return acc, nil
}
