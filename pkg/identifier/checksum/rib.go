package checksum

import (
	"fmt"
	"strings"
)

// ribLetterDigits is the French RIB substitution table, indexed by letter - 'A'.
// A/J->1, B/K/S->2, C/L/T->3, D/M/U->4, E/N/V->5, F/O/W->6, G/P/X->7,
// H/Q/Y->8, I/R/Z->9.
var ribLetterDigits = [26]byte{
	'1', '2', '3', '4', '5', '6', '7', '8', '9', // A-I
	'1', '2', '3', '4', '5', '6', '7', '8', '9', // J-R
	'2', '3', '4', '5', '6', '7', '8', '9', // S-Z
}

// RIBLetterDigit converts one character of a French bank account reference
// to its RIB digit. Digits pass through unchanged, letters use the RIB table.
func RIBLetterDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c, true
	case c >= 'A' && c <= 'Z':
		return ribLetterDigits[c-'A'], true
	default:
		return 0, false
	}
}

// RIBSubstitute applies RIBLetterDigit to every character of s.
func RIBSubstitute(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		d, ok := RIBLetterDigit(s[i])
		if !ok {
			return "", fmt.Errorf("rib substitution at position %d (%q): %w", i, s[i], ErrInvalidCharacter)
		}
		b.WriteByte(d)
	}
	return b.String(), nil
}

// RIBKey derives the French national account key from the bank code, branch
// code and account number: 97 minus the MOD-97 remainder of their RIB-substituted
// concatenation. The result is in 1..97.
func RIBKey(bankCode, branchCode, accountNumber string) (int, error) {
	numeral, err := RIBSubstitute(bankCode + branchCode + accountNumber)
	if err != nil {
		return 0, err
	}
	rem, err := Mod97(numeral)
	if err != nil {
		return 0, err
	}
	return 97 - rem, nil
}
