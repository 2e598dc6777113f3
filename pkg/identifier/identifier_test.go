package identifier

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/pkg/identifier/checksum"
)

func requireReason(t *testing.T, err error, kind Kind, reason Reason) *ValidationError {
	t.Helper()
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok, "expected *ValidationError, got %T", err)
	assert.Equal(t, kind, ve.Kind)
	assert.Equal(t, reason, ve.Reason)
	return ve
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"  732 829 320  ", "732829320"},
		{"fr76-3000-6000", "FR7630006000"},
		{"\tfr 44 732829320\n", "FR44732829320"},
		{"-\tx", "X"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
		})
	}
}

// TestValidateSiren covers the length and checksum rules.
//
// Justification: SIREN validation gates every registry lookup; a false accept
// sends garbage to INSEE, a false reject blocks a real company.
func TestValidateSiren(t *testing.T) {
	t.Run("accepts checksum-valid SIREN", func(t *testing.T) {
		siren, err := ValidateSiren("732829320")
		require.NoError(t, err)
		assert.Equal(t, Siren("732829320"), siren)
	})

	t.Run("accepts formatted input", func(t *testing.T) {
		siren, err := ValidateSiren(" 732-829-320 ")
		require.NoError(t, err)
		assert.Equal(t, Siren("732829320"), siren)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ValidateSiren("73282932")
		requireReason(t, err, KindSiren, ReasonBadLength)
		assert.ErrorIs(t, err, ErrBadLength)
	})

	t.Run("rejects non digits as bad length", func(t *testing.T) {
		_, err := ValidateSiren("73282932A")
		requireReason(t, err, KindSiren, ReasonBadLength)
	})

	t.Run("rejects checksum mismatch", func(t *testing.T) {
		_, err := ValidateSiren("123456789")
		requireReason(t, err, KindSiren, ReasonChecksumMismatch)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})
}

func TestValidateSiret(t *testing.T) {
	t.Run("accepts known SIRET", func(t *testing.T) {
		siret, err := ValidateSiret("73282932000017")
		require.NoError(t, err)
		assert.Equal(t, Siret("73282932000017"), siret)
		assert.Equal(t, Siren("732829320"), siret.Siren())
		assert.Equal(t, "00017", siret.NIC())
	})

	t.Run("rejects checksum mismatch", func(t *testing.T) {
		_, err := ValidateSiret("12345678901234")
		ve := requireReason(t, err, KindSiret, ReasonChecksumMismatch)
		assert.False(t, ve.EmbeddedSiren())
		assert.Nil(t, ve.Cause)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ValidateSiret("7328293200001")
		requireReason(t, err, KindSiret, ReasonBadLength)
	})

	t.Run("rejects valid SIRET checksum with invalid embedded SIREN", func(t *testing.T) {
		// 10000000000008 passes Luhn as a whole but 100000000 does not.
		require.True(t, checksum.Luhn("10000000000008"))
		require.False(t, checksum.Luhn("100000000"))

		_, err := ValidateSiret("10000000000008")
		ve := requireReason(t, err, KindSiret, ReasonChecksumMismatch)
		assert.True(t, ve.EmbeddedSiren())
		require.NotNil(t, ve.Cause)
		assert.Equal(t, KindSiren, ve.Cause.Kind)

		var inner *ValidationError
		require.True(t, errors.As(errors.Unwrap(err), &inner))
		assert.Equal(t, KindSiren, inner.Kind)
	})
}

// TestSirenLuhnProperty checks that for random 9-digit strings the validator
// agrees with a direct Luhn computation, and that a valid SIRET always embeds a
// valid SIREN.
func TestSirenLuhnProperty(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for range 20000 {
		s := digits(r, 9)
		_, err := ValidateSiren(s)
		assert.Equal(t, referenceLuhn(s), err == nil, "SIREN %s", s)
	}

	valid := 0
	for range 20000 {
		s := digits(r, 14)
		if _, err := ValidateSiret(s); err == nil {
			valid++
			_, sirenErr := ValidateSiren(s[:9])
			assert.NoError(t, sirenErr, "SIRET %s embeds an invalid SIREN", s)
		}
	}
	assert.Positive(t, valid)
}

func TestValidateVAT(t *testing.T) {
	t.Run("accepts French VAT with valid SIREN", func(t *testing.T) {
		vat, err := ValidateVAT("FR44732829320")
		require.NoError(t, err)
		assert.Equal(t, "FR", vat.CountryCode)
		assert.Equal(t, Siren("732829320"), vat.Siren)
		assert.Equal(t, "44", vat.Key)
		assert.Equal(t, "44", vat.ExpectedKey)
		require.NotNil(t, vat.KeyMatches)
		assert.True(t, *vat.KeyMatches)
		assert.Equal(t, "44732829320", vat.Local())
	})

	t.Run("key mismatch is reported, not rejected", func(t *testing.T) {
		vat, err := ValidateVAT("FRXX732829320")
		require.NoError(t, err)
		require.NotNil(t, vat.KeyMatches)
		assert.False(t, *vat.KeyMatches)
	})

	t.Run("accepts separators and lowercase", func(t *testing.T) {
		vat, err := ValidateVAT(" fr 44.732-829.320 ")
		require.NoError(t, err)
		assert.Equal(t, "FR44732829320", vat.Number)
	})

	t.Run("accepts other EU countries on structure only", func(t *testing.T) {
		vat, err := ValidateVAT("DE123456789")
		require.NoError(t, err)
		assert.Equal(t, "DE", vat.CountryCode)
		assert.Nil(t, vat.KeyMatches)
		assert.Empty(t, vat.Siren)
	})

	t.Run("accepts EL for Greece", func(t *testing.T) {
		_, err := ValidateVAT("EL094259216")
		require.NoError(t, err)
	})

	t.Run("rejects unsupported country", func(t *testing.T) {
		_, err := ValidateVAT("XX123456789")
		requireReason(t, err, KindVAT, ReasonUnsupportedCountry)
		assert.ErrorIs(t, err, ErrUnsupportedCountry)
	})

	t.Run("rejects GR since VIES uses EL", func(t *testing.T) {
		_, err := ValidateVAT("GR094259216")
		requireReason(t, err, KindVAT, ReasonUnsupportedCountry)
	})

	t.Run("rejects bad format", func(t *testing.T) {
		for _, raw := range []string{"", "F", "FR", "12345678901", "FR_1234"} {
			_, err := ValidateVAT(raw)
			requireReason(t, err, KindVAT, ReasonBadFormat)
		}
	})

	t.Run("rejects malformed French structure", func(t *testing.T) {
		_, err := ValidateVAT("FR4473282932")
		requireReason(t, err, KindVAT, ReasonBadFormat)
	})

	t.Run("propagates embedded SIREN failure", func(t *testing.T) {
		_, err := ValidateVAT("FR12123456789")
		ve := requireReason(t, err, KindVAT, ReasonChecksumMismatch)
		assert.True(t, ve.EmbeddedSiren())
	})

	t.Run("all supported countries accepted", func(t *testing.T) {
		for _, cc := range SupportedVATCountries() {
			if cc == "FR" {
				continue
			}
			_, err := ValidateVAT(cc + "123456789")
			assert.NoError(t, err, cc)
		}
		assert.Len(t, SupportedVATCountries(), 27)
	})
}

func TestFrenchVATKey(t *testing.T) {
	assert.Equal(t, "44", FrenchVATKey("732829320"))
	assert.Equal(t, "96", FrenchVATKey("552100554"))
	assert.Equal(t, "13", FrenchVATKey("542107651"))
}

func TestValidateIBANFR(t *testing.T) {
	t.Run("accepts reference IBAN", func(t *testing.T) {
		iban, err := ValidateIBANFR("FR7630006000011234567890189")
		require.NoError(t, err)
		assert.Equal(t, "FR", iban.CountryCode)
		assert.Equal(t, "76", iban.CheckDigits)
		assert.Equal(t, "30006", iban.BankCode)
		assert.Equal(t, "00001", iban.BranchCode)
		assert.Equal(t, "12345678901", iban.AccountNumber)
		assert.Equal(t, "89", iban.RIBKey)
		assert.Equal(t, "30006000011234567890189", iban.BBAN.String())
		assert.Equal(t, "France", iban.CountryName())
	})

	// The reference IBAN carries RIB key 89 while the derivation yields 62.
	// The IBAN stays valid.
	t.Run("RIB key mismatch is advisory", func(t *testing.T) {
		iban, err := ValidateIBANFR("FR7630006000011234567890189")
		require.NoError(t, err)
		assert.Equal(t, "62", iban.ComputedRIBKey)
		assert.False(t, iban.RIBKeyMatches)
	})

	t.Run("RIB key match is reported", func(t *testing.T) {
		iban, err := ValidateIBANFR("FR2930006000011234567890162")
		require.NoError(t, err)
		assert.True(t, iban.RIBKeyMatches)
	})

	t.Run("accepts letters in the account number", func(t *testing.T) {
		iban, err := ValidateIBANFR("FR402004101005050001M026062")
		require.NoError(t, err)
		assert.Equal(t, "050001M0260", iban.AccountNumber)
	})

	t.Run("accepts display formatting", func(t *testing.T) {
		iban, err := ValidateIBANFR("fr76 3000 6000 0112 3456 7890 189")
		require.NoError(t, err)
		assert.Equal(t, "FR76 3000 6000 0112 3456 7890 189", iban.Display())
	})

	t.Run("rejects short IBAN", func(t *testing.T) {
		_, err := ValidateIBANFR("FR1234567890")
		requireReason(t, err, KindIBAN, ReasonBadLength)
	})

	t.Run("rejects foreign IBAN", func(t *testing.T) {
		_, err := ValidateIBANFR("DE89370400440532013000")
		requireReason(t, err, KindIBAN, ReasonWrongCountry)
		assert.ErrorIs(t, err, ErrWrongCountry)
	})

	t.Run("rejects empty input as wrong country", func(t *testing.T) {
		_, err := ValidateIBANFR("")
		requireReason(t, err, KindIBAN, ReasonWrongCountry)
	})

	t.Run("rejects letters in check digits", func(t *testing.T) {
		_, err := ValidateIBANFR("FR7A30006000011234567890189")
		requireReason(t, err, KindIBAN, ReasonBadFormat)
	})

	t.Run("rejects punctuation in BBAN", func(t *testing.T) {
		_, err := ValidateIBANFR("FR763000600001123456789018.")
		requireReason(t, err, KindIBAN, ReasonBadFormat)
	})

	t.Run("rejects wrong check digits", func(t *testing.T) {
		_, err := ValidateIBANFR("FR7730006000011234567890189")
		requireReason(t, err, KindIBAN, ReasonChecksumMismatch)
	})
}

// TestIBANSingleMutation flips every BBAN digit of the reference IBAN to every
// other digit. MOD-97 detects all single substitutions.
func TestIBANSingleMutation(t *testing.T) {
	const ref = "FR7630006000011234567890189"
	for i := 4; i < len(ref); i++ {
		for d := byte('0'); d <= '9'; d++ {
			if ref[i] == d {
				continue
			}
			mutated := ref[:i] + string(d) + ref[i+1:]
			_, err := ValidateIBANFR(mutated)
			assert.ErrorIs(t, err, ErrChecksumMismatch, "mutation %s", mutated)
		}
	}
}

func TestValidateDispatch(t *testing.T) {
	v, err := Validate(KindSiret, "73282932000017")
	require.NoError(t, err)
	assert.IsType(t, Siret(""), v)

	v, err = Validate(KindIBAN, "FR7630006000011234567890189")
	require.NoError(t, err)
	assert.IsType(t, IBAN{}, v)

	_, err = Validate(Kind("passport"), "x")
	require.Error(t, err)
	_, ok := AsValidationError(err)
	assert.False(t, ok)

	kind, err := ParseKind("TVA")
	require.NoError(t, err)
	assert.Equal(t, KindVAT, kind)
}

func referenceLuhn(s string) bool {
	sum := 0
	for i := range len(s) {
		d := int(s[len(s)-1-i] - '0')
		if i%2 == 1 {
			d = d*2/10 + d*2%10
		}
		sum += d
	}
	return sum%10 == 0
}

func digits(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + r.IntN(10))
	}
	return string(b)
}
