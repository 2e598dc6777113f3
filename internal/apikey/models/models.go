package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	dErrors "docverify/pkg/domain-errors"
)

// Tier controls which endpoints a key may call.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown tier %q", s))
	}
	return t, nil
}

// IsValid reports whether t is a known tier.
func (t Tier) IsValid() bool {
	return t == TierFree || t == TierPremium
}

// Key is an API key as known to the service. The plaintext secret is never
// kept; SecretHash is a bcrypt hash.
type Key struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Tier       Tier   `json:"tier"`
	DailyLimit int    `json:"daily_limit"`
	SecretHash string `json:"-"`
}

// IsPremium reports whether the key may use premium-only endpoints.
func (k *Key) IsPremium() bool {
	return k.Tier == TierPremium
}

var keyNamespace = uuid.MustParse("6f0a7b4e-2c1d-4f57-9a3e-d0c5f1e2a8b9")

// KeyIDForName derives a stable key ID from the key name, so quota windows
// survive restarts when they are kept in Redis.
func KeyIDForName(name string) string {
	return uuid.NewSHA1(keyNamespace, []byte(name)).String()
}
