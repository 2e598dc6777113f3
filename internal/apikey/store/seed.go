package store

import (
	"context"
	"fmt"

	"docverify/internal/apikey/models"
	"docverify/internal/apikey/secrets"
	"docverify/internal/platform/config"
)

// SeedFromConfig loads the configured keys. Plaintext secrets are hashed with
// bcrypt at the given cost; values that already are bcrypt hashes are stored
// as-is.
func SeedFromConfig(ctx context.Context, s *InMemoryKeyStore, seeds []config.APIKeySeed, cost int) error {
	for _, seed := range seeds {
		tier, err := models.ParseTier(seed.Tier)
		if err != nil {
			return fmt.Errorf("seed %q: %w", seed.Name, err)
		}
		hash := seed.Secret
		if !secrets.IsHash(hash) {
			if hash, err = secrets.Hash(seed.Secret, cost); err != nil {
				return fmt.Errorf("seed %q: %w", seed.Name, err)
			}
		}
		key := &models.Key{
			ID:         models.KeyIDForName(seed.Name),
			Name:       seed.Name,
			Tier:       tier,
			DailyLimit: seed.DailyLimit,
			SecretHash: hash,
		}
		if err := s.Save(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
