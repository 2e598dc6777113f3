package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Sirene.Timeout)
	assert.Equal(t, 10*time.Second, cfg.VIES.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Registry.CacheTTL)
	assert.Equal(t, 100, cfg.Batch.MaxItems)
	assert.Empty(t, cfg.Redis.URL)
	require.Len(t, cfg.APIKeys.Seeds, 2)
	assert.Equal(t, APIKeySeed{Secret: "demo_key_123", Name: "Demo User", Tier: "free", DailyLimit: 100}, cfg.APIKeys.Seeds[0])
	assert.Equal(t, APIKeySeed{Secret: "premium_key_456", Name: "Premium User", Tier: "premium", DailyLimit: 10000}, cfg.APIKeys.Seeds[1])
}

func TestLoad_DotEnvAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SIRENE_TIMEOUT=3s\nBATCH_MAX_ITEMS=20\n"), 0o600))
	t.Setenv("API_KEYS", "k1:Ops:Premium:50")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	// godotenv never overrides variables already present.
	t.Setenv("BATCH_MAX_ITEMS", "30")

	t.Cleanup(func() { _ = os.Unsetenv("SIRENE_TIMEOUT") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Sirene.Timeout)
	assert.Equal(t, 30, cfg.Batch.MaxItems)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, []APIKeySeed{{Secret: "k1", Name: "Ops", Tier: "premium", DailyLimit: 50}}, cfg.APIKeys.Seeds)
}

func TestAPIKeySeed_UnmarshalText(t *testing.T) {
	bad := []string{
		"only:three:parts",
		"k:Name:gold:10",
		"k:Name:free:zero",
		"k:Name:free:-1",
		":Name:free:10",
	}
	for _, in := range bad {
		t.Run(in, func(t *testing.T) {
			var s APIKeySeed
			assert.Error(t, s.UnmarshalText([]byte(in)))
		})
	}
}

func TestLoad_RejectsInvalidBatch(t *testing.T) {
	t.Setenv("BATCH_CONCURRENCY", "0")
	_, err := Load("")
	assert.ErrorContains(t, err, "BATCH_CONCURRENCY")
}
