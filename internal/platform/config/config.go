// Package config loads service configuration from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Server   Server
	Redis    RedisConfig
	Sirene   Sirene
	VIES     VIES
	Registry Registry
	APIKeys  APIKeys
	Batch    Batch
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"DOCVERIFY_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// RedisConfig configures the optional Redis backend. An empty URL keeps every
// store in memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Sirene configures the INSEE company registry provider.
type Sirene struct {
	Enabled  bool          `env:"SIRENE_ENABLED" envDefault:"true"`
	BaseURL  string        `env:"SIRENE_BASE_URL" envDefault:"https://api.insee.fr/api-sirene/3.11"`
	APIKey   string        `env:"SIRENE_API_KEY"`
	Timeout  time.Duration `env:"SIRENE_TIMEOUT" envDefault:"10s"`
	RetryMax int           `env:"SIRENE_RETRY_MAX" envDefault:"2"`
}

// VIES configures the EU VAT cross-check provider.
type VIES struct {
	Enabled  bool          `env:"VIES_ENABLED" envDefault:"true"`
	URL      string        `env:"VIES_URL" envDefault:"https://ec.europa.eu/taxation_customs/vies/services/checkVatService"`
	Timeout  time.Duration `env:"VIES_TIMEOUT" envDefault:"10s"`
	RetryMax int           `env:"VIES_RETRY_MAX" envDefault:"2"`
}

// Registry configures lookup caching and provider circuit breakers.
type Registry struct {
	CacheTTL                time.Duration `env:"REGISTRY_CACHE_TTL" envDefault:"5m"`
	BreakerFailureThreshold int           `env:"REGISTRY_BREAKER_FAILURES" envDefault:"5"`
	BreakerSuccessThreshold int           `env:"REGISTRY_BREAKER_SUCCESSES" envDefault:"2"`
	BreakerCooldown         time.Duration `env:"REGISTRY_BREAKER_COOLDOWN" envDefault:"30s"`
}

// APIKeys lists the keys accepted at startup.
type APIKeys struct {
	Seeds []APIKeySeed `env:"API_KEYS" envSeparator:"," envDefault:"demo_key_123:Demo User:free:100,premium_key_456:Premium User:premium:10000"`
}

// Batch bounds batch verification requests.
type Batch struct {
	MaxItems    int `env:"BATCH_MAX_ITEMS" envDefault:"100"`
	Concurrency int `env:"BATCH_CONCURRENCY" envDefault:"8"`
}

// APIKeySeed is one "secret:name:tier:daily_limit" entry. Secret may be a
// plaintext key or a bcrypt hash.
type APIKeySeed struct {
	Secret     string
	Name       string
	Tier       string
	DailyLimit int
}

// UnmarshalText parses the colon-separated seed form.
func (s *APIKeySeed) UnmarshalText(text []byte) error {
	parts := strings.Split(strings.TrimSpace(string(text)), ":")
	if len(parts) != 4 {
		return fmt.Errorf("api key seed %q: want secret:name:tier:daily_limit", text)
	}
	limit, err := strconv.Atoi(parts[3])
	if err != nil || limit <= 0 {
		return fmt.Errorf("api key seed %q: daily limit must be a positive integer", parts[1])
	}
	tier := strings.ToLower(parts[2])
	if tier != "free" && tier != "premium" {
		return fmt.Errorf("api key seed %q: unknown tier %q", parts[1], parts[2])
	}
	if parts[0] == "" {
		return fmt.Errorf("api key seed %q: empty secret", parts[1])
	}
	*s = APIKeySeed{Secret: parts[0], Name: parts[1], Tier: tier, DailyLimit: limit}
	return nil
}

// Load reads envPath when it exists, then parses the environment.
func Load(envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Batch.MaxItems <= 0 {
		return errors.New("BATCH_MAX_ITEMS must be positive")
	}
	if c.Batch.Concurrency <= 0 {
		return errors.New("BATCH_CONCURRENCY must be positive")
	}
	if c.Registry.CacheTTL <= 0 {
		return errors.New("REGISTRY_CACHE_TTL must be positive")
	}
	if len(c.APIKeys.Seeds) == 0 {
		return errors.New("API_KEYS must list at least one key")
	}
	return nil
}
