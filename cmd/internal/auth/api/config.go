package authapi

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	TrustProxy   bool  `env:"ROADREADY_AUTH_TRUST_PROXY" envDefault:"false"`
	MaxBodyBytes int64 `env:"ROADREADY_AUTH_MAX_BODY_BYTES" envDefault:"1048576"`

	StateCookieTTL time.Duration `env:"ROADREADY_OAUTH_STATE_TTL" envDefault:"10m"`
	SecureCookies  bool          `env:"ROADREADY_AUTH_SECURE_COOKIES" envDefault:"false"`
}

// DefaultConfig returns the config used when no environment overrides apply.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:   1 << 20,
		StateCookieTTL: 10 * time.Minute,
	}
}

// LoadConfigFromEnv loads auth API config from environment variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("auth api config: %w", err)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.StateCookieTTL <= 0 {
		cfg.StateCookieTTL = 10 * time.Minute
	}
	return cfg, nil
}
