package session

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls token TTLs, the inactivity window, session identifier
// entropy, and the HS256 signing secret. The struct is immutable after
// construction and passed into the codec and service explicitly; nothing
// reads ambient global state at request time.
type Config struct {
	// Issuer is the value set in the "iss" claim of issued tokens.
	Issuer string `env:"ROADREADY_AUTH_ISSUER" envDefault:"roadready"`

	// SigningSecret is the server-held HS256 key. Required, never logged.
	SigningSecret string `env:"ROADREADY_AUTH_SECRET_KEY"`

	// AccessTokenTTL defines the lifetime of access tokens.
	AccessTokenTTL time.Duration `env:"ROADREADY_AUTH_ACCESS_TTL" envDefault:"30m"`

	// RefreshTokenTTL defines the lifetime of refresh tokens and the
	// absolute expiry of the session row itself.
	RefreshTokenTTL time.Duration `env:"ROADREADY_AUTH_REFRESH_TTL" envDefault:"168h"`

	// InactivityLimit is the idle window after which a session is revoked
	// the next time it is presented.
	InactivityLimit time.Duration `env:"ROADREADY_AUTH_INACTIVITY_LIMIT" envDefault:"24h"`

	// SessionIDBytes defines the number of random bytes used to generate
	// opaque session identifiers (32 bytes = 256 bits of entropy).
	SessionIDBytes int `env:"ROADREADY_AUTH_SESSION_ID_BYTES" envDefault:"32"`
}

// minSigningSecretBytes guards against weak HS256 keys.
const minSigningSecretBytes = 32

// DefaultConfig returns a configuration suitable for tests and development.
// The signing secret must still be provided by the caller.
func DefaultConfig() Config {
	return Config{
		Issuer:          "roadready",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		InactivityLimit: 24 * time.Hour,
		SessionIDBytes:  32,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - ROADREADY_AUTH_SECRET_KEY (>= 32 bytes)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, ErrConfig
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces configuration invariants.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Issuer) == "" {
		return ErrConfig
	}
	if len(c.SigningSecret) < minSigningSecretBytes {
		return ErrConfig
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.InactivityLimit <= 0 {
		return ErrConfig
	}
	if c.AccessTokenTTL > c.RefreshTokenTTL {
		return ErrConfig
	}
	if c.SessionIDBytes < 32 || c.SessionIDBytes > 64 {
		return ErrConfig
	}
	return nil
}
