package password

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// Policy controls password validation bounds.
//
// MaxLength exists both for UX sanity and because bcrypt silently truncates
// input beyond 72 bytes; we reject anything past that boundary instead.
type Policy struct {
	MinLength int
	MaxLength int
}

// Config is the single configuration surface for this package.
type Config struct {
	Cost   int
	Policy Policy
}

// DefaultConfig returns a baseline suitable for interactive logins.
func DefaultConfig() Config {
	return Config{
		Cost: bcrypt.DefaultCost,
		Policy: Policy{
			MinLength: 8,
			MaxLength: 72,
		},
	}
}

type passwordEnv struct {
	Cost      int `env:"ROADREADY_BCRYPT_COST"`
	MinLength int `env:"ROADREADY_PASSWORD_MIN_LEN"`
	MaxLength int `env:"ROADREADY_PASSWORD_MAX_LEN"`
}

// FromEnv loads config from environment variables, falling back to defaults.
//
// Env surface:
//   - ROADREADY_BCRYPT_COST
//   - ROADREADY_PASSWORD_MIN_LEN
//   - ROADREADY_PASSWORD_MAX_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	var raw passwordEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("password config: %w", err)
	}

	if raw.Cost != 0 {
		if raw.Cost < bcrypt.MinCost || raw.Cost > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("ROADREADY_BCRYPT_COST: out of range [%d..%d]", bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.Cost = raw.Cost
	}
	if raw.MinLength != 0 {
		if raw.MinLength < 1 || raw.MinLength > 72 {
			return Config{}, fmt.Errorf("ROADREADY_PASSWORD_MIN_LEN: out of range [1..72]")
		}
		cfg.Policy.MinLength = raw.MinLength
	}
	if raw.MaxLength != 0 {
		if raw.MaxLength < 1 || raw.MaxLength > 72 {
			return Config{}, fmt.Errorf("ROADREADY_PASSWORD_MAX_LEN: out of range [1..72]")
		}
		cfg.Policy.MaxLength = raw.MaxLength
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}
