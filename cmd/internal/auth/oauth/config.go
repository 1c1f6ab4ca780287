package oauth

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries provider credentials and the profile defaults applied to
// first-time OAuth signups. Defaults are configuration, not hard-coded
// literals, so a later onboarding step can supersede them.
type Config struct {
	GoogleClientID     string `env:"ROADREADY_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"ROADREADY_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"ROADREADY_GOOGLE_REDIRECT_URL"`

	FacebookClientID     string `env:"ROADREADY_FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"ROADREADY_FACEBOOK_CLIENT_SECRET"`
	FacebookRedirectURL  string `env:"ROADREADY_FACEBOOK_REDIRECT_URL"`

	DefaultState    string `env:"ROADREADY_OAUTH_DEFAULT_STATE" envDefault:"CA"`
	DefaultTestType string `env:"ROADREADY_OAUTH_DEFAULT_TEST_TYPE" envDefault:"car"`
}

// LoadConfigFromEnv loads OAuth configuration from environment variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}
