package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string `env:"ROADREADY_HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel string `env:"ROADREADY_LOG_LEVEL" envDefault:"info"`

	ReadHeaderTimeout time.Duration `env:"ROADREADY_HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"ROADREADY_HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"ROADREADY_HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"ROADREADY_HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"ROADREADY_HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`

	DatabaseURL string `env:"ROADREADY_DATABASE_URL"`
	DBMaxConns  int32  `env:"ROADREADY_DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"ROADREADY_DB_MIN_CONNS" envDefault:"0"`

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool `env:"ROADREADY_READINESS_REQUIRE_DB" envDefault:"false"`

	CORSAllowedOrigins   []string `env:"ROADREADY_CORS_ALLOWED_ORIGINS" envSeparator:","`
	CORSAllowCredentials bool     `env:"ROADREADY_CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	CORSMaxAgeSeconds    int      `env:"ROADREADY_CORS_MAX_AGE_SECONDS" envDefault:"600"`
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("app config: %w", err)
	}
	return cfg, nil
}
