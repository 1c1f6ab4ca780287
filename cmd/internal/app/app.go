// Package app wires the RoadReady server runtime: config, logging, metrics,
// database, and the HTTP auth surface.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"roadready/cmd/identity"
	authapi "roadready/cmd/internal/auth/api"
	"roadready/cmd/internal/auth/oauth"
	"roadready/cmd/internal/auth/session"
	"roadready/cmd/security/password"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the RoadReady server runtime; it owns the DB pool, metrics, and
// HTTP wiring.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	metrics *Metrics
	auth    *authapi.Handler
}

// New constructs a fully wired App instance from config and logger.
// Without a database URL the server still starts and serves health and
// metrics endpoints; auth routes are absent.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	a := &App{
		cfg:     cfg,
		log:     log,
		metrics: NewMetrics(),
	}

	if cfg.DatabaseURL == "" {
		log.Info("db.disabled")
		return a, nil
	}

	pool, err := NewDBPool(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	a.dbPool = pool
	a.dbEnabled = true
	log.Info("db.enabled.postgres_store")

	authHandler, err := newAuthHandler(log, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	a.auth = authHandler

	return a, nil
}

// newAuthHandler assembles the auth surface: identity store, password
// config, token codec, session service, and OAuth providers.
func newAuthHandler(log Logger, pool *pgxpool.Pool) (*authapi.Handler, error) {
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	codec, err := session.NewHS256Codec(sessCfg)
	if err != nil {
		return nil, err
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	authCfg, err := authapi.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	oauthCfg, err := oauth.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	idStore, err := identity.NewPostgresStore(pool)
	if err != nil {
		return nil, err
	}

	sessStore := session.NewPostgresStore(pool)
	sessionSvc := session.NewService(sessCfg, sessStore, codec, idStore, log)

	return authapi.NewHandler(log, authCfg, idStore, sessionSvc, pwCfg,
		oauth.NewRegistry(oauthCfg), oauthCfg)
}

// Run starts the HTTP server and blocks until context cancellation or
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.metrics, a.auth)

	var handler http.Handler = mux
	handler = WithSecurityHeaders(handler)
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithRequestLogging(handler, a.log, a.metrics)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
