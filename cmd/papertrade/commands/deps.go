package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/internal/engine"
	"github.com/wonny/papertrade/internal/ratelimit"
	"github.com/wonny/papertrade/internal/screener"
	"github.com/wonny/papertrade/internal/store"
	"github.com/wonny/papertrade/pkg/config"
	"github.com/wonny/papertrade/pkg/database"
	"github.com/wonny/papertrade/pkg/httputil"
	"github.com/wonny/papertrade/pkg/logger"
	"github.com/wonny/papertrade/pkg/redis"
)

// lockPrefix namespaces run locks in a shared Redis or database
const lockPrefix = "papertrade"

// loadConfig applies the global flags and loads the configuration
func loadConfig() (*config.Config, error) {
	if env != "" {
		if err := os.Setenv("ENV", env); err != nil {
			return nil, fmt.Errorf("set ENV: %w", err)
		}
	}

	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newSource builds the rate-limited screener source
func newSource(cfg *config.Config, log *logger.Logger) contracts.MetricsSource {
	httpClient := httputil.New(cfg.Screener.Timeout, log).
		WithRetry(cfg.Screener.MaxRetries, cfg.Screener.PageDelay)
	client := screener.NewClient(httpClient, cfg.Screener.BaseURL, log)

	return ratelimit.Throttle(client,
		ratelimit.NewGate(cfg.Screener.PageDelay),
		ratelimit.NewGate(cfg.Screener.PriceDelay),
	)
}

// newLocker picks the cross-process run lock: Redis when enabled, Postgres advisory locks otherwise
func newLocker(cfg *config.Config, db *database.DB, rc *redis.Client) (engine.Locker, error) {
	if rc.Enabled() {
		return redis.NewLocker(rc, lockPrefix, cfg.Engine.LockTTL)
	}
	return database.NewAdvisoryLocker(db, lockPrefix)
}

// app holds the process-wide dependencies of the commands that touch the database
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB
	redis  *redis.Client
	store  *store.Postgres
	source contracts.MetricsSource
	engine *engine.Engine
}

// newApp connects to the database (and Redis when enabled) and builds the engine
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Debug("Connected to database")

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	locker, err := newLocker(cfg, db, rc)
	if err != nil {
		rc.Close()
		db.Close()
		return nil, fmt.Errorf("create run locker: %w", err)
	}
	log.WithField("locker", fmt.Sprintf("%T", locker)).Debug("Run locks ready")

	st := store.NewPostgres(db.Pool)
	source := newSource(cfg, log)

	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		redis:  rc,
		store:  st,
		source: source,
		engine: engine.New(st, source, locker, engine.ConfigFrom(cfg), log),
	}, nil
}

// Close releases the connections
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}
