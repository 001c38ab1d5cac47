package commands

import (
	"context"
	"fmt"

	"github.com/wonny/catalyst-alpha/internal/catalyst"
	"github.com/wonny/catalyst-alpha/internal/external/ctgov"
	"github.com/wonny/catalyst-alpha/internal/external/yahoo"
	"github.com/wonny/catalyst-alpha/internal/marketdata"
	"github.com/wonny/catalyst-alpha/internal/metrics"
	"github.com/wonny/catalyst-alpha/internal/study"
	"github.com/wonny/catalyst-alpha/pkg/config"
	"github.com/wonny/catalyst-alpha/pkg/database"
	"github.com/wonny/catalyst-alpha/pkg/httputil"
	"github.com/wonny/catalyst-alpha/pkg/logger"
	"github.com/wonny/catalyst-alpha/pkg/redis"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics

	db    *database.DB  // nil without DATABASE_URL
	redis *redis.Client // disabled unless REDIS_ENABLED

	yahoo   *yahoo.Client
	ctgov   *ctgov.Client
	prices  study.PriceSource
	results *marketdata.ResultRepository // nil without a database
	closes  *marketdata.PriceRepository  // nil without a database
}

// newApp loads config and connects to the optional stores.
// With a database, prices are read through market.daily_closes.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, caching disabled")
		a.redis = redis.Disabled()
	}

	httpClient := httputil.New(cfg, log)
	a.yahoo = yahoo.NewClient(httpClient, cfg.Yahoo.BaseURL, redis.NewCache(a.redis, "catalyst"), cfg.Redis.PriceTTL, log)
	a.ctgov = ctgov.NewClient(httpClient, cfg.CTGov.BaseURL, log).WithCache(redis.NewCache(a.redis, "catalyst"), redis.TTLShort)
	a.prices = a.yahoo

	if cfg.Database.Enabled() {
		a.db, err = database.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := a.db.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}

		a.closes = marketdata.NewPriceRepository(a.db.Pool)
		a.results = marketdata.NewResultRepository(a.db.Pool)
		a.prices = marketdata.NewStoredSource(a.closes, a.yahoo, "yahoo", log)
		log.Info("Connected to database")
	}

	return a, nil
}

// studyService builds the study service over the configured stores
func (a *app) studyService() *study.Service {
	var store study.ResultStore
	if a.results != nil {
		store = a.results
	}
	return study.NewService(a.prices, store, a.metrics, a.log)
}

// refresher builds the catalyst refresher from the sponsor map file
func (a *app) refresher() (*catalyst.Refresher, error) {
	sponsors, err := catalyst.LoadSponsorMapFile(a.cfg.Scheduler.SponsorMapFile)
	if err != nil {
		return nil, fmt.Errorf("load sponsor map: %w", err)
	}
	return catalyst.NewRefresher(a.ctgov, sponsors, a.metrics, a.log), nil
}

// Close releases the store connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
