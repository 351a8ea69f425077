package main

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	rediscache "github.com/ezz-ae/entrestate-inventory-backend/internal/adapter/cache/redis"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/adapter/repository/memory"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/adapter/repository/postgres"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/config"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/observability"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/platform/logger"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/composer"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/override"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/routing"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/truthcheck"
)

const dbConnectAttempts = 5

// app holds the wired services and the resources to release on shutdown
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *observability.Metrics

	routing    *routing.RoutingService
	overrides  *override.OverrideService
	truthCheck *truthcheck.TruthCheckService

	ready func(ctx context.Context) error

	db  *postgres.DB
	rdb *goredis.Client
}

// loadConfig reads and validates the environment
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, loaded := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	if !loaded {
		log.Debug("no .env file found, using process environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}

// buildApp wires the store selected by cfg.Store into the services
func buildApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	weights, err := config.LoadWeights(cfg.WeightsFile)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, metrics: observability.NewMetrics()}

	var (
		executor    composer.Executor
		probe       domain.SchemaProbe
		auditRepo   domain.OverrideRepository
		disclosures domain.DisclosureGenerator
	)

	switch cfg.Store {
	case config.StoreMemory:
		assets, err := memory.LoadCatalog(cfg.CatalogFixture)
		if err != nil {
			return nil, err
		}
		store := memory.NewStore(assets, memory.WithPriceTier(), memory.WithWeights(weights))
		executor, probe, auditRepo, disclosures = store, store, store, store
		a.ready = func(context.Context) error { return nil }
		log.Info("using in-memory catalog", "fixture", cfg.CatalogFixture, "assets", len(assets))

	default:
		db, err := connectDB(ctx, cfg.DBConnStr, log)
		if err != nil {
			return nil, err
		}
		a.db = db
		names := postgres.EntryPoints{
			AssetsView:    cfg.AssetsView,
			UnrankedFn:    cfg.UnrankedFn,
			RankedFn:      cfg.RankedFn,
			DisclosureFn:  cfg.DisclosureFn,
			OverrideTable: cfg.OverrideTable,
		}
		executor = postgres.NewInventoryRepository(db, names, cfg.StatementTimeout)
		probe = postgres.NewSchemaProbe(db, names)
		auditRepo = postgres.NewOverrideRepository(db, names)
		disclosures = postgres.NewDisclosureGenerator(db, names, cfg.StatementTimeout)
		a.ready = db.PingContext
	}

	if cfg.RedisAddr != "" {
		rdb, err := rediscache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			// The probe cache is optional; the store answers directly.
			log.Warn("redis unavailable, probe cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			a.rdb = rdb
			probe = rediscache.NewCachedProbe(probe, rdb, cfg.ProbeCacheTTL, log)
		}
	}

	comp := composer.NewComposer(composer.ExclusionPolicy{
		ExcludedClassifications: cfg.ExcludedClassifications,
		ExcludeUnpriced:         cfg.ExcludeUnpriced,
	})

	a.routing = routing.NewRoutingService(executor, probe, comp, weights, log.With("service", "RoutingService"), a.metrics)
	a.overrides = override.NewOverrideService(auditRepo, disclosures, override.NewRoleAuthorizer(cfg.OverrideRoles), log.With("service", "OverrideService"), a.metrics)
	a.truthCheck = truthcheck.NewTruthCheckService(executor, comp, log.With("service", "TruthCheckService"), a.metrics)
	return a, nil
}

// connectDB retries while Postgres is still starting
func connectDB(ctx context.Context, connStr string, log *logger.Logger) (*postgres.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		db, err := postgres.NewDB(connStr)
		if err == nil {
			return db, nil
		}
		lastErr = err
		log.Warn("database not ready", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", dbConnectAttempts, lastErr)
}

// close releases the store and cache connections
func (a *app) close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("failed to close redis client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("failed to close database", "error", err)
		}
	}
}
