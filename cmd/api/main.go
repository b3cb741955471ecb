package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/rxguard-backend/api/routes"
	"github.com/angelmondragon/rxguard-backend/internal/catalog"
	"github.com/angelmondragon/rxguard-backend/internal/dosage"
	"github.com/angelmondragon/rxguard-backend/internal/interactions"
	"github.com/angelmondragon/rxguard-backend/internal/ledger"
	"github.com/angelmondragon/rxguard-backend/internal/prescriptions"
	"github.com/angelmondragon/rxguard-backend/internal/reports"
	"github.com/angelmondragon/rxguard-backend/internal/seed"
	"github.com/angelmondragon/rxguard-backend/pkg/config"
	"github.com/angelmondragon/rxguard-backend/pkg/db"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
	"github.com/angelmondragon/rxguard-backend/pkg/metrics"
	"github.com/angelmondragon/rxguard-backend/pkg/migrate"
	"github.com/angelmondragon/rxguard-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var (
		cache       redis.KeyValueStore
		cachePinger redis.Pinger
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		cache = redisClient
		cachePinger = redisClient
	} else {
		logg.Info(context.Background(), "redis not configured; interaction cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	safety := metrics.NewSafetyMetrics(registry)

	services, err := buildServices(cfg, logg, dbClient, cache, safety)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	if cfg.App.IsDev() && cfg.FeatureFlags.SeedCatalog {
		seeder, err := seed.NewSeeder(catalog.NewRepository(dbClient.DB()), services.Ledger, dbClient, logg)
		if err == nil {
			_, err = seeder.SeedSampleCatalog(context.Background(), nil)
		}
		if err != nil {
			logg.Error(context.Background(), "failed to seed sample catalog", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"actor_tokens":  cfg.Auth.TokensEnabled(),
		"cache_enabled": cache != nil,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, cachePinger, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, cache redis.KeyValueStore, safety *metrics.SafetyMetrics) (routes.Services, error) {
	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	finder := interactions.NewCachedFinder(catalogRepo, cache, cfg.Cache.InteractionTTL, logg)

	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		return routes.Services{}, err
	}
	dosageSvc, err := dosage.NewService(nil, catalogRepo, catalogRepo)
	if err != nil {
		return routes.Services{}, err
	}
	interactionSvc, err := interactions.NewService(catalogRepo, catalogRepo, finder, logg)
	if err != nil {
		return routes.Services{}, err
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), dbClient, logg, safety)
	if err != nil {
		return routes.Services{}, err
	}
	reportSvc, err := reports.NewService(reports.NewRepository(conn), dbClient, finder, reports.Options{
		ScreenThresholdMg: cfg.Safety.ReportDosageScreenMg,
		Logger:            logg,
		Metrics:           safety,
	})
	if err != nil {
		return routes.Services{}, err
	}
	prescriptionSvc, err := prescriptions.NewService(prescriptions.NewRepository(conn), dbClient, catalogRepo, ledgerSvc, prescriptions.Options{
		UnitsPerItem: cfg.Safety.DispenseUnitsPerItem,
		Reports:      reportSvc,
		Logger:       logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Catalog:       catalogSvc,
		Dosage:        dosageSvc,
		Interactions:  interactionSvc,
		Prescriptions: prescriptionSvc,
		Reports:       reportSvc,
		Ledger:        ledgerSvc,
	}, nil
}
