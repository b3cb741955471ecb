package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/rxguard-backend/internal/cron"
	"github.com/angelmondragon/rxguard-backend/internal/ledger"
	"github.com/angelmondragon/rxguard-backend/pkg/config"
	"github.com/angelmondragon/rxguard-backend/pkg/db"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
	"github.com/angelmondragon/rxguard-backend/pkg/metrics"
	"github.com/angelmondragon/rxguard-backend/pkg/migrate"
	"github.com/angelmondragon/rxguard-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics on this address while running")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	lock, closeLock, err := buildLock(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}
	defer closeLock()

	registry := prometheus.NewRegistry()
	safety := metrics.NewSafetyMetrics(registry)
	jobMetrics := metrics.NewCronJobMetrics(registry)

	stock, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient, logg, safety)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	jobs, err := buildRegistry(cfg, logg, stock, safety)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Cron.Interval.String(),
	})

	if *once {
		logg.Info(ctx, "running single cron cycle")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "metrics server stopped", err)
			}
		}()
		defer srv.Close()
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildLock uses a redis lock when redis is configured. Without redis the
// worker assumes it is the only instance.
func buildLock(cfg *config.Config, logg *logger.Logger) (cron.Lock, func(), error) {
	if !cfg.Redis.Enabled() {
		logg.Warn(context.Background(), "redis not configured; running cron without a distributed lock")
		return cron.NoopLock{}, func() {}, nil
	}
	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap redis: %w", err)
	}
	closer := func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+envOrLocal(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return lock, closer, nil
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, stock ledger.Service, safety *metrics.SafetyMetrics) (*cron.Registry, error) {
	lowStock, err := cron.NewLowStockJob(cron.LowStockJobParams{
		Logger:    logg,
		Stock:     stock,
		Metrics:   safety,
		Threshold: cfg.Cron.LowStockThreshold,
	})
	if err != nil {
		return nil, err
	}
	reconcile, err := cron.NewLedgerReconcileJob(logg, stock)
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(lowStock, reconcile)
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
