package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/rxguard-backend/internal/catalog"
	"github.com/angelmondragon/rxguard-backend/internal/ledger"
	"github.com/angelmondragon/rxguard-backend/internal/seed"
	"github.com/angelmondragon/rxguard-backend/pkg/auth"
	"github.com/angelmondragon/rxguard-backend/pkg/config"
	"github.com/angelmondragon/rxguard-backend/pkg/db"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
	"github.com/angelmondragon/rxguard-backend/pkg/migrate"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "command: up|down|status|version|create|validate|seed|token")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory (empty uses the embedded set)")

	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	actor := flag.String("actor", "", "actor uuid (for token and seed)")
	role := flag.String("role", "pharmacist", "actor role (for token)")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"dir":    *dir,
		"driver": cfg.DB.Driver,
	})

	// Commands that do NOT require DB
	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(1)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return

	case "token":
		actorID, err := uuid.Parse(*actor)
		if err != nil {
			fmt.Fprintln(os.Stderr, "missing or invalid -actor for token")
			os.Exit(1)
		}
		token, err := auth.MintActorToken(cfg.Auth, time.Now(), actorID, *role)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to mint token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	// Everything else needs DB
	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, cfg.DB.Driver, *dir, *cmd); err != nil {
			fmt.Fprintf(os.Stderr, "goose %s failed: %v\n", *cmd, err)
			os.Exit(1)
		}

	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(1)
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, cfg.DB.Driver, *dir, *version); err != nil {
			fmt.Fprintf(os.Stderr, "goose version migrate failed: %v\n", err)
			os.Exit(1)
		}

	case "seed":
		result, err := runSeed(ctx, logg, dbClient, *actor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("seeded %d medications, %d interactions\n", result.MedicationsCreated, result.InteractionsCreated)

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

func runSeed(ctx context.Context, logg *logger.Logger, dbClient *db.Client, actor string) (*seed.Result, error) {
	var actorID *uuid.UUID
	if actor != "" {
		id, err := uuid.Parse(actor)
		if err != nil {
			return nil, fmt.Errorf("invalid -actor: %w", err)
		}
		actorID = &id
	}
	stock, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient, logg, nil)
	if err != nil {
		return nil, err
	}
	seeder, err := seed.NewSeeder(catalog.NewRepository(dbClient.DB()), stock, dbClient, logg)
	if err != nil {
		return nil, err
	}
	return seeder.SeedSampleCatalog(ctx, actorID)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
