package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/rxguard-backend/api/responses"
	"github.com/angelmondragon/rxguard-backend/pkg/config"
	"github.com/angelmondragon/rxguard-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
	"github.com/angelmondragon/rxguard-backend/pkg/redis"
)

const (
	envHeader    = "X-RxGuard-Env"
	readyTimeout = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, redis. A nil
// cache pinger means the cache is disabled and is not checked.
func HealthReady(cfg *config.Config, database db.Pinger, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if database != nil {
			if err := database.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable").
					WithDetails(map[string]any{"check": "database"}))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache unavailable").
					WithDetails(map[string]any{"check": "redis"}))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
