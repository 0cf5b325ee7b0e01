package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/agency-ledger/api/responses"
	"github.com/angelmondragon/agency-ledger/pkg/config"
	"github.com/angelmondragon/agency-ledger/pkg/db"
	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/angelmondragon/agency-ledger/pkg/logger"
	"github.com/angelmondragon/agency-ledger/pkg/redis"
)

const (
	readinessTimeout = 2 * time.Second
	envHeader        = "X-Ledger-Env"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, Redis.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger db.Pinger, redisPinger redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if dbPinger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnavailable, "database not configured"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		if err := dbPinger.Ping(ctx); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "database unreachable"))
			return
		}
		checks["database"] = "ok"

		if redisPinger != nil {
			if err := redisPinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "redis unreachable"))
				return
			}
			checks["redis"] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
