package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/sales-analytics/api/responses"
	"github.com/angelmondragon/sales-analytics/pkg/config"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/types"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sales-Analytics-Env", cfg.App.Env)
		responses.WriteSuccess(w, types.StatusEnvelope{Status: "live"})
	}
}

// HealthReady reports ready once every configured dependency answers. A nil
// cache pinger means the cache is disabled and is skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sales-Analytics-Env", cfg.App.Env)
		if cache != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := cache.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(r.Context(), "health.ready.redis_unavailable", err)
				}
				responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, types.StatusEnvelope{Status: "unavailable"})
				return
			}
		}
		responses.WriteSuccess(w, types.StatusEnvelope{Status: "ready"})
	}
}

// NotFound answers unmatched routes with the standard error body.
func NotFound(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, r.URL.Path+" not found"))
	}
}

// MethodNotAllowed answers known routes hit with an unsupported method.
func MethodNotAllowed(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeMethodNotAllowed, r.Method+" is not supported"))
	}
}
