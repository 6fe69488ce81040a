// Package handler provides HTTP handlers for all API endpoints.
// Reference data (metric groups, seasons) is served from the TTL cache.
// Rankings and standings are recomputed from current rows on every request.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/albapepper/scoracle-rankings/internal/api/respond"
	"github.com/albapepper/scoracle-rankings/internal/cache"
	"github.com/albapepper/scoracle-rankings/internal/config"
	"github.com/albapepper/scoracle-rankings/internal/metricgroup"
	"github.com/albapepper/scoracle-rankings/internal/record"
	"github.com/albapepper/scoracle-rankings/internal/store"
)

// Source supplies ranking inputs. *store.Store satisfies it.
type Source interface {
	PlayerSeasons(ctx context.Context) ([]record.PlayerSeason, error)
	MetricGroups(ctx context.Context) (metricgroup.Rules, error)
	Seasons(ctx context.Context) ([]store.Season, error)
	Ping(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	src   Source
	cache *cache.Cache
	cfg   *config.Config
}

// New creates a Handler with shared dependencies.
func New(src Source, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{src: src, cache: c, cfg: cfg}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and the ranking options it supports.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"name":    "Scoracle Rankings API",
		"version": "1.0.0",
		"status":  "running",
		"cohorts": []string{"competition", "season", "league"},
		"fill_policies": []string{
			"neutral",
			"zero",
		},
	}
	if !h.cfg.IsProduction() {
		info["docs"] = "/docs"
	}
	respond.WriteComputed(w, http.StatusOK, info)
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteComputed(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.src.Ping(r.Context()); err != nil {
		respond.WriteComputed(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteComputed(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteComputed(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
