// Command api is the Scoracle Rankings API server.
//
// Usage:
//
//	scoracle-api
//	API_PORT=8080 METRIC_GROUPS_FILE=configs/metric_groups.yaml scoracle-api

// @title Scoracle Rankings API
// @version 1.0.0
// @description Football player percentile rankings. Players are ranked on their position group's per-90 metrics within a competition-season, a season across leagues, or one league. Rankings are computed from current data on every request.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Scoracle
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/scoracle-rankings/internal/api"
	"github.com/albapepper/scoracle-rankings/internal/api/handler"
	"github.com/albapepper/scoracle-rankings/internal/cache"
	"github.com/albapepper/scoracle-rankings/internal/config"
	"github.com/albapepper/scoracle-rankings/internal/db"
	"github.com/albapepper/scoracle-rankings/internal/listener"
	"github.com/albapepper/scoracle-rankings/internal/metricgroup"
	"github.com/albapepper/scoracle-rankings/internal/store"

	_ "github.com/albapepper/scoracle-rankings/docs" // swagger docs
)

// fileGroups serves the metric grouping table from a YAML file instead of
// the metric_groups table.
type fileGroups struct {
	*store.Store
	rules metricgroup.Rules
}

func (f fileGroups) MetricGroups(context.Context) (metricgroup.Rules, error) {
	return f.rules, nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	// Debug logging is ignored in production.
	if cfg.Debug && !cfg.IsProduction() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	st := store.New(pool)
	var src handler.Source = st
	if cfg.MetricGroupsFile != "" {
		rules, err := metricgroup.LoadFile(cfg.MetricGroupsFile)
		if err != nil {
			logger.Error("Failed to load metric groups", "file", cfg.MetricGroupsFile, "error", err)
			os.Exit(1)
		}
		src = fileGroups{Store: st, rules: rules}
		logger.Info("Metric groups loaded from file", "file", cfg.MetricGroupsFile, "groups", len(rules))
	}

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Drop cached reference data when the ingest CLI reports a load
	if cfg.CacheEnabled {
		go listener.Start(ctx, cfg.DatabaseURL, appCache, logger)
	}

	// Create router
	router := api.NewRouter(src, appCache, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		attrs := []any{"addr", addr, "environment", cfg.Environment}
		if !cfg.IsProduction() {
			attrs = append(attrs, "docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		}
		logger.Info("Starting Scoracle Rankings API", attrs...)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
