// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/albapepper/scoracle-rankings/internal/preprocess"
	"github.com/albapepper/scoracle-rankings/internal/standing"
)

// --------------------------------------------------------------------------
// Table names, matching internal/db/schema.sql
// --------------------------------------------------------------------------

const (
	PlayerSeasonsTable = "player_seasons"
	MetricGroupsTable  = "metric_groups"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache (reference data only; rankings are always recomputed)
	CacheEnabled bool

	// Preprocessing
	MinMinutes      float64
	InvertedMetrics []string

	// Ranking and standings
	MetricGroupsFile string
	U21AgeCutoff     int
	HighlightTeam    string
	StandingWorkers  int
}

// Load reads configuration from environment variables with sensible defaults.
// The database URL is optional here; commands that need Postgres call
// RequireDatabase.
func Load() (*Config, error) {
	minMinutes, err := strconv.ParseFloat(envOr("MIN_MINUTES", "700"), 64)
	if err != nil {
		return nil, fmt.Errorf("MIN_MINUTES: %w", err)
	}

	return &Config{
		DatabaseURL:    envOr("DATABASE_URL", envOr("NEON_DATABASE_URL", "")),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),

		MinMinutes:      minMinutes,
		InvertedMetrics: envList("INVERTED_METRICS", preprocess.DefaultOptions().InvertedMetrics),

		MetricGroupsFile: envOr("METRIC_GROUPS_FILE", ""),
		U21AgeCutoff:     envInt("U21_AGE_CUTOFF", standing.DefaultOptions().U21Cutoff),
		HighlightTeam:    envOr("HIGHLIGHT_TEAM", standing.DefaultOptions().HighlightTeam),
		StandingWorkers:  envInt("STANDING_WORKERS", 4),
	}, nil
}

// RequireDatabase returns an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL or NEON_DATABASE_URL must be set")
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PreprocessOptions returns the preprocessing settings.
func (c *Config) PreprocessOptions() preprocess.Options {
	return preprocess.Options{
		MinMinutes:      c.MinMinutes,
		InvertedMetrics: c.InvertedMetrics,
	}
}

// StandingOptions returns the standing settings. The fill policy is left
// zero: each request names one or takes its cohort's default.
func (c *Config) StandingOptions() standing.Options {
	return standing.Options{
		U21Cutoff:     c.U21AgeCutoff,
		HighlightTeam: c.HighlightTeam,
	}
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
