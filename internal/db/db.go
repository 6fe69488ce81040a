// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-rankings/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Statements maps prepared statement names to SQL. Exported so the store can
// reference names that are guaranteed to exist.
var Statements = map[string]string{
	// Health
	"health_check": "SELECT 1",

	// Ranking inputs
	"load_player_seasons": `SELECT player_id, player_name, team_name, season_id, season_name,
		competition_id, competition_name, primary_position, minutes, birth_date, age,
		metrics, attributes
		FROM ` + config.PlayerSeasonsTable + `
		ORDER BY player_id, season_id, competition_id, team_name`,
	"load_metric_groups": "SELECT position_group, positions, metrics FROM " + config.MetricGroupsTable + " ORDER BY sort_order, position_group",

	// Reference data
	"available_seasons": `SELECT season_id, season_name, competition_id, competition_name, COUNT(*)
		FROM ` + config.PlayerSeasonsTable + `
		GROUP BY season_id, season_name, competition_id, competition_name
		ORDER BY season_name DESC, competition_name`,
}

// registerPreparedStatements registers all statements the API and ingestion
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}

//go:embed schema.sql
var schemaSQL string

// Migrate applies the schema on a dedicated connection. It runs before the
// pool exists because pool connections prepare statements against the
// tables the schema creates.
func Migrate(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect for migration: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
