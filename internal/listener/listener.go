// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps the
// API's reference-data cache in step with ingestion. It holds a dedicated pgx
// connection (not from the pool) listening on the `ranking_inputs_changed`
// channel; the ingest CLI publishes to it after each load.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/scoracle-rankings/internal/cache"
	"github.com/albapepper/scoracle-rankings/internal/config"
)

const (
	Channel          = "ranking_inputs_changed"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// ChangeEvent is the JSON payload from pg_notify('ranking_inputs_changed', ...).
type ChangeEvent struct {
	Table     string `json:"table"`
	Rows      int    `json:"rows"`
	Timestamp int64  `json:"ts"`
}

// Invalidator drops cached entries by key prefix. *cache.Cache satisfies it.
type Invalidator interface {
	Invalidate(prefix string) int
}

// Execer runs a statement. Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Notify publishes a change event for table.
func Notify(ctx context.Context, db Execer, table string, rows int) error {
	payload, err := json.Marshal(ChangeEvent{Table: table, Rows: rows, Timestamp: time.Now().Unix()})
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, "SELECT pg_notify($1, $2)", Channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", Channel, err)
	}
	return nil
}

// Start opens a dedicated connection and listens for change events. It
// reconnects automatically on connection loss. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, inv, logger)
		if ctx.Err() != nil {
			logger.Info("Change listener stopped (context cancelled)")
			return
		}

		logger.Error("Change listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		// Events may have been missed while disconnected.
		inv.Invalidate("ref:")

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+Channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	logger.Info("Change listener connected", "channel", Channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		Handle(notification.Payload, inv, logger)
	}
}

// Handle applies one notification payload to the cache and returns the
// number of entries dropped.
func Handle(payload string, inv Invalidator, logger *slog.Logger) int {
	var event ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.Warn("Failed to parse change event", "payload", payload, "error", err)
		return 0
	}

	var key string
	switch event.Table {
	case config.PlayerSeasonsTable:
		key = cache.KeySeasons
	case config.MetricGroupsTable:
		key = cache.KeyMetricGroups
	default:
		logger.Warn("Change event for unknown table", "table", event.Table)
		return 0
	}

	n := inv.Invalidate(key)
	logger.Info("Change event received",
		"table", event.Table, "rows", event.Rows, "invalidated", n)
	return n
}
