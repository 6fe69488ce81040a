// Package maintenance runs the post-ingest steps shared by every load.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-rankings/internal/listener"
)

// AfterLoad refreshes planner statistics for a table that was just written
// and tells listening API servers to drop cached reference data for it.
// Call this after a successful load or groups replacement.
func AfterLoad(ctx context.Context, db listener.Execer, table string, rows int, logger *slog.Logger) error {
	start := time.Now()
	_, err := db.Exec(ctx, fmt.Sprintf("ANALYZE %s", table))
	dur := time.Since(start).Round(time.Millisecond)
	if err != nil {
		logger.Warn("Failed to analyze table", "table", table, "duration", dur, "error", err)
		return fmt.Errorf("analyze %s: %w", table, err)
	}
	logger.Info("Analyzed table", "table", table, "duration", dur)

	if err := listener.Notify(ctx, db, table, rows); err != nil {
		logger.Warn("Failed to publish change event", "table", table, "error", err)
		return err
	}
	return nil
}
