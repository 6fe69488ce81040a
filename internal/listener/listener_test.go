package listener

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-rankings/internal/cache"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingExec struct {
	sql  string
	args []any
}

func (r *recordingExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql, r.args = sql, args
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func TestNotify(t *testing.T) {
	var ex recordingExec
	require.NoError(t, Notify(context.Background(), &ex, "player_seasons", 12))

	assert.Equal(t, "SELECT pg_notify($1, $2)", ex.sql)
	require.Len(t, ex.args, 2)
	assert.Equal(t, Channel, ex.args[0])

	var ev ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(ex.args[1].(string)), &ev))
	assert.Equal(t, "player_seasons", ev.Table)
	assert.Equal(t, 12, ev.Rows)
}

func TestHandle(t *testing.T) {
	c := cache.New(true)
	c.Set(cache.KeySeasons, []byte("[]"), time.Hour)
	c.Set(cache.KeyMetricGroups, []byte("[]"), time.Hour)

	assert.Equal(t, 1, Handle(`{"table":"player_seasons","rows":3}`, c, quiet))
	_, _, ok := c.Get(cache.KeySeasons)
	assert.False(t, ok)
	_, _, ok = c.Get(cache.KeyMetricGroups)
	assert.True(t, ok)

	assert.Equal(t, 1, Handle(`{"table":"metric_groups"}`, c, quiet))
	assert.Equal(t, 0, Handle(`{"table":"fixtures"}`, c, quiet))
	assert.Equal(t, 0, Handle(`not json`, c, quiet))
}
