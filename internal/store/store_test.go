package store

import (
	"context"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-rankings/internal/config"
	"github.com/albapepper/scoracle-rankings/internal/db"
	"github.com/albapepper/scoracle-rankings/internal/record"
)

func TestLoadResult(t *testing.T) {
	var total LoadResult
	total.Add(LoadResult{Read: 10, Kept: 6, Upserted: 5, Skipped: 1})
	total.Add(LoadResult{Read: 4, Kept: 2, Upserted: 2, Groups: 9})
	total.AddErrorf("row %d: bad", 3)

	assert.Equal(t, "read=14 kept=8 upserted=7 skipped=1 groups=9 errors=1", total.Summary())
	assert.Equal(t, []string{"row 3: bad"}, total.Errors)
}

func TestFiniteMetrics(t *testing.T) {
	in := map[string]float64{
		"xa_90":    0.2,
		"bad":      math.NaN(),
		"too_big":  math.Inf(1),
		"too_low":  math.Inf(-1),
		"negative": -1.5,
	}
	assert.Equal(t, map[string]float64{"xa_90": 0.2, "negative": -1.5}, finiteMetrics(in))
	assert.Empty(t, finiteMetrics(nil))
}

func TestUpsertArgs(t *testing.T) {
	r := record.PlayerSeason{
		PlayerID: 7, SeasonID: 90, CompetitionID: 4, TeamName: "Lincoln City",
		PlayerName: "A", SeasonName: "2023/2024", PrimaryPosition: "Left Back",
		Minutes: 900, Metrics: map[string]float64{"xa_90": 0.25, "bad": math.NaN()},
	}
	args, err := upsertArgs(r)
	require.NoError(t, err)
	require.Len(t, args, 13)
	assert.Equal(t, 7, args[0])
	assert.JSONEq(t, `{"xa_90":0.25}`, string(args[11].([]byte)))
	assert.JSONEq(t, `{}`, string(args[12].([]byte)))
}

func TestDecodeJSONColumns(t *testing.T) {
	var r record.PlayerSeason
	require.NoError(t, decodeJSONColumns(&r, []byte(`{"xa_90":0.3}`), []byte(`{}`)))
	assert.Equal(t, map[string]float64{"xa_90": 0.3}, r.Metrics)
	assert.Nil(t, r.Attributes)

	require.NoError(t, decodeJSONColumns(&r, nil, []byte(`{"foot":"left"}`)))
	assert.Empty(t, r.Metrics)
	assert.Equal(t, map[string]string{"foot": "left"}, r.Attributes)

	assert.Error(t, decodeJSONColumns(&r, []byte(`not json`), nil))
}

func TestStatementsUsedByStoreExist(t *testing.T) {
	for _, name := range []string{"health_check", "load_player_seasons", "load_metric_groups", "available_seasons"} {
		_, ok := db.Statements[name]
		assert.True(t, ok, name)
	}
	// load_player_seasons scans 13 columns in a fixed order.
	assert.True(t, strings.Contains(db.Statements["load_player_seasons"], "metrics, attributes"))
}

func TestUpsertKeepsMostMinutes(t *testing.T) {
	assert.Contains(t, upsertPlayerSeasonSQL, "ON CONFLICT (player_id, season_id, competition_id, team_name)")
	assert.Contains(t, upsertPlayerSeasonSQL, "WHERE EXCLUDED.minutes > player_seasons.minutes")
}

// Runs against a live database when TEST_DATABASE_URL is set.
func TestStoreAgainstDatabase(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("Skipping database test - TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	cfg := &config.Config{DatabaseURL: url, DBPoolMinConns: 1, DBPoolMaxConns: 2, DBPoolMaxLife: time.Minute}
	require.NoError(t, db.Migrate(ctx, cfg))
	pool, err := db.New(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()

	st := New(pool)
	require.NoError(t, st.Ping(ctx))
	_, err = st.Seasons(ctx)
	assert.NoError(t, err)
}
