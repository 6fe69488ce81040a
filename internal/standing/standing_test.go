package standing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-rankings/internal/metricgroup"
	"github.com/albapepper/scoracle-rankings/internal/percentile"
	"github.com/albapepper/scoracle-rankings/internal/record"
)

var rules = metricgroup.Rules{
	{Group: "all", Positions: []string{"left_wing", "right_wing", "centre_forward"}, Metrics: []string{"m"}},
	{Group: "winger", Positions: []string{"left_wing", "right_wing"}, Metrics: []string{"m"}},
	{Group: "striker", Positions: []string{"centre_forward"}, Metrics: []string{"m"}},
}

func row(id int, name, team string, seasonID int, seasonName string, compID int, comp, pos string, age int, m float64) record.PlayerSeason {
	return record.PlayerSeason{
		PlayerID:        id,
		PlayerName:      name,
		TeamName:        team,
		SeasonID:        seasonID,
		SeasonName:      seasonName,
		CompetitionID:   compID,
		CompetitionName: comp,
		PrimaryPosition: pos,
		Minutes:         1500,
		Age:             age,
		Metrics:         map[string]float64{"m": m},
	}
}

func fixture() []record.PlayerSeason {
	return []record.PlayerSeason{
		row(1, "Bobby Wales", "lincoln_city", 90, "2023/2024", 4, "league_one", "right_wing", 20, 3),
		row(2, "Team Mate", "lincoln_city", 90, "2023/2024", 4, "league_one", "left_wing", 25, 1),
		row(3, "Rival", "barnsley", 90, "2023/2024", 4, "league_one", "left_wing", 21, 2),
		row(4, "Target Man", "barnsley", 90, "2023/2024", 4, "league_one", "centre_forward", 28, 9),
		row(5, "Top Flight", "arsenal", 91, "2023/2024", 2, "premier_league", "left_wing", 30, 5),
		row(6, "Summer Kid", "la_galaxy", 92, "2023", 44, "mls", "right_wing", 19, 4),
		row(7, "Libero", "bolton", 90, "2023/2024", 4, "league_one", "sweeper", 30, 4),
	}
}

func newEngine() *Engine {
	return New(fixture(), rules, DefaultOptions())
}

func TestStanding_OwnLeague(t *testing.T) {
	st, err := newEngine().Standing(Request{PlayerName: "Bobby Wales", SeasonID: 90, Scope: ScopeOwnLeague})
	require.NoError(t, err)

	assert.Equal(t, "winger", st.PositionGroup)
	assert.Equal(t, "zero", st.Policy)
	assert.Equal(t, 1, st.Rank)
	assert.Equal(t, 3, st.CohortSize)
	assert.Equal(t, 0.0, st.TopPercent)
	require.Len(t, st.Distribution, 3)
	assert.Equal(t, 100.0, st.Distribution[0])
	assert.Equal(t, 1, st.Player.PlayerID)

	require.NotNil(t, st.U21)
	assert.Equal(t, 1, st.U21.Rank)
	assert.Equal(t, 2, st.U21.CohortSize)
	assert.Equal(t, 50.0, st.U21.TopPercent)

	require.Len(t, st.Highlights, 1)
	assert.Equal(t, "Team Mate", st.Highlights[0].PlayerName)
	assert.InDelta(t, 100-100.0/3, st.Highlights[0].TopPercent, 1e-9)

	assert.Equal(t, "Ranked 1 out of 3 players (0%)\nRanked 1 out of 2 U21 players", st.Summary())
}

func TestStanding_AllLeagues(t *testing.T) {
	st, err := newEngine().Standing(Request{PlayerName: "Bobby Wales", SeasonID: 90, Scope: ScopeAllLeagues})
	require.NoError(t, err)

	assert.Equal(t, "neutral", st.Policy)
	assert.Equal(t, 5, st.CohortSize)
	assert.Equal(t, 3, st.Rank)
	assert.Equal(t, 60.0, st.Player.AverageRankPercentile)
	assert.Equal(t, 40.0, st.TopPercent)
	assert.Equal(t, []float64{100, 80, 60, 40, 20}, st.Distribution)
}

func TestStanding_LeagueSeasonAppendsOutsider(t *testing.T) {
	e := newEngine()

	st, err := e.Standing(Request{PlayerName: "Top Flight", SeasonID: 91, Scope: ScopeLeagueSeason, League: "League One"})
	require.NoError(t, err)
	assert.Equal(t, 4, st.CohortSize)
	assert.Equal(t, 1, st.Rank)
	assert.Nil(t, st.U21)

	// Bare-year season expands to the split spelling before filtering.
	st, err = e.Standing(Request{PlayerName: "Summer Kid", SeasonID: 92, Scope: ScopeLeagueSeason, League: "league_one"})
	require.NoError(t, err)
	assert.Equal(t, 4, st.CohortSize)
	assert.Equal(t, 1, st.Rank)
	require.NotNil(t, st.U21)
	assert.Equal(t, 3, st.U21.CohortSize)

	// A league-one player is not added twice.
	st, err = e.Standing(Request{PlayerName: "Rival", SeasonID: 90, Scope: ScopeLeagueSeason, League: "league_one"})
	require.NoError(t, err)
	assert.Equal(t, 3, st.CohortSize)
	assert.Equal(t, 2, st.Rank)

	_, err = e.Standing(Request{PlayerName: "Rival", SeasonID: 90, Scope: ScopeLeagueSeason})
	assert.Error(t, err)
}

func TestStanding_PolicyOverride(t *testing.T) {
	opts := DefaultOptions()
	opts.Policy = percentile.NeutralFill
	st, err := New(fixture(), rules, opts).Standing(Request{PlayerName: "Bobby Wales", SeasonID: 90})
	require.NoError(t, err)
	assert.Equal(t, "neutral", st.Policy)
}

func TestStanding_Errors(t *testing.T) {
	e := newEngine()

	_, err := e.Standing(Request{PlayerName: "Nobody", SeasonID: 90})
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = e.Standing(Request{PlayerName: "Libero", SeasonID: 90})
	var up *record.UnknownPositionError
	assert.True(t, errors.As(err, &up))

	_, err = e.Standing(Request{PlayerName: "Bobby Wales", SeasonID: 90, Scope: "galaxy"})
	assert.Error(t, err)
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeOwnLeague, s)

	s, err = ParseScope("all_leagues")
	require.NoError(t, err)
	assert.Equal(t, ScopeAllLeagues, s)

	_, err = ParseScope("moon")
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reqs := []Request{
		{PlayerName: "Bobby Wales", SeasonID: 90, Scope: ScopeOwnLeague},
		{PlayerName: "Nobody", SeasonID: 90},
		{PlayerName: "Bobby Wales", SeasonID: 90, Scope: ScopeAllLeagues},
		{PlayerName: "Rival", SeasonID: 90},
	}

	res := newEngine().Batch(context.Background(), reqs, 3, logger)
	require.Len(t, res.Results, 4)
	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	for i, r := range res.Results {
		assert.Equal(t, reqs[i], r.Request)
	}
	assert.ErrorIs(t, res.Results[1].Err, ErrPlayerNotFound)
	assert.Equal(t, 1, res.Results[0].Standing.Rank)
	assert.Equal(t, 3, res.Results[2].Standing.Rank)
	assert.Contains(t, res.Summary(), "succeeded=3")

	// Same answers as the sequential path.
	seq, err := newEngine().Standing(reqs[3])
	require.NoError(t, err)
	assert.Equal(t, seq, res.Results[3].Standing)
}

func TestBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := newEngine().Batch(ctx, []Request{{PlayerName: "Bobby Wales", SeasonID: 90}}, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Len(t, res.Results, 1)
	assert.ErrorIs(t, res.Results[0].Err, context.Canceled)
	assert.Equal(t, 1, res.Failed)
}

func TestLeagueRows(t *testing.T) {
	rows, sel, err := LeagueRows(fixture(), "League One", "2023")
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, "subset league_one 2023/2024", sel.Describe())

	_, _, err = LeagueRows(fixture(), "", "2023")
	assert.Error(t, err)

	_, _, err = LeagueRows(fixture(), "mls", "next year")
	var dve *record.DataValidationError
	assert.True(t, errors.As(err, &dve))
}
