package preprocess_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-rankings/internal/percentile"
	"github.com/albapepper/scoracle-rankings/internal/preprocess"
)

// Three rows, one under the minutes threshold, ranked on a single metric.
func TestPipeline_PreprocessDedupeRank(t *testing.T) {
	table := preprocess.Table{
		Columns: []string{
			"player_id", "player_name", "team_name", "season_id", "season_name",
			"competition_id", "competition_name", "primary_position", "minutes",
			"birth_date", "npga_90", "assists_90", "np_xg_90",
			"dribbled_past_90", "errors_90", "key_passes_90",
		},
		Rows: [][]string{
			{"1", "A", "Lincoln City", "90", "2023/2024", "4", "League One", "Left Wing", "500", "2001-02-03", "0.3", "0.1", "0.2", "1", "0", "3.0"},
			{"2", "B", "Barnsley", "90", "2023/2024", "4", "League One", "Left Wing", "800", "1999-02-03", "0.3", "0.1", "0.2", "1", "0", "1.0"},
			{"3", "C", "Bolton", "90", "2023/2024", "4", "League One", "Right Wing", "1200", "1998-02-03", "0.3", "0.1", "0.2", "1", "0", "2.0"},
		},
	}

	records, err := preprocess.Preprocess(table, preprocess.DefaultOptions())
	require.NoError(t, err)
	records = preprocess.Dedupe(records)
	require.Len(t, records, 2)

	for _, policy := range []percentile.Policy{percentile.NeutralFill, percentile.ZeroFill} {
		ranked, err := percentile.Rank(records, percentile.Query{
			Selector:  percentile.CompetitionSeason{SeasonID: 90, CompetitionID: 4},
			Positions: []string{"left_wing", "right_wing"},
			Metrics:   []string{"key_passes_90"},
			Policy:    policy,
		})
		require.NoError(t, err)
		require.Len(t, ranked, 2)

		assert.Equal(t, "B", ranked[0].PlayerName)
		assert.Equal(t, 50.0, ranked[0].Percentiles["key_passes_90"])
		assert.Equal(t, 100.0, ranked[1].Percentiles["key_passes_90"])
		assert.Equal(t, 50.0, ranked[0].AverageRankPercentile)
		assert.Equal(t, 100.0, ranked[1].AverageRankPercentile)
	}
}

// An infinite cell must reach the engine as missing so the ranked output
// still encodes.
func TestPipeline_InfiniteCellEncodes(t *testing.T) {
	table := preprocess.Table{
		Columns: []string{
			"player_id", "player_name", "team_name", "season_id", "season_name",
			"competition_id", "competition_name", "primary_position", "minutes",
			"birth_date", "npga_90", "assists_90", "np_xg_90",
			"dribbled_past_90", "errors_90", "key_passes_90",
		},
		Rows: [][]string{
			{"1", "A", "Lincoln City", "90", "2023/2024", "4", "League One", "Left Wing", "900", "2001-02-03", "0.3", "0.1", "0.2", "1", "0", "Infinity"},
			{"2", "B", "Barnsley", "90", "2023/2024", "4", "League One", "Left Wing", "800", "1999-02-03", "0.3", "0.1", "0.2", "1", "0", "1.0"},
		},
	}

	records, err := preprocess.Preprocess(table, preprocess.DefaultOptions())
	require.NoError(t, err)

	ranked, err := percentile.Rank(records, percentile.Query{
		Selector:  percentile.CompetitionSeason{SeasonID: 90, CompetitionID: 4},
		Positions: []string{"left_wing"},
		Metrics:   []string{"key_passes_90"},
		Policy:    percentile.NeutralFill,
	})
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	body, err := json.Marshal(ranked)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"key_passes_90_percentile"`)

	byName := map[string]percentile.Ranked{}
	for _, r := range ranked {
		byName[r.PlayerName] = r
	}
	assert.Equal(t, 50.0, byName["A"].Percentiles["key_passes_90"])
	assert.NotContains(t, byName["A"].Attributes, "key_passes_90")
}
