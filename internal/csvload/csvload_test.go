package csvload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-rankings/internal/preprocess"
)

func TestRead(t *testing.T) {
	table, err := Read(strings.NewReader("\ufeffplayer_id,Team Name\n1,Lincoln City\n2,\"Bolton, Wanderers\"\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"player_id", "Team Name"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Bolton, Wanderers", table.Rows[1][1])
}

func TestRead_Empty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seasons.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}}, table.Rows)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestConcat(t *testing.T) {
	legacy := preprocess.Table{
		Columns: []string{"player_season_minutes", "player_id"},
		Rows:    [][]string{{"500", "1"}},
	}
	current := preprocess.Table{
		Columns: []string{"player_id", "minutes", "player_season_xa_90"},
		Rows:    [][]string{{"1", "900", "0.2"}},
	}
	out := Concat(legacy, current)
	assert.Equal(t, []string{"minutes", "player_id", "xa_90"}, out.Columns)
	assert.Equal(t, [][]string{{"500", "1", ""}, {"900", "1", "0.2"}}, out.Rows)
}
