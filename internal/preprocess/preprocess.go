// Package preprocess turns a raw player-season export into clean
// PlayerSeason records: column names are normalized, short-minute rows are
// dropped, categorical labels are canonicalized and derived metrics are added.
// Every step returns new values; the input table is never mutated.
package preprocess

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/albapepper/scoracle-rankings/internal/record"
)

// Column names after normalization.
const (
	ColPlayerID        = "player_id"
	ColPlayerName      = "player_name"
	ColTeamName        = "team_name"
	ColSeasonID        = "season_id"
	ColSeasonName      = "season_name"
	ColCompetitionID   = "competition_id"
	ColCompetitionName = "competition_name"
	ColPrimaryPosition = "primary_position"
	ColMinutes         = "minutes"
	ColBirthDate       = "birth_date"

	// Inputs and output of the goals-versus-expected derivation.
	ColNPGA90          = "npga_90"
	ColAssists90       = "assists_90"
	ColNPXG90          = "np_xg_90"
	ColNPGoalsLessXG90 = "np_goals_less_xg_90"
)

const columnPrefix = "player_season_"

// identityColumns are parsed into typed fields instead of the metric map.
var identityColumns = []string{
	ColPlayerID, ColPlayerName, ColTeamName,
	ColSeasonID, ColSeasonName,
	ColCompetitionID, ColCompetitionName,
	ColPrimaryPosition, ColMinutes, ColBirthDate,
}

var errMissingColumn = errors.New("required column missing")

// Table is a raw export: a header row and string cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Options controls the configurable parts of preprocessing.
type Options struct {
	// MinMinutes drops every row with minutes <= MinMinutes.
	MinMinutes float64
	// InvertedMetrics are lower-is-better metrics negated so that a larger
	// value always means better performance.
	InvertedMetrics []string
}

// DefaultOptions returns the stock deployment settings.
func DefaultOptions() Options {
	return Options{
		MinMinutes:      700,
		InvertedMetrics: []string{"dribbled_past_90", "errors_90"},
	}
}

// NormalizeColumn trims a header, underscores spaces, lowercases it and strips
// the player_season_ prefix.
func NormalizeColumn(name string) string {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	return strings.ReplaceAll(n, columnPrefix, "")
}

// NormalizeColumns applies NormalizeColumn to every header.
func NormalizeColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = NormalizeColumn(c)
	}
	return out
}

// RequiredColumns lists every column Preprocess needs for the given options.
func RequiredColumns(opts Options) []string {
	req := append([]string{}, identityColumns...)
	req = append(req, ColNPGA90, ColAssists90, ColNPXG90)
	for _, m := range opts.InvertedMetrics {
		if !contains(req, m) {
			req = append(req, m)
		}
	}
	return req
}

// Preprocess converts a raw table into PlayerSeason records. Output order
// follows input order with short-minute rows removed.
func Preprocess(table Table, opts Options) ([]record.PlayerSeason, error) {
	cols := NormalizeColumns(table.Columns)
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}

	for _, c := range RequiredColumns(opts) {
		if _, ok := index[c]; !ok {
			return nil, &record.DataValidationError{Row: "header", Field: c, Err: errMissingColumn}
		}
	}

	out := make([]record.PlayerSeason, 0, len(table.Rows))
	for i, row := range table.Rows {
		cell := func(name string) string {
			j := index[name]
			if j < len(row) {
				return row[j]
			}
			return ""
		}
		rowKey := strconv.Itoa(i + 1)
		if id := strings.TrimSpace(cell(ColPlayerID)); id != "" {
			rowKey = fmt.Sprintf("%d (player_id=%s)", i+1, id)
		}

		minutes, ok := parseNumber(cell(ColMinutes))
		if !ok {
			return nil, &record.DataValidationError{Row: rowKey, Field: ColMinutes, Value: cell(ColMinutes)}
		}
		if minutes <= opts.MinMinutes {
			continue
		}

		rec, err := buildRecord(cols, row, cell, rowKey, minutes, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func buildRecord(cols, row []string, cell func(string) string, rowKey string, minutes float64, opts Options) (record.PlayerSeason, error) {
	rec := record.PlayerSeason{
		PlayerName:      strings.TrimSpace(cell(ColPlayerName)),
		TeamName:        record.NormalizeLabel(cell(ColTeamName)),
		SeasonName:      strings.TrimSpace(cell(ColSeasonName)),
		CompetitionName: record.NormalizeLabel(cell(ColCompetitionName)),
		PrimaryPosition: record.NormalizeLabel(cell(ColPrimaryPosition)),
		Minutes:         minutes,
		BirthDate:       strings.TrimSpace(cell(ColBirthDate)),
		Metrics:         make(map[string]float64),
	}

	ids := []struct {
		col string
		dst *int
	}{
		{ColPlayerID, &rec.PlayerID},
		{ColSeasonID, &rec.SeasonID},
		{ColCompetitionID, &rec.CompetitionID},
	}
	for _, id := range ids {
		v, err := parseID(cell(id.col))
		if err != nil {
			return rec, &record.DataValidationError{Row: rowKey, Field: id.col, Value: cell(id.col), Err: err}
		}
		*id.dst = v
	}

	seen := make(map[string]bool, len(cols))
	for j, c := range cols {
		if seen[c] || contains(identityColumns, c) {
			continue
		}
		seen[c] = true
		raw := ""
		if j < len(row) {
			raw = row[j]
		}
		if isMissing(raw) {
			continue
		}
		if v, ok := parseNumber(raw); ok {
			rec.Metrics[c] = v
			continue
		}
		if rec.Attributes == nil {
			rec.Attributes = make(map[string]string)
		}
		rec.Attributes[c] = strings.TrimSpace(raw)
	}

	deriveGoalsLessXG(&rec)

	for _, m := range opts.InvertedMetrics {
		if v, ok := rec.Metric(m); ok {
			rec.Metrics[m] = -v
		}
	}

	seasonYear, err := record.SeasonStartYear(rec.SeasonName)
	if err != nil {
		return rec, &record.DataValidationError{Row: rowKey, Field: ColSeasonName, Value: rec.SeasonName, Err: err}
	}
	birthYear, err := birthYear(rec.BirthDate)
	if err != nil {
		return rec, &record.DataValidationError{Row: rowKey, Field: ColBirthDate, Value: rec.BirthDate, Err: err}
	}
	rec.Age = seasonYear - birthYear

	return rec, nil
}

// deriveGoalsLessXG adds np_goals_less_xg_90. npga_90 counts non-penalty
// goals plus assists, so subtracting assists leaves non-penalty goals.
// A missing input leaves the derived metric missing.
func deriveGoalsLessXG(rec *record.PlayerSeason) {
	npga, ok1 := rec.Metric(ColNPGA90)
	assists, ok2 := rec.Metric(ColAssists90)
	npxg, ok3 := rec.Metric(ColNPXG90)
	if ok1 && ok2 && ok3 {
		rec.Metrics[ColNPGoalsLessXG90] = npga - assists - npxg
	}
}

func birthYear(birthDate string) (int, error) {
	head := birthDate
	if i := strings.Index(birthDate, "-"); i >= 0 {
		head = birthDate[:i]
	}
	return strconv.Atoi(strings.TrimSpace(head))
}

// --------------------------------------------------------------------------
// Cell parsing
// --------------------------------------------------------------------------

// isMissing reports whether a cell holds no usable value. Non-finite
// numbers such as "inf" or "-Infinity" are treated like "nan".
func isMissing(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "", "nan", "na", "n/a", "null", "none":
		return true
	}
	// ParseFloat returns ±Inf with ErrRange for overflowing literals like 1e999.
	f, err := strconv.ParseFloat(t, 64)
	if (err == nil || errors.Is(err, strconv.ErrRange)) && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return true
	}
	return false
}

func parseNumber(s string) (float64, bool) {
	if isMissing(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseID accepts "123" and the float spelling "123.0" some exports emit.
func parseID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
