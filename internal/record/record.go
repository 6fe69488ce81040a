// Package record defines the player-season row shared by preprocessing, the
// ranking engine and the persistence layer, plus the error taxonomy those
// layers surface to callers.
package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PlayerSeason is one player's accumulated statistics for one season at one
// team in one competition.
type PlayerSeason struct {
	PlayerID        int     `json:"player_id"`
	PlayerName      string  `json:"player_name"`
	TeamName        string  `json:"team_name"`
	SeasonID        int     `json:"season_id"`
	SeasonName      string  `json:"season_name"`
	CompetitionID   int     `json:"competition_id"`
	CompetitionName string  `json:"competition_name"`
	PrimaryPosition string  `json:"primary_position"`
	Minutes         float64 `json:"minutes"`
	BirthDate       string  `json:"birth_date"`
	Age             int     `json:"age"`

	// Metrics holds per-90 statistics keyed by normalized column name.
	// A missing key (or NaN) means the metric was not recorded.
	Metrics map[string]float64 `json:"metrics"`

	// Attributes keeps non-numeric source columns that are not part of the
	// fixed identity set above.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Key identifies a row for deduplication.
type Key struct {
	PlayerID      int
	SeasonID      int
	CompetitionID int
	TeamName      string
}

// Key returns the dedup key for the row.
func (p PlayerSeason) Key() Key {
	return Key{
		PlayerID:      p.PlayerID,
		SeasonID:      p.SeasonID,
		CompetitionID: p.CompetitionID,
		TeamName:      p.TeamName,
	}
}

func (k Key) String() string {
	return fmt.Sprintf("player=%d season=%d competition=%d team=%s",
		k.PlayerID, k.SeasonID, k.CompetitionID, k.TeamName)
}

// Metric returns the metric value and whether it is present. NaN and
// infinities count as missing.
func (p PlayerSeason) Metric(name string) (float64, bool) {
	v, ok := p.Metrics[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Clone returns a deep copy so derived views never alias the input maps.
func (p PlayerSeason) Clone() PlayerSeason {
	out := p
	if p.Metrics != nil {
		out.Metrics = make(map[string]float64, len(p.Metrics))
		for k, v := range p.Metrics {
			out.Metrics[k] = v
		}
	}
	if p.Attributes != nil {
		out.Attributes = make(map[string]string, len(p.Attributes))
		for k, v := range p.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}

// --------------------------------------------------------------------------
// Season names
// --------------------------------------------------------------------------

// SeasonStartYear parses the start year of a season name. "2023/2024" yields
// 2023 and a bare "2023" yields 2023.
func SeasonStartYear(seasonName string) (int, error) {
	head := seasonName
	if i := strings.Index(seasonName, "/"); i >= 0 {
		head = seasonName[:i]
	}
	year, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, fmt.Errorf("season name %q: %w", seasonName, err)
	}
	return year, nil
}

// ComplementarySeason converts between the two season spellings used across
// leagues: a bare year "2023" becomes "2023/2024" and a split year
// "2023/2024" becomes "2023".
func ComplementarySeason(seasonName string) (string, error) {
	year, err := SeasonStartYear(seasonName)
	if err != nil {
		return "", err
	}
	if strings.Contains(seasonName, "/") {
		return strconv.Itoa(year), nil
	}
	return fmt.Sprintf("%d/%d", year, year+1), nil
}

// SplitSeason returns the "YYYY/YYYY+1" spelling of a season name, leaving
// split names untouched.
func SplitSeason(seasonName string) (string, error) {
	if strings.Contains(seasonName, "/") {
		if _, err := SeasonStartYear(seasonName); err != nil {
			return "", err
		}
		return seasonName, nil
	}
	return ComplementarySeason(seasonName)
}

// NormalizeLabel trims, lowercases and underscores a categorical value such
// as a position, competition or team name.
func NormalizeLabel(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
