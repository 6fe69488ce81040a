// Package standing places one player of interest inside a ranked cohort. It
// produces everything a distribution plot needs (the composite score
// distribution, the player's rank, an under-21 sub-ranking and highlighted
// team-mates) without drawing anything.
package standing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/albapepper/scoracle-rankings/internal/metricgroup"
	"github.com/albapepper/scoracle-rankings/internal/percentile"
	"github.com/albapepper/scoracle-rankings/internal/record"
)

// ErrPlayerNotFound is returned when no row matches the player of interest.
var ErrPlayerNotFound = errors.New("player not found")

// Scope picks which cohort the player is compared against.
type Scope string

const (
	// ScopeOwnLeague ranks within the player's competition and season.
	ScopeOwnLeague Scope = "own_league"
	// ScopeAllLeagues ranks across every league in the player's season.
	ScopeAllLeagues Scope = "all_leagues"
	// ScopeLeagueSeason ranks within one named league for the player's
	// season, adding the player when they played elsewhere.
	ScopeLeagueSeason Scope = "league_season"
)

// ParseScope validates a scope name; empty means ScopeOwnLeague.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.TrimSpace(s)) {
	case "", ScopeOwnLeague:
		return ScopeOwnLeague, nil
	case ScopeAllLeagues:
		return ScopeAllLeagues, nil
	case ScopeLeagueSeason:
		return ScopeLeagueSeason, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// Options tunes the standing computation.
type Options struct {
	// U21Cutoff is the exclusive age bound of the youth sub-ranking.
	U21Cutoff int
	// HighlightTeam marks rows from this team (normalized name).
	HighlightTeam string
	// Policy overrides the selector's default fill policy when non-zero.
	Policy percentile.Policy
}

// DefaultOptions mirrors the stock deployment.
func DefaultOptions() Options {
	return Options{U21Cutoff: 22, HighlightTeam: "lincoln_city"}
}

// Request identifies a player of interest and the comparison to run.
type Request struct {
	PlayerName string `json:"player_name"`
	SeasonID   int    `json:"season_id"`
	Scope      Scope  `json:"scope"`
	// League is the competition_name for ScopeLeagueSeason.
	League string `json:"league,omitempty"`
}

func (r Request) String() string {
	s := fmt.Sprintf("%s season_id=%d scope=%s", r.PlayerName, r.SeasonID, r.Scope)
	if r.League != "" {
		s += " league=" + r.League
	}
	return s
}

// AgeStanding is the player's place among cohort members under the cutoff.
type AgeStanding struct {
	Cutoff     int     `json:"cutoff"`
	Rank       int     `json:"rank"`
	CohortSize int     `json:"cohort_size"`
	TopPercent float64 `json:"top_percent"`
}

// Highlight is a highlighted cohort row.
type Highlight struct {
	PlayerName  string  `json:"player_name"`
	TeamName    string  `json:"team_name"`
	Age         int     `json:"age"`
	AverageRank float64 `json:"average_rank"`
	TopPercent  float64 `json:"top_percent"`
}

// Standing is the full comparison for one player of interest.
type Standing struct {
	Request       Request  `json:"request"`
	PositionGroup string   `json:"position_group"`
	Metrics       []string `json:"metrics"`
	Cohort        string   `json:"cohort"`
	Policy        string   `json:"policy"`

	Player percentile.Ranked `json:"player"`
	// Rank is 1-based; tied scores share the best rank.
	Rank       int     `json:"rank"`
	CohortSize int     `json:"cohort_size"`
	TopPercent float64 `json:"top_percent"`

	// Distribution holds every cohort average_rank, highest first.
	Distribution []float64    `json:"distribution"`
	U21          *AgeStanding `json:"u21,omitempty"`
	Highlights   []Highlight  `json:"highlights,omitempty"`
}

// Summary renders the annotation text shown beside a plot.
func (s *Standing) Summary() string {
	text := fmt.Sprintf("Ranked %d out of %d players (%d%%)", s.Rank, s.CohortSize, int(s.TopPercent))
	if s.U21 != nil {
		text += fmt.Sprintf("\nRanked %d out of %d U%d players", s.U21.Rank, s.U21.CohortSize, s.U21.Cutoff-1)
	}
	return text
}

// Engine computes standings over a fixed table and grouping configuration.
// It holds no mutable state, so one Engine may serve concurrent callers.
type Engine struct {
	records []record.PlayerSeason
	rules   metricgroup.Rules
	opts    Options
}

// New creates an Engine.
func New(records []record.PlayerSeason, rules metricgroup.Rules, opts Options) *Engine {
	return &Engine{records: records, rules: rules, opts: opts}
}

// Find returns the first row for the player in the season.
func (e *Engine) Find(playerName string, seasonID int) (record.PlayerSeason, error) {
	for _, r := range e.records {
		if r.PlayerName == playerName && r.SeasonID == seasonID {
			return r, nil
		}
	}
	return record.PlayerSeason{}, fmt.Errorf("%w: %s season_id=%d", ErrPlayerNotFound, playerName, seasonID)
}

// Standing ranks the player's cohort and places the player in it.
func (e *Engine) Standing(req Request) (*Standing, error) {
	p, err := e.Find(req.PlayerName, req.SeasonID)
	if err != nil {
		return nil, err
	}
	res, err := e.rules.ResolveRecord(p)
	if err != nil {
		return nil, err
	}

	rows, sel, err := e.cohort(req, p)
	if err != nil {
		return nil, err
	}
	q := percentile.Query{
		Selector:  sel,
		Positions: res.ComparablePositions,
		Metrics:   res.Metrics,
		Policy:    e.opts.Policy,
	}
	ranked, err := percentile.Rank(rows, q)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, r := range ranked {
		if r.Key() == p.Key() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w in cohort: %s", ErrPlayerNotFound, req)
	}
	me := ranked[idx]

	sorted := percentile.SortByAverageRank(ranked)
	dist := make([]float64, len(sorted))
	for i, r := range sorted {
		dist[i] = r.AverageRank
	}

	st := &Standing{
		Request:       req,
		PositionGroup: res.Group,
		Metrics:       res.Metrics,
		Cohort:        q.Describe(),
		Policy:        q.EffectivePolicy().String(),
		Player:        me,
		Rank:          minRank(ranked, me.AverageRank),
		CohortSize:    len(ranked),
		TopPercent:    100 - me.AverageRankPercentile,
		Distribution:  dist,
	}

	if e.opts.U21Cutoff > 0 && p.Age < e.opts.U21Cutoff {
		var young []percentile.Ranked
		for _, r := range ranked {
			if r.Age < e.opts.U21Cutoff {
				young = append(young, r)
			}
		}
		rank := minRank(young, me.AverageRank)
		st.U21 = &AgeStanding{
			Cutoff:     e.opts.U21Cutoff,
			Rank:       rank,
			CohortSize: len(young),
			TopPercent: 100 - float64(rank)*100/float64(len(young)),
		}
	}

	if e.opts.HighlightTeam != "" {
		for _, r := range sorted {
			if r.TeamName != e.opts.HighlightTeam || r.Key() == p.Key() {
				continue
			}
			st.Highlights = append(st.Highlights, Highlight{
				PlayerName:  r.PlayerName,
				TeamName:    r.TeamName,
				Age:         r.Age,
				AverageRank: r.AverageRank,
				TopPercent:  100 - r.AverageRankPercentile,
			})
		}
	}
	return st, nil
}

// cohort returns the rows and selector for the request's scope.
func (e *Engine) cohort(req Request, p record.PlayerSeason) ([]record.PlayerSeason, percentile.Selector, error) {
	switch req.Scope {
	case "", ScopeOwnLeague:
		return e.records, percentile.CompetitionSeason{SeasonID: p.SeasonID, CompetitionID: p.CompetitionID}, nil

	case ScopeAllLeagues:
		return e.records, percentile.CrossLeagueSeason{SeasonName: p.SeasonName}, nil

	case ScopeLeagueSeason:
		rows, sel, err := LeagueRows(e.records, req.League, p.SeasonName)
		if err != nil {
			return nil, nil, err
		}
		if p.CompetitionName != record.NormalizeLabel(req.League) {
			rows = append(rows, p)
		}
		return rows, sel, nil
	}
	return nil, nil, fmt.Errorf("unknown scope %q", req.Scope)
}

// LeagueRows returns one league's rows for a season, expanding a bare year
// to its split spelling, with a Subset selector labelled for the pair.
func LeagueRows(records []record.PlayerSeason, league, seasonName string) ([]record.PlayerSeason, percentile.Subset, error) {
	league = record.NormalizeLabel(league)
	if league == "" {
		return nil, percentile.Subset{}, fmt.Errorf("scope %s requires a league", ScopeLeagueSeason)
	}
	season, err := record.SplitSeason(seasonName)
	if err != nil {
		return nil, percentile.Subset{}, &record.DataValidationError{Row: "query", Field: "season_name", Value: seasonName, Err: err}
	}
	var rows []record.PlayerSeason
	for _, r := range records {
		if r.CompetitionName == league && r.SeasonName == season {
			rows = append(rows, r)
		}
	}
	return rows, percentile.Subset{Label: league + " " + season}, nil
}

// minRank is the 1-based descending rank where ties share the best place.
func minRank(ranked []percentile.Ranked, score float64) int {
	rank := 1
	for _, r := range ranked {
		if r.AverageRank > score {
			rank++
		}
	}
	return rank
}
