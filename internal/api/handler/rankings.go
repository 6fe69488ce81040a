package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/albapepper/scoracle-rankings/internal/api/respond"
	"github.com/albapepper/scoracle-rankings/internal/metricgroup"
	"github.com/albapepper/scoracle-rankings/internal/percentile"
	"github.com/albapepper/scoracle-rankings/internal/record"
	"github.com/albapepper/scoracle-rankings/internal/standing"
)

// RankingResponse is a ranked cohort, best average rank first.
type RankingResponse struct {
	Cohort        string              `json:"cohort"`
	Policy        string              `json:"policy"`
	PositionGroup string              `json:"position_group"`
	Positions     []string            `json:"comparable_positions"`
	Metrics       []string            `json:"metrics"`
	Count         int                 `json:"count"`
	Players       []percentile.Ranked `json:"players"`
}

// GetCompetitionRanking ranks one competition-season.
// @Summary Rank a competition-season
// @Description Ranks every player in the position group of the given position within one competition and season. Missing metrics default to zero-fill.
// @Tags rankings
// @Produce json
// @Param season_id query int true "Season ID"
// @Param competition_id query int true "Competition ID"
// @Param position query string true "Playing position or position group"
// @Param policy query string false "Missing-value policy" Enums(neutral, zero)
// @Success 200 {object} RankingResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /rankings/competition [get]
func (h *Handler) GetCompetitionRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	seasonID, err := intParam(q.Get("season_id"), "season_id")
	if err != nil {
		respond.WriteError(w, respond.InvalidParameter, err.Error())
		return
	}
	competitionID, err := intParam(q.Get("competition_id"), "competition_id")
	if err != nil {
		respond.WriteError(w, respond.InvalidParameter, err.Error())
		return
	}
	sel := percentile.CompetitionSeason{SeasonID: seasonID, CompetitionID: competitionID}
	h.rank(w, r, sel, nil)
}

// GetSeasonRanking ranks one season across all leagues.
// @Summary Rank a season across leagues
// @Description Ranks every player in the position group across all competitions whose season matches the given name in either spelling ("2023" or "2023/2024"). Missing metrics default to neutral-fill.
// @Tags rankings
// @Produce json
// @Param season_name query string true "Season name"
// @Param position query string true "Playing position or position group"
// @Param policy query string false "Missing-value policy" Enums(neutral, zero)
// @Success 200 {object} RankingResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /rankings/season [get]
func (h *Handler) GetSeasonRanking(w http.ResponseWriter, r *http.Request) {
	seasonName := strings.TrimSpace(r.URL.Query().Get("season_name"))
	if seasonName == "" {
		respond.WriteError(w, respond.InvalidParameter, "season_name query parameter is required")
		return
	}
	if _, err := record.SeasonStartYear(seasonName); err != nil {
		respond.WriteError(w, respond.InvalidParameter, err.Error())
		return
	}
	h.rank(w, r, percentile.CrossLeagueSeason{SeasonName: seasonName}, nil)
}

// GetLeagueRanking ranks one named league in one season.
// @Summary Rank a league-season
// @Description Ranks every player in the position group within a named competition for a season. A bare year is expanded to its split form. Missing metrics default to neutral-fill.
// @Tags rankings
// @Produce json
// @Param competition_name query string true "Competition name"
// @Param season_name query string true "Season name"
// @Param position query string true "Playing position or position group"
// @Param policy query string false "Missing-value policy" Enums(neutral, zero)
// @Success 200 {object} RankingResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /rankings/league [get]
func (h *Handler) GetLeagueRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	league := strings.TrimSpace(q.Get("competition_name"))
	seasonName := strings.TrimSpace(q.Get("season_name"))
	if league == "" || seasonName == "" {
		respond.WriteError(w, respond.InvalidParameter, "competition_name and season_name query parameters are required")
		return
	}
	h.rank(w, r, nil, func(rows []record.PlayerSeason) ([]record.PlayerSeason, percentile.Selector, error) {
		sub, sel, err := standing.LeagueRows(rows, league, seasonName)
		return sub, sel, err
	})
}

// rank runs one ranking. Either sel is set, or subset narrows the rows and
// provides the selector.
func (h *Handler) rank(w http.ResponseWriter, r *http.Request, sel percentile.Selector,
	subset func([]record.PlayerSeason) ([]record.PlayerSeason, percentile.Selector, error)) {
	q := r.URL.Query()
	position := strings.TrimSpace(q.Get("position"))
	if position == "" {
		respond.WriteError(w, respond.InvalidParameter, "position query parameter is required")
		return
	}
	policy, err := percentile.ParsePolicy(q.Get("policy"))
	if err != nil {
		respond.WriteError(w, respond.InvalidParameter, err.Error())
		return
	}

	rules, err := h.src.MetricGroups(r.Context())
	if err != nil {
		respond.WriteEngineError(w, fmt.Errorf("load metric groups: %w", err))
		return
	}
	res, err := resolvePosition(rules, position)
	if err != nil {
		respond.WriteEngineError(w, err)
		return
	}

	rows, err := h.src.PlayerSeasons(r.Context())
	if err != nil {
		respond.WriteEngineError(w, fmt.Errorf("load player seasons: %w", err))
		return
	}
	if subset != nil {
		rows, sel, err = subset(rows)
		if err != nil {
			respond.WriteEngineError(w, err)
			return
		}
	}

	query := percentile.Query{
		Selector:  sel,
		Positions: res.ComparablePositions,
		Metrics:   res.Metrics,
		Policy:    policy,
	}
	ranked, err := percentile.Rank(rows, query)
	if err != nil {
		respond.WriteEngineError(w, err)
		return
	}

	respond.WriteComputed(w, http.StatusOK, RankingResponse{
		Cohort:        query.Describe(),
		Policy:        query.EffectivePolicy().String(),
		PositionGroup: res.Group,
		Positions:     res.ComparablePositions,
		Metrics:       res.Metrics,
		Count:         len(ranked),
		Players:       percentile.SortByAverageRank(ranked),
	})
}

// resolvePosition accepts a playing position ("Left Back") or a position
// group name ("full_back").
func resolvePosition(rules metricgroup.Rules, position string) (metricgroup.Resolution, error) {
	label := record.NormalizeLabel(position)
	res, err := rules.Resolve(label)
	if err == nil {
		return res, nil
	}
	if g, ok := rules.Group(label); ok && g.Group != metricgroup.AllGroup {
		return metricgroup.Resolution{
			Group:               g.Group,
			Metrics:             append([]string(nil), g.Metrics...),
			ComparablePositions: append([]string(nil), g.Positions...),
		}, nil
	}
	return metricgroup.Resolution{}, err
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s query parameter is required", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
