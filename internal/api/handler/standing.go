package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/albapepper/scoracle-rankings/internal/api/respond"
	"github.com/albapepper/scoracle-rankings/internal/percentile"
	"github.com/albapepper/scoracle-rankings/internal/standing"
)

// StandingResponse wraps a standing with its rendered summary line.
type StandingResponse struct {
	*standing.Standing
	Summary string `json:"summary"`
}

// GetStanding places one player within a cohort.
// @Summary Player standing
// @Description Ranks the player's position group in the chosen scope and reports the player's rank, top percent, distribution, U21 standing and highlighted team rows.
// @Tags standings
// @Produce json
// @Param player_name query string true "Player name"
// @Param season_id query int true "Season ID"
// @Param scope query string false "Cohort scope" Enums(own_league, all_leagues, league_season)
// @Param league query string false "Competition name, required for league_season"
// @Param policy query string false "Missing-value policy" Enums(neutral, zero)
// @Success 200 {object} StandingResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /standing [get]
func (h *Handler) GetStanding(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("player_name"))
	if name == "" {
		respond.WriteError(w, respond.InvalidParameter, "player_name query parameter is required")
		return
	}
	seasonID, err := intParam(q.Get("season_id"), "season_id")
	if err != nil {
		respond.WriteError(w, respond.InvalidParameter, err.Error())
		return
	}
	scope, err := standing.ParseScope(q.Get("scope"))
	if err != nil {
		respond.WriteError(w, respond.InvalidParameter, err.Error())
		return
	}
	league := strings.TrimSpace(q.Get("league"))
	if scope == standing.ScopeLeagueSeason && league == "" {
		respond.WriteError(w, respond.InvalidParameter, "league is required for scope league_season")
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
	rows, err := h.src.PlayerSeasons(r.Context())
	if err != nil {
		respond.WriteEngineError(w, fmt.Errorf("load player seasons: %w", err))
		return
	}

	opts := h.cfg.StandingOptions()
	opts.Policy = policy
	st, err := standing.New(rows, rules, opts).Standing(standing.Request{
		PlayerName: name,
		SeasonID:   seasonID,
		Scope:      scope,
		League:     league,
	})
	if err != nil {
		respond.WriteEngineError(w, err)
		return
	}
	respond.WriteComputed(w, http.StatusOK, StandingResponse{Standing: st, Summary: st.Summary()})
}
