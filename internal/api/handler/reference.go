package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/albapepper/scoracle-rankings/internal/api/respond"
	"github.com/albapepper/scoracle-rankings/internal/cache"
)

// GetMetricGroups returns the position grouping table.
// @Summary List metric groups
// @Description Returns every position group with its comparable positions and ranked metrics, in lookup order.
// @Tags reference
// @Produce json
// @Success 200 {array} metricgroup.Rule
// @Failure 500 {object} respond.ErrorResponse
// @Router /groups [get]
func (h *Handler) GetMetricGroups(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cache.KeyMetricGroups, cache.TTLMetricGroups, func() (any, error) {
		return h.src.MetricGroups(r.Context())
	})
}

// GetSeasons returns the competition-seasons that have data.
// @Summary List seasons
// @Description Returns each competition-season present in the player table with its row count.
// @Tags reference
// @Produce json
// @Success 200 {array} store.Season
// @Failure 500 {object} respond.ErrorResponse
// @Router /seasons [get]
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cache.KeySeasons, cache.TTLSeasons, func() (any, error) {
		return h.src.Seasons(r.Context())
	})
}

// serveCached answers from the cache or loads, marshals and stores the value.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, load func() (any, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteCached(w, data, etag, ttl, true)
		return
	}

	v, err := load()
	if err != nil {
		respond.WriteErrorDetail(w, respond.DataUnavailable, "Failed to load reference data", err.Error())
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		respond.WriteError(w, respond.EncodeFailed, "Failed to encode response")
		return
	}

	etag := h.cache.Set(key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteCached(w, data, etag, ttl, false)
}
