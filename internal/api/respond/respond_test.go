package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-rankings/internal/record"
	"github.com/albapepper/scoracle-rankings/internal/standing"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteCached(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteCached(rec, []byte(`{"ok":true}`), `W/"abc"`, time.Hour, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `W/"abc"`, rec.Header().Get("ETag"))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "public, max-age=3600, stale-while-revalidate=1800", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	miss := httptest.NewRecorder()
	WriteCached(miss, []byte(`[]`), `W/"d"`, time.Minute, false)
	assert.Equal(t, "MISS", miss.Header().Get("X-Cache"))
}

func TestWriteComputed(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteComputed(rec, http.StatusOK, map[string]int{"count": 2})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"count":2}`, rec.Body.String())

	bad := httptest.NewRecorder()
	WriteComputed(bad, http.StatusOK, map[string]float64{"x": math.Inf(1)})
	assert.Equal(t, http.StatusInternalServerError, bad.Code)
	assert.Equal(t, EncodeFailed, decodeError(t, bad).Error.Code)
}

func TestWriteErrorDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorDetail(rec, EmptyCohort, "no players", "season_id=1")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, EmptyCohort, body.Error.Code)
	assert.Equal(t, "season_id=1", body.Error.Detail)
}

func TestCodeStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, InvalidParameter.Status())
	assert.Equal(t, http.StatusUnprocessableEntity, UnknownPosition.Status())
	assert.Equal(t, http.StatusNotFound, PlayerNotFound.Status())
	assert.Equal(t, http.StatusTooManyRequests, RateLimited.Status())
	assert.Equal(t, http.StatusInternalServerError, DataUnavailable.Status())
}

func TestWriteEngineError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"unknown position", &record.UnknownPositionError{Position: "goalkeeper"}, UnknownPosition},
		{"empty cohort", fmt.Errorf("rank: %w", &record.EmptyCohortError{Filter: "season_id=9"}), EmptyCohort},
		{"player not found", fmt.Errorf("%w: Z", standing.ErrPlayerNotFound), PlayerNotFound},
		{"bad query argument", &record.DataValidationError{Row: "query", Field: "season_name"}, InvalidParameter},
		{"bad stored row", &record.DataValidationError{Row: "12", Field: "minutes"}, DataError},
		{"anything else", errors.New("connection reset"), Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteEngineError(rec, tt.err)
			assert.Equal(t, tt.code.Status(), rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestWriteNotModified(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNotModified(rec, `W/"x"`)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}
