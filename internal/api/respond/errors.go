package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/albapepper/scoracle-rankings/internal/record"
	"github.com/albapepper/scoracle-rankings/internal/standing"
)

// Code is a machine-readable error code. Each code carries its HTTP status.
type Code string

const (
	InvalidParameter Code = "INVALID_PARAMETER"
	UnknownPosition  Code = "UNKNOWN_POSITION"
	EmptyCohort      Code = "EMPTY_COHORT"
	PlayerNotFound   Code = "PLAYER_NOT_FOUND"
	RateLimited      Code = "RATE_LIMITED"
	DataError        Code = "DATA_ERROR"
	DataUnavailable  Code = "DATA_UNAVAILABLE"
	EncodeFailed     Code = "ENCODE_FAILED"
	Internal         Code = "INTERNAL_ERROR"
)

// Status returns the HTTP status sent with the code.
func (c Code) Status() int {
	switch c {
	case InvalidParameter:
		return http.StatusBadRequest
	case UnknownPosition:
		return http.StatusUnprocessableEntity
	case EmptyCohort, PlayerNotFound:
		return http.StatusNotFound
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	} `json:"error"`
}

// WriteError sends the error envelope with the code's status.
func WriteError(w http.ResponseWriter, code Code, message string) {
	WriteErrorDetail(w, code, message, "")
}

// WriteErrorDetail is WriteError with a detail string, typically the
// underlying error or the cohort filter that matched nothing.
func WriteErrorDetail(w http.ResponseWriter, code Code, message, detail string) {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Detail = detail
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code.Status())
	json.NewEncoder(w).Encode(resp)
}

// WriteEngineError maps a ranking or standing failure onto its code.
// A DataValidationError raised while checking query arguments (Row "query")
// is the caller's fault; any other one means the stored table is bad.
func WriteEngineError(w http.ResponseWriter, err error) {
	var (
		unknown *record.UnknownPositionError
		empty   *record.EmptyCohortError
		invalid *record.DataValidationError
	)
	switch {
	case errors.As(err, &unknown):
		WriteError(w, UnknownPosition, err.Error())
	case errors.As(err, &empty):
		WriteErrorDetail(w, EmptyCohort, "No players match the cohort", empty.Filter)
	case errors.Is(err, standing.ErrPlayerNotFound):
		WriteError(w, PlayerNotFound, err.Error())
	case errors.As(err, &invalid) && invalid.Row == "query":
		WriteError(w, InvalidParameter, err.Error())
	case errors.As(err, &invalid):
		WriteErrorDetail(w, DataError, "Stored data failed validation", err.Error())
	default:
		WriteErrorDetail(w, Internal, "Ranking failed", err.Error())
	}
}
