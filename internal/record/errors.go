package record

import "fmt"

// DataValidationError reports a malformed or missing required field.
type DataValidationError struct {
	Row   string // row key or 1-based row number
	Field string
	Value string
	Err   error
}

func (e *DataValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s at row %s", e.Field, e.Row)
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataValidationError) Unwrap() error { return e.Err }

// UnknownPositionError reports a position that no metric-group rule covers.
type UnknownPositionError struct {
	Position string
}

func (e *UnknownPositionError) Error() string {
	return fmt.Sprintf("no metric group covers position %q", e.Position)
}

// EmptyCohortError reports a ranking call whose filtered cohort has no rows.
type EmptyCohortError struct {
	Filter string
}

func (e *EmptyCohortError) Error() string {
	return "empty cohort for " + e.Filter
}
