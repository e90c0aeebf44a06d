package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrUnparseable = errors.New("generated content is not a valid itinerary object")
	ErrMissingDays = errors.New("generated itinerary is missing the days field")
	ErrInvalidDays = errors.New("generated itinerary days field is not a list of days")
	ErrEmptyDays   = errors.New("generated itinerary has an empty days list")
)

const previewMaxRunes = 200

// ValidationError is returned for every rejected payload. Err is one of the sentinels above.
type ValidationError struct {
	Err     error
	Cause   error
	Preview string
}

func (e *ValidationError) Error() string {
	msg := e.Err.Error()
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Preview != "" {
		msg = fmt.Sprintf("%s (received: %q)", msg, e.Preview)
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Reason is a short machine label for metrics and logs.
func (e *ValidationError) Reason() string {
	switch {
	case errors.Is(e.Err, ErrMissingDays):
		return "missing_days"
	case errors.Is(e.Err, ErrInvalidDays):
		return "invalid_days"
	case errors.Is(e.Err, ErrEmptyDays):
		return "empty_days"
	default:
		return "unparseable"
	}
}

func preview(raw string) string {
	r := []rune(raw)
	if len(r) <= previewMaxRunes {
		return raw
	}
	return string(r[:previewMaxRunes]) + "…"
}
