// Package ingest turns free-form model output into a validated itinerary.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"wanderplan/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
)

// Defaults are the caller's request parameters, used for fields the payload leaves out.
type Defaults struct {
	Destination string
	TotalDays   int
	Budget      string
	Interests   []string
}

// MaxDays bounds the day count accepted from generated content.
const MaxDays = 30

// payload is the top-level object. Every field is lenient: an off-type value is
// read as text where that makes sense and otherwise treated as absent.
type payload struct {
	Title       flexString      `json:"title"`
	Destination flexString      `json:"destination"`
	TotalDays   flexInt         `json:"totalDays"`
	Budget      flexAmount      `json:"budget"`
	Interests   flexList        `json:"interests"`
	Days        json.RawMessage `json:"days"`
	Summary     json.RawMessage `json:"summary"`
}

var errNotObject = errors.New("top-level value is not a JSON object")

var policy = bluemonday.StrictPolicy()

// Parse decodes raw with the first strategy that yields a JSON object, validates the day list
// and backfills top-level fields from d. Day and activity content is never invented.
func Parse(raw string, d Defaults) (*models.Itinerary, error) {
	p, err := decode(raw)
	if err != nil {
		return nil, err
	}

	days, err := validateDays(p.Days, raw)
	if err != nil {
		return nil, err
	}

	it := &models.Itinerary{
		Destination: clean(string(p.Destination)),
		Budget:      clean(p.Budget.String()),
		Interests:   cleanList(p.Interests),
		Days:        days,
	}
	if it.Destination == "" {
		it.Destination = strings.TrimSpace(d.Destination)
	}
	if it.Budget == "" {
		it.Budget = strings.TrimSpace(d.Budget)
	}
	if len(it.Interests) == 0 {
		it.Interests = cleanList(d.Interests)
	}

	switch {
	case p.TotalDays > 0:
		it.TotalDays = int(p.TotalDays)
	case d.TotalDays > 0:
		it.TotalDays = d.TotalDays
	default:
		it.TotalDays = len(days)
	}

	if sum, ok := decodeSummary(p.Summary); ok {
		it.Summary = models.Summary{
			TotalEstimatedCost: sum.TotalEstimatedCost.Amount,
			Highlights:         cleanList(sum.Highlights),
			Tips:               cleanList(sum.Tips),
		}
	}

	it.Title = clean(string(p.Title))
	if it.Title == "" {
		it.Title = DefaultTitle(it.TotalDays, it.Destination)
	}

	it.Collaborators = []models.UserRef{}
	it.IsPublic = false
	it.EnsureSlices()
	return it, nil
}

// DefaultTitle names an itinerary that was created without one.
func DefaultTitle(days int, destination string) string {
	if destination == "" {
		return fmt.Sprintf("%d-Day Trip", days)
	}
	return fmt.Sprintf("%d-Day Trip to %s", days, destination)
}

func decode(raw string) (*payload, error) {
	var firstErr error
	for _, s := range strategies {
		candidate, ok := s.extract(raw)
		if !ok {
			continue
		}
		candidate = strings.TrimSpace(candidate)
		var p payload
		err := json.Unmarshal([]byte(candidate), &p)
		if err == nil && !strings.HasPrefix(candidate, "{") {
			err = errNotObject
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return &p, nil
	}
	return nil, &ValidationError{Err: ErrUnparseable, Cause: firstErr, Preview: preview(raw)}
}

func validateDays(field json.RawMessage, raw string) ([]models.Day, error) {
	field = bytes.TrimSpace(field)
	if len(field) == 0 || bytes.Equal(field, []byte("null")) {
		return nil, &ValidationError{Err: ErrMissingDays, Preview: preview(raw)}
	}
	if field[0] != '[' {
		return nil, &ValidationError{Err: ErrInvalidDays, Preview: preview(raw)}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(field, &elems); err != nil {
		return nil, &ValidationError{Err: ErrInvalidDays, Cause: err, Preview: preview(raw)}
	}
	if len(elems) == 0 {
		return nil, &ValidationError{Err: ErrEmptyDays, Preview: preview(raw)}
	}

	days := make([]models.Day, 0, len(elems))
	for i, elem := range elems {
		if !isObject(elem) {
			return nil, &ValidationError{
				Err:     ErrInvalidDays,
				Cause:   fmt.Errorf("day %d is not an object", i+1),
				Preview: preview(raw),
			}
		}
		var rd rawDay
		if err := json.Unmarshal(elem, &rd); err != nil {
			return nil, &ValidationError{Err: ErrInvalidDays, Cause: err, Preview: preview(raw)}
		}
		days = append(days, rd.toDay())
	}
	return days, nil
}

func decodeSummary(field json.RawMessage) (rawSummary, bool) {
	var sum rawSummary
	if !isObject(field) {
		return sum, false
	}
	if err := json.Unmarshal(field, &sum); err != nil {
		return sum, false
	}
	return sum, true
}

// clean strips any markup the model emitted and leaves plain text.
func clean(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

func cleanList(in []string) []string {
	out := lo.FilterMap(in, func(s string, _ int) (string, bool) {
		s = clean(s)
		return s, s != ""
	})
	if out == nil {
		return []string{}
	}
	return out
}
