package ingest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"wanderplan/models"

	"github.com/samber/lo"
)

type rawActivity struct {
	Time        flexString `json:"time"`
	Title       flexString `json:"title"`
	Description flexString `json:"description"`
	Location    flexString `json:"location"`
	Duration    flexString `json:"duration"`
	Category    flexString `json:"category"`
	Cost        flexAmount `json:"cost"`
}

type rawDay struct {
	Activities    json.RawMessage `json:"activities"`
	EstimatedCost flexAmount      `json:"estimatedCost"`
	Notes         flexString      `json:"notes"`
}

type rawSummary struct {
	TotalEstimatedCost flexAmount `json:"totalEstimatedCost"`
	Highlights         flexList   `json:"highlights"`
	Tips               flexList   `json:"tips"`
}

// toDay keeps the activities that are objects. An off-type activities field
// leaves the day with no activities.
func (rd rawDay) toDay() models.Day {
	day := models.Day{
		Activities:    []models.Activity{},
		EstimatedCost: rd.EstimatedCost.Amount,
		Notes:         clean(string(rd.Notes)),
	}
	var elems []json.RawMessage
	if len(rd.Activities) == 0 || rd.Activities[0] != '[' || json.Unmarshal(rd.Activities, &elems) != nil {
		return day
	}
	for _, elem := range elems {
		if !isObject(elem) {
			continue
		}
		var ra rawActivity
		if json.Unmarshal(elem, &ra) != nil {
			continue
		}
		day.Activities = append(day.Activities, models.Activity{
			Time:        clean(string(ra.Time)),
			Title:       clean(string(ra.Title)),
			Description: clean(string(ra.Description)),
			Location:    clean(string(ra.Location)),
			Duration:    clean(string(ra.Duration)),
			Category:    clean(string(ra.Category)),
			Cost:        ra.Cost.Amount,
		})
	}
	return day
}

func isObject(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

// flexString accepts a string, or a number or boolean as its literal text.
// Objects and arrays are treated as absent.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	*s = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
	case '{', '[', 'n':
	default:
		*s = flexString(data)
	}
	return nil
}

// flexAmount is models.Amount with objects and arrays treated as absent.
type flexAmount struct {
	models.Amount
}

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	a.Amount = models.Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '{' || data[0] == '[' {
		return nil
	}
	return a.Amount.UnmarshalJSON(data)
}

// flexInt accepts 3, 3.0 or "3". Counts outside 1..MaxDays, and anything
// non-numeric, are treated as absent.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	*n = 0
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !(f >= 1 && f <= MaxDays) {
		return nil
	}
	*n = flexInt(f)
	return nil
}

// flexList accepts ["a","b"] or "a, b". Non-string items are read as text
// where possible; any other shape is treated as absent.
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	*l = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = lo.Map(strings.Split(s, ","), func(p string, _ int) string { return strings.TrimSpace(p) })
	case '[':
		var items []flexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = lo.Map(items, func(it flexString, _ int) string { return string(it) })
	}
	return nil
}
