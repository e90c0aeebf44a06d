package itinerary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wanderplan/models"

	ics "github.com/arran4/golang-ical"
)

const (
	floatingLayout  = "20060102T150405"
	defaultDuration = time.Hour
)

var durationRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(h|hr|hrs|hour|hours|m|min|mins|minute|minutes)\b`)

// RenderICS emits one event per activity. Times are floating (no zone) because the itinerary
// carries no timezone; labels that are not clock times become all-day events.
func RenderICS(it *models.Itinerary, link string, stamp time.Time) (string, error) {
	start, ok := parseDate(it.StartDate)
	if !ok {
		return "", ErrNoStartDate
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//wanderplan//itinerary export//EN")
	cal.SetXWRCalName(it.Title)

	for i, day := range it.Days {
		date := start.AddDate(0, 0, i)
		for j, a := range day.Activities {
			ev := cal.AddEvent(fmt.Sprintf("%s-%d-%d@wanderplan", it.ItineraryID, i+1, j+1))
			ev.SetDtStampTime(stamp)
			ev.SetSummary(a.Title)

			if at, ok := clockTime(date, a.Time); ok {
				ev.SetProperty(ics.ComponentPropertyDtStart, at.Format(floatingLayout))
				ev.SetProperty(ics.ComponentPropertyDtEnd, at.Add(parseDuration(a.Duration)).Format(floatingLayout))
			} else {
				ev.SetAllDayStartAt(date)
				ev.SetAllDayEndAt(date.AddDate(0, 0, 1))
			}

			location := a.Location
			if location == "" {
				location = it.Destination
			}
			ev.SetLocation(location)

			desc := a.Description
			if !a.Cost.IsZero() {
				desc = strings.TrimSpace(desc + "\nCost: " + a.Cost.String())
			}
			if desc != "" {
				ev.SetDescription(desc)
			}
			if link != "" {
				ev.SetURL(link)
			}
		}
	}
	return cal.Serialize(), nil
}

// clockTime accepts "09:00", "9:00", "9:00 PM" and "9pm".
func clockTime(date time.Time, label string) (time.Time, bool) {
	label = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(label), " ", ""))
	for _, layout := range []string{"15:04", "3:04PM", "3PM"} {
		if t, err := time.Parse(layout, label); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseDuration(label string) time.Duration {
	m := durationRe.FindStringSubmatch(label)
	if m == nil {
		return defaultDuration
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil || n <= 0 {
		return defaultDuration
	}
	if strings.HasPrefix(strings.ToLower(m[2]), "h") {
		return time.Duration(n * float64(time.Hour))
	}
	return time.Duration(n * float64(time.Minute))
}
