package itinerary

import (
	"fmt"
	"strings"

	"wanderplan/models"
)

// Patch is a partial itinerary edit. Nil fields are left as they are. Owner and collaborators
// are deliberately absent.
type Patch struct {
	Title       *string         `json:"title"`
	Destination *string         `json:"destination"`
	TotalDays   *int            `json:"totalDays"`
	Budget      *models.Amount  `json:"budget"`
	Interests   *[]string       `json:"interests"`
	StartDate   *string         `json:"startDate"`
	Days        *[]models.Day   `json:"days"`
	Summary     *models.Summary `json:"summary"`
	IsPublic    *bool           `json:"isPublic"`
}

func (p Patch) apply(it *models.Itinerary) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return fmt.Errorf("%w: title cannot be empty", ErrInvalidRequest)
		}
		it.Title = title
	}
	if p.Destination != nil {
		it.Destination = strings.TrimSpace(*p.Destination)
	}
	if p.TotalDays != nil {
		if *p.TotalDays <= 0 || *p.TotalDays > MaxDays {
			return fmt.Errorf("%w: totalDays must be between 1 and %d", ErrInvalidRequest, MaxDays)
		}
		it.TotalDays = *p.TotalDays
	}
	if p.Budget != nil {
		it.Budget = p.Budget.String()
	}
	if p.Interests != nil {
		it.Interests = trimAll(*p.Interests)
	}
	if p.StartDate != nil {
		date := strings.TrimSpace(*p.StartDate)
		if err := validDate(date); err != nil {
			return err
		}
		it.StartDate = date
	}
	if p.Days != nil {
		it.Days = *p.Days
	}
	if p.Summary != nil {
		it.Summary = *p.Summary
	}
	if p.IsPublic != nil {
		it.IsPublic = *p.IsPublic
	}
	it.EnsureSlices()
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
