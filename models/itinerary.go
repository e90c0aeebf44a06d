package models

import "time"

// Itinerary represents one planned trip, its day-by-day schedule and who may see or edit it.
type Itinerary struct {
	ItineraryID   string    `json:"id" bson:"itineraryid"`
	Owner         UserRef   `json:"owner" bson:"owner"`
	Title         string    `json:"title" bson:"title"`
	Destination   string    `json:"destination" bson:"destination"`
	TotalDays     int       `json:"totalDays" bson:"total_days"`
	Budget        string    `json:"budget" bson:"budget"` // free-form, may carry currency symbols
	Interests     []string  `json:"interests" bson:"interests"`
	StartDate     string    `json:"startDate,omitempty" bson:"start_date,omitempty"` // YYYY-MM-DD
	Days          []Day     `json:"days" bson:"days"`
	Summary       Summary   `json:"summary" bson:"summary"`
	Collaborators []UserRef `json:"collaborators" bson:"collaborators"`
	IsPublic      bool      `json:"isPublic" bson:"is_public"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updated_at"`
}

// Day is one entry of the schedule. Its ordinal is its position in Itinerary.Days.
type Day struct {
	Activities    []Activity `json:"activities" bson:"activities"`
	EstimatedCost Amount     `json:"estimatedCost,omitzero" bson:"estimated_cost,omitempty"`
	Notes         string     `json:"notes,omitempty" bson:"notes,omitempty"`
}

type Activity struct {
	Time        string `json:"time" bson:"time"` // "09:00", "Morning", ...
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	Location    string `json:"location,omitempty" bson:"location,omitempty"`
	Duration    string `json:"duration,omitempty" bson:"duration,omitempty"`
	Category    string `json:"category,omitempty" bson:"category,omitempty"`
	Cost        Amount `json:"cost,omitzero" bson:"cost,omitempty"`
}

type Summary struct {
	TotalEstimatedCost Amount   `json:"totalEstimatedCost,omitzero" bson:"total_estimated_cost,omitempty"`
	Highlights         []string `json:"highlights" bson:"highlights"`
	Tips               []string `json:"tips" bson:"tips"`
}

// EnsureSlices replaces nil collections with empty ones so clients always see arrays.
func (it *Itinerary) EnsureSlices() {
	if it.Interests == nil {
		it.Interests = []string{}
	}
	if it.Days == nil {
		it.Days = []Day{}
	}
	for i := range it.Days {
		if it.Days[i].Activities == nil {
			it.Days[i].Activities = []Activity{}
		}
	}
	if it.Summary.Highlights == nil {
		it.Summary.Highlights = []string{}
	}
	if it.Summary.Tips == nil {
		it.Summary.Tips = []string{}
	}
	if it.Collaborators == nil {
		it.Collaborators = []UserRef{}
	}
}

// CollaboratorIDs returns the normalized ids of the collaborator set.
func (it *Itinerary) CollaboratorIDs() []string {
	ids := make([]string, 0, len(it.Collaborators))
	for _, c := range it.Collaborators {
		ids = append(ids, c.Key())
	}
	return ids
}
