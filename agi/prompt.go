package agi

import (
	"fmt"
	"strings"
)

const SystemPrompt = "You are an experienced travel planner. Reply with one JSON object only, without markdown or commentary."

const payloadShape = `{
  "title": string,
  "destination": string,
  "totalDays": number,
  "budget": string,
  "interests": [string],
  "days": [
    {
      "activities": [
        {"time": "HH:MM or Morning/Afternoon/Evening", "title": string, "description": string,
         "location": string, "duration": string, "category": string, "cost": number or string}
      ],
      "estimatedCost": number or string,
      "notes": string
    }
  ],
  "summary": {"totalEstimatedCost": number or string, "highlights": [string], "tips": [string]}
}`

// BuildPrompt renders the user prompt for one trip request.
func BuildPrompt(req TripRequest) string {
	interests := "general sightseeing"
	if len(req.Interests) > 0 {
		interests = strings.Join(req.Interests, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Plan a %d-day trip to %s with a total budget of %s.\n", req.Days, req.Destination, req.Budget)
	fmt.Fprintf(&b, "The traveller is interested in: %s.\n", interests)
	fmt.Fprintf(&b, "Return exactly %d entries in \"days\", in order, each with 3 to 5 activities.\n", req.Days)
	b.WriteString("Keep costs realistic for the budget and use the local currency where it is obvious.\n")
	b.WriteString("The JSON object must have this shape:\n")
	b.WriteString(payloadShape)
	return b.String()
}
