package itinerary

import "errors"

var (
	// ErrNotFound also covers records the requester may not see, so their existence never leaks.
	ErrNotFound            = errors.New("itinerary not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrSelfCollaborator    = errors.New("cannot add yourself")
	ErrAlreadyCollaborator = errors.New("user is already a collaborator")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNoStartDate         = errors.New("itinerary has no start date")
)
