package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"wanderplan/models"
	"wanderplan/users"
)

// AddCollaborator grants the user registered under email read and edit access.
// Only the owner may call it. It returns the refreshed, expanded record.
func (s *Service) AddCollaborator(ctx context.Context, requesterID, id, email string) (*models.Itinerary, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}

	it, err := s.load(ctx, requesterID, id, OpAdminister)
	if err != nil {
		return nil, err
	}

	user, err := s.people.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if it.Owner.Is(user) {
		return nil, ErrSelfCollaborator
	}
	if IsCollaborator(user, it) {
		return nil, ErrAlreadyCollaborator
	}

	added, err := s.store.AddCollaborator(ctx, id, user.UserID, s.now())
	if err != nil {
		return nil, err
	}
	if !added {
		// Lost a race with a concurrent add of the same user.
		return nil, ErrAlreadyCollaborator
	}
	slog.Info("collaborator added", "itineraryid", id, "userid", user.UserID)
	s.notifier.Notify(id, ActionCollaboratorAdded, requesterID)
	return s.reload(ctx, id)
}

// RemoveCollaborator revokes access for userID. Removing a non-member is a no-op.
func (s *Service) RemoveCollaborator(ctx context.Context, requesterID, id, userID string) (*models.Itinerary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}

	it, err := s.load(ctx, requesterID, id, OpAdminister)
	if err != nil {
		return nil, err
	}
	member := IsCollaborator(userID, it)

	if err := s.store.RemoveCollaborator(ctx, id, userID, s.now()); err != nil {
		return nil, err
	}
	if member {
		slog.Info("collaborator removed", "itineraryid", id, "userid", userID)
		s.notifier.Notify(id, ActionCollaboratorRemoved, requesterID)
	}
	return s.reload(ctx, id)
}

func (s *Service) reload(ctx context.Context, id string) (*models.Itinerary, error) {
	it, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.expanded(ctx, it), nil
}
