// Package itinerary owns the itinerary lifecycle: generation, manual creation, reads, edits,
// deletion, collaborator management and exports, all gated by Resolve.
package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"wanderplan/agi"
	"wanderplan/ingest"
	"wanderplan/metrics"
	"wanderplan/models"
	"wanderplan/users"
	"wanderplan/utils"
)

const (
	MaxDays    = ingest.MaxDays
	dateLayout = "2006-01-02"
)

// Notice actions published after successful mutations.
const (
	ActionUpdated             = "updated"
	ActionDeleted             = "deleted"
	ActionCollaboratorAdded   = "collaborator_added"
	ActionCollaboratorRemoved = "collaborator_removed"
)

type Generator interface {
	Generate(ctx context.Context, req agi.TripRequest) (*agi.Result, error)
}

// Notifier tells live readers of an itinerary that it changed.
type Notifier interface {
	Notify(itineraryID, action, by string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, string) {}

type Service struct {
	store    Store
	people   users.Store
	dir      *users.Directory
	gen      Generator
	notifier Notifier
	metrics  metrics.Recorder
	now      func() time.Time
}

func NewService(store Store, people users.Store, dir *users.Directory, gen Generator, n Notifier, rec metrics.Recorder) *Service {
	if n == nil {
		n = nopNotifier{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{
		store:    store,
		people:   people,
		dir:      dir,
		gen:      gen,
		notifier: n,
		metrics:  rec,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type GenerateRequest struct {
	Destination string
	Days        int
	Budget      string
	Interests   []string
	StartDate   string
}

func (r *GenerateRequest) validate() error {
	r.Destination = strings.TrimSpace(r.Destination)
	r.Budget = strings.TrimSpace(r.Budget)
	var missing []string
	if r.Destination == "" {
		missing = append(missing, "destination")
	}
	if r.Days <= 0 {
		missing = append(missing, "days")
	}
	if r.Budget == "" {
		missing = append(missing, "budget")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	if r.Days > MaxDays {
		return fmt.Errorf("%w: days must be at most %d", ErrInvalidRequest, MaxDays)
	}
	return validDate(r.StartDate)
}

func validDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrInvalidRequest)
	}
	return nil
}

// Generate asks the model for a plan, validates it and stores it as a new private itinerary.
func (s *Service) Generate(ctx context.Context, requesterID string, req GenerateRequest) (*models.Itinerary, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	res, err := s.gen.Generate(ctx, agi.TripRequest{
		Destination: req.Destination,
		Days:        req.Days,
		Budget:      req.Budget,
		Interests:   req.Interests,
	})
	if err != nil {
		return nil, err
	}

	it, err := ingest.Parse(res.Text, ingest.Defaults{
		Destination: req.Destination,
		TotalDays:   req.Days,
		Budget:      req.Budget,
		Interests:   req.Interests,
	})
	if err != nil {
		var ve *ingest.ValidationError
		if errors.As(err, &ve) {
			s.metrics.RecordIngestFailure(ve.Reason())
		}
		slog.Warn("generated itinerary rejected", "model", res.Model, "error", err)
		return nil, err
	}

	it.StartDate = req.StartDate
	if err := s.insert(ctx, requesterID, it); err != nil {
		return nil, err
	}
	slog.Info("itinerary generated", "itineraryid", it.ItineraryID, "model", res.Model, "days", len(it.Days))
	return s.expanded(ctx, it), nil
}

// CreateManual stores caller-supplied content as a new private itinerary.
func (s *Service) CreateManual(ctx context.Context, requesterID string, p Patch) (*models.Itinerary, error) {
	it := &models.Itinerary{}
	if err := p.apply(it); err != nil {
		return nil, err
	}
	if it.Destination == "" {
		return nil, fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	}
	if it.TotalDays == 0 {
		it.TotalDays = len(it.Days)
	}
	if it.TotalDays <= 0 {
		return nil, fmt.Errorf("%w: totalDays or days is required", ErrInvalidRequest)
	}
	if it.Title == "" {
		it.Title = ingest.DefaultTitle(it.TotalDays, it.Destination)
	}
	it.IsPublic = false
	it.Collaborators = []models.UserRef{}

	if err := s.insert(ctx, requesterID, it); err != nil {
		return nil, err
	}
	return s.expanded(ctx, it), nil
}

func (s *Service) insert(ctx context.Context, requesterID string, it *models.Itinerary) error {
	now := s.now()
	it.ItineraryID = utils.GetUUID()
	it.Owner = models.Reference(requesterID)
	it.CreatedAt = now
	it.UpdatedAt = now
	it.EnsureSlices()
	return s.store.Insert(ctx, it)
}

// load fetches an itinerary and checks op, collapsing "forbidden" into ErrNotFound.
func (s *Service) load(ctx context.Context, requesterID, id string, op Op) (*models.Itinerary, error) {
	it, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Resolve(requesterID, it, op) {
		slog.Debug("itinerary access denied", "itineraryid", id, "userid", requesterID, "op", op)
		return nil, ErrNotFound
	}
	return it, nil
}

func (s *Service) Get(ctx context.Context, requesterID, id string) (*models.Itinerary, error) {
	it, err := s.load(ctx, requesterID, id, OpRead)
	if err != nil {
		return nil, err
	}
	return s.expanded(ctx, it), nil
}

// CanRead is used by the live notice endpoint before subscribing a reader.
func (s *Service) CanRead(ctx context.Context, requesterID, id string) bool {
	_, err := s.load(ctx, requesterID, id, OpRead)
	return err == nil
}

// List returns the itineraries the requester owns or collaborates on, newest update first.
func (s *Service) List(ctx context.Context, requesterID string) ([]models.Itinerary, error) {
	found, err := s.store.ListFor(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	out := slices.DeleteFunc(found, func(it models.Itinerary) bool { return !Listable(requesterID, &it) })
	slices.SortStableFunc(out, func(a, b models.Itinerary) int { return b.UpdatedAt.Compare(a.UpdatedAt) })

	ptrs := make([]*models.Itinerary, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	s.expand(ctx, ptrs...)
	if out == nil {
		out = []models.Itinerary{}
	}
	return out, nil
}

// Update applies a partial edit. The last writer wins.
func (s *Service) Update(ctx context.Context, requesterID, id string, p Patch) (*models.Itinerary, error) {
	it, err := s.load(ctx, requesterID, id, OpMutate)
	if err != nil {
		return nil, err
	}
	if err := p.apply(it); err != nil {
		return nil, err
	}
	if it.TotalDays <= 0 {
		return nil, fmt.Errorf("%w: totalDays must be positive", ErrInvalidRequest)
	}
	it.UpdatedAt = s.now()
	it.EnsureSlices()
	if err := s.store.Update(ctx, it); err != nil {
		return nil, err
	}
	s.notifier.Notify(id, ActionUpdated, requesterID)
	return s.expanded(ctx, it), nil
}

// Delete removes the itinerary permanently. Only the owner may do this.
func (s *Service) Delete(ctx context.Context, requesterID, id string) error {
	if _, err := s.load(ctx, requesterID, id, OpDelete); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.notifier.Notify(id, ActionDeleted, requesterID)
	slog.Info("itinerary deleted", "itineraryid", id, "userid", requesterID)
	return nil
}

func (s *Service) expanded(ctx context.Context, it *models.Itinerary) *models.Itinerary {
	s.expand(ctx, it)
	return it
}

// expand resolves owners and collaborators of all given itineraries with one directory call.
func (s *Service) expand(ctx context.Context, its ...*models.Itinerary) {
	if s.dir == nil || len(its) == 0 {
		return
	}
	var refs []models.UserRef
	for _, it := range its {
		refs = append(refs, it.Owner)
		refs = append(refs, it.Collaborators...)
	}
	resolved := s.dir.Expand(ctx, refs)

	i := 0
	for _, it := range its {
		it.Owner = resolved[i]
		i++
		for j := range it.Collaborators {
			it.Collaborators[j] = resolved[i]
			i++
		}
	}
}
