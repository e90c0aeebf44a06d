package itinerary

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"wanderplan/db"
	"wanderplan/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists itineraries. Every method is a single-document operation.
type Store interface {
	Insert(ctx context.Context, it *models.Itinerary) error
	Get(ctx context.Context, id string) (*models.Itinerary, error)
	// ListFor returns what userID owns or collaborates on, most recently updated first.
	ListFor(ctx context.Context, userID string) ([]models.Itinerary, error)
	// Update writes the editable fields. Owner and collaborators are left untouched.
	Update(ctx context.Context, it *models.Itinerary) error
	Delete(ctx context.Context, id string) error
	// AddCollaborator reports false when userID was already in the set.
	AddCollaborator(ctx context.Context, id, userID string, at time.Time) (bool, error)
	RemoveCollaborator(ctx context.Context, id, userID string, at time.Time) error
}

type MongoStore struct{}

func NewMongoStore() *MongoStore { return &MongoStore{} }

func (MongoStore) coll(ctx context.Context) (*mongo.Collection, error) {
	return db.ItineraryCollection(ctx)
}

func (s MongoStore) Insert(ctx context.Context, it *models.Itinerary) error {
	coll, err := s.coll(ctx)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, it); err != nil {
		return fmt.Errorf("insert itinerary: %w", err)
	}
	return nil
}

func (s MongoStore) Get(ctx context.Context, id string) (*models.Itinerary, error) {
	coll, err := s.coll(ctx)
	if err != nil {
		return nil, err
	}
	var it models.Itinerary
	if err := coll.FindOne(ctx, bson.M{"itineraryid": id}).Decode(&it); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	it.EnsureSlices()
	return &it, nil
}

func (s MongoStore) ListFor(ctx context.Context, userID string) ([]models.Itinerary, error) {
	coll, err := s.coll(ctx)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := coll.Find(ctx, ListFilter(userID), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Itinerary
	for cursor.Next(ctx) {
		var it models.Itinerary
		if err := cursor.Decode(&it); err != nil {
			return nil, err
		}
		it.EnsureSlices()
		out = append(out, it)
	}
	return out, cursor.Err()
}

func (s MongoStore) Update(ctx context.Context, it *models.Itinerary) error {
	coll, err := s.coll(ctx)
	if err != nil {
		return err
	}
	set := bson.M{
		"title":       it.Title,
		"destination": it.Destination,
		"total_days":  it.TotalDays,
		"budget":      it.Budget,
		"interests":   it.Interests,
		"days":        it.Days,
		"summary":     it.Summary,
		"is_public":   it.IsPublic,
		"updated_at":  it.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if it.StartDate == "" {
		update["$unset"] = bson.M{"start_date": ""}
	} else {
		set["start_date"] = it.StartDate
	}
	res, err := coll.UpdateOne(ctx, bson.M{"itineraryid": it.ItineraryID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s MongoStore) Delete(ctx context.Context, id string) error {
	coll, err := s.coll(ctx)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"itineraryid": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCollaborator guards on the id being absent, so two concurrent adds of the same user
// cannot both succeed.
func (s MongoStore) AddCollaborator(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	coll, err := s.coll(ctx)
	if err != nil {
		return false, err
	}
	res, err := coll.UpdateOne(ctx,
		bson.M{"itineraryid": id, "collaborators": bson.M{"$ne": userID}},
		bson.M{
			"$addToSet": bson.M{"collaborators": userID},
			"$set":      bson.M{"updated_at": at},
		})
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	n, err := coll.CountDocuments(ctx, bson.M{"itineraryid": id})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

func (s MongoStore) RemoveCollaborator(ctx context.Context, id, userID string, at time.Time) error {
	coll, err := s.coll(ctx)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx,
		bson.M{"itineraryid": id},
		bson.M{
			"$pull": bson.M{"collaborators": userID},
			"$set":  bson.M{"updated_at": at},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MemoryStore is an in-process Store with the same semantics as MongoStore.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]models.Itinerary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]models.Itinerary{}}
}

// clone round-trips through BSON so callers never share slices with the store,
// and stored refs are bare ids just as they are in Mongo.
func clone(it *models.Itinerary) (models.Itinerary, error) {
	raw, err := bson.Marshal(it)
	if err != nil {
		return models.Itinerary{}, err
	}
	var out models.Itinerary
	if err := bson.Unmarshal(raw, &out); err != nil {
		return models.Itinerary{}, err
	}
	out.EnsureSlices()
	return out, nil
}

func (m *MemoryStore) Insert(_ context.Context, it *models.Itinerary) error {
	c, err := clone(it)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[it.ItineraryID]; ok {
		return fmt.Errorf("insert itinerary: duplicate id %s", it.ItineraryID)
	}
	m.docs[it.ItineraryID] = c
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Itinerary, error) {
	m.mu.RLock()
	it, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	c, err := clone(&it)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *MemoryStore) ListFor(_ context.Context, userID string) ([]models.Itinerary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Itinerary
	for _, it := range m.docs {
		if !Listable(userID, &it) {
			continue
		}
		c, err := clone(&it)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b models.Itinerary) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, it *models.Itinerary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[it.ItineraryID]
	if !ok {
		return ErrNotFound
	}
	next, err := clone(it)
	if err != nil {
		return err
	}
	next.Owner = cur.Owner
	next.Collaborators = cur.Collaborators
	next.CreatedAt = cur.CreatedAt
	m.docs[it.ItineraryID] = next
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *MemoryStore) AddCollaborator(_ context.Context, id, userID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.docs[id]
	if !ok {
		return false, ErrNotFound
	}
	if IsCollaborator(userID, &it) {
		return false, nil
	}
	it.Collaborators = append(slices.Clone(it.Collaborators), models.Reference(userID))
	it.UpdatedAt = at
	m.docs[id] = it
	return true, nil
}

func (m *MemoryStore) RemoveCollaborator(_ context.Context, id, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	it.Collaborators = slices.DeleteFunc(slices.Clone(it.Collaborators), func(c models.UserRef) bool { return c.Is(userID) })
	it.UpdatedAt = at
	m.docs[id] = it
	return nil
}
