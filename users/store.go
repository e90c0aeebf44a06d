// Package users stores accounts, resolves user ids to display records and serves the profile endpoints.
package users

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wanderplan/db"
	"wanderplan/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrEmailTaken = errors.New("email already registered")
	ErrNotFound   = errors.New("user not found")
)

type Store interface {
	Create(ctx context.Context, u *models.User) error
	ByID(ctx context.Context, id string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByIDs(ctx context.Context, ids []string) ([]models.User, error)
	Save(ctx context.Context, u *models.User) error
}

// MongoStore keeps users in the users collection, keyed by userid.
type MongoStore struct{}

func NewMongoStore() *MongoStore { return &MongoStore{} }

func (MongoStore) Create(ctx context.Context, u *models.User) error {
	coll, err := db.UserCollection(ctx)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s MongoStore) ByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"userid": id})
}

func (s MongoStore) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (MongoStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	coll, err := db.UserCollection(ctx)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (MongoStore) ByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	coll, err := db.UserCollection(ctx)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Find(ctx, bson.M{"userid": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.User
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (MongoStore) Save(ctx context.Context, u *models.User) error {
	coll, err := db.UserCollection(ctx)
	if err != nil {
		return err
	}
	res, err := coll.ReplaceOne(ctx, bson.M{"userid": u.UserID}, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MemoryStore is an in-process Store used by tests and local runs without Mongo.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]models.User
	email map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]models.User{}, email: map[string]string{}}
}

func (m *MemoryStore) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.NormalizeEmail(u.Email)
	if _, ok := m.email[key]; ok {
		return ErrEmailTaken
	}
	m.byID[u.UserID] = *u
	m.email[key] = u.UserID
	return nil
}

func (m *MemoryStore) ByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) ByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	id, ok := m.email[models.NormalizeEmail(email)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.ByID(ctx, id)
}

func (m *MemoryStore) ByIDs(_ context.Context, ids []string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := m.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.byID[u.UserID]
	if !ok {
		return ErrNotFound
	}
	key := models.NormalizeEmail(u.Email)
	if owner, taken := m.email[key]; taken && owner != u.UserID {
		return ErrEmailTaken
	}
	delete(m.email, models.NormalizeEmail(old.Email))
	m.byID[u.UserID] = *u
	m.email[key] = u.UserID
	return nil
}
