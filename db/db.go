package db

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection       = "users"
	itinerariesCollection = "itineraries"
)

var (
	mu        sync.Mutex
	client    *mongo.Client
	database  *mongo.Database
	uri, name string

	dialTimeout = 10 * time.Second
	dial        = dialMongo
)

// Configure sets the connection target. It must be called before the first Connect.
func Configure(mongoURI, dbName string) {
	uri, name = mongoURI, dbName
}

// Connect returns the process-wide database handle, dialling it on first use.
// Only a successful dial is kept; after a failure the next call dials again.
// The dial runs on its own deadline so a cancelled request cannot break it.
func Connect(ctx context.Context) (*mongo.Database, error) {
	mu.Lock()
	defer mu.Unlock()
	if database != nil {
		return database, nil
	}

	dctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	c, d, err := dial(dctx)
	if err != nil {
		slog.Warn("mongo dial failed", "error", err)
		return nil, err
	}
	client, database = c, d
	return database, nil
}

func dialMongo(ctx context.Context) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(dialTimeout)
	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	d := c.Database(name)
	if err := ensureIndexes(ctx, d); err != nil {
		slog.Error("failed to create indexes", "error", err)
	}
	slog.Info("connected to mongo", "database", name)
	return c, d, nil
}

func UserCollection(ctx context.Context) (*mongo.Collection, error) {
	d, err := Connect(ctx)
	if err != nil {
		return nil, err
	}
	return d.Collection(usersCollection), nil
}

func ItineraryCollection(ctx context.Context) (*mongo.Collection, error) {
	d, err := Connect(ctx)
	if err != nil {
		return nil, err
	}
	return d.Collection(itinerariesCollection), nil
}

// Disconnect closes the client if one was created.
func Disconnect(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()
	if client == nil {
		return nil
	}
	err := client.Disconnect(ctx)
	client, database = nil, nil
	return err
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	_, err := d.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userid", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}
	_, err = d.Collection(itinerariesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "itineraryid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "collaborators", Value: 1}}},
	})
	return err
}
