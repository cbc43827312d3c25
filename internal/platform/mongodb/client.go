// Package mongodb implements the store interfaces on MongoDB, the default
// document store. Documents use the JSON field names of the domain types as
// keys, with ids stored in _id as binary UUIDs.
package mongodb

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// connectTimeout bounds the initial connect and ping.
const connectTimeout = 10 * time.Second

// DB wraps a connected client and its database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client for uri, verifies it with a ping and selects the
// named database.
func Connect(ctx context.Context, uri, name string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(NewRegistry()))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging MongoDB")
	}

	return &DB{client: client, db: client.Database(name)}, nil
}

// Database returns the selected database.
func (d *DB) Database() *mongo.Database {
	return d.db
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the stores rely on. Unique indexes back
// the duplicate errors reported by Insert and Replace.
func EnsureIndexes(ctx context.Context, db *mongo.Database, l *slog.Logger) error {
	if l == nil {
		l = slog.Default()
	}
	indexes := map[string][]mongo.IndexModel{
		"tours": {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingAverage", Value: -1}}},
			{Keys: bson.D{{Key: "slug", Value: 1}}},
		},
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "passwordResetToken", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		"reviews": {
			{Keys: bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for name, models := range indexes {
		created, err := db.Collection(name).Indexes().CreateMany(ctx, models)
		if err != nil {
			return errors.Wrapf(err, "creating indexes on %s", name)
		}
		l.Debug("indexes ensured", slog.String("collection", name), slog.Any("indexes", created))
	}
	return nil
}
