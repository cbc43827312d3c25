package mongodb

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/query"
)

// collection implements store.Repository over one MongoDB collection.
type collection[T any, P domain.Document[T]] struct {
	coll      *mongo.Collection
	entity    string
	schema    query.Schema
	notFound  error
	duplicate error
	logger    *slog.Logger
}

func newCollection[T any, P domain.Document[T]](
	db *mongo.Database,
	name, entity string,
	schema query.Schema,
	notFound, duplicate error,
	l *slog.Logger,
) collection[T, P] {
	if db == nil {
		panic("db cannot be nil")
	}
	if l == nil {
		l = slog.Default()
	}
	return collection[T, P]{
		coll:      db.Collection(name),
		entity:    entity,
		schema:    schema,
		notFound:  notFound,
		duplicate: duplicate,
		logger:    l.With(slog.String("component", entity+"_store")),
	}
}

func (c *collection[T, P]) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, c.logger)
}

func (c *collection[T, P]) mapError(err error, op string) error {
	return mapError(err, op+" "+c.entity, c.notFound, c.duplicate)
}

// filter renders predicates against this collection's schema.
func (c *collection[T, P]) filter(preds ...query.Predicate) (bson.D, error) {
	return renderFilter(preds, c.schema)
}

func (c *collection[T, P]) byID(id uuid.UUID, scope []query.Predicate) (bson.D, error) {
	return c.filter(append([]query.Predicate{query.Eq("id", id)}, scope...)...)
}

// Find implements store.Repository.
func (c *collection[T, P]) Find(ctx context.Context, q query.Query) ([]*T, error) {
	filter, err := c.filter(q.Filters...)
	if err != nil {
		return nil, err
	}

	cur, err := c.coll.Find(ctx, filter, findOptions(q))
	if err != nil {
		c.log(ctx).Error("find failed", slog.String("error", err.Error()))
		return nil, c.mapError(err, "find")
	}
	defer func() { _ = cur.Close(ctx) }()

	docs := make([]*T, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, c.mapError(err, "decode")
	}

	c.log(ctx).Debug("documents found", slog.Int("count", len(docs)))
	return docs, nil
}

// FindOne returns the first document matching the predicates.
func (c *collection[T, P]) FindOne(ctx context.Context, preds ...query.Predicate) (*T, error) {
	filter, err := c.filter(preds...)
	if err != nil {
		return nil, err
	}

	var doc T
	if err := c.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, c.mapError(err, "find one")
	}
	return &doc, nil
}

// FindByID implements store.Repository.
func (c *collection[T, P]) FindByID(ctx context.Context, id uuid.UUID, scope ...query.Predicate) (*T, error) {
	return c.FindOne(ctx, append([]query.Predicate{query.Eq("id", id)}, scope...)...)
}

// Insert implements store.Repository.
func (c *collection[T, P]) Insert(ctx context.Context, doc *T) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return c.mapError(err, "insert")
	}
	c.log(ctx).Debug("document inserted", slog.String("id", P(doc).Key().String()))
	return nil
}

// Replace implements store.Repository.
func (c *collection[T, P]) Replace(ctx context.Context, doc *T) error {
	id := P(doc).Key()
	res, err := c.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc)
	if err != nil {
		return c.mapError(err, "replace")
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(c.notFound, "replace %s %s", c.entity, id)
	}
	return nil
}

// Delete implements store.Repository.
func (c *collection[T, P]) Delete(ctx context.Context, id uuid.UUID, scope ...query.Predicate) error {
	filter, err := c.byID(id, scope)
	if err != nil {
		return err
	}

	res, err := c.coll.DeleteOne(ctx, filter)
	if err != nil {
		return c.mapError(err, "delete")
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(c.notFound, "delete %s %s", c.entity, id)
	}
	c.log(ctx).Debug("document deleted", slog.String("id", id.String()))
	return nil
}
