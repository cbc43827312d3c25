package mongodb

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
)

// TourStore implements store.TourStore on the "tours" collection.
type TourStore struct {
	collection[domain.Tour, *domain.Tour]
}

var _ store.TourStore = (*TourStore)(nil)

// NewTourStore creates a TourStore.
func NewTourStore(db *mongo.Database, l *slog.Logger) *TourStore {
	return &TourStore{newCollection[domain.Tour, *domain.Tour](
		db, "tours", "tour", domain.TourSchema, store.ErrTourNotFound, store.ErrTourNameExists, l,
	)}
}

// Stats implements store.TourStore.
func (s *TourStore) Stats(ctx context.Context) ([]domain.TourStats, error) {
	match, err := s.filter(append(domain.VisibleTours(), query.Gte("ratingAverage", domain.StatsMinRating))...)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$toUpper", Value: "$difficulty"}}},
			{Key: "numTours", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "numRatings", Value: bson.D{{Key: "$sum", Value: "$ratingQuantity"}}},
			{Key: "avgRating", Value: bson.D{{Key: "$avg", Value: "$ratingAverage"}}},
			{Key: "avgPrice", Value: bson.D{{Key: "$avg", Value: "$price"}}},
			{Key: "minPrice", Value: bson.D{{Key: "$min", Value: "$price"}}},
			{Key: "maxPrice", Value: bson.D{{Key: "$max", Value: "$price"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgPrice", Value: 1}}}},
	}

	stats := make([]domain.TourStats, 0)
	if err := s.aggregate(ctx, pipeline, &stats); err != nil {
		return nil, s.mapError(err, "stats")
	}
	return stats, nil
}

// MonthlyPlan implements store.TourStore.
func (s *TourStore) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	visible, err := s.filter(domain.VisibleTours()...)
	if err != nil {
		return nil, err
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	window, err := s.filter(query.Gte("startDates", start), query.Lt("startDates", start.AddDate(1, 0, 0)))
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: visible}},
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: window}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$month", Value: "$startDates"}}},
			{Key: "numTourStarts", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "tours", Value: bson.D{{Key: "$push", Value: "$name"}}},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "month", Value: "$_id"}}}},
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
		{{Key: "$sort", Value: bson.D{{Key: "numTourStarts", Value: -1}, {Key: "month", Value: 1}}}},
		{{Key: "$limit", Value: domain.MonthlyPlanLimit}},
	}

	plan := make([]domain.MonthlyPlan, 0)
	if err := s.aggregate(ctx, pipeline, &plan); err != nil {
		return nil, s.mapError(err, "monthly plan")
	}
	return plan, nil
}

func (s *TourStore) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer func() { _ = cur.Close(ctx) }()
	return cur.All(ctx, out)
}
