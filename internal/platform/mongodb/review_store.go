package mongodb

import (
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/store"
)

// ReviewStore implements store.ReviewStore on the "reviews" collection.
type ReviewStore struct {
	collection[domain.Review, *domain.Review]
}

var _ store.ReviewStore = (*ReviewStore)(nil)

// NewReviewStore creates a ReviewStore.
func NewReviewStore(db *mongo.Database, l *slog.Logger) *ReviewStore {
	return &ReviewStore{newCollection[domain.Review, *domain.Review](
		db, "reviews", "review", domain.ReviewSchema, store.ErrReviewNotFound, store.ErrReviewExists, l,
	)}
}
