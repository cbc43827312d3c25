package postgres

import (
	"log/slog"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/store"
)

var reviewColumns = columns{
	col(domain.ReviewSchema, "id", "id"),
	col(domain.ReviewSchema, "review", "review"),
	col(domain.ReviewSchema, "rating", "rating"),
	col(domain.ReviewSchema, "tour", "tour_id"),
	col(domain.ReviewSchema, "user", "user_id"),
	col(domain.ReviewSchema, "createdAt", "created_at"),
	col(domain.ReviewSchema, "__v", "version"),
}

func reviewValues(r *domain.Review) ([]any, error) {
	return []any{r.ID, r.Review, r.Rating, r.Tour, r.User, r.CreatedAt, r.Version}, nil
}

func scanReview(s scanner) (*domain.Review, error) {
	var r domain.Review
	if err := s.Scan(&r.ID, &r.Review, &r.Rating, &r.Tour, &r.User, &r.CreatedAt, &r.Version); err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

// ReviewStore implements store.ReviewStore on the reviews table.
type ReviewStore struct {
	table[domain.Review, *domain.Review]
}

var _ store.ReviewStore = (*ReviewStore)(nil)

// NewReviewStore creates a ReviewStore. A review naming a missing tour or
// user is rejected with store.ErrInvalidEntity.
func NewReviewStore(db store.DBTX, l *slog.Logger) *ReviewStore {
	return &ReviewStore{newTable[domain.Review, *domain.Review](db, mapping[domain.Review]{
		table:     "reviews",
		entity:    "review",
		columns:   reviewColumns,
		values:    reviewValues,
		scan:      scanReview,
		notFound:  store.ErrReviewNotFound,
		duplicate: store.ErrReviewExists,
	}, l)}
}
