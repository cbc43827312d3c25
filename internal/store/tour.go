package store

import (
	"context"

	"github.com/phrazzld/natours-api/internal/domain"
)

// TourStore defines the interface for tour data persistence.
type TourStore interface {
	Repository[domain.Tour]

	// Stats aggregates visible tours rated at least domain.StatsMinRating,
	// grouped by upper-cased difficulty and ordered by average price.
	Stats(ctx context.Context) ([]domain.TourStats, error)

	// MonthlyPlan counts the start dates of visible tours falling in year,
	// grouped by month, busiest months first, at most
	// domain.MonthlyPlanLimit months.
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error)
}

// ReviewStore defines the interface for review data persistence.
// Reviews need nothing beyond the generic contract; uniqueness of
// (tour, user) is reported as ErrReviewExists.
type ReviewStore interface {
	Repository[domain.Review]
}
