package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
)

// TourIDParam is the parent path parameter of nested review routes.
const TourIDParam = "tourId"

// ReviewHandler serves reviews, standalone or nested under a tour.
type ReviewHandler = Resource[domain.Review, *domain.Review]

// NewReviewHandler creates a ReviewHandler. A new review defaults to the
// authenticated author and the tour in the path.
func NewReviewHandler(reviews store.ReviewStore, errs ErrorRenderer, l *slog.Logger) *ReviewHandler {
	return NewResource[domain.Review, *domain.Review](ResourceConfig[domain.Review]{
		Name:         "review",
		Repo:         reviews,
		ParentParam:  TourIDParam,
		ParentField:  "tour",
		BeforeCreate: setReviewRefs,
		Errors:       errs,
		Logger:       l,
	})
}

func setReviewRefs(r *http.Request, rev *domain.Review) error {
	if rev.User == uuid.Nil {
		if u := shared.GetUser(r.Context()); u != nil {
			rev.User = u.ID
		}
	}
	if rev.Tour == uuid.Nil {
		if raw := chi.URLParam(r, TourIDParam); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return &query.CastError{Field: "tour", Value: raw}
			}
			rev.Tour = id
		}
	}
	return nil
}
