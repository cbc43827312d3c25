package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
)

// YearParam is the path parameter of the monthly plan.
const YearParam = "year"

// TourHandler serves tours: the generic resource plus the aggregations.
type TourHandler struct {
	*Resource[domain.Tour, *domain.Tour]
	tours store.TourStore
	errs  ErrorRenderer
}

// NewTourHandler creates a TourHandler. A single tour is served with its
// reviews.
func NewTourHandler(tours store.TourStore, reviews store.ReviewStore, errs ErrorRenderer, l *slog.Logger) *TourHandler {
	return &TourHandler{
		Resource: NewResource[domain.Tour, *domain.Tour](ResourceConfig[domain.Tour]{
			Name:   "tour",
			Repo:   tours,
			Scope:  domain.VisibleTours,
			Expand: expandReviews(reviews),
			Errors: errs,
			Logger: l,
		}),
		tours: tours,
		errs:  errs,
	}
}

func expandReviews(reviews store.ReviewStore) func(context.Context, *domain.Tour, map[string]any) error {
	return func(ctx context.Context, t *domain.Tour, out map[string]any) error {
		docs, err := reviews.Find(ctx, query.Query{
			Filters: []query.Predicate{query.Eq("tour", t.ID)},
			Sort:    query.DefaultSort,
		})
		if err != nil {
			return err
		}
		out["reviews"] = docs
		return nil
	}
}

// AliasTopTours rewrites the query to the five cheapest, best rated tours.
func AliasTopTours(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "price,-ratingAverage")
		r2 := r.Clone(r.Context())
		r2.URL.RawQuery = q.Encode()
		next.ServeHTTP(w, r2)
	})
}

// Stats handles GET /tours/tour-stats.
func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tours.Stats(r.Context())
	if err != nil {
		h.errs.Render(w, r, err)
		return
	}
	shared.RespondData(w, r, http.StatusOK, map[string]any{"stats": stats})
}

// MonthlyPlan handles GET /tours/monthly-plan/{year}.
func (h *TourHandler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, YearParam)
	year, err := strconv.Atoi(raw)
	if err != nil {
		h.errs.Render(w, r, &query.CastError{Field: YearParam, Value: raw})
		return
	}

	plan, err := h.tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		h.errs.Render(w, r, err)
		return
	}
	n := len(plan)
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Envelope{
		Status:  shared.StatusSuccess,
		Results: &n,
		Data:    map[string]any{"plan": plan},
	})
}
