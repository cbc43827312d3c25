package mocks

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
)

// TourStore is an in-memory store.TourStore.
type TourStore struct {
	*Repository[domain.Tour, *domain.Tour]
}

var _ store.TourStore = (*TourStore)(nil)

// NewTourStore creates an empty TourStore enforcing unique names.
func NewTourStore() *TourStore {
	return &TourStore{NewRepository[domain.Tour, *domain.Tour](
		domain.TourSchema, store.ErrTourNotFound, store.ErrTourNameExists, []string{"name"},
	)}
}

// Stats implements store.TourStore.
func (s *TourStore) Stats(ctx context.Context) ([]domain.TourStats, error) {
	tours, err := s.Find(ctx, query.Query{
		Filters: append(domain.VisibleTours(), query.Gte("ratingAverage", domain.StatsMinRating)),
	})
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*domain.TourStats)
	order := make([]string, 0)
	for _, t := range tours {
		key := strings.ToUpper(string(t.Difficulty))
		g, ok := groups[key]
		if !ok {
			g = &domain.TourStats{Difficulty: key, MinPrice: t.Price, MaxPrice: t.Price}
			groups[key] = g
			order = append(order, key)
		}
		g.NumTours++
		g.NumRatings += t.RatingQuantity
		g.AvgRating += t.RatingAverage
		g.AvgPrice += t.Price
		g.MinPrice = min(g.MinPrice, t.Price)
		g.MaxPrice = max(g.MaxPrice, t.Price)
	}

	out := make([]domain.TourStats, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.AvgRating /= float64(g.NumTours)
		g.AvgPrice /= float64(g.NumTours)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgPrice < out[j].AvgPrice })
	return out, nil
}

// MonthlyPlan implements store.TourStore.
func (s *TourStore) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	tours, err := s.Find(ctx, query.Query{
		Filters: domain.VisibleTours(),
		Sort:    []query.SortField{{Field: "createdAt"}},
	})
	if err != nil {
		return nil, err
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	byMonth := make(map[int]*domain.MonthlyPlan)
	for _, t := range tours {
		for _, d := range t.StartDates {
			if d.Before(from) || !d.Before(to) {
				continue
			}
			m := int(d.UTC().Month())
			p, ok := byMonth[m]
			if !ok {
				p = &domain.MonthlyPlan{Month: m, Tours: []string{}}
				byMonth[m] = p
			}
			p.NumTourStarts++
			p.Tours = append(p.Tours, t.Name)
		}
	}

	out := make([]domain.MonthlyPlan, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NumTourStarts != out[j].NumTourStarts {
			return out[i].NumTourStarts > out[j].NumTourStarts
		}
		return out[i].Month < out[j].Month
	})
	if len(out) > domain.MonthlyPlanLimit {
		out = out[:domain.MonthlyPlanLimit]
	}
	return out, nil
}

// UserStore is an in-memory store.UserStore.
type UserStore struct {
	*Repository[domain.User, *domain.User]
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates an empty UserStore enforcing unique emails.
func NewUserStore() *UserStore {
	return &UserStore{NewRepository[domain.User, *domain.User](
		domain.UserSchema, store.ErrUserNotFound, store.ErrEmailExists, []string{"email"},
	)}
}

// FindByEmail implements store.UserStore.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.FindOne(ctx, append(domain.ActiveUsers(), query.Eq("email", domain.NormalizeEmail(email)))...)
}

// FindByResetToken implements store.UserStore.
func (s *UserStore) FindByResetToken(ctx context.Context, digest string, now time.Time) (*domain.User, error) {
	return s.FindOne(ctx, append(domain.ActiveUsers(),
		query.Eq("passwordResetToken", digest),
		query.Predicate{Field: "passwordResetExpires", Op: query.OpGt, Value: now.UTC()},
	)...)
}

// ReviewStore is an in-memory store.ReviewStore.
type ReviewStore struct {
	*Repository[domain.Review, *domain.Review]
}

var _ store.ReviewStore = (*ReviewStore)(nil)

// NewReviewStore creates an empty ReviewStore allowing one review per tour
// and user.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{NewRepository[domain.Review, *domain.Review](
		domain.ReviewSchema, store.ErrReviewNotFound, store.ErrReviewExists, []string{"tour", "user"},
	)}
}
