package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
)

func col(s query.Schema, field, name string) column {
	return column{field: field, name: name, kind: s[field]}
}

var tourColumns = columns{
	col(domain.TourSchema, "id", "id"),
	col(domain.TourSchema, "name", "name"),
	col(domain.TourSchema, "slug", "slug"),
	col(domain.TourSchema, "secret", "secret"),
	col(domain.TourSchema, "duration", "duration"),
	col(domain.TourSchema, "maxGroupSize", "max_group_size"),
	col(domain.TourSchema, "difficulty", "difficulty"),
	col(domain.TourSchema, "price", "price"),
	col(domain.TourSchema, "priceDiscount", "price_discount"),
	col(domain.TourSchema, "ratingAverage", "rating_average"),
	col(domain.TourSchema, "ratingQuantity", "rating_quantity"),
	col(domain.TourSchema, "summary", "summary"),
	col(domain.TourSchema, "description", "description"),
	col(domain.TourSchema, "imageCover", "image_cover"),
	col(domain.TourSchema, "images", "images"),
	col(domain.TourSchema, "startDates", "start_dates"),
	col(domain.TourSchema, "createdAt", "created_at"),
	col(domain.TourSchema, "__v", "version"),
}

func tourValues(t *domain.Tour) ([]any, error) {
	images, err := jsonList(t.Images)
	if err != nil {
		return nil, err
	}
	starts, err := jsonList(t.StartDates)
	if err != nil {
		return nil, err
	}

	var discount sql.NullFloat64
	if t.PriceDiscount != nil {
		discount = sql.NullFloat64{Float64: *t.PriceDiscount, Valid: true}
	}

	return []any{
		t.ID, t.Name, t.Slug, t.Secret, t.Duration, t.MaxGroupSize, string(t.Difficulty),
		t.Price, discount, t.RatingAverage, t.RatingQuantity, t.Summary, t.Description,
		t.ImageCover, images, starts, t.CreatedAt, t.Version,
	}, nil
}

func scanTour(s scanner) (*domain.Tour, error) {
	var (
		t              domain.Tour
		difficulty     string
		discount       sql.NullFloat64
		images, starts []byte
	)
	err := s.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Secret, &t.Duration, &t.MaxGroupSize, &difficulty,
		&t.Price, &discount, &t.RatingAverage, &t.RatingQuantity, &t.Summary, &t.Description,
		&t.ImageCover, &images, &starts, &t.CreatedAt, &t.Version,
	)
	if err != nil {
		return nil, err
	}

	t.Difficulty = domain.Difficulty(difficulty)
	t.CreatedAt = t.CreatedAt.UTC()
	if discount.Valid {
		t.PriceDiscount = &discount.Float64
	}
	if t.Images, err = decodeList[string](images); err != nil {
		return nil, err
	}
	if t.StartDates, err = decodeList[time.Time](starts); err != nil {
		return nil, err
	}
	for i := range t.StartDates {
		t.StartDates[i] = t.StartDates[i].UTC()
	}
	return &t, nil
}

// TourStore implements store.TourStore on the tours table.
type TourStore struct {
	table[domain.Tour, *domain.Tour]
}

var _ store.TourStore = (*TourStore)(nil)

// NewTourStore creates a TourStore. db may be a connection or a transaction.
func NewTourStore(db store.DBTX, l *slog.Logger) *TourStore {
	return &TourStore{newTable[domain.Tour, *domain.Tour](db, mapping[domain.Tour]{
		table:     "tours",
		entity:    "tour",
		columns:   tourColumns,
		values:    tourValues,
		scan:      scanTour,
		notFound:  store.ErrTourNotFound,
		duplicate: store.ErrTourNameExists,
	}, l)}
}

// Stats implements store.TourStore.
func (s *TourStore) Stats(ctx context.Context) ([]domain.TourStats, error) {
	var a args
	where, err := renderWhere(&a,
		append(domain.VisibleTours(), query.Gte("ratingAverage", domain.StatsMinRating)), tourColumns)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf(`
		SELECT UPPER(difficulty), COUNT(*), COALESCE(SUM(rating_quantity), 0),
			AVG(rating_average), AVG(price), MIN(price), MAX(price)
		FROM tours
		WHERE %s
		GROUP BY UPPER(difficulty)
		ORDER BY AVG(price) ASC`, where)

	rows, err := s.db.QueryContext(ctx, stmt, a.values...)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer func() { _ = rows.Close() }()

	stats := make([]domain.TourStats, 0)
	for rows.Next() {
		var st domain.TourStats
		if err := rows.Scan(&st.Difficulty, &st.NumTours, &st.NumRatings,
			&st.AvgRating, &st.AvgPrice, &st.MinPrice, &st.MaxPrice); err != nil {
			return nil, fmt.Errorf("failed to scan tour stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, s.mapError(rows.Err())
}

// MonthlyPlan implements store.TourStore.
func (s *TourStore) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	var a args
	where, err := renderWhere(&a, domain.VisibleTours(), tourColumns)
	if err != nil {
		return nil, err
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	from := a.add(start, "::timestamptz")
	to := a.add(start.AddDate(1, 0, 0), "::timestamptz")
	limit := a.add(domain.MonthlyPlanLimit, "")

	stmt := fmt.Sprintf(`
		SELECT month, COUNT(*) AS num_tour_starts, jsonb_agg(name) AS tours
		FROM (
			SELECT name, e.v::timestamptz AS start_date,
				EXTRACT(MONTH FROM e.v::timestamptz AT TIME ZONE 'UTC')::int AS month
			FROM tours CROSS JOIN LATERAL jsonb_array_elements_text(start_dates) AS e(v)
			WHERE %s
		) starts
		WHERE start_date >= %s AND start_date < %s
		GROUP BY month
		ORDER BY num_tour_starts DESC, month ASC
		LIMIT %s`, where, from, to, limit)

	rows, err := s.db.QueryContext(ctx, stmt, a.values...)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer func() { _ = rows.Close() }()

	plan := make([]domain.MonthlyPlan, 0)
	for rows.Next() {
		var (
			p     domain.MonthlyPlan
			tours []byte
		)
		if err := rows.Scan(&p.Month, &p.NumTourStarts, &tours); err != nil {
			return nil, fmt.Errorf("failed to scan monthly plan: %w", err)
		}
		if p.Tours, err = decodeList[string](tours); err != nil {
			return nil, err
		}
		plan = append(plan, p)
	}
	return plan, s.mapError(rows.Err())
}
