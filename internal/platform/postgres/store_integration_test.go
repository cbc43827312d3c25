//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/postgres"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
	"github.com/phrazzld/natours-api/internal/testdb"
)

func newTour(name string, price float64, secret bool, starts ...time.Time) *domain.Tour {
	now := time.Now()
	t := &domain.Tour{
		Name:         name,
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   domain.DifficultyEasy,
		Price:        price,
		Summary:      "A tour",
		ImageCover:   "cover.jpg",
		Images:       []string{"a.jpg", "b.jpg"},
		Secret:       secret,
		StartDates:   starts,
	}
	t.Init(uuid.New(), now)
	t.BeforeSave(now)
	return t
}

func newUser(email string) *domain.User {
	now := time.Now()
	u := &domain.User{Name: "Test User", Email: email}
	u.Init(uuid.New(), now)
	u.SetPassword("$2a$12$hash", now)
	u.BeforeSave(now)
	return u
}

func TestTourStore(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewTourStore(tx, nil)

		jan := time.Date(2021, time.January, 10, 9, 0, 0, 0, time.UTC)
		mar := time.Date(2021, time.March, 10, 9, 0, 0, 0, time.UTC)
		forest := newTour("The Forest Hiker", 397, false, jan, mar)
		sea := newTour("The Sea Explorer", 497, false, mar)
		hidden := newTour("The Secret Valley", 997, true, mar)
		for _, tour := range []*domain.Tour{forest, sea, hidden} {
			require.NoError(t, s.Insert(ctx, tour))
		}

		got, err := s.FindByID(ctx, forest.ID)
		require.NoError(t, err)
		assert.Equal(t, forest.Name, got.Name)
		assert.Equal(t, "the-forest-hiker", got.Slug)
		assert.Equal(t, []string{"a.jpg", "b.jpg"}, got.Images)
		require.Len(t, got.StartDates, 2)
		assert.True(t, jan.Equal(got.StartDates[0]))

		q := query.New(query.Query{Filters: domain.VisibleTours()}, map[string][]string{
			"price[gte]": {"400"},
		}).Filter().Sort().Query
		found, err := s.Find(ctx, q)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, sea.ID, found[0].ID)

		_, err = s.FindByID(ctx, hidden.ID, domain.VisibleTours()...)
		assert.ErrorIs(t, err, store.ErrTourNotFound)

		plan, err := s.MonthlyPlan(ctx, 2021)
		require.NoError(t, err)
		require.Len(t, plan, 2)
		assert.Equal(t, 3, plan[0].Month)
		assert.Equal(t, 2, plan[0].NumTourStarts)
		assert.ElementsMatch(t, []string{forest.Name, sea.Name}, plan[0].Tours)

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, "EASY", stats[0].Difficulty)
		assert.Equal(t, 2, stats[0].NumTours)
		assert.InDelta(t, 447, stats[0].AvgPrice, 0.001)

		sea.Price = 550
		require.NoError(t, s.Replace(ctx, sea))
		require.NoError(t, s.Delete(ctx, sea.ID))
		assert.ErrorIs(t, s.Delete(ctx, sea.ID), store.ErrTourNotFound)
	})
}

func TestTourStoreDuplicateName(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewTourStore(tx, nil)

		require.NoError(t, s.Insert(ctx, newTour("The Duplicate Tour", 100, false)))
		err := s.Insert(ctx, newTour("The Duplicate Tour", 200, false))

		assert.ErrorIs(t, err, store.ErrTourNameExists)
		assert.Equal(t, "name", store.DuplicateField(err))
	})
}

func TestUserStore(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewUserStore(tx, nil)
		now := time.Now().UTC()

		u := newUser("Store.User@Example.com")
		u.SetPasswordReset("digest", now.Add(10*time.Minute))
		require.NoError(t, s.Insert(ctx, u))

		got, err := s.FindByEmail(ctx, "store.user@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, domain.RoleUser, got.Role)
		assert.Equal(t, u.PasswordHash, got.PasswordHash)

		got, err = s.FindByResetToken(ctx, "digest", now)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = s.FindByResetToken(ctx, "digest", now.Add(time.Hour))
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		u.Active = false
		require.NoError(t, s.Replace(ctx, u))
		_, err = s.FindByEmail(ctx, "store.user@example.com")
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		// A failed statement aborts the transaction, so this goes last.
		assert.ErrorIs(t, s.Insert(ctx, newUser("store.user@example.com")), store.ErrEmailExists)
	})
}

func TestReviewStore(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		tours := postgres.NewTourStore(tx, nil)
		users := postgres.NewUserStore(tx, nil)
		reviews := postgres.NewReviewStore(tx, nil)

		tour := newTour("The Reviewed Tour", 300, false)
		user := newUser("reviewer@example.com")
		require.NoError(t, tours.Insert(ctx, tour))
		require.NoError(t, users.Insert(ctx, user))

		r := &domain.Review{Review: "Lovely", Rating: 5, Tour: tour.ID, User: user.ID}
		r.Init(uuid.New(), time.Now())
		require.NoError(t, reviews.Insert(ctx, r))

		found, err := reviews.Find(ctx, query.Query{Filters: []query.Predicate{query.Eq("tour", tour.ID)}})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Lovely", found[0].Review)

		dup := &domain.Review{Review: "Again", Rating: 4, Tour: tour.ID, User: user.ID}
		dup.Init(uuid.New(), time.Now())
		assert.ErrorIs(t, reviews.Insert(ctx, dup), store.ErrReviewExists)
	})
}

func TestReviewStoreMissingTour(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		users := postgres.NewUserStore(tx, nil)
		reviews := postgres.NewReviewStore(tx, nil)

		user := newUser("orphan.reviewer@example.com")
		require.NoError(t, users.Insert(ctx, user))

		orphan := &domain.Review{Review: "Nowhere", Rating: 3, Tour: uuid.New(), User: user.ID}
		orphan.Init(uuid.New(), time.Now())
		assert.ErrorIs(t, reviews.Insert(ctx, orphan), store.ErrInvalidEntity)
	})
}
