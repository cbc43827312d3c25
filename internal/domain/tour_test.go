package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTour() *Tour {
	return &Tour{
		Name:         "  The Forest Hiker ",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   DifficultyEasy,
		Price:        397,
		Summary:      " Breathtaking hike through the Canadian Banff National Park ",
		ImageCover:   "tour-1-cover.jpg",
	}
}

func TestTourLifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()
	tour := validTour()

	tour.Init(id, now)
	tour.BeforeSave(now)

	require.NoError(t, tour.Validate())
	assert.Equal(t, id, tour.ID)
	assert.Equal(t, now, tour.CreatedAt)
	assert.Equal(t, DefaultRatingAverage, tour.RatingAverage)
	assert.Equal(t, "The Forest Hiker", tour.Name)
	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, "Breathtaking hike through the Canadian Banff National Park", tour.Summary)
	assert.NotNil(t, tour.Images)
	assert.NotNil(t, tour.StartDates)
}

func TestTourBeforeSave_RoundsRating(t *testing.T) {
	t.Parallel()

	tour := validTour()
	tour.RatingAverage = 4.666666

	tour.BeforeSave(time.Now())

	assert.Equal(t, 4.7, tour.RatingAverage)
}

func TestTourValidate(t *testing.T) {
	t.Parallel()

	discount := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		mutate  func(*Tour)
		message string
	}{
		{"missing name", func(t *Tour) { t.Name = "" }, "A tour must have a name"},
		{"short name", func(t *Tour) { t.Name = "Short" }, "A tour name must have more or equal then 10 characters"},
		{"long name", func(t *Tour) { t.Name = "An Exceedingly Long Tour Name That Goes On" }, "A tour name must have less or equal then 40 characters"},
		{"symbols in name", func(t *Tour) { t.Name = "The Forest Hiker!" }, "A tour name must only contain letters, numbers and spaces"},
		{"bad difficulty", func(t *Tour) { t.Difficulty = "extreme" }, "Difficulty is either: easy, medium, difficult"},
		{"rating too high", func(t *Tour) { t.RatingAverage = 5.5 }, "Rating must be below 5.0"},
		{"discount above price", func(t *Tour) { t.PriceDiscount = discount(500) }, "Discount price (500) should be below regular price"},
		{"missing cover", func(t *Tour) { t.ImageCover = "" }, "A tour must have a cover image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tour := validTour()
			tour.Init(uuid.New(), time.Now())
			tt.mutate(tour)

			err := tour.Validate()

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var derr *Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, KindValidation, derr.Kind)
			assert.Contains(t, derr.Details, tt.message)
		})
	}
}

func TestTourValidate_DiscountBelowPrice(t *testing.T) {
	t.Parallel()

	tour := validTour()
	tour.Init(uuid.New(), time.Now())
	discount := 100.0
	tour.PriceDiscount = &discount

	assert.NoError(t, tour.Validate())
}

func TestTourValidate_AggregatesMessages(t *testing.T) {
	t.Parallel()

	err := (&Tour{RatingAverage: DefaultRatingAverage}).Validate()

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.GreaterOrEqual(t, len(derr.Details), 5)
	assert.Contains(t, derr.Message, "Invalid input data. A tour must have a name")
}

func TestTourJSON_DurationWeeks(t *testing.T) {
	t.Parallel()

	tour := validTour()
	tour.Duration = 14

	data, err := json.Marshal(tour)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 2.0, doc["durationWeeks"])
	assert.Equal(t, "  The Forest Hiker ", doc["name"])
	assert.Contains(t, doc, "__v")
}
