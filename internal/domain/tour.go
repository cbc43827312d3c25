package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/phrazzld/natours-api/internal/query"
)

// Difficulty grades how demanding a tour is.
type Difficulty string

// Tour difficulties.
const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// DefaultRatingAverage is assigned to tours created without ratings.
const DefaultRatingAverage = 4.5

// Tour is a bookable trip.
type Tour struct {
	ID             uuid.UUID   `json:"id"                      bson:"_id"`
	Name           string      `json:"name"                    bson:"name"                    validate:"required,min=10,max=40,alphanumspace"`
	Slug           string      `json:"slug"                    bson:"slug"`
	Secret         bool        `json:"secret"                  bson:"secret"`
	Duration       int         `json:"duration"                bson:"duration"                validate:"required,gt=0"`
	MaxGroupSize   int         `json:"maxGroupSize"            bson:"maxGroupSize"            validate:"required,gt=0"`
	Difficulty     Difficulty  `json:"difficulty"              bson:"difficulty"              validate:"required,oneof=easy medium difficult"`
	Price          float64     `json:"price"                   bson:"price"                   validate:"required,gt=0"`
	PriceDiscount  *float64    `json:"priceDiscount,omitempty" bson:"priceDiscount,omitempty" validate:"omitempty,gte=0,ltfield=Price"`
	RatingAverage  float64     `json:"ratingAverage"           bson:"ratingAverage"           validate:"gte=1,lte=5"`
	RatingQuantity int         `json:"ratingQuantity"          bson:"ratingQuantity"          validate:"gte=0"`
	Summary        string      `json:"summary"                 bson:"summary"                 validate:"required"`
	Description    string      `json:"description,omitempty"   bson:"description,omitempty"`
	ImageCover     string      `json:"imageCover"              bson:"imageCover"              validate:"required"`
	Images         []string    `json:"images"                  bson:"images"`
	StartDates     []time.Time `json:"startDates"              bson:"startDates"`
	CreatedAt      time.Time   `json:"createdAt"               bson:"createdAt"`
	Version        int         `json:"__v"                     bson:"__v"`
}

// TourSchema lists the fields clients may filter and sort tours by.
var TourSchema = query.Schema{
	"id":             query.ID,
	"name":           query.String,
	"slug":           query.String,
	"secret":         query.Bool,
	"duration":       query.Int,
	"maxGroupSize":   query.Int,
	"difficulty":     query.String,
	"price":          query.Number,
	"priceDiscount":  query.Number,
	"ratingAverage":  query.Number,
	"ratingQuantity": query.Int,
	"summary":        query.String,
	"description":    query.String,
	"imageCover":     query.String,
	"images":         query.StringList,
	"startDates":     query.TimeList,
	"createdAt":      query.Time,
	"__v":            query.Int,
}

var tourMessages = messages{
	"name.required":         "A tour must have a name",
	"name.min":              "A tour name must have more or equal then 10 characters",
	"name.max":              "A tour name must have less or equal then 40 characters",
	"name.alphanumspace":    "A tour name must only contain letters, numbers and spaces",
	"duration.required":     "A tour must have a duration",
	"duration.gt":           "A tour duration must be positive",
	"maxGroupSize.required": "A tour must have a group size",
	"maxGroupSize.gt":       "A tour group size must be positive",
	"difficulty.required":   "A tour must have a difficulty",
	"difficulty.oneof":      "Difficulty is either: easy, medium, difficult",
	"price.required":        "A tour must have a price",
	"price.gt":              "A tour price must be positive",
	"priceDiscount.ltfield": "Discount price (%v) should be below regular price",
	"priceDiscount.gte":     "Discount price must not be negative",
	"ratingAverage.gte":     "Rating must be above 1.0",
	"ratingAverage.lte":     "Rating must be below 5.0",
	"ratingQuantity.gte":    "Rating quantity must not be negative",
	"summary.required":      "A tour must have a summary",
	"imageCover.required":   "A tour must have a cover image",
}

// VisibleTours is the read scope applied to every default tour query.
func VisibleTours() []query.Predicate {
	return []query.Predicate{query.Ne("secret", true)}
}

// Key returns the tour id.
func (t *Tour) Key() uuid.UUID { return t.ID }

// Meta returns the insert-time fields of the tour.
func (t *Tour) Meta() Meta {
	return Meta{ID: t.ID, CreatedAt: t.CreatedAt, Version: t.Version}
}

// SetMeta restores the insert-time fields.
func (t *Tour) SetMeta(m Meta) {
	t.ID, t.CreatedAt, t.Version = m.ID, m.CreatedAt, m.Version
}

// Init prepares a new tour for insertion.
func (t *Tour) Init(id uuid.UUID, now time.Time) {
	t.ID = id
	t.CreatedAt = now.UTC()
	t.Version = 0
	if t.RatingAverage == 0 {
		t.RatingAverage = DefaultRatingAverage
	}
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
}

// BeforeSave normalizes text fields and re-derives the slug.
func (t *Tour) BeforeSave(time.Time) {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.Slug = slug.Make(t.Name)
	t.RatingAverage = math.Round(t.RatingAverage*10) / 10
}

// Validate checks the tour against its field rules.
func (t *Tour) Validate() error {
	return validateStruct(t, tourMessages)
}

// DurationWeeks is the tour length in weeks.
func (t Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

// MarshalJSON adds the derived durationWeeks field.
func (t Tour) MarshalJSON() ([]byte, error) {
	type plain Tour
	return json.Marshal(struct {
		plain
		DurationWeeks float64 `json:"durationWeeks"`
	}{plain(t), t.DurationWeeks()})
}

// TourStats summarizes highly rated tours of one difficulty.
type TourStats struct {
	Difficulty string  `json:"_id"        bson:"_id"`
	NumTours   int     `json:"numTours"   bson:"numTours"`
	NumRatings int     `json:"numRatings" bson:"numRatings"`
	AvgRating  float64 `json:"avgRating"  bson:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"   bson:"avgPrice"`
	MinPrice   float64 `json:"minPrice"   bson:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"   bson:"maxPrice"`
}

// StatsMinRating is the rating threshold for tour statistics.
const StatsMinRating = 4.5

// MonthlyPlan lists the tours starting in one month.
type MonthlyPlan struct {
	Month         int      `json:"month"         bson:"month"`
	NumTourStarts int      `json:"numTourStarts" bson:"numTourStarts"`
	Tours         []string `json:"tours"         bson:"tours"`
}

// MonthlyPlanLimit caps how many months the plan reports.
const MonthlyPlanLimit = 3
