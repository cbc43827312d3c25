package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/natours-api/internal/query"
)

// Review is one user's rating of one tour.
type Review struct {
	ID        uuid.UUID `json:"id"        bson:"_id"`
	Review    string    `json:"review"    bson:"review"    validate:"required"`
	Rating    float64   `json:"rating"    bson:"rating"    validate:"required,gte=1,lte=5"`
	Tour      uuid.UUID `json:"tour"      bson:"tour"      validate:"required"`
	User      uuid.UUID `json:"user"      bson:"user"      validate:"required"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	Version   int       `json:"__v"       bson:"__v"`
}

// ReviewSchema lists the fields clients may filter and sort reviews by.
var ReviewSchema = query.Schema{
	"id":        query.ID,
	"review":    query.String,
	"rating":    query.Number,
	"tour":      query.ID,
	"user":      query.ID,
	"createdAt": query.Time,
	"__v":       query.Int,
}

var reviewMessages = messages{
	"review.required": "Review can not be empty!",
	"rating.required": "A review must have a rating",
	"rating.gte":      "Rating must be above 1.0",
	"rating.lte":      "Rating must be below 5.0",
	"tour.required":   "Review must belong to a tour.",
	"user.required":   "Review must belong to a user",
}

// Key returns the review id.
func (r *Review) Key() uuid.UUID { return r.ID }

// Meta returns the insert-time fields of the review.
func (r *Review) Meta() Meta {
	return Meta{ID: r.ID, CreatedAt: r.CreatedAt, Version: r.Version}
}

// SetMeta restores the insert-time fields.
func (r *Review) SetMeta(m Meta) {
	r.ID, r.CreatedAt, r.Version = m.ID, m.CreatedAt, m.Version
}

// Init prepares a new review for insertion.
func (r *Review) Init(id uuid.UUID, now time.Time) {
	r.ID = id
	r.CreatedAt = now.UTC()
	r.Version = 0
}

// BeforeSave trims the review text.
func (r *Review) BeforeSave(time.Time) {
	r.Review = strings.TrimSpace(r.Review)
}

// Validate checks the review against its field rules.
func (r *Review) Validate() error {
	return validateStruct(r, reviewMessages)
}
