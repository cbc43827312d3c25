package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is implemented by pointers to the stored entities. The generic
// resource handlers drive every entity through the same lifecycle with it:
// Init on create, BeforeSave and Validate before every write.
type Document[T any] interface {
	*T
	Key() uuid.UUID
	Meta() Meta
	SetMeta(m Meta)
	Init(id uuid.UUID, now time.Time)
	BeforeSave(now time.Time)
	Validate() error
}

// Meta holds the fields a document gets on insert. Client payloads never
// change them.
type Meta struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Version   int
}
