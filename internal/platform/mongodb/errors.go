package mongodb

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/phrazzld/natours-api/internal/store"
)

// mapError translates driver errors into store errors, attaching a stack
// trace and the failed operation.
func mapError(err error, op string, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errors.Wrap(notFound, op)
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrapf(duplicate, "%s: %s", op, err.Error())
	}
	return errors.Wrapf(errors.WithStack(err), "%s", op)
}

// IsNotFound reports whether err is a store not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
