package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/natours-api/internal/store"
)

// SQLSTATE codes the stores react to.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// codeErrors classifies constraint failures by SQLSTATE.
var codeErrors = map[string]error{
	uniqueViolationCode:     store.ErrDuplicate,
	foreignKeyViolationCode: store.ErrInvalidEntity,
	checkViolationCode:      store.ErrInvalidEntity,
	notNullViolationCode:    store.ErrInvalidEntity,
}

// constraintErrors names the entity error of each unique constraint declared
// in the migrations.
var constraintErrors = map[string]error{
	"tours_name_key":        store.ErrTourNameExists,
	"users_email_key":       store.ErrEmailExists,
	"reviews_tour_user_key": store.ErrReviewExists,
}

// MapError maps a database error to the store error it represents, keeping
// the driver error in the message.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code == uniqueViolationCode {
		if named, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w: %v", named, err)
		}
	}
	if sentinel, ok := codeErrors[pgErr.Code]; ok {
		subject := pgErr.ConstraintName
		if subject == "" {
			subject = pgErr.ColumnName
		}
		return fmt.Errorf("%w (%s): %v", sentinel, subject, err)
	}
	return err
}

// mapEntityError is MapError with no rows reported as notFound and any
// unique violation as duplicate.
func mapEntityError(err error, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound
	case IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", duplicate, err)
	}
	return MapError(err)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// checkRowsAffected returns notFound when a write matched no row.
func checkRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("nil result provided to checkRowsAffected")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
