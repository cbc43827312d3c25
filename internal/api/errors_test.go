package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/service/auth"
	"github.com/phrazzld/natours-api/internal/store"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		err         error
		status      int
		message     string
		operational bool
	}{
		{
			name:        "domain error",
			err:         auth.ErrIncorrectLogin,
			status:      http.StatusUnauthorized,
			message:     "Incorrect email or password",
			operational: true,
		},
		{
			name:        "validation error",
			err:         domain.NewValidationError("A tour must have a name"),
			status:      http.StatusBadRequest,
			message:     "Invalid input data. A tour must have a name",
			operational: true,
		},
		{
			name:        "forbidden",
			err:         domain.ErrForbidden,
			status:      http.StatusForbidden,
			message:     "You have no permission to do this action.",
			operational: true,
		},
		{
			name:        "cast error",
			err:         &query.CastError{Field: "_id", Value: "wwwww"},
			status:      http.StatusBadRequest,
			message:     "Invalid _id: wwwww",
			operational: true,
		},
		{
			name:        "duplicate with value",
			err:         &DuplicateError{Value: `"The Forest Hiker"`, Err: store.ErrTourNameExists},
			status:      http.StatusBadRequest,
			message:     `Duplicate field value: "The Forest Hiker". Please use another value!`,
			operational: true,
		},
		{
			name:        "duplicate without value",
			err:         fmt.Errorf("insert: %w", store.ErrEmailExists),
			status:      http.StatusBadRequest,
			message:     "Duplicate email. Please use another value!",
			operational: true,
		},
		{
			name:        "not found",
			err:         pkgerrors.Wrap(store.ErrTourNotFound, "find"),
			status:      http.StatusNotFound,
			message:     "No document found with that ID",
			operational: true,
		},
		{
			name:        "invalid entity",
			err:         store.ErrInvalidEntity,
			status:      http.StatusBadRequest,
			message:     "Invalid input data. A referenced document does not exist",
			operational: true,
		},
		{
			name:        "expired token",
			err:         fmt.Errorf("validate: %w", auth.ErrExpiredToken),
			status:      http.StatusUnauthorized,
			message:     "This token is expired, please login again!",
			operational: true,
		},
		{
			name:        "invalid token",
			err:         auth.ErrInvalidToken,
			status:      http.StatusUnauthorized,
			message:     "This token is invalid, please login again!",
			operational: true,
		},
		{
			name:    "unknown error",
			err:     errors.New("connection reset by peer"),
			status:  http.StatusInternalServerError,
			message: "Something went very wrong!",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Translate(tc.err)

			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.message, got.Message)
			assert.Equal(t, tc.operational, got.Operational)
		})
	}
}

func TestWithDuplicateValue(t *testing.T) {
	t.Parallel()

	doc := &domain.Tour{Name: "The Forest Hiker"}

	err := withDuplicateValue(pkgerrors.Wrap(store.ErrTourNameExists, "insert"), doc)

	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, `"The Forest Hiker"`, dup.Value)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	other := errors.New("boom")
	assert.Same(t, other, withDuplicateValue(other, doc))
	assert.NoError(t, withDuplicateValue(nil, doc))
}

func renderTo(t *testing.T, err error, production bool) (int, shared.ErrorResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	RenderError(rec, req, err, production)

	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestRenderErrorProduction(t *testing.T) {
	t.Parallel()

	t.Run("operational", func(t *testing.T) {
		t.Parallel()
		code, resp := renderTo(t, store.ErrNotFound, true)

		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, shared.StatusFail, resp.Status)
		assert.Equal(t, "No document found with that ID", resp.Message)
		assert.Nil(t, resp.Error)
		assert.Empty(t, resp.Stack)
	})

	t.Run("programming error is hidden", func(t *testing.T) {
		t.Parallel()
		code, resp := renderTo(t, errors.New("nil map write in tour handler"), true)

		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, shared.StatusError, resp.Status)
		assert.Equal(t, "Something went very wrong!", resp.Message)
		assert.Nil(t, resp.Error)
	})
}

func TestRenderErrorDevelopment(t *testing.T) {
	t.Parallel()

	t.Run("operational carries detail and stack", func(t *testing.T) {
		t.Parallel()
		code, resp := renderTo(t, pkgerrors.Wrap(store.ErrTourNotFound, "find tour"), false)

		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "No document found with that ID", resp.Message)
		require.NotNil(t, resp.Error)
		assert.Equal(t, string(domain.KindNotFound), resp.Error.Kind)
		assert.Equal(t, http.StatusNotFound, resp.Error.Status)
		assert.Contains(t, resp.Error.Cause, "find tour")
		assert.Contains(t, resp.Stack, "TestRenderErrorDevelopment")
	})

	t.Run("programming error shows its message", func(t *testing.T) {
		t.Parallel()
		code, resp := renderTo(t, errors.New("nil map write in tour handler"), false)

		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, shared.StatusError, resp.Status)
		assert.Equal(t, "nil map write in tour handler", resp.Message)
	})
}
