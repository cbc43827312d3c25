package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/mocks"
)

func TestSanitizeParams(t *testing.T) {
	t.Parallel()

	params := url.Values{
		"role":              {"admin"},
		"password[ne]":      {"x"},
		"sort":              {"name", "-passwordChangedAt,email"},
		"difficulty":        {"easy", "medium"},
		"limit":             {"5", "10"},
		"passwordResetDone": {"1"},
	}

	got := sanitizeParams(params, []string{"password", "passwordChangedAt"})

	assert.NotContains(t, got, "password[ne]")
	assert.Equal(t, []string{"admin"}, got["role"])
	assert.Equal(t, []string{"easy", "medium"}, got["difficulty"], "whitelisted params keep every value")
	assert.Equal(t, []string{"10"}, got["limit"], "other params keep the last value")
	assert.Equal(t, []string{"email"}, got["sort"])
	assert.Contains(t, got, "passwordResetDone", "only exact field names are private")
}

type tourFixture struct {
	router  http.Handler
	tours   *mocks.TourStore
	reviews *mocks.ReviewStore
	forest  *domain.Tour
}

func newTourFixture(t *testing.T) *tourFixture {
	t.Helper()

	f := &tourFixture{tours: mocks.NewTourStore(), reviews: mocks.NewReviewStore()}
	f.forest = &domain.Tour{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   domain.DifficultyEasy,
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:   "tour-1-cover.jpg",
	}
	f.forest.Init(uuid.New(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	f.forest.BeforeSave(time.Now())
	f.tours.Seed(f.forest)

	review := &domain.Review{Review: "Lovely", Rating: 5, Tour: f.forest.ID, User: uuid.New()}
	review.Init(uuid.New(), time.Now())
	f.reviews.Seed(review)

	h := NewTourHandler(f.tours, f.reviews, ErrorRenderer{Production: true}, nil)
	r := chi.NewRouter()
	r.Get("/tours", h.List)
	r.Post("/tours", h.Create)
	r.Get("/tours/{id}", h.Get)
	r.Patch("/tours/{id}", h.Update)
	r.Delete("/tours/{id}", h.Delete)
	f.router = r
	return f
}

func (f *tourFixture) serve(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeDocument(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Data struct {
			Data map[string]any `json:"data"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Data.Data
}

func TestResourceGet(t *testing.T) {
	t.Parallel()
	f := newTourFixture(t)

	t.Run("with reviews", func(t *testing.T) {
		rec := f.serve(http.MethodGet, "/tours/"+f.forest.ID.String(), "")

		require.Equal(t, http.StatusOK, rec.Code)
		doc := decodeDocument(t, rec)
		assert.Equal(t, "The Forest Hiker", doc["name"])
		assert.Equal(t, "the-forest-hiker", doc["slug"])
		assert.Len(t, doc["reviews"], 1)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := f.serve(http.MethodGet, "/tours/wwwww", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid _id: wwwww")
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := f.serve(http.MethodGet, "/tours/"+uuid.NewString(), "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "No document found with that ID")
	})
}

func TestResourceListProjection(t *testing.T) {
	t.Parallel()
	f := newTourFixture(t)

	rec := f.serve(http.MethodGet, "/tours?fields=name,price", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Results int `json:"results"`
		Data    struct {
			Data []map[string]any `json:"data"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Results)
	doc := resp.Data.Data[0]
	assert.Equal(t, "The Forest Hiker", doc["name"])
	assert.Equal(t, 397.0, doc["price"])
	assert.NotContains(t, doc, "duration")
	assert.NotContains(t, doc, "__v")
}

func TestResourceCreate(t *testing.T) {
	t.Parallel()
	f := newTourFixture(t)

	t.Run("valid", func(t *testing.T) {
		rec := f.serve(http.MethodPost, "/tours", `{
			"name": "The Sea Explorer",
			"duration": 7,
			"maxGroupSize": 15,
			"difficulty": "medium",
			"price": 497,
			"summary": "Exploring the jaw-dropping US east coast by foot and by boat",
			"imageCover": "tour-2-cover.jpg"
		}`)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		doc := decodeDocument(t, rec)
		assert.Equal(t, "the-sea-explorer", doc["slug"])
		assert.Equal(t, 4.5, doc["ratingAverage"])
		assert.Equal(t, 2, f.tours.Len())
	})

	t.Run("invalid", func(t *testing.T) {
		rec := f.serve(http.MethodPost, "/tours", `{"price": 100, "priceDiscount": 200}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp shared.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, shared.StatusFail, resp.Status)
		assert.True(t, strings.HasPrefix(resp.Message, "Invalid input data."), resp.Message)
	})
}

func TestResourceUpdateAndDelete(t *testing.T) {
	t.Parallel()
	f := newTourFixture(t)
	path := "/tours/" + f.forest.ID.String()

	rec := f.serve(http.MethodPatch, path, `{"price": 450, "id": "`+uuid.NewString()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored := f.tours.Get(f.forest.ID)
	require.NotNil(t, stored, "id in the payload is ignored")
	assert.Equal(t, 450.0, stored.Price)
	assert.Equal(t, "The Forest Hiker", stored.Name, "unsent fields are kept")

	rec = f.serve(http.MethodPatch, path, `{"summary": "Short hike", "createdAt": "1999-01-01T00:00:00Z", "__v": 9}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored = f.tours.Get(f.forest.ID)
	assert.Equal(t, "Short hike", stored.Summary)
	assert.Equal(t, f.forest.CreatedAt, stored.CreatedAt, "createdAt is kept")
	assert.Zero(t, stored.Version, "__v is kept")

	rec = f.serve(http.MethodPatch, path, `{"ratingAverage": 7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "updates are validated")

	rec = f.serve(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.tours.Len())

	rec = f.serve(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
