package mongodb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
)

func TestRenderFilter(t *testing.T) {
	id := uuid.New()
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		preds []query.Predicate
		want  bson.D
	}{
		{
			name:  "empty",
			preds: nil,
			want:  bson.D{},
		},
		{
			name:  "raw values are coerced",
			preds: []query.Predicate{query.Gte("price", "500"), query.Eq("difficulty", "easy")},
			want: bson.D{
				{Key: "price", Value: bson.D{{Key: "$gte", Value: 500.0}}},
				{Key: "difficulty", Value: bson.D{{Key: "$eq", Value: "easy"}}},
			},
		},
		{
			name:  "operators on one field merge",
			preds: []query.Predicate{query.Gte("duration", "5"), query.Lt("duration", "9")},
			want: bson.D{
				{Key: "duration", Value: bson.D{{Key: "$gte", Value: int64(5)}, {Key: "$lt", Value: int64(9)}}},
			},
		},
		{
			name:  "repeated operator moves to $and",
			preds: []query.Predicate{query.Ne("secret", true), query.Ne("secret", false)},
			want: bson.D{
				{Key: "secret", Value: bson.D{{Key: "$ne", Value: true}}},
				{Key: "$and", Value: bson.A{bson.D{{Key: "secret", Value: bson.D{{Key: "$ne", Value: false}}}}}},
			},
		},
		{
			name:  "id maps to _id",
			preds: []query.Predicate{query.Eq("id", id)},
			want:  bson.D{{Key: "_id", Value: bson.D{{Key: "$eq", Value: id}}}},
		},
		{
			name:  "in list",
			preds: []query.Predicate{{Field: "difficulty", Op: query.OpIn, Value: []string{"easy", "medium"}}},
			want:  bson.D{{Key: "difficulty", Value: bson.D{{Key: "$in", Value: []any{"easy", "medium"}}}}},
		},
		{
			name:  "typed time passes through",
			preds: []query.Predicate{query.Gte("startDates", start)},
			want:  bson.D{{Key: "startDates", Value: bson.D{{Key: "$gte", Value: start}}}},
		},
		{
			name:  "unknown field is kept verbatim",
			preds: []query.Predicate{query.Eq("price[ne]", "1")},
			want:  bson.D{{Key: "price[ne]", Value: bson.D{{Key: "$eq", Value: "1"}}}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := renderFilter(tc.preds, domain.TourSchema)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRenderFilterCastError(t *testing.T) {
	_, err := renderFilter([]query.Predicate{query.Gte("price", "abc")}, domain.TourSchema)

	var castErr *query.CastError
	require.ErrorAs(t, err, &castErr)
	assert.Equal(t, "Invalid price: abc", castErr.Error())
}

func TestRenderSort(t *testing.T) {
	t.Run("tiebreak appended", func(t *testing.T) {
		got := renderSort([]query.SortField{{Field: "price", Desc: true}, {Field: "ratingAverage"}})
		assert.Equal(t, bson.D{
			{Key: "price", Value: -1},
			{Key: "ratingAverage", Value: 1},
			{Key: "_id", Value: 1},
		}, got)
	})

	t.Run("explicit id", func(t *testing.T) {
		got := renderSort([]query.SortField{{Field: "id", Desc: true}})
		assert.Equal(t, bson.D{{Key: "_id", Value: -1}}, got)
	})
}

func TestRenderProjection(t *testing.T) {
	assert.Nil(t, renderProjection(query.Projection{}))
	assert.Equal(t,
		bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}},
		renderProjection(query.Projection{Include: []string{"name", "id"}}))
	assert.Equal(t,
		bson.D{{Key: "__v", Value: 0}},
		renderProjection(query.Projection{Exclude: []string{"__v"}}))
}

func TestFindOptions(t *testing.T) {
	q := query.Query{
		Sort:       []query.SortField{{Field: "createdAt", Desc: true}},
		Projection: query.Projection{Exclude: []string{"__v"}},
		Skip:       20,
		Limit:      10,
	}

	opts := findOptions(q)

	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(20), *opts.Skip)
	assert.Equal(t, int64(10), *opts.Limit)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}, opts.Sort)
	assert.Equal(t, bson.D{{Key: "__v", Value: 0}}, opts.Projection)
}
