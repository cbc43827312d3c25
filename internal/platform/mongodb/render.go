package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phrazzld/natours-api/internal/query"
)

// field maps a query field name to its document key.
func field(name string) string {
	if name == "id" {
		return "_id"
	}
	return name
}

// renderFilter builds a bson filter from predicates, coercing raw values with
// schema. Operators on the same field are merged into one sub-document; an
// operator repeated on a field moves the repeat into an $and clause.
func renderFilter(preds []query.Predicate, schema query.Schema) (bson.D, error) {
	coerced, err := schema.CoerceAll(preds)
	if err != nil {
		return nil, err
	}

	var (
		order  []string
		byKey  = make(map[string]bson.D)
		extras bson.A
	)
	for _, p := range coerced {
		key := field(p.Field)
		op := string(p.Op)
		ops, seen := byKey[key]
		if !seen {
			order = append(order, key)
		}
		if hasKey(ops, op) {
			extras = append(extras, bson.D{{Key: key, Value: bson.D{{Key: op, Value: p.Value}}}})
			continue
		}
		byKey[key] = append(ops, bson.E{Key: op, Value: p.Value})
	}

	filter := make(bson.D, 0, len(order)+1)
	for _, key := range order {
		filter = append(filter, bson.E{Key: key, Value: byKey[key]})
	}
	if len(extras) > 0 {
		filter = append(filter, bson.E{Key: "$and", Value: extras})
	}
	return filter, nil
}

func hasKey(d bson.D, key string) bool {
	for _, e := range d {
		if e.Key == key {
			return true
		}
	}
	return false
}

// renderSort builds a sort document. Ties are broken by _id so pages are
// stable.
func renderSort(fields []query.SortField) bson.D {
	sort := make(bson.D, 0, len(fields)+1)
	tiebreak := true
	for _, f := range fields {
		key := field(f.Field)
		if key == "_id" {
			tiebreak = false
		}
		dir := 1
		if f.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: key, Value: dir})
	}
	if tiebreak {
		sort = append(sort, bson.E{Key: "_id", Value: 1})
	}
	return sort
}

// renderProjection builds a projection document, or nil for none.
func renderProjection(p query.Projection) bson.D {
	switch {
	case len(p.Include) > 0:
		proj := make(bson.D, 0, len(p.Include))
		for _, f := range p.Include {
			proj = append(proj, bson.E{Key: field(f), Value: 1})
		}
		return proj
	case len(p.Exclude) > 0:
		proj := make(bson.D, 0, len(p.Exclude))
		for _, f := range p.Exclude {
			proj = append(proj, bson.E{Key: field(f), Value: 0})
		}
		return proj
	}
	return nil
}

// findOptions carries the sort, window and projection of q.
func findOptions(q query.Query) *options.FindOptions {
	opts := options.Find().SetSort(renderSort(q.Sort))
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if proj := renderProjection(q.Projection); proj != nil {
		opts.SetProjection(proj)
	}
	return opts
}
