// Package query builds backend-neutral reads from client query strings.
//
// A Query is a plain value: filter predicates, a sort order, a projection and
// a skip/limit window. The Features builder fills one in from url.Values, and
// each storage backend renders it into its own native form (a bson filter for
// MongoDB, a WHERE/ORDER BY/LIMIT clause for PostgreSQL). Nothing in this
// package touches a database.
package query

import (
	"slices"
	"strings"
)

// Op is a comparison operator. Values use the MongoDB operator tokens so the
// document backend can pass them through unchanged.
type Op string

// Supported operators. Anything else is rejected by the builder.
const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
	OpIn  Op = "$in"
)

// Valid reports whether op is one of the supported operators.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn:
		return true
	}
	return false
}

// Predicate restricts a read to documents whose Field compares to Value.
// Value is a raw string (or []string for OpIn) when it comes from a query
// string, or an already typed value when it comes from application code.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Eq returns an equality predicate.
func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEq, Value: value}
}

// Ne returns an inequality predicate. Documents missing the field match.
func Ne(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpNe, Value: value}
}

// Gte returns a greater-than-or-equal predicate.
func Gte(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpGte, Value: value}
}

// Lt returns a less-than predicate.
func Lt(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpLt, Value: value}
}

// SortField orders results by one field.
type SortField struct {
	Field string
	Desc  bool
}

// String renders the field in query-string form ("-price" for descending).
func (s SortField) String() string {
	if s.Desc {
		return "-" + s.Field
	}
	return s.Field
}

// Projection selects the fields returned for each document. When Include is
// non-empty only those fields (plus the id) are returned and Exclude is
// ignored.
type Projection struct {
	Include []string
	Exclude []string
}

// IsZero reports whether the projection returns documents unchanged.
func (p Projection) IsZero() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0
}

// Apply shapes a serialized document according to the projection. Dotted
// paths select their top-level field.
func (p Projection) Apply(doc map[string]any) map[string]any {
	if p.IsZero() || doc == nil {
		return doc
	}

	out := make(map[string]any, len(doc))
	if len(p.Include) > 0 {
		if id, ok := doc["id"]; ok {
			out["id"] = id
		}
		for _, field := range p.Include {
			key := topLevel(field)
			if v, ok := doc[key]; ok {
				out[key] = v
			}
		}
		return out
	}

	for k, v := range doc {
		if slices.Contains(p.Exclude, k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Query is a composed read. The zero value matches every document, applies
// no ordering and returns everything.
type Query struct {
	Filters    []Predicate
	Sort       []SortField
	Projection Projection
	Skip       int64
	// Limit of zero means unbounded.
	Limit int64
}

// Where returns a copy of q with extra predicates appended.
func (q Query) Where(preds ...Predicate) Query {
	out := q.clone()
	out.Filters = append(out.Filters, preds...)
	return out
}

func (q Query) clone() Query {
	out := q
	out.Filters = slices.Clone(q.Filters)
	out.Sort = slices.Clone(q.Sort)
	out.Projection = Projection{
		Include: slices.Clone(q.Projection.Include),
		Exclude: slices.Clone(q.Projection.Exclude),
	}
	return out
}

func topLevel(field string) string {
	if i := strings.IndexByte(field, '.'); i >= 0 {
		return field[:i]
	}
	return field
}
