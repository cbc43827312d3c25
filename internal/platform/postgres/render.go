package postgres

import (
	"fmt"
	"strings"

	"github.com/phrazzld/natours-api/internal/query"
)

// column describes one stored field.
type column struct {
	field string // query field name
	name  string // SQL column
	kind  query.Kind
}

// columns resolves query fields to SQL columns for one table.
type columns []column

func (cs columns) lookup(field string) (column, bool) {
	for _, c := range cs {
		if c.field == field {
			return c, true
		}
	}
	return column{}, false
}

func (cs columns) names() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.name
	}
	return out
}

func (cs columns) schema() query.Schema {
	s := make(query.Schema, len(cs))
	for _, c := range cs {
		s[c.field] = c.kind
	}
	return s
}

// casts pins the parameter type of a comparison so numeric strings and
// floats compare the way the document store compares them.
var casts = map[query.Kind]string{
	query.String: "::text",
	query.Number: "::double precision",
	query.Int:    "::numeric",
	query.Bool:   "::boolean",
	query.Time:   "::timestamptz",
	query.ID:     "::uuid",
}

// args accumulates positional parameters.
type args struct {
	values []any
}

func (a *args) add(v any, cast string) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d%s", len(a.values), cast)
}

var sqlOps = map[query.Op]string{
	query.OpEq:  "=",
	query.OpGt:  ">",
	query.OpGte: ">=",
	query.OpLt:  "<",
	query.OpLte: "<=",
}

// renderWhere builds a WHERE expression from predicates. Fields the table
// does not store behave like missing document fields: they never equal or
// compare to anything, and always satisfy $ne.
func renderWhere(a *args, preds []query.Predicate, cs columns) (string, error) {
	if len(preds) == 0 {
		return "TRUE", nil
	}

	coerced, err := cs.schema().CoerceAll(preds)
	if err != nil {
		return "", err
	}

	clauses := make([]string, 0, len(coerced))
	for _, p := range coerced {
		c, ok := cs.lookup(p.Field)
		if !ok {
			if p.Op == query.OpNe {
				clauses = append(clauses, "TRUE")
			} else {
				clauses = append(clauses, "FALSE")
			}
			continue
		}
		clause, err := renderPredicate(a, c, p)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, " AND "), nil
}

func renderPredicate(a *args, c column, p query.Predicate) (string, error) {
	if !c.kind.IsList() {
		return compare(a, c.name, c.kind, p)
	}

	// Array fields match when any element matches, and $ne requires that
	// no element equals the value.
	elem := "e.v"
	if c.kind.Elem() == query.Time {
		elem = "e.v::timestamptz"
	}
	op := p
	if p.Op == query.OpNe {
		op.Op = query.OpEq
	}
	cond, err := compare(a, elem, c.kind.Elem(), op)
	if err != nil {
		return "", err
	}
	exists := fmt.Sprintf("EXISTS (SELECT 1 FROM jsonb_array_elements_text(%s) AS e(v) WHERE %s)", c.name, cond)
	if p.Op == query.OpNe {
		return "NOT " + exists, nil
	}
	return exists, nil
}

func compare(a *args, expr string, kind query.Kind, p query.Predicate) (string, error) {
	cast := casts[kind]
	switch p.Op {
	case query.OpNe:
		return fmt.Sprintf("%s IS DISTINCT FROM %s", expr, a.add(p.Value, cast)), nil
	case query.OpIn:
		values, ok := p.Value.([]any)
		if !ok {
			return "", fmt.Errorf("$in on %s needs a list, got %T", p.Field, p.Value)
		}
		if len(values) == 0 {
			return "FALSE", nil
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = a.add(v, cast)
		}
		return fmt.Sprintf("%s IN (%s)", expr, strings.Join(placeholders, ", ")), nil
	}

	op, ok := sqlOps[p.Op]
	if !ok {
		return "", fmt.Errorf("unsupported operator %q", p.Op)
	}
	return fmt.Sprintf("%s %s %s", expr, op, a.add(p.Value, cast)), nil
}

// renderOrder builds an ORDER BY list. Unknown fields are skipped, nulls
// sort first ascending like missing document fields, and ties are broken by
// id so pages are stable.
func renderOrder(fields []query.SortField, cs columns) string {
	parts := make([]string, 0, len(fields)+1)
	tiebreak := true
	for _, f := range fields {
		c, ok := cs.lookup(f.Field)
		if !ok {
			continue
		}
		if c.name == "id" {
			tiebreak = false
		}
		if f.Desc {
			parts = append(parts, c.name+" DESC NULLS LAST")
		} else {
			parts = append(parts, c.name+" ASC NULLS FIRST")
		}
	}
	if tiebreak {
		parts = append(parts, "id ASC")
	}
	return strings.Join(parts, ", ")
}

// renderSelect builds a full SELECT for q. Projection is left to the caller;
// every column is always read.
func renderSelect(table string, cs columns, q query.Query) (string, []any, error) {
	var a args
	where, err := renderWhere(&a, q.Filters, cs)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s WHERE %s ORDER BY %s",
		strings.Join(cs.names(), ", "), table, where, renderOrder(q.Sort, cs))
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %s", a.add(q.Limit, ""))
	}
	if q.Skip > 0 {
		fmt.Fprintf(&sb, " OFFSET %s", a.add(q.Skip, ""))
	}
	return sb.String(), a.values, nil
}
