package mocks

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/natours-api/internal/query"
)

// fieldIndexes caches, per struct type, the field index of each stored
// name. Names come from bson tags with "_id" reported as "id", so the
// in-memory stores see the same fields as the real backends.
var fieldIndexes sync.Map

func indexOf(t reflect.Type) map[string]int {
	if cached, ok := fieldIndexes.Load(t); ok {
		return cached.(map[string]int)
	}
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("bson"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		if name == "_id" {
			name = "id"
		}
		idx[name] = i
	}
	fieldIndexes.Store(t, idx)
	return idx
}

// fieldValue returns the normalized value of field in doc. Nil pointers and
// unknown fields are reported as nil.
func fieldValue(doc any, field string) any {
	v := reflect.ValueOf(doc)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	i, ok := indexOf(v.Type())[field]
	if !ok {
		return nil
	}
	f := v.Field(i)
	if f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return nil
		}
		f = f.Elem()
	}
	if f.Kind() == reflect.Slice {
		list := make([]any, f.Len())
		for j := range list {
			list[j] = normalize(f.Index(j).Interface())
		}
		return list
	}
	return normalize(f.Interface())
}

// normalize maps values onto a small set of comparable types: float64,
// string, bool and time.Time.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case uuid.UUID:
		return x.String()
	case time.Time:
		return x.UTC()
	case bool, string, float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String()
	}
	return v
}

// compareValues orders two normalized values. ok is false when they are of
// different types.
func compareValues(a, b any) (int, bool) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func equalValues(a, b any) bool {
	c, ok := compareValues(a, b)
	return ok && c == 0
}

// matches reports whether doc satisfies every predicate. Array fields match
// when any element does, and $ne requires that no element is equal.
func matches(doc any, preds []query.Predicate) bool {
	for _, p := range preds {
		if !matchPredicate(fieldValue(doc, p.Field), p) {
			return false
		}
	}
	return true
}

func matchPredicate(value any, p query.Predicate) bool {
	if list, ok := value.([]any); ok {
		if p.Op == query.OpNe {
			for _, e := range list {
				if matchScalar(e, query.Predicate{Field: p.Field, Op: query.OpEq, Value: p.Value}) {
					return false
				}
			}
			return true
		}
		for _, e := range list {
			if matchScalar(e, p) {
				return true
			}
		}
		return false
	}
	return matchScalar(value, p)
}

func matchScalar(value any, p query.Predicate) bool {
	switch p.Op {
	case query.OpEq:
		return equalValues(value, normalize(p.Value))
	case query.OpNe:
		return !equalValues(value, normalize(p.Value))
	case query.OpIn:
		values := reflect.ValueOf(p.Value)
		if values.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < values.Len(); i++ {
			if equalValues(value, normalize(values.Index(i).Interface())) {
				return true
			}
		}
		return false
	}

	c, ok := compareValues(value, normalize(p.Value))
	if !ok {
		return false
	}
	switch p.Op {
	case query.OpGt:
		return c > 0
	case query.OpGte:
		return c >= 0
	case query.OpLt:
		return c < 0
	case query.OpLte:
		return c <= 0
	}
	return false
}

// less orders two documents by fields, missing values first, then by id.
func less(a, b any, fields []query.SortField) bool {
	for _, f := range fields {
		av, bv := fieldValue(a, f.Field), fieldValue(b, f.Field)
		c := 0
		switch {
		case av == nil && bv == nil:
		case av == nil:
			c = -1
		case bv == nil:
			c = 1
		default:
			c, _ = compareValues(av, bv)
		}
		if f.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
	}
	ai, _ := fieldValue(a, "id").(string)
	bi, _ := fieldValue(b, "id").(string)
	return ai < bi
}
