package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the storage type of a queryable field.
type Kind int

// Field kinds understood by the backends.
const (
	String Kind = iota
	Number
	Int
	Bool
	Time
	ID
	StringList
	TimeList
)

// IsList reports whether values of this kind are arrays.
func (k Kind) IsList() bool {
	return k == StringList || k == TimeList
}

// Elem returns the kind of one element of a list kind, or k itself.
func (k Kind) Elem() Kind {
	switch k {
	case StringList:
		return String
	case TimeList:
		return Time
	}
	return k
}

// Schema maps the queryable fields of an entity to their kinds.
type Schema map[string]Kind

// Lookup returns the kind of field.
func (s Schema) Lookup(field string) (Kind, bool) {
	k, ok := s[field]
	return k, ok
}

// CastError reports a query-string value that does not parse as the type of
// the field it filters on.
type CastError struct {
	Field string
	Value string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Field, e.Value)
}

// Coerce converts the raw string values of p into the native type of its
// field. Unknown fields and already typed values pass through unchanged.
func (s Schema) Coerce(p Predicate) (Predicate, error) {
	kind, ok := s.Lookup(p.Field)
	if !ok {
		return p, nil
	}
	kind = kind.Elem()

	switch v := p.Value.(type) {
	case string:
		out, err := parseValue(kind, v)
		if err != nil {
			return p, &CastError{Field: p.Field, Value: v}
		}
		p.Value = out
	case []string:
		out := make([]any, 0, len(v))
		for _, raw := range v {
			parsed, err := parseValue(kind, raw)
			if err != nil {
				return p, &CastError{Field: p.Field, Value: raw}
			}
			out = append(out, parsed)
		}
		p.Value = out
	}
	return p, nil
}

// CoerceAll applies Coerce to every predicate.
func (s Schema) CoerceAll(preds []Predicate) ([]Predicate, error) {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		c, err := s.Coerce(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseValue(kind Kind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case Number:
		return strconv.ParseFloat(raw, 64)
	case Int:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(raw, 64)
			if ferr != nil {
				return nil, err
			}
			return f, nil
		}
		return n, nil
	case Bool:
		return strconv.ParseBool(raw)
	case Time:
		return ParseTime(raw)
	case ID:
		return uuid.Parse(raw)
	}
	return raw, nil
}

// ParseTime accepts RFC 3339 timestamps and plain dates (UTC).
func ParseTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
