package query

import (
	"math"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Pagination defaults applied when page or limit is missing or unusable.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// DefaultSort orders results newest first.
var DefaultSort = []SortField{{Field: "createdAt", Desc: true}}

// VersionField is the document version key hidden by the default projection.
const VersionField = "__v"

// reservedKeys control the read itself and never become filters.
var reservedKeys = map[string]struct{}{
	"page":     {},
	"pageSize": {},
	"sort":     {},
	"fields":   {},
	"limit":    {},
}

// comparisonOps maps the operator suffix accepted in "field[op]" keys to the
// store operator token.
var comparisonOps = map[string]Op{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

var (
	bracketKey   = regexp.MustCompile(`^([^\[\]]+)\[([^\[\]]*)\]$`)
	fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// Features composes a Query from request parameters in stages. Each stage
// reads only its own parameters and returns the builder so calls can be
// chained:
//
//	q := query.New(base, r.URL.Query()).Filter().Sort().LimitFields().Paginate().Query
type Features struct {
	// Query is the read composed so far.
	Query  Query
	params url.Values
}

// New starts a builder from base, which typically carries scope predicates
// the client cannot remove.
func New(base Query, params url.Values) *Features {
	if params == nil {
		params = url.Values{}
	}
	return &Features{Query: base.clone(), params: params}
}

// Filter turns every non-reserved parameter into a predicate. "field[gt]",
// "field[gte]", "field[lt]" and "field[lte]" become comparisons; any other key
// is an equality match on the key as given, and a key with several values
// matches any of them. Keys carrying raw "$" operators are dropped.
func (f *Features) Filter() *Features {
	keys := make([]string, 0, len(f.params))
	for k := range f.params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		values := f.params[key]
		if len(values) == 0 {
			continue
		}
		field, op, ok := parseFilterKey(key)
		if !ok {
			continue
		}
		switch {
		case op != OpEq:
			f.Query.Filters = append(f.Query.Filters, Predicate{Field: field, Op: op, Value: values[len(values)-1]})
		case len(values) > 1:
			f.Query.Filters = append(f.Query.Filters, Predicate{Field: field, Op: OpIn, Value: slices.Clone(values)})
		default:
			f.Query.Filters = append(f.Query.Filters, Eq(field, values[0]))
		}
	}
	return f
}

func parseFilterKey(key string) (string, Op, bool) {
	if strings.Contains(key, "$") {
		return "", "", false
	}
	if m := bracketKey.FindStringSubmatch(key); m != nil {
		if op, ok := comparisonOps[m[2]]; ok {
			return m[1], op, true
		}
	}
	// Unknown operators stay part of a literal key, which matches nothing.
	return key, OpEq, true
}

// Sort reads a comma separated "sort" parameter; a leading "-" sorts
// descending. Unusable input falls back to DefaultSort.
func (f *Features) Sort() *Features {
	fields := ParseSort(f.last("sort"))
	if len(fields) == 0 {
		fields = slices.Clone(DefaultSort)
	}
	f.Query.Sort = fields
	return f
}

// ParseSort parses a sort expression, skipping malformed or repeated fields.
func ParseSort(raw string) []SortField {
	var out []SortField
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if !fieldPattern.MatchString(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, SortField{Field: name, Desc: desc})
	}
	return out
}

// LimitFields reads a comma separated "fields" parameter. Without one the
// document version field is hidden. A list made only of "-field" entries
// hides those fields instead.
func (f *Features) LimitFields() *Features {
	var include, exclude []string
	for _, part := range strings.Split(f.last("fields"), ",") {
		part = strings.TrimSpace(part)
		name := strings.TrimPrefix(part, "-")
		if !fieldPattern.MatchString(name) {
			continue
		}
		if strings.HasPrefix(part, "-") {
			exclude = append(exclude, name)
		} else {
			include = append(include, name)
		}
	}

	switch {
	case len(include) > 0:
		f.Query.Projection = Projection{Include: include}
	case len(exclude) > 0:
		f.Query.Projection = Projection{Exclude: exclude}
	default:
		f.Query.Projection = Projection{Exclude: []string{VersionField}}
	}
	return f
}

// Paginate reads "page" (1-based) and "limit". Missing, non-numeric or
// non-positive values fall back to DefaultPage and DefaultLimit.
func (f *Features) Paginate() *Features {
	page := positiveInt(f.last("page"), DefaultPage)
	limit := positiveInt(f.last("limit"), DefaultLimit)
	if page-1 > math.MaxInt64/limit {
		f.Query.Skip = math.MaxInt64
	} else {
		f.Query.Skip = (page - 1) * limit
	}
	f.Query.Limit = limit
	return f
}

// last returns the final value of key; duplicated control parameters resolve
// to the last one given.
func (f *Features) last(key string) string {
	values := f.params[key]
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

func positiveInt(raw string, fallback int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
