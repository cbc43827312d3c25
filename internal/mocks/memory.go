package mocks

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
)

// Repository is an in-memory store.Repository. It evaluates queries with the
// same semantics as the document backend, which makes it suitable for
// handler and service tests that should not need a database.
type Repository[T any, P domain.Document[T]] struct {
	mu     sync.RWMutex
	docs   map[uuid.UUID]*T
	schema query.Schema
	unique [][]string

	notFound  error
	duplicate error

	// Err, when set, is returned by every call.
	Err error
}

// NewRepository creates an empty repository. Each entry of unique names a
// set of fields whose combined values must be distinct.
func NewRepository[T any, P domain.Document[T]](
	schema query.Schema,
	notFound, duplicate error,
	unique ...[]string,
) *Repository[T, P] {
	return &Repository[T, P]{
		docs:      make(map[uuid.UUID]*T),
		schema:    schema,
		unique:    unique,
		notFound:  notFound,
		duplicate: duplicate,
	}
}

// Seed stores documents without uniqueness checks.
func (r *Repository[T, P]) Seed(docs ...*T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range docs {
		r.docs[P(d).Key()] = clone(d)
	}
}

// Len returns the number of stored documents.
func (r *Repository[T, P]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

// Get returns a copy of the stored document regardless of any scope, or nil.
func (r *Repository[T, P]) Get(id uuid.UUID) *T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.docs[id]; ok {
		return clone(d)
	}
	return nil
}

// Find implements store.Repository.
func (r *Repository[T, P]) Find(ctx context.Context, q query.Query) ([]*T, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	preds, err := r.schema.CoerceAll(q.Filters)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]*T, 0, len(r.docs))
	for _, d := range r.docs {
		if matches(d, preds) {
			out = append(out, clone(d))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j], q.Sort) })

	if q.Skip > 0 {
		if q.Skip >= int64(len(out)) {
			return []*T{}, nil
		}
		out = out[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < int64(len(out)) {
		out = out[:q.Limit]
	}
	return out, nil
}

// FindOne returns the first document matching the predicates.
func (r *Repository[T, P]) FindOne(ctx context.Context, preds ...query.Predicate) (*T, error) {
	docs, err := r.Find(ctx, query.Query{Filters: preds, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, r.notFound
	}
	return docs[0], nil
}

// FindByID implements store.Repository.
func (r *Repository[T, P]) FindByID(ctx context.Context, id uuid.UUID, scope ...query.Predicate) (*T, error) {
	return r.FindOne(ctx, append([]query.Predicate{query.Eq("id", id)}, scope...)...)
}

// Insert implements store.Repository.
func (r *Repository[T, P]) Insert(ctx context.Context, doc *T) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := P(doc).Key()
	if _, exists := r.docs[id]; exists {
		return errors.Wrapf(r.duplicate, "insert %s", id)
	}
	if err := r.checkUnique(doc, id); err != nil {
		return err
	}
	r.docs[id] = clone(doc)
	return nil
}

// Replace implements store.Repository.
func (r *Repository[T, P]) Replace(ctx context.Context, doc *T) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := P(doc).Key()
	if _, exists := r.docs[id]; !exists {
		return errors.Wrapf(r.notFound, "replace %s", id)
	}
	if err := r.checkUnique(doc, id); err != nil {
		return err
	}
	r.docs[id] = clone(doc)
	return nil
}

// Delete implements store.Repository.
func (r *Repository[T, P]) Delete(ctx context.Context, id uuid.UUID, scope ...query.Predicate) error {
	if r.Err != nil {
		return r.Err
	}
	preds, err := r.schema.CoerceAll(scope)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || !matches(d, preds) {
		return errors.Wrapf(r.notFound, "delete %s", id)
	}
	delete(r.docs, id)
	return nil
}

// checkUnique must be called with the lock held.
func (r *Repository[T, P]) checkUnique(doc *T, self uuid.UUID) error {
	for _, fields := range r.unique {
		for id, other := range r.docs {
			if id == self {
				continue
			}
			if sameValues(doc, other, fields) {
				return errors.Wrapf(r.duplicate, "unique %v", fields)
			}
		}
	}
	return nil
}

func sameValues(a, b any, fields []string) bool {
	for _, f := range fields {
		if !reflect.DeepEqual(fieldValue(a, f), fieldValue(b, f)) {
			return false
		}
	}
	return true
}

// clone deep-copies the slices and pointers of a flat entity struct so
// callers never share memory with the stored copy.
func clone[T any](doc *T) *T {
	out := new(T)
	*out = *doc
	v := reflect.ValueOf(out).Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.Slice:
			if f.IsNil() {
				continue
			}
			cp := reflect.MakeSlice(f.Type(), f.Len(), f.Len())
			reflect.Copy(cp, f)
			f.Set(cp)
		case reflect.Pointer:
			if f.IsNil() {
				continue
			}
			cp := reflect.New(f.Type().Elem())
			cp.Elem().Set(f.Elem())
			f.Set(cp)
		}
	}
	return out
}
