package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
)

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// mapping binds an entity type to its table. values and scan handle the
// columns in the order they are listed.
type mapping[T any] struct {
	table     string
	entity    string
	columns   columns
	values    func(*T) ([]any, error)
	scan      func(scanner) (*T, error)
	notFound  error
	duplicate error
}

// table implements store.Repository over one PostgreSQL table.
type table[T any, P domain.Document[T]] struct {
	db     store.DBTX
	m      mapping[T]
	logger *slog.Logger
}

func newTable[T any, P domain.Document[T]](db store.DBTX, m mapping[T], l *slog.Logger) table[T, P] {
	if db == nil {
		panic("db cannot be nil")
	}
	if l == nil {
		l = slog.Default()
	}
	return table[T, P]{
		db:     db,
		m:      m,
		logger: l.With(slog.String("component", m.entity+"_store")),
	}
}

func (t *table[T, P]) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, t.logger)
}

func (t *table[T, P]) mapError(err error) error {
	return mapEntityError(err, t.m.notFound, t.m.duplicate)
}

// query runs a SELECT and scans every row.
func (t *table[T, P]) query(ctx context.Context, stmt string, params []any) ([]*T, error) {
	rows, err := t.db.QueryContext(ctx, stmt, params...)
	if err != nil {
		t.log(ctx).Error("query failed",
			slog.String("entity", t.m.entity),
			slog.String("error", err.Error()))
		return nil, t.mapError(err)
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*T, 0)
	for rows.Next() {
		doc, err := t.m.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.m.entity, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, t.mapError(err)
	}
	return docs, nil
}

// Find implements store.Repository.
func (t *table[T, P]) Find(ctx context.Context, q query.Query) ([]*T, error) {
	stmt, params, err := renderSelect(t.m.table, t.m.columns, q)
	if err != nil {
		return nil, err
	}
	docs, err := t.query(ctx, stmt, params)
	if err != nil {
		return nil, err
	}
	t.log(ctx).Debug("rows found", slog.String("entity", t.m.entity), slog.Int("count", len(docs)))
	return docs, nil
}

// FindOne returns the first row matching the predicates.
func (t *table[T, P]) FindOne(ctx context.Context, preds ...query.Predicate) (*T, error) {
	docs, err := t.Find(ctx, query.Query{Filters: preds, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, t.m.notFound
	}
	return docs[0], nil
}

// FindByID implements store.Repository.
func (t *table[T, P]) FindByID(ctx context.Context, id uuid.UUID, scope ...query.Predicate) (*T, error) {
	return t.FindOne(ctx, append([]query.Predicate{query.Eq("id", id)}, scope...)...)
}

// Insert implements store.Repository.
func (t *table[T, P]) Insert(ctx context.Context, doc *T) error {
	values, err := t.m.values(doc)
	if err != nil {
		return err
	}

	placeholders := make([]string, len(t.m.columns))
	for i, c := range t.m.columns {
		placeholders[i] = fmt.Sprintf("$%d%s", i+1, writeCast(c))
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.m.table, strings.Join(t.m.columns.names(), ", "), strings.Join(placeholders, ", "))

	if _, err := t.db.ExecContext(ctx, stmt, values...); err != nil {
		t.log(ctx).Warn("insert failed",
			slog.String("entity", t.m.entity),
			slog.String("id", P(doc).Key().String()),
			slog.String("error", err.Error()))
		return t.mapError(err)
	}

	t.log(ctx).Debug("row inserted", slog.String("entity", t.m.entity), slog.String("id", P(doc).Key().String()))
	return nil
}

// Replace implements store.Repository. The first column is the key.
func (t *table[T, P]) Replace(ctx context.Context, doc *T) error {
	values, err := t.m.values(doc)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(t.m.columns)-1)
	for i, c := range t.m.columns[1:] {
		sets = append(sets, fmt.Sprintf("%s = $%d%s", c.name, i+2, writeCast(c)))
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", t.m.table, strings.Join(sets, ", "))

	result, err := t.db.ExecContext(ctx, stmt, values...)
	if err != nil {
		return t.mapError(err)
	}
	return checkRowsAffected(result, t.m.notFound)
}

// Delete implements store.Repository.
func (t *table[T, P]) Delete(ctx context.Context, id uuid.UUID, scope ...query.Predicate) error {
	var a args
	where, err := renderWhere(&a, append([]query.Predicate{query.Eq("id", id)}, scope...), t.m.columns)
	if err != nil {
		return err
	}

	result, err := t.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", t.m.table, where), a.values...)
	if err != nil {
		return t.mapError(err)
	}
	if err := checkRowsAffected(result, t.m.notFound); err != nil {
		return err
	}

	t.log(ctx).Debug("row deleted", slog.String("entity", t.m.entity), slog.String("id", id.String()))
	return nil
}

func writeCast(c column) string {
	if c.kind.IsList() {
		return "::jsonb"
	}
	return ""
}

// jsonList encodes a slice for a JSONB column, never as null.
func jsonList[E any](list []E) (string, error) {
	if list == nil {
		list = []E{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeList decodes a JSONB column into a non-nil slice.
func decodeList[E any](raw []byte) ([]E, error) {
	list := []E{}
	if len(raw) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}
