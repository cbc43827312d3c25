package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
)

// IDParam is the path parameter naming the document of a single resource
// route.
const IDParam = "id"

// ResourceConfig configures a Resource.
type ResourceConfig[T any] struct {
	// Name of the entity, used in logs.
	Name string
	Repo store.Repository[T]

	// Scope restricts every read, update and delete.
	Scope func() []query.Predicate

	// ParentParam names a path parameter that, when present, restricts the
	// resource to documents whose ParentField equals it.
	ParentParam string
	ParentField string

	// PrivateFields may not be filtered or sorted on by clients.
	PrivateFields []string

	// Expand adds related documents to the single document response.
	Expand func(ctx context.Context, doc *T, out map[string]any) error

	// BeforeCreate runs on the decoded payload before the lifecycle hooks.
	BeforeCreate func(r *http.Request, doc *T) error

	Errors ErrorRenderer
	Clock  func() time.Time
	Logger *slog.Logger
}

// Resource serves list, get, create, update and delete for one entity. Every
// entity goes through the same pipeline; what differs is captured by
// ResourceConfig.
type Resource[T any, P domain.Document[T]] struct {
	cfg    ResourceConfig[T]
	logger *slog.Logger
}

// NewResource creates a Resource.
func NewResource[T any, P domain.Document[T]](cfg ResourceConfig[T]) *Resource[T, P] {
	if cfg.Repo == nil {
		panic("resource repository cannot be nil")
	}
	if cfg.Scope == nil {
		cfg.Scope = func() []query.Predicate { return nil }
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Resource[T, P]{
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("component", cfg.Name+"_handler")),
	}
}

func (h *Resource[T, P]) log(r *http.Request) *slog.Logger {
	return logger.FromContextOrDefault(r.Context(), h.logger)
}

// scope returns the read scope, including the parent restriction when the
// parent parameter is present.
func (h *Resource[T, P]) scope(r *http.Request) ([]query.Predicate, error) {
	preds := h.cfg.Scope()
	if h.cfg.ParentParam == "" {
		return preds, nil
	}
	raw := chi.URLParam(r, h.cfg.ParentParam)
	if raw == "" {
		return preds, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &query.CastError{Field: h.cfg.ParentField, Value: raw}
	}
	return append(preds, query.Eq(h.cfg.ParentField, id)), nil
}

// List handles GET on the collection.
func (h *Resource[T, P]) List(w http.ResponseWriter, r *http.Request) {
	scope, err := h.scope(r)
	if err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}

	params := sanitizeParams(r.URL.Query(), h.cfg.PrivateFields)
	q := query.New(query.Query{Filters: scope}, params).Filter().Sort().LimitFields().Paginate().Query

	docs, err := h.cfg.Repo.Find(r.Context(), q)
	if err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		m, err := toMap(doc)
		if err != nil {
			h.cfg.Errors.Render(w, r, err)
			return
		}
		out = append(out, q.Projection.Apply(m))
	}

	h.log(r).Debug("documents listed", slog.Int("count", len(out)))
	shared.RespondList(w, r, out)
}

// Get handles GET on a single document.
func (h *Resource[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	h.GetByID(w, r, chi.URLParam(r, IDParam))
}

// GetByID serves the document with the given raw id.
func (h *Resource[T, P]) GetByID(w http.ResponseWriter, r *http.Request, rawID string) {
	doc, err := h.find(r, rawID)
	if err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}

	if h.cfg.Expand == nil {
		shared.RespondDocument(w, r, http.StatusOK, doc)
		return
	}
	m, err := toMap(doc)
	if err == nil {
		err = h.cfg.Expand(r.Context(), doc, m)
	}
	if err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}
	shared.RespondDocument(w, r, http.StatusOK, m)
}

// Create handles POST on the collection.
func (h *Resource[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	doc := new(T)
	if err := shared.DecodeJSON(r, doc); err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}
	if h.cfg.BeforeCreate != nil {
		if err := h.cfg.BeforeCreate(r, doc); err != nil {
			h.cfg.Errors.Render(w, r, err)
			return
		}
	}

	now := h.cfg.Clock()
	P(doc).Init(uuid.New(), now)
	if err := h.save(r, doc, now, h.cfg.Repo.Insert); err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}

	h.log(r).Info("document created", slog.String("id", P(doc).Key().String()))
	shared.RespondDocument(w, r, http.StatusCreated, doc)
}

// Update handles PATCH on a single document. The payload is merged onto the
// stored document, which is then validated as a whole.
func (h *Resource[T, P]) Update(w http.ResponseWriter, r *http.Request) {
	doc, err := h.find(r, chi.URLParam(r, IDParam))
	if err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}

	meta := P(doc).Meta()
	if err := shared.DecodeJSON(r, doc); err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}
	P(doc).SetMeta(meta)

	if err := h.save(r, doc, h.cfg.Clock(), h.cfg.Repo.Replace); err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}

	h.log(r).Info("document updated", slog.String("id", meta.ID.String()))
	shared.RespondDocument(w, r, http.StatusOK, doc)
}

// Delete handles DELETE on a single document.
func (h *Resource[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, IDParam))
	if err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}
	scope, err := h.scope(r)
	if err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}

	if err := h.cfg.Repo.Delete(r.Context(), id, scope...); err != nil {
		h.cfg.Errors.Render(w, r, err)
		return
	}

	h.log(r).Info("document deleted", slog.String("id", id.String()))
	shared.RespondNoContent(w)
}

func (h *Resource[T, P]) find(r *http.Request, rawID string) (*T, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	scope, err := h.scope(r)
	if err != nil {
		return nil, err
	}
	return h.cfg.Repo.FindByID(r.Context(), id, scope...)
}

func (h *Resource[T, P]) save(r *http.Request, doc *T, now time.Time, write func(context.Context, *T) error) error {
	P(doc).BeforeSave(now)
	if err := P(doc).Validate(); err != nil {
		return err
	}
	return withDuplicateValue(write(r.Context(), doc), doc)
}

// parseID parses a path id; a malformed id is a cast error like any other
// unparseable value.
func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &query.CastError{Field: "_id", Value: raw}
	}
	return id, nil
}

// toMap serializes doc through its JSON form so projections see exactly the
// fields a client would.
func toMap(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return m, nil
}

// multiValueParams may be repeated to match any of several values. Every
// other repeated parameter resolves to its last value.
var multiValueParams = []string{
	"name", "duration", "maxGroupSize", "difficulty", "price",
	"priceDiscount", "ratingAverage", "ratingQuantity",
}

// sanitizeParams drops filters and sort keys naming private fields and
// collapses repeated parameters outside multiValueParams.
func sanitizeParams(params url.Values, private []string) url.Values {
	out := url.Values{}
	for key, values := range params {
		field, _, _ := strings.Cut(key, "[")
		if slices.Contains(private, field) || len(values) == 0 {
			continue
		}
		if len(values) > 1 && !slices.Contains(multiValueParams, field) {
			values = values[len(values)-1:]
		}
		out[key] = values
	}
	if sorts, ok := out["sort"]; ok && len(private) > 0 {
		kept := make([]string, 0, len(sorts))
		for _, raw := range sorts {
			var fields []string
			for _, part := range strings.Split(raw, ",") {
				name := strings.TrimPrefix(strings.TrimSpace(part), "-")
				if !slices.Contains(private, name) {
					fields = append(fields, part)
				}
			}
			kept = append(kept, strings.Join(fields, ","))
		}
		out["sort"] = kept
	}
	return out
}
