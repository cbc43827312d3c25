package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/phrazzld/natours-api/internal/domain"
)

// MaxBodyBytes caps the size of a JSON request body.
const MaxBodyBytes = 10 << 10

// ErrInvalidBody is returned by DecodeJSON for a body that is not valid JSON.
var ErrInvalidBody = domain.NewError(domain.KindBadRequest, "Invalid request body")

// DecodeJSON decodes the request body into v. An empty body leaves v
// untouched. Fields already set on v survive unless the body overrides them,
// which is what partial updates rely on.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.WrapError(ErrInvalidBody.Kind, ErrInvalidBody.Message, err)
	}
	return nil
}

// DecodeMap decodes the request body into a generic object, for handlers
// that need to know which fields were sent.
func DecodeMap(r *http.Request) (map[string]any, error) {
	body := map[string]any{}
	if err := DecodeJSON(r, &body); err != nil {
		return nil, err
	}
	return body, nil
}
