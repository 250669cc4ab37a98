// Package request holds the parsing helpers shared by every handler: path
// ids, list query parameters, JSON bodies and resource URLs.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/courses-api/internal/types"
)

// ErrEmptyBody is returned by DecodeJSON when the request carries no body.
var ErrEmptyBody = errors.New("request body is empty")

// PathInt reads the chi URL parameter name as an int.
func PathInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", name, raw)
	}
	return n, nil
}

// ListQuery parses ?skip=&take=&search= with defaultTake applied when take
// is absent. Negative values are clamped to zero by the store.
func ListQuery(r *http.Request, defaultTake int) (types.ListQuery, error) {
	q := types.ListQuery{Take: defaultTake}
	values := r.URL.Query()

	if raw := values.Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("invalid skip %q: must be an integer", raw)
		}
		q.Skip = n
	}
	if raw := values.Get("take"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("invalid take %q: must be an integer", raw)
		}
		q.Take = n
	}
	q.Search = values.Get("search")
	return q, nil
}

// DecodeJSON decodes the request body into v. An empty body yields
// ErrEmptyBody.
func DecodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	return err
}

// ResourceURL returns the absolute URL of path on the host that served r.
// X-Forwarded-Proto is honoured so URLs stay correct behind a TLS proxy.
func ResourceURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + path
}
