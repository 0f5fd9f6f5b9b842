// Package http provides the JSON API server and its handlers.
//
// This file holds the helpers that turn path, query and body input into
// domain values, returning errors the handlers map to 400 responses.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pennywise/internal/core"
	"pennywise/internal/services"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks input errors raised by the parsers themselves.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// DecodeJSON reads a single JSON document from the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return fmt.Errorf("request body too large: %w", err)
		}
		return badRequest("invalid request body: %v", err)
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// PathID parses the {id} route parameter.
func PathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}

// QueryDate parses an optional YYYY-MM-DD parameter; absent gives the zero date.
func QueryDate(q url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// QueryMonth parses an optional YYYY-MM parameter; absent gives the zero date.
func QueryMonth(q url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseMonth(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// QueryInt parses an optional integer parameter with a default.
func QueryInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("%s must be an integer", key)
	}
	return n, nil
}

// ParseTransactionFilter reads the list filters of GET /api/transactions.
// A date range is only applied when both ends are given.
func ParseTransactionFilter(q url.Values) (services.TransactionFilter, error) {
	var (
		f   services.TransactionFilter
		err error
	)
	if f.Start, err = QueryDate(q, "startDate"); err != nil {
		return f, err
	}
	if f.End, err = QueryDate(q, "endDate"); err != nil {
		return f, err
	}
	if t := strings.TrimSpace(q.Get("type")); t != "" {
		if f.Type, err = core.ParseTxType(t); err != nil {
			return f, err
		}
	}
	f.Category = sanitizeInput(q.Get("category"))
	f.Keyword = sanitizeInput(q.Get("descriptionKeyword"))
	return f, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
