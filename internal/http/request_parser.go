// Package http exposes the ledger as a JSON API.
//
// This file holds helpers for reading path, query and body parameters. Bad
// values surface as core.ValidationError so they map to 422 like any other
// invalid input; undecodable bodies and ids map to 400.
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

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

// requestError is a malformed request the client must fix before it can be
// validated at all.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads one JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, core.ErrValidation):
			return err
		case errors.Is(err, core.ErrInvalidAmount):
			return core.Invalid("amount", err)
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &core.ValidationError{Field: typeErr.Field, Reason: "wrong type"}
		}
		return badRequest("invalid JSON body: %v", err)
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON object")
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryParams reads optional typed query values; the first bad value is kept
// in err and later reads are no-ops.
type queryParams struct {
	values url.Values
	err    error
}

func newQueryParams(r *http.Request) *queryParams {
	return &queryParams{values: r.URL.Query()}
}

func (q *queryParams) str(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

func (q *queryParams) integer(key string, def int) int {
	v := q.str(key)
	if v == "" || q.err != nil {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.err = &core.ValidationError{Field: key, Reason: "must be an integer"}
		return def
	}
	return n
}

func (q *queryParams) id(key string) int64 {
	v := q.str(key)
	if v == "" || q.err != nil {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		q.err = &core.ValidationError{Field: key, Reason: "must be a positive integer"}
		return 0
	}
	return n
}

func (q *queryParams) date(key string) core.Date {
	v := q.str(key)
	if v == "" || q.err != nil {
		return core.Date{}
	}
	d, err := core.ParseDate(v)
	if err != nil {
		q.err = &core.ValidationError{Field: key, Reason: "must be YYYY-MM-DD"}
		return core.Date{}
	}
	return d
}

func (q *queryParams) direction(key string) core.Direction {
	v := q.str(key)
	if v == "" || q.err != nil {
		return ""
	}
	d, err := core.ParseDirection(v)
	if err != nil {
		q.err = err
		return ""
	}
	return d
}

// transactionQuery builds the listing filter and page from the query string.
func transactionQuery(r *http.Request) (core.TransactionFilter, core.Page, error) {
	q := newQueryParams(r)
	f := core.TransactionFilter{
		AccountID:  q.id("account_id"),
		CategoryID: q.id("category_id"),
		Direction:  q.direction("type"),
		Search:     q.str("q"),
		From:       q.date("from"),
		To:         q.date("to"),
	}
	p := core.Page{
		Limit:  q.integer("limit", 0),
		Offset: q.integer("offset", 0),
	}
	return f, p, q.err
}
