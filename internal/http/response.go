package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps error kinds to status codes. Anything unrecognized is
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr *requestError
		valErr *core.ValidationError
		nfErr  *core.NotFoundError
	)
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: reqErr.msg})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: valErr.Reason, Field: valErr.Field})
	case errors.As(err, &nfErr):
		writeJSON(w, http.StatusNotFound, errorBody{Error: nfErr.Error()})
	case errors.Is(err, core.ErrConsistency):
		writeJSON(w, http.StatusConflict, errorBody{Error: "the account changed concurrently, retry the request"})
	default:
		log.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, r.Method+" "+r.URL.Path,
			log.NewFields().WithErrorType(log.ErrorTypeInternal))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
