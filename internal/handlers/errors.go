package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crucial707/market-supervisor/internal/executor"
	"github.com/crucial707/market-supervisor/internal/repo"
	"github.com/crucial707/market-supervisor/internal/search"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// JSONValidationError sends a JSON error response with "error" and optional "fields" for field-level details.
// status is typically http.StatusBadRequest (400).
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	out := map[string]any{"error": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	json.NewEncoder(w).Encode(out)
}

// JSONRepoError maps sentinel errors to their HTTP status: conflicts to 409,
// not-found to 404, inactive-state to 409, upstream search failures to 502,
// anything else to a generic 500.
func JSONRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrConflict):
		JSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, repo.ErrNotFound):
		JSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, executor.ErrInactive):
		JSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, search.ErrUpstream):
		JSONError(w, err.Error(), http.StatusBadGateway)
	default:
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
