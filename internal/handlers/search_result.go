package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/market-supervisor/internal/models"
	"github.com/crucial707/market-supervisor/internal/repo"
)

// SearchResultHandler exposes stored search hits per cron.
type SearchResultHandler struct {
	Results *repo.SearchResultRepo
	Crons   *repo.CronRepo
}

func (h *SearchResultHandler) requireCron(w http.ResponseWriter, r *http.Request) (string, bool) {
	cronID := chi.URLParam(r, "cronID")
	if _, err := h.Crons.GetByID(r.Context(), cronID); err != nil {
		JSONRepoError(w, err)
		return "", false
	}
	return cronID, true
}

// ListByCron returns all results for a cron, newest search first.
func (h *SearchResultHandler) ListByCron(w http.ResponseWriter, r *http.Request) {
	cronID, ok := h.requireCron(w, r)
	if !ok {
		return
	}
	results, err := h.Results.ListByCron(r.Context(), cronID)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	WriteJSON(w, http.StatusOK, results)
}

// Recent returns the latest results for a cron. Query param: limit (default 10).
func (h *SearchResultHandler) Recent(w http.ResponseWriter, r *http.Request) {
	cronID, ok := h.requireCron(w, r)
	if !ok {
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	results, err := h.Results.ListRecent(r.Context(), cronID, limit)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	WriteJSON(w, http.StatusOK, results)
}

// DateRange returns a cron's results between start and end (RFC 3339 or
// YYYY-MM-DD query params).
func (h *SearchResultHandler) DateRange(w http.ResponseWriter, r *http.Request) {
	cronID, ok := h.requireCron(w, r)
	if !ok {
		return
	}
	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil {
		JSONValidationError(w, "validation failed",
			map[string]string{"start": "must be RFC 3339 or YYYY-MM-DD"}, http.StatusBadRequest)
		return
	}
	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil {
		JSONValidationError(w, "validation failed",
			map[string]string{"end": "must be RFC 3339 or YYYY-MM-DD"}, http.StatusBadRequest)
		return
	}
	if end.Before(start) {
		JSONValidationError(w, "validation failed",
			map[string]string{"end": "must not precede start"}, http.StatusBadRequest)
		return
	}

	results, err := h.Results.ListByDateRange(r.Context(), cronID, start, end)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	WriteJSON(w, http.StatusOK, results)
}

// Stats aggregates a cron's result counts and last search date.
func (h *SearchResultHandler) Stats(w http.ResponseWriter, r *http.Request) {
	cronID, ok := h.requireCron(w, r)
	if !ok {
		return
	}
	stats, err := h.Results.StatsByCron(r.Context(), cronID)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// Purge deletes results older than the given number of days. Query param:
// days (default 90).
func (h *SearchResultHandler) Purge(w http.ResponseWriter, r *http.Request) {
	days := 90
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			JSONValidationError(w, "validation failed",
				map[string]string{"days": "must be a positive integer"}, http.StatusBadRequest)
			return
		}
		days = n
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	deleted, err := h.Results.DeleteOlderThan(r.Context(), cutoff)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"deleted": deleted, "cutoff": cutoff})
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
