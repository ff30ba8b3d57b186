package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/market-supervisor/internal/dedup"
	"github.com/crucial707/market-supervisor/internal/executor"
	"github.com/crucial707/market-supervisor/internal/models"
	"github.com/crucial707/market-supervisor/internal/repo"
)

// CronHandler manages saved recurring searches and their manual execution.
type CronHandler struct {
	Crons     *repo.CronRepo
	Companies *repo.CompanyRepo
	Exec      *executor.Executor
	Guard     *dedup.Guard
	DedupTTL  time.Duration
	Log       *slog.Logger
}

func (h *CronHandler) creationKey(r *http.Request, companyID, name string) string {
	if k := r.Header.Get("X-Idempotency-Key"); k != "" {
		return k
	}
	bucket := time.Now().Unix() / 60
	return fmt.Sprintf("create-cron:%s:%s:%d", companyID, name, bucket)
}

// Create registers a cron. When keywords are present the cron is executed once
// synchronously so it has results immediately; that first run's failure is
// logged but never fails the creation.
func (h *CronHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CompanyID   string   `json:"company_id"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
		Keywords    string   `json:"keywords"`
		Frequency   string   `json:"frequency"`
		IsActive    *bool    `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string)
	if input.CompanyID == "" {
		fields["company_id"] = "required"
	}
	if input.Name == "" {
		fields["name"] = "required"
	}
	if input.Frequency != "" && !models.ValidFrequency(input.Frequency) {
		fields["frequency"] = "must be daily, weekly, biweekly or monthly"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	key := h.creationKey(r, input.CompanyID, input.Name)
	if !h.Guard.TryAcquire(key, h.DedupTTL) {
		JSONError(w, "a similar request is already being processed", http.StatusConflict)
		return
	}

	if _, err := h.Companies.GetByID(r.Context(), input.CompanyID); err != nil {
		h.Guard.Release(key)
		JSONRepoError(w, err)
		return
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	cron, err := h.Crons.Create(r.Context(), &models.Cron{
		CompanyID:   input.CompanyID,
		Name:        input.Name,
		Description: input.Description,
		Tags:        input.Tags,
		Keywords:    input.Keywords,
		Frequency:   input.Frequency,
		IsActive:    active,
	})
	if err != nil {
		h.Guard.Release(key)
		JSONRepoError(w, err)
		return
	}

	if cron.IsActive && cron.Keywords != "" {
		if err := h.Exec.Run(r.Context(), cron); err != nil {
			h.Log.Error("initial cron run failed", "cron_id", cron.ID, "error", err)
		} else if refreshed, err := h.Crons.GetByID(r.Context(), cron.ID); err == nil {
			cron = refreshed
		}
	}

	WriteJSON(w, http.StatusCreated, cron)
}

// List returns all crons with limit/offset pagination.
func (h *CronHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)
	crons, err := h.Crons.List(r.Context(), limit, offset)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	if crons == nil {
		crons = []models.Cron{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"crons":  crons,
		"limit":  limit,
		"offset": offset,
	})
}

// ListByCompany returns one company's crons.
func (h *CronHandler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	crons, err := h.Crons.ListByCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	if crons == nil {
		crons = []models.Cron{}
	}
	WriteJSON(w, http.StatusOK, crons)
}

// ListActive returns every active cron.
func (h *CronHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	crons, err := h.Crons.ListActive(r.Context())
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	if crons == nil {
		crons = []models.Cron{}
	}
	WriteJSON(w, http.StatusOK, crons)
}

// Get returns one cron by id.
func (h *CronHandler) Get(w http.ResponseWriter, r *http.Request) {
	cron, err := h.Crons.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cron)
}

// Update applies a partial update; a name change is checked for uniqueness
// within the owning company.
func (h *CronHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Keywords    *string  `json:"keywords"`
		Frequency   *string  `json:"frequency"`
		Tags        []string `json:"tags"`
		IsActive    *bool    `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if input.Frequency != nil && !models.ValidFrequency(*input.Frequency) {
		JSONValidationError(w, "validation failed",
			map[string]string{"frequency": "must be daily, weekly, biweekly or monthly"}, http.StatusBadRequest)
		return
	}

	cron, err := h.Crons.Update(r.Context(), chi.URLParam(r, "id"),
		input.Name, input.Description, input.Keywords, input.Frequency, input.Tags, input.IsActive)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cron)
}

// ToggleActive flips the cron's active flag.
func (h *CronHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	cron, err := h.Crons.ToggleActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cron)
}

// Activate enables the cron.
func (h *CronHandler) Activate(w http.ResponseWriter, r *http.Request) {
	cron, err := h.Crons.SetActive(r.Context(), chi.URLParam(r, "id"), true)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cron)
}

// Deactivate disables the cron.
func (h *CronHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	cron, err := h.Crons.SetActive(r.Context(), chi.URLParam(r, "id"), false)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cron)
}

// Execute runs one cron immediately, regardless of its cadence. Deactivated
// crons are refused with 409.
func (h *CronHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Exec.RunOne(r.Context(), id); err != nil {
		JSONRepoError(w, err)
		return
	}
	cron, err := h.Crons.GetByID(r.Context(), id)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "cron executed", "cron": cron})
}

// ExecuteAll runs every active cron immediately.
func (h *CronHandler) ExecuteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.Exec.RunAllActive(r.Context()); err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "all active crons executed"})
}

// Delete removes a cron and its stored results.
func (h *CronHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Crons.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		JSONRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
