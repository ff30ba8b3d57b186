package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/market-supervisor/internal/dedup"
	"github.com/crucial707/market-supervisor/internal/email"
	"github.com/crucial707/market-supervisor/internal/models"
	"github.com/crucial707/market-supervisor/internal/password"
	"github.com/crucial707/market-supervisor/internal/repo"
)

// CompanyHandler manages company accounts from the admin side: creation with a
// generated password, listing, partial updates, activation toggling, deletion
// and password resets.
type CompanyHandler struct {
	Companies *repo.CompanyRepo
	Guard     *dedup.Guard
	Mailer    *email.Mailer
	// DedupTTL bounds how long a creation key stays busy.
	DedupTTL time.Duration
}

// creationKey prefers the client-supplied idempotency header, falling back to a
// synthesized key that collapses identical submissions within the same minute.
func (h *CompanyHandler) creationKey(r *http.Request, companyEmail string) string {
	if k := r.Header.Get("X-Idempotency-Key"); k != "" {
		return k
	}
	bucket := time.Now().Unix() / 60
	return fmt.Sprintf("create-company:%s:%d", companyEmail, bucket)
}

// Create provisions a company account with a generated password and emails the
// credentials. Duplicate submissions inside the dedup window get a 409.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		Country   string `json:"country"`
		Sector    string `json:"sector"`
		Website   string `json:"website"`
		Telephone string `json:"telephone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string)
	if input.Name == "" {
		fields["name"] = "required"
	}
	if input.Email == "" {
		fields["email"] = "required"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	key := h.creationKey(r, input.Email)
	if !h.Guard.TryAcquire(key, h.DedupTTL) {
		JSONError(w, "a similar request is already being processed", http.StatusConflict)
		return
	}

	secret := password.Generate(password.DefaultLength)
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		h.Guard.Release(key)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	company, err := h.Companies.Create(r.Context(), &models.Company{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Country:      input.Country,
		Sector:       input.Sector,
		Website:      input.Website,
		Telephone:    input.Telephone,
	})
	if err != nil {
		h.Guard.Release(key)
		JSONRepoError(w, err)
		return
	}

	h.Mailer.NotifyCredentialsIssued(company.Email, company.Name, secret)

	WriteJSON(w, http.StatusCreated, company)
}

// List returns companies with limit/offset pagination plus the total count.
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)
	companies, err := h.Companies.List(r.Context(), limit, offset)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	total, err := h.Companies.Count(r.Context())
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	if companies == nil {
		companies = []models.Company{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"companies": companies,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// Get returns one company by id.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, err := h.Companies.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, company)
}

// Update applies a partial update; omitted fields keep their values.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name      *string `json:"name"`
		Country   *string `json:"country"`
		Sector    *string `json:"sector"`
		Website   *string `json:"website"`
		Telephone *string `json:"telephone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	company, err := h.Companies.Update(r.Context(), chi.URLParam(r, "id"),
		input.Name, input.Country, input.Sector, input.Website, input.Telephone)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, company)
}

// ToggleActive flips the account's active flag.
func (h *CompanyHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	company, err := h.Companies.ToggleActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, company)
}

// ResetPassword generates a fresh password, stores its hash and emails it.
func (h *CompanyHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	company, err := h.Companies.GetByID(r.Context(), id)
	if err != nil {
		JSONRepoError(w, err)
		return
	}

	secret := password.Generate(password.DefaultLength)
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if err := h.Companies.UpdatePassword(r.Context(), id, string(hash)); err != nil {
		JSONRepoError(w, err)
		return
	}

	h.Mailer.NotifyCredentialsReset(company.Email, company.Name, secret)

	WriteJSON(w, http.StatusOK, map[string]string{"message": "password reset, credentials sent"})
}

// Delete removes a company and, through the schema, its crons and results.
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Companies.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		JSONRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// paginationParams reads limit/offset query params with sane bounds.
func paginationParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
