package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/market-supervisor/internal/models"
	"github.com/crucial707/market-supervisor/internal/repo"
)

// UserHandler manages back-office admin accounts.
type UserHandler struct {
	Users *repo.UserRepo
}

// Create adds an admin user. Body: {"first_name", "last_name", "email",
// "password", "role"}; role defaults to admin.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Role      string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string)
	if input.FirstName == "" {
		fields["first_name"] = "required"
	}
	if input.LastName == "" {
		fields["last_name"] = "required"
	}
	if input.Email == "" {
		fields["email"] = "required"
	}
	if input.Password == "" {
		fields["password"] = "required"
	}
	if input.Role != "" && input.Role != models.RoleUserAdmin && input.Role != models.RoleUserSuperAdmin {
		fields["role"] = "must be admin or super_admin"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	user, err := h.Users.Create(r.Context(), &models.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
	})
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

// List returns admin users with limit/offset pagination.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)
	users, err := h.Users.List(r.Context(), limit, offset)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

// Get returns one admin user by id.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// Update applies a partial update. A non-empty password is re-hashed.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Role      *string `json:"role"`
		Password  *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if input.Role != nil && *input.Role != models.RoleUserAdmin && *input.Role != models.RoleUserSuperAdmin {
		JSONValidationError(w, "validation failed",
			map[string]string{"role": "must be admin or super_admin"}, http.StatusBadRequest)
		return
	}

	var passwordHash *string
	if input.Password != nil && *input.Password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		s := string(b)
		passwordHash = &s
	}

	user, err := h.Users.Update(r.Context(), chi.URLParam(r, "id"),
		input.FirstName, input.LastName, input.Role, passwordHash)
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// ToggleActive flips the account's active flag.
func (h *UserHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.ToggleActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// Delete removes an admin user.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		JSONRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
