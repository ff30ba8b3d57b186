package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/market-supervisor/internal/auth"
	"github.com/crucial707/market-supervisor/internal/middleware"
	"github.com/crucial707/market-supervisor/internal/models"
	"github.com/crucial707/market-supervisor/internal/repo"
)

// AuthHandler issues and rotates session tokens for companies and admin users.
type AuthHandler struct {
	Companies *repo.CompanyRepo
	Users     *repo.UserRepo
	Tokens    *auth.TokenManager
}

// refreshDigest condenses a refresh JWT to a fixed-size digest; bcrypt rejects
// inputs over 72 bytes and the signed token is well past that.
func refreshDigest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

func (h *AuthHandler) storeRefreshHash(ctx context.Context, claims *auth.Claims, refreshToken string) error {
	hashed := ""
	if refreshToken != "" {
		b, err := bcrypt.GenerateFromPassword(refreshDigest(refreshToken), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		hashed = string(b)
	}
	if claims.PrincipalType == auth.PrincipalCompany {
		return h.Companies.UpdateRefreshToken(ctx, claims.SubjectID, hashed)
	}
	return h.Users.UpdateRefreshToken(ctx, claims.SubjectID, hashed)
}

func (h *AuthHandler) issueAndStore(ctx context.Context, subjectID, email, principalType string) (*auth.TokenPair, error) {
	pair, err := h.Tokens.IssuePair(subjectID, email, principalType)
	if err != nil {
		return nil, err
	}
	claims := &auth.Claims{SubjectID: subjectID, Email: email, PrincipalType: principalType}
	if err := h.storeRefreshHash(ctx, claims, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// RegisterCompany creates a company account with a caller-chosen password and
// logs it straight in. Body: {"email", "password", "name", "country", "sector"}.
func (h *AuthHandler) RegisterCompany(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Country  string `json:"country"`
		Sector   string `json:"sector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string)
	if input.Email == "" {
		fields["email"] = "required"
	}
	if input.Password == "" {
		fields["password"] = "required"
	}
	if input.Name == "" {
		fields["name"] = "required"
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

	company, err := h.Companies.Create(r.Context(), &models.Company{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Country:      input.Country,
		Sector:       input.Sector,
	})
	if err != nil {
		JSONRepoError(w, err)
		return
	}

	pair, err := h.issueAndStore(r.Context(), company.ID, company.Email, auth.PrincipalCompany)
	if err != nil {
		slog.Error("issue tokens after register", "company_id", company.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"company":       company,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// LoginCompany authenticates a company. Body: {"email", "password"}.
func (h *AuthHandler) LoginCompany(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	company, err := h.Companies.GetByEmail(r.Context(), input.Email)
	if err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(company.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !company.IsActive {
		JSONError(w, "account disabled", http.StatusUnauthorized)
		return
	}

	pair, err := h.issueAndStore(r.Context(), company.ID, company.Email, auth.PrincipalCompany)
	if err != nil {
		slog.Error("issue tokens on login", "company_id", company.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"company":       company,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// LoginUser authenticates an admin user. Body: {"email", "password"}.
func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), input.Email)
	if err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		JSONError(w, "account disabled", http.StatusUnauthorized)
		return
	}

	pair, err := h.issueAndStore(r.Context(), user.ID, user.Email, auth.PrincipalUser)
	if err != nil {
		slog.Error("issue tokens on login", "user_id", user.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Refresh exchanges a valid refresh token for a rotated pair. The presented
// token must match the stored bcrypt hash; rotation invalidates the old pair.
// Body: {"refresh_token"}.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.RefreshToken == "" {
		JSONError(w, "invalid JSON or missing refresh_token", http.StatusBadRequest)
		return
	}

	claims, err := h.Tokens.VerifyRefresh(input.RefreshToken)
	if err != nil {
		JSONError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var storedHash string
	switch claims.PrincipalType {
	case auth.PrincipalCompany:
		company, err := h.Companies.GetByID(r.Context(), claims.SubjectID)
		if err != nil {
			JSONError(w, "access denied", http.StatusUnauthorized)
			return
		}
		storedHash = company.RefreshToken
	case auth.PrincipalUser:
		user, err := h.Users.GetByID(r.Context(), claims.SubjectID)
		if err != nil {
			JSONError(w, "access denied", http.StatusUnauthorized)
			return
		}
		storedHash = user.RefreshToken
	default:
		JSONError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if storedHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(storedHash), refreshDigest(input.RefreshToken)) != nil {
		JSONError(w, "access denied", http.StatusUnauthorized)
		return
	}

	pair, err := h.issueAndStore(r.Context(), claims.SubjectID, claims.Email, claims.PrincipalType)
	if err != nil {
		slog.Error("rotate tokens", "subject_id", claims.SubjectID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, pair)
}

// Logout clears the stored refresh hash for the authenticated principal so the
// outstanding refresh token can no longer be exchanged.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.Claims(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.storeRefreshHash(r.Context(), claims, ""); err != nil {
		JSONRepoError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
