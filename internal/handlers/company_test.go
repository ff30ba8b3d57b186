package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"

	"github.com/crucial707/market-supervisor/internal/dedup"
	"github.com/crucial707/market-supervisor/internal/email"
	"github.com/crucial707/market-supervisor/internal/repo"
)

func testCompanyHandler(t *testing.T) (*CompanyHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &CompanyHandler{
		Companies: repo.NewCompanyRepo(db),
		Guard:     dedup.NewGuard(),
		// Host empty: credentials land in the log, never in an SMTP session.
		Mailer:   email.NewMailer(email.Config{}, nil),
		DedupTTL: 30 * time.Second,
	}, mock
}

func TestCompanyHandler_Create(t *testing.T) {
	h, mock := testCompanyHandler(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO companies`).
		WithArgs(sqlmock.AnyArg(), "Acme", "acme@example.com", sqlmock.AnyArg(), "FR", "retail", "company", "", "").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "country", "sector", "role",
			"is_active", "refresh_token", "website", "telephone", "created_at", "updated_at",
		}).AddRow("c1", "Acme", "acme@example.com", "generated-hash", "FR", "retail", "company",
			true, "", "", "", now, now))

	body, _ := json.Marshal(map[string]string{
		"name": "Acme", "email": "acme@example.com", "country": "FR", "sector": "retail",
	})
	req := httptest.NewRequest("POST", "/companies", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Create status: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	var out struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		PasswordHash string `json:"password_hash"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.ID != "c1" || out.Email != "acme@example.com" {
		t.Errorf("unexpected company: %+v", out)
	}
	if out.PasswordHash != "" {
		t.Error("password hash leaked in response body")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCompanyHandler_Create_DuplicateSubmissionRejected(t *testing.T) {
	h, mock := testCompanyHandler(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO companies`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "country", "sector", "role",
			"is_active", "refresh_token", "website", "telephone", "created_at", "updated_at",
		}).AddRow("c1", "Acme", "acme@example.com", "h", "", "", "company",
			true, "", "", "", now, now))

	body, _ := json.Marshal(map[string]string{"name": "Acme", "email": "acme@example.com"})

	first := httptest.NewRequest("POST", "/companies", bytes.NewReader(body))
	rr1 := httptest.NewRecorder()
	h.Create(rr1, first)
	if rr1.Code != http.StatusCreated {
		t.Fatalf("first Create status: got %d (%s)", rr1.Code, rr1.Body.String())
	}

	second := httptest.NewRequest("POST", "/companies", bytes.NewReader(body))
	rr2 := httptest.NewRecorder()
	h.Create(rr2, second)
	if rr2.Code != http.StatusConflict {
		t.Errorf("second Create status: got %d, want 409", rr2.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCompanyHandler_Create_Validation(t *testing.T) {
	h, _ := testCompanyHandler(t)

	body, _ := json.Marshal(map[string]string{"country": "FR"})
	req := httptest.NewRequest("POST", "/companies", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCompanyHandler_ResetPassword(t *testing.T) {
	h, mock := testCompanyHandler(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "country", "sector", "role",
			"is_active", "refresh_token", "website", "telephone", "created_at", "updated_at",
		}).AddRow("c1", "Acme", "acme@example.com", "old-hash", "", "", "company",
			true, "", "", "", now, now))
	mock.ExpectExec(`UPDATE companies SET password_hash = \$2`).
		WithArgs("c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := withURLParam(httptest.NewRequest("POST", "/companies/c1/reset-password", nil), "id", "c1")
	rr := httptest.NewRecorder()
	h.ResetPassword(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("ResetPassword status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCompanyHandler_Get_NotFound(t *testing.T) {
	h, mock := testCompanyHandler(t)

	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := withURLParam(httptest.NewRequest("GET", "/companies/missing", nil), "id", "missing")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}
