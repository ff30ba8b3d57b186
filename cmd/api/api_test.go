package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/market-supervisor/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		DedupTTLSeconds:  30,
	}
}

// TestAPI_LoginThenListCompanyCrons is an integration test: it builds the full
// router with a sqlmock-backed DB, logs a company in to get a JWT, then lists
// that company's crons with the token.
func TestAPI_LoginThenListCompanyCrons(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	now := time.Now()

	// Login: GetByEmail + refresh hash storage.
	mock.ExpectQuery(`SELECT .+ FROM companies WHERE email = \$1`).
		WithArgs("acme@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "country", "sector", "role",
			"is_active", "refresh_token", "website", "telephone", "created_at", "updated_at",
		}).AddRow("c1", "Acme", "acme@example.com", string(hash), "FR", "retail", "company",
			true, "", "", "", now, now))
	mock.ExpectExec(`UPDATE companies SET refresh_token`).
		WithArgs("c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// GET /crons/company/c1
	mock.ExpectQuery(`SELECT .+ FROM crons\s+WHERE company_id = \$1`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "company_id", "name", "description", "tags", "keywords",
			"frequency", "is_active", "last_run_at", "search_count", "created_at", "updated_at",
		}).AddRow("cr1", "c1", "tech watch", "", "{}", "go,cloud", "daily", true, nil, 3, now, now))

	router, _ := newRouter(db, testConfig())
	srv := httptest.NewServer(router)
	defer srv.Close()

	// 1) Login
	loginBody, _ := json.Marshal(map[string]string{"email": "acme@example.com", "password": "secret123"})
	loginResp, err := http.Post(srv.URL+"/auth/login", "application/json", bytes.NewReader(loginBody))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login status: got %d, want 200", loginResp.StatusCode)
	}
	var loginOut struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(loginResp.Body).Decode(&loginOut); err != nil || loginOut.AccessToken == "" {
		t.Fatalf("login response: %v", err)
	}

	// 2) GET /crons/company/c1 with Bearer token
	req, _ := http.NewRequest("GET", srv.URL+"/crons/company/c1", nil)
	req.Header.Set("Authorization", "Bearer "+loginOut.AccessToken)
	cronsResp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("crons request: %v", err)
	}
	defer cronsResp.Body.Close()
	if cronsResp.StatusCode != http.StatusOK {
		t.Fatalf("GET /crons/company/c1 status: got %d, want 200", cronsResp.StatusCode)
	}
	var crons []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		SearchCount int    `json:"search_count"`
	}
	if err := json.NewDecoder(cronsResp.Body).Decode(&crons); err != nil {
		t.Fatalf("decode crons: %v", err)
	}
	if len(crons) != 1 || crons[0].Name != "tech watch" || crons[0].SearchCount != 3 {
		t.Errorf("unexpected crons: %+v", crons)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_Health is a quick smoke test for the health endpoint.
func TestAPI_Health(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	router, _ := newRouter(db, testConfig())
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status: got %d, want 200", resp.StatusCode)
	}
}

// TestAPI_Ready checks that /ready pings the DB and returns 200 when DB is reachable.
func TestAPI_Ready(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectPing()

	router, _ := newRouter(db, testConfig())
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ready")
	if err != nil {
		t.Fatalf("ready request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /ready status: got %d, want 200", resp.StatusCode)
	}
}

// TestAPI_ProtectedRouteRejectsAnonymous checks that protected routes require a token.
func TestAPI_ProtectedRouteRejectsAnonymous(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	router, _ := newRouter(db, testConfig())
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/crons")
	if err != nil {
		t.Fatalf("crons request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /crons without token: got %d, want 401", resp.StatusCode)
	}
}

// TestAPI_AdminRouteRejectsCompanyToken checks the principal split: a company
// token cannot reach back-office administration routes.
func TestAPI_AdminRouteRejectsCompanyToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM companies WHERE email = \$1`).
		WithArgs("acme@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "country", "sector", "role",
			"is_active", "refresh_token", "website", "telephone", "created_at", "updated_at",
		}).AddRow("c1", "Acme", "acme@example.com", string(hash), "FR", "retail", "company",
			true, "", "", "", now, now))
	mock.ExpectExec(`UPDATE companies SET refresh_token`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	router, _ := newRouter(db, testConfig())
	srv := httptest.NewServer(router)
	defer srv.Close()

	loginBody, _ := json.Marshal(map[string]string{"email": "acme@example.com", "password": "secret123"})
	loginResp, err := http.Post(srv.URL+"/auth/login", "application/json", bytes.NewReader(loginBody))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer loginResp.Body.Close()
	var loginOut struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(loginResp.Body).Decode(&loginOut); err != nil || loginOut.AccessToken == "" {
		t.Fatalf("login response: %v", err)
	}

	req, _ := http.NewRequest("GET", srv.URL+"/companies", nil)
	req.Header.Set("Authorization", "Bearer "+loginOut.AccessToken)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("companies request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("GET /companies with company token: got %d, want 403", resp.StatusCode)
	}
}
