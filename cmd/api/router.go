package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/market-supervisor/internal/auth"
	"github.com/crucial707/market-supervisor/internal/config"
	"github.com/crucial707/market-supervisor/internal/dedup"
	"github.com/crucial707/market-supervisor/internal/email"
	"github.com/crucial707/market-supervisor/internal/executor"
	"github.com/crucial707/market-supervisor/internal/handlers"
	"github.com/crucial707/market-supervisor/internal/middleware"
	"github.com/crucial707/market-supervisor/internal/repo"
	"github.com/crucial707/market-supervisor/internal/search"
)

// newRouter builds the full HTTP API and the executor it shares with the
// scheduler. Everything hangs off the one *sql.DB.
func newRouter(db *sql.DB, cfg config.Config) (http.Handler, *executor.Executor) {
	companies := repo.NewCompanyRepo(db)
	users := repo.NewUserRepo(db)
	crons := repo.NewCronRepo(db)
	results := repo.NewSearchResultRepo(db)

	provider := search.NewProvider(search.Config{
		APIKey:         cfg.GoogleAPIKey,
		CX:             cfg.GoogleCX,
		QuotaPolicy:    cfg.SearchQuotaPolicy,
		SimResultCount: cfg.SimResultCount,
	}, nil)

	exec := executor.New(crons, companies, results, provider, nil)

	tokens := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	guard := dedup.NewGuard()
	dedupTTL := time.Duration(cfg.DedupTTLSeconds) * time.Second
	mailer := email.NewMailer(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
		LoginURL: cfg.FrontendURL,
	}, nil)

	authH := &handlers.AuthHandler{Companies: companies, Users: users, Tokens: tokens}
	companyH := &handlers.CompanyHandler{Companies: companies, Guard: guard, Mailer: mailer, DedupTTL: dedupTTL}
	userH := &handlers.UserHandler{Users: users}
	cronH := &handlers.CronHandler{Crons: crons, Companies: companies, Exec: exec, Guard: guard, DedupTTL: dedupTTL, Log: slog.Default()}
	resultH := &handlers.SearchResultHandler{Results: results, Crons: crons}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			handlers.JSONError(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/auth/register", authH.RegisterCompany)
		r.Post("/auth/login", authH.LoginCompany)
		r.Post("/auth/admin/login", authH.LoginUser)
		r.Post("/auth/refresh", authH.Refresh)
	})

	// Everything below needs a valid access token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens))

		r.Post("/auth/logout", authH.Logout)

		// Back-office administration: admin principals only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePrincipal(auth.PrincipalUser))

			r.Post("/companies", companyH.Create)
			r.Get("/companies", companyH.List)
			r.Get("/companies/{id}", companyH.Get)
			r.Put("/companies/{id}", companyH.Update)
			r.Delete("/companies/{id}", companyH.Delete)
			r.Post("/companies/{id}/toggle-active", companyH.ToggleActive)
			r.Post("/companies/{id}/reset-password", companyH.ResetPassword)

			r.Post("/users", userH.Create)
			r.Get("/users", userH.List)
			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Delete("/users/{id}", userH.Delete)
			r.Post("/users/{id}/toggle-active", userH.ToggleActive)

			r.Get("/crons", cronH.List)
			r.Get("/crons/active", cronH.ListActive)
			r.Post("/crons/execute-all", cronH.ExecuteAll)
			r.Delete("/search-results/purge", resultH.Purge)
		})

		// Cron and result management: both principal types.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePrincipal(auth.PrincipalCompany, auth.PrincipalUser))

			r.Post("/crons", cronH.Create)
			r.Get("/crons/company/{companyID}", cronH.ListByCompany)
			r.Get("/crons/{id}", cronH.Get)
			r.Put("/crons/{id}", cronH.Update)
			r.Delete("/crons/{id}", cronH.Delete)
			r.Post("/crons/{id}/toggle-active", cronH.ToggleActive)
			r.Post("/crons/{id}/activate", cronH.Activate)
			r.Post("/crons/{id}/deactivate", cronH.Deactivate)
			r.Post("/crons/{id}/execute", cronH.Execute)

			r.Get("/search-results/cron/{cronID}", resultH.ListByCron)
			r.Get("/search-results/cron/{cronID}/recent", resultH.Recent)
			r.Get("/search-results/cron/{cronID}/range", resultH.DateRange)
			r.Get("/search-results/cron/{cronID}/stats", resultH.Stats)
		})
	})

	return r, exec
}
