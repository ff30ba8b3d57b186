package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/crucial707/market-supervisor/internal/config"
	"github.com/crucial707/market-supervisor/internal/db"
	"github.com/crucial707/market-supervisor/internal/scheduler"
)

func main() {

	cfg := config.Load()

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if cfg.Env == "prod" {
		if cfg.JWTAccessSecret == "dev-access-secret" || cfg.JWTRefreshSecret == "dev-refresh-secret" {
			logger.Error("JWT secrets must be set in prod")
			os.Exit(1)
		}
	}

	database, err := db.Connect(
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
	)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	logger.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if err := db.Run(db.URL(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	router, exec := newRouter(database, cfg)

	timer := scheduler.Start(exec, logger)
	defer timer.Stop()

	addr := ":" + cfg.Port
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		logger.Info("starting server with TLS", "addr", addr)
		err = http.ListenAndServeTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile, router)
	} else {
		logger.Info("starting server", "addr", addr)
		err = http.ListenAndServe(addr, router)
	}
	if err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
