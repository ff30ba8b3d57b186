package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// JWTAccessSecret signs access tokens (15 minute lifetime).
	JWTAccessSecret string
	// JWTRefreshSecret signs refresh tokens (7 day lifetime).
	JWTRefreshSecret string

	// Env is "dev" (default) or "prod". When "prod", both JWT secrets must be set
	// and must not be the defaults.
	Env string

	// SMTP settings for credential emails. When SMTPHost is empty, mail sending is
	// disabled and generated credentials are only written to the log.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	// SMTPFrom is the sender address on outgoing mail.
	SMTPFrom string
	// FrontendURL is the login link embedded in credential emails.
	FrontendURL string

	// GoogleAPIKey and GoogleCX configure the Custom Search API. When either is
	// missing the search provider runs in simulation mode.
	GoogleAPIKey string
	GoogleCX     string

	// SearchQuotaPolicy is "fail" (default) or "degrade". Under "degrade", a 403
	// from the search API yields simulated results instead of a run failure.
	SearchQuotaPolicy string

	// SimResultCount is the number of placeholder results produced in simulation
	// mode (default 5).
	SimResultCount int

	// DedupTTLSeconds is how long a creation idempotency key stays held (default 30).
	DedupTTLSeconds int

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// CORSAllowedOrigins is a list of origins allowed for CORS.
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent.
	CORSAllowedOrigins []string
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "supervisordb"),
		DBUser: getEnv("DB_USER", "supervisor"),
		DBPass: getEnv("DB_PASS", "supervisorpass"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", "dev-access-secret"),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", "dev-refresh-secret"),
		Env:              getEnv("ENV", "dev"),

		SMTPHost:    getEnv("SMTP_HOST", ""),
		SMTPPort:    getEnvInt("SMTP_PORT", 587),
		SMTPUser:    getEnv("SMTP_USERNAME", ""),
		SMTPPass:    getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:    getEnv("SMTP_FROM", "no-reply@market-supervisor.local"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000/login"),

		GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),
		GoogleCX:     getEnv("GOOGLE_CX", ""),

		SearchQuotaPolicy: getEnv("SEARCH_QUOTA_POLICY", "fail"),
		SimResultCount:    getEnvInt("SIM_RESULT_COUNT", 5),

		DedupTTLSeconds: getEnvInt("DEDUP_TTL_SECONDS", 30),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
