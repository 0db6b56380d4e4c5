package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often a pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	// AuthSecret signs portal session tokens (HS256).
	AuthSecret string

	// CronJobKey authorizes scheduled maintenance endpoints (draft purge).
	// Callers send it in the X-Job-Key header; no user session involved.
	CronJobKey string

	// UploadDir is the root directory for stored booking documents.
	UploadDir string

	// DraftTTLDays is the age after which unsubmitted drafts are purged.
	DraftTTLDays int

	// RateLimitPerMinute bounds mutating requests per user per minute.
	RateLimitPerMinute int

	// PortalAllowedOrigins is a comma-separated allowlist of origins allowed
	// to call the portal API from the browser. Example:
	//   https://portal.checa-lab.example,http://localhost:5173
	PortalAllowedOrigins []string

	Notify NotifyConfig
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type NotifyConfig struct {
	// WebhookURL receives booking-event notifications as JSON posts.
	// Empty means notifications are only logged.
	WebhookURL string
	Token      string

	// PollSeconds is the outbox dispatcher poll interval.
	PollSeconds int
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "labportal"),
			User:     env("DB_USER", "labportal"),
			Password: env("DB_PASSWORD", "labportal"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},

		AuthSecret: os.Getenv("AUTH_SECRET"),
		CronJobKey: os.Getenv("CRON_JOB_KEY"),
		UploadDir:  env("UPLOAD_DIR", "uploads"),

		DraftTTLDays:       envInt("DRAFT_TTL_DAYS", 7),
		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 30),

		PortalAllowedOrigins: envList("PORTAL_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),

		Notify: NotifyConfig{
			WebhookURL:  os.Getenv("NOTIFY_WEBHOOK_URL"),
			Token:       os.Getenv("NOTIFY_WEBHOOK_TOKEN"),
			PollSeconds: envInt("NOTIFY_POLL_SECONDS", 15),
		},
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
