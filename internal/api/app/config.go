package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	BaseURL string // Required: externally reachable root for verification links

	JWTSecret        string // Required: HS256 secret for access tokens
	JWTRefreshSecret string // Optional: HS256 secret for refresh tokens (falls back to JWTSecret)
	Issuer           string // Optional: issuer claim for tokens (default: comicshelf)

	DatabaseFile    string        // Optional: path to SQLite database file (default: ./comicshelf.db)
	VerificationTTL time.Duration // Optional: verification link lifetime (default: 1h)

	SMTPHost     string // Required for outbound mail
	SMTPPort     int    // Optional: SMTP port (default: 587)
	SMTPUsername string // Optional: SMTP auth user
	SMTPPassword string // Optional: SMTP auth password
	MailFrom     string // Required: From address for outbound mail

	S3Region        string // Optional: S3 region (default: us-east-1)
	S3Bucket        string // Required for avatar uploads
	S3AccessKey     string // Required for avatar uploads
	S3SecretKey     string // Required for avatar uploads
	S3BaseEndpoint  string // Optional: custom endpoint for S3-compatible stores
	S3PublicBaseURL string // Required: public URL root for uploaded objects

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	// RequireDistinctSecrets rejects a refresh secret that is missing or
	// equal to the access secret instead of silently reusing it.
	RequireDistinctSecrets bool
}

func LoadConfig() Config {
	cfg := Config{
		BaseURL: os.Getenv("BASE_URL"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
		Issuer:           getEnvOrDefault("AUTH_ISSUER", "comicshelf"),

		DatabaseFile:    getEnvOrDefault("DATABASE_FILE", "comicshelf.db"),
		VerificationTTL: getEnvDurationOrDefault("VERIFICATION_TTL", time.Hour),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("AUTH_EMAIL"),
		SMTPPassword: os.Getenv("AUTH_PASS"),
		MailFrom:     getEnvOrDefault("MAIL_FROM", os.Getenv("AUTH_EMAIL")),

		S3Region:        getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3BaseEndpoint:  os.Getenv("S3_ENDPOINT"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		RequireDistinctSecrets: getEnvOrDefault("AUTH_REQUIRE_DISTINCT_SECRETS", "false") == "true",
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}

	return cfg
}

// Validate checks the settings that have no sensible default.
func (cfg Config) Validate() error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if cfg.RequireDistinctSecrets &&
		(cfg.JWTRefreshSecret == "" || cfg.JWTRefreshSecret == cfg.JWTSecret) {
		return errors.New("JWT_REFRESH_SECRET must be set and distinct from JWT_SECRET")
	}
	if cfg.SMTPHost == "" {
		return errors.New("SMTP_HOST is required")
	}
	if cfg.MailFrom == "" {
		return errors.New("MAIL_FROM or AUTH_EMAIL is required")
	}
	if cfg.S3Bucket == "" {
		return errors.New("S3_BUCKET is required")
	}
	if cfg.S3PublicBaseURL == "" {
		return errors.New("S3_PUBLIC_BASE_URL is required")
	}
	return nil
}

// RefreshSecret resolves the refresh signing secret, falling back to the
// access secret when a dedicated one is not configured.
func (cfg Config) RefreshSecret() string {
	if cfg.JWTRefreshSecret != "" {
		return cfg.JWTRefreshSecret
	}
	return cfg.JWTSecret
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
