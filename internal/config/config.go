package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend modes
const (
	BackendAPI      = "api"
	BackendPostgres = "postgres"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string

	BackendMode     string
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	DatabaseURL     string

	RedisURL   string
	JWTSecret  string
	SessionTTL time.Duration
	DraftTTL   time.Duration

	NATSURL       string
	NotifySubject string

	PublicFormBaseURL   string
	SubmissionsPageSize int
	AdminFanout         int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		AllowedOrigins:      parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Environment:         getEnv("ENVIRONMENT", "production"),
		BackendMode:         strings.ToLower(getEnv("BACKEND_MODE", BackendAPI)),
		UpstreamBaseURL:     strings.TrimRight(getEnv("UPSTREAM_BASE_URL", ""), "/"),
		UpstreamTimeout:     getDurationEnv("UPSTREAM_TIMEOUT", 15*time.Second),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		SessionTTL:          getDurationEnv("SESSION_TTL", 12*time.Hour),
		DraftTTL:            getDurationEnv("DRAFT_TTL", 24*time.Hour),
		NATSURL:             getEnv("NATS_URL", ""),
		NotifySubject:       getEnv("NOTIFY_SUBJECT", "console.notifications"),
		PublicFormBaseURL:   strings.TrimRight(getEnv("PUBLIC_FORM_BASE_URL", "https://event-landing-sigma.vercel.app"), "/"),
		SubmissionsPageSize: getIntEnv("SUBMISSIONS_PAGE_SIZE", 10),
		AdminFanout:         getIntEnv("ADMIN_FANOUT", 8),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.BackendMode {
	case BackendAPI:
		if c.UpstreamBaseURL == "" {
			return fmt.Errorf("UPSTREAM_BASE_URL is required when BACKEND_MODE=%s", BackendAPI)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when BACKEND_MODE=%s", BackendPostgres)
		}
		// nothing downstream checks the token signature in this mode
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when BACKEND_MODE=%s", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown BACKEND_MODE %q", c.BackendMode)
	}
	if c.SubmissionsPageSize <= 0 {
		return fmt.Errorf("SUBMISSIONS_PAGE_SIZE must be positive, got %d", c.SubmissionsPageSize)
	}
	if c.AdminFanout <= 0 {
		return fmt.Errorf("ADMIN_FANOUT must be positive, got %d", c.AdminFanout)
	}
	return nil
}

// IsDevelopment reports whether the service runs locally
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv ignores values that do not parse
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv accepts Go durations ("90s", "12h") or plain seconds
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
