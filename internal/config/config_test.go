package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com/")
	t.Setenv("BACKEND_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendAPI, cfg.BackendMode)
	assert.Equal(t, "https://api.example.com", cfg.UpstreamBaseURL)
	assert.Equal(t, "https://event-landing-sigma.vercel.app", cfg.PublicFormBaseURL)
	assert.Equal(t, 10, cfg.SubmissionsPageSize)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "console.notifications", cfg.NotifySubject)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BACKEND_MODE", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/qvent")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "3600")
	t.Setenv("DRAFT_TTL", "90m")
	t.Setenv("SUBMISSIONS_PAGE_SIZE", "25")
	t.Setenv("ADMIN_FANOUT", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.BackendMode)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 90*time.Minute, cfg.DraftTTL)
	assert.Equal(t, 25, cfg.SubmissionsPageSize)
	assert.Equal(t, 8, cfg.AdminFanout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"api without upstream", map[string]string{"BACKEND_MODE": "api", "UPSTREAM_BASE_URL": ""}},
		{"postgres without url", map[string]string{"BACKEND_MODE": "postgres", "DATABASE_URL": "", "JWT_SECRET": "s3cret"}},
		{"postgres without jwt secret", map[string]string{"BACKEND_MODE": "postgres", "DATABASE_URL": "postgres://localhost/qvent", "JWT_SECRET": ""}},
		{"unknown mode", map[string]string{"BACKEND_MODE": "firestore"}},
		{"zero page size", map[string]string{"UPSTREAM_BASE_URL": "http://x", "SUBMISSIONS_PAGE_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BACKEND_MODE", "")
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_APIModeWithoutSecret(t *testing.T) {
	t.Setenv("BACKEND_MODE", "api")
	t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.JWTSecret)
}
