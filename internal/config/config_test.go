package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xavierca1/pipeline-dashboard/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "DATABASE_URL", "SESSION_MAX_AGE", "CORS_ORIGINS", "BCRYPT_ROUNDS", "REDIS_URL", "DEBUG", "LOGIN_RATE_PER_MINUTE", "REGISTER_RATE_PER_MINUTE", "TRUST_PROXY"} {
		t.Setenv(k, "")
	}

	cfg := config.Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.Dialect())
	assert.Equal(t, 8*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 730, cfg.DataRetentionDays)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 5, cfg.LoginRatePerMinute)
	assert.Equal(t, 3, cfg.RegisterRatePerMinute)
	assert.False(t, cfg.TrustProxy)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db?sslmode=disable")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SESSION_MAX_AGE", "60")
	t.Setenv("DEBUG", "true")
	t.Setenv("BCRYPT_ROUNDS", "not-a-number")
	t.Setenv("REGISTER_RATE_PER_MINUTE", "10")
	t.Setenv("TRUST_PROXY", "true")

	cfg := config.Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres", cfg.Dialect())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, time.Minute, cfg.SessionMaxAge)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 10, cfg.RegisterRatePerMinute)
	assert.True(t, cfg.TrustProxy)
}
