package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application settings read from the environment.
type Config struct {
	AppName string
	Addr    string
	Debug   bool

	SecretKey string

	// Database
	DatabaseURL  string
	DBMaxOpen    int
	DBMaxIdle    int
	DBMaxIdleFor time.Duration

	// Session
	SessionCookieName string
	SessionMaxAge     time.Duration
	CSRFTokenExpiry   time.Duration

	// Security
	BcryptCost            int
	LoginRatePerMinute    int
	RegisterRatePerMinute int
	CORSOrigins           []string
	TrustProxy            bool

	DataRetentionDays int

	// Redis, optional
	RedisURL    string
	KPICacheTTL time.Duration

	// RabbitMQ, optional
	RabbitMQURL string

	// Mail
	MailHost     string
	MailPort     int
	MailUser     string
	MailPassword string
	MailFrom     string

	LogLevel string
}

// Load reads .env if present, then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName: envOr("APP_NAME", "Onboarding Dashboard"),
		Addr:    envOr("ADDR", ":8080"),
		Debug:   envBool("DEBUG", false),

		SecretKey: envOr("SECRET_KEY", "change-me-in-production-use-strong-random-key"),

		DatabaseURL:  envOr("DATABASE_URL", "onboarding.db"),
		DBMaxOpen:    envInt("DB_POOL_SIZE", 5) + envInt("DB_MAX_OVERFLOW", 10),
		DBMaxIdle:    envInt("DB_POOL_SIZE", 5),
		DBMaxIdleFor: time.Duration(envInt("DB_POOL_TIMEOUT", 30)) * time.Second,

		SessionCookieName: envOr("SESSION_COOKIE_NAME", "session"),
		SessionMaxAge:     time.Duration(envInt("SESSION_MAX_AGE", 8*3600)) * time.Second,
		CSRFTokenExpiry:   time.Duration(envInt("CSRF_TOKEN_EXPIRY", 3600)) * time.Second,

		BcryptCost:            envInt("BCRYPT_ROUNDS", 12),
		LoginRatePerMinute:    envInt("LOGIN_RATE_PER_MINUTE", 5),
		RegisterRatePerMinute: envInt("REGISTER_RATE_PER_MINUTE", 3),
		CORSOrigins:           envList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		TrustProxy:            envBool("TRUST_PROXY", false),

		DataRetentionDays: envInt("DATA_RETENTION_DAYS", 365*2),

		RedisURL:    os.Getenv("REDIS_URL"),
		KPICacheTTL: time.Duration(envInt("KPI_CACHE_TTL", 60)) * time.Second,

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		MailHost:     os.Getenv("MAIL_HOST"),
		MailPort:     envInt("MAIL_PORT", 587),
		MailUser:     os.Getenv("MAIL_USER"),
		MailPassword: os.Getenv("MAIL_PASS"),
		MailFrom:     envOr("MAIL_FROM", "dashboard@localhost"),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}
}

// Dialect reports which database driver DatabaseURL selects.
func (c Config) Dialect() string {
	if strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
