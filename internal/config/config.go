package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int
	// BaseURL prefixes redirects and links sent in emails.
	BaseURL string

	// DBURL selects the postgres user directory; empty keeps users in memory.
	DBURL string

	SessionSecret string
	TokenFormat   string
	BcryptCost    int

	LockoutThreshold int
	LockoutDuration  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitAuth   int
	RateLimitWindow time.Duration

	ManagedAuthURL     string
	ManagedAuthAnonKey string

	CORSAllowedOrigins []string
	ProtectedPrefixes  []string
	MaxBodyBytes       int64

	OTelEndpoint string

	AdminEmail     string
	AdminPassword  string
	AdminFirstName string
	AdminLastName  string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:     getEnv("APP_ENV", "dev"),
		Port:    getEnvInt("PORT", 8080),
		BaseURL: strings.TrimRight(getEnv("BASE_URL", ""), "/"),

		DBURL: getEnv("DATABASE_URL", ""),

		SessionSecret: getEnv("SESSION_SECRET", "dev-secret-change-me"),
		TokenFormat:   getEnv("TOKEN_FORMAT", "jwt"),
		BcryptCost:    getEnvInt("BCRYPT_COST", 10),

		LockoutThreshold: getEnvInt("LOCKOUT_THRESHOLD", 5),
		LockoutDuration:  getEnvDuration("LOCKOUT_DURATION", 15*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitAuth:   getEnvInt("RATE_LIMIT_AUTH", 20),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		ManagedAuthURL:     getEnv("MANAGED_AUTH_URL", ""),
		ManagedAuthAnonKey: getEnv("MANAGED_AUTH_ANON_KEY", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		ProtectedPrefixes:  getEnvList("PROTECTED_PREFIXES", []string{"/account", "/checkout", "/orders"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		AdminFirstName: getEnv("ADMIN_FIRST_NAME", "Store"),
		AdminLastName:  getEnv("ADMIN_LAST_NAME", "Admin"),
	}
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env var, using default", "key", key, "value", v)
		return fallback
	}

	return num
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env var, using default", "key", key, "value", v)
		return fallback
	}

	return d
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	if len(out) == 0 {
		return fallback
	}
	return out
}
