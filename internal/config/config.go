package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port      string
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	MinIO     MinIOConfig
	Webhook   WebhookConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type DatabaseConfig struct {
	URL            string
	MigrationsDir  string
	MigrateOnStart bool
}

// RedisConfig is optional; an empty Addr selects the in-process store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	JWKSURL    string
}

// MinIOConfig is optional; an empty Endpoint disables report exports.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != ""
}

type WebhookConfig struct {
	Timeout     time.Duration
	MaxAttempts int
}

type RateLimitConfig struct {
	PerMinute int
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	var errs []string
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			URL:            os.Getenv("DATABASE_URL"),
			MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
			MigrateOnStart: getBool("MIGRATE_ON_START", false, &errs),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0, &errs),
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			AccessTTL:  getDuration("JWT_ACCESS_TTL", 15*time.Minute, &errs),
			RefreshTTL: getDuration("JWT_REFRESH_TTL", 720*time.Hour, &errs),
			JWKSURL:    os.Getenv("AUTH_JWKS_URL"),
		},
		MinIO: MinIOConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    getBool("MINIO_USE_SSL", false, &errs),
			Bucket:    getEnv("MINIO_BUCKET", "gestly-reports"),
		},
		Webhook: WebhookConfig{
			Timeout:     getDuration("WEBHOOK_TIMEOUT", 10*time.Second, &errs),
			MaxAttempts: getInt("WEBHOOK_MAX_ATTEMPTS", 5, &errs),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120, &errs),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" && cfg.Auth.JWKSURL == "" {
		errs = append(errs, "JWT_SECRET or AUTH_JWKS_URL is required")
	}
	if cfg.RateLimit.PerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_PER_MINUTE must be positive")
	}
	if cfg.Webhook.MaxAttempts <= 0 {
		errs = append(errs, "WEBHOOK_MAX_ATTEMPTS must be positive")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be an integer", key))
		return fallback
	}
	return n
}

func getBool(key string, fallback bool, errs *[]string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be a boolean", key))
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration, errs *[]string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be a duration", key))
		return fallback
	}
	return d
}
