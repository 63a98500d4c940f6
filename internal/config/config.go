package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"funkard-admin-service/internal/pkg/jwt"

	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type AppConfig struct {
	// Server
	HTTPAddr string
	Env      string

	// Storage
	Storage     string
	DatabaseURL string
	DBMaxConns  int32

	// Redis, used for the public ticket rate limit
	RedisAddr        string
	RedisPass        string
	RateLimitTickets int64
	RateLimitWindow  time.Duration

	// Auth
	JWT          jwt.Config
	AuthRequired bool
	CronSecret   string

	// Retention
	CleanupDefaultDays int

	// Tracing
	OTLPEndpoint string
}

// Load reads configuration from the environment, optionally layered over
// a config file. Environment variables always win.
func Load(configFile string) (AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return AppConfig{}, fmt.Errorf("reading config %s: %w", configFile, err)
			}
		}
	}

	cfg := AppConfig{
		HTTPAddr: v.GetString("HTTP_ADDR"),
		Env:      v.GetString("APP_ENV"),

		Storage:     strings.ToLower(v.GetString("STORAGE")),
		DatabaseURL: v.GetString("DATABASE_URL"),
		DBMaxConns:  v.GetInt32("DB_MAX_CONNS"),

		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPass:        v.GetString("REDIS_PASS"),
		RateLimitTickets: v.GetInt64("RATE_LIMIT_TICKETS"),
		RateLimitWindow:  v.GetDuration("RATE_LIMIT_WINDOW"),

		JWT: jwt.Config{
			PrivPath: v.GetString("JWT_PRIVATE_KEY_PATH"),
			PubPath:  v.GetString("JWT_PUBLIC_KEY_PATH"),
			Issuer:   v.GetString("JWT_ISSUER"),
			Audience: v.GetString("JWT_AUDIENCE"),
			TTL:      v.GetDuration("JWT_TTL"),
			KID:      v.GetString("JWT_KID"),
		},
		AuthRequired: v.GetBool("AUTH_REQUIRED"),
		CronSecret:   v.GetString("CRON_SECRET_TOKEN"),

		CleanupDefaultDays: v.GetInt("CLEANUP_DEFAULT_DAYS"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks combinations that would only fail later at startup.
func (c AppConfig) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE=%s", StoragePostgres)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	if c.AuthRequired && c.JWT.PubPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required when AUTH_REQUIRED is set")
	}
	if c.CleanupDefaultDays < 0 {
		return fmt.Errorf("CLEANUP_DEFAULT_DAYS must not be negative")
	}
	return nil
}

// IsProduction reports whether the service runs with production logging.
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("STORAGE", StorageMemory)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASS", "")
	v.SetDefault("RATE_LIMIT_TICKETS", 5)
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")

	v.SetDefault("JWT_PRIVATE_KEY_PATH", "")
	v.SetDefault("JWT_PUBLIC_KEY_PATH", "")
	v.SetDefault("JWT_TTL", "12h")
	v.SetDefault("JWT_KID", "")
	v.SetDefault("JWT_ISSUER", "funkard")
	v.SetDefault("JWT_AUDIENCE", "funkard-admin")
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("CRON_SECRET_TOKEN", "")

	v.SetDefault("CLEANUP_DEFAULT_DAYS", 30)

	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}
