package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreSupabase = "supabase"
	StoreMemory   = "memory"
	StoreSqlite   = "sqlite"
)

type Config struct {
	Port            string `env:"PORT" envDefault:"8080"`
	Environment     string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	StoreDriver     string `env:"STORE_DRIVER" envDefault:"supabase"`
	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_URL_ANON_KEY"`
	MongoDBURI      string `env:"MONGODB_URI"`
	MongoDBPassword string `env:"MONGODB_PASSWORD"`
	SQLitePath      string `env:"SQLITE_PATH" envDefault:"nearby.db"`

	// RedisURL switches the event lock from in-process to Redis.
	RedisURL string        `env:"REDIS_URL"`
	LockTTL  time.Duration `env:"ATTENDANCE_LOCK_TTL" envDefault:"5s"`

	PubNubPublishKey   string `env:"PUBNUB_PUBLISH_KEY"`
	PubNubSubscribeKey string `env:"PUBNUB_SUBSCRIBE_KEY"`
	PubNubSecretKey    string `env:"PUBNUB_SECRET_KEY"`
	PubNubUserID       string `env:"PUBNUB_USER_ID" envDefault:"nearby-api"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	ProductDomain  string   `env:"PRODUCT_DOMAIN" envDefault:"nearby.app"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	EnableMetrics  bool     `env:"ENABLE_METRICS" envDefault:"true"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.AllowedOrigins = cleanList(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the chosen store driver depends on.
func (c *Config) Validate() error {
	if c.LockTTL <= 0 {
		return fmt.Errorf("ATTENDANCE_LOCK_TTL must be a positive duration")
	}

	switch c.StoreDriver {
	case StoreMemory:
		return nil
	case StoreSqlite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
		return nil
	case StoreSupabase:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	if c.MongoDBURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.MongoDBPassword == "" {
		return fmt.Errorf("MONGODB_PASSWORD is required")
	}
	return nil
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) PubNubEnabled() bool {
	return c.PubNubPublishKey != "" && c.PubNubSubscribeKey != ""
}

func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
