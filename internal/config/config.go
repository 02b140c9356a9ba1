package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port   string
	AppEnv string

	// Logging
	LogLevel  string
	LogFormat string

	// Document store
	StoreDriver         string
	DatabaseURL         string
	LocationsCollection string
	SeedPath            string

	// Firebase
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	FirebaseCredentialsPath string

	// Persistent cache tier
	CacheDriver       string
	CacheVersion      string
	CacheFreshTTL     time.Duration
	CacheRefreshAfter time.Duration
	RedisAddr         string
	RedisPassword     string
	RedisDB           int

	// External APIs
	GooglePlacesAPIKey  string
	GooglePlacesBaseURL string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string

	// Admin auth
	AdminJWTSecret string

	// Tracing
	OTLPEndpoint string
}

// Load reads .env (optional), then app.config.yaml (optional) and the
// environment, environment winning.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app.config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{
		Port:   v.GetString("PORT"),
		AppEnv: v.GetString("APP_ENV"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		StoreDriver:         strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		LocationsCollection: v.GetString("LOCATIONS_COLLECTION"),
		SeedPath:            v.GetString("SEED_PATH"),

		FirebaseProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: v.GetString("FIREBASE_CREDENTIALS"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),

		CacheDriver:       strings.ToLower(v.GetString("CACHE_DRIVER")),
		CacheVersion:      v.GetString("CACHE_VERSION"),
		CacheFreshTTL:     v.GetDuration("CACHE_FRESH_TTL"),
		CacheRefreshAfter: v.GetDuration("CACHE_REFRESH_AFTER"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),

		GooglePlacesAPIKey:  v.GetString("GOOGLE_PLACES_API_KEY"),
		GooglePlacesBaseURL: v.GetString("GOOGLE_PLACES_BASE_URL"),
		OpenAIAPIKey:        v.GetString("OPENAI_API_KEY"),
		OpenAIModel:         v.GetString("OPENAI_MODEL"),
		OpenAIBaseURL:       v.GetString("OPENAI_BASE_URL"),

		AdminJWTSecret: v.GetString("ADMIN_JWT_SECRET"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("STORE_DRIVER", "firestore")
	v.SetDefault("LOCATIONS_COLLECTION", "locations")
	v.SetDefault("SEED_PATH", "data/seeds/locations.json")
	v.SetDefault("CACHE_DRIVER", "redis")
	v.SetDefault("CACHE_VERSION", "1.0")
	v.SetDefault("CACHE_FRESH_TTL", 24*time.Hour)
	v.SetDefault("CACHE_REFRESH_AFTER", time.Hour)
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("GOOGLE_PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "firestore", "postgres", "memory":
	default:
		return fmt.Errorf("config: STORE_DRIVER must be firestore, postgres or memory, got %q", c.StoreDriver)
	}
	switch c.CacheDriver {
	case "redis", "postgres", "none":
	default:
		return fmt.Errorf("config: CACHE_DRIVER must be redis, postgres or none, got %q", c.CacheDriver)
	}
	if (c.StoreDriver == "postgres" || c.CacheDriver == "postgres") && strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("config: DATABASE_URL is required for the postgres driver")
	}
	if c.CacheFreshTTL <= 0 {
		return errors.New("config: CACHE_FRESH_TTL must be positive")
	}
	if c.CacheRefreshAfter < 0 || c.CacheRefreshAfter > c.CacheFreshTTL {
		return errors.New("config: CACHE_REFRESH_AFTER must be between 0 and CACHE_FRESH_TTL")
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
