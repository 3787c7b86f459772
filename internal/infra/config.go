package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	DataDir          string
	AssetBaseURL     string
	GeneratorAPIKey  string
	GeneratorModel   string
	GeneratorBaseURL string
	GeoIPDBPath      string
	DefaultLocale    string
	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL is optional: without it the service
// runs on the file-backed store under DataDir.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DataDir:          getEnv("DATA_DIR", "./data"),
		AssetBaseURL:     os.Getenv("ASSET_BASE_URL"),
		GeneratorAPIKey:  os.Getenv("GENERATOR_API_KEY"),
		GeneratorModel:   getEnv("GENERATOR_MODEL", "gemini-2.5-flash"),
		GeneratorBaseURL: getEnv("GENERATOR_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.AssetBaseURL == "" {
		cfg.AssetBaseURL = fmt.Sprintf("http://localhost:%s/static", cfg.Port)
	}
	if _, err := url.Parse(cfg.AssetBaseURL); err != nil {
		return nil, fmt.Errorf("ASSET_BASE_URL is invalid: %w", err)
	}
	if cfg.RateLimitPerMin <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
