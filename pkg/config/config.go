package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Analysis pipeline
	Analysis AnalysisConfig

	// Market data providers
	Providers ProviderConfig

	// History persistence (optional)
	Database DatabaseConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// AnalysisConfig holds batch analysis parameters.
type AnalysisConfig struct {
	Workers    int           // worker pool width
	PeriodDays int           // lookback window fetched per symbol
	Watchlist  string        // path to the tracking list (csv or yaml)
	RetryCount int           // attempts per provider before fallback
	RetryDelay time.Duration // delay between attempts
}

// ProviderConfig holds provider endpoints, cache TTLs and rate limits.
type ProviderConfig struct {
	TCBSBaseURL  string
	VCIBaseURL   string
	YahooBaseURL string
	SheetID      string

	APICacheTTL    time.Duration // tcbs, vci, yahoo
	SheetsCacheTTL time.Duration // sheets feed updates once per day

	RatePerSecond int // per-host request budget
}

// DatabaseConfig holds PostgreSQL configuration for rating history.
// Persistence is optional; an empty URL disables it.
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether rating history persistence is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8091"),
		Env:  getEnv("ENV", "development"),

		Analysis: AnalysisConfig{
			Workers:    getEnvAsInt("ANALYSIS_WORKERS", 15),
			PeriodDays: getEnvAsInt("ANALYSIS_PERIOD_DAYS", 365),
			Watchlist:  getEnv("WATCHLIST_PATH", "TA_Tracking_List.csv"),
			RetryCount: getEnvAsInt("PROVIDER_RETRY_COUNT", 2),
			RetryDelay: getEnvAsDuration("PROVIDER_RETRY_DELAY", "1s"),
		},

		Providers: ProviderConfig{
			TCBSBaseURL:    getEnv("TCBS_BASE_URL", "https://apipubaws.tcbs.com.vn"),
			VCIBaseURL:     getEnv("VCI_BASE_URL", "https://trading.vietcap.com.vn"),
			YahooBaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			SheetID:        getEnv("VNMIDCAP_SHEET_ID", "1-aoYbQDjBeOuzqT8LuURuOuEF4K0qsSA"),
			APICacheTTL:    getEnvAsDuration("API_CACHE_TTL", "5m"),
			SheetsCacheTTL: getEnvAsDuration("SHEETS_CACHE_TTL", "30m"),
			RatePerSecond:  getEnvAsInt("PROVIDER_RATE_PER_SECOND", 10),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Analysis.Workers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be at least 1")
	}

	if c.Analysis.RetryCount < 1 {
		return fmt.Errorf("PROVIDER_RETRY_COUNT must be at least 1")
	}

	if c.Providers.SheetID == "" {
		return fmt.Errorf("VNMIDCAP_SHEET_ID is required")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
