package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Upstream screener
	Screener ScreenerConfig

	// Rebalancing engine
	Engine EngineConfig

	// Scheduler
	Scheduler SchedulerConfig

	// CronSecret guards the run-engine HTTP trigger (Bearer token)
	CronSecret string

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ScreenerConfig holds settings for the HTML screener source
type ScreenerConfig struct {
	BaseURL    string
	PageDelay  time.Duration // minimum gap between result-page fetches
	PriceDelay time.Duration // minimum gap between current-price lookups
	Timeout    time.Duration // per request
	MaxPages   int
	MaxRetries int
}

// EngineConfig holds the trading constants of a rebalancing run
type EngineConfig struct {
	InitialCash        float64
	FeeRate            float64
	SellFallbackMarkup float64
	TopN               int
	RunTimeout         time.Duration
	LockTTL            time.Duration
}

// SchedulerConfig holds the periodic trigger settings
type SchedulerConfig struct {
	EngineCron string // cron expression with seconds field
	MaxRetries int
}

// LoadFrom loads path (when set) ahead of the default .env lookup, then calls Load.
// Variables already present in the environment win over both files.
func LoadFrom(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return Load()
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Screener: ScreenerConfig{
			BaseURL:    getEnv("SCREENER_BASE_URL", "https://www.screener.in"),
			PageDelay:  getEnvAsDuration("SCREENER_PAGE_DELAY", "1s"),
			PriceDelay: getEnvAsDuration("SCREENER_PRICE_DELAY", "600ms"),
			Timeout:    getEnvAsDuration("SCREENER_TIMEOUT", "15s"),
			MaxPages:   getEnvAsInt("SCREENER_MAX_PAGES", 50),
			MaxRetries: getEnvAsInt("SCREENER_MAX_RETRIES", 2),
		},

		Engine: EngineConfig{
			InitialCash:        getEnvAsFloat("ENGINE_INITIAL_CASH", 1000000),
			FeeRate:            getEnvAsFloat("ENGINE_FEE_RATE", 0.01),
			SellFallbackMarkup: getEnvAsFloat("ENGINE_SELL_FALLBACK_MARKUP", 0.05),
			TopN:               getEnvAsInt("ENGINE_TOP_N", 10),
			RunTimeout:         getEnvAsDuration("ENGINE_RUN_TIMEOUT", "10m"),
			LockTTL:            getEnvAsDuration("ENGINE_LOCK_TTL", "15m"),
		},

		Scheduler: SchedulerConfig{
			// 16:30 on weekdays, after the Indian market close
			EngineCron: getEnv("SCHEDULER_ENGINE_CRON", "0 30 16 * * 1-5"),
			MaxRetries: getEnvAsInt("SCHEDULER_MAX_RETRIES", 0),
		},

		CronSecret: getEnv("CRON_SECRET", "dev-secret-token"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Screener.PageDelay <= 0 || c.Screener.PriceDelay <= 0 {
		return fmt.Errorf("SCREENER_PAGE_DELAY and SCREENER_PRICE_DELAY must be positive")
	}
	if c.Screener.Timeout <= 0 {
		return fmt.Errorf("SCREENER_TIMEOUT must be positive")
	}
	if c.Screener.MaxPages < 1 {
		return fmt.Errorf("SCREENER_MAX_PAGES must be at least 1")
	}

	if c.Engine.FeeRate < 0 || c.Engine.FeeRate >= 1 {
		return fmt.Errorf("ENGINE_FEE_RATE must be in [0, 1)")
	}
	if c.Engine.SellFallbackMarkup < 0 {
		return fmt.Errorf("ENGINE_SELL_FALLBACK_MARKUP must not be negative")
	}
	if c.Engine.TopN < 1 {
		return fmt.Errorf("ENGINE_TOP_N must be at least 1")
	}
	if c.Engine.InitialCash < 0 {
		return fmt.Errorf("ENGINE_INITIAL_CASH must not be negative")
	}

	// A run lock must outlive the run it guards
	if c.Engine.RunTimeout < 0 {
		return fmt.Errorf("ENGINE_RUN_TIMEOUT must not be negative")
	}
	if c.Engine.LockTTL <= 0 {
		return fmt.Errorf("ENGINE_LOCK_TTL must be positive")
	}
	if c.Engine.RunTimeout > 0 && c.Engine.LockTTL <= c.Engine.RunTimeout {
		return fmt.Errorf("ENGINE_LOCK_TTL (%s) must exceed ENGINE_RUN_TIMEOUT (%s)", c.Engine.LockTTL, c.Engine.RunTimeout)
	}
	// Redis locks expire, so an unbounded run could lose its lock midway
	if c.Engine.RunTimeout == 0 && c.Redis.Enabled {
		return fmt.Errorf("ENGINE_RUN_TIMEOUT must be set when REDIS_ENABLED is true")
	}

	// Production must not run with the development token
	if c.Env == "production" && c.CronSecret == "dev-secret-token" {
		return fmt.Errorf("CRON_SECRET must be set in production")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
