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
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	Database DatabaseConfig
	Redis    RedisConfig

	// External market data sources
	Naver NaverConfig
	Yahoo YahooConfig

	Market    MarketConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig

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

// NaverConfig holds Naver Finance endpoints (KR market)
type NaverConfig struct {
	BaseURL   string // finance.naver.com (HTML pages)
	MobileURL string // m.stock.naver.com (JSON API)
	ChartURL  string // fchart.stock.naver.com
}

// YahooConfig holds Yahoo Finance endpoints (US market)
type YahooConfig struct {
	BaseURL string
}

// MarketConfig controls market data fetching and scoring fan-out
type MarketConfig struct {
	CacheTTL         time.Duration
	RateLimit        int // requests per second, shared by all outbound calls
	ScoreConcurrency int
}

// AuthConfig holds the shared-password gate settings
type AuthConfig struct {
	Password   string
	JWTSecret  string
	SessionTTL time.Duration
}

// SchedulerConfig holds cron schedules for background jobs
type SchedulerConfig struct {
	Enabled           bool
	WarmupSchedule    string
	BroadcastSchedule string
}

// Option adjusts how Load validates
type Option func(*loadOptions)

type loadOptions struct {
	requireDatabase bool
}

// WithoutDatabase skips the DATABASE_URL requirement (in-memory store, market lookups)
func WithoutDatabase() Option {
	return func(o *loadOptions) { o.requireDatabase = false }
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load(opts ...Option) (*Config, error) {
	loadEnvFile()

	lo := loadOptions{requireDatabase: true}
	for _, opt := range opts {
		opt(&lo)
	}

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Naver: NaverConfig{
			BaseURL:   getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			MobileURL: getEnv("NAVER_MOBILE_URL", "https://m.stock.naver.com"),
			ChartURL:  getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
		},

		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		},

		Market: MarketConfig{
			CacheTTL:         getEnvAsDuration("MARKET_CACHE_TTL", "5m"),
			RateLimit:        getEnvAsInt("MARKET_RATE_LIMIT", 10),
			ScoreConcurrency: getEnvAsInt("SCORE_CONCURRENCY", 8),
		},

		Auth: AuthConfig{
			Password:   getEnv("APP_PASSWORD", ""),
			JWTSecret:  getEnv("JWT_SECRET", "fallback-secret"),
			SessionTTL: getEnvAsDuration("SESSION_TTL", "168h"),
		},

		Scheduler: SchedulerConfig{
			Enabled: getEnvAsBool("SCHEDULER_ENABLED", true),
			// 장중(평일 09~15시) 5분마다
			WarmupSchedule:    getEnv("MARKET_WARMUP_SCHEDULE", "0 */5 9-15 * * 1-5"),
			BroadcastSchedule: getEnv("SCORE_BROADCAST_SCHEDULE", "30 */5 9-15 * * 1-5"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(lo.requireDatabase); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// validate checks if required configuration values are set
func (c *Config) validate(requireDatabase bool) error {
	if requireDatabase && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.IsProduction() {
		if c.Auth.Password == "" {
			return fmt.Errorf("APP_PASSWORD is required in production")
		}
		if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "fallback-secret" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	if c.Market.ScoreConcurrency < 1 {
		return fmt.Errorf("SCORE_CONCURRENCY must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
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
