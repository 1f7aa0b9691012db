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

	// Portfolio input / artifact output
	Portfolio PortfolioConfig

	// Price cache
	Cache CacheConfig

	// Upstream fetch policy
	Fetch FetchConfig

	// External APIs
	Yahoo YahooConfig

	// Valuation
	RiskFreeAnnual float64

	// Database (postgres cache backend)
	Database DatabaseConfig

	// Redis (redis cache backend, shared rate limit)
	Redis RedisConfig

	// Scheduler
	BuildSchedule     string
	BuildForceRefresh bool // 정기 빌드는 캐시를 건너뛰고 재조회

	// Logging
	LogLevel  string
	LogFormat string
}

// PortfolioConfig holds input/output paths
type PortfolioConfig struct {
	Path   string // portfolio.json
	OutDir string // 산출물(JSON) 디렉토리
}

// Cache backends
const (
	CacheBackendFile     = "file"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
	CacheBackendMemory   = "memory"
)

// CacheConfig holds price cache configuration
type CacheConfig struct {
	Backend string
	Dir     string
}

// FetchConfig holds the batch / retry / pause policy for upstream fetches
type FetchConfig struct {
	BatchSize     int
	MaxAttempts   int
	BackoffBase   float64       // 초 단위 지수 밑 (base^attempt)
	BackoffJitter time.Duration // 최대 jitter
	BackoffMax    time.Duration
	PauseMin      time.Duration // 배치 사이 랜덤 대기
	PauseMax      time.Duration
	RatePerSec    float64 // 로컬 요청 속도 제한 (0 = 무제한)
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
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

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Portfolio: PortfolioConfig{
			Path:   getEnv("PORTFOLIO_PATH", filepath.Join("data", "portfolio.json")),
			OutDir: getEnv("OUT_DIR", filepath.Join("public", "data")),
		},

		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", CacheBackendFile),
			Dir:     getEnv("CACHE_DIR", filepath.Join("data", "cache")),
		},

		Fetch: FetchConfig{
			BatchSize:     getEnvAsInt("FETCH_BATCH_SIZE", 7),
			MaxAttempts:   getEnvAsInt("FETCH_MAX_ATTEMPTS", 6),
			BackoffBase:   getEnvAsFloat("FETCH_BACKOFF_BASE", 2.0),
			BackoffJitter: getEnvAsDuration("FETCH_BACKOFF_JITTER", "1500ms"),
			BackoffMax:    getEnvAsDuration("FETCH_BACKOFF_MAX", "90s"),
			PauseMin:      getEnvAsDuration("FETCH_PAUSE_MIN", "1200ms"),
			PauseMax:      getEnvAsDuration("FETCH_PAUSE_MAX", "2800ms"),
			RatePerSec:    getEnvAsFloat("FETCH_RATE_PER_SEC", 2),
		},

		Yahoo: YahooConfig{
			BaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:   getEnvAsDuration("YAHOO_TIMEOUT", "30s"),
			UserAgent: getEnv("YAHOO_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"),
		},

		RiskFreeAnnual: getEnvAsFloat("RISK_FREE_ANNUAL", 0.0),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
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

		// 미국 장 마감 후 (평일 22:30 UTC)
		BuildSchedule:     getEnv("BUILD_SCHEDULE", "0 30 22 * * 1-5"),
		BuildForceRefresh: getEnvAsBool("BUILD_FORCE_REFRESH", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendMemory:
	case CacheBackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case CacheBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("CACHE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: file, redis, postgres, memory")
	}

	if c.Fetch.BatchSize <= 0 {
		return fmt.Errorf("FETCH_BATCH_SIZE must be > 0")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be > 0")
	}
	if c.Fetch.BackoffBase < 1 {
		return fmt.Errorf("FETCH_BACKOFF_BASE must be >= 1")
	}
	if c.Fetch.PauseMin < 0 || c.Fetch.PauseMax < c.Fetch.PauseMin {
		return fmt.Errorf("FETCH_PAUSE_MIN/MAX must satisfy 0 <= min <= max")
	}
	if c.RiskFreeAnnual <= -1 {
		return fmt.Errorf("RISK_FREE_ANNUAL must be > -1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
