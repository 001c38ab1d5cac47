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

	// Database (optional: only persisting commands need it)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	CTGov CTGovConfig
	Yahoo YahooConfig
	HTTP  HTTPConfig

	// Event study defaults
	Study StudyConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
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

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	PriceTTL time.Duration
}

// CTGovConfig holds ClinicalTrials.gov registry API configuration
type CTGovConfig struct {
	BaseURL string
}

// YahooConfig holds the market data (chart API) configuration
type YahooConfig struct {
	BaseURL string
}

// HTTPConfig holds outbound HTTP client settings shared by all external clients
type HTTPConfig struct {
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
	MaxRetries     int
}

// StudyConfig holds the default event-study parameters
type StudyConfig struct {
	Benchmark        string
	EstimationWindow int
	LeadDays         int
	LagDays          int
}

// SchedulerConfig holds cron expressions for recurring jobs
type SchedulerConfig struct {
	CatalystRefresh string
	StudyRun        string
	StudyFile       string
	SponsorMapFile  string
	EventsFile      string
	ScoresFile      string // optional nct_id → quality_score export
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

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
			PriceTTL: getEnvAsDuration("REDIS_PRICE_TTL", "24h"),
		},

		CTGov: CTGovConfig{
			BaseURL: getEnv("CTGOV_BASE_URL", "https://clinicaltrials.gov/api/v2"),
		},

		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		},

		HTTP: HTTPConfig{
			Timeout:        getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			RequestsPerSec: getEnvAsFloat("HTTP_RATE_LIMIT", 2),
			Burst:          getEnvAsInt("HTTP_RATE_BURST", 1),
			MaxRetries:     getEnvAsInt("HTTP_MAX_RETRIES", 3),
		},

		Study: StudyConfig{
			Benchmark:        getEnv("STUDY_BENCHMARK", "XBI"),
			EstimationWindow: getEnvAsInt("STUDY_ESTIMATION_WINDOW", 60),
			LeadDays:         getEnvAsInt("STUDY_LEAD_DAYS", -5),
			LagDays:          getEnvAsInt("STUDY_LAG_DAYS", 1),
		},

		Scheduler: SchedulerConfig{
			CatalystRefresh: getEnv("SCHEDULE_CATALYST_REFRESH", "0 0 6 * * 1-5"),
			StudyRun:        getEnv("SCHEDULE_STUDY_RUN", "0 30 18 * * 1-5"),
			StudyFile:       getEnv("STUDY_FILE", "config/study.yaml"),
			SponsorMapFile:  getEnv("SPONSOR_MAP_FILE", "config/sponsor_ticker_map.csv"),
			EventsFile:      getEnv("EVENTS_FILE", "trial_events.csv"),
			ScoresFile:      getEnv("SCORES_FILE", ""),
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

// validate checks configuration invariants
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Study.Benchmark == "" {
		return fmt.Errorf("STUDY_BENCHMARK is required")
	}
	if c.Study.EstimationWindow < 2 {
		return fmt.Errorf("STUDY_ESTIMATION_WINDOW must be >= 2")
	}
	if c.Study.LeadDays > c.Study.LagDays {
		return fmt.Errorf("STUDY_LEAD_DAYS must be <= STUDY_LAG_DAYS")
	}

	if c.HTTP.RequestsPerSec <= 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT must be > 0")
	}

	return nil
}

// RequireDatabase returns an error when DATABASE_URL is unset
func (c *Config) RequireDatabase() error {
	if !c.Database.Enabled() {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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
