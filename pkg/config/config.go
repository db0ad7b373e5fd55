package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Timezone used for trading dates and schedules
	Timezone string

	// Storage
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig

	// External feeds
	Quote QuoteConfig
	NAV   NAVConfig

	// Notification sinks
	Notify NotifyConfig

	// Policy values for calibration and signals
	Policy PolicyConfig

	// Optional YAML policy file overriding Policy and the schedule windows
	PolicyFile string

	// Process timing
	Schedule ScheduleConfig

	// Signal journal (markdown)
	JournalPath string

	// Logging
	LogLevel  string
	LogFormat string
}

// StoreConfig selects the blob store backend
type StoreConfig struct {
	Backend string // memory, postgres, github

	// GitHub contents API backend
	GitHubToken  string
	GitHubOwner  string
	GitHubRepo   string
	GitHubBranch string
	GitHubAPI    string
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	NAVTTL   time.Duration
}

// QuoteConfig holds the realtime quote feed configuration
type QuoteConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second
	BatchSize int
}

// NAVConfig holds the official NAV feed configuration
type NAVConfig struct {
	Source       string // json, html
	BaseURL      string
	HTMLBaseURL  string
	Timeout      time.Duration
	RateLimit    float64
	HistoryLimit int
}

// NotifyConfig holds push notification sinks
type NotifyConfig struct {
	BarkKeys      []string // plain keys or full https://api.day.app/<key>/ URLs
	BarkBaseURL   string
	BarkGroup     string
	PushPlusToken string
	PushPlusURL   string
	Timeout       time.Duration
}

// PolicyConfig holds the hard-coded policy values as configuration
type PolicyConfig struct {
	Smoothing           float64 // weight kept on the old factor
	BuyThreshold        float64
	StrongBuyThreshold  float64
	StrongBuyMultiplier int64
	SellThreshold       float64
	SellBenchmarkOffset float64
	SellFraction        float64
}

// ScheduleConfig holds polling intervals and time windows
type ScheduleConfig struct {
	DashboardInterval   time.Duration
	NightlyPollInterval time.Duration
	NightlyStart        string // HH:MM
	NightlyDeadline     string // HH:MM
	CloseWindowStart    string // HH:MM
	CloseWindowEnd      string // HH:MM
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port:     getEnv("PORT", "8089"),
		Env:      getEnv("ENV", "development"),
		Timezone: getEnv("TIMEZONE", "Asia/Shanghai"),

		Store: StoreConfig{
			Backend:      getEnv("STORE_BACKEND", "memory"),
			GitHubToken:  getEnv("GITHUB_TOKEN", ""),
			GitHubOwner:  getEnv("GITHUB_USERNAME", ""),
			GitHubRepo:   getEnv("GITHUB_REPO", ""),
			GitHubBranch: getEnv("GITHUB_BRANCH", ""),
			GitHubAPI:    getEnv("GITHUB_API_URL", "https://api.github.com"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
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
			NAVTTL:   getEnvAsDuration("REDIS_NAV_TTL", "1m"),
		},

		Quote: QuoteConfig{
			BaseURL:   getEnv("QUOTE_BASE_URL", "http://qt.gtimg.cn"),
			Timeout:   getEnvAsDuration("QUOTE_TIMEOUT", "3s"),
			RateLimit: getEnvAsFloat("QUOTE_RATE_LIMIT", 5),
			BatchSize: getEnvAsInt("QUOTE_BATCH_SIZE", 60),
		},

		NAV: NAVConfig{
			Source:       getEnv("NAV_SOURCE", "json"),
			BaseURL:      getEnv("NAV_BASE_URL", "https://api.fund.eastmoney.com"),
			HTMLBaseURL:  getEnv("NAV_HTML_BASE_URL", "https://fund.eastmoney.com"),
			Timeout:      getEnvAsDuration("NAV_TIMEOUT", "5s"),
			RateLimit:    getEnvAsFloat("NAV_RATE_LIMIT", 2),
			HistoryLimit: getEnvAsInt("NAV_HISTORY_LIMIT", 20),
		},

		Notify: NotifyConfig{
			BarkKeys:      getEnvAsList("BARK_KEY"),
			BarkBaseURL:   getEnv("BARK_BASE_URL", "https://api.day.app"),
			BarkGroup:     getEnv("BARK_GROUP", "fund"),
			PushPlusToken: getEnv("PUSHPLUS_TOKEN", ""),
			PushPlusURL:   getEnv("PUSHPLUS_URL", "http://www.pushplus.plus/send"),
			Timeout:       getEnvAsDuration("NOTIFY_TIMEOUT", "5s"),
		},

		Policy: PolicyConfig{
			Smoothing:           getEnvAsFloat("CALIBRATION_SMOOTHING", 0.8),
			BuyThreshold:        getEnvAsFloat("SIGNAL_BUY_THRESHOLD", -2.5),
			StrongBuyThreshold:  getEnvAsFloat("SIGNAL_STRONG_BUY_THRESHOLD", -4.0),
			StrongBuyMultiplier: int64(getEnvAsInt("SIGNAL_STRONG_BUY_MULTIPLIER", 2)),
			SellThreshold:       getEnvAsFloat("SIGNAL_SELL_THRESHOLD", 3.0),
			SellBenchmarkOffset: getEnvAsFloat("SIGNAL_SELL_BENCHMARK_OFFSET", 1.5),
			SellFraction:        getEnvAsFloat("SIGNAL_SELL_FRACTION", 0.25),
		},

		Schedule: ScheduleConfig{
			DashboardInterval:   getEnvAsDuration("DASHBOARD_INTERVAL", "30s"),
			NightlyPollInterval: getEnvAsDuration("NIGHTLY_POLL_INTERVAL", "3m"),
			NightlyStart:        getEnv("NIGHTLY_START", "20:00"),
			NightlyDeadline:     getEnv("NIGHTLY_DEADLINE", "23:30"),
			CloseWindowStart:    getEnv("CLOSE_WINDOW_START", "15:00"),
			CloseWindowEnd:      getEnv("CLOSE_WINDOW_END", "16:30"),
		},

		PolicyFile:  getEnv("POLICY_FILE", ""),
		JournalPath: getEnv("JOURNAL_PATH", "signals.md"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Location returns the configured trading timezone, UTC+8 if it cannot be loaded
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case "github":
		if c.Store.GitHubToken == "" || c.Store.GitHubOwner == "" || c.Store.GitHubRepo == "" {
			return fmt.Errorf("GITHUB_TOKEN, GITHUB_USERNAME and GITHUB_REPO are required for the github store")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: memory, postgres, github")
	}

	if c.NAV.Source != "json" && c.NAV.Source != "html" {
		return fmt.Errorf("NAV_SOURCE must be one of: json, html")
	}

	if c.Policy.Smoothing < 0 || c.Policy.Smoothing > 1 {
		return fmt.Errorf("CALIBRATION_SMOOTHING must be within [0, 1]")
	}

	for _, hm := range []string{
		c.Schedule.NightlyStart, c.Schedule.NightlyDeadline,
		c.Schedule.CloseWindowStart, c.Schedule.CloseWindowEnd,
	} {
		if _, err := time.Parse("15:04", hm); err != nil {
			return fmt.Errorf("invalid HH:MM value %q", hm)
		}
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
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

// getEnvAsList splits a comma separated value, dropping empty items
func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
