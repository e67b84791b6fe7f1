// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the runtime environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	Channel   ChannelConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// Timezone for user-facing day boundaries and daily schedules.
	Timezone string
	Location *time.Location

	// Graceful shutdown
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration

	// Run embedded migrations on startup.
	MigrateOnStart bool
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string // takes precedence over individual settings
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Disabled runs without Redis (no counters, no leader lock).
	// Only suitable for single-instance development setups.
	Disabled bool
}

// AIConfig holds settings for the pet message generation service.
type AIConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration

	// Disabled skips the AI service entirely and always uses
	// template fallback messages.
	Disabled bool
}

// ChannelConfig selects and tunes the delivery channel.
type ChannelConfig struct {
	// Kind is "mock" (simulated push with a failure rate) or "log".
	Kind string

	// Simulated failure rate for the mock channel, 0.0-1.0.
	MockFailureRate float64
}

// SchedulerConfig holds background job settings.
type SchedulerConfig struct {
	Enabled bool

	// Job intervals
	DetectInactiveInterval  time.Duration
	DispatchPendingInterval time.Duration
	RetryFailedInterval     time.Duration

	// Daily cleanup time (in configured timezone)
	CleanupHour   int // 0-23
	CleanupMinute int // 0-59

	// Batch sizes
	DetectCandidateLimit int
	DispatchBatchSize    int
	RetryBatchSize       int

	JobTimeout time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.App = loadAppConfig()
	cfg.Database = loadDatabaseConfig()
	cfg.Redis = loadRedisConfig()
	cfg.AI = loadAIConfig()
	cfg.Channel = loadChannelConfig()
	cfg.Scheduler = loadSchedulerConfig()
	cfg.Log = loadLogConfig()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", "development"))
	timezone := getEnv("APP_TIMEZONE", "Asia/Seoul")

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	return AppConfig{
		Name:            getEnv("APP_NAME", "puppytalk-notification-engine"),
		Environment:     env,
		Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		Timezone:        timezone,
		Location:        loc,
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	url := getEnv("DATABASE_URL", "")
	if url == "" {
		// Build from individual components.
		host := getEnv("DB_HOST", "")
		port := getEnv("DB_PORT", "5432")
		user := getEnv("DB_USER", "puppytalk")
		pass := getEnv("DB_PASSWORD", "")
		name := getEnv("DB_NAME", "puppytalk")
		sslmode := getEnv("DB_SSLMODE", "require")

		if host != "" {
			url = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
				user, pass, host, port, name, sslmode)
		}
	}

	return DatabaseConfig{
		URL:             url,
		MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 25)),
		MinConns:        int32(getEnvInt("DB_MIN_CONNS", 2)),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		QueryTimeout:    getEnvDuration("DB_QUERY_TIMEOUT", 30*time.Second),
		MigrateOnStart:  getEnvBool("DB_MIGRATE_ON_START", true),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:          getEnv("REDIS_URL", ""),
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func loadAIConfig() AIConfig {
	return AIConfig{
		BaseURL:        getEnv("AI_BASE_URL", ""),
		APIKey:         getEnv("AI_API_KEY", ""),
		RequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 10*time.Second),
		Disabled:       getEnvBool("AI_DISABLED", false),
	}
}

func loadChannelConfig() ChannelConfig {
	return ChannelConfig{
		Kind:            getEnv("CHANNEL_KIND", "mock"),
		MockFailureRate: getEnvFloat("CHANNEL_MOCK_FAILURE_RATE", 0.1),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:                 getEnvBool("SCHEDULER_ENABLED", true),
		DetectInactiveInterval:  getEnvDuration("SCHEDULER_DETECT_INTERVAL", 30*time.Minute),
		DispatchPendingInterval: getEnvDuration("SCHEDULER_DISPATCH_INTERVAL", 5*time.Minute),
		RetryFailedInterval:     getEnvDuration("SCHEDULER_RETRY_INTERVAL", 15*time.Minute),
		CleanupHour:             getEnvInt("SCHEDULER_CLEANUP_HOUR", 3),
		CleanupMinute:           getEnvInt("SCHEDULER_CLEANUP_MINUTE", 0),
		DetectCandidateLimit:    getEnvInt("SCHEDULER_DETECT_CANDIDATE_LIMIT", 500),
		DispatchBatchSize:       getEnvInt("SCHEDULER_DISPATCH_BATCH_SIZE", 100),
		RetryBatchSize:          getEnvInt("SCHEDULER_RETRY_BATCH_SIZE", 50),
		JobTimeout:              getEnvDuration("SCHEDULER_JOB_TIMEOUT", 5*time.Minute),
	}
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Environment == EnvProduction {
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required in production")
		}
		if c.Redis.Disabled {
			errs = append(errs, "REDIS_DISABLED is not allowed in production")
		}
	}

	if !c.AI.Disabled && c.AI.BaseURL != "" && c.AI.APIKey == "" {
		errs = append(errs, "AI_API_KEY is required when AI_BASE_URL is set")
	}

	if c.Channel.Kind != "mock" && c.Channel.Kind != "log" {
		errs = append(errs, "CHANNEL_KIND must be \"mock\" or \"log\"")
	}

	if c.Channel.MockFailureRate < 0 || c.Channel.MockFailureRate > 1 {
		errs = append(errs, "CHANNEL_MOCK_FAILURE_RATE must be 0.0-1.0")
	}

	if c.Scheduler.CleanupHour < 0 || c.Scheduler.CleanupHour > 23 {
		errs = append(errs, "SCHEDULER_CLEANUP_HOUR must be 0-23")
	}

	if c.Scheduler.CleanupMinute < 0 || c.Scheduler.CleanupMinute > 59 {
		errs = append(errs, "SCHEDULER_CLEANUP_MINUTE must be 0-59")
	}

	if c.Scheduler.DispatchBatchSize < 1 || c.Scheduler.DispatchBatchSize > 1000 {
		errs = append(errs, "SCHEDULER_DISPATCH_BATCH_SIZE must be 1-1000")
	}

	if c.Scheduler.RetryBatchSize < 1 || c.Scheduler.RetryBatchSize > 100 {
		errs = append(errs, "SCHEDULER_RETRY_BATCH_SIZE must be 1-100")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// ─────────────────────────────────────────────────────────────────────────────
// Environment variable helpers
// ─────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
