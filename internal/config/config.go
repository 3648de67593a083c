// Package config - Application configuration management.
//
// Uses Viper for YAML files, environment variables, and defaults.
//
// Precedence (highest to lowest):
// 1. Environment variables
// 2. Config file
// 3. Default values
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ============================================
// Main Configuration
// ============================================

// Config is the application's top-level configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	CORS     CORSConfig     `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log      LogConfig      `mapstructure:"log"`
	Transaction TransactionConfig `mapstructure:"transaction"`
	Webhook     WebhookConfig     `mapstructure:"webhook"`
	Redis       RedisConfig       `mapstructure:"redis"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Cron        CronConfig        `mapstructure:"cron"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

// ============================================
// Transaction Configuration
// ============================================

// TransactionConfig bounds the amounts the transfer engine will accept
// and how long an idempotency cache entry stays hot.
type TransactionConfig struct {
	MinAmount         string        `mapstructure:"min_amount"`
	MaxAmount         string        `mapstructure:"max_amount"`
	IdempotencyTimeout time.Duration `mapstructure:"idempotency_timeout"`
}

// ============================================
// Webhook Configuration
// ============================================

// WebhookConfig controls gateway webhook verification, retry, and
// retention.
type WebhookConfig struct {
	GatewaySecret     string        `mapstructure:"gateway_secret"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBaseSeconds  int           `mapstructure:"retry_base_seconds"`
	RetentionDays     int           `mapstructure:"retention_days"`
}

// ============================================
// Redis Configuration
// ============================================

// RedisConfig configures Redis, backing the fast-tier idempotency cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ============================================
// NATS Configuration
// ============================================

// NATSConfig configures NATS, backing the webhook processing queue
// and the outbox event relay.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	Subject       string `mapstructure:"subject"`
	EventsSubject string `mapstructure:"events_subject"` // prefix the outbox relay publishes domain events under
}

// ============================================
// Cron Configuration
// ============================================

// CronConfig controls the scheduled maintenance jobs.
type CronConfig struct {
	PurgeSchedule       string `mapstructure:"purge_schedule"`        // standard 5-field cron expression
	OutboxRelaySchedule string `mapstructure:"outbox_relay_schedule"` // robfig/cron "@every" expression
	OutboxRetentionDays int    `mapstructure:"outbox_retention_days"` // published outbox rows older than this are cleaned up
}

// ============================================
// Tracing Configuration
// ============================================

// TracingConfig controls OTLP span export. An empty endpoint disables
// the exporter; spans are still created but never leave the process.
type TracingConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// ============================================
// App Configuration
// ============================================

// AppConfig identifies the application.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	BuildTime   string `mapstructure:"build_time"`
	GitCommit   string `mapstructure:"git_commit"`
}

// IsDevelopment reports whether the environment is development.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the environment is production.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// ============================================
// Server Configuration
// ============================================

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the full server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ============================================
// Database Configuration
// ============================================

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int32         `mapstructure:"max_connections"`
	MinConnections  int32         `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// StatementTimeout bounds every statement so a lock contention
	// storm cannot starve workers indefinitely.
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// ============================================
// Auth Configuration
// ============================================

// AuthConfig configures authentication.
type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	JWTIssuer          string        `mapstructure:"jwt_issuer"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_token_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_token_expiry"`
	EnableMockAuth     bool          `mapstructure:"enable_mock_auth"` // development only
}

// ============================================
// CORS Configuration
// ============================================

// CORSConfig configures CORS.
type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	ExposedHeaders   []string      `mapstructure:"exposed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// ============================================
// Rate Limit Configuration
// ============================================

// RateLimitConfig configures rate limiting.
type RateLimitConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	RequestsPerMinute    int           `mapstructure:"requests_per_minute"`
	BurstSize            int           `mapstructure:"burst_size"`
	FinancialOpsPerMin   int           `mapstructure:"financial_ops_per_min"`
	CleanupInterval      time.Duration `mapstructure:"cleanup_interval"`
}

// ============================================
// Log Configuration
// ============================================

// LogConfig configures logging.
type LogConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	Output     string `mapstructure:"output"` // stdout, stderr, file
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`    // MB
	MaxBackups int    `mapstructure:"max_backups"` // number of files
	MaxAge     int    `mapstructure:"max_age"`     // days
	Compress   bool   `mapstructure:"compress"`
}

// ============================================
// Configuration Loading
// ============================================

// Load reads configuration from a file plus environment variables.
//
// configPath is the config directory (e.g. "configs"), configName the
// file name without extension (e.g. "config").
func Load(configPath, configName string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/paybridge")

	v.SetEnvPrefix("PAYBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file found: defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv reads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PAYBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets the default values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "PayBridge")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", true)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.database", "paybridge")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.statement_timeout", "5s")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.jwt_issuer", "paybridge")
	v.SetDefault("auth.access_token_expiry", "15m")
	v.SetDefault("auth.refresh_token_expiry", "168h") // 7 days
	v.SetDefault("auth.enable_mock_auth", true)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", "12h")

	// Rate Limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 100)
	v.SetDefault("rate_limit.burst_size", 20)
	v.SetDefault("rate_limit.financial_ops_per_min", 30)
	v.SetDefault("rate_limit.cleanup_interval", "1m")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	// Transaction defaults
	v.SetDefault("transaction.min_amount", "0.01")
	v.SetDefault("transaction.max_amount", "1000000.00")
	v.SetDefault("transaction.idempotency_timeout", "24h")

	// Webhook defaults
	v.SetDefault("webhook.gateway_secret", "change-me-in-production")
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.retry_base_seconds", 60)
	v.SetDefault("webhook.retention_days", 90)

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "paybridge.webhooks")
	v.SetDefault("nats.events_subject", "paybridge.events")

	// Cron defaults
	v.SetDefault("cron.purge_schedule", "0 3 * * *")
	v.SetDefault("cron.outbox_relay_schedule", "@every 10s")
	v.SetDefault("cron.outbox_retention_days", 7)

	// Tracing defaults (empty endpoint = no export)
	v.SetDefault("tracing.otlp_endpoint", "")
}

// bindEnvVars binds environment variables.
func bindEnvVars(v *viper.Viper) {
	// Database (usually passed via env in production)
	_ = v.BindEnv("database.host", "PAYBRIDGE_DATABASE_HOST", "DB_HOST")
	_ = v.BindEnv("database.port", "PAYBRIDGE_DATABASE_PORT", "DB_PORT")
	_ = v.BindEnv("database.user", "PAYBRIDGE_DATABASE_USER", "DB_USER")
	_ = v.BindEnv("database.password", "PAYBRIDGE_DATABASE_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("database.database", "PAYBRIDGE_DATABASE_DATABASE", "DB_NAME")

	// Auth
	_ = v.BindEnv("auth.jwt_secret", "PAYBRIDGE_AUTH_JWT_SECRET", "JWT_SECRET")

	// Server
	_ = v.BindEnv("server.port", "PAYBRIDGE_SERVER_PORT", "PORT")

	// App
	_ = v.BindEnv("app.environment", "PAYBRIDGE_APP_ENVIRONMENT", "ENVIRONMENT", "ENV")

	// Transaction
	_ = v.BindEnv("transaction.min_amount", "MIN_TRANSACTION_AMOUNT")
	_ = v.BindEnv("transaction.max_amount", "MAX_TRANSACTION_AMOUNT")
	_ = v.BindEnv("transaction.idempotency_timeout", "TRANSACTION_IDEMPOTENCY_TIMEOUT")

	// Webhook
	_ = v.BindEnv("webhook.gateway_secret", "PAYMENT_GATEWAY_WEBHOOK_SECRET")
	_ = v.BindEnv("webhook.max_retries", "WEBHOOK_MAX_RETRIES")
	_ = v.BindEnv("webhook.retry_base_seconds", "WEBHOOK_RETRY_BASE_SECONDS")
	_ = v.BindEnv("webhook.retention_days", "WEBHOOK_RETENTION_DAYS")

	// Redis / NATS / Cron
	_ = v.BindEnv("redis.addr", "PAYBRIDGE_REDIS_ADDR")
	_ = v.BindEnv("redis.password", "PAYBRIDGE_REDIS_PASSWORD")
	_ = v.BindEnv("nats.url", "PAYBRIDGE_NATS_URL")
	_ = v.BindEnv("cron.purge_schedule", "PAYBRIDGE_CRON_PURGE_SCHEDULE")
}

// ============================================
// Configuration Validation
// ============================================

// Validate checks the configuration.
func (c *Config) Validate() error {
	// Guard the critical settings in production
	if c.App.IsProduction() {
		if c.Auth.JWTSecret == "change-me-in-production" {
			return fmt.Errorf("JWT secret must be changed in production")
		}

		if c.Auth.EnableMockAuth {
			return fmt.Errorf("mock auth must be disabled in production")
		}

		if c.Database.SSLMode == "disable" {
			// Tolerated, but worth a warning once logging is up
		}
	}

	// Required fields
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// ============================================
// Development Helpers
// ============================================

// Development returns the development configuration.
func Development() *Config {
	return &Config{
		App: AppConfig{
			Name:        "PayBridge",
			Version:     "dev",
			Environment: "development",
			Debug:       true,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:             "localhost",
			Port:             5432,
			User:             "postgres",
			Password:         "postgres",
			Database:         "paybridge",
			SSLMode:          "disable",
			MaxConnections:   10,
			MinConnections:   2,
			MaxConnLifetime:  time.Hour,
			MaxConnIdleTime:  30 * time.Minute,
			StatementTimeout: 5 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:          "dev-secret-key",
			JWTIssuer:          "paybridge-dev",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 168 * time.Hour,
			EnableMockAuth:     true,
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled:            true,
			RequestsPerMinute:  100,
			BurstSize:          20,
			FinancialOpsPerMin: 30,
			CleanupInterval:    time.Minute,
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
		},
		Transaction: TransactionConfig{
			MinAmount:          "0.01",
			MaxAmount:          "1000000.00",
			IdempotencyTimeout: 24 * time.Hour,
		},
		Webhook: WebhookConfig{
			GatewaySecret:    "dev-webhook-secret",
			MaxRetries:       3,
			RetryBaseSeconds: 60,
			RetentionDays:    90,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			Subject:       "paybridge.webhooks",
			EventsSubject: "paybridge.events",
		},
		Cron: CronConfig{
			PurgeSchedule:       "0 3 * * *",
			OutboxRelaySchedule: "@every 10s",
			OutboxRetentionDays: 7,
		},
	}
}

// Test returns the test configuration.
func Test() *Config {
	cfg := Development()
	cfg.App.Environment = "test"
	cfg.Database.Database = "paybridge_test"
	cfg.Log.Level = "error" // less noise in tests
	return cfg
}
