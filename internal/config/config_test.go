package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "PayBridge", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, int32(25), cfg.Database.MaxConnections)
	assert.Equal(t, 5*time.Second, cfg.Database.StatementTimeout)
}

func TestLoadFromEnv_TransactionBounds(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.01", cfg.Transaction.MinAmount)
	assert.Equal(t, "1000000.00", cfg.Transaction.MaxAmount)
	assert.Equal(t, 24*time.Hour, cfg.Transaction.IdempotencyTimeout)
}

func TestLoadFromEnv_WebhookDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Webhook.MaxRetries)
	assert.Equal(t, 60, cfg.Webhook.RetryBaseSeconds)
	assert.Equal(t, 90, cfg.Webhook.RetentionDays)
}

func TestLoadFromEnv_UnprefixedKeys(t *testing.T) {
	// Canonical names of the external configuration contract,
	// without the PAYBRIDGE_ prefix.
	t.Setenv("MIN_TRANSACTION_AMOUNT", "1.00")
	t.Setenv("MAX_TRANSACTION_AMOUNT", "500.00")
	t.Setenv("PAYMENT_GATEWAY_WEBHOOK_SECRET", "s3cret")
	t.Setenv("WEBHOOK_MAX_RETRIES", "5")
	t.Setenv("WEBHOOK_RETRY_BASE_SECONDS", "30")
	t.Setenv("WEBHOOK_RETENTION_DAYS", "14")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "1.00", cfg.Transaction.MinAmount)
	assert.Equal(t, "500.00", cfg.Transaction.MaxAmount)
	assert.Equal(t, "s3cret", cfg.Webhook.GatewaySecret)
	assert.Equal(t, 5, cfg.Webhook.MaxRetries)
	assert.Equal(t, 30, cfg.Webhook.RetryBaseSeconds)
	assert.Equal(t, 14, cfg.Webhook.RetentionDays)
}

func TestLoadFromEnv_PrefixedOverrides(t *testing.T) {
	t.Setenv("PAYBRIDGE_DATABASE_HOST", "db.internal")
	t.Setenv("PAYBRIDGE_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("PAYBRIDGE_NATS_URL", "nats://nats.internal:4222")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "nats://nats.internal:4222", cfg.NATS.URL)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "ledger",
		Password: "pw",
		Database: "ledgercore",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"postgres://ledger:pw@db.example.com:5433/ledgercore?sslmode=require",
		cfg.DSN(),
	)
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "0.0.0.0", Port: 9090}
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
}

func TestAppConfig_EnvironmentPredicates(t *testing.T) {
	dev := AppConfig{Environment: "development"}
	assert.True(t, dev.IsDevelopment())
	assert.False(t, dev.IsProduction())

	prod := AppConfig{Environment: "production"}
	assert.False(t, prod.IsDevelopment())
	assert.True(t, prod.IsProduction())
}

func TestValidate_ProductionGuards(t *testing.T) {
	t.Run("default jwt secret rejected", func(t *testing.T) {
		cfg := Development()
		cfg.App.Environment = "production"
		cfg.Auth.JWTSecret = "change-me-in-production"
		cfg.Auth.EnableMockAuth = false

		assert.Error(t, cfg.Validate())
	})

	t.Run("mock auth rejected", func(t *testing.T) {
		cfg := Development()
		cfg.App.Environment = "production"
		cfg.Auth.JWTSecret = "real-secret"
		cfg.Auth.EnableMockAuth = true

		assert.Error(t, cfg.Validate())
	})

	t.Run("hardened production passes", func(t *testing.T) {
		cfg := Development()
		cfg.App.Environment = "production"
		cfg.Auth.JWTSecret = "real-secret"
		cfg.Auth.EnableMockAuth = false

		assert.NoError(t, cfg.Validate())
	})
}

func TestValidate_RequiredFields(t *testing.T) {
	t.Run("missing database host", func(t *testing.T) {
		cfg := Development()
		cfg.Database.Host = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := Development()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())

		cfg.Server.Port = 70000
		assert.Error(t, cfg.Validate())
	})
}

func TestDevelopment(t *testing.T) {
	cfg := Development()

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.App.IsDevelopment())
	assert.True(t, cfg.Auth.EnableMockAuth)
	assert.Equal(t, "paybridge.webhooks", cfg.NATS.Subject)
	assert.Equal(t, "0 3 * * *", cfg.Cron.PurgeSchedule)
}

func TestTest(t *testing.T) {
	cfg := Test()

	assert.Equal(t, "test", cfg.App.Environment)
	assert.Equal(t, "paybridge_test", cfg.Database.Database)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "does-not-exist")
	require.NoError(t, err)

	assert.Equal(t, "PayBridge", cfg.App.Name)
}
