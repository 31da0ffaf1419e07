package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "DB_PATH", "DB_DRIVER", "REDIS_ADDR", "REDIS_PASSWORD", "CACHE_TTL",
	"GRPC_PORT", "GRPC_REFLECTION_ENABLED", "METRICS_PORT", "KAFKA_BROKERS", "KAFKA_TOPIC",
	"BACKLOG_SCHEDULE", "BACKLOG_WARN_THRESHOLD", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadFromEnv()

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "./data/perception.db", cfg.DBPath)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, "*/5 * * * *", cfg.BacklogSchedule)
	assert.Equal(t, int64(100), cfg.BacklogWarnThreshold)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.GRPCReflectionEnabled)
	assert.False(t, cfg.CacheEnabled())
	assert.False(t, cfg.EventsEnabled())
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("GRPC_PORT", "6000")
	t.Setenv("GRPC_REFLECTION_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("KAFKA_TOPIC", "feedback")
	t.Setenv("BACKLOG_SCHEDULE", "@every 1m")

	cfg := LoadFromEnv()

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, 6000, cfg.GRPCPort)
	assert.True(t, cfg.GRPCReflectionEnabled)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.EventsEnabled())
	assert.Equal(t, "feedback", cfg.KafkaTopic)
	assert.Equal(t, "@every 1m", cfg.BacklogSchedule)
}

func TestLoadFromEnvInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRPC_PORT", "not-a-port")
	t.Setenv("GRPC_REFLECTION_ENABLED", "maybe")
	t.Setenv("CACHE_TTL", "-5s")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg := LoadFromEnv()

	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.False(t, cfg.GRPCReflectionEnabled)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&Config{AppEnv: "production"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger, err = NewLogger(&Config{AppEnv: "development"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1), "development logger enables debug")
}
