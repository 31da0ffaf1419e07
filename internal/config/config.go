package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	DBPath                string
	DBDriver              string
	RedisAddr             string
	RedisPassword         string
	CacheTTL              time.Duration
	GRPCPort              int
	GRPCReflectionEnabled bool
	MetricsPort           int
	KafkaBrokers          []string
	KafkaTopic            string
	BacklogSchedule       string
	BacklogWarnThreshold  int64
	ShutdownTimeout       time.Duration
}

// LoadFromEnv loads configuration from environment variables.
// An empty REDIS_ADDR disables the report cache and an empty KAFKA_BROKERS disables event publishing.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		DBPath:                getEnv("DB_PATH", "./data/perception.db"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		CacheTTL:              getEnvDuration("CACHE_TTL", time.Minute),
		GRPCPort:              getEnvInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getEnvBool("GRPC_REFLECTION_ENABLED", false),
		MetricsPort:           getEnvInt("METRICS_PORT", 9090),
		KafkaBrokers:          splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "perception.feedback"),
		BacklogSchedule:       getEnv("BACKLOG_SCHEDULE", "*/5 * * * *"),
		BacklogWarnThreshold:  int64(getEnvInt("BACKLOG_WARN_THRESHOLD", 100)),
		ShutdownTimeout:       getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
