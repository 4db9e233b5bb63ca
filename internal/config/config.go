package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	GRPC      GRPCConfig
	Worker    WorkerConfig
	Store     StoreConfig
	Alerts    AlertsConfig
	SMS       SMSConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type GRPCConfig struct {
	Port int
}

type ServerConfig struct {
	Host string
	Port int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type StoreConfig struct {
	Driver        string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
}

type AlertsConfig struct {
	// TestRecipients overrides the built-in recipient set when non-empty.
	TestRecipients []string
}

type SMSConfig struct {
	Latency      time.Duration
	RelayEnabled bool
}

type RateLimitConfig struct {
	RPS   int
	Burst int
}

type LoggingConfig struct {
	Level string
}

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		GRPC: GRPCConfig{
			Port: getEnvInt("GRPC_PORT", 50051),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Store: StoreConfig{
			Driver:        getEnv("STORE_DRIVER", DriverSQLite),
			SQLitePath:    getEnv("DB_PATH", "./data/crisis-alerts.db"),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGO_DATABASE", "crisis_alerts"),
		},
		Alerts: AlertsConfig{
			TestRecipients: getEnvList("ALERT_TEST_RECIPIENTS", nil),
		},
		SMS: SMSConfig{
			Latency:      getEnvDuration("SMS_LATENCY", time.Second),
			RelayEnabled: getEnvBool("SMS_RELAY_ENABLED", false),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvInt("RATE_LIMIT_RPS", 5),
			Burst: getEnvInt("RATE_LIMIT_BURST", 10),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Store.Driver {
	case DriverSQLite:
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("invalid store driver: %s", c.Store.Driver)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("worker buffer size must not be negative")
	}
	if c.SMS.Latency < 0 {
		return fmt.Errorf("SMS latency must not be negative")
	}
	if c.RateLimit.RPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per second")
	}

	for _, phone := range c.Alerts.TestRecipients {
		if !phonePattern.MatchString(phone) {
			return fmt.Errorf("invalid test recipient: %s", phone)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blank entries.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
