package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %s", cfg.Store.Driver)
	}
	if cfg.SMS.Latency != time.Second {
		t.Errorf("expected 1s SMS latency, got %v", cfg.SMS.Latency)
	}
	if cfg.SMS.RelayEnabled {
		t.Error("expected SMS relay to be off by default")
	}
	if len(cfg.Alerts.TestRecipients) != 0 {
		t.Errorf("expected no recipient override, got %v", cfg.Alerts.TestRecipients)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGO_DATABASE", "alerts_test")
	t.Setenv("ALERT_TEST_RECIPIENTS", " +15551234567, ,+15559876543 ")
	t.Setenv("SMS_LATENCY", "250ms")
	t.Setenv("SMS_RELAY_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.Driver != DriverMongo || cfg.Store.MongoDatabase != "alerts_test" {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if len(cfg.Alerts.TestRecipients) != 2 || cfg.Alerts.TestRecipients[1] != "+15559876543" {
		t.Errorf("unexpected recipients: %v", cfg.Alerts.TestRecipients)
	}
	if cfg.SMS.Latency != 250*time.Millisecond || !cfg.SMS.RelayEnabled {
		t.Errorf("unexpected SMS config: %+v", cfg.SMS)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad port", "SERVER_PORT", "70000"},
		{"bad grpc port", "GRPC_PORT", "0"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad driver", "STORE_DRIVER", "postgres"},
		{"no workers", "WORKER_COUNT", "0"},
		{"bad recipient", "ALERT_TEST_RECIPIENTS", "+15551234567,12ab"},
		{"no rate limit", "RATE_LIMIT_RPS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}
