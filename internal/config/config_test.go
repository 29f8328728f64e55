package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"COMMS_ENABLED", "COMMS_URL", "SERVICE_NAME", "DELEGATION_EVENT_SUBJECT",
	"DELEGATION_TIMEOUT", "REGISTRY_SOURCE", "DELEGATION_BOOTSTRAP_FILE",
	"DATABASE_URL", "RUN_MIGRATIONS", "MIGRATION_PATH",
	"DELEGATION_HTTP_ADDR", "HTTP_PORT", "HEALTH_CHECK_TIMEOUT", "WORKER_PORT", "LOG_LEVEL",
}

// unsetenv removes key for the duration of the test; t.Setenv restores the original value.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, env := range allEnvVars {
		unsetenv(t, env)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	if cfg.COMMSEnabled {
		t.Error("config:config_test - expected COMMSEnabled=false by default")
	}
	if cfg.COMMSURL != "nats://127.0.0.1:4222" {
		t.Errorf("config:config_test - COMMSURL = %q, want %q", cfg.COMMSURL, "nats://127.0.0.1:4222")
	}
	if cfg.COMMSName != "agent-delegation" {
		t.Errorf("config:config_test - COMMSName = %q, want %q", cfg.COMMSName, "agent-delegation")
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("config:config_test - Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.RegistrySource != RegistrySourceBootstrap {
		t.Errorf("config:config_test - RegistrySource = %q, want %q", cfg.RegistrySource, RegistrySourceBootstrap)
	}
	if cfg.BootstrapFile != "" {
		t.Errorf("config:config_test - BootstrapFile = %q, want empty", cfg.BootstrapFile)
	}
	if cfg.HTTPPort != 8000 {
		t.Errorf("config:config_test - HTTPPort = %d, want 8000", cfg.HTTPPort)
	}
	if cfg.Addr() != ":8000" {
		t.Errorf("config:config_test - Addr() = %q, want :8000", cfg.Addr())
	}
	if cfg.WorkerPort != 0 {
		t.Errorf("config:config_test - WorkerPort = %d, want 0", cfg.WorkerPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("config:config_test - LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if err := cfg.ValidateForServe(); err != nil {
		t.Errorf("config:config_test - defaults should validate: %v", err)
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	overrides := map[string]string{
		"COMMS_ENABLED":             "true",
		"COMMS_URL":                 "nats://custom:4222",
		"SERVICE_NAME":              "coordinator",
		"DELEGATION_EVENT_SUBJECT":  "custom.dispatched",
		"DELEGATION_TIMEOUT":        "3s",
		"REGISTRY_SOURCE":           "Database",
		"DELEGATION_BOOTSTRAP_FILE": "/tmp/agents.json",
		"DATABASE_URL":              "postgres://test@localhost/test",
		"RUN_MIGRATIONS":            "true",
		"DELEGATION_HTTP_ADDR":      "127.0.0.1:9000",
		"WORKER_PORT":               "9100",
		"LOG_LEVEL":                 "debug",
	}
	for key, val := range overrides {
		t.Setenv(key, val)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	if !cfg.COMMSEnabled {
		t.Error("config:config_test - expected COMMSEnabled=true")
	}
	if cfg.COMMSURL != "nats://custom:4222" {
		t.Errorf("config:config_test - COMMSURL = %q", cfg.COMMSURL)
	}
	if cfg.COMMSName != "coordinator" {
		t.Errorf("config:config_test - COMMSName = %q", cfg.COMMSName)
	}
	if cfg.DispatchEventSubject != "custom.dispatched" {
		t.Errorf("config:config_test - DispatchEventSubject = %q", cfg.DispatchEventSubject)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("config:config_test - Timeout = %v, want 3s", cfg.Timeout)
	}
	if cfg.RegistrySource != RegistrySourceDatabase {
		t.Errorf("config:config_test - RegistrySource = %q, want normalised %q", cfg.RegistrySource, RegistrySourceDatabase)
	}
	if cfg.BootstrapFile != "/tmp/agents.json" {
		t.Errorf("config:config_test - BootstrapFile = %q", cfg.BootstrapFile)
	}
	if !cfg.RunMigrations {
		t.Error("config:config_test - expected RunMigrations=true")
	}
	if cfg.Addr() != "127.0.0.1:9000" {
		t.Errorf("config:config_test - Addr() = %q", cfg.Addr())
	}
	if cfg.WorkerPort != 9100 {
		t.Errorf("config:config_test - WorkerPort = %d", cfg.WorkerPort)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("config:config_test - SlogLevel = %v, want debug", cfg.SlogLevel())
	}
}

func TestLoadConfig_InvalidTimeout(t *testing.T) {
	t.Setenv("DELEGATION_TIMEOUT", "soon")
	if _, err := LoadConfig(); err == nil {
		t.Error("config:config_test - expected error for unparsable DELEGATION_TIMEOUT")
	}
}

func TestValidateForServe(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"zero health timeout", func(c *Config) { c.HealthCheckTimeout = 0 }, true},
		{"unknown registry source", func(c *Config) { c.RegistrySource = "consul" }, true},
		{"database without url", func(c *Config) { c.RegistrySource = RegistrySourceDatabase; c.DatabaseURL = "" }, true},
		{"comms without url", func(c *Config) { c.COMMSEnabled = true; c.COMMSURL = "" }, true},
		{"comms with url", func(c *Config) { c.COMMSEnabled = true }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				COMMSURL:           "nats://127.0.0.1:4222",
				Timeout:            time.Second,
				HealthCheckTimeout: time.Second,
				RegistrySource:     RegistrySourceBootstrap,
				DatabaseURL:        "postgres://localhost/db",
			}
			tt.mutate(c)
			err := c.ValidateForServe()
			if (err != nil) != tt.wantErr {
				t.Errorf("config:config_test - ValidateForServe() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateForDB(t *testing.T) {
	c := &Config{}
	if err := c.ValidateForDB(); err == nil {
		t.Error("config:config_test - expected error without DATABASE_URL")
	}
	c.DatabaseURL = "postgres://localhost/db"
	if err := c.ValidateForDB(); err != nil {
		t.Errorf("config:config_test - unexpected error: %v", err)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"chatty":  slog.LevelInfo,
	}
	for level, want := range tests {
		c := &Config{LogLevel: level}
		if got := c.SlogLevel(); got != want {
			t.Errorf("config:config_test - SlogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}
