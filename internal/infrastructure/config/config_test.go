package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalConfig = `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
tsdb:
  url: "http://localhost:8428"
monitor:
  rooms: ["room-101", "room-102"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if len(cfg.Monitor.Rooms) != 2 {
		t.Errorf("Monitor.Rooms = %v, want 2 rooms", cfg.Monitor.Rooms)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scheduler.BootstrapMaxAttempts != 5 {
		t.Errorf("BootstrapMaxAttempts = %d, want default 5", cfg.Scheduler.BootstrapMaxAttempts)
	}
	if cfg.Scheduler.Schedules.ChangeScan == "" {
		t.Error("Schedules.ChangeScan default missing")
	}
	if cfg.Monitor.MaxWindowHours != 48 {
		t.Errorf("MaxWindowHours = %d, want default 48", cfg.Monitor.MaxWindowHours)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POINTWATCH_TSDB_URL", "http://victoria:8428")
	t.Setenv("POINTWATCH_MONITOR_ROOMS", "room-201, room-202 ,room-203")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TSDB.URL != "http://victoria:8428" {
		t.Errorf("TSDB.URL = %q, want env override", cfg.TSDB.URL)
	}
	if len(cfg.Monitor.Rooms) != 3 || cfg.Monitor.Rooms[1] != "room-202" {
		t.Errorf("Monitor.Rooms = %v, want env override of 3 trimmed rooms", cfg.Monitor.Rooms)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults with rooms",
			mutate:  func(c *Config) { c.Monitor.Rooms = []string{"room-1"} },
			wantErr: false,
		},
		{
			name:    "missing site id",
			mutate:  func(c *Config) { c.Monitor.Rooms = []string{"r"}; c.Site.ID = "" },
			wantErr: true,
		},
		{
			name:    "no rooms",
			mutate:  func(c *Config) { c.Monitor.Rooms = nil },
			wantErr: true,
		},
		{
			name:    "bad qos",
			mutate:  func(c *Config) { c.Monitor.Rooms = []string{"r"}; c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "zero bootstrap attempts",
			mutate:  func(c *Config) { c.Monitor.Rooms = []string{"r"}; c.Scheduler.BootstrapMaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "backoff below one",
			mutate:  func(c *Config) { c.Monitor.Rooms = []string{"r"}; c.Scheduler.BootstrapBackoff = 0.5 },
			wantErr: true,
		},
		{
			name:    "zero max window",
			mutate:  func(c *Config) { c.Monitor.Rooms = []string{"r"}; c.Monitor.MaxWindowHours = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
