package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Pointwatch Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	TSDB      TSDBConfig      `yaml:"tsdb"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Points    PointsConfig    `yaml:"points"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// TSDBConfig contains settings for the time-series snapshot store
// (VictoriaMetrics, queried via the Prometheus HTTP API).
type TSDBConfig struct {
	URL string `yaml:"url"`

	// QueryTimeout is the per-query timeout in seconds.
	QueryTimeout int `yaml:"query_timeout"`

	// Step is the resolution step in seconds for range queries.
	Step int `yaml:"step"`
}

// InfluxDBConfig contains InfluxDB connection settings for metrics mirroring.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// PointsConfig locates the point configuration documents.
//
// Point configuration is split across two JSON documents that are joined
// at load time: the monitoring list (aliases, names, change kinds,
// thresholds) and the static device-detail document (enum value→label
// mappings per device type).
type PointsConfig struct {
	MonitorListPath  string `yaml:"monitor_list_path"`
	DeviceDetailPath string `yaml:"device_detail_path"`
}

// MonitorConfig contains batch monitoring settings.
type MonitorConfig struct {
	// Rooms is the fixed set of room IDs to scan each batch.
	Rooms []string `yaml:"rooms"`

	// MaxWindowHours caps the [start, end] span of a single batch.
	// Guards against accidentally scanning years of history.
	MaxWindowHours int `yaml:"max_window_hours"`

	// LookbackMinutes is the sliding window scanned by the periodic batch.
	// Overlapping windows are safe: persistence dedupes on the natural key.
	LookbackMinutes int `yaml:"lookback_minutes"`

	// RoomWorkers bounds concurrent per-room scanning. 1 means sequential.
	RoomWorkers int `yaml:"room_workers"`
}

// SchedulerConfig contains bootstrap and job schedule settings.
type SchedulerConfig struct {
	// BootstrapMaxAttempts is the connectivity probe retry budget.
	BootstrapMaxAttempts int `yaml:"bootstrap_max_attempts"`

	// BootstrapDelaySeconds is the base delay between probe attempts.
	BootstrapDelaySeconds int `yaml:"bootstrap_delay_seconds"`

	// BootstrapBackoff multiplies the delay after each failed attempt.
	// 1.0 gives a fixed delay.
	BootstrapBackoff float64 `yaml:"bootstrap_backoff"`

	// ShutdownGraceSeconds is how long in-flight jobs may run after a
	// shutdown signal before the process exits anyway.
	ShutdownGraceSeconds int `yaml:"shutdown_grace_seconds"`

	// Schedules holds cron expressions for the recurring jobs.
	Schedules ScheduleConfig `yaml:"schedules"`
}

// ScheduleConfig holds cron expressions (standard five-field format)
// for the recurring jobs.
type ScheduleConfig struct {
	SchemaCheck      string `yaml:"schema_check"`
	DailyStats       string `yaml:"daily_stats"`
	ChangeScan       string `yaml:"change_scan"`
	InferenceRequest string `yaml:"inference_request"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: POINTWATCH_SECTION_KEY
// For example: POINTWATCH_DATABASE_PATH, POINTWATCH_TSDB_URL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Pointwatch",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/pointwatch.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "pointwatch-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		TSDB: TSDBConfig{
			URL:          "http://localhost:8428",
			QueryTimeout: 15,
			Step:         60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Points: PointsConfig{
			MonitorListPath:  "./configs/monitor_points.json",
			DeviceDetailPath: "./configs/device_details.json",
		},
		Monitor: MonitorConfig{
			MaxWindowHours:  48,
			LookbackMinutes: 120,
			RoomWorkers:     4,
		},
		Scheduler: SchedulerConfig{
			BootstrapMaxAttempts:  5,
			BootstrapDelaySeconds: 5,
			BootstrapBackoff:      1.0,
			ShutdownGraceSeconds:  30,
			Schedules: ScheduleConfig{
				SchemaCheck:      "15 4 * * *",
				DailyStats:       "30 0 * * *",
				ChangeScan:       "5 * * * *",
				InferenceRequest: "10 * * * *",
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: POINTWATCH_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("POINTWATCH_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("POINTWATCH_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("POINTWATCH_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("POINTWATCH_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// TSDB
	if v := os.Getenv("POINTWATCH_TSDB_URL"); v != "" {
		cfg.TSDB.URL = v
	}

	// InfluxDB
	if v := os.Getenv("POINTWATCH_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Monitor rooms - comma-separated override for containerised deploys.
	if v := os.Getenv("POINTWATCH_MONITOR_ROOMS"); v != "" {
		cfg.Monitor.Rooms = cfg.Monitor.Rooms[:0]
		for _, room := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(room); trimmed != "" {
				cfg.Monitor.Rooms = append(cfg.Monitor.Rooms, trimmed)
			}
		}
	}

	// Scheduler
	if v := os.Getenv("POINTWATCH_SCHEDULER_BOOTSTRAP_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Scheduler.BootstrapMaxAttempts = n
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// TSDB validation - the snapshot source is not optional
	if c.TSDB.URL == "" {
		errs = append(errs, "tsdb.url is required")
	}
	if c.TSDB.Step <= 0 {
		errs = append(errs, "tsdb.step must be positive")
	}

	// Points validation
	if c.Points.MonitorListPath == "" {
		errs = append(errs, "points.monitor_list_path is required")
	}
	if c.Points.DeviceDetailPath == "" {
		errs = append(errs, "points.device_detail_path is required")
	}

	// Monitor validation
	if len(c.Monitor.Rooms) == 0 {
		errs = append(errs, "monitor.rooms must list at least one room")
	}
	if c.Monitor.MaxWindowHours <= 0 {
		errs = append(errs, "monitor.max_window_hours must be positive")
	}
	if c.Monitor.LookbackMinutes <= 0 {
		errs = append(errs, "monitor.lookback_minutes must be positive")
	}
	if c.Monitor.RoomWorkers < 1 {
		errs = append(errs, "monitor.room_workers must be at least 1")
	}

	// Scheduler validation
	if c.Scheduler.BootstrapMaxAttempts < 1 {
		errs = append(errs, "scheduler.bootstrap_max_attempts must be at least 1")
	}
	if c.Scheduler.BootstrapDelaySeconds < 0 {
		errs = append(errs, "scheduler.bootstrap_delay_seconds must not be negative")
	}
	if c.Scheduler.BootstrapBackoff < 1.0 {
		errs = append(errs, "scheduler.bootstrap_backoff must be at least 1.0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Timeout returns the TSDB query timeout as a Duration.
func (c *TSDBConfig) Timeout() time.Duration {
	return time.Duration(c.QueryTimeout) * time.Second
}

// StepDuration returns the range-query resolution step as a Duration.
func (c *TSDBConfig) StepDuration() time.Duration {
	return time.Duration(c.Step) * time.Second
}

// MaxWindow returns the maximum batch window span as a Duration.
func (c *MonitorConfig) MaxWindow() time.Duration {
	return time.Duration(c.MaxWindowHours) * time.Hour
}

// Lookback returns the periodic scan window as a Duration.
func (c *MonitorConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackMinutes) * time.Minute
}

// BootstrapDelay returns the base delay between probe attempts as a Duration.
func (c *SchedulerConfig) BootstrapDelay() time.Duration {
	return time.Duration(c.BootstrapDelaySeconds) * time.Second
}

// ShutdownGrace returns the shutdown grace period as a Duration.
func (c *SchedulerConfig) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds) * time.Second
}
