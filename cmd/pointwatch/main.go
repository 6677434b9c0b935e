// Pointwatch Core - Setpoint Change Monitoring Service
//
// This is the main entry point for the Pointwatch Core service.
// Pointwatch watches environmental-control devices (air coolers, fans,
// humidifiers, lights) across monitored rooms, detects operator setpoint
// changes from time-series snapshots, and records them for downstream
// analytics and the external ML pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/pointwatch-core/migrations"

	"github.com/nerrad567/pointwatch-core/internal/detector"
	"github.com/nerrad567/pointwatch-core/internal/inference"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/config"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/database"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/logging"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/tsdb"
	"github.com/nerrad567/pointwatch-core/internal/monitor"
	"github.com/nerrad567/pointwatch-core/internal/pointcfg"
	"github.com/nerrad567/pointwatch-core/internal/scheduler"
	"github.com/nerrad567/pointwatch-core/internal/snapshot"
	"github.com/nerrad567/pointwatch-core/internal/stats"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Pointwatch Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database. Connectivity is NOT verified here: the scheduler
	// probes during bootstrap, so a briefly locked database delays
	// startup instead of failing it.
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database handle ready", "path", cfg.Database.Path)

	// Load point configuration
	pointSet, err := pointcfg.Load(cfg.Points)
	if err != nil {
		return fmt.Errorf("loading point configuration: %w", err)
	}
	pointStore := pointcfg.NewStore(pointSet, cfg.Points)
	log.Info("point configuration loaded",
		"points", pointSet.Len(),
		"device_types", len(pointSet.DeviceTypes()),
	)

	// Snapshot store client (no connection attempt; per-room queries
	// fail individually if the store is unreachable)
	tsdbClient := tsdb.New(cfg.TSDB)
	source := snapshot.NewVictoriaSource(tsdbClient, cfg.TSDB.StepDuration())
	log.Info("snapshot source configured", "url", cfg.TSDB.URL)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// Operator-triggered point configuration reload
		topics := mqtt.Topics{}
		err = mqttClient.Subscribe(topics.SystemReload(), byte(cfg.MQTT.QoS), func(_ string, _ []byte) error {
			reloadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if reloadErr := pointStore.Reload(reloadCtx); reloadErr != nil {
				log.Error("point configuration reload failed", "error", reloadErr)
				return reloadErr
			}
			log.Info("point configuration reloaded", "points", pointStore.Current().Len())
			return nil
		})
		if err != nil {
			return fmt.Errorf("subscribing to reload topic: %w", err)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Wire the monitoring pipeline
	det := detector.New(pointStore)
	sink := monitor.NewSQLiteSink(db)
	orchestrator := monitor.New(source, det, sink, cfg.Monitor, log)
	if mqttClient != nil || influxClient != nil {
		orchestrator.SetNotifier(monitor.NewEventNotifier(mqttClient, influxClient, log))
	}

	aggregator := stats.New(db, log)

	var inferenceTrigger *inference.Trigger
	if mqttClient != nil {
		inferenceTrigger = inference.New(mqttClient, cfg.Site.ID, cfg.Monitor.Rooms, log)
	}

	// Scheduler: bootstrap gating plus recurring jobs
	sched := scheduler.New(db, cfg.Scheduler, log)
	if mqttClient != nil {
		sched.SetOnStatusChange(func(status scheduler.Status) {
			payload := fmt.Sprintf(`{"status":%q,"timestamp":%q}`,
				status, time.Now().UTC().Format(time.RFC3339))
			if pubErr := mqttClient.PublishRetained(mqtt.Topics{}.SystemStatus(), []byte(payload)); pubErr != nil {
				log.Warn("status publish failed", "status", string(status), "error", pubErr)
			}
		})
	}

	if err := registerJobs(sched, cfg, orchestrator, aggregator, inferenceTrigger, db, log); err != nil {
		return fmt.Errorf("registering jobs: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		if errors.Is(err, scheduler.ErrBootstrapExhausted) {
			return fmt.Errorf("storage never became reachable: %w", err)
		}
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Scheduler (waits for in-flight jobs up to the grace period)
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("Pointwatch Core stopped")
	return nil
}

// registerJobs wires the recurring jobs onto the scheduler.
//
// Jobs:
//   - change-scan: scans the sliding lookback window for setpoint changes
//   - daily-stats: aggregates the previous UTC day's change counts
//   - schema-check: verifies schema integrity (idempotent migration pass)
//   - inference-request: announces a ready window to the ML pipeline
func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	orchestrator *monitor.Orchestrator,
	aggregator *stats.Aggregator,
	inferenceTrigger *inference.Trigger,
	db *database.DB,
	log *logging.Logger,
) error {
	schedules := cfg.Scheduler.Schedules

	err := sched.Register("change-scan",
		"scan the sliding lookback window for setpoint changes",
		schedules.ChangeScan,
		func(ctx context.Context) error {
			end := time.Now().UTC()
			start := end.Add(-cfg.Monitor.Lookback())
			result, runErr := orchestrator.Run(ctx, nil, start, end)
			if runErr != nil {
				return runErr
			}
			if !result.Success() {
				return fmt.Errorf("scan completed with %d failed rooms: %v",
					len(result.RoomErrors), result.FailedRooms())
			}
			return nil
		})
	if err != nil {
		return err
	}

	err = sched.Register("daily-stats",
		"aggregate the previous UTC day's change counts",
		schedules.DailyStats,
		func(ctx context.Context) error {
			yesterday := time.Now().UTC().AddDate(0, 0, -1)
			_, statErr := aggregator.ComputeDay(ctx, yesterday)
			return statErr
		})
	if err != nil {
		return err
	}

	err = sched.Register("schema-check",
		"verify schema integrity with an idempotent migration pass",
		schedules.SchemaCheck,
		func(ctx context.Context) error {
			// Migrate is idempotent and verifies the migrations table and
			// schema version on every pass.
			return db.Migrate(ctx)
		})
	if err != nil {
		return err
	}

	if inferenceTrigger != nil {
		err = sched.Register("inference-request",
			"announce a ready data window to the inference pipeline",
			schedules.InferenceRequest,
			func(ctx context.Context) error {
				end := time.Now().UTC()
				start := end.Add(-cfg.Monitor.Lookback())
				_, pubErr := inferenceTrigger.Publish(start, end)
				return pubErr
			})
		if err != nil {
			return err
		}
	} else {
		log.Info("inference requests disabled (MQTT not connected)")
	}

	return nil
}

// getConfigPath returns the configuration file path.
// Uses POINTWATCH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("POINTWATCH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
