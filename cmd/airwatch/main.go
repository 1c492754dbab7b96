// AirWatch Core - Air Quality Dashboard Backend
//
// This is the main entry point for the AirWatch Core service. It ingests
// live sensor readings over MQTT, maintains a rolling trend window, archives
// meaningful samples to SQLite, optionally mirrors them to InfluxDB, and
// serves the dashboard views over HTTP.
//
// Startup is strict about configuration only: a missing store credential or
// an invalid timezone halts the process. Everything downstream degrades
// instead of crashing — an unreachable broker leaves the live view in
// "disconnected", an unreachable store yields empty history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mkalens/airwatch-core/migrations"

	"github.com/mkalens/airwatch-core/internal/api"
	"github.com/mkalens/airwatch-core/internal/archive"
	"github.com/mkalens/airwatch-core/internal/infrastructure/config"
	"github.com/mkalens/airwatch-core/internal/infrastructure/database"
	"github.com/mkalens/airwatch-core/internal/infrastructure/influxdb"
	"github.com/mkalens/airwatch-core/internal/infrastructure/logging"
	"github.com/mkalens/airwatch-core/internal/infrastructure/mqtt"
	"github.com/mkalens/airwatch-core/internal/ingest"
	"github.com/mkalens/airwatch-core/internal/store/supabase"
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
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
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
	log.Info("starting AirWatch Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration. Validation failures here are the only fatal
	// class of error after which we refuse to start.
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

	// Display timezone was validated by config.Load.
	displayLoc, err := time.LoadLocation(cfg.Site.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone: %w", err)
	}

	// Open the local archive database
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
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	repo := archive.NewRepository(db.DB)

	// Historical store adapter (fetch errors degrade to empty results)
	store := supabase.New(cfg.Store, cfg.Site.Timezone, log)
	log.Info("store adapter initialised", "table", cfg.Store.Table)

	// Ingestion pipeline: mailbox, trend buffer, listener, poller
	mailbox := ingest.NewMailbox()
	trend := ingest.NewTrendBuffer(ingest.DefaultTrendCapacity)

	// Connect to the MQTT broker. An unreachable broker is not fatal: the
	// live view stays in "disconnected" and history still works.
	var listener *ingest.Listener
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		log.Warn("MQTT unavailable, live ingestion disabled", "error", err)
	} else {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		// #nosec G115 -- QoS validated to 0..2 by config
		listener = ingest.NewListener(mqttClient, mailbox, cfg.MQTT.Topic, byte(cfg.MQTT.QoS), log)
		if subErr := listener.Start(); subErr != nil {
			log.Warn("sensor subscription failed, waiting for reconnect", "error", subErr)
		}
	}

	// Connect to InfluxDB (optional mirror)
	var mirror *influxdb.Client
	if cfg.InfluxDB.Enabled {
		mirror, err = influxdb.Connect(cfg.InfluxDB, cfg.Site.Name, log)
		if err != nil {
			// The mirror is best-effort; the archive keeps the durable record.
			log.Warn("InfluxDB unavailable, mirroring disabled", "error", err)
			mirror = nil
		} else {
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := mirror.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			log.Info("InfluxDB connected",
				"url", cfg.InfluxDB.URL,
				"org", cfg.InfluxDB.Org,
				"bucket", cfg.InfluxDB.Bucket,
			)
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the poller
	pollerDeps := ingest.PollerDeps{
		Mailbox:  mailbox,
		Buffer:   trend,
		Archiver: repo,
		Interval: cfg.PollInterval(),
		Location: displayLoc,
		Logger:   log,
	}
	if mirror != nil {
		pollerDeps.Mirror = mirror
	}
	poller := ingest.NewPoller(pollerDeps)
	go func() {
		//nolint:errcheck // Run only returns ctx.Err() on shutdown
		poller.Run(ctx)
	}()

	// Start the HTTP API server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Mailbox:  mailbox,
		Listener: listener,
		Trend:    trend,
		Poller:   poller,
		History:  store,
		Archive:  repo,
		Location: displayLoc,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if connected)
	// 4. Database

	log.Info("AirWatch Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AIRWATCH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AIRWATCH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
