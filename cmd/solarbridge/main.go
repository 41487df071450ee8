// Solarflow Bridge - Zendure Solarflow MQTT telemetry bridge
//
// Subscribes to per-device telemetry topics, normalises the raw reports
// into canonical state, and exposes clamped control commands over a
// REST API.
//
// Usage:
//
//	solarbridge                                    # uses configs/config.yaml
//	SOLARBRIDGE_CONFIG=/etc/solarbridge.yaml solarbridge
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fluxlink/solarflow-bridge/internal/api"
	"github.com/fluxlink/solarflow-bridge/internal/bridge"
	"github.com/fluxlink/solarflow-bridge/internal/cloudapi"
	"github.com/fluxlink/solarflow-bridge/internal/command"
	"github.com/fluxlink/solarflow-bridge/internal/device"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/config"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/database"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/influxdb"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/logging"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/mqtt"
	"github.com/fluxlink/solarflow-bridge/internal/metrics"
	"github.com/fluxlink/solarflow-bridge/internal/state"

	// Register embedded SQL migrations with the database package.
	_ "github.com/fluxlink/solarflow-bridge/migrations"
)

// Build information, injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultConfigPath is used when SOLARBRIDGE_CONFIG is not set.
const defaultConfigPath = "configs/config.yaml"

// cloudMQTTUsername is the fixed username the vendor broker expects;
// the password comes from the per-region configuration.
const cloudMQTTUsername = "zenApp"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "solarbridge: %v\n", err)
		os.Exit(1)
	}
}

// run contains the actual application logic, separated from main() so
// that deferred cleanup runs before os.Exit.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Solarflow Bridge",
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

	// A forced logout from the vendor cloud invalidates the session and
	// its MQTT credentials, so the cleanest recovery is a full restart.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Open database
	db, err := database.Open(cfg.Database)
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device registry
	deviceRepo := device.NewSQLiteRepository(db)
	deviceRegistry := device.NewRegistry(deviceRepo)
	deviceRegistry.SetLogger(log)

	if refreshErr := deviceRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", deviceRegistry.Count())

	// State store: in-memory reads backed by SQLite persistence, warmed
	// from the devices known before this start.
	store := state.NewLayeredStore(state.NewSQLiteStore(db))
	if loadErr := store.Load(ctx, registeredKeys(ctx, deviceRegistry)); loadErr != nil {
		return fmt.Errorf("loading device state: %w", loadErr)
	}

	// Cloud session (optional): login, fetch the device list, and adopt
	// the vendor broker credentials.
	var devices []cloudapi.DeviceDetails
	var userID string
	if cfg.Cloud.Enabled {
		cloudClient := cloudapi.NewClient(cfg.Cloud, log)
		session, loginErr := cloudClient.Login(ctx)
		if loginErr != nil {
			return fmt.Errorf("cloud login: %w", loginErr)
		}
		log.Info("cloud session established",
			"user_id", session.UserID,
			"expires_at", session.ExpiresAt,
		)

		devices, err = cloudClient.DeviceList(ctx, session)
		if err != nil {
			return fmt.Errorf("fetching device list: %w", err)
		}
		log.Info("device list fetched", "devices", len(devices))

		userID = session.UserID
		if cfg.MQTT.Auth.Username == "" {
			cfg.MQTT.Auth.Username = cloudMQTTUsername
		}
	} else {
		log.Info("cloud session disabled, using registered devices")
		devices = deviceDetailsFromRegistry(ctx, deviceRegistry)
	}

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
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

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
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

	var history bridge.HistoryWriter
	if influxClient != nil {
		history = influxClient
	}

	// Telemetry pipeline
	mets := metrics.New(nil)
	supervisor := bridge.NewSupervisor(store, log, func() {
		log.Warn("forced logout received, restarting for a fresh session")
		cancel()
	})
	br := bridge.New(bridge.Options{
		Config:   cfg.Bridge,
		Pub:      mqttClient,
		Store:    store,
		Registry: deviceRegistry,
		History:  history,
		Hooks:    supervisor,
		Metrics:  mets,
		Logger:   log,
	})

	if subErr := br.SubscribeDevices(ctx, devices, userID); subErr != nil {
		return fmt.Errorf("subscribing devices: %w", subErr)
	}
	log.Info("device subscriptions established", "subscriptions", mqttClient.SubscriptionCount())

	// Command dispatch
	clamper := command.NewClamper(command.NewCalibration(cfg.Calibration), cfg.Bridge.UseLowVoltageBlock)
	dispatcher := br.NewDispatcher(clamper)

	// REST API (optional)
	if cfg.API.Enabled {
		checks := map[string]api.HealthChecker{
			"mqtt":     mqttClient,
			"database": db,
		}
		if influxClient != nil {
			checks["influxdb"] = influxClient
		}

		apiServer, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Registry: deviceRegistry,
			Store:    store,
			Commands: dispatcher,
			Checks:   checks,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API server disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (if enabled)
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Solarflow Bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SOLARBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SOLARBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// registeredKeys lists the device keys known to the registry, for
// warming the state cache.
func registeredKeys(ctx context.Context, registry *device.Registry) []string {
	devices, err := registry.List(ctx)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(devices))
	for _, d := range devices {
		keys = append(keys, d.Key)
	}
	return keys
}

// deviceDetailsFromRegistry rebuilds subscription details from devices
// registered during earlier cloud-enabled runs, so the bridge keeps
// working against a local broker without a cloud session.
func deviceDetailsFromRegistry(ctx context.Context, registry *device.Registry) []cloudapi.DeviceDetails {
	devices, err := registry.List(ctx)
	if err != nil {
		return nil
	}
	details := make([]cloudapi.DeviceDetails, 0, len(devices))
	for _, d := range devices {
		details = append(details, cloudapi.DeviceDetails{
			ProductKey:  d.ProductKey,
			DeviceKey:   d.Key,
			ProductName: d.ProductName,
			DeviceName:  d.Name,
			SnNumber:    d.Serial,
		})
	}
	return details
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for cancellation
//   - db: Database connection
//   - mqttClient: MQTT client
//   - influxClient: InfluxDB client (may be nil if disabled)
//
// Returns:
//   - error: First failing check, or nil when everything responds
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
