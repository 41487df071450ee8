package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Solarflow Bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Cloud       CloudConfig       `yaml:"cloud"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Database    DatabaseConfig    `yaml:"database"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	API         APIConfig         `yaml:"api"`
	Logging     LoggingConfig     `yaml:"logging"`
	Bridge      BridgeConfig      `yaml:"bridge"`
	Calibration CalibrationConfig `yaml:"calibration"`
}

// CloudConfig contains Zendure cloud REST API settings.
// Username and password are the app-account credentials used for login;
// the MQTT broker credentials are returned by the login response.
type CloudConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	TokenURL           string `yaml:"token_url"`
	DeviceListURL      string `yaml:"device_list_url"`
	RequestTimeoutSecs int    `yaml:"request_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
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
// When the cloud session is enabled these are filled in from the login
// response and any configured values are ignored.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for telemetry history.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// BridgeConfig contains telemetry pipeline behaviour settings.
type BridgeConfig struct {
	// OfflineThresholdSeconds is the message age beyond which a device is
	// reported as Disconnected. Zero means the 300s default.
	OfflineThresholdSeconds int `yaml:"offline_threshold_seconds"`

	// SubscribeStaggerMillis is the delay step between per-device
	// subscriptions at startup, avoiding a connect-time burst.
	SubscribeStaggerMillis int `yaml:"subscribe_stagger_millis"`

	// UseLowVoltageBlock enables the output-limit safety override: while
	// control.lowVoltageBlock or control.fullChargeNeeded is set, any
	// requested output limit is forced to zero.
	UseLowVoltageBlock bool `yaml:"use_low_voltage_block"`

	// UseCalculation enables the energy-max-capture and reset-soc-to-zero
	// hooks driven by electricLevel telemetry.
	UseCalculation bool `yaml:"use_calculation"`
}

// CalibrationConfig contains device-family limit calibration.
//
// The ceilings are inferred from vendor app behaviour, not official device
// documentation, so they are deliberately configurable rather than constants.
type CalibrationConfig struct {
	InputCeilingDefault int `yaml:"input_ceiling_default"`
	InputCeilingHyper   int `yaml:"input_ceiling_hyper"`
	InputCeilingAce     int `yaml:"input_ceiling_ace"`
	OutputCeiling       int `yaml:"output_ceiling"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SOLARBRIDGE_SECTION_KEY
// For example: SOLARBRIDGE_CLOUD_PASSWORD, SOLARBRIDGE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Cloud: CloudConfig{
			Enabled:            true,
			TokenURL:           "https://app.zendure.tech/v2/auth/app/token",
			DeviceListURL:      "https://app.zendure.tech/v2/productModule/device/queryDeviceListByConsumerId",
			RequestTimeoutSecs: 10,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "mq.zen-iot.com",
				Port:     1883,
				ClientID: "solarbridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/solarbridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Bridge: BridgeConfig{
			OfflineThresholdSeconds: 300,
			SubscribeStaggerMillis:  1000,
			UseLowVoltageBlock:      false,
			UseCalculation:          true,
		},
		Calibration: CalibrationConfig{
			InputCeilingDefault: 900,
			InputCeilingHyper:   1200,
			InputCeilingAce:     1800,
			OutputCeiling:       1200,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SOLARBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Cloud credentials
	if v := os.Getenv("SOLARBRIDGE_CLOUD_USERNAME"); v != "" {
		cfg.Cloud.Username = v
	}
	if v := os.Getenv("SOLARBRIDGE_CLOUD_PASSWORD"); v != "" {
		cfg.Cloud.Password = v
	}

	// MQTT
	if v := os.Getenv("SOLARBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SOLARBRIDGE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("SOLARBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SOLARBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Database
	if v := os.Getenv("SOLARBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("SOLARBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Cloud.Enabled {
		if c.Cloud.Username == "" {
			errs = append(errs, "cloud.username is required when cloud is enabled (set SOLARBRIDGE_CLOUD_USERNAME)")
		}
		if c.Cloud.Password == "" {
			errs = append(errs, "cloud.password is required when cloud is enabled (set SOLARBRIDGE_CLOUD_PASSWORD)")
		}
		if c.Cloud.TokenURL == "" {
			errs = append(errs, "cloud.token_url is required when cloud is enabled")
		}
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Bridge.OfflineThresholdSeconds < 0 {
		errs = append(errs, "bridge.offline_threshold_seconds must not be negative")
	}

	// A ceiling of zero would turn every setpoint into a forced shutdown.
	if c.Calibration.InputCeilingDefault <= 0 ||
		c.Calibration.InputCeilingHyper <= 0 ||
		c.Calibration.InputCeilingAce <= 0 ||
		c.Calibration.OutputCeiling <= 0 {
		errs = append(errs, "calibration ceilings must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// CloudRequestTimeout returns the cloud API request timeout as a Duration.
func (c *Config) CloudRequestTimeout() time.Duration {
	return time.Duration(c.Cloud.RequestTimeoutSecs) * time.Second
}

// OfflineThreshold returns the staleness threshold as a Duration.
func (c *Config) OfflineThreshold() time.Duration {
	return time.Duration(c.Bridge.OfflineThresholdSeconds) * time.Second
}

// SubscribeStagger returns the per-device subscription delay step.
func (c *Config) SubscribeStagger() time.Duration {
	return time.Duration(c.Bridge.SubscribeStaggerMillis) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
