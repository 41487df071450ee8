package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTempConfig writes YAML content to a temp file and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

const minimalConfig = `
cloud:
  enabled: false
mqtt:
  broker:
    host: localhost
`

func TestLoadDefaults(t *testing.T) {
	path := writeTempConfig(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Bridge.OfflineThresholdSeconds != 300 {
		t.Errorf("OfflineThresholdSeconds = %d, want 300", cfg.Bridge.OfflineThresholdSeconds)
	}
	if cfg.Calibration.InputCeilingDefault != 900 {
		t.Errorf("InputCeilingDefault = %d, want 900", cfg.Calibration.InputCeilingDefault)
	}
	if cfg.Calibration.InputCeilingHyper != 1200 {
		t.Errorf("InputCeilingHyper = %d, want 1200", cfg.Calibration.InputCeilingHyper)
	}
	if cfg.Calibration.InputCeilingAce != 1800 {
		t.Errorf("InputCeilingAce = %d, want 1800", cfg.Calibration.InputCeilingAce)
	}
	if cfg.MQTT.QoS != 1 {
		t.Errorf("QoS = %d, want 1", cfg.MQTT.QoS)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
cloud:
  enabled: false
mqtt:
  broker:
    host: broker.local
    port: 8883
    tls: true
bridge:
  offline_threshold_seconds: 600
  use_low_voltage_block: true
calibration:
  input_ceiling_ace: 2000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("Broker.Host = %q, want broker.local", cfg.MQTT.Broker.Host)
	}
	if !cfg.MQTT.Broker.TLS {
		t.Error("Broker.TLS = false, want true")
	}
	if cfg.Bridge.OfflineThresholdSeconds != 600 {
		t.Errorf("OfflineThresholdSeconds = %d, want 600", cfg.Bridge.OfflineThresholdSeconds)
	}
	if !cfg.Bridge.UseLowVoltageBlock {
		t.Error("UseLowVoltageBlock = false, want true")
	}
	if cfg.Calibration.InputCeilingAce != 2000 {
		t.Errorf("InputCeilingAce = %d, want 2000", cfg.Calibration.InputCeilingAce)
	}
	// Untouched sections keep defaults.
	if cfg.Calibration.InputCeilingHyper != 1200 {
		t.Errorf("InputCeilingHyper = %d, want 1200", cfg.Calibration.InputCeilingHyper)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SOLARBRIDGE_MQTT_HOST", "env-broker")
	t.Setenv("SOLARBRIDGE_MQTT_PORT", "2883")
	t.Setenv("SOLARBRIDGE_CLOUD_USERNAME", "user@example.com")
	t.Setenv("SOLARBRIDGE_CLOUD_PASSWORD", "secret")

	path := writeTempConfig(t, `
mqtt:
  broker:
    host: file-broker
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("Broker.Host = %q, want env-broker (env wins over file)", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 2883 {
		t.Errorf("Broker.Port = %d, want 2883", cfg.MQTT.Broker.Port)
	}
	if cfg.Cloud.Username != "user@example.com" {
		t.Errorf("Cloud.Username = %q, want user@example.com", cfg.Cloud.Username)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "missing cloud credentials",
			mutate:  func(c *Config) { c.Cloud.Enabled = true; c.Cloud.Username = ""; c.Cloud.Password = "" },
			wantMsg: "cloud.username",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantMsg: "mqtt.qos",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantMsg: "database.path",
		},
		{
			name:    "negative offline threshold",
			mutate:  func(c *Config) { c.Bridge.OfflineThresholdSeconds = -1 },
			wantMsg: "offline_threshold_seconds",
		},
		{
			name:    "zero calibration ceiling",
			mutate:  func(c *Config) { c.Calibration.OutputCeiling = 0 },
			wantMsg: "calibration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Cloud.Enabled = false
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() with missing file = nil error, want error")
	}
}
