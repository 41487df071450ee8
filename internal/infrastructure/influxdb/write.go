package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTelemetry writes a normalized telemetry value for a device.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Only numeric canonical values are recorded here, enum and boolean
// states stay in the SQLite state store.
//
// Parameters:
//   - deviceKey: The device's unique key
//   - field: Canonical field name (e.g. "solarInputPower", "electricLevel")
//   - value: The normalized numeric value
//
// Example:
//
//	client.WriteTelemetry("abc123", "solarInputPower", 245)
//	client.WriteTelemetry("abc123", "maxTemp", 31.25)
func (c *Client) WriteTelemetry(deviceKey string, field string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"telemetry",
		map[string]string{
			"device_key": deviceKey,
			"field":      field,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePackTelemetry writes a battery pack measurement.
//
// Pack values are tagged with both the owning device and the pack serial
// so per-pack histories can be charted independently.
//
// Parameters:
//   - deviceKey: The owning device's key
//   - packSerial: The pack's serial number
//   - field: Canonical pack field (e.g. "socLevel", "maxTemp", "totalVol")
//   - value: The normalized numeric value
func (c *Client) WritePackTelemetry(deviceKey, packSerial, field string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"pack_telemetry",
		map[string]string{
			"device_key":  deviceKey,
			"pack_serial": packSerial,
			"field":       field,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCommand records an outbound property write for audit history.
//
// Parameters:
//   - deviceKey: The target device's key
//   - property: The vendor property written (e.g. "inputLimit")
//   - value: The value sent
func (c *Client) WriteCommand(deviceKey, property string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"commands",
		map[string]string{
			"device_key": deviceKey,
			"property":   property,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
