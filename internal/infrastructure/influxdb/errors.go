package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
var (
	// ErrDisabled indicates InfluxDB is disabled in configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed indicates the server could not be reached.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected indicates an operation was attempted while disconnected.
	ErrNotConnected = errors.New("influxdb: not connected")
)
