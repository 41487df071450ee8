// Package influxdb provides telemetry history recording for Solarflow Bridge.
//
// It wraps the InfluxDB v2 client with non-blocking batched writes so the
// telemetry pipeline never stalls on history persistence. Recording is
// optional; when disabled in configuration the bridge runs without it.
package influxdb
