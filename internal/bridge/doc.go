// Package bridge wires the telemetry pipeline together.
//
// It routes inbound MQTT messages to the normalizers, applies the
// resulting updates to the state store and the control mirror, forwards
// history to InfluxDB, dispatches side-effect hooks, schedules the
// staggered per-device subscriptions at startup, and serializes
// outbound command publishes per device property.
//
// The normalization and clamping rules themselves live in the telemetry
// and command packages; this package only moves data between them and
// the infrastructure.
package bridge
