// Package state provides per-device key-value state storage.
//
// Each device carries two namespaces: Canonical for normalized telemetry
// and Control for the device's own setpoints mirrored from telemetry.
// The control namespace is what the command clampers read before
// deciding whether a write is a no-op.
//
// MemoryStore serves the hot path, SQLiteStore persists across restarts,
// and LayeredStore combines the two.
package state
