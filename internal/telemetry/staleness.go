package telemetry

import "time"

// Connectivity is a device's derived connection state.
type Connectivity string

const (
	Connected    Connectivity = "Connected"
	Disconnected Connectivity = "Disconnected"
)

// ClassifyStaleness derives connectivity from a message's embedded
// timestamp.
//
// A message older than the threshold marks the device Disconnected even
// though a message just arrived: cloud brokers replay stale retained
// telemetry for devices that dropped off. An explicit wifiState report
// in the same message also writes connectivity; whichever lands later
// wins, which is acceptable because both derive from the same payload.
//
// Parameters:
//   - messageTimestamp: Device time in unix seconds, zero if absent
//   - now: Current time
//   - threshold: Staleness cutoff; zero means the 300s default
//
// Returns:
//   - Connectivity: Connected or Disconnected
//   - bool: false when the message carries no timestamp (no verdict)
func ClassifyStaleness(messageTimestamp int64, now time.Time, threshold time.Duration) (Connectivity, bool) {
	if messageTimestamp == 0 {
		return "", false
	}
	if threshold <= 0 {
		threshold = 300 * time.Second
	}

	age := now.Sub(time.Unix(messageTimestamp, 0))
	if age > threshold {
		return Disconnected, true
	}
	return Connected, true
}
