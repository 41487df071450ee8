package state

import "context"

// Namespace separates the two kinds of per-device state the bridge keeps.
type Namespace string

const (
	// Canonical holds normalized telemetry values (powers in watts,
	// temperatures in Celsius, enums as strings).
	Canonical Namespace = "canonical"

	// Control holds the device's own view of its setpoints and flags,
	// mirrored from telemetry and consulted when clamping commands.
	Control Namespace = "control"
)

// Store persists per-device state values.
//
// Values are JSON-typed: float64, bool, or string. Implementations must
// be safe for concurrent use.
type Store interface {
	// Set stores a value for a device field, replacing any previous value.
	Set(ctx context.Context, deviceKey string, ns Namespace, field string, value any) error

	// Get retrieves a value. The second return is false if the field has
	// never been set.
	Get(ctx context.Context, deviceKey string, ns Namespace, field string) (any, bool, error)

	// GetAll retrieves every field in a namespace for a device.
	GetAll(ctx context.Context, deviceKey string, ns Namespace) (map[string]any, error)

	// Delete removes a field. Deleting a missing field is not an error.
	Delete(ctx context.Context, deviceKey string, ns Namespace, field string) error
}

// Number retrieves a numeric field.
// Returns false if the field is unset or not numeric.
func Number(ctx context.Context, s Store, deviceKey string, ns Namespace, field string) (float64, bool, error) {
	v, ok, err := s.Get(ctx, deviceKey, ns, field)
	if err != nil || !ok {
		return 0, false, err
	}
	n, ok := v.(float64)
	return n, ok, nil
}

// Bool retrieves a boolean field.
// Returns false in the second value if the field is unset or not boolean.
func Bool(ctx context.Context, s Store, deviceKey string, ns Namespace, field string) (bool, bool, error) {
	v, ok, err := s.Get(ctx, deviceKey, ns, field)
	if err != nil || !ok {
		return false, false, err
	}
	b, ok := v.(bool)
	return b, ok, nil
}

// String retrieves a string field.
// Returns false if the field is unset or not a string.
func String(ctx context.Context, s Store, deviceKey string, ns Namespace, field string) (string, bool, error) {
	v, ok, err := s.Get(ctx, deviceKey, ns, field)
	if err != nil || !ok {
		return "", false, err
	}
	str, ok := v.(string)
	return str, ok, nil
}
