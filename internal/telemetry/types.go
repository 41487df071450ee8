package telemetry

// Device carries the per-device context the normalizer needs.
// ProductName decides family-specific mirroring; ConnectedWithAce
// affects the standby compensation on packInputPower.
type Device struct {
	ProductKey       string
	DeviceKey        string
	ProductName      string
	ConnectedWithAce bool
}

// Update is a single canonical or control state change.
// Values are float64, bool, or string.
type Update struct {
	Field string
	Value any
}

// HookKind identifies a side effect the pipeline should trigger.
type HookKind string

const (
	// HookEnergyMaxCapture fires when a solar-capable device reports a
	// full battery; the energy calculator snapshots its maximum.
	HookEnergyMaxCapture HookKind = "energy_max_capture"

	// HookResetSocToZero fires when the battery drains to the
	// configured discharge floor; the calculated SOC baseline resets.
	HookResetSocToZero HookKind = "reset_soc_to_zero"

	// HookVoltageCheck fires with each pack total voltage reading on
	// solarflow-like devices; the voltage supervisor may engage the
	// low-voltage block.
	HookVoltageCheck HookKind = "voltage_check"
)

// Hook is a side-effect request emitted during normalization.
// Value carries the triggering reading where relevant (pack voltage
// for HookVoltageCheck).
type Hook struct {
	Kind  HookKind
	Value float64
}

// Result is the outcome of normalizing one telemetry message.
//
// Updates and Control are ordered; later entries win when a message
// carries overlapping sources for the same canonical field.
type Result struct {
	// Updates are canonical state changes.
	Updates []Update

	// Control are control-namespace mirror changes.
	Control []Update

	// Hooks are side effects for the pipeline to dispatch.
	Hooks []Hook

	// Diagnostics names raw properties the normalizer does not know.
	// Unknown input is reported, never an error.
	Diagnostics []string
}

func (r *Result) update(field string, value any) {
	r.Updates = append(r.Updates, Update{Field: field, Value: value})
}

func (r *Result) control(field string, value any) {
	r.Control = append(r.Control, Update{Field: field, Value: value})
}

func (r *Result) hook(kind HookKind, value float64) {
	r.Hooks = append(r.Hooks, Hook{Kind: kind, Value: value})
}

// StateReader exposes the stored per-device state the normalizer
// consults for cross-field rules. Lookups reflect state before the
// current message.
type StateReader interface {
	// Canonical returns a stored canonical value.
	Canonical(field string) (any, bool)

	// Control returns a stored control value.
	Control(field string) (any, bool)
}
