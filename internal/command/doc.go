// Package command turns control intents into outbound property-write
// payloads.
//
// Each controllable property has its own clamper or builder: numeric
// limits are validated and quantized against device-family rules
// (ceilings, step tables, the ACE 100 W granularity), mode setters
// validate their enum range, and boolean toggles map directly. Clampers
// that consult the device's current state suppress writes that would
// not change anything; a nil Command with a nil error means exactly
// that.
//
// The package performs no I/O. Callers publish the rendered payload to
// the device's properties/write topic and log rejections.
package command
