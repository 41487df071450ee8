// Package telemetry normalizes raw vendor MQTT payloads into canonical
// device state.
//
// The vendor wire format is quirky: temperatures in deci-Kelvin,
// voltages in centivolts, SOC setpoints in tenths of a percent, numeric
// booleans, swapped PV channel numbering, and an aliased grid power
// field. The Normalizer hides all of that behind canonical fields with
// uniform units, emits control-namespace mirrors of the device's own
// setpoints, and requests side-effect hooks (energy capture, SOC reset,
// voltage supervision) for the pipeline to dispatch.
//
// Battery pack blocks are handled by NormalizePacks and staleness
// classification by ClassifyStaleness. Unknown input never fails a
// message; it surfaces as diagnostics.
package telemetry
