package command

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/fluxlink/solarflow-bridge/internal/device"
)

// StateReader exposes the stored per-device state clampers consult:
// current setpoints for no-op suppression and control flags for the
// safety overrides.
type StateReader interface {
	// Canonical returns a stored canonical value.
	Canonical(field string) (any, bool)

	// Control returns a stored control value.
	Control(field string) (any, bool)
}

// Clamper validates and quantizes numeric limit requests.
type Clamper struct {
	cal                Calibration
	useLowVoltageBlock bool
}

// NewClamper builds a Clamper.
//
// Parameters:
//   - cal: Family-specific limit ceilings
//   - useLowVoltageBlock: Enables the output-limit safety override that
//     forces the limit to zero while the low-voltage block or a pending
//     full charge is active
func NewClamper(cal Calibration, useLowVoltageBlock bool) *Clamper {
	return &Clamper{cal: cal, useLowVoltageBlock: useLowVoltageBlock}
}

// InputLimit clamps a requested input limit and builds the write
// command.
//
// The request is rounded to the nearest watt. ACE devices accept input
// limits only in 100 W steps, so the value rounds up to the next
// multiple of 100 before the range clamps. Negative values clamp to
// zero, small positive values get a 30 W floor outside the ACE and
// Hyper families, and the family ceiling caps the top end.
//
// Returns:
//   - *Command: The write command, or nil when the clamped value
//     already matches the stored inputLimit (no-op suppression)
//   - error: Always nil; the signature matches the other clampers
func (c *Clamper) InputLimit(fam device.Family, reader StateReader, requested float64) (*Command, error) {
	limit := math.Round(requested)
	ceiling := float64(c.cal.inputCeiling(fam))

	if fam == device.FamilyAce {
		limit = math.Ceil(limit/100) * 100
	}

	switch {
	case limit < 0:
		limit = 0
	case limit > 0 && limit <= 30 && fam != device.FamilyAce && fam != device.FamilyHyper:
		limit = 30
	case limit > ceiling:
		limit = ceiling
	}

	// A stored value that already matches makes the write a no-op. An
	// unknown stored value never suppresses.
	if current, ok := canonicalNumber(reader, "inputLimit"); ok && current == limit {
		return nil, nil
	}
	return single("inputLimit", int(limit)), nil
}

// OutputLimit clamps a requested output limit and builds the write
// command.
//
// The device only honours output limit writes while autoModel is 0
// (manual operation); any other stored mode rejects the request. With
// the low-voltage-block policy enabled, an active control.lowVoltageBlock
// or control.fullChargeNeeded flag forces the limit to zero regardless
// of the request. Below 100 W, families without fine-grained output
// control snap to the 0/30/60/90 step table. The configured ceiling
// caps every family.
//
// Returns:
//   - *Command: The write command, or nil when the clamped value
//     already matches the stored outputLimit (no-op suppression)
//   - error: ErrRejected when autoModel forbids the write
func (c *Clamper) OutputLimit(fam device.Family, reader StateReader, requested float64) (*Command, error) {
	if mode, ok := canonicalNumber(reader, "autoModel"); ok && mode != 0 {
		return nil, fmt.Errorf("%w: autoModel is %v, output limit requires 0", ErrRejected, mode)
	}

	limit := math.Round(requested)

	if c.useLowVoltageBlock {
		if controlTrue(reader, "lowVoltageBlock") || controlTrue(reader, "fullChargeNeeded") {
			limit = 0
		}
	}

	if limit < 0 {
		limit = 0
	}
	if limit < 100 && fam != device.FamilyHyper && fam != device.FamilyAce {
		limit = snapOutputStep(limit)
	}
	if limit > float64(c.cal.OutputCeiling) {
		limit = float64(c.cal.OutputCeiling)
	}

	if current, ok := canonicalNumber(reader, "outputLimit"); ok && current == limit {
		return nil, nil
	}
	return single("outputLimit", int(limit)), nil
}

// snapOutputStep quantizes a sub-100 W output limit to the hub's
// discrete steps. Exact step values pass through unchanged; everything
// else snaps down to the next step, with 30 as the minimum non-zero
// setting.
func snapOutputStep(limit float64) float64 {
	switch {
	case limit == 0 || limit == 30 || limit == 60 || limit == 90:
		return limit
	case limit > 90:
		return 90
	case limit > 60:
		return 60
	case limit > 30:
		return 30
	default:
		return 30
	}
}

// canonicalNumber reads a stored canonical value as a number.
func canonicalNumber(reader StateReader, field string) (float64, bool) {
	v, ok := reader.Canonical(field)
	if !ok {
		return 0, false
	}
	return asNumber(v)
}

// controlTrue reports whether a stored control flag is set.
func controlTrue(reader StateReader, field string) bool {
	v, ok := reader.Control(field)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
