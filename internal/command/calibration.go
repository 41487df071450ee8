package command

import (
	"github.com/fluxlink/solarflow-bridge/internal/device"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/config"
)

// Calibration holds the per-family limit ceilings.
//
// The values are inferred from vendor app behaviour rather than device
// documentation, so they arrive from configuration instead of being
// compiled in.
type Calibration struct {
	// InputCeilingDefault caps the input limit for hubs, AIOs and
	// anything unclassified.
	InputCeilingDefault int

	// InputCeilingHyper caps the input limit for Hyper devices.
	InputCeilingHyper int

	// InputCeilingAce caps the input limit for ACE devices.
	InputCeilingAce int

	// OutputCeiling caps the output limit for every family.
	OutputCeiling int
}

// NewCalibration builds a Calibration from configuration.
func NewCalibration(cfg config.CalibrationConfig) Calibration {
	return Calibration{
		InputCeilingDefault: cfg.InputCeilingDefault,
		InputCeilingHyper:   cfg.InputCeilingHyper,
		InputCeilingAce:     cfg.InputCeilingAce,
		OutputCeiling:       cfg.OutputCeiling,
	}
}

// inputCeiling returns the input-limit cap for a family.
func (c Calibration) inputCeiling(fam device.Family) int {
	switch fam {
	case device.FamilyHyper:
		return c.InputCeilingHyper
	case device.FamilyAce:
		return c.InputCeilingAce
	}
	return c.InputCeilingDefault
}
