package command

import "fmt"

// Toggle properties the devices accept as plain 0/1 writes. Toggles
// carry no range validation and are always emitted; devices tolerate
// redundant resends and the apps rely on that.
const (
	ToggleBuzzer      = "buzzerSwitch"
	ToggleAutoRecover = "autoRecover"
	ToggleACSwitch    = "acSwitch"
	ToggleDCSwitch    = "dcSwitch"
)

var toggleProperties = map[string]bool{
	ToggleBuzzer:      true,
	ToggleAutoRecover: true,
	ToggleACSwitch:    true,
	ToggleDCSwitch:    true,
}

// ChargeLimit builds the write setting the charge ceiling.
//
// The device stores the ceiling in tenths of a percent under socSet.
// Accepted range is 40 to 100 percent; the vendor firmware misbehaves
// below 40.
func ChargeLimit(percent float64) (*Command, error) {
	if percent < 40 || percent > 100 {
		return nil, fmt.Errorf("%w: charge limit %v%% outside [40,100]", ErrValidation, percent)
	}
	return single("socSet", int(percent*10)), nil
}

// DischargeLimit builds the write setting the discharge floor.
//
// Stored in tenths of a percent under minSoc. Accepted range is 0 to
// 50 percent.
func DischargeLimit(percent float64) (*Command, error) {
	if percent < 0 || percent > 50 {
		return nil, fmt.Errorf("%w: discharge limit %v%% outside [0,50]", ErrValidation, percent)
	}
	return single("minSoc", int(percent*10)), nil
}

// HubState builds the write selecting the hub's behaviour at the
// discharge floor: 0 keeps standby, 1 powers off.
func HubState(state int) (*Command, error) {
	if state != 0 && state != 1 {
		return nil, fmt.Errorf("%w: hubState %d not in {0,1}", ErrValidation, state)
	}
	return single("hubState", state), nil
}

// ACMode builds the write selecting the AC mode: 0 off, 1 input,
// 2 output.
func ACMode(mode int) (*Command, error) {
	if mode < 0 || mode > 2 {
		return nil, fmt.Errorf("%w: acMode %d not in {0,1,2}", ErrValidation, mode)
	}
	return single("acMode", mode), nil
}

// Toggle builds the write for a boolean switch property.
func Toggle(property string, on bool) (*Command, error) {
	if !toggleProperties[property] {
		return nil, fmt.Errorf("%w: %q is not a toggle property", ErrValidation, property)
	}
	value := 0
	if on {
		value = 1
	}
	return single(property, value), nil
}

// AutoModel builds the write selecting the operation mode.
//
// Modes 8 (smart matching) and 9 (smart CT) need a multi-property
// payload carrying a program id and a zeroed charging descriptor; the
// device ignores a bare autoModel write for those. Every other mode is
// a plain write.
func AutoModel(mode int) *Command {
	switch mode {
	case 8:
		return &Command{Properties: map[string]any{
			"autoModelProgram": 1,
			"autoModelValue":   map[string]any{"chargingType": 0, "chargingPower": 0, "outPower": 0},
			"msgType":          1,
			"autoModel":        8,
		}}
	case 9:
		return &Command{Properties: map[string]any{
			"autoModelProgram": 2,
			"autoModelValue":   map[string]any{"chargingType": 3, "chargingPower": 0, "outPower": 0},
			"msgType":          1,
			"autoModel":        9,
		}}
	}
	return single("autoModel", mode)
}

// PassMode builds the write selecting the bypass mode. The device
// validates the value itself; unknown modes are simply ignored by the
// firmware.
func PassMode(mode int) *Command {
	return single("passMode", mode)
}
