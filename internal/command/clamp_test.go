package command

import (
	"errors"
	"testing"

	"github.com/fluxlink/solarflow-bridge/internal/device"
)

type fakeReader struct {
	canonical map[string]any
	control   map[string]any
}

func (f *fakeReader) Canonical(field string) (any, bool) {
	v, ok := f.canonical[field]
	return v, ok
}

func (f *fakeReader) Control(field string) (any, bool) {
	v, ok := f.control[field]
	return v, ok
}

func testCalibration() Calibration {
	return Calibration{
		InputCeilingDefault: 900,
		InputCeilingHyper:   1200,
		InputCeilingAce:     1800,
		OutputCeiling:       1200,
	}
}

func wantProperty(t *testing.T, cmd *Command, property string, value int) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("command is nil, want %s=%d", property, value)
	}
	got, ok := cmd.Properties[property]
	if !ok {
		t.Fatalf("Properties = %v, want %s present", cmd.Properties, property)
	}
	if got != value {
		t.Errorf("%s = %v, want %d", property, got, value)
	}
}

func TestInputLimitClamping(t *testing.T) {
	tests := []struct {
		name      string
		family    device.Family
		requested float64
		want      int
	}{
		{"generic above ceiling", device.FamilyHub, 1200, 900},
		{"hyper above ceiling", device.FamilyHyper, 1300, 1200},
		{"ace rounds up to 100", device.FamilyAce, 120, 200},
		{"ace exact multiple kept", device.FamilyAce, 300, 300},
		{"ace above ceiling", device.FamilyAce, 1850, 1800},
		{"generic floor of 30", device.FamilyHub, 20, 30},
		{"hyper skips the floor", device.FamilyHyper, 20, 20},
		{"negative clamps to zero", device.FamilyHub, -10, 0},
		{"fractional rounds", device.FamilyHub, 449.6, 450},
		{"in range unchanged", device.FamilyHub, 600, 600},
	}

	clamper := NewClamper(testCalibration(), false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := clamper.InputLimit(tt.family, &fakeReader{}, tt.requested)
			if err != nil {
				t.Fatalf("InputLimit() error: %v", err)
			}
			wantProperty(t, cmd, "inputLimit", tt.want)
		})
	}
}

func TestInputLimitSuppression(t *testing.T) {
	clamper := NewClamper(testCalibration(), false)

	t.Run("matching current suppresses", func(t *testing.T) {
		reader := &fakeReader{canonical: map[string]any{"inputLimit": 700.0}}
		cmd, err := clamper.InputLimit(device.FamilyHub, reader, 700)
		if err != nil {
			t.Fatalf("InputLimit() error: %v", err)
		}
		if cmd != nil {
			t.Errorf("command = %v, want nil for no-op", cmd.Properties)
		}
	})

	t.Run("unknown current always emits", func(t *testing.T) {
		cmd, err := clamper.InputLimit(device.FamilyHub, &fakeReader{}, 700)
		if err != nil {
			t.Fatalf("InputLimit() error: %v", err)
		}
		wantProperty(t, cmd, "inputLimit", 700)
	})

	t.Run("comparison uses the clamped value", func(t *testing.T) {
		// 20 clamps to 30; a stored 30 makes it a no-op.
		reader := &fakeReader{canonical: map[string]any{"inputLimit": 30.0}}
		cmd, err := clamper.InputLimit(device.FamilyHub, reader, 20)
		if err != nil {
			t.Fatalf("InputLimit() error: %v", err)
		}
		if cmd != nil {
			t.Errorf("command = %v, want nil for clamped no-op", cmd.Properties)
		}
	})
}

func TestOutputLimitSnapping(t *testing.T) {
	tests := []struct {
		name      string
		family    device.Family
		requested float64
		want      int
	}{
		{"snap 95 to 90", device.FamilyHub, 95, 90},
		{"snap 75 to 60", device.FamilyHub, 75, 60},
		{"snap 45 to 30", device.FamilyHub, 45, 30},
		{"snap 10 up to 30", device.FamilyHub, 10, 30},
		{"exact 0 kept", device.FamilyHub, 0, 0},
		{"exact 30 kept", device.FamilyHub, 30, 30},
		{"exact 60 kept", device.FamilyHub, 60, 60},
		{"exact 90 kept", device.FamilyHub, 90, 90},
		{"at or above 100 unsnapped", device.FamilyHub, 150, 150},
		{"hyper bypasses snapping", device.FamilyHyper, 45, 45},
		{"ace bypasses snapping", device.FamilyAce, 45, 45},
		{"negative clamps to zero", device.FamilyHub, -20, 0},
		{"ceiling caps every family", device.FamilyHyper, 1500, 1200},
	}

	clamper := NewClamper(testCalibration(), false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := clamper.OutputLimit(tt.family, &fakeReader{}, tt.requested)
			if err != nil {
				t.Fatalf("OutputLimit() error: %v", err)
			}
			wantProperty(t, cmd, "outputLimit", tt.want)
		})
	}
}

func TestOutputLimitAutoModelGate(t *testing.T) {
	clamper := NewClamper(testCalibration(), false)

	t.Run("nonzero autoModel rejects", func(t *testing.T) {
		reader := &fakeReader{canonical: map[string]any{"autoModel": 8.0}}
		_, err := clamper.OutputLimit(device.FamilyHub, reader, 200)
		if !errors.Is(err, ErrRejected) {
			t.Errorf("error = %v, want ErrRejected", err)
		}
	})

	t.Run("zero autoModel proceeds", func(t *testing.T) {
		reader := &fakeReader{canonical: map[string]any{"autoModel": 0.0}}
		cmd, err := clamper.OutputLimit(device.FamilyHub, reader, 200)
		if err != nil {
			t.Fatalf("OutputLimit() error: %v", err)
		}
		wantProperty(t, cmd, "outputLimit", 200)
	})

	t.Run("unknown autoModel proceeds", func(t *testing.T) {
		cmd, err := clamper.OutputLimit(device.FamilyHub, &fakeReader{}, 200)
		if err != nil {
			t.Fatalf("OutputLimit() error: %v", err)
		}
		wantProperty(t, cmd, "outputLimit", 200)
	})
}

func TestOutputLimitLowVoltageOverride(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		control map[string]any
		want    int
	}{
		{"block flag forces zero", true, map[string]any{"lowVoltageBlock": true}, 0},
		{"full charge flag forces zero", true, map[string]any{"fullChargeNeeded": true}, 0},
		{"flags false leave request", true, map[string]any{"lowVoltageBlock": false, "fullChargeNeeded": false}, 300},
		{"policy disabled ignores flags", false, map[string]any{"lowVoltageBlock": true}, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clamper := NewClamper(testCalibration(), tt.enabled)
			reader := &fakeReader{control: tt.control}
			cmd, err := clamper.OutputLimit(device.FamilyHub, reader, 300)
			if err != nil {
				t.Fatalf("OutputLimit() error: %v", err)
			}
			wantProperty(t, cmd, "outputLimit", tt.want)
		})
	}
}

func TestOutputLimitSuppression(t *testing.T) {
	clamper := NewClamper(testCalibration(), false)
	reader := &fakeReader{canonical: map[string]any{"outputLimit": 90.0}}

	// 95 snaps to 90, matching the stored value.
	cmd, err := clamper.OutputLimit(device.FamilyHub, reader, 95)
	if err != nil {
		t.Fatalf("OutputLimit() error: %v", err)
	}
	if cmd != nil {
		t.Errorf("command = %v, want nil for clamped no-op", cmd.Properties)
	}
}
