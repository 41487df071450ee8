package telemetry

import (
	"math"
	"testing"
)

// fakeReader is an in-memory StateReader for tests.
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

func emptyReader() *fakeReader {
	return &fakeReader{canonical: map[string]any{}, control: map[string]any{}}
}

func hubDevice() Device {
	return Device{ProductKey: "73bkTV", DeviceKey: "abc123", ProductName: "SolarFlow 800"}
}

// finalUpdates applies ordered updates so later entries win, mirroring
// how the pipeline writes them to the store.
func finalUpdates(updates []Update) map[string]any {
	out := make(map[string]any)
	for _, u := range updates {
		out[u.Field] = u.Value
	}
	return out
}

func approx(t *testing.T, got any, want float64) {
	t.Helper()
	n, ok := got.(float64)
	if !ok {
		t.Fatalf("value = %v (%T), want float64", got, got)
	}
	if math.Abs(n-want) > 1e-9 {
		t.Errorf("value = %v, want %v", n, want)
	}
}

func normalize(t *testing.T, dev Device, reader StateReader, props map[string]any) *Result {
	t.Helper()
	n := &Normalizer{UseCalculation: true}
	return n.Normalize(dev, reader, &Message{Properties: props})
}

func TestNormalizeUnitConversions(t *testing.T) {
	res := normalize(t, hubDevice(), emptyReader(), map[string]any{
		"hyperTmp": 3031.5,
		"socSet":   850.0,
		"minSoc":   100.0,
		"power":    255.0,
	})

	got := finalUpdates(res.Updates)
	approx(t, got["hyperTmp"], 30.0)
	approx(t, got["socSet"], 85.0)
	approx(t, got["minSoc"], 10.0)
	approx(t, got["power"], 25.5)

	ctrl := finalUpdates(res.Control)
	approx(t, ctrl["chargeLimit"], 85.0)
	approx(t, ctrl["dischargeLimit"], 10.0)
}

func TestNormalizeBooleans(t *testing.T) {
	res := normalize(t, hubDevice(), emptyReader(), map[string]any{
		"heatState":    0.0,
		"pass":         1.0,
		"acSwitch":     1.0,
		"dcSwitch":     0.0,
		"buzzerSwitch": 2.0, // non-zero decodes true
		"autoRecover":  1.0,
	})

	got := finalUpdates(res.Updates)
	want := map[string]bool{
		"heatState":    false,
		"pass":         true,
		"acSwitch":     true,
		"dcSwitch":     false,
		"buzzerSwitch": true,
		"autoRecover":  true,
	}
	for field, wantVal := range want {
		if got[field] != wantVal {
			t.Errorf("%s = %v, want %v", field, got[field], wantVal)
		}
	}

	// Switches and toggles mirror to control, plain sensors do not.
	ctrl := finalUpdates(res.Control)
	for _, mirrored := range []string{"acSwitch", "dcSwitch", "buzzerSwitch", "autoRecover"} {
		if _, ok := ctrl[mirrored]; !ok {
			t.Errorf("%s missing from control mirror", mirrored)
		}
	}
	for _, plain := range []string{"heatState", "pass"} {
		if _, ok := ctrl[plain]; ok {
			t.Errorf("%s unexpectedly mirrored to control", plain)
		}
	}
}

func TestNormalizeEnums(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		field string
		want  string
	}{
		{"packState idle", map[string]any{"packState": 0.0}, "packState", "Idle"},
		{"packState charging", map[string]any{"packState": 1.0}, "packState", "Charging"},
		{"packState discharging", map[string]any{"packState": 2.0}, "packState", "Discharging"},
		{"packState unknown", map[string]any{"packState": 9.0}, "packState", "Unknown"},
		{"passMode automatic", map[string]any{"passMode": 0.0}, "passMode", "Automatic"},
		{"passMode always off", map[string]any{"passMode": 1.0}, "passMode", "Always off"},
		{"passMode always on", map[string]any{"passMode": 2.0}, "passMode", "Always on"},
		{"pvBrand deye", map[string]any{"pvBrand": 5.0}, "pvBrand", "Deye"},
		{"pvBrand out of range", map[string]any{"pvBrand": 42.0}, "pvBrand", "Unknown"},
		{"wifi connected", map[string]any{"wifiState": 1.0}, "wifiState", "Connected"},
		{"wifi disconnected", map[string]any{"wifiState": 0.0}, "wifiState", "Disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := normalize(t, hubDevice(), emptyReader(), tt.props)
			got := finalUpdates(res.Updates)
			if got[tt.field] != tt.want {
				t.Errorf("%s = %v, want %q", tt.field, got[tt.field], tt.want)
			}
		})
	}
}

func TestNormalizePassModeMirrorsRawValue(t *testing.T) {
	res := normalize(t, hubDevice(), emptyReader(), map[string]any{"passMode": 2.0})

	ctrl := finalUpdates(res.Control)
	approx(t, ctrl["passMode"], 2.0)
}

func TestNormalizePVChannelSwap(t *testing.T) {
	res := normalize(t, hubDevice(), emptyReader(), map[string]any{
		"pvPower1": 110.0,
		"pvPower2": 220.0,
		"pvPower3": 330.0,
		"pvPower4": 440.0,
	})

	got := finalUpdates(res.Updates)
	approx(t, got["pvPower1"], 220.0)
	approx(t, got["pvPower2"], 110.0)
	approx(t, got["pvPower3"], 440.0)
	approx(t, got["pvPower4"], 330.0)
}

func TestNormalizeSolarPowerWinsOverSwappedPV(t *testing.T) {
	// Both sources in one message target pvPower1; solarPower1 runs
	// later and must win.
	res := normalize(t, hubDevice(), emptyReader(), map[string]any{
		"pvPower2":    50.0,
		"solarPower1": 70.0,
	})

	got := finalUpdates(res.Updates)
	approx(t, got["pvPower1"], 70.0)
}

func TestNormalizePackPowerMutualExclusion(t *testing.T) {
	t.Run("discharge zeroes charge", func(t *testing.T) {
		res := normalize(t, hubDevice(), emptyReader(), map[string]any{"outputPackPower": 120.0})
		got := finalUpdates(res.Updates)
		approx(t, got["outputPackPower"], 120.0)
		approx(t, got["packInputPower"], 0.0)
	})

	t.Run("charge zeroes discharge", func(t *testing.T) {
		reader := emptyReader()
		reader.canonical["solarInputPower"] = 500.0
		res := normalize(t, hubDevice(), reader, map[string]any{"packInputPower": 250.0})
		got := finalUpdates(res.Updates)
		approx(t, got["packInputPower"], 250.0)
		approx(t, got["outputPackPower"], 0.0)
	})
}

func TestNormalizePackInputPowerStandbyCompensation(t *testing.T) {
	tests := []struct {
		name      string
		solar     any // nil means unset
		withAce   bool
		raw       float64
		wantTotal float64
	}{
		{"dark adds hub standby", 4.0, false, 100.0, 103.0},
		{"fully dark", 0.0, false, 100.0, 107.0},
		{"producing no compensation", 500.0, false, 100.0, 100.0},
		{"boundary at ten", 10.0, false, 100.0, 100.0},
		{"solar unknown", nil, false, 100.0, 100.0},
		{"ace adds more", 4.0, true, 100.0, 110.0},
		{"ace alone", 500.0, true, 100.0, 107.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := emptyReader()
			if tt.solar != nil {
				reader.canonical["solarInputPower"] = tt.solar
			}
			dev := hubDevice()
			dev.ConnectedWithAce = tt.withAce

			res := normalize(t, dev, reader, map[string]any{"packInputPower": tt.raw})
			got := finalUpdates(res.Updates)
			approx(t, got["packInputPower"], tt.wantTotal)
		})
	}
}

func TestNormalizeInputLimitMirror(t *testing.T) {
	tests := []struct {
		name        string
		productName string
		wantMirror  bool
	}{
		{"solarflow hub", "SolarFlow 800", true},
		{"ace", "ACE 1500", true},
		{"hyper", "Hyper 2000", true},
		{"smart plug", "Smart Plug", false},
		{"unknown product", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := hubDevice()
			dev.ProductName = tt.productName

			res := normalize(t, dev, emptyReader(), map[string]any{"inputLimit": 600.0})

			got := finalUpdates(res.Updates)
			approx(t, got["inputLimit"], 600.0)

			ctrl := finalUpdates(res.Control)
			_, mirrored := ctrl["setInputLimit"]
			if mirrored != tt.wantMirror {
				t.Errorf("setInputLimit mirrored = %v, want %v", mirrored, tt.wantMirror)
			}
		})
	}
}

func TestNormalizeOutputLimitAlwaysMirrors(t *testing.T) {
	res := normalize(t, hubDevice(), emptyReader(), map[string]any{"outputLimit": 300.0})

	ctrl := finalUpdates(res.Control)
	approx(t, ctrl["setOutputLimit"], 300.0)
}

func TestNormalizeGridPowerAlias(t *testing.T) {
	res := normalize(t, hubDevice(), emptyReader(), map[string]any{"gridPower": 180.0})

	got := finalUpdates(res.Updates)
	approx(t, got["gridInputPower"], 180.0)
}

func TestNormalizeElectricLevelFullBattery(t *testing.T) {
	reader := emptyReader()
	reader.control["fullChargeNeeded"] = true

	res := normalize(t, hubDevice(), reader, map[string]any{"electricLevel": 100.0})

	if len(res.Hooks) != 1 || res.Hooks[0].Kind != HookEnergyMaxCapture {
		t.Errorf("hooks = %v, want one HookEnergyMaxCapture", res.Hooks)
	}

	ctrl := finalUpdates(res.Control)
	if ctrl["fullChargeNeeded"] != false {
		t.Errorf("fullChargeNeeded = %v, want false", ctrl["fullChargeNeeded"])
	}
}

func TestNormalizeElectricLevelFullWithoutPendingFlag(t *testing.T) {
	res := normalize(t, hubDevice(), emptyReader(), map[string]any{"electricLevel": 100.0})

	ctrl := finalUpdates(res.Control)
	if _, ok := ctrl["fullChargeNeeded"]; ok {
		t.Error("fullChargeNeeded written although it was not pending")
	}
}

func TestNormalizeElectricLevelAtDischargeFloor(t *testing.T) {
	reader := emptyReader()
	reader.canonical["minSoc"] = 10.0

	res := normalize(t, hubDevice(), reader, map[string]any{"electricLevel": 10.0})

	if len(res.Hooks) != 1 || res.Hooks[0].Kind != HookResetSocToZero {
		t.Errorf("hooks = %v, want one HookResetSocToZero", res.Hooks)
	}
}

func TestNormalizeElectricLevelHooksSuppressed(t *testing.T) {
	t.Run("calculation disabled", func(t *testing.T) {
		n := &Normalizer{UseCalculation: false}
		reader := emptyReader()
		reader.canonical["minSoc"] = 10.0

		res := n.Normalize(hubDevice(), reader, &Message{Properties: map[string]any{"electricLevel": 100.0}})
		if len(res.Hooks) != 0 {
			t.Errorf("hooks = %v, want none with calculation disabled", res.Hooks)
		}
	})

	t.Run("plain ace is not solar capable", func(t *testing.T) {
		dev := Device{ProductKey: "8bM93H", DeviceKey: "ace1", ProductName: "ACE 1500"}
		res := normalize(t, dev, emptyReader(), map[string]any{"electricLevel": 100.0})
		if len(res.Hooks) != 0 {
			t.Errorf("hooks = %v, want none for plain ACE", res.Hooks)
		}
	})
}

func TestNormalizeUnknownPropertiesAreDiagnostics(t *testing.T) {
	res := normalize(t, hubDevice(), emptyReader(), map[string]any{
		"solarInputPower": 200.0,
		"mysteryField":    1.0,
		"anotherOddity":   "x",
	})

	if len(res.Diagnostics) != 2 {
		t.Fatalf("diagnostics = %v, want 2 entries", res.Diagnostics)
	}
	if res.Diagnostics[0] != "anotherOddity" || res.Diagnostics[1] != "mysteryField" {
		t.Errorf("diagnostics = %v, want sorted unknown keys", res.Diagnostics)
	}

	got := finalUpdates(res.Updates)
	approx(t, got["solarInputPower"], 200.0)
}

func TestNormalizeEmptyMessage(t *testing.T) {
	n := &Normalizer{}
	res := n.Normalize(hubDevice(), emptyReader(), &Message{})
	if len(res.Updates) != 0 || len(res.Control) != 0 || len(res.Hooks) != 0 {
		t.Errorf("empty message produced output: %+v", res)
	}
}
