package telemetry

import (
	"math"
	"testing"
)

func packValues(res *PackResult, serial string) map[string]float64 {
	out := make(map[string]float64)
	for _, u := range res.Updates {
		if u.Serial == serial {
			out[u.Field] = u.Value
		}
	}
	return out
}

func TestNormalizePacksConversions(t *testing.T) {
	res := NormalizePacks(hubDevice(), []map[string]any{
		{
			"sn":       "AO4E123456",
			"socLevel": 87.0,
			"maxTemp":  3031.5,
			"minVol":   320.0,
			"maxVol":   340.0,
			"totalVol": 4850.0,
			"soh":      995.0,
			"batcur":   -25.0,
		},
	})

	got := packValues(res, "AO4E123456")
	tests := map[string]float64{
		"socLevel": 87.0,
		"maxTemp":  30.0,
		"minVol":   3.2,
		"maxVol":   3.4,
		"totalVol": 48.5,
		"soh":      99.5,
		"batcur":   -2.5,
	}
	for field, want := range tests {
		if math.Abs(got[field]-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", field, got[field], want)
		}
	}

	if len(res.Serials) != 1 || res.Serials[0] != "AO4E123456" {
		t.Errorf("Serials = %v, want [AO4E123456]", res.Serials)
	}
}

func TestNormalizePacksSkipsEntriesWithoutSerial(t *testing.T) {
	res := NormalizePacks(hubDevice(), []map[string]any{
		{"socLevel": 50.0},
		{"sn": "", "socLevel": 51.0},
		{"sn": "CO4H123456", "socLevel": 52.0},
	})

	if len(res.Serials) != 1 {
		t.Fatalf("Serials = %v, want exactly one", res.Serials)
	}
	if len(res.Updates) != 1 || res.Updates[0].Serial != "CO4H123456" {
		t.Errorf("Updates = %v, want only CO4H123456", res.Updates)
	}
}

func TestNormalizePacksVoltageHook(t *testing.T) {
	t.Run("solarflow device emits hook", func(t *testing.T) {
		res := NormalizePacks(hubDevice(), []map[string]any{
			{"sn": "AO4E123456", "totalVol": 4650.0},
		})
		if len(res.Hooks) != 1 || res.Hooks[0].Kind != HookVoltageCheck {
			t.Fatalf("hooks = %v, want one HookVoltageCheck", res.Hooks)
		}
		if math.Abs(res.Hooks[0].Value-46.5) > 1e-9 {
			t.Errorf("hook voltage = %v, want 46.5", res.Hooks[0].Value)
		}
	})

	t.Run("plain ace emits no hook", func(t *testing.T) {
		dev := Device{ProductKey: "8bM93H", DeviceKey: "ace1", ProductName: "ACE 1500"}
		res := NormalizePacks(dev, []map[string]any{
			{"sn": "AO4E123456", "totalVol": 4650.0},
		})
		if len(res.Hooks) != 0 {
			t.Errorf("hooks = %v, want none", res.Hooks)
		}
	})
}

func TestNormalizePacksUnknownProperties(t *testing.T) {
	res := NormalizePacks(hubDevice(), []map[string]any{
		{"sn": "AO4E123456", "socLevel": 80.0, "weirdField": 1.0},
	})

	if len(res.Diagnostics) != 1 || res.Diagnostics[0] != "AO4E123456/weirdField" {
		t.Errorf("diagnostics = %v, want [AO4E123456/weirdField]", res.Diagnostics)
	}
	// The known field still processed.
	if len(res.Updates) != 1 {
		t.Errorf("Updates = %v, want socLevel update", res.Updates)
	}
}

func TestNormalizePacksMultiplePacks(t *testing.T) {
	res := NormalizePacks(hubDevice(), []map[string]any{
		{"sn": "AO4E111111", "socLevel": 80.0},
		{"sn": "CO4F222222", "socLevel": 70.0},
	})

	if len(res.Serials) != 2 {
		t.Fatalf("Serials = %v, want 2", res.Serials)
	}
	if packValues(res, "AO4E111111")["socLevel"] != 80.0 {
		t.Error("first pack socLevel wrong")
	}
	if packValues(res, "CO4F222222")["socLevel"] != 70.0 {
		t.Error("second pack socLevel wrong")
	}
}
