package telemetry

// Unit conversions and enum decodings for raw vendor telemetry.
//
// The vendor wire format mixes scales: temperatures arrive in
// deci-Kelvin, voltages in centivolts, currents and SOC setpoints in
// tenths. Canonical values are degrees Celsius, volts, amps, and plain
// percent.

// deciKelvinToCelsius converts a deci-Kelvin reading to Celsius.
func deciKelvinToCelsius(v float64) float64 {
	return v/10 - 273.15
}

// centiToUnit converts a centi-scaled reading (e.g. centivolts) to base units.
func centiToUnit(v float64) float64 {
	return v / 100
}

// deciToUnit converts a deci-scaled reading to base units.
func deciToUnit(v float64) float64 {
	return v / 10
}

// numToBool decodes the vendor's numeric booleans: zero is false,
// anything else is true.
func numToBool(v float64) bool {
	return v != 0
}

// packStateName decodes the battery pack operating state.
func packStateName(v float64) string {
	switch v {
	case 0:
		return "Idle"
	case 1:
		return "Charging"
	case 2:
		return "Discharging"
	default:
		return "Unknown"
	}
}

// passModeName decodes the AC bypass mode.
func passModeName(v float64) string {
	switch v {
	case 0:
		return "Automatic"
	case 1:
		return "Always off"
	case 2:
		return "Always on"
	default:
		return "Unknown"
	}
}

// pvBrandName decodes the configured inverter brand.
func pvBrandName(v float64) string {
	switch v {
	case 0:
		return "Others"
	case 1:
		return "Hoymiles"
	case 2:
		return "Enphase"
	case 3:
		return "APSystems"
	case 4:
		return "Anker"
	case 5:
		return "Deye"
	case 6:
		return "Bosswerk"
	default:
		return "Unknown"
	}
}

// wifiStateName decodes an explicit wifiState report.
func wifiStateName(v float64) string {
	if v == 1 {
		return "Connected"
	}
	return "Disconnected"
}

// asNumber extracts a float64 from a decoded JSON value.
func asNumber(v any) (float64, bool) {
	n, ok := v.(float64)
	return n, ok
}
