package telemetry

import (
	"fmt"
	"sort"

	"github.com/fluxlink/solarflow-bridge/internal/device"
)

// PackUpdate is a normalized value for one battery pack.
type PackUpdate struct {
	Serial string
	Field  string
	Value  float64
}

// PackResult is the outcome of normalizing a packData block.
type PackResult struct {
	// Updates are normalized pack values, grouped by serial in input order.
	Updates []PackUpdate

	// Serials lists every pack serial seen, in input order, for
	// idempotent pack registration.
	Serials []string

	// Hooks carries voltage supervision requests (one per totalVol
	// reading on solarflow-like devices).
	Hooks []Hook

	// Diagnostics names unknown pack properties.
	Diagnostics []string
}

// packFieldConversions maps raw pack properties to their canonical
// conversion. socLevel is already plain percent.
var packFieldConversions = map[string]func(float64) float64{
	"socLevel": func(v float64) float64 { return v },
	"maxTemp":  deciKelvinToCelsius,
	"minVol":   centiToUnit,
	"maxVol":   centiToUnit,
	"totalVol": centiToUnit,
	"soh":      deciToUnit,
	"batcur":   deciToUnit,
}

// packFieldOrder fixes the output order per pack.
var packFieldOrder = []string{"socLevel", "maxTemp", "minVol", "maxVol", "totalVol", "soh", "batcur"}

// NormalizePacks converts a raw packData block into per-pack updates.
//
// Entries without a serial number are skipped entirely. Each totalVol
// reading on a solarflow-like device emits a HookVoltageCheck so the
// voltage supervisor can react. Unknown pack properties are reported
// as diagnostics.
func NormalizePacks(dev Device, packs []map[string]any) *PackResult {
	res := &PackResult{}
	solar := device.IsSolarflowLike(dev.ProductKey, dev.ProductName)

	for _, pack := range packs {
		serial, _ := pack["sn"].(string)
		if serial == "" {
			continue
		}
		res.Serials = append(res.Serials, serial)

		for _, field := range packFieldOrder {
			raw, present := pack[field]
			if !present {
				continue
			}
			v, ok := asNumber(raw)
			if !ok {
				res.Diagnostics = append(res.Diagnostics,
					fmt.Sprintf("%s/%s: non-numeric value %v", serial, field, raw))
				continue
			}

			converted := packFieldConversions[field](v)
			res.Updates = append(res.Updates, PackUpdate{
				Serial: serial,
				Field:  field,
				Value:  converted,
			})

			if field == "totalVol" && solar {
				res.hook(HookVoltageCheck, converted)
			}
		}

		var unknown []string
		for key := range pack {
			if key == "sn" {
				continue
			}
			if _, known := packFieldConversions[key]; !known {
				unknown = append(unknown, fmt.Sprintf("%s/%s", serial, key))
			}
		}
		sort.Strings(unknown)
		res.Diagnostics = append(res.Diagnostics, unknown...)
	}

	return res
}

func (r *PackResult) hook(kind HookKind, value float64) {
	r.Hooks = append(r.Hooks, Hook{Kind: kind, Value: value})
}
