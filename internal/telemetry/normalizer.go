package telemetry

import (
	"fmt"
	"sort"

	"github.com/fluxlink/solarflow-bridge/internal/device"
)

// Normalizer converts raw vendor telemetry into canonical state updates
// and control mirror updates.
//
// Rules run in a fixed order, so overlapping sources for the same
// canonical field resolve deterministically: the solarPowerN mappings
// run after the swapped pvPowerN mappings and win when both appear in
// one message.
//
// Unknown properties are reported as diagnostics, never errors. A
// malformed message affects only itself.
type Normalizer struct {
	// UseCalculation enables the energy-max-capture and
	// reset-soc-to-zero hooks driven by electricLevel.
	UseCalculation bool
}

// Normalize processes one decoded message for a device.
//
// Parameters:
//   - dev: Device context (keys, product name, ACE coupling)
//   - reader: Stored state as of before this message
//   - msg: The decoded payload
//
// Returns:
//   - *Result: Ordered updates, control mirrors, hooks, and diagnostics
func (n *Normalizer) Normalize(dev Device, reader StateReader, msg *Message) *Result {
	res := &Result{}
	if msg == nil || msg.Properties == nil {
		return res
	}

	ctx := &ruleCtx{n: n, dev: dev, reader: reader, res: res}

	for _, r := range rules {
		raw, present := msg.Properties[r.key]
		if !present {
			continue
		}
		v, ok := asNumber(raw)
		if !ok {
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("%s: non-numeric value %v", r.key, raw))
			continue
		}
		r.apply(ctx, v)
	}

	for key := range msg.Properties {
		if _, known := knownProperties[key]; !known {
			res.Diagnostics = append(res.Diagnostics, key)
		}
	}
	sort.Strings(res.Diagnostics)

	return res
}

// ruleCtx bundles the per-message context rules operate on.
type ruleCtx struct {
	n      *Normalizer
	dev    Device
	reader StateReader
	res    *Result
}

// storedNumber reads a stored canonical number, false if unset or
// non-numeric.
func (c *ruleCtx) storedNumber(field string) (float64, bool) {
	v, ok := c.reader.Canonical(field)
	if !ok {
		return 0, false
	}
	return asNumber(v)
}

// controlBool reads a stored control boolean, false if unset.
func (c *ruleCtx) controlBool(field string) bool {
	v, ok := c.reader.Control(field)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

type rule struct {
	key   string
	apply func(c *ruleCtx, v float64)
}

// passthrough stores the raw value under the given canonical field.
func passthrough(field string) func(*ruleCtx, float64) {
	return func(c *ruleCtx, v float64) { c.res.update(field, v) }
}

// scaled stores a converted value under the field.
func scaled(field string, convert func(float64) float64) func(*ruleCtx, float64) {
	return func(c *ruleCtx, v float64) { c.res.update(field, convert(v)) }
}

// boolean stores the decoded boolean, optionally mirrored to control.
func boolean(field string, mirror bool) func(*ruleCtx, float64) {
	return func(c *ruleCtx, v float64) {
		b := numToBool(v)
		c.res.update(field, b)
		if mirror {
			c.res.control(field, b)
		}
	}
}

// enum stores the decoded enum name under the field.
func enum(field string, decode func(float64) string) func(*ruleCtx, float64) {
	return func(c *ruleCtx, v float64) { c.res.update(field, decode(v)) }
}

// rules is the ordered rule table. Order carries semantics for the
// pvPowerN/solarPowerN overlap and must not be re-sorted.
var rules = []rule{
	{"autoModel", func(c *ruleCtx, v float64) {
		c.res.update("autoModel", v)
		c.res.control("autoModel", v)
	}},
	{"heatState", boolean("heatState", false)},
	{"electricLevel", applyElectricLevel},
	{"power", scaled("power", deciToUnit)},
	{"packState", enum("packState", packStateName)},
	{"passMode", func(c *ruleCtx, v float64) {
		c.res.update("passMode", passModeName(v))
		// Control keeps the raw mode so it can be written back as-is.
		c.res.control("passMode", v)
	}},
	{"pass", boolean("pass", false)},
	{"autoRecover", boolean("autoRecover", true)},
	{"outputHomePower", passthrough("outputHomePower")},
	{"energyPower", passthrough("energyPower")},
	{"outputLimit", func(c *ruleCtx, v float64) {
		c.res.update("outputLimit", v)
		c.res.control("setOutputLimit", v)
	}},
	{"buzzerSwitch", boolean("buzzerSwitch", true)},
	{"outputPackPower", func(c *ruleCtx, v float64) {
		// Charge and discharge power are mutually exclusive; a report
		// of one zeroes the other.
		c.res.update("outputPackPower", v)
		c.res.update("packInputPower", 0.0)
	}},
	{"packInputPower", applyPackInputPower},
	{"solarInputPower", passthrough("solarInputPower")},
	// The vendor reports pvPower1/pvPower2 (and 3/4) swapped relative
	// to the physical inputs.
	{"pvPower1", passthrough("pvPower2")},
	{"pvPower2", passthrough("pvPower1")},
	{"pvPower3", passthrough("pvPower4")},
	{"pvPower4", passthrough("pvPower3")},
	// solarPowerN maps directly and, running later, wins over pvPowerN.
	{"solarPower1", passthrough("pvPower1")},
	{"solarPower2", passthrough("pvPower2")},
	{"solarPower3", passthrough("pvPower3")},
	{"solarPower4", passthrough("pvPower4")},
	{"remainOutTime", passthrough("remainOutTime")},
	{"remainInputTime", passthrough("remainInputTime")},
	{"socSet", func(c *ruleCtx, v float64) {
		c.res.update("socSet", deciToUnit(v))
		c.res.control("chargeLimit", deciToUnit(v))
	}},
	{"minSoc", func(c *ruleCtx, v float64) {
		c.res.update("minSoc", deciToUnit(v))
		c.res.control("dischargeLimit", deciToUnit(v))
	}},
	{"inputLimit", func(c *ruleCtx, v float64) {
		c.res.update("inputLimit", v)
		if device.MirrorsInputLimit(c.dev.ProductName) {
			c.res.control("setInputLimit", v)
		}
	}},
	{"gridInputPower", passthrough("gridInputPower")},
	{"acMode", func(c *ruleCtx, v float64) {
		c.res.update("acMode", v)
		c.res.control("acMode", v)
	}},
	{"hyperTmp", scaled("hyperTmp", deciKelvinToCelsius)},
	{"acOutputPower", passthrough("acOutputPower")},
	// gridPower is an alias the vendor uses interchangeably.
	{"gridPower", passthrough("gridInputPower")},
	{"acSwitch", boolean("acSwitch", true)},
	{"dcSwitch", boolean("dcSwitch", true)},
	{"dcOutputPower", passthrough("dcOutputPower")},
	{"pvBrand", enum("pvBrand", pvBrandName)},
	{"inverseMaxPower", passthrough("inverseMaxPower")},
	{"wifiState", enum("wifiState", wifiStateName)},
	{"packNum", passthrough("packNum")},
	{"hubState", func(c *ruleCtx, v float64) {
		c.res.update("hubState", v)
		c.res.control("hubState", v)
	}},
}

// knownProperties indexes the rule table for diagnostics.
var knownProperties = func() map[string]struct{} {
	m := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		m[r.key] = struct{}{}
	}
	return m
}()

// applyElectricLevel handles the battery SOC report and its side
// effects: full-battery bookkeeping and the drained-to-floor reset.
func applyElectricLevel(c *ruleCtx, v float64) {
	c.res.update("electricLevel", v)

	solar := device.IsSolarflowLike(c.dev.ProductKey, c.dev.ProductName)

	if v == 100 {
		if c.n.UseCalculation && solar {
			c.res.hook(HookEnergyMaxCapture, v)
		}
		if c.controlBool("fullChargeNeeded") {
			c.res.control("fullChargeNeeded", false)
		}
	}

	if c.n.UseCalculation && solar {
		if minSoc, ok := c.storedNumber("minSoc"); ok && v == minSoc {
			c.res.hook(HookResetSocToZero, v)
		}
	}
}

// applyPackInputPower handles battery charge power with standby
// compensation.
//
// When solar input is near zero the hub draws roughly 7 W for itself
// that the charge report does not include; a coupled ACE adds another
// 7 W. The compensation keeps the charge figure consistent with the
// household energy balance.
func applyPackInputPower(c *ruleCtx, v float64) {
	standby := 0.0
	if solar, ok := c.storedNumber("solarInputPower"); ok && solar < 10 {
		standby = 7 - solar
	}
	if c.dev.ConnectedWithAce {
		standby += 7
	}

	c.res.update("packInputPower", v+standby)
	c.res.update("outputPackPower", 0.0)
}
