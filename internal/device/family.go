package device

import "strings"

// Known vendor product keys.
const (
	// ProductKeyAce is the product key of the ACE expansion battery.
	ProductKeyAce = "8bM93H"

	// ProductKeyAio is the product key of the AIO 2400 all-in-one.
	ProductKeyAio = "yWF7hV"

	// ProductKeySmartPlug is the product key of the vendor smart plug.
	ProductKeySmartPlug = "s3Xk4x"
)

// Family identifies a device's product family.
// Family-specific behaviour (limit ceilings, quantization, mirroring)
// keys off this rather than raw product names.
type Family string

const (
	FamilyHub       Family = "hub"
	FamilyHyper     Family = "hyper"
	FamilyAce       Family = "ace"
	FamilyAio       Family = "aio"
	FamilySmartPlug Family = "smartplug"
	FamilyUnknown   Family = "unknown"
)

// Classify determines the product family from the product key and name.
//
// The product key identifies ACE, AIO, and smart plug devices exactly.
// Hub and Hyper devices share product keys across hardware revisions, so
// their classification falls back to the product name.
func Classify(productKey, productName string) Family {
	switch productKey {
	case ProductKeySmartPlug:
		return FamilySmartPlug
	case ProductKeyAio:
		return FamilyAio
	case ProductKeyAce:
		return FamilyAce
	}

	name := strings.ToLower(productName)
	switch {
	case strings.Contains(name, "hyper"):
		return FamilyHyper
	case strings.Contains(name, "ace"):
		return FamilyAce
	case strings.Contains(name, "aio"):
		return FamilyAio
	case strings.Contains(name, "solarflow"):
		return FamilyHub
	}
	return FamilyUnknown
}

// IsSolarflowLike reports whether a device carries hub-style telemetry
// (solar input, output limits, battery packs).
//
// Anything that is not an ACE qualifies; an ACE qualifies only when its
// product name marks it as part of the solarflow line.
func IsSolarflowLike(productKey, productName string) bool {
	if productKey != ProductKeyAce {
		return true
	}
	name := strings.ToLower(productName)
	return strings.Contains(name, "solarflow") ||
		strings.Contains(name, "hyper") ||
		strings.Contains(name, "aio")
}

// MirrorsInputLimit reports whether inputLimit telemetry should be
// mirrored into the control namespace as the device's own setpoint.
// Only the solarflow line (hubs, ACE, Hyper) manages an input limit.
func MirrorsInputLimit(productName string) bool {
	name := strings.ToLower(productName)
	return strings.Contains(name, "solarflow") ||
		strings.Contains(name, "ace") ||
		strings.Contains(name, "hyper")
}
