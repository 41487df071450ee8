package device

import (
	"fmt"
	"time"
)

// Identity uniquely addresses a device on the vendor broker.
// Both keys appear in every topic the device publishes or listens on.
type Identity struct {
	ProductKey string
	DeviceKey  string
}

// String returns the identity in topic-segment order.
func (i Identity) String() string {
	return i.ProductKey + "/" + i.DeviceKey
}

// Valid reports whether both keys are present.
func (i Identity) Valid() bool {
	return i.ProductKey != "" && i.DeviceKey != ""
}

// Device represents a registered Solarflow device.
//
// ProductName drives family-specific behaviour (limit ceilings, input
// limit mirroring); it comes from the cloud device list or configuration
// and may be empty for devices discovered from telemetry alone.
type Device struct {
	// Key is the vendor device key, unique per device.
	Key string

	// ProductKey identifies the product model on the broker.
	ProductKey string

	// Serial is the device serial number (snNumber in vendor payloads).
	Serial string

	// Name is the user-assigned device name.
	Name string

	// ProductName is the vendor product name (e.g. "SolarFlow 800",
	// "Hyper 2000", "ACE 1500").
	ProductName string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity returns the device's broker identity.
func (d *Device) Identity() Identity {
	return Identity{ProductKey: d.ProductKey, DeviceKey: d.Key}
}

// Validate checks that the device has the required keys.
func (d *Device) Validate() error {
	if d.Key == "" {
		return fmt.Errorf("%w: missing device key", ErrInvalidDevice)
	}
	if d.ProductKey == "" {
		return fmt.Errorf("%w: missing product key", ErrInvalidDevice)
	}
	return nil
}
