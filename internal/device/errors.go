package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a device key does not exist.
	ErrNotFound = errors.New("device: not found")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")
)
