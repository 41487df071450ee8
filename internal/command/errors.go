package command

import "errors"

var (
	// ErrValidation indicates a requested value outside the property's
	// allowed range. The command is dropped; nothing is published.
	ErrValidation = errors.New("command: value out of range")

	// ErrRejected indicates the device's current state forbids the
	// command, such as an output limit while an automatic operation
	// mode is active.
	ErrRejected = errors.New("command: rejected by device state")
)
