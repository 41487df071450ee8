package telemetry

import "errors"

// Sentinel errors for the telemetry package.
var (
	// ErrParse indicates a payload that could not be decoded as JSON.
	// Parse failures affect only the offending message.
	ErrParse = errors.New("telemetry: payload parse failed")
)
