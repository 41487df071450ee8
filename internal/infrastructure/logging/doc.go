// Package logging provides structured logging for Solarflow Bridge.
//
// It wraps the standard library's log/slog with configuration-driven
// setup (level, format, destination) and default service attributes.
// Components derive their own loggers via With:
//
//	log := logging.New(cfg.Logging, version)
//	bridgeLog := log.With("component", "bridge")
//
// Use Default() only during early startup, before configuration loads.
package logging
