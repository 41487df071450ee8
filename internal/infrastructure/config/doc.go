// Package config provides configuration loading for Solarflow Bridge.
//
// Configuration is read from a YAML file, merged over hardcoded defaults,
// and finally overridden by SOLARBRIDGE_* environment variables. The loaded
// Config is validated before use; secrets (cloud password, Influx token)
// should come from the environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
