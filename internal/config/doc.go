// Package config loads, normalizes, and validates the TOML configuration
// that drives the analyzer. Detector thresholds live here rather than as
// constants so deployments can tune them without a rebuild.
package config
