// Package config loads, normalizes, and validates revq configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// REVQ_API_TOKEN. The Config type centralizes every knob the CLI and engine
// need: the local state directory, gateway endpoint and credentials, change
// feed connection, and audit sink.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
