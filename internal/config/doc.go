// Package config loads, normalizes, and validates inkflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and centralizes every knob the API server and
// CLI need: data and log directories, the fallback assignee for pre-repro
// handoffs, file numbering, and logging output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
