// Package config loads, normalizes, and validates lenscal configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the LENSCAL_WORKDIR environment
// fallback. The Config type centralizes the external tool names, optimizer
// limits and sampling parameters every calibration action needs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
