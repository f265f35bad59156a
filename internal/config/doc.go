// Package config loads, normalizes, and validates backend configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SOUNDCONVERTER_CONFIG and SOUNDCONVERTER_LOG_LEVEL. Encoder discovery
// overrides that come from the environment are resolved by the deps package,
// not here, so the config stays a plain description of the file on disk.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
