// Package config loads, normalizes, and validates musicus configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MUSICUS_LIBRARY_DIR. The Config type centralizes every knob the CLI and the
// watch daemon need: where the library and its database live, which optical
// drive and external tools the disc importer drives, and how logs are emitted.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
