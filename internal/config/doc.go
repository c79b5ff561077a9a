// Package config loads, normalizes, and validates quietcut configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and overlays QUIETCUT_* environment variables. Detection values
// keep their human-facing units here (silence_min_len is in minutes); the
// conversion to seconds happens once, when detection parameters are built.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
