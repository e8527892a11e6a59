// Package config loads, normalizes, and validates muzzman configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the MUZZMAN_SOCKET environment
// fallback. The Config type centralizes every knob the daemon and CLI need:
// where state and module manifests live, which location the daemon starts
// with, and how long clients wait on the daemon.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
