// Package config loads, normalizes, and validates podfetch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads the TOML file that declares global download settings
// plus one [[podcast]] block per subscribed feed. Substitution rules are kept
// as text here; they are compiled when a run starts so that one malformed
// rule disables only its own podcast.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
