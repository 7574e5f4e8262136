// Package config loads, normalizes, and validates pomo configuration data.
//
// It supplies defaults matching the classic Pomodoro timings, expands user
// paths (including tilde shortcuts), reads TOML files, loads an optional
// pomo.env file beside the config, and honours environment fallbacks such as
// POMO_NTFY_TOPIC. Durations converts the timer section into the values the
// countdown engine consumes.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
