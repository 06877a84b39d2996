// Package config loads, normalizes, and validates lyricreel settings.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LYRICREEL_FFMPEG and LYRICREEL_BROWSER. The Config type centralizes the
// frame geometry, browser, encoder, and logging knobs so the CLI and the
// render workflow discover them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
