// Package config loads, normalizes, and validates CineScan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY, GOOGLE_VISION_API_KEY, and AUDD_API_KEY. The Config type
// centralizes every knob the API daemon and CLI need so credentials are read
// once at startup and passed explicitly to the clients that use them.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
