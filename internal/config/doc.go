// Package config loads, normalizes, and validates deckhand configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DECKHAND_WEBDRIVER_URL. The Config type centralizes every knob the CLI
// needs: cache/log directories, download concurrency, the remote WebDriver
// session, notifications, and log output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
