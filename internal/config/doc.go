// Package config loads, normalizes, and validates the Grabarr TOML
// configuration.
package config
