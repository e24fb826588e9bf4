// Package config loads, normalizes, and validates the TOML configuration
// file. Secrets never live here; access tokens are read from the environment
// at the startup boundary only.
package config
