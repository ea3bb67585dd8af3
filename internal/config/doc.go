// Package config loads, normalizes, and validates rawmount configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files via github.com/pelletier/go-toml/v2, and
// validates worker-pool sizes, the artifact-cache byte budget, and the
// default RenderConfig fields new mounts start from. Always obtain settings
// through this package so downstream code receives sanitized paths and
// clear validation errors instead of re-parsing raw TOML.
package config
