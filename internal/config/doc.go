// Package config loads and validates conveyor's TOML configuration.
//
// Load resolves the config file (explicit path, then the user config dir,
// then a project-local conveyor.toml), layers it over repository defaults,
// expands paths, and validates the result. Prefer Load over hand-built
// Config values so every binary agrees on defaults and normalization.
package config
