// Package config holds the runtime configuration.
//
// Precedence, lowest to highest: built-in defaults, the YAML file, the
// FITTELLIGENCE_* environment variables. A .env file loaded with LoadDotEnv
// overrides the process environment before Load reads it.
package config
