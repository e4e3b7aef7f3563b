// Package config holds the operator process configuration.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file, then STELLAR_OPERATOR_* environment variables. Command-line flags are
// bound on top of the result by the run command.
package config
