// Package config holds the stub server settings stubctl reads before every
// lifecycle phase.
//
// Values are layered with the following precedence:
//  1. Command-line flags (highest priority)
//  2. Environment variables (STUBCTL_*)
//  3. Local settings file (.stubctl.yaml in the working directory)
//  4. Default values (lowest priority)
//
// Every field remembers which layer it came from; `stubctl config` prints
// that alongside the effective value.
//
// The HTTP port is always present. The HTTPS and admin ports are optional:
// a nil pointer means the feature is disabled, and a zero value supplied by
// any layer clears a port set by a lower one.
package config
