// Package config loads and validates Pointwatch Core configuration.
//
// Configuration comes from a single YAML file with environment variable
// overrides (POINTWATCH_* pattern). Defaults are applied first, then file
// values, then environment overrides, then the whole structure is validated.
//
// The point configuration documents referenced by the points section are
// loaded separately by the pointcfg package; this package only carries
// their paths.
package config
