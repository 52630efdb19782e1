// Package config holds the runtime configuration of pagescope: fetch and
// probe limits, the fallback transport, report options, persistence and
// the per-host request overrides read from the YAML configuration file.
package config
