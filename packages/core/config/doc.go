// Package config loads chainspec settings.
//
// Settings come from .chainspec.yaml, .chainspec.yml or chainspec.config.json
// in the working directory. Command-line flags are merged on top.
package config
