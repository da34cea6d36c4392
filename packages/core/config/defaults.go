package config

import "slices"

// Reporters are the output formats a run can produce.
var Reporters = []string{"console", "json", "tap"}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Reporter: "console",
		Include:  []string{"*.chain.yaml", "*.chain.yml"},
		Timeout:  30000, // 30 seconds
		Bail:     BoolPtr(false),
		Verbose:  BoolPtr(false),
		NoColor:  BoolPtr(false),
	}
}

// IsDefault reports whether c matches the defaults.
func (c *Config) IsDefault() bool {
	d := DefaultConfig()
	return c.Reporter == d.Reporter &&
		c.OutputFile == d.OutputFile &&
		slices.Equal(c.Include, d.Include) &&
		len(c.Tags) == 0 &&
		c.Database == d.Database &&
		c.Timeout == d.Timeout &&
		c.GetBail() == d.GetBail() &&
		c.GetVerbose() == d.GetVerbose() &&
		c.GetNoColor() == d.GetNoColor()
}

