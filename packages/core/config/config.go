package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Reporter   string   `yaml:"reporter,omitempty"`
	OutputFile string   `yaml:"output,omitempty"`
	Include    []string `yaml:"include,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
	Database   string   `yaml:"database,omitempty"`
	Timeout    int      `yaml:"timeout,omitempty"` // milliseconds per case
	Bail       *bool    `yaml:"bail,omitempty"`
	Verbose    *bool    `yaml:"verbose,omitempty"`
	NoColor    *bool    `yaml:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetBail returns the bail setting, defaulting to false
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames are searched in order.
var ConfigFilenames = []string{
	".chainspec.yaml",
	".chainspec.yml",
	"chainspec.config.json",
}

// LoadConfig loads path, or searches the current directory when path is
// empty.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig loads the first config file found in dir. Without one it
// returns the defaults.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

// JSON is a subset of YAML, so one decoder reads every config format.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate rejects settings no run could use.
func (c *Config) Validate() error {
	if c.Reporter != "" && !isReporter(c.Reporter) {
		return fmt.Errorf("unknown reporter %q (want one of %v)", c.Reporter, Reporters)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	for _, pattern := range c.Include {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("bad include pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func isReporter(name string) bool {
	return slices.Contains(Reporters, name)
}

// Merge returns c overlaid with the fields other sets.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Reporter != "" {
		result.Reporter = other.Reporter
	}
	if other.OutputFile != "" {
		result.OutputFile = other.OutputFile
	}
	if other.Database != "" {
		result.Database = other.Database
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if len(other.Include) > 0 {
		result.Include = other.Include
	}
	if len(other.Tags) > 0 {
		result.Tags = other.Tags
	}

	// only override booleans set explicitly
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	return &result
}

// SaveConfig writes c to path as YAML.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
