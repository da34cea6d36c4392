package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, "console", c.Reporter)
	assert.Equal(t, []string{"*.chain.yaml", "*.chain.yml"}, c.Include)
	assert.False(t, c.GetBail())
	assert.False(t, c.GetVerbose())
	assert.False(t, c.GetNoColor())
	assert.True(t, c.IsDefault())
	assert.NoError(t, c.Validate())
}

func TestGetters_NilPointers(t *testing.T) {
	c := &Config{}
	assert.False(t, c.GetBail())
	assert.False(t, c.GetVerbose())
	assert.False(t, c.GetNoColor())

	c.Bail = BoolPtr(true)
	assert.True(t, c.GetBail())
}

func TestFindAndLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		check    func(t *testing.T, c *Config)
	}{
		{
			name:     "yaml",
			filename: ".chainspec.yaml",
			content:  "reporter: tap\nbail: true\ninclude:\n  - \"*.spec.yaml\"\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "tap", c.Reporter)
				assert.True(t, c.GetBail())
				assert.Equal(t, []string{"*.spec.yaml"}, c.Include)
				assert.Equal(t, 30000, c.Timeout)
			},
		},
		{
			name:     "yml",
			filename: ".chainspec.yml",
			content:  "database: \"sqlite://app.db\"\ntags: [smoke]\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "sqlite://app.db", c.Database)
				assert.Equal(t, []string{"smoke"}, c.Tags)
				assert.Equal(t, "console", c.Reporter)
			},
		},
		{
			name:     "json",
			filename: "chainspec.config.json",
			content:  `{"reporter": "json", "noColor": true, "output": "report.json"}`,
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "json", c.Reporter)
				assert.True(t, c.GetNoColor())
				assert.Equal(t, "report.json", c.OutputFile)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.filename), []byte(tt.content), 0644))

			c, err := FindAndLoadConfig(dir)
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	c, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.True(t, c.IsDefault())
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("reporter: [unclosed"), 0644))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "failed to parse")

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("reporter: html\n"), 0644))
	_, err = LoadConfig(unknown)
	assert.ErrorContains(t, err, `unknown reporter "html"`)
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&Config{Timeout: -1}).Validate())
	assert.Error(t, (&Config{Include: []string{"["}}).Validate())
	assert.NoError(t, (&Config{Reporter: "json"}).Validate())
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Database = "sqlite://base.db"

	merged := base.Merge(&Config{
		Reporter: "json",
		Tags:     []string{"fast"},
		Bail:     BoolPtr(true),
	})

	assert.Equal(t, "json", merged.Reporter)
	assert.Equal(t, "sqlite://base.db", merged.Database)
	assert.Equal(t, []string{"fast"}, merged.Tags)
	assert.True(t, merged.GetBail())
	assert.False(t, merged.GetVerbose())

	assert.Equal(t, "console", base.Reporter)
	assert.False(t, base.GetBail())
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".chainspec.yaml")

	c := DefaultConfig()
	c.Reporter = "tap"
	c.Verbose = BoolPtr(true)
	require.NoError(t, c.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}
