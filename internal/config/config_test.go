package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanGentleman/keymaster/internal/keys"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Generator.Mean)

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
[keys]
banned-keys = "qz"

[parser]
banned-codes = ["[noise]"]
header-prefix = "Window:"
placeholder-delay = 0.05

[generator]
mean = 0.2
max-words = 10
allow-unicode = true

[stats]
outlier-cutoff = 1.5

[record]
timeout = "90s"

[log]
level = "debug"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Generator.Mean)
	assert.Equal(t, 0.2, *cfg.Generator.Mean)
	assert.Equal(t, 10, *cfg.Generator.MaxWords)
	assert.True(t, *cfg.Generator.AllowUnicode)
	assert.Nil(t, cfg.Generator.StdDev)
	assert.Equal(t, 1.5, *cfg.Stats.OutlierCutoff)
	assert.Equal(t, "90s", *cfg.Record.Timeout)
	assert.Equal(t, "debug", *cfg.Log.Level)

	table, err := cfg.Table()
	require.NoError(t, err)
	assert.True(t, table.Banned('q'))
	assert.False(t, table.Banned('`'))
	assert.Equal(t, []string{"[noise]"}, table.BannedCodes)
	assert.Equal(t, "Window:", table.HeaderPrefix)
	assert.Equal(t, 0.05, table.PlaceholderDelay)
	assert.Equal(t, keys.DefaultTable().ShiftMarkers, table.ShiftMarkers)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[generator]\nspeed = 2\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestTableRejectsBadValues(t *testing.T) {
	delay := -1.0
	cfg := FileConfig{Parser: ParserConfig{PlaceholderDelay: &delay}}
	_, err := cfg.Table()
	assert.Error(t, err)
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	assert.Equal(t, filepath.Join("/tmp/cfg", "keymaster", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/tmp/data", "keymaster", "keymaster.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/tmp/cfg", "keymaster", "prompts.txt"), DefaultPromptsPath())
}

func TestPathOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	t.Setenv(EnvConfigDir, "/srv/km")
	t.Setenv(EnvDataDir, "/var/km")
	assert.Equal(t, filepath.Join("/srv/km", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/srv/km", "prompts.txt"), DefaultPromptsPath())
	assert.Equal(t, filepath.Join("/var/km", "keymaster.db"), DefaultDBPath())

	t.Setenv(EnvConfigDir, "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/typist")
	assert.Equal(t, filepath.Join("/home/typist", ".config", "keymaster"), ConfigDir())
}
