package config

import (
	"os"
	"path/filepath"
)

const appName = "keymaster"

// Environment variables that move keymaster's directories outright.
const (
	EnvConfigDir = "KEYMASTER_CONFIG_DIR"
	EnvDataDir   = "KEYMASTER_DATA_DIR"
)

// location resolves one keymaster directory: the explicit override wins,
// then the XDG base directory, then the XDG default under $HOME.
type location struct {
	override string
	xdgEnv   string
	homeRel  string
}

var (
	configLocation = location{override: EnvConfigDir, xdgEnv: "XDG_CONFIG_HOME", homeRel: ".config"}
	dataLocation   = location{override: EnvDataDir, xdgEnv: "XDG_DATA_HOME", homeRel: filepath.Join(".local", "share")}
)

func (l location) dir() string {
	if v := os.Getenv(l.override); v != "" {
		return v
	}
	if v := os.Getenv(l.xdgEnv); v != "" {
		return filepath.Join(v, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return appName
	}
	return filepath.Join(home, l.homeRel, appName)
}

// ConfigDir holds config.toml and the prompt list.
func ConfigDir() string {
	return configLocation.dir()
}

// DataDir holds the log database.
func DataDir() string {
	return dataLocation.dir()
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), appName+".db")
}

// DefaultPromptsPath returns the prompt list the recorder draws from.
func DefaultPromptsPath() string {
	return filepath.Join(ConfigDir(), "prompts.txt")
}
