// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/TanGentleman/keymaster/internal/keys"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Keys      KeysConfig      `toml:"keys"`
	Parser    ParserConfig    `toml:"parser"`
	Generator GeneratorConfig `toml:"generator"`
	Stats     StatsConfig     `toml:"stats"`
	Record    RecordConfig    `toml:"record"`
	Log       LogConfig       `toml:"log"`
}

// KeysConfig maps key table settings.
type KeysConfig struct {
	BannedKeys *string `toml:"banned-keys"`
}

// ParserConfig maps raw log decoding settings.
type ParserConfig struct {
	BannedCodes      *[]string `toml:"banned-codes"`
	HeaderPrefix     *string   `toml:"header-prefix"`
	PlaceholderDelay *float64  `toml:"placeholder-delay"`
}

// GeneratorConfig maps synthetic keystroke settings.
type GeneratorConfig struct {
	Mean          *float64 `toml:"mean"`
	StdDev        *float64 `toml:"stddev"`
	MinDelay      *float64 `toml:"min-delay"`
	MaxWords      *int     `toml:"max-words"`
	AllowNewlines *bool    `toml:"allow-newlines"`
	AllowUnicode  *bool    `toml:"allow-unicode"`
}

// StatsConfig maps statistics settings.
type StatsConfig struct {
	OutlierCutoff *float64 `toml:"outlier-cutoff"`
}

// RecordConfig maps recorder settings.
type RecordConfig struct {
	MaxDelay *float64 `toml:"max-delay"`
	MaxWords *int     `toml:"max-words"`
	Timeout  *string  `toml:"timeout"`
	Prompts  *string  `toml:"prompts"`
}

// LogConfig maps diagnostic logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Table returns the default code table with file overrides applied.
func (c FileConfig) Table() (keys.Table, error) {
	table := keys.DefaultTable()
	if c.Keys.BannedKeys != nil {
		table.BannedKeys = keys.RuneSet(*c.Keys.BannedKeys)
	}
	if c.Parser.BannedCodes != nil {
		table.BannedCodes = append([]string(nil), (*c.Parser.BannedCodes)...)
	}
	if c.Parser.HeaderPrefix != nil {
		table.HeaderPrefix = *c.Parser.HeaderPrefix
	}
	if c.Parser.PlaceholderDelay != nil {
		table.PlaceholderDelay = *c.Parser.PlaceholderDelay
	}
	if err := table.Validate(); err != nil {
		return keys.Table{}, fmt.Errorf("invalid key table config: %w", err)
	}
	return table, nil
}
