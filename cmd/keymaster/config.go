package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TanGentleman/keymaster/internal/config"
	"github.com/TanGentleman/keymaster/internal/generator"
	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/stats"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		// The config file may be broken; skip loading it so it can be fixed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE:              runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	table := keys.DefaultTable()
	gen := generator.DefaultParams()
	return fmt.Sprintf(`# keymaster configuration
# Uncomment a value to enable it. CLI flags override config values.

[keys]
# banned-keys = %q           # Characters never rendered or generated

[parser]
# banned-codes = ["[ctrl]"]  # Raw log codes stripped before decoding
# header-prefix = %q  # Chunks starting with this are skipped
# placeholder-delay = %.2f   # Delay given to decoded keystrokes (seconds)

[generator]
# mean = %.2f                # Mean delay (seconds)
# stddev = %.2f              # Delay standard deviation (seconds)
# min-delay = %.2f           # Delays below this are compressed toward it
# max-words = %d              # Stop after this many words (0: no limit)
# allow-newlines = %t      # Type newlines as enter instead of space
# allow-unicode = %t      # Keep characters outside the keyboard set

[stats]
# outlier-cutoff = %.1f       # Delays above this are outliers (seconds)

[record]
# max-delay = %.1f            # Compress delays longer than this (seconds)
# max-words = %d              # Stop after this many words (0: no limit)
# timeout = %q           # Stop recording after this long
# prompts = %q

[log]
# level = %q             # debug, info, warn, error or none
`,
		runeSetString(table.BannedKeys),
		table.HeaderPrefix,
		table.PlaceholderDelay,
		gen.Mean,
		gen.StdDev,
		gen.MinDelay,
		gen.MaxWords,
		gen.AllowNewlines,
		gen.AllowUnicode,
		stats.DefaultCutoff,
		defaultMaxDelay,
		defaultMaxWords,
		defaultTimeout.String(),
		config.DefaultPromptsPath(),
		defaultLogLevel,
	)
}

func runeSetString(set map[rune]struct{}) string {
	runes := make([]rune, 0, len(set))
	for r := range set {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	return string(runes)
}
