// Package main provides the CLI entrypoint for keymaster.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lixenwraith/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/TanGentleman/keymaster/internal/config"
	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/logging"
	"github.com/TanGentleman/keymaster/internal/stats"
	"github.com/TanGentleman/keymaster/internal/store"
)

const defaultLogLevel = "warn"

var (
	configPath string
	dbPath     string
	logLevel   string
)

var errNoInput = errors.New("no input: pass a file or pipe data on stdin")

// appState is built once per invocation from the config file and global flags.
type appState struct {
	cfg    config.FileConfig
	table  keys.Table
	logger *log.Logger
}

var app appState

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if cerr := logging.Close(app.logger); cerr != nil {
		logErrf("failed to close logger: %v\n", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "keymaster",
		Short:             "Record, decode, generate and analyze keystroke logs",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setupApp,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	flags.StringVar(&dbPath, "db", config.DefaultDBPath(), "SQLite database path")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "diagnostic log level (debug, info, warn, error, none)")

	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newDedupCmd())
	rootCmd.AddCommand(newLogsCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func setupApp(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	table, err := fileCfg.Table()
	if err != nil {
		return err
	}
	logger, err := logging.New(logLevel)
	if err != nil {
		return err
	}
	app = appState{cfg: fileCfg, table: table, logger: logger}
	app.diag().Debug("msg", "Configuration loaded", "config", configPath, "db", dbPath)
	return nil
}

// diag returns the diagnostic logger for core packages.
func (a appState) diag() logging.Logger {
	if a.logger == nil {
		return logging.Nop()
	}
	return a.logger
}

// statsOptions applies the configured outlier cutoff unless the flag was set.
func (a appState) statsOptions(cmd *cobra.Command, exclude bool, cutoff float64) stats.Options {
	applyFloatConfig(cmd, "cutoff", &cutoff, a.cfg.Stats.OutlierCutoff)
	return stats.Options{ExcludeOutliers: exclude, Cutoff: cutoff}
}

func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// stdinPiped reports whether stdin carries data rather than a terminal.
func stdinPiped(cmd *cobra.Command) bool {
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		return !term.IsTerminal(int(f.Fd()))
	}
	return true
}

// readInput reads the file named by the first argument, or stdin when the
// argument is missing or "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		return data, nil
	}
	if !stdinPiped(cmd) {
		return nil, errNoInput
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil {
		return fmt.Errorf("invalid %s in config: %w", name, err)
	}
	*target = d
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
