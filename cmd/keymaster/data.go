package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/TanGentleman/keymaster/internal/codec"
	"github.com/TanGentleman/keymaster/internal/logfile"
	"github.com/TanGentleman/keymaster/internal/stats"
	"github.com/TanGentleman/keymaster/internal/statsui"
)

var (
	statsExcludeOutliers bool
	statsCutoff          float64
	statsKeys            bool
	statsTop             int

	dedupConfirm bool

	importSkipInvalid bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [id-or-string]",
		Short: "Show timing statistics for stored logs",
		Long:  "Show timing statistics for all stored logs, or for the log matching an id or string.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStatsCmd,
	}
	cmd.Flags().BoolVar(&statsExcludeOutliers, "exclude-outliers", stats.DefaultOptions().ExcludeOutliers, "drop delays above the outlier cutoff (--exclude-outliers=false keeps them)")
	cmd.Flags().Float64Var(&statsCutoff, "cutoff", stats.DefaultCutoff, "outlier cutoff in seconds")
	cmd.Flags().BoolVar(&statsKeys, "keys", false, "show mean delay per key")
	cmd.Flags().IntVar(&statsTop, "top", 0, "show only the N slowest keys (0: all)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, args []string) error {
	if statsTop < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	opts := app.statsOptions(cmd, statsExcludeOutliers, statsCutoff)
	if opts.Cutoff <= 0 {
		return fmt.Errorf("--cutoff must be > 0")
	}
	logs, err := loadStoreLogs()
	if err != nil {
		return err
	}
	identifier := ""
	if len(args) > 0 {
		identifier = args[0]
	}

	coll := stats.NewCollection(logs)
	summary, err := coll.Summarize(identifier, opts)
	if err != nil {
		if errors.Is(err, stats.ErrNoLog) {
			logErrf("No log matches %q. List logs with: keymaster logs\n", identifier)
		}
		return err
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, summary); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !statsKeys {
		return nil
	}
	oracle := codec.New(app.table, app.diag()).Oracle()
	means, err := coll.CharTimes(oracle, identifier, opts)
	if err != nil {
		return err
	}
	if statsTop > 0 {
		top := stats.SlowestKeys(means, statsTop)
		means = make(map[string]float64, len(top))
		for _, kt := range top {
			means[kt.Label] = kt.Mean
		}
	}
	if err := stats.RenderCharTable(out, means); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newDedupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Remove stored logs whose string repeats an earlier log",
		Long:  "Remove stored logs whose string repeats an earlier log. Without --confirm only reports what would be removed.",
		Args:  cobra.NoArgs,
		RunE:  runDedupCmd,
	}
	cmd.Flags().BoolVar(&dedupConfirm, "confirm", false, "apply the removal")
	return cmd
}

func runDedupCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	logs, err := st.ListLogs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load logs: %w", err)
	}
	coll := stats.NewCollection(logs)
	plan := coll.NukeDuplicates()
	out := cmd.OutOrStdout()
	if plan.Count() == 0 {
		_, err := fmt.Fprintln(out, "No duplicate logs.")
		return err
	}
	for _, log := range plan.Removed() {
		if _, err := fmt.Fprintf(out, "duplicate %s %q\n", log.ID, log.String); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if !dedupConfirm {
		_, err := fmt.Fprintf(out, "%d duplicate logs. Run with --confirm to remove them.\n", plan.Count())
		return err
	}
	if err := plan.Confirm(); err != nil {
		return err
	}
	removed, err := st.DeleteLogs(ctx, plan.RemovedIDs())
	if err != nil {
		return fmt.Errorf("failed to delete logs: %w", err)
	}
	_, err = fmt.Fprintf(out, "Removed %d duplicate logs, %d remain.\n", removed, coll.Len())
	return err
}

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List stored logs",
		Args:  cobra.NoArgs,
		RunE:  runLogsCmd,
	}
	cmd.Flags().BoolVar(&statsExcludeOutliers, "exclude-outliers", stats.DefaultOptions().ExcludeOutliers, "drop delays above the outlier cutoff when computing WPM")
	cmd.Flags().Float64Var(&statsCutoff, "cutoff", stats.DefaultCutoff, "outlier cutoff in seconds")
	return cmd
}

func runLogsCmd(cmd *cobra.Command, _ []string) error {
	logs, err := loadStoreLogs()
	if err != nil {
		return err
	}
	opts := app.statsOptions(cmd, statsExcludeOutliers, statsCutoff)
	if err := stats.RenderLogTable(cmd.OutOrStdout(), logs, opts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write stored logs as JSON",
		Long:  "Write stored logs as JSON to a file, or to stdout when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExportCmd,
	}
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	logs, err := loadStoreLogs()
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "-" {
		if err := logfile.Write(cmd.OutOrStdout(), logs); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := logfile.Save(args[0], logs); err != nil {
		return err
	}
	logErrf("Exported %d logs to %s\n", len(logs), args[0])
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Store logs from a JSON file",
		Long:  "Store logs from a JSON file, or from stdin when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().BoolVar(&importSkipInvalid, "skip-invalid", false, "skip logs whose keystrokes do not reproduce their string")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	logs, err := logfile.Read(bytes.NewReader(data))
	if err != nil {
		return err
	}
	c := codec.New(app.table, app.diag())
	kept := logs[:0]
	for _, log := range logs {
		if !c.CheckLog(log) && importSkipInvalid {
			logErrf("Skipping invalid log %s\n", log.ID)
			continue
		}
		kept = append(kept, log)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	if err := st.InsertLogs(context.Background(), kept, "import"); err != nil {
		return fmt.Errorf("failed to import logs: %w", err)
	}
	logErrf("Imported %d logs\n", len(kept))
	return nil
}

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse stored logs and their statistics",
		Args:  cobra.NoArgs,
		RunE:  runBrowseCmd,
	}
	cmd.Flags().BoolVar(&statsExcludeOutliers, "exclude-outliers", stats.DefaultOptions().ExcludeOutliers, "drop delays above the outlier cutoff (--exclude-outliers=false keeps them)")
	cmd.Flags().Float64Var(&statsCutoff, "cutoff", stats.DefaultCutoff, "outlier cutoff in seconds")
	return cmd
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
	logs, err := loadStoreLogs()
	if err != nil {
		return err
	}
	opts := app.statsOptions(cmd, statsExcludeOutliers, statsCutoff)
	oracle := codec.New(app.table, app.diag()).Oracle()
	browser := statsui.NewModel(stats.NewCollection(logs), oracle, opts)
	program := tea.NewProgram(browser, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}
