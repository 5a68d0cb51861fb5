package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/TanGentleman/keymaster/internal/codec"
	"github.com/TanGentleman/keymaster/internal/config"
	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/model"
	"github.com/TanGentleman/keymaster/internal/prompt"
	"github.com/TanGentleman/keymaster/internal/stats"
	"github.com/TanGentleman/keymaster/internal/tui"
)

const (
	defaultMaxDelay = 2.0
	defaultMaxWords = 0
	defaultTimeout  = 2 * time.Minute
)

var (
	recordPrompt   string
	recordPrompts  string
	recordMaxWords int
	recordMaxDelay float64
	recordTimeout  time.Duration
	recordNoSave   bool
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a typing session in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runRecordCmd,
	}
	cmd.Flags().StringVar(&recordPrompt, "prompt", "", "text to type (default: random line from the prompt list)")
	cmd.Flags().StringVar(&recordPrompts, "prompts", config.DefaultPromptsPath(), "prompt list, one per line")
	cmd.Flags().IntVar(&recordMaxWords, "max-words", defaultMaxWords, "stop after this many words (0: no limit)")
	cmd.Flags().Float64Var(&recordMaxDelay, "max-delay", defaultMaxDelay, "compress delays longer than this many seconds (0: off)")
	cmd.Flags().DurationVar(&recordTimeout, "timeout", defaultTimeout, "stop recording after this long (0: no limit)")
	cmd.Flags().BoolVar(&recordNoSave, "no-save", false, "do not store the recorded log")
	return cmd
}

func runRecordCmd(cmd *cobra.Command, _ []string) error {
	recCfg := app.cfg.Record
	applyStringConfig(cmd, "prompts", &recordPrompts, recCfg.Prompts)
	applyIntConfig(cmd, "max-words", &recordMaxWords, recCfg.MaxWords)
	applyFloatConfig(cmd, "max-delay", &recordMaxDelay, recCfg.MaxDelay)
	if err := applyDurationConfig(cmd, "timeout", &recordTimeout, recCfg.Timeout); err != nil {
		return err
	}
	if err := validateRecordFlags(); err != nil {
		return err
	}

	text := recordPrompt
	if text == "" {
		picked, err := pickPrompt(recordPrompts, app.table)
		if err != nil {
			return err
		}
		text = picked
	}

	c := codec.New(app.table, app.diag())
	rec := tui.NewRecorder(c, tui.Options{
		Prompt:   text,
		MaxDelay: recordMaxDelay,
		MaxWords: recordMaxWords,
		Timeout:  recordTimeout,
	})
	program := tea.NewProgram(rec, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run recorder: %w", err)
	}

	log, ok := rec.Result()
	if !ok {
		logErrln("Nothing recorded.")
		return nil
	}
	app.diag().Info("msg", "Recording stopped", "reason", rec.Reason().String(), "keystrokes", len(log.Keystrokes))
	if !c.Validate(log.Keystrokes, text) {
		d := codec.FirstDivergence(log.String, text)
		logErrf("Typed text differs from the prompt at position %d.\n", d.Index)
	}

	opts := app.statsOptions(cmd, false, stats.DefaultCutoff)
	if err := stats.RenderSummary(cmd.OutOrStdout(), stats.Summarize([]model.Log{log}, opts)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if recordNoSave {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	if err := st.InsertLog(context.Background(), log, "record"); err != nil {
		return fmt.Errorf("failed to save log: %w", err)
	}
	logErrf("Saved log %s\n", log.ID)
	return nil
}

func validateRecordFlags() error {
	if recordMaxWords < 0 {
		return fmt.Errorf("--max-words must be >= 0")
	}
	if recordMaxDelay < 0 {
		return fmt.Errorf("--max-delay must be >= 0")
	}
	if recordTimeout < 0 {
		return fmt.Errorf("--timeout must be >= 0")
	}
	return nil
}

// pickPrompt chooses a random typeable line from the prompt list.
func pickPrompt(path string, table keys.Table) (string, error) {
	prompts, err := prompt.LoadOrDefault(path)
	if err != nil {
		return "", fmt.Errorf("failed to load prompts: %w", err)
	}
	prompts = prompt.Filter(prompts, func(r rune) bool {
		return keys.Typeable(r) && !table.Banned(r)
	})
	if len(prompts) == 0 {
		return "", fmt.Errorf("no typeable prompts in %s", path)
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return prompt.Pick(rng, prompts), nil
}
