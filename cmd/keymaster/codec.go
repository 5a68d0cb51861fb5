package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TanGentleman/keymaster/internal/codec"
	"github.com/TanGentleman/keymaster/internal/generator"
	"github.com/TanGentleman/keymaster/internal/logfile"
	"github.com/TanGentleman/keymaster/internal/model"
	"github.com/TanGentleman/keymaster/internal/parser"
)

var (
	decodeSave bool
	decodeOut  string

	generateSpeed         float64
	generateMean          float64
	generateStdDev        float64
	generateMinDelay      float64
	generateMaxWords      int
	generateAllowNewlines bool
	generateAllowUnicode  bool
	generateSeed          int64
	generateSave          bool
	generateOut           string
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a raw text key log into keystroke logs",
		Long:  "Decode a raw text key log into keystroke logs. Reads stdin when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDecodeCmd,
	}
	cmd.Flags().BoolVar(&decodeSave, "save", false, "store decoded logs in the database")
	cmd.Flags().StringVar(&decodeOut, "out", "", "write decoded logs to this JSON file")
	return cmd
}

func runDecodeCmd(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	p, err := parser.New(app.table, app.diag())
	if err != nil {
		return err
	}
	logs := p.Decode(string(data))
	if len(logs) == 0 {
		logErrln("No typing found in input.")
		return nil
	}
	logErrf("Decoded %d logs\n", len(logs))
	return emitLogs(cmd, logs, "decode", decodeSave, decodeOut)
}

func newGenerateCmd() *cobra.Command {
	defaults := generator.DefaultParams()
	cmd := &cobra.Command{
		Use:   "generate [text...]",
		Short: "Generate a synthetic keystroke log for text",
		Long:  "Generate a synthetic keystroke log for text. Reads stdin when no text is given.",
		RunE:  runGenerateCmd,
	}
	cmd.Flags().Float64Var(&generateSpeed, "speed", 1.0, "speed multiplier; delays are divided by it")
	cmd.Flags().Float64Var(&generateMean, "mean", defaults.Mean, "mean delay in seconds")
	cmd.Flags().Float64Var(&generateStdDev, "stddev", defaults.StdDev, "delay standard deviation in seconds")
	cmd.Flags().Float64Var(&generateMinDelay, "min-delay", defaults.MinDelay, "delays below this are compressed toward it")
	cmd.Flags().IntVar(&generateMaxWords, "max-words", defaults.MaxWords, "stop after this many words (0: no limit)")
	cmd.Flags().BoolVar(&generateAllowNewlines, "allow-newlines", defaults.AllowNewlines, "type newlines as enter instead of space")
	cmd.Flags().BoolVar(&generateAllowUnicode, "allow-unicode", defaults.AllowUnicode, "keep characters outside the keyboard set")
	cmd.Flags().Int64Var(&generateSeed, "seed", 0, "random seed (0: time based)")
	cmd.Flags().BoolVar(&generateSave, "save", false, "store the generated log in the database")
	cmd.Flags().StringVar(&generateOut, "out", "", "write the generated log to this JSON file")
	return cmd
}

func runGenerateCmd(cmd *cobra.Command, args []string) error {
	genCfg := app.cfg.Generator
	applyFloatConfig(cmd, "mean", &generateMean, genCfg.Mean)
	applyFloatConfig(cmd, "stddev", &generateStdDev, genCfg.StdDev)
	applyFloatConfig(cmd, "min-delay", &generateMinDelay, genCfg.MinDelay)
	applyIntConfig(cmd, "max-words", &generateMaxWords, genCfg.MaxWords)
	applyBoolConfig(cmd, "allow-newlines", &generateAllowNewlines, genCfg.AllowNewlines)
	applyBoolConfig(cmd, "allow-unicode", &generateAllowUnicode, genCfg.AllowUnicode)

	text, err := generateInput(cmd, args)
	if err != nil {
		return err
	}

	params := generator.Params{
		Mean:          generateMean,
		StdDev:        generateStdDev,
		MinDelay:      generateMinDelay,
		MaxWords:      generateMaxWords,
		AllowNewlines: generateAllowNewlines,
		AllowUnicode:  generateAllowUnicode,
	}
	var gen *generator.Generator
	if generateSeed != 0 {
		gen, err = generator.NewWithSource(rand.NewSource(generateSeed), app.table, params, app.diag())
	} else {
		gen, err = generator.New(app.table, params, app.diag())
	}
	if err != nil {
		return err
	}
	log, err := gen.GenerateLog(text, generateSpeed)
	if err != nil {
		return err
	}
	return emitLogs(cmd, []model.Log{log}, "generate", generateSave, generateOut)
}

func generateInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if !stdinPiped(cmd) {
		return "", errNoInput
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// emitLogs stores and/or writes logs. With neither --save nor --out the logs
// go to stdout as JSON.
func emitLogs(cmd *cobra.Command, logs []model.Log, source string, save bool, out string) error {
	if save {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)
		if err := st.InsertLogs(context.Background(), logs, source); err != nil {
			return fmt.Errorf("failed to save logs: %w", err)
		}
		logErrf("Saved %d logs\n", len(logs))
	}
	if out != "" {
		if err := logfile.Save(out, logs); err != nil {
			return err
		}
		logErrf("Wrote %s\n", out)
	}
	if save || out != "" {
		return nil
	}
	if err := logfile.Write(cmd.OutOrStdout(), logs); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check that logs' keystrokes reproduce their strings",
		Long: "Check that logs' keystrokes reproduce their strings. Reads a JSON log file, " +
			"or stdin when piped, or the database otherwise.",
		Args: cobra.MaximumNArgs(1),
		RunE: runValidateCmd,
	}
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	logs, err := loadLogsForValidate(cmd, args)
	if err != nil {
		return err
	}
	c := codec.New(app.table, app.diag())
	failed := 0
	for _, log := range logs {
		if c.CheckLog(log) {
			continue
		}
		failed++
		d := codec.FirstDivergence(c.Render(log.Keystrokes), log.String)
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: differs at position %d (%s)\n", log.ID, d.Index, d.Extra); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d logs failed validation", failed, len(logs))
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "All %d logs valid.\n", len(logs)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func loadLogsForValidate(cmd *cobra.Command, args []string) ([]model.Log, error) {
	if len(args) > 0 || stdinPiped(cmd) {
		data, err := readInput(cmd, args)
		if err != nil {
			return nil, err
		}
		return logfile.Read(bytes.NewReader(data))
	}
	return loadStoreLogs()
}

func loadStoreLogs() ([]model.Log, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer closeStore(st)
	logs, err := st.ListLogs(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	return logs, nil
}
