// Package logfile reads and writes logs in the JSON exchange format:
//
//	[{"id": "<uuid>", "string": "<text>", "keystrokes": [["<key>", <time-or-null>], ...]}, ...]
package logfile

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/TanGentleman/keymaster/internal/model"
)

// ErrInvalidFormat is returned for input that does not match the log format.
var ErrInvalidFormat = errors.New("invalid log file")

//go:embed logs.schema.json
var schemaData []byte

const schemaURL = "logs.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaData)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Read decodes and validates logs from r.
func Read(r io.Reader) ([]model.Log, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	var logs []model.Log
	if err := json.Unmarshal(data, &logs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	for _, log := range logs {
		if err := log.Keystrokes.CheckTimes(); err != nil {
			return nil, fmt.Errorf("%w: log %s: %v", ErrInvalidFormat, log.ID, err)
		}
	}
	return logs, nil
}

// Write encodes logs to w, one compact array. Missing keystroke lists are
// written as empty arrays.
func Write(w io.Writer, logs []model.Log) error {
	out := make([]model.Log, len(logs))
	for i, log := range logs {
		if log.Keystrokes == nil {
			log.Keystrokes = model.KeystrokeList{}
		}
		out[i] = log
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

// Load reads logs from path. A missing file yields no logs.
func Load(path string) ([]model.Log, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only log file.
			_ = cerr
		}
	}()
	return Read(bufio.NewReader(file))
}

// Save writes logs to path through a temp file and rename.
func Save(path string, logs []model.Log) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "logs-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp log file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := Write(writer, logs); err != nil {
		return fmt.Errorf("failed to write logs: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush logs: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	return nil
}
