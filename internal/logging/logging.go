// Package logging provides the diagnostic logger used across keymaster.
package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lixenwraith/log"
)

// Logger is the subset of *log.Logger used by core packages.
// Calls follow the key-value convention: Warn("msg", "text", "key", value).
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(...any) {}
func (nopLogger) Info(...any)  {}
func (nopLogger) Warn(...any)  {}
func (nopLogger) Error(...any) {}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// New starts a console logger writing to stderr at the given level.
// An empty level means "warn"; "none" disables output.
func New(level string) (*log.Logger, error) {
	// The log package creates its directory even with file output off.
	args := []string{"disable_file=true", "directory=" + os.TempDir()}
	if strings.EqualFold(strings.TrimSpace(level), "none") {
		args = append(args, "enable_console=false", fmt.Sprintf("level=%d", log.LevelError))
	} else {
		value, err := ParseLevel(level)
		if err != nil {
			return nil, err
		}
		args = append(args,
			fmt.Sprintf("level=%d", value),
			"enable_console=true",
			"console_target=stderr")
	}

	logger := log.NewLogger()
	if err := logger.ApplyConfigString(args...); err != nil {
		return nil, fmt.Errorf("failed to configure logger: %w", err)
	}
	if err := logger.Start(); err != nil {
		return nil, fmt.Errorf("failed to start logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a level name to the numeric level of the log package.
func ParseLevel(level string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "", "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}

// Close flushes and stops the logger.
func Close(logger *log.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Shutdown(time.Second)
}
