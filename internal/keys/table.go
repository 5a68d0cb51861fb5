// Package keys holds the key code table and the key validity oracle.
package keys

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/TanGentleman/keymaster/internal/model"
)

// ShiftMarker is a pair of codes bracketing characters typed with shift held.
type ShiftMarker struct {
	Open  string
	Close string
}

// Code maps a raw log control code to a special key token.
type Code struct {
	Code string
	Key  string
}

// Table is the code table shared by the parser, codec and generator.
// Treat it as read-only once handed to a constructor.
type Table struct {
	// BeginMarker starts every control code in raw text logs.
	BeginMarker rune
	// ShiftMarkers are matched before SpecialCodes, in order.
	ShiftMarkers []ShiftMarker
	// SpecialCodes are matched in order after ShiftMarkers.
	SpecialCodes []Code
	// BannedCodes are stripped from raw text before chunking.
	BannedCodes []string
	// HeaderPrefix marks chunks that are source headers, not typing.
	HeaderPrefix   string
	ChunkDelimiter string
	// PlaceholderDelay is the delay given to decoded keystrokes, which carry no timing.
	PlaceholderDelay float64
	// ShiftMap maps unshifted symbols to their shifted form. Letters are upper-cased.
	ShiftMap   map[rune]rune
	BannedKeys map[rune]struct{}
}

const (
	defaultShiftPairs       = "1!2@3#4$5%6^7&8*9(0)-_=+[{]}\\|;:'\",<.>/?`~"
	defaultBannedKeys       = "`"
	defaultPlaceholderDelay = 0.1
)

// DefaultTable returns the built-in code table.
func DefaultTable() Table {
	return Table{
		BeginMarker: '[',
		ShiftMarkers: []ShiftMarker{
			{Open: "[shift]", Close: "[/shift]"},
			{Open: "[rshift]", Close: "[/rshift]"},
		},
		SpecialCodes: []Code{
			{Code: "[backspace]", Key: model.KeyBackspace},
			{Code: "[bksp]", Key: model.KeyBackspace},
			{Code: "[capslock]", Key: model.KeyCapsLock},
			{Code: "[caps]", Key: model.KeyCapsLock},
			{Code: "[enter]", Key: model.KeyEnter},
			{Code: "[return]", Key: model.KeyEnter},
			{Code: "[tab]", Key: model.KeyTab},
			{Code: "[space]", Key: model.KeySpace},
		},
		BannedCodes: []string{
			"[ctrl]", "[alt]", "[cmd]", "[esc]", "[fn]",
			"[up]", "[down]", "[left]", "[right]",
		},
		HeaderPrefix:     "Application:",
		ChunkDelimiter:   "\n\n",
		PlaceholderDelay: defaultPlaceholderDelay,
		ShiftMap:         ShiftMapFromPairs(defaultShiftPairs),
		BannedKeys:       RuneSet(defaultBannedKeys),
	}
}

// ShiftMapFromPairs builds a shift map from alternating unshifted/shifted runes.
func ShiftMapFromPairs(pairs string) map[rune]rune {
	runes := []rune(pairs)
	out := make(map[rune]rune, len(runes)/2)
	for i := 0; i+1 < len(runes); i += 2 {
		out[runes[i]] = runes[i+1]
	}
	return out
}

// RuneSet returns the set of runes in s.
func RuneSet(s string) map[rune]struct{} {
	out := make(map[rune]struct{}, len(s))
	for _, r := range s {
		out[r] = struct{}{}
	}
	return out
}

// Validate checks the table for construction mistakes.
func (t Table) Validate() error {
	var errs []error
	if t.BeginMarker == 0 {
		errs = append(errs, errors.New("begin marker is empty"))
	}
	if t.ChunkDelimiter == "" {
		errs = append(errs, errors.New("chunk delimiter is empty"))
	}
	if t.PlaceholderDelay < 0 {
		errs = append(errs, fmt.Errorf("placeholder delay must be >= 0, got %v", t.PlaceholderDelay))
	}
	marker := string(t.BeginMarker)
	for _, m := range t.ShiftMarkers {
		if !strings.HasPrefix(m.Open, marker) || !strings.HasPrefix(m.Close, marker) {
			errs = append(errs, fmt.Errorf("shift marker %q/%q must start with %q", m.Open, m.Close, marker))
		}
		if m.Open == m.Close {
			errs = append(errs, fmt.Errorf("shift marker %q opens and closes", m.Open))
		}
	}
	for _, c := range t.SpecialCodes {
		if !strings.HasPrefix(c.Code, marker) {
			errs = append(errs, fmt.Errorf("code %q must start with %q", c.Code, marker))
		}
		if !model.IsSpecial(c.Key) {
			errs = append(errs, fmt.Errorf("code %q maps to unknown key %q", c.Code, c.Key))
		}
	}
	for _, code := range t.BannedCodes {
		if code == "" {
			errs = append(errs, errors.New("banned code is empty"))
		}
	}
	return errors.Join(errs...)
}

// Shift returns the character produced by typing r with shift held.
func (t Table) Shift(r rune) rune {
	if shifted, ok := t.ShiftMap[r]; ok {
		return shifted
	}
	if r >= 'a' && r <= 'z' {
		return unicode.ToUpper(r)
	}
	return r
}

// NeedsShift reports whether typing r requires shift.
func (t Table) NeedsShift(r rune) bool {
	if r >= 'A' && r <= 'Z' {
		return true
	}
	for _, shifted := range t.ShiftMap {
		if shifted == r {
			return true
		}
	}
	return false
}

// Banned reports whether r is in the banned key set.
func (t Table) Banned(r rune) bool {
	_, ok := t.BannedKeys[r]
	return ok
}

// Typeable reports whether r is on the ASCII keyboard.
func Typeable(r rune) bool {
	return r >= ' ' && r <= '~'
}
