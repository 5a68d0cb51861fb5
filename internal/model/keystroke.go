// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Special key tokens. These strings are part of the persisted log format.
const (
	KeySpace     = "Key.space"
	KeyBackspace = "Key.backspace"
	KeyShift     = "Key.shift"
	KeyCapsLock  = "Key.caps_lock"
	KeyTab       = "Key.tab"
	KeyEnter     = "Key.enter"
)

// StopKey is the reserved sentinel that terminates capture, generation and replay.
const StopKey = "∆"

// Quote wraps single character keys.
const Quote = '\''

var specialKeys = map[string]string{
	KeySpace:     "<space>",
	KeyBackspace: "<bksp>",
	KeyShift:     "<shift>",
	KeyCapsLock:  "<caps>",
	KeyTab:       "<tab>",
	KeyEnter:     "<enter>",
}

// IsSpecial reports whether key is one of the fixed special key tokens.
func IsSpecial(key string) bool {
	_, ok := specialKeys[key]
	return ok
}

// SpecialLabel returns the display label for a special key or the stop sentinel.
func SpecialLabel(key string) (string, bool) {
	if key == StopKey {
		return "<stop>", true
	}
	label, ok := specialKeys[key]
	return label, ok
}

// Wrap quotes a single character into its key form, e.g. 'a'.
func Wrap(r rune) string {
	return string([]rune{Quote, r, Quote})
}

// Unwrap returns the character of a wrapped key.
func Unwrap(key string) (rune, bool) {
	if len(key) < 3 || key[0] != Quote || key[len(key)-1] != Quote {
		return 0, false
	}
	inner := key[1 : len(key)-1]
	r, size := utf8.DecodeRuneInString(inner)
	if r == utf8.RuneError || size != len(inner) {
		return 0, false
	}
	return r, true
}

// Keystroke is one key event with the delay in seconds since the previous one.
// Time is nil only for the first keystroke of a sequence.
type Keystroke struct {
	Key  string
	Time *float64
}

// Delay returns a pointer to d for use as a Keystroke time.
func Delay(d float64) *float64 {
	return &d
}

// MarshalJSON encodes the keystroke as ["key", time].
func (k Keystroke) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{k.Key, k.Time})
}

// UnmarshalJSON decodes the ["key", time] pair form.
func (k *Keystroke) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("keystroke must have 2 elements, got %d", len(pair))
	}
	var key string
	if err := json.Unmarshal(pair[0], &key); err != nil {
		return fmt.Errorf("keystroke key: %w", err)
	}
	var t *float64
	if err := json.Unmarshal(pair[1], &t); err != nil {
		return fmt.Errorf("keystroke time: %w", err)
	}
	if t != nil && *t < 0 {
		return fmt.Errorf("keystroke time must be non-negative, got %v", *t)
	}
	k.Key = key
	k.Time = t
	return nil
}

// CompressDelay re-encodes delays above limit so long pauses keep their order
// without dominating timing data. Delays at or below limit are unchanged.
func CompressDelay(d, limit float64) float64 {
	if limit <= 0 || d <= limit {
		return d
	}
	return limit + (d-limit)/10
}

// WhitespaceKey maps space, tab and newline to their special key tokens.
func WhitespaceKey(r rune) (string, bool) {
	switch r {
	case ' ':
		return KeySpace, true
	case '\t':
		return KeyTab, true
	case '\n':
		return KeyEnter, true
	}
	return "", false
}
