// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrLeadingTime reports a violation of the leading nil time invariant.
var ErrLeadingTime = errors.New("only the first keystroke may have no time")

// KeystrokeList is an ordered keystroke sequence.
type KeystrokeList []Keystroke

// Append adds a key. The first keystroke always gets a nil time.
func (l *KeystrokeList) Append(key string, delay float64) {
	if len(*l) == 0 {
		*l = append(*l, Keystroke{Key: key})
		return
	}
	*l = append(*l, Keystroke{Key: key, Time: Delay(delay)})
}

// Empty reports whether the list holds no keystrokes.
func (l KeystrokeList) Empty() bool {
	return len(l) == 0
}

// Keys returns the key of every keystroke in order.
func (l KeystrokeList) Keys() []string {
	out := make([]string, len(l))
	for i, k := range l {
		out[i] = k.Key
	}
	return out
}

// CheckTimes verifies that exactly the first keystroke has a nil time and no
// time is negative.
func (l KeystrokeList) CheckTimes() error {
	for i, k := range l {
		switch {
		case i == 0 && k.Time != nil:
			return fmt.Errorf("%w: first keystroke %q has time %v", ErrLeadingTime, k.Key, *k.Time)
		case i > 0 && k.Time == nil:
			return fmt.Errorf("%w: keystroke %d (%q) has no time", ErrLeadingTime, i, k.Key)
		case k.Time != nil && *k.Time < 0:
			return fmt.Errorf("keystroke %d (%q) has negative time %v", i, k.Key, *k.Time)
		}
	}
	return nil
}

// Log is one completed typing or generation session.
type Log struct {
	ID         string        `json:"id"`
	String     string        `json:"string"`
	Keystrokes KeystrokeList `json:"keystrokes"`
}

// NewLog builds a Log with a fresh id.
func NewLog(text string, keystrokes KeystrokeList) Log {
	return Log{
		ID:         uuid.NewString(),
		String:     text,
		Keystrokes: keystrokes,
	}
}

// LegalKey is the display form of a valid, non-unicode keystroke.
type LegalKey struct {
	Char      string
	IsSpecial bool
}

// Label returns a human-readable name, e.g. "a" or "<space>".
func (k LegalKey) Label() string {
	if !k.IsSpecial {
		return k.Char
	}
	if label, ok := SpecialLabel(k.Char); ok {
		return label
	}
	return k.Char
}
