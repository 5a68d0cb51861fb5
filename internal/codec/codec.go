// Package codec converts keystroke sequences to the text they type.
package codec

import (
	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/logging"
	"github.com/TanGentleman/keymaster/internal/model"
)

// Codec renders and validates keystroke sequences.
type Codec struct {
	table  keys.Table
	oracle *keys.Oracle
	logger logging.Logger
}

// New returns a Codec for the given code table.
func New(table keys.Table, logger logging.Logger) *Codec {
	logger = logging.OrNop(logger)
	return &Codec{
		table:  table,
		oracle: keys.NewOracle(table, logger),
		logger: logger,
	}
}

// Oracle returns the validity oracle the codec filters with.
func (c *Codec) Oracle() *keys.Oracle {
	return c.oracle
}

// Render returns the text produced by typing the keystrokes.
func (c *Codec) Render(keystrokes model.KeystrokeList) string {
	text, _ := c.RenderWords(keystrokes)
	return text
}

// RenderWords returns the typed text and the number of spaces typed.
// Invalid keystrokes are skipped. Shift and caps lock change nothing since
// shifted characters are stored already shifted.
func (c *Codec) RenderWords(keystrokes model.KeystrokeList) (string, int) {
	out := make([]rune, 0, len(keystrokes))
	words := 0
	for i, k := range keystrokes {
		if !c.oracle.Valid(k.Key) {
			c.logger.Warn("msg", "Skipping invalid keystroke", "index", i, "key", k.Key)
			continue
		}
		switch k.Key {
		case model.KeyBackspace:
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case model.KeySpace:
			out = append(out, ' ')
			words++
		case model.KeyEnter:
			out = append(out, '\n')
		case model.KeyTab:
			out = append(out, '\t')
		case model.KeyShift, model.KeyCapsLock:
		case model.StopKey:
			out = append(out, []rune(model.StopKey)...)
		default:
			r, _ := model.Unwrap(k.Key)
			if c.table.Banned(r) {
				continue
			}
			out = append(out, r)
		}
	}
	return string(out), words
}

// Validate reports whether the keystrokes render to expected. A mismatch is
// logged with the first diverging position.
func (c *Codec) Validate(keystrokes model.KeystrokeList, expected string) bool {
	got := c.Render(keystrokes)
	if got == expected {
		return true
	}
	d := FirstDivergence(got, expected)
	c.logger.Warn("msg", "Keystrokes do not match string",
		"index", d.Index,
		"extra", d.Extra,
		"rendered", got,
		"expected", expected)
	return false
}

// CheckLog reports whether the log keystrokes reproduce its string.
func (c *Codec) CheckLog(log model.Log) bool {
	if c.Validate(log.Keystrokes, log.String) {
		return true
	}
	c.logger.Warn("msg", "Log string does not match keystrokes", "id", log.ID)
	return false
}

// Divergence describes where two strings first differ.
type Divergence struct {
	Index int
	// Extra names the side holding the character at Index: "rendered",
	// "expected", or "both" when the characters differ.
	Extra string
	Char  string
}

// FirstDivergence scans rendered and expected once and reports the first
// differing rune position. Index is -1 when the strings are equal.
func FirstDivergence(rendered, expected string) Divergence {
	a, b := []rune(rendered), []rune(expected)
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return Divergence{Index: i, Extra: "both", Char: string(a[i])}
		}
	}
	switch {
	case len(a) > n:
		return Divergence{Index: n, Extra: "rendered", Char: string(a[n])}
	case len(b) > n:
		return Divergence{Index: n, Extra: "expected", Char: string(b[n])}
	}
	return Divergence{Index: -1}
}
