package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/model"
)

func list(keys ...string) model.KeystrokeList {
	var out model.KeystrokeList
	for _, k := range keys {
		out.Append(k, 0.1)
	}
	return out
}

func TestRender(t *testing.T) {
	c := New(keys.DefaultTable(), nil)
	tests := []struct {
		name  string
		keys  model.KeystrokeList
		want  string
		words int
	}{
		{"empty", nil, "", 0},
		{"chars", list("'h'", "'i'"), "hi", 0},
		{"whitespace", list("'a'", model.KeySpace, "'b'", model.KeyEnter, model.KeyTab), "a b\n\t", 1},
		{"backspace", list("'a'", "'b'", model.KeyBackspace, "'c'"), "ac", 0},
		{"backspace on empty", list(model.KeyBackspace, "'x'"), "x", 0},
		{"shift is a no-op", list(model.KeyShift, "'H'", model.KeyCapsLock, "'I'"), "HI", 0},
		{"stop sentinel", list("'a'", model.StopKey), "a" + model.StopKey, 0},
		{"banned dropped", list("'a'", "'`'", "'b'"), "ab", 0},
		{"invalid skipped", list("'a'", "Key.esc", "'b'"), "ab", 0},
		{"two words", list("'a'", model.KeySpace, "'b'", model.KeySpace), "a b ", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, words := c.RenderWords(tt.keys)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.words, words)
		})
	}
}

func TestValidate(t *testing.T) {
	c := New(keys.DefaultTable(), nil)
	ks := list("'o'", "'k'")
	assert.True(t, c.Validate(ks, "ok"))
	assert.False(t, c.Validate(ks, "oks"))
	assert.False(t, c.Validate(ks, "o"))
	assert.True(t, c.CheckLog(model.Log{ID: "x", String: "ok", Keystrokes: ks}))
	assert.False(t, c.CheckLog(model.Log{ID: "y", String: "no", Keystrokes: ks}))
}

func TestFirstDivergence(t *testing.T) {
	assert.Equal(t, Divergence{Index: -1}, FirstDivergence("abc", "abc"))
	assert.Equal(t, Divergence{Index: 1, Extra: "both", Char: "x"}, FirstDivergence("axc", "abc"))
	assert.Equal(t, Divergence{Index: 2, Extra: "rendered", Char: "c"}, FirstDivergence("abc", "ab"))
	assert.Equal(t, Divergence{Index: 2, Extra: "expected", Char: "c"}, FirstDivergence("ab", "abc"))
}
