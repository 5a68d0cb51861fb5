package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanGentleman/keymaster/internal/codec"
	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/model"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New(keys.DefaultTable(), nil)
	require.NoError(t, err)
	return p
}

func TestConvertChunkShiftRegion(t *testing.T) {
	p := newParser(t)
	got := p.ConvertChunk("[shift]ab[/shift]")
	assert.Equal(t, []string{model.KeyShift, "'A'", "'B'"}, got.Keys())

	got = p.ConvertChunk("x[shift]1a[/shift]y")
	assert.Equal(t, []string{"'x'", model.KeyShift, "'!'", "'A'", "'y'"}, got.Keys())
}

func TestConvertChunkTiming(t *testing.T) {
	p := newParser(t)
	got := p.ConvertChunk("ab[bksp]")
	require.Len(t, got, 3)
	assert.Nil(t, got[0].Time)
	for _, k := range got[1:] {
		require.NotNil(t, k.Time)
		assert.Equal(t, keys.DefaultTable().PlaceholderDelay, *k.Time)
	}
	assert.NoError(t, got.CheckTimes())
}

func TestConvertChunkCodes(t *testing.T) {
	p := newParser(t)
	tests := []struct {
		name  string
		chunk string
		want  []string
	}{
		{"special codes", "a[bksp]b[enter]", []string{"'a'", model.KeyBackspace, "'b'", model.KeyEnter}},
		{"whitespace", "a b\tc", []string{"'a'", model.KeySpace, "'b'", model.KeyTab, "'c'"}},
		{"unknown code is literal", "[foo]", []string{"'['", "'f'", "'o'", "'o'", "']'"}},
		{"lone marker", "a[", []string{"'a'", "'['"}},
		{"special inside shift", "[shift]a[bksp]b[/shift]", []string{model.KeyShift, "'A'", model.KeyBackspace, "'B'"}},
		{"nested regions", "[shift]a[rshift]b[/rshift]c[/shift]d", []string{model.KeyShift, "'A'", model.KeyShift, "'B'", "'C'", "'d'"}},
		{"literal marker shifted", "[shift][x[/shift]", []string{model.KeyShift, "'{'", "'X'"}},
		{"unclosed region", "[shift]ab", []string{model.KeyShift, "'A'", "'B'"}},
		{"stray close", "a[/shift]b", []string{"'a'", "'b'"}},
		{"capslock longest", "[capslock]a", []string{model.KeyCapsLock, "'a'"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ConvertChunk(tt.chunk).Keys())
		})
	}
}

func TestMatchPriority(t *testing.T) {
	table := keys.DefaultTable()
	table.ShiftMarkers = []keys.ShiftMarker{{Open: "[s", Close: "[/s"}}
	table.SpecialCodes = append(table.SpecialCodes,
		keys.Code{Code: "[sp", Key: model.KeySpace},
		keys.Code{Code: "[spa", Key: model.KeyTab})
	p, err := New(table, nil)
	require.NoError(t, err)

	entry, ok := p.match("[spa")
	require.True(t, ok)
	assert.Equal(t, kindShiftOpen, entry.kind)

	table.ShiftMarkers = nil
	p, err = New(table, nil)
	require.NoError(t, err)
	entry, ok = p.match("[spa")
	require.True(t, ok)
	assert.Equal(t, model.KeyTab, entry.key)
}

func TestDecode(t *testing.T) {
	p := newParser(t)
	raw := "Application: Notes\n\n" +
		"hello[ctrl] [shift]w[/shift]orld\n\n" +
		"[alt]\n\n" +
		"\n\n" +
		"typo[bksp][bksp]o\n"
	logs := p.Decode(raw)
	require.Len(t, logs, 2)
	assert.Equal(t, "hello World", logs[0].String)
	assert.Equal(t, "tyo", logs[1].String)
	assert.NotEqual(t, logs[0].ID, logs[1].ID)

	c := codec.New(keys.DefaultTable(), nil)
	for _, log := range logs {
		assert.True(t, c.CheckLog(log))
		assert.NoError(t, log.Keystrokes.CheckTimes())
	}
}

func TestPruneAndChunks(t *testing.T) {
	p := newParser(t)
	assert.Equal(t, "ab", p.Prune("[up]a[down]b[esc]"))
	assert.Equal(t, []string{"one", "two"}, p.Chunks("one\n\n\ntwo\n\nApplication: x"))
}

func TestNewRejectsBadTable(t *testing.T) {
	table := keys.DefaultTable()
	table.ChunkDelimiter = ""
	_, err := New(table, nil)
	assert.Error(t, err)
}

func TestTruncateCutsOnRunes(t *testing.T) {
	assert.Equal(t, "éé", truncate("ééé", 2))
	assert.Equal(t, "[ctl∆", truncate("[ctl∆]x", 5))
	assert.Equal(t, "ab", truncate("ab", 16))
	assert.Equal(t, "", truncate("abc", 0))
}
