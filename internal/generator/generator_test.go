package generator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanGentleman/keymaster/internal/codec"
	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/model"
)

func newGenerator(t *testing.T, params Params) *Generator {
	t.Helper()
	g, err := NewWithSource(rand.NewSource(42), keys.DefaultTable(), params, nil)
	require.NoError(t, err)
	return g
}

func TestGenerateShiftInsertion(t *testing.T) {
	g := newGenerator(t, DefaultParams())
	got, err := g.Generate("Hi", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{model.KeyShift, "'H'", "'i'"}, got.Keys())

	got, err = g.Generate("aBC!d E", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"'a'", model.KeyShift, "'B'", "'C'", "'!'", "'d'",
		model.KeySpace, model.KeyShift, "'E'",
	}, got.Keys())
}

func TestGenerateLeadingNil(t *testing.T) {
	g := newGenerator(t, DefaultParams())
	for _, input := range []string{"Hi", "hello world", "A", " x"} {
		got, err := g.Generate(input, 1.5)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Nil(t, got[0].Time, input)
		assert.NoError(t, got.CheckTimes(), input)
	}
	got, err := g.Generate("", 1)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestGenerateRoundTrip(t *testing.T) {
	g := newGenerator(t, DefaultParams())
	c := codec.New(keys.DefaultTable(), nil)
	inputs := []string{
		"Hello, World!",
		"The quick brown fox jumps over the lazy dog.",
		"tabs\tand\nnewlines",
		"symbols ~!@#$%^&*()_+{}|:\"<>? and 1234567890-=[]\\;',./",
	}
	for _, input := range inputs {
		ks, err := g.Generate(input, 1)
		require.NoError(t, err)
		assert.Equal(t, input, c.Render(ks))
	}
}

func TestGenerateCharacterPolicy(t *testing.T) {
	g := newGenerator(t, DefaultParams())
	c := codec.New(keys.DefaultTable(), nil)

	ks, err := g.Generate("café`", 1)
	require.NoError(t, err)
	assert.Equal(t, "caf", c.Render(ks))

	params := DefaultParams()
	params.AllowUnicode = true
	params.AllowNewlines = false
	g = newGenerator(t, params)
	ks, err = g.Generate("café\nok", 1)
	require.NoError(t, err)
	assert.Equal(t, "café ok", c.Render(ks))
}

func TestGenerateStops(t *testing.T) {
	g := newGenerator(t, DefaultParams())
	ks, err := g.Generate("ab"+model.StopKey+"cd", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"'a'", "'b'", model.StopKey}, ks.Keys())

	params := DefaultParams()
	params.MaxWords = 2
	g = newGenerator(t, params)
	ks, err = g.Generate("one two three", 1)
	require.NoError(t, err)
	assert.Equal(t, "one two", codec.New(keys.DefaultTable(), nil).Render(ks))
}

func TestGenerateDelays(t *testing.T) {
	params := Params{Mean: 0.2, StdDev: 0.05, MinDelay: 0.15}
	g := newGenerator(t, params)
	ks, err := g.Generate("abcdefghijklmnopqrstuvwxyz", 2)
	require.NoError(t, err)
	for _, k := range ks[1:] {
		require.NotNil(t, k.Time)
		assert.GreaterOrEqual(t, *k.Time, 0.0)
		// Mean 0.1 at double speed falls under the floor, so most samples are rescaled.
		assert.Less(t, *k.Time, 0.3)
	}

	fixed := newGenerator(t, Params{Mean: 0.1})
	ks, err = fixed.Generate("abc", 1)
	require.NoError(t, err)
	for _, k := range ks[1:] {
		assert.InDelta(t, 0.1, *k.Time, 1e-12)
	}

	// A sample under the floor becomes floor + sample/10.
	floored := newGenerator(t, Params{Mean: 0.1, MinDelay: 0.15})
	ks, err = floored.Generate("abc", 1)
	require.NoError(t, err)
	for _, k := range ks[1:] {
		require.NotNil(t, k.Time)
		assert.InDelta(t, 0.16, *k.Time, 1e-12)
	}
}

func TestGenerateBadSpeed(t *testing.T) {
	g := newGenerator(t, DefaultParams())
	for _, speed := range []float64{0, -1} {
		_, err := g.Generate("x", speed)
		assert.ErrorIs(t, err, ErrBadSpeed)
	}
	_, err := NewWithSource(rand.NewSource(1), keys.DefaultTable(), Params{Mean: -1}, nil)
	assert.Error(t, err)
}

func TestGenerateLog(t *testing.T) {
	g := newGenerator(t, DefaultParams())
	log, err := g.GenerateLog("Typed Text", 1)
	require.NoError(t, err)
	assert.Equal(t, "Typed Text", log.String)
	assert.NotEmpty(t, log.ID)
	assert.True(t, codec.New(keys.DefaultTable(), nil).CheckLog(log))
}
