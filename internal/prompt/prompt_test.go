package prompt

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanGentleman/keymaster/internal/keys"
)

func TestReadSkipsBlankAndComments(t *testing.T) {
	prompts, err := Read(strings.NewReader("# header\n\n  hello world \nsecond line\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world", "second line"}, prompts)
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader("\n# only comments\n"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	prompts, err := LoadOrDefault(filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.Equal(t, Default, prompts)

	path := filepath.Join(dir, "prompts.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o644))
	prompts, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, prompts)
}

func TestFilter(t *testing.T) {
	table := keys.DefaultTable()
	keep := func(r rune) bool { return keys.Typeable(r) && !table.Banned(r) }
	got := Filter([]string{"plain text", "café", "back`tick", "Shift! ok"}, keep)
	assert.Equal(t, []string{"plain text", "Shift! ok"}, got)
}

func TestDefaultPromptsAreTypeable(t *testing.T) {
	table := keys.DefaultTable()
	keep := func(r rune) bool { return keys.Typeable(r) && !table.Banned(r) }
	assert.Equal(t, Default, Filter(Default, keep))
}

func TestPick(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, "", Pick(rng, nil))
	got := Pick(rng, []string{"a", "b"})
	assert.Contains(t, []string{"a", "b"}, got)
}
