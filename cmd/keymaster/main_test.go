package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanGentleman/keymaster/internal/logfile"
	"github.com/TanGentleman/keymaster/internal/logging"
	"github.com/TanGentleman/keymaster/internal/model"
)

type testEnv struct {
	db  string
	cfg string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	return testEnv{
		db:  filepath.Join(dir, "keymaster.db"),
		cfg: filepath.Join(dir, "config.toml"),
	}
}

// run executes the CLI with stdin and returns stdout.
func (e testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--db", e.db, "--config", e.cfg, "--log-level", "none"}, args...))
	err := cmd.Execute()
	_ = logging.Close(app.logger)
	app = appState{}
	return out.String(), err
}

func readLogs(t *testing.T, out string) []model.Log {
	t.Helper()
	logs, err := logfile.Read(strings.NewReader(out))
	require.NoError(t, err)
	return logs
}

func TestGenerateWritesJSON(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "", "generate", "--seed", "7", "Hi there")
	require.NoError(t, err)
	logs := readLogs(t, out)
	require.Len(t, logs, 1)
	assert.Equal(t, "Hi there", logs[0].String)
	assert.Equal(t, model.KeyShift, logs[0].Keystrokes[0].Key)
	assert.Nil(t, logs[0].Keystrokes[0].Time)
}

func TestGenerateRejectsBadSpeed(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "", "generate", "--speed", "0", "abc")
	assert.Error(t, err)
}

func TestDecodeFromStdin(t *testing.T) {
	env := newTestEnv(t)
	raw := "Application: Notes\n\nhello[shift]w[/shift]orld\n\nsecond[bksp]D"
	out, err := env.run(t, raw, "decode")
	require.NoError(t, err)
	logs := readLogs(t, out)
	require.Len(t, logs, 2)
	assert.Equal(t, "helloWorld", logs[0].String)
	assert.Equal(t, "seconD", logs[1].String)
}

func TestImportStatsDedupExport(t *testing.T) {
	env := newTestEnv(t)
	input := `[
		{"id":"a","string":"ab","keystrokes":[["'a'",null],["'b'",0.2]]},
		{"id":"b","string":"ab","keystrokes":[["'a'",null],["'b'",0.4]]},
		{"id":"c","string":"x","keystrokes":[["'x'",null]]}
	]`
	_, err := env.run(t, input, "import")
	require.NoError(t, err)

	out, err := env.run(t, "", "logs")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "ab")

	out, err = env.run(t, "", "stats", "--keys")
	require.NoError(t, err)
	assert.Contains(t, out, "Logs: 3")
	assert.Contains(t, out, "Per-Key Delay")

	_, err = env.run(t, "", "stats", "nope")
	assert.Error(t, err)

	out, err = env.run(t, "", "dedup")
	require.NoError(t, err)
	assert.Contains(t, out, "duplicate b")
	assert.Contains(t, out, "--confirm")

	out, err = env.run(t, "", "export")
	require.NoError(t, err)
	assert.Len(t, readLogs(t, out), 3, "dedup without --confirm changes nothing")

	out, err = env.run(t, "", "dedup", "--confirm")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 duplicate logs, 2 remain.")

	out, err = env.run(t, "", "export")
	require.NoError(t, err)
	logs := readLogs(t, out)
	require.Len(t, logs, 2)
	assert.Equal(t, "a", logs[0].ID)
	assert.Equal(t, "c", logs[1].ID)
}

func TestStatsExcludesOutliersByDefault(t *testing.T) {
	env := newTestEnv(t)
	input := `[{"id":"slow","string":"abc","keystrokes":[["'a'",null],["'b'",0.2],["'c'",2.0]]}]`
	_, err := env.run(t, input, "import")
	require.NoError(t, err)

	out, err := env.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Timed samples: 1")
	assert.Contains(t, out, "Highest delay (s): 0.200")

	out, err = env.run(t, "", "stats", "--exclude-outliers=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Timed samples: 2")
	assert.Contains(t, out, "Highest delay (s): 2.000")

	out, err = env.run(t, "", "stats", "--cutoff", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Highest delay (s): 2.000")
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, `[{"id":"a","string":"a","keystrokes":[["'a'"]]}]`, "import")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)
	good := `[{"id":"a","string":"ab","keystrokes":[["'a'",null],["'b'",0.1]]}]`
	out, err := env.run(t, good, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "All 1 logs valid.")

	bad := `[{"id":"z","string":"ax","keystrokes":[["'a'",null],["'b'",0.1]]}]`
	out, err = env.run(t, bad, "validate")
	assert.Error(t, err)
	assert.Contains(t, out, "z: differs at position 1")
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, writeFile(env.cfg, "[generator]\nallow-newlines = false\n"))
	out, err := env.run(t, "a\nb", "generate", "--seed", "3")
	require.NoError(t, err)
	logs := readLogs(t, out)
	require.Len(t, logs, 1)
	assert.Equal(t, "a b", logs[0].String)
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, writeFile(env.cfg, defaultConfigTemplate()))
	_, err := env.run(t, "", "logs")
	assert.NoError(t, err)
}

func writeFile(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o644)
}
