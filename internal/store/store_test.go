package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanGentleman/keymaster/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "keymaster.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func keystrokes(keys ...string) model.KeystrokeList {
	var out model.KeystrokeList
	for i, k := range keys {
		out.Append(k, 0.1*float64(i))
	}
	return out
}

func TestInsertAndListLogs(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	first := model.NewLog("hi", keystrokes(model.KeyShift, "'H'", "'i'"))
	second := model.NewLog("", nil)
	third := model.NewLog("a b", keystrokes("'a'", model.KeySpace, "'b'"))
	require.NoError(t, st.InsertLog(ctx, first, "record"))
	require.NoError(t, st.InsertLogs(ctx, []model.Log{second, third}, "decode"))

	logs, err := st.ListLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, first, logs[0])
	assert.Equal(t, second.ID, logs[1].ID)
	assert.Empty(t, logs[1].Keystrokes)
	assert.Equal(t, third, logs[2])
	assert.Nil(t, logs[2].Keystrokes[0].Time)
}

func TestInsertDuplicateIDRollsBack(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	log := model.NewLog("x", keystrokes("'x'"))
	require.NoError(t, st.InsertLog(ctx, log, "record"))

	other := model.NewLog("y", keystrokes("'y'"))
	err := st.InsertLogs(ctx, []model.Log{other, log}, "record")
	require.Error(t, err)

	logs, err := st.ListLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, log.ID, logs[0].ID)
}

func TestDeleteAndReset(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	a := model.NewLog("a", keystrokes("'a'"))
	b := model.NewLog("b", keystrokes("'b'"))
	require.NoError(t, st.InsertLogs(ctx, []model.Log{a, b}, "generate"))

	n, err := st.DeleteLogs(ctx, []string{a.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	logs, err := st.ListLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, b.ID, logs[0].ID)

	require.NoError(t, st.Reset(ctx))
	logs, err = st.ListLogs(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
