package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendKeepsLeadingNil(t *testing.T) {
	var list KeystrokeList
	require.True(t, list.Empty())
	list.Append("'a'", 0.3)
	list.Append(KeySpace, 0.2)
	require.Len(t, list, 2)
	assert.Nil(t, list[0].Time)
	require.NotNil(t, list[1].Time)
	assert.Equal(t, 0.2, *list[1].Time)
	assert.NoError(t, list.CheckTimes())
	assert.Equal(t, []string{"'a'", KeySpace}, list.Keys())
}

func TestCheckTimes(t *testing.T) {
	assert.NoError(t, KeystrokeList{}.CheckTimes())
	assert.ErrorIs(t, KeystrokeList{{Key: "'a'", Time: Delay(1)}}.CheckTimes(), ErrLeadingTime)
	assert.ErrorIs(t, KeystrokeList{{Key: "'a'"}, {Key: "'b'"}}.CheckTimes(), ErrLeadingTime)
	assert.Error(t, KeystrokeList{{Key: "'a'"}, {Key: "'b'", Time: Delay(-1)}}.CheckTimes())
}

func TestNewLogAssignsID(t *testing.T) {
	a := NewLog("hi", nil)
	b := NewLog("hi", nil)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestLegalKeyLabel(t *testing.T) {
	assert.Equal(t, "a", LegalKey{Char: "a"}.Label())
	assert.Equal(t, "<space>", LegalKey{Char: KeySpace, IsSpecial: true}.Label())
	assert.Equal(t, "<stop>", LegalKey{Char: StopKey, IsSpecial: true}.Label())
}
