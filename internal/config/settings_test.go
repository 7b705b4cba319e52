package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	st := Load(filepath.Join(t.TempDir(), "nope", "settings.json"))
	s := st.Get()
	assert.True(t, s.RealTimeSpeak)
	assert.False(t, s.PushToTalk)
}

func TestLoadDefaultsOnGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := Load(path).Get()
	assert.True(t, s.RealTimeSpeak)
}

func TestSetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "settings.json")

	st := Load(path)
	require.NoError(t, st.SetPushToTalk(true))
	require.NoError(t, st.SetRealTimeSpeak(false))

	again := Load(path)
	s := again.Get()
	assert.True(t, s.PushToTalk)
	assert.False(t, s.RealTimeSpeak)
}
