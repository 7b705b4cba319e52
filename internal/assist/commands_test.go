package assist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCommandMappings(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"notepad", "start notepad"},
		{"open notepad", "start notepad"},
		{"task manager", "taskmgr"},
		{"open the task manager", "taskmgr"},
		{"youtube", "start chrome https://youtube.com"},
		{"shutdown", "shutdown /s /t 0"},
		{"volume up", "nircmd.exe changesysvolume 2000"},
		{"take a screenshot", "snippingtool /clip"},
	}
	for _, tc := range cases {
		got, ok := LocalCommand(tc.in)
		require.True(t, ok, "input: %s", tc.in)
		assert.Equal(t, tc.want, got, "input: %s", tc.in)
	}
}

func TestLocalCommandLongestMatchWins(t *testing.T) {
	// "volume up" must not be shadowed by a shorter phrase containing it.
	got, ok := LocalCommand("turn the volume up a bit")
	require.True(t, ok)
	assert.Equal(t, "nircmd.exe changesysvolume 2000", got)
}

func TestLocalCommandURLs(t *testing.T) {
	got, ok := LocalCommand("open https://example.org/docs")
	require.True(t, ok)
	assert.Equal(t, "start chrome https://example.org/docs", got)

	got, ok = LocalCommand("go to example.org")
	require.True(t, ok)
	assert.Equal(t, "start chrome https://example.org", got)

	got, ok = LocalCommand("open hacker news website")
	require.True(t, ok)
	assert.Equal(t, "start chrome https://hackernews.com", got)
}

func TestLocalCommandOpenUnknownApp(t *testing.T) {
	got, ok := LocalCommand("open super tool")
	require.True(t, ok)
	assert.Equal(t, "start supertool", got)
}

func TestLocalCommandRunPassthrough(t *testing.T) {
	got, ok := LocalCommand("run ipconfig /all")
	require.True(t, ok)
	assert.Equal(t, "ipconfig /all", got)
}

func TestLocalCommandUnrecognized(t *testing.T) {
	_, ok := LocalCommand("tell me a story about dragons")
	assert.False(t, ok)

	_, ok = LocalCommand("")
	assert.False(t, ok)
}
