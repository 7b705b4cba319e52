package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(4)
	for i := 0; i < 6; i++ {
		h.Add(RoleUser, fmt.Sprintf("msg-%d", i))
	}

	msgs := h.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "msg-2", msgs[0].Content)
	assert.Equal(t, "msg-5", msgs[3].Content)
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(10)
	h.Add(RoleUser, "hello")
	h.Add(RoleAssistant, "hi")
	require.Len(t, h.Messages(), 2)

	h.Clear()
	assert.Empty(t, h.Messages())
}

func TestHistoryMessagesIsCopy(t *testing.T) {
	h := NewHistory(10)
	h.Add(RoleUser, "hello")

	msgs := h.Messages()
	msgs[0].Content = "mutated"
	assert.Equal(t, "hello", h.Messages()[0].Content)
}
