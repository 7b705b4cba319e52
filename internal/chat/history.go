package chat

import "sync"

// Role values stored in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the conversation.
type Message struct {
	Role    string
	Content string
}

// History keeps the last max exchanges for prompt context. Older entries
// are evicted as new ones arrive.
type History struct {
	mu   sync.Mutex
	max  int
	msgs []Message
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = 10
	}
	return &History{max: max}
}

func (h *History) Add(role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, Message{Role: role, Content: content})
	if len(h.msgs) > h.max {
		h.msgs = h.msgs[len(h.msgs)-h.max:]
	}
}

// Messages returns a copy of the retained turns, oldest first.
func (h *History) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = nil
}
