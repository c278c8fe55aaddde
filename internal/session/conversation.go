package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"opschat/internal/domain"
)

// Conversation is an append-only ordered message log. It owns its message
// sequence exclusively: entries are never edited in place, and views never
// expose the underlying slice. Lives for one session and is discarded with it.
type Conversation struct {
	mu       sync.RWMutex
	messages []domain.Message
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message to the end of the log. Missing IDs and timestamps are
// filled in. O(1), preserves order, never mutates prior entries.
func (c *Conversation) Append(msg domain.Message) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Window returns a copy of the last min(k, len) messages in original order.
// The underlying log is not modified; both prompt-building stages use this so
// they see a consistent recent-history view.
func (c *Conversation) Window(k int) []domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if k <= 0 {
		return nil
	}
	start := 0
	if len(c.messages) > k {
		start = len(c.messages) - k
	}
	out := make([]domain.Message, len(c.messages)-start)
	copy(out, c.messages[start:])
	return out
}

// Messages returns a copy of the full log.
func (c *Conversation) Messages() []domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// DisplayPair is a simplified user/assistant pairing for front-end rendering.
type DisplayPair struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// DisplayPairs projects the role-tagged log into user/assistant pairs. Tool
// messages are folded in as annotated assistant-side entries rather than
// dropped, so tool activity stays visible to the end user. System messages
// are not rendered.
func (c *Conversation) DisplayPairs() []DisplayPair {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var pairs []DisplayPair
	lastUser := ""
	for _, msg := range c.messages {
		switch msg.Role {
		case domain.RoleUser:
			lastUser = msg.Content
		case domain.RoleAssistant:
			pairs = append(pairs, DisplayPair{User: lastUser, Assistant: msg.Content})
			lastUser = ""
		case domain.RoleTool:
			pairs = append(pairs, DisplayPair{
				Assistant: fmt.Sprintf("[TOOL:%s] %s", msg.ToolName, msg.Content),
			})
		}
	}
	return pairs
}
