package session

import (
	"context"
	"errors"
	"sync"
)

// TurnRunner runs one conversational turn against a conversation
// (implemented by brain.Engine).
type TurnRunner interface {
	Turn(ctx context.Context, conv *Conversation, userMessage string) (string, error)
}

// ErrEmptyChannelID is returned when Handle is called with an empty channel ID.
var ErrEmptyChannelID = errors.New("session: channel ID must not be empty")

// channel pairs a conversation with a mutex that serializes its turns.
type channel struct {
	mu   sync.Mutex
	conv *Conversation
}

// Manager owns per-channel conversations and routes user messages through the
// turn runner. Channels are independent; they share only the read-only tool
// registry behind the runner, so no cross-channel locking is needed. Turns on
// the same channel are serialized in arrival order.
type Manager struct {
	mu       sync.RWMutex
	channels map[string]*channel
	runner   TurnRunner
}

// NewManager creates a Manager. runner must not be nil.
func NewManager(runner TurnRunner) *Manager {
	if runner == nil {
		panic("session: runner must not be nil")
	}
	return &Manager{
		channels: make(map[string]*channel),
		runner:   runner,
	}
}

// Handle runs one turn for the given channel and returns the assistant reply.
// Creates the channel's conversation on first use.
func (m *Manager) Handle(ctx context.Context, channelID, message string) (string, error) {
	if channelID == "" {
		return "", ErrEmptyChannelID
	}
	ch := m.getOrCreate(channelID)

	ch.mu.Lock()
	defer ch.mu.Unlock()
	return m.runner.Turn(ctx, ch.conv, message)
}

// History returns the channel's display pairs, or nil for an unknown channel.
func (m *Manager) History(channelID string) []DisplayPair {
	m.mu.RLock()
	ch, ok := m.channels[channelID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return ch.conv.DisplayPairs()
}

// Conversation returns the channel's conversation, creating it if needed.
func (m *Manager) Conversation(channelID string) *Conversation {
	return m.getOrCreate(channelID).conv
}

// getOrCreate fetches the channel, creating it under the write lock on first
// use. Double-checked so concurrent first messages race safely.
func (m *Manager) getOrCreate(channelID string) *channel {
	m.mu.RLock()
	ch, ok := m.channels[channelID]
	m.mu.RUnlock()
	if ok {
		return ch
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok = m.channels[channelID]; ok {
		return ch
	}
	ch = &channel{conv: NewConversation()}
	m.channels[channelID] = ch
	return ch
}
