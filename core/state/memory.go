package state

import (
	"context"
	"sync"
	"time"
)

type memoryTracker struct {
	mu    sync.RWMutex
	chats map[int64]*Conversation
}

// NewMemoryTracker constructs an in-process Tracker. Suitable only for
// single-worker deployments: state is lost on restart and is not shared
// between processes.
func NewMemoryTracker() Tracker {
	return &memoryTracker{
		chats: make(map[int64]*Conversation),
	}
}

// Get returns the conversation for a chat, or a fresh root-level one.
func (m *memoryTracker) Get(_ context.Context, chatID int64) (Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if conv, ok := m.chats[chatID]; ok {
		return *conv, nil
	}
	return Conversation{Level: LevelRoot}, nil
}

// SetLevel updates the menu level, creating the record if necessary.
func (m *memoryTracker) SetLevel(_ context.Context, chatID int64, level Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.chats[chatID]
	if !ok {
		conv = &Conversation{Level: LevelRoot}
		m.chats[chatID] = conv
	}
	conv.Level = level
	return nil
}

// MarkWelcome records the greeting timestamp for the debounce check.
func (m *memoryTracker) MarkWelcome(_ context.Context, chatID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.chats[chatID]
	if !ok {
		conv = &Conversation{Level: LevelRoot}
		m.chats[chatID] = conv
	}
	conv.LastWelcomeAt = at
	return nil
}

// Reset returns the chat to the root level.
func (m *memoryTracker) Reset(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conv, ok := m.chats[chatID]; ok {
		conv.Level = LevelRoot
	}
	return nil
}
