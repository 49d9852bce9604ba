// Package state tracks which menu level each chat is currently viewing.
// The tracker is the only mutable per-chat data in the bot; everything
// else is static content.
package state

import (
	"context"
	"time"
)

// Level identifies the menu level a chat is currently on.
type Level string

const (
	// LevelRoot is the main menu; the default for chats never seen before.
	LevelRoot Level = "root"
	// LevelLocations means the chat is browsing the locations list.
	LevelLocations Level = "locations"
	// LevelProjects means the chat is browsing the projects list.
	LevelProjects Level = "projects"
)

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelRoot, LevelLocations, LevelProjects:
		return true
	}
	return false
}

// Conversation is the per-chat state record.
type Conversation struct {
	Level Level
	// LastWelcomeAt is zero until the first greeting was sent. It exists
	// only to absorb duplicate /start deliveries within the debounce window.
	LastWelcomeAt time.Time
}

// Tracker stores per-chat conversation state. Get never fails logically:
// an unknown chat yields a fresh root-level conversation. Implementations
// backed by a shared store may still return transport errors; callers
// degrade to the root level in that case.
type Tracker interface {
	Get(ctx context.Context, chatID int64) (Conversation, error)
	SetLevel(ctx context.Context, chatID int64, level Level) error
	MarkWelcome(ctx context.Context, chatID int64, at time.Time) error
	// Reset returns the chat to the root level without touching LastWelcomeAt.
	Reset(ctx context.Context, chatID int64) error
}
