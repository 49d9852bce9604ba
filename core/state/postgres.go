package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type postgresTracker struct {
	db *sqlx.DB
}

// NewPostgresTracker constructs a Tracker backed by a shared Postgres
// table. Required when the bot runs more than one worker: menu-level
// tracking must be consistent regardless of which worker receives the
// next update for a chat. Upserts keep writes per-chat atomic.
func NewPostgresTracker(db *sqlx.DB) Tracker {
	return &postgresTracker{db: db}
}

type conversationRow struct {
	ChatID        int64        `db:"chat_id"`
	Level         string       `db:"level"`
	LastWelcomeAt sql.NullTime `db:"last_welcome_at"`
}

// Get returns the stored conversation, or a fresh root-level one for
// chats without a row yet.
func (p *postgresTracker) Get(ctx context.Context, chatID int64) (Conversation, error) {
	var row conversationRow
	err := p.db.GetContext(ctx, &row,
		`SELECT chat_id, level, last_welcome_at FROM conversation_state WHERE chat_id = $1`,
		chatID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{Level: LevelRoot}, nil
	}
	if err != nil {
		return Conversation{Level: LevelRoot}, fmt.Errorf("state: get chat %d: %w", chatID, err)
	}

	conv := Conversation{Level: Level(row.Level)}
	if !conv.Level.Valid() {
		conv.Level = LevelRoot
	}
	if row.LastWelcomeAt.Valid {
		conv.LastWelcomeAt = row.LastWelcomeAt.Time
	}
	return conv, nil
}

// SetLevel upserts the menu level for a chat.
func (p *postgresTracker) SetLevel(ctx context.Context, chatID int64, level Level) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO conversation_state (chat_id, level, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (chat_id) DO UPDATE SET level = EXCLUDED.level, updated_at = now()`,
		chatID, string(level),
	)
	if err != nil {
		return fmt.Errorf("state: set level for chat %d: %w", chatID, err)
	}
	return nil
}

// MarkWelcome upserts the greeting timestamp without changing the level.
func (p *postgresTracker) MarkWelcome(ctx context.Context, chatID int64, at time.Time) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO conversation_state (chat_id, level, last_welcome_at, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (chat_id) DO UPDATE SET last_welcome_at = EXCLUDED.last_welcome_at, updated_at = now()`,
		chatID, string(LevelRoot), at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("state: mark welcome for chat %d: %w", chatID, err)
	}
	return nil
}

// Reset returns the chat to the root level, keeping the welcome timestamp.
func (p *postgresTracker) Reset(ctx context.Context, chatID int64) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE conversation_state SET level = $2, updated_at = now() WHERE chat_id = $1`,
		chatID, string(LevelRoot),
	)
	if err != nil {
		return fmt.Errorf("state: reset chat %d: %w", chatID, err)
	}
	return nil
}
