// Package memory persists ordered conversation turns keyed by session.
// Turns are append-only and never mutated after creation; sessions are
// created implicitly on a session's first turn and never deleted by this
// package (retention is an external concern).
package memory

import (
	"context"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a session's conversation.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the conversation memory collaborator.
//
// Sessions are not locked: concurrent requests against the same session
// may interleave reads and appends, and cross-request turn ordering is
// whatever the store's write order produces.
type Store interface {
	// AppendTurn appends a turn to the session, creating the session on
	// its first turn.
	AppendTurn(ctx context.Context, sessionID string, t Turn) error

	// GetRecent returns the session's most recent n turns in
	// chronological order. An unknown session yields no turns.
	GetRecent(ctx context.Context, sessionID string, n int) ([]Turn, error)
}
