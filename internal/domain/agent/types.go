package agent

import (
	"context"
	"time"
)

// Role is the author of a stored message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a session history as shown to clients.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SessionRun is one completed turn: the question and the final answer, stored together.
type SessionRun struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	UserID    string         `json:"user_id"`
	Messages  []Message      `json:"messages"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// SessionStore is the persistent history keyed by session id.
type SessionStore interface {
	// AppendRun stores all messages of the run or none of them.
	AppendRun(ctx context.Context, run *SessionRun) error
	// RecentRuns returns up to limit most recent runs, oldest first.
	RecentRuns(ctx context.Context, sessionID string, limit int) ([]*SessionRun, error)
	// Messages returns the full history, or a NOT_FOUND platform error when the session has no runs.
	Messages(ctx context.Context, sessionID string) ([]Message, error)
}

// Fragment is one piece of streamed answer text.
type Fragment struct {
	Content string
}

// Stream yields fragments in production order until Recv returns io.EOF.
// Any other error ends the stream. Close stops production and may be called at any time.
type Stream interface {
	Recv() (Fragment, error)
	Close() error
}
