package conversation

import (
	"time"
)

const (
	// DefaultTitle is the placeholder title until the first message renames the conversation.
	DefaultTitle = "New Conversation"

	MaxTitleLength       = 255
	GeneratedTitleLength = 60
)

// Conversation is the metadata record of a chat thread. Message bodies live in the agent session store.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasDefaultTitle reports whether the title was never set by the user or by auto-titling.
func (c *Conversation) HasDefaultTitle() bool {
	return c.Title == "" || c.Title == DefaultTitle
}

// CreateConversationInput carries the optional fields accepted on creation.
type CreateConversationInput struct {
	Title *string
}
