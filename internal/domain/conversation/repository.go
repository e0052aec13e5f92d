package conversation

import "context"

// Repository persists conversation metadata.
type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	// FindByID returns a NOT_FOUND platform error when no row matches.
	FindByID(ctx context.Context, id string) (*Conversation, error)
	FindByUserID(ctx context.Context, userID string) ([]*Conversation, error)
	UpdateTitle(ctx context.Context, id string, title string) (*Conversation, error)
}
