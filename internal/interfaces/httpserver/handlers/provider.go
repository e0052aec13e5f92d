package handlers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
	"github.com/OctavianTocan/ai-nexus/internal/domain/conversation"
	"github.com/OctavianTocan/ai-nexus/internal/domain/user"
)

// ConversationService is the conversation behaviour the handlers depend on.
type ConversationService interface {
	Create(ctx context.Context, ownerID string, input conversation.CreateConversationInput) (*conversation.Conversation, error)
	Get(ctx context.Context, ownerID, conversationID string) (*conversation.Conversation, error)
	List(ctx context.Context, ownerID string) ([]*conversation.Conversation, error)
	RenameFromMessage(ctx context.Context, conv *conversation.Conversation, message string) (*conversation.Conversation, error)
}

// UserService is the account behaviour the handlers depend on.
type UserService interface {
	Register(ctx context.Context, email, password string) (*user.User, error)
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	Get(ctx context.Context, id string) (*user.User, error)
	Update(ctx context.Context, actor *user.User, targetID string, input user.UpdateUserInput) (*user.User, error)
	Delete(ctx context.Context, actor *user.User, targetID string) error
}

// ChatAgent is one agent instance bound to a session.
type ChatAgent interface {
	RunStream(ctx context.Context, question string) (agent.Stream, error)
	History(ctx context.Context) ([]agent.Message, error)
}

// AgentFactory builds a fresh agent for a session. It is called once per request.
type AgentFactory func(session agent.SessionConfig) ChatAgent

// TokenIssuer mints session tokens for the cookie transport.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
	Lifetime() time.Duration
}

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Secure bool
}

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Auth         *AuthHandler
	User         *UserHandler
	Conversation *ConversationHandler
	Chat         *ChatHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	conversations ConversationService,
	users UserService,
	agents AgentFactory,
	tokens TokenIssuer,
	cookie CookieConfig,
	log zerolog.Logger,
) *Provider {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return &Provider{
		Auth:         NewAuthHandler(users, tokens, cookie, validate, log),
		User:         NewUserHandler(users, validate, log),
		Conversation: NewConversationHandler(conversations, agents, validate, log),
		Chat:         NewChatHandler(conversations, agents, validate, log),
	}
}
