package handlers_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
	"github.com/OctavianTocan/ai-nexus/internal/domain/conversation"
	"github.com/OctavianTocan/ai-nexus/internal/domain/user"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/handlers"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/middlewares"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

// MockConversationService is a hand-written handlers.ConversationService backed by function fields.
type MockConversationService struct {
	CreateFunc            func(ctx context.Context, ownerID string, input conversation.CreateConversationInput) (*conversation.Conversation, error)
	GetFunc               func(ctx context.Context, ownerID, conversationID string) (*conversation.Conversation, error)
	ListFunc              func(ctx context.Context, ownerID string) ([]*conversation.Conversation, error)
	RenameFromMessageFunc func(ctx context.Context, conv *conversation.Conversation, message string) (*conversation.Conversation, error)
}

func (m *MockConversationService) Create(ctx context.Context, ownerID string, input conversation.CreateConversationInput) (*conversation.Conversation, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ownerID, input)
	}
	return &conversation.Conversation{ID: "conv-new", UserID: ownerID, Title: conversation.DefaultTitle}, nil
}

func (m *MockConversationService) Get(ctx context.Context, ownerID, conversationID string) (*conversation.Conversation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, ownerID, conversationID)
	}
	return nil, nil
}

func (m *MockConversationService) List(ctx context.Context, ownerID string) ([]*conversation.Conversation, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *MockConversationService) RenameFromMessage(ctx context.Context, conv *conversation.Conversation, message string) (*conversation.Conversation, error) {
	if m.RenameFromMessageFunc != nil {
		return m.RenameFromMessageFunc(ctx, conv, message)
	}
	return conv, nil
}

// MockUserService is a hand-written handlers.UserService backed by function fields.
type MockUserService struct {
	RegisterFunc     func(ctx context.Context, email, password string) (*user.User, error)
	AuthenticateFunc func(ctx context.Context, email, password string) (*user.User, error)
	GetFunc          func(ctx context.Context, id string) (*user.User, error)
	UpdateFunc       func(ctx context.Context, actor *user.User, targetID string, input user.UpdateUserInput) (*user.User, error)
	DeleteFunc       func(ctx context.Context, actor *user.User, targetID string) error
}

func (m *MockUserService) Register(ctx context.Context, email, password string) (*user.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password)
	}
	return &user.User{ID: "u-new", Email: email, IsActive: true}, nil
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, email, password)
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, user.ErrCodeBadCredentials, nil, "")
}

func (m *MockUserService) Get(ctx context.Context, id string) (*user.User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "user not found", nil, "")
}

func (m *MockUserService) Update(ctx context.Context, actor *user.User, targetID string, input user.UpdateUserInput) (*user.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, actor, targetID, input)
	}
	return actor, nil
}

func (m *MockUserService) Delete(ctx context.Context, actor *user.User, targetID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, actor, targetID)
	}
	return nil
}

// MockAgent is a hand-written handlers.ChatAgent backed by function fields.
type MockAgent struct {
	RunStreamFunc func(ctx context.Context, question string) (agent.Stream, error)
	HistoryFunc   func(ctx context.Context) ([]agent.Message, error)
}

func (m *MockAgent) RunStream(ctx context.Context, question string) (agent.Stream, error) {
	if m.RunStreamFunc != nil {
		return m.RunStreamFunc(ctx, question)
	}
	return &fakeStream{}, nil
}

func (m *MockAgent) History(ctx context.Context) ([]agent.Message, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx)
	}
	return nil, nil
}

// fakeStream replays fragments, then ends with err or io.EOF.
type fakeStream struct {
	fragments []string
	err       error
	closed    bool
}

func (s *fakeStream) Recv() (agent.Fragment, error) {
	if len(s.fragments) == 0 {
		if s.err != nil {
			return agent.Fragment{}, s.err
		}
		return agent.Fragment{}, io.EOF
	}
	next := s.fragments[0]
	s.fragments = s.fragments[1:]
	return agent.Fragment{Content: next}, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeTokens struct {
	subjects map[string]string
}

func (f fakeTokens) Parse(token string) (string, error) {
	if id, ok := f.subjects[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

func (f fakeTokens) Issue(userID string) (string, time.Time, error) {
	return "token-" + userID, time.Now().Add(time.Hour), nil
}

func (f fakeTokens) Lifetime() time.Duration { return time.Hour }

var (
	alice = &user.User{ID: "11111111-1111-4111-8111-111111111111", Email: "alice@example.com", IsActive: true}
	bob   = &user.User{ID: "22222222-2222-4222-8222-222222222222", Email: "bob@example.com", IsActive: true}
	admin = &user.User{ID: "33333333-3333-4333-8333-333333333333", Email: "admin@example.com", IsActive: true, IsSuperuser: true}
)

type testEnv struct {
	conversations *MockConversationService
	users         *MockUserService
	agent         *MockAgent
	sessions      []agent.SessionConfig
	cookie        handlers.CookieConfig
}

func newTestEnv() *testEnv {
	return &testEnv{
		conversations: &MockConversationService{},
		users:         &MockUserService{},
		agent:         &MockAgent{},
	}
}

// router mounts the handlers behind the real auth middleware. Requests authenticate with
// "Bearer <user id>" for alice, bob and admin.
func (e *testEnv) router() *gin.Engine {
	gin.SetMode(gin.TestMode)

	known := map[string]*user.User{alice.ID: alice, bob.ID: bob, admin.ID: admin}
	tokens := fakeTokens{subjects: map[string]string{alice.ID: alice.ID, bob.ID: bob.ID, admin.ID: admin.ID}}
	loader := &MockUserService{GetFunc: func(ctx context.Context, id string) (*user.User, error) {
		if u, ok := known[id]; ok {
			return u, nil
		}
		if e.users.GetFunc != nil {
			return e.users.GetFunc(ctx, id)
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "user not found", nil, "")
	}}

	factory := func(session agent.SessionConfig) handlers.ChatAgent {
		e.sessions = append(e.sessions, session)
		return e.agent
	}
	p := handlers.NewProvider(e.conversations, e.users, factory, tokens, e.cookie, zerolog.Nop())

	r := gin.New()
	r.POST("/auth/register", p.Auth.Register)
	r.POST("/auth/jwt/login", p.Auth.Login)

	authed := r.Group("", middlewares.AuthMiddleware(tokens, loader, zerolog.Nop()))
	authed.POST("/auth/jwt/logout", p.Auth.Logout)
	authed.GET("/users/me", p.User.Me)
	authed.PATCH("/users/me", p.User.UpdateMe)
	authed.GET("/users/:id", p.User.Get)
	authed.PATCH("/users/:id", p.User.Update)
	authed.DELETE("/users/:id", p.User.Delete)
	authed.POST("/api/chat", p.Chat.Chat)
	authed.POST("/api/v1/conversations", p.Conversation.Create)
	authed.GET("/api/v1/conversations", p.Conversation.List)
	authed.GET("/api/v1/conversations/:id", p.Conversation.Get)
	authed.GET("/api/v1/conversations/:id/messages", p.Conversation.Messages)
	return r
}

func newRequest(method, path, body string, as *user.User) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+as.ID)
	}
	return req
}
