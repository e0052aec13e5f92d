package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/handlers"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/routes/auth"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/routes/chat"
	v1 "github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/routes/v1"
)

// Provider aggregates the route registrars.
type Provider struct {
	auth *auth.Routes
	chat *chat.Routes
	v1   *v1.Routes
}

// NewProvider creates the route provider. requireUser guards every route that needs a session.
func NewProvider(handlerProvider *handlers.Provider, requireUser gin.HandlerFunc) *Provider {
	return &Provider{
		auth: auth.NewRoutes(handlerProvider.Auth, handlerProvider.User, requireUser),
		chat: chat.NewRoutes(handlerProvider.Chat, requireUser),
		v1:   v1.NewRoutes(handlerProvider.Conversation, requireUser),
	}
}

// Register attaches all API routes to the engine.
func (p *Provider) Register(engine *gin.Engine) {
	p.auth.Register(engine)
	p.chat.Register(engine)
	p.v1.Register(engine)
}
