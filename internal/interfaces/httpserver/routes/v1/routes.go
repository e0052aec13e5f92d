package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	conversations *handlers.ConversationHandler
	requireUser   gin.HandlerFunc
}

// NewRoutes builds the v1 route registrar.
func NewRoutes(conversations *handlers.ConversationHandler, requireUser gin.HandlerFunc) *Routes {
	return &Routes{
		conversations: conversations,
		requireUser:   requireUser,
	}
}

// Register attaches all v1 routes under the /api/v1 prefix.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/api/v1", r.requireUser)
	registerConversationRoutes(group, r.conversations)
}

func registerConversationRoutes(router gin.IRouter, handler *handlers.ConversationHandler) {
	conversations := router.Group("/conversations")
	conversations.POST("", handler.Create)
	conversations.GET("", handler.List)
	conversations.GET("/:id", handler.Get)
	conversations.GET("/:id/messages", handler.Messages)
}
