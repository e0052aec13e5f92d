package chat

import (
	"github.com/gin-gonic/gin"

	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/handlers"
)

type Routes struct {
	handler     *handlers.ChatHandler
	requireUser gin.HandlerFunc
}

func NewRoutes(handler *handlers.ChatHandler, requireUser gin.HandlerFunc) *Routes {
	return &Routes{handler: handler, requireUser: requireUser}
}

// Register attaches the streaming chat endpoint.
func (r *Routes) Register(engine *gin.Engine) {
	engine.POST("/api/chat", r.requireUser, r.handler.Chat)
}
