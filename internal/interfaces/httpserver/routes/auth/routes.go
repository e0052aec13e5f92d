package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/handlers"
)

// Routes registers the account endpoints.
type Routes struct {
	auth        *handlers.AuthHandler
	users       *handlers.UserHandler
	requireUser gin.HandlerFunc
}

func NewRoutes(authHandler *handlers.AuthHandler, userHandler *handlers.UserHandler, requireUser gin.HandlerFunc) *Routes {
	return &Routes{
		auth:        authHandler,
		users:       userHandler,
		requireUser: requireUser,
	}
}

// Register attaches /auth and /users. The /auth/login and /auth/logout aliases match
// what the web client calls.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/auth")
	group.POST("/register", r.auth.Register)
	group.POST("/jwt/login", r.auth.Login)
	group.POST("/login", r.auth.Login)
	group.POST("/jwt/logout", r.requireUser, r.auth.Logout)
	group.POST("/logout", r.requireUser, r.auth.Logout)

	users := engine.Group("/users", r.requireUser)
	users.GET("/me", r.users.Me)
	users.PATCH("/me", r.users.UpdateMe)
	users.GET("/:id", r.users.Get)
	users.PATCH("/:id", r.users.Update)
	users.DELETE("/:id", r.users.Delete)
}
