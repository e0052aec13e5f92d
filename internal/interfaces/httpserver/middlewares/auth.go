package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/domain/user"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/responses"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

const (
	// SessionCookieName carries the session token.
	SessionCookieName = "session_token"

	userContextKey   = "app_user"
	userIDContextKey = "user_id"
)

// TokenParser validates a session token and returns its subject.
type TokenParser interface {
	Parse(token string) (string, error)
}

// UserLoader loads the account behind a token subject.
type UserLoader interface {
	Get(ctx context.Context, id string) (*user.User, error)
}

// AuthMiddleware requires a valid session cookie belonging to an active user.
// A bearer token is accepted as well for non-browser clients. Failures to load the
// user, other than NOT_FOUND, are server errors and leave the session cookie alone.
func AuthMiddleware(tokens TokenParser, users UserLoader, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			responses.HandleErrorWithStatus(c, http.StatusUnauthorized, errors.New("authentication required"), "Unauthorized")
			return
		}

		userID, err := tokens.Parse(token)
		if err != nil {
			logger.Debug().Err(err).Msg("session token rejected")
			responses.HandleErrorWithStatus(c, http.StatusUnauthorized, err, "Unauthorized")
			return
		}

		u, err := users.Get(c.Request.Context(), userID)
		if err != nil && !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			logger.Error().Err(err).Str("user_id", userID).Msg("failed to load session user")
			responses.HandleError(c, err, "failed to load session user")
			return
		}
		if err != nil || u == nil || !u.IsActive {
			logger.Debug().Err(err).Str("user_id", userID).Msg("session user unavailable")
			responses.HandleErrorWithStatus(c, http.StatusUnauthorized, errors.New("inactive or unknown user"), "Unauthorized")
			return
		}

		c.Set(userContextKey, u)
		c.Set(userIDContextKey, u.ID)
		c.Next()
	}
}

// UserFromContext returns the authenticated user set by AuthMiddleware.
func UserFromContext(c *gin.Context) (*user.User, bool) {
	val, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	u, ok := val.(*user.User)
	return u, ok && u != nil
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	return bearerToken(c.GetHeader("Authorization"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
