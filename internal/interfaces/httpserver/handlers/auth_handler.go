package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/middlewares"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/requests"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/responses"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

// AuthHandler exposes registration and the cookie login flow.
type AuthHandler struct {
	users    UserService
	tokens   TokenIssuer
	cookie   CookieConfig
	validate *validator.Validate
	log      zerolog.Logger
}

func NewAuthHandler(users UserService, tokens TokenIssuer, cookie CookieConfig, validate *validator.Validate, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		tokens:   tokens,
		cookie:   cookie,
		validate: validate,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

// Register handles POST /auth/register
// @Summary Register an account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body requests.RegisterRequest true "Credentials"
// @Success 201 {object} responses.UserResponse
// @Failure 400 {object} responses.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req requests.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "5c2a8e1f-0d7b-4f3e-9a6c-1b4d8f2e7a30")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid email or password", "8f1d4b7a-3e9c-4a2f-b6d0-5c7e1a9f3b42")
		return
	}

	u, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleDomainError(c, err, "failed to register user")
		return
	}
	c.JSON(http.StatusCreated, responses.NewUserResponse(u))
}

// Login handles POST /auth/jwt/login
// @Summary Log in and receive the session cookie
// @Tags Auth
// @Accept x-www-form-urlencoded
// @Param username formData string true "Email"
// @Param password formData string true "Password"
// @Success 204
// @Failure 400 {object} responses.ErrorResponse
// @Router /auth/jwt/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req requests.LoginRequest
	if err := c.ShouldBind(&req); err != nil || h.validate.Struct(req) != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "username and password are required", "2b7e0c4d-9f1a-4d8b-a3e5-6f0c2d8b4a19")
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleDomainError(c, err, "failed to log in")
		return
	}

	token, _, err := h.tokens.Issue(u.ID)
	if err != nil {
		responses.HandleErrorWithStatus(c, http.StatusInternalServerError, err, "failed to issue session token")
		return
	}

	h.setSessionCookie(c, token, int(h.tokens.Lifetime().Seconds()))
	c.Status(http.StatusNoContent)
}

// Logout handles POST /auth/jwt/logout
// @Summary Clear the session cookie
// @Tags Auth
// @Success 204
// @Failure 401 {object} responses.ErrorResponse
// @Router /auth/jwt/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.SessionCookieName, value, maxAge, "/", "", h.cookie.Secure, true)
}

// handleDomainError reports client errors with the domain message, which carries the stable error code.
func handleDomainError(c *gin.Context, err error, fallback string) {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		switch platformErr.GetErrorType() {
		case platformerrors.ErrorTypeValidation, platformerrors.ErrorTypeConflict, platformerrors.ErrorTypeForbidden, platformerrors.ErrorTypeNotFound:
			responses.HandleError(c, err, platformErr.Message)
			return
		}
	}
	responses.HandleError(c, err, fallback)
}
