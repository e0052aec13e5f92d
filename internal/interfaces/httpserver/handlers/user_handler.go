package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/domain/user"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/middlewares"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/requests"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/responses"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

type UserHandler struct {
	users    UserService
	validate *validator.Validate
	log      zerolog.Logger
}

func NewUserHandler(users UserService, validate *validator.Validate, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		validate: validate,
		log:      log.With().Str("handler", "user").Logger(),
	}
}

// Me handles GET /users/me
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} responses.UserResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	u, ok := middlewares.UserFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "Unauthorized", "6a3f9d2c-1e8b-4c7a-b5f0-9d2e6a1c8f47")
		return
	}
	c.JSON(http.StatusOK, responses.NewUserResponse(u))
}

// UpdateMe handles PATCH /users/me
// @Summary Update the current user
// @Tags Users
// @Accept json
// @Produce json
// @Param request body requests.UpdateUserRequest true "Fields to change"
// @Success 200 {object} responses.UserResponse
// @Failure 400 {object} responses.ErrorResponse
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	u, ok := middlewares.UserFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "Unauthorized", "6a3f9d2c-1e8b-4c7a-b5f0-9d2e6a1c8f47")
		return
	}
	h.update(c, u, u.ID)
}

// Get handles GET /users/:id
// @Summary Get a user (superuser only)
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} responses.UserResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	if _, ok := h.requireSuperuser(c); !ok {
		return
	}

	target, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, err, "failed to get user")
		return
	}
	c.JSON(http.StatusOK, responses.NewUserResponse(target))
}

// Update handles PATCH /users/:id
// @Summary Update a user (superuser only)
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body requests.UpdateUserRequest true "Fields to change"
// @Success 200 {object} responses.UserResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /users/{id} [patch]
func (h *UserHandler) Update(c *gin.Context) {
	actor, ok := h.requireSuperuser(c)
	if !ok {
		return
	}
	h.update(c, actor, c.Param("id"))
}

// Delete handles DELETE /users/:id
// @Summary Delete a user (superuser only)
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := h.requireSuperuser(c)
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleDomainError(c, err, "failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) update(c *gin.Context, actor *user.User, targetID string) {
	var req requests.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "0e5b8c2f-7a4d-4e1b-9c3f-2d8a5e0b7c61")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid email", "9d4c1a7e-5b2f-4f8d-a0e6-3c9b7d1f5a28")
		return
	}

	updated, err := h.users.Update(c.Request.Context(), actor, targetID, user.UpdateUserInput{
		Email:       req.Email,
		Password:    req.Password,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
		IsVerified:  req.IsVerified,
	})
	if err != nil {
		handleDomainError(c, err, "failed to update user")
		return
	}
	c.JSON(http.StatusOK, responses.NewUserResponse(updated))
}

func (h *UserHandler) requireSuperuser(c *gin.Context) (*user.User, bool) {
	u, ok := middlewares.UserFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "Unauthorized", "6a3f9d2c-1e8b-4c7a-b5f0-9d2e6a1c8f47")
		return nil, false
	}
	if !u.IsSuperuser {
		responses.HandleNewError(c, platformerrors.ErrorTypeForbidden, "Forbidden", "c8e2f6a0-4d1b-4b9e-8f3c-7a5d0e2c9b16")
		return nil, false
	}
	return u, true
}
