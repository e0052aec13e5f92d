package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
	"github.com/OctavianTocan/ai-nexus/internal/domain/conversation"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/middlewares"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/requests"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/responses"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

const conversationNotFoundCode = "f4a9c2e7-8b1d-4d6f-a3e0-5c7b9f1d2e84"

// ConversationHandler exposes the conversation read and create endpoints.
type ConversationHandler struct {
	conversations ConversationService
	agents        AgentFactory
	validate      *validator.Validate
	log           zerolog.Logger
}

func NewConversationHandler(conversations ConversationService, agents AgentFactory, validate *validator.Validate, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		agents:        agents,
		validate:      validate,
		log:           log.With().Str("handler", "conversation").Logger(),
	}
}

// Create handles POST /api/v1/conversations
// @Summary Create a conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Param request body requests.CreateConversationRequest false "Optional title"
// @Success 201 {object} responses.ConversationResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /api/v1/conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	u, ok := middlewares.UserFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "Unauthorized", "6a3f9d2c-1e8b-4c7a-b5f0-9d2e6a1c8f47")
		return
	}

	var req requests.CreateConversationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "1d6b3f8a-2c9e-4a5d-b7f1-0e4c8a2d6b93")
			return
		}
		if err := h.validate.Struct(req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "title is too long", "7b0e5d2a-9f3c-4e8b-a1d6-4c2f9b7e0a35")
			return
		}
	}

	conv, err := h.conversations.Create(c.Request.Context(), u.ID, conversation.CreateConversationInput{Title: req.Title})
	if err != nil {
		responses.HandleError(c, err, "failed to create conversation")
		return
	}
	c.JSON(http.StatusCreated, responses.NewConversationResponse(conv))
}

// List handles GET /api/v1/conversations
// @Summary List the caller's conversations
// @Tags Conversations
// @Produce json
// @Success 200 {array} responses.ConversationResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /api/v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	u, ok := middlewares.UserFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "Unauthorized", "6a3f9d2c-1e8b-4c7a-b5f0-9d2e6a1c8f47")
		return
	}

	convs, err := h.conversations.List(c.Request.Context(), u.ID)
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, responses.NewConversationListResponse(convs))
}

// Get handles GET /api/v1/conversations/:id
// @Summary Get a conversation
// @Tags Conversations
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} responses.ConversationResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /api/v1/conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, responses.NewConversationResponse(conv))
}

// Messages handles GET /api/v1/conversations/:id/messages
// @Summary Conversation history
// @Description Returns the stored messages. A history lookup failure yields an empty list.
// @Tags Conversations
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {array} responses.MessageResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /api/v1/conversations/{id}/messages [get]
func (h *ConversationHandler) Messages(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}

	chatAgent := h.agents(agent.SessionConfig{SessionID: agent.SessionIDFor(conv.ID), UserID: conv.UserID})
	messages, err := chatAgent.History(c.Request.Context())
	if err != nil {
		if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			h.log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("failed to load conversation history")
		}
		messages = nil
	}
	c.JSON(http.StatusOK, responses.NewMessageListResponse(messages))
}

// ownedConversation resolves :id for the caller and writes 404 when it is unknown or foreign.
func (h *ConversationHandler) ownedConversation(c *gin.Context) (*conversation.Conversation, bool) {
	u, ok := middlewares.UserFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "Unauthorized", "6a3f9d2c-1e8b-4c7a-b5f0-9d2e6a1c8f47")
		return nil, false
	}

	conv, err := h.conversations.Get(c.Request.Context(), u.ID, c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get conversation")
		return nil, false
	}
	if conv == nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "Conversation not found", conversationNotFoundCode)
		return nil, false
	}
	return conv, true
}
