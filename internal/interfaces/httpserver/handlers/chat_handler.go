package handlers

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
	"github.com/OctavianTocan/ai-nexus/internal/domain/conversation"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/logger"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/metrics"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/observability"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/middlewares"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/requests"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/responses"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

const (
	// ConversationIDHeader tells the client which conversation a chat turn landed in.
	ConversationIDHeader = middlewares.ConversationIDHeader

	// StreamErrorMessage is the client-facing text of the error frame. Upstream details stay in the logs.
	StreamErrorMessage = "An error occurred while generating the response."

	streamOutcomeDone         = "done"
	streamOutcomeError        = "error"
	streamOutcomeDisconnected = "disconnected"
)

// ChatHandler streams agent answers as server sent events.
type ChatHandler struct {
	conversations ConversationService
	agents        AgentFactory
	validate      *validator.Validate
	log           zerolog.Logger
}

func NewChatHandler(conversations ConversationService, agents AgentFactory, validate *validator.Validate, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		agents:        agents,
		validate:      validate,
		log:           log.With().Str("handler", "chat").Logger(),
	}
}

// Chat handles POST /api/chat
// @Summary Ask a question and stream the answer
// @Description Streams `data: {"type":"delta","content":...}` frames followed by `data: [DONE]`.
// @Description A failure after the stream started is reported with a single `{"type":"error"}` frame instead of `[DONE]`.
// @Tags Chat
// @Accept json
// @Produce text/event-stream
// @Param request body requests.ChatRequest true "Question and optional conversation id"
// @Success 200 {string} string "SSE stream"
// @Header 200 {string} X-Conversation-Id "Conversation the turn was stored in"
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /api/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	u, ok := middlewares.UserFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "Unauthorized", "6a3f9d2c-1e8b-4c7a-b5f0-9d2e6a1c8f47")
		return
	}

	var req requests.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "3e8a1c5f-6b2d-4f9a-8c0e-7d4b2a6f1e53")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := h.validate.Struct(req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "question is required", "b1f7d3a9-0c6e-4b2d-9e5a-8f3c1d7b0a64")
		return
	}

	ctx := c.Request.Context()

	conv, ok := h.resolveConversation(c, u.ID, req.ConversationID)
	if !ok {
		return
	}

	ctx, span := observability.StartChatSpan(ctx, conv.ID, u.ID)
	defer span.End()

	log := h.log.With().Str("conversation_id", conv.ID).Str("user_id", u.ID).Logger()
	log.Debug().Str("question", logger.Redact(req.Question)).Msg("chat turn started")
	started := time.Now()

	chatAgent := h.agents(agent.SessionConfig{SessionID: agent.SessionIDFor(conv.ID), UserID: u.ID})
	stream, err := chatAgent.RunStream(ctx, req.Question)
	if err != nil {
		observability.RecordError(span, err)
		metrics.RecordChatStream(streamOutcomeError, 0)
		log.Error().Err(err).Msg("failed to start chat stream")
		responses.HandleError(c, err, "failed to start chat")
		return
	}
	defer stream.Close()

	flush := middlewares.StartSSE(c, conv.ID)

	outcome, fragments := h.pump(ctx, c.Writer, stream, flush, started, log)
	metrics.RecordChatStream(outcome, fragments)
	observability.AddStreamEvent(ctx, span, outcome, fragments)

	if outcome == streamOutcomeDone && conv.HasDefaultTitle() {
		if _, err := h.conversations.RenameFromMessage(context.WithoutCancel(ctx), conv, req.Question); err != nil {
			log.Warn().Err(err).Msg("failed to title conversation")
		}
	}
}

// pump relays fragments until the stream ends and writes exactly one terminal frame,
// unless the client went away first.
func (h *ChatHandler) pump(ctx context.Context, w io.Writer, stream agent.Stream, flush func(), started time.Time, log zerolog.Logger) (string, int) {
	fragments := 0
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			if writeErr := responses.WriteDone(w); writeErr != nil {
				return streamOutcomeDisconnected, fragments
			}
			flush()
			return streamOutcomeDone, fragments
		}
		if err != nil {
			if ctx.Err() != nil {
				log.Debug().Err(err).Msg("client disconnected during chat stream")
				return streamOutcomeDisconnected, fragments
			}
			log.Error().Err(err).Int("fragments", fragments).Msg("chat stream failed")
			if writeErr := responses.WriteError(w, StreamErrorMessage); writeErr == nil {
				flush()
			}
			return streamOutcomeError, fragments
		}
		if fragment.Content == "" {
			continue
		}

		if fragments == 0 {
			metrics.RecordFirstFragment(time.Since(started))
		}
		if err := responses.WriteDelta(w, fragment.Content); err != nil {
			log.Debug().Err(err).Msg("failed to write chat fragment")
			return streamOutcomeDisconnected, fragments
		}
		fragments++
		flush()
	}
}

// resolveConversation returns the caller's conversation, creating one when no id was sent.
// Unknown and foreign ids are both reported as 404.
func (h *ChatHandler) resolveConversation(c *gin.Context, userID string, conversationID *string) (*conversation.Conversation, bool) {
	ctx := c.Request.Context()

	if conversationID == nil || strings.TrimSpace(*conversationID) == "" {
		conv, err := h.conversations.Create(ctx, userID, conversation.CreateConversationInput{})
		if err != nil {
			responses.HandleError(c, err, "failed to create conversation")
			return nil, false
		}
		return conv, true
	}

	conv, err := h.conversations.Get(ctx, userID, strings.TrimSpace(*conversationID))
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
