package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
	"github.com/OctavianTocan/ai-nexus/internal/utils/stringutils"
)

// Service implements the conversation use cases on top of a Repository.
type Service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

// NewService creates a conversation service.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "conversation-service").Logger(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new conversation owned by ownerID and returns it once committed.
func (s *Service) Create(ctx context.Context, ownerID string, input CreateConversationInput) (*Conversation, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "owner id is required", nil, "5b0f3c0e-8d7a-4f0c-9a51-2c6f7e1b9d20")
	}

	title := DefaultTitle
	if input.Title != nil {
		if trimmed := strings.TrimSpace(*input.Title); trimmed != "" {
			title = stringutils.TruncateRunes(trimmed, MaxTitleLength)
		}
	}

	now := s.now()
	conv := &Conversation{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}

	s.log.Debug().Str("conversation_id", conv.ID).Str("user_id", ownerID).Msg("conversation created")
	return conv, nil
}

// Get returns the conversation only when it exists and belongs to ownerID.
// Unknown, malformed and foreign ids all yield (nil, nil); only store failures are errors.
func (s *Service) Get(ctx context.Context, ownerID, conversationID string) (*Conversation, error) {
	if _, err := uuid.Parse(conversationID); err != nil {
		return nil, nil
	}

	conv, err := s.repo.FindByID(ctx, conversationID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, nil
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation")
	}

	if conv.UserID != ownerID {
		s.log.Debug().Str("conversation_id", conversationID).Msg("conversation requested by non-owner")
		return nil, nil
	}

	return conv, nil
}

// List returns every conversation owned by ownerID in insertion order.
func (s *Service) List(ctx context.Context, ownerID string) ([]*Conversation, error) {
	convs, err := s.repo.FindByUserID(ctx, ownerID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	if convs == nil {
		convs = []*Conversation{}
	}
	return convs, nil
}

// RenameFromMessage derives a title from the first user message while the default title is still in place.
func (s *Service) RenameFromMessage(ctx context.Context, conv *Conversation, message string) (*Conversation, error) {
	if conv == nil || !conv.HasDefaultTitle() {
		return conv, nil
	}

	title := stringutils.GenerateTitle(message, GeneratedTitleLength)
	if title == "" {
		return conv, nil
	}

	updated, err := s.repo.UpdateTitle(ctx, conv.ID, title)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to rename conversation")
	}
	return updated, nil
}
