package conversationrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/OctavianTocan/ai-nexus/internal/domain/conversation"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/database/entities"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

// Repository persists conversation metadata.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a conversation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the conversation record.
func (r *Repository) Create(ctx context.Context, conv *domain.Conversation) error {
	entity := entities.NewSchemaConversation(conv)

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation",
			err,
			"5d2e8a1c-7b4f-4c9e-a3d6-1f8b0e2c7a94",
		)
	}

	conv.CreatedAt = entity.CreatedAt.UTC()
	conv.UpdatedAt = entity.UpdatedAt.UTC()
	return nil
}

// FindByID fetches a conversation by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %s", id),
				nil,
				"b7e3f0a2-9c1d-4e5b-8f6a-3d2c1b0e9f87",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation",
			err,
			"e1c9a4d6-2f7b-4a3e-9d8c-5b0f6e1a2c73",
		)
	}
	return entity.EtoD(), nil
}

// FindByUserID lists the conversations owned by userID, oldest first.
func (r *Repository) FindByUserID(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	var rows []entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations",
			err,
			"3a8f1e6c-0d4b-4b2a-b9e7-7c5d2a1f8e06",
		)
	}

	result := make([]*domain.Conversation, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].EtoD())
	}
	return result, nil
}

// UpdateTitle sets the title and returns the updated record.
func (r *Repository) UpdateTitle(ctx context.Context, id string, title string) (*domain.Conversation, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":      title,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update conversation title",
			result.Error,
			"9f0b2d7e-6a3c-4e1f-8b5d-0c7a9e4f2b18",
		)
	}
	if result.RowsAffected == 0 {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %s", id),
			nil,
			"c4d7e2a9-1b8f-4f6c-a0e3-6d9b5c8a1f27",
		)
	}
	return r.FindByID(ctx, id)
}
