package userrepo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	domain "github.com/OctavianTocan/ai-nexus/internal/domain/user"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/database/entities"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

// Repository persists user accounts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, u *domain.User) error {
	entity := entities.NewSchemaUser(u)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "user already exists", err, "1e7c4b9a-3f2d-4a8e-b6c0-9d5f2e8a1b63")
		}
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create user", err, "6b3a0f8d-2e9c-4d1b-a7f5-4c8e1d6b9a20")
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(email))
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var entity entities.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", nil, "d8a5e1f3-7c0b-4e6d-9a2f-1b4c7e0d3a58")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to fetch user", err, "4f9c2a6e-8b1d-4c3a-b0e7-2d6a9f1c5e84")
	}
	return entity.EtoD(), nil
}

// Update writes every column of u, including false booleans.
func (r *Repository) Update(ctx context.Context, u *domain.User) error {
	entity := entities.NewSchemaUser(u)
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"email":           entity.Email,
		"hashed_password": entity.HashedPassword,
		"is_active":       entity.IsActive,
		"is_superuser":    entity.IsSuperuser,
		"is_verified":     entity.IsVerified,
		"updated_at":      entity.UpdatedAt,
	})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "email already in use", result.Error, "a2e8d4b1-5f7c-4a9e-8d3b-6c0f1e7a4b95")
		}
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update user", result.Error, "7c1f5e9b-0a3d-4b8c-a6e2-9f4d1b7c3e06")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", nil, "e5b0a7c3-9d2f-4e1a-b8c6-3a7f0d5e2b19")
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.User{})
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete user", result.Error, "3b8f1d6c-a4e2-4c7b-9f05-e2d7a6c1b948")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", nil, "8d2c6f0a-1e5b-4a9d-b3c7-f6a0e4d2c815")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
