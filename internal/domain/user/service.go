package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is the bcrypt input limit in bytes.
	MaxPasswordLength = 72

	ErrCodeUserAlreadyExists = "REGISTER_USER_ALREADY_EXISTS"
	ErrCodeBadCredentials    = "LOGIN_BAD_CREDENTIALS"
	ErrCodeInvalidPassword   = "REGISTER_INVALID_PASSWORD"
	ErrCodeEmailTaken        = "UPDATE_USER_EMAIL_ALREADY_EXISTS"
)

// Service implements registration, login and profile updates.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	log    zerolog.Logger
}

// NewService creates a user service.
func NewService(repo Repository, hasher PasswordHasher, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		log:    log.With().Str("component", "user-service").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(ctx context.Context, password, code string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrCodeInvalidPassword, nil, code)
	}
	return nil
}

func userAlreadyExists(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrCodeUserAlreadyExists, nil, "7e2a9c41-5b3d-4d8f-a0e6-1c4b8f3d2a95")
}

// Register creates an active, unverified, non-superuser account.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if err := validatePassword(ctx, password, "0d6f1b8e-3c4a-4f0e-8a27-6b9d2e5c1f47"); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up user")
	}
	if existing != nil {
		return nil, userAlreadyExists(ctx)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to hash password", err, "a93e6d27-4f1c-4b5a-8e0d-2f7c9b1a6e38")
	}

	now := time.Now().UTC()
	u := &User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hashed,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		// A concurrent registration can win the unique index after the lookup above.
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
			return nil, userAlreadyExists(ctx)
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create user")
	}

	s.log.Info().Str("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Authenticate checks credentials. Unknown users, wrong passwords and inactive users look the same to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, badCredentials(ctx)
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up user")
	}

	if !s.hasher.Verify(u.HashedPassword, password) || !u.IsActive {
		return nil, badCredentials(ctx)
	}

	s.log.Info().Str("user_id", u.ID).Msg("user logged in")
	return u, nil
}

func badCredentials(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrCodeBadCredentials, nil, "3f8b2d6a-9c1e-4a7f-b5d0-8e4c2a1f7b63")
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "user not found", nil, "c1d7e4a2-6b8f-4e3c-9a05-7f2b6d8e1c94")
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to get user")
	}
	return u, nil
}

// Update applies a partial update to target on behalf of actor.
func (s *Service) Update(ctx context.Context, actor *User, targetID string, input UpdateUserInput) (*User, error) {
	if input.HasPrivilegedChanges() && (actor == nil || !actor.IsSuperuser) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "only superusers may change account flags", nil, "e5a3f9c1-2d7b-4c6e-8f14-9b0a3d5e7c26")
	}

	u, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email != u.Email {
			other, err := s.repo.FindByEmail(ctx, email)
			if err != nil && !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
				return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up user")
			}
			if other != nil {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrCodeEmailTaken, nil, "b7c2e8d4-1a6f-4f3b-9d2e-5c8a0f4b6e17")
			}
			u.Email = email
			u.IsVerified = false
		}
	}
	if input.Password != nil {
		if err := validatePassword(ctx, *input.Password, "4a9d1e7f-3b5c-4e2a-8c6d-0f1b7e3a9d58"); err != nil {
			return nil, err
		}
		hashed, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to hash password", err, "d2f6b8a3-7e1c-4d9f-a5b0-3c8e6f2d1a74")
		}
		u.HashedPassword = hashed
	}
	if input.IsActive != nil {
		u.IsActive = *input.IsActive
	}
	if input.IsSuperuser != nil {
		u.IsSuperuser = *input.IsSuperuser
	}
	if input.IsVerified != nil {
		u.IsVerified = *input.IsVerified
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update user")
	}
	return u, nil
}

// Delete removes the account targetID. Only superusers may delete accounts.
func (s *Service) Delete(ctx context.Context, actor *User, targetID string) error {
	if actor == nil || !actor.IsSuperuser {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "only superusers may delete accounts", nil, "5c0e8a3f-6d2b-4f7a-9e14-b8d3c1a7f592")
	}
	if _, err := s.Get(ctx, targetID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete user")
	}

	s.log.Info().Str("user_id", targetID).Str("actor_id", actor.ID).Msg("user deleted")
	return nil
}
