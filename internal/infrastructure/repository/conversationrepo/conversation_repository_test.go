package conversationrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/OctavianTocan/ai-nexus/internal/domain/conversation"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/database/databasetest"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/repository/conversationrepo"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

func newConversation(id, userID string, createdAt time.Time) *domain.Conversation {
	return &domain.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     domain.DefaultTitle,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestCreateAndFindByID(t *testing.T) {
	repo := conversationrepo.NewRepository(databasetest.Open(t))
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newConversation("c1", "u1", now)))

	got, err := repo.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, domain.DefaultTitle, got.Title)
	assert.True(t, got.CreatedAt.Equal(now))

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestFindByUserIDScopesToOwner(t *testing.T) {
	repo := conversationrepo.NewRepository(databasetest.Open(t))
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newConversation("c1", "u1", base)))
	require.NoError(t, repo.Create(ctx, newConversation("c2", "u2", base.Add(time.Second))))
	require.NoError(t, repo.Create(ctx, newConversation("c3", "u1", base.Add(2*time.Second))))

	got, err := repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "c3", got[1].ID)

	none, err := repo.FindByUserID(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateTitle(t *testing.T) {
	repo := conversationrepo.NewRepository(databasetest.Open(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newConversation("c1", "u1", time.Now().UTC())))

	updated, err := repo.UpdateTitle(ctx, "c1", "Weather in Paris")
	require.NoError(t, err)
	assert.Equal(t, "Weather in Paris", updated.Title)

	_, err = repo.UpdateTitle(ctx, "missing", "x")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}
