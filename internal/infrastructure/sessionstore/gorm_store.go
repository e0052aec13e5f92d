package sessionstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/database/entities"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/metrics"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

// GormStore keeps agent session history in the application database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AppendRun writes the run and its messages in one transaction.
func (s *GormStore) AppendRun(ctx context.Context, run *agent.SessionRun) (err error) {
	defer metrics.ObserveSessionStoreOp("database", "append_run", time.Now(), &err)

	entity := entities.NewSchemaAgentSessionRun(run)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to append session run", err, "0b6e3d9f-4a2c-4f7e-8d1b-5c9a2e6f0d31")
	}
	return nil
}

// RecentRuns returns up to limit latest runs of the session, oldest first.
func (s *GormStore) RecentRuns(ctx context.Context, sessionID string, limit int) (_ []*agent.SessionRun, err error) {
	defer metrics.ObserveSessionStoreOp("database", "recent_runs", time.Now(), &err)

	if limit <= 0 {
		return []*agent.SessionRun{}, nil
	}

	var rows []entities.AgentSessionRun
	err = s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq DESC").
		Limit(limit).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to load session runs", err, "8e2a5c0d-1f7b-4b9e-a3c6-7d0f4e1b9a52")
	}

	runs := make([]*agent.SessionRun, len(rows))
	for i := range rows {
		runs[len(rows)-1-i] = rows[i].EtoD()
	}
	return runs, nil
}

// Messages returns every message of the session in the order it was produced.
func (s *GormStore) Messages(ctx context.Context, sessionID string) (_ []agent.Message, err error) {
	defer metrics.ObserveSessionStoreOp("database", "messages", time.Now(), &err)

	var rows []entities.AgentSessionMessage
	err = s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("run_seq ASC").
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to load session messages", err, "f3c7a1e9-6d0b-4e2a-b5f8-2a9c6d3e0b74")
	}
	if len(rows) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, fmt.Sprintf("session not found: %s", sessionID), nil, "2d9f6b3a-8c1e-4a7d-9e0b-4f1a8c5d2e63")
	}

	messages := make([]agent.Message, 0, len(rows))
	for i := range rows {
		messages = append(messages, rows[i].EtoD())
	}
	return messages, nil
}
