package entities

import (
	"time"

	"gorm.io/datatypes"

	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(AgentSessionRun{}, AgentSessionMessage{})
}

// AgentSessionRun is one completed turn of an agent session.
type AgentSessionRun struct {
	Seq       uint              `gorm:"primaryKey;autoIncrement"`
	ID        string            `gorm:"type:varchar(36);uniqueIndex;not null"`
	SessionID string            `gorm:"type:varchar(64);index:idx_agent_session_run_session;not null"`
	UserID    string            `gorm:"type:varchar(36);index;not null"`
	Metadata  datatypes.JSONMap
	CreatedAt time.Time

	Messages []AgentSessionMessage `gorm:"foreignKey:RunSeq;references:Seq;constraint:OnDelete:CASCADE"`
}

func (AgentSessionRun) TableName() string {
	return "agent_session_runs"
}

// AgentSessionMessage stores one message of a run. Position keeps the order within the run.
type AgentSessionMessage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	RunSeq    uint   `gorm:"index:idx_agent_session_message_run;not null"`
	SessionID string `gorm:"type:varchar(64);index;not null"`
	Position  int    `gorm:"index:idx_agent_session_message_run;not null"`
	Role      string `gorm:"type:varchar(20);not null"`
	Content   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (AgentSessionMessage) TableName() string {
	return "agent_session_messages"
}

func NewSchemaAgentSessionRun(run *agent.SessionRun) *AgentSessionRun {
	entity := &AgentSessionRun{
		ID:        run.ID,
		SessionID: run.SessionID,
		UserID:    run.UserID,
		CreatedAt: run.CreatedAt,
	}
	if len(run.Metadata) > 0 {
		entity.Metadata = datatypes.JSONMap(run.Metadata)
	}
	for i, msg := range run.Messages {
		entity.Messages = append(entity.Messages, AgentSessionMessage{
			SessionID: run.SessionID,
			Position:  i,
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: run.CreatedAt,
		})
	}
	return entity
}

// EtoD expects Messages to be loaded in position order.
func (r *AgentSessionRun) EtoD() *agent.SessionRun {
	run := &agent.SessionRun{
		ID:        r.ID,
		SessionID: r.SessionID,
		UserID:    r.UserID,
		Messages:  make([]agent.Message, 0, len(r.Messages)),
		CreatedAt: r.CreatedAt.UTC(),
	}
	if len(r.Metadata) > 0 {
		run.Metadata = map[string]any(r.Metadata)
	}
	for _, msg := range r.Messages {
		run.Messages = append(run.Messages, msg.EtoD())
	}
	return run
}

func (m *AgentSessionMessage) EtoD() agent.Message {
	return agent.Message{Role: agent.Role(m.Role), Content: m.Content}
}
