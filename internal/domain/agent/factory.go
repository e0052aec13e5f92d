package agent

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/domain/llm"
	"github.com/OctavianTocan/ai-nexus/internal/domain/tool"
)

const (
	DefaultName         = "Agno Agent"
	DefaultHistoryRuns  = 3
	DefaultMaxToolDepth = 8
	DefaultToolTimeout  = 45 * time.Second
)

// FactoryConfig holds the settings shared by every agent the factory builds.
type FactoryConfig struct {
	Name         string
	Model        string
	HistoryRuns  int
	MaxToolDepth int
	ToolTimeout  time.Duration
	Markdown     bool
}

// SessionConfig identifies the session and user a single agent instance works for.
type SessionConfig struct {
	SessionID string
	UserID    string
}

// Factory builds a fresh Agent for every chat turn. It holds no per-session state.
type Factory struct {
	cfg   FactoryConfig
	llm   llm.Provider
	tools tool.Client
	store SessionStore
	log   zerolog.Logger
}

// NewFactory creates an agent factory. tools may be nil to run without remote tools.
func NewFactory(cfg FactoryConfig, provider llm.Provider, tools tool.Client, store SessionStore, log zerolog.Logger) *Factory {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.HistoryRuns <= 0 {
		cfg.HistoryRuns = DefaultHistoryRuns
	}
	if cfg.MaxToolDepth <= 0 {
		cfg.MaxToolDepth = DefaultMaxToolDepth
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = DefaultToolTimeout
	}
	return &Factory{
		cfg:   cfg,
		llm:   provider,
		tools: tools,
		store: store,
		log:   log,
	}
}

// New returns an agent bound to the given session.
func (f *Factory) New(session SessionConfig) *Agent {
	return &Agent{
		cfg:       f.cfg,
		sessionID: session.SessionID,
		userID:    session.UserID,
		llm:       f.llm,
		tools:     f.tools,
		store:     f.store,
		log: f.log.With().
			Str("session_id", session.SessionID).
			Str("user_id", session.UserID).
			Str("model", f.cfg.Model).
			Logger(),
	}
}
