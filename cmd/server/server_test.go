package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OctavianTocan/ai-nexus/internal/config"
	"github.com/OctavianTocan/ai-nexus/internal/domain/agent"
)

func TestRootCommandHasServeAndMigrate(t *testing.T) {
	root := newRootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate"}, names)
	require.NotNil(t, root.RunE)
}

func TestNewAgentConfig(t *testing.T) {
	cfg := &config.Config{AgentModel: "gemini-2.0-flash", AgentHistoryRuns: 3, AgentMaxToolDepth: 8}

	got := newAgentConfig(cfg)
	assert.Equal(t, agent.FactoryConfig{
		Model:        "gemini-2.0-flash",
		HistoryRuns:  3,
		MaxToolDepth: 8,
		ToolTimeout:  cfg.MCPToolTimeout,
		Markdown:     true,
	}, got)
}
