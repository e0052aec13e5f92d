package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OctavianTocan/ai-nexus/internal/domain/tool"
)

type countingClient struct {
	calls int
	err   error
}

func (c *countingClient) Endpoint() string { return "https://docs.example.com/mcp" }

func (c *countingClient) ListTools(context.Context) ([]tool.Tool, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []tool.Tool{{Name: "search_docs"}}, nil
}

func (c *countingClient) CallTool(_ context.Context, name string, _ map[string]any) (*tool.Result, error) {
	return &tool.Result{ToolName: name, Text: "ok"}, nil
}

func TestCatalogCachesUntilExpiry(t *testing.T) {
	client := &countingClient{}
	catalog, err := NewCatalog(client, time.Minute, zerolog.Nop())
	require.NoError(t, err)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	catalog.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tools, err := catalog.ListTools(ctx)
		require.NoError(t, err)
		require.Len(t, tools, 1)
	}
	assert.Equal(t, 1, client.calls)

	now = now.Add(2 * time.Minute)
	_, err = catalog.ListTools(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)

	_, err = catalog.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, client.calls)
}

func TestCatalogRefreshFailureKeepsPreviousCopy(t *testing.T) {
	client := &countingClient{}
	catalog, err := NewCatalog(client, time.Minute, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = catalog.ListTools(ctx)
	require.NoError(t, err)

	client.err = errors.New("server down")
	_, err = catalog.Refresh(ctx)
	require.Error(t, err)

	tools, err := catalog.ListTools(ctx)
	require.NoError(t, err)
	assert.Len(t, tools, 1)
}

func TestCatalogPassesCallsThrough(t *testing.T) {
	catalog, err := NewCatalog(&countingClient{}, 0, zerolog.Nop())
	require.NoError(t, err)

	result, err := catalog.CallTool(context.Background(), "search_docs", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
	assert.Equal(t, "https://docs.example.com/mcp", catalog.Endpoint())
}
