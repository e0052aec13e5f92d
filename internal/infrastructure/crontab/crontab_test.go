package crontab

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OctavianTocan/ai-nexus/internal/domain/tool"
)

type fakeCatalog struct {
	refreshes atomic.Int32
	err       error
}

func (f *fakeCatalog) Endpoint() string { return "https://docs.example.com/mcp" }

func (f *fakeCatalog) Refresh(context.Context) ([]tool.Tool, error) {
	f.refreshes.Add(1)
	return nil, f.err
}

func TestRunRefreshesOnStartAndStopsWithContext(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("unreachable")}
	c := NewCrontab(catalog, 0)
	assert.Equal(t, DefaultCatalogRefreshInterval, c.intervalMinutes)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return catalog.refreshes.Load() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("crontab did not stop")
	}
}
