package mcp

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/domain/tool"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/metrics"
)

const (
	DefaultCatalogTTL = 10 * time.Minute
	catalogCacheSize  = 16
)

type catalogEntry struct {
	tools     []tool.Tool
	fetchedAt time.Time
}

// Catalog caches the tool list of a Client keyed by endpoint. Calls pass straight through.
// It is shared by every agent and holds no conversation state.
type Catalog struct {
	client tool.Client
	cache  *lru.Cache
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger

	mu sync.Mutex
}

var _ tool.Client = (*Catalog)(nil)

func NewCatalog(client tool.Client, ttl time.Duration, log zerolog.Logger) (*Catalog, error) {
	cache, err := lru.New(catalogCacheSize)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &Catalog{
		client: client,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		log:    log.With().Str("component", "tool-catalog").Logger(),
	}, nil
}

func (c *Catalog) Endpoint() string {
	return c.client.Endpoint()
}

// ListTools returns the cached catalog while it is fresh and fetches it otherwise.
func (c *Catalog) ListTools(ctx context.Context) ([]tool.Tool, error) {
	if tools, ok := c.cached(); ok {
		return tools, nil
	}
	return c.refresh(ctx, false)
}

// Refresh refetches the catalog even when the cached copy is still fresh.
// A failed refresh keeps the previous copy in place.
func (c *Catalog) Refresh(ctx context.Context) ([]tool.Tool, error) {
	return c.refresh(ctx, true)
}

func (c *Catalog) refresh(ctx context.Context, force bool) ([]tool.Tool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if tools, ok := c.cached(); ok && !force {
		return tools, nil
	}

	tools, err := c.client.ListTools(ctx)
	if err != nil {
		metrics.RecordToolCatalogRefresh("error")
		return nil, err
	}

	c.cache.Add(c.client.Endpoint(), catalogEntry{tools: tools, fetchedAt: c.now()})
	metrics.RecordToolCatalogRefresh("success")
	c.log.Debug().Int("tools", len(tools)).Msg("tool catalog refreshed")
	return tools, nil
}

func (c *Catalog) cached() ([]tool.Tool, bool) {
	value, ok := c.cache.Get(c.client.Endpoint())
	if !ok {
		return nil, false
	}
	entry := value.(catalogEntry)
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	return entry.tools, true
}

func (c *Catalog) CallTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error) {
	return c.client.CallTool(ctx, name, args)
}
