package crontab

import (
	"context"
	"fmt"
	"time"

	"github.com/mileusna/crontab"

	"github.com/OctavianTocan/ai-nexus/internal/domain/tool"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/logger"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

const (
	DefaultCatalogRefreshInterval = 10              // in minutes
	CronJobTimeout                = 2 * time.Minute // Timeout for each cron job execution
)

// CatalogRefresher is implemented by tool catalogs that can be refreshed in the background.
type CatalogRefresher interface {
	Endpoint() string
	Refresh(ctx context.Context) ([]tool.Tool, error)
}

type Crontab struct {
	ctab            *crontab.Crontab
	catalog         CatalogRefresher
	intervalMinutes int
}

func NewCrontab(catalog CatalogRefresher, intervalMinutes int) *Crontab {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultCatalogRefreshInterval
	}
	return &Crontab{
		ctab:            crontab.New(),
		catalog:         catalog,
		intervalMinutes: intervalMinutes,
	}
}

// Run warms the tool catalog, schedules periodic refreshes and blocks until ctx is done.
func (c *Crontab) Run(ctx context.Context) error {
	log := logger.GetLogger()

	// execute once on server start
	c.refreshCatalog(ctx)

	cronExpr := fmt.Sprintf("*/%d * * * *", c.intervalMinutes)
	if err := c.ctab.AddJob(cronExpr, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
		defer cancel()
		c.refreshCatalog(jobCtx)
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add tool catalog refresh job")
	}
	log.Info().Msgf("Tool catalog refresh scheduled: every %d minute(s)", c.intervalMinutes)

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) refreshCatalog(ctx context.Context) {
	log := logger.GetLogger()

	tools, err := c.catalog.Refresh(ctx)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", c.catalog.Endpoint()).Msg("Failed to refresh tool catalog")
		return
	}
	log.Info().Str("endpoint", c.catalog.Endpoint()).Msgf("Refreshed %d tools", len(tools))
}
