package crontab

import (
	"context"
	"fmt"
	"time"

	"github.com/mileusna/crontab"

	"flowcore-server/services/message-worker/internal/config"
	"flowcore-server/services/message-worker/internal/domain/worker"
	"flowcore-server/services/message-worker/internal/infrastructure/logger"
	"flowcore-server/services/message-worker/internal/utils/platformerrors"
)

const (
	DefaultPollInterval = 1                // in minutes
	CronJobTimeout      = 10 * time.Minute // Timeout for each cron job execution
)

type Crontab struct {
	ctab      *crontab.Crontab
	processor *worker.Processor
}

func NewCrontab(processor *worker.Processor) *Crontab {
	return &Crontab{
		ctab:      crontab.New(),
		processor: processor,
	}
}

func (c *Crontab) Run(ctx context.Context) error {
	log := logger.GetLogger()
	// drain once on server start
	c.drainQueue(ctx)

	cfg := config.GetGlobal()
	if cfg != nil && cfg.QueuePollEnabled {
		pollInterval := cfg.QueuePollIntervalMins
		if pollInterval <= 0 {
			pollInterval = DefaultPollInterval
		}

		cronExpr := fmt.Sprintf("*/%d * * * *", pollInterval)
		if err := c.ctab.AddJob(cronExpr, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
			defer cancel()
			c.drainQueue(jobCtx)
		}); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to add queue poll job")
		}
		log.Warn().Msgf("Queue poll scheduled: every %d minute(s)", pollInterval)
	}

	// Schedule environment reload job
	if err := c.ctab.AddJob("* * * * *", func() {
		// Reload config
		config.Load()
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to add env reload job")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

// drainQueue processes batches until the queue is empty or the context
// expires. RunBatch reports how many items it claimed; zero means done.
func (c *Crontab) drainQueue(ctx context.Context) {
	log := logger.GetLogger()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		claimed, err := c.processor.RunBatch(ctx)
		if err != nil {
			log.Error().Err(err).Msg("queue batch failed")
			return
		}
		if claimed == 0 {
			return
		}
		log.Info().Int("claimed", claimed).Msg("processed queue batch")
	}
}
