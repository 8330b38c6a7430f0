package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds the job schedules. Schedules use the six-field cron syntax
// with seconds; an empty schedule disables the job.
type Config struct {
	ProductSyncSchedule      string
	IdempotencyPurgeSchedule string
	IdempotencyRetention     time.Duration
	RunTimeout               time.Duration
}

func DefaultConfig() Config {
	return Config{
		ProductSyncSchedule:      "0 0 3 * * *",
		IdempotencyPurgeSchedule: "0 15 * * * *",
		IdempotencyRetention:     30 * 24 * time.Hour,
		RunTimeout:               5 * time.Minute,
	}
}

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	productSyncJob      *ProductSyncJob
	idempotencyPurgeJob *IdempotencyPurgeJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	syncHandler ProductSyncer,
	purgeHandler IdempotencyPurger,
	config Config,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		productSyncJob: NewProductSyncJob(syncHandler, config.ProductSyncSchedule, config.RunTimeout, logger),
		idempotencyPurgeJob: NewIdempotencyPurgeJob(
			purgeHandler,
			config.IdempotencyPurgeSchedule,
			config.IdempotencyRetention,
			config.RunTimeout,
			logger,
		),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.productSyncJob.Start(); err != nil {
		return fmt.Errorf("failed to start product sync job: %w", err)
	}

	if err := jm.idempotencyPurgeJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.productSyncJob.Stop()
		return fmt.Errorf("failed to start idempotency purge job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.idempotencyPurgeJob.Stop()
	jm.productSyncJob.Stop()
}

// newCron skips a tick while the previous run is still going.
func newCron() *cron.Cron {
	return cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
}
