package jobs

import (
	"context"
	"log/slog"
	"time"

	"freight/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

type IdempotencyPurger interface {
	Handle(ctx context.Context, cmd commands.PurgeIdempotencyRecordsCommand) (int64, error)
}

// IdempotencyPurgeJob deletes stored label responses once they are older
// than the retention period.
type IdempotencyPurgeJob struct {
	handler   IdempotencyPurger
	schedule  string
	retention time.Duration
	timeout   time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewIdempotencyPurgeJob creates the job. An empty schedule disables it.
func NewIdempotencyPurgeJob(
	handler IdempotencyPurger,
	schedule string,
	retention time.Duration,
	timeout time.Duration,
	logger *slog.Logger,
) *IdempotencyPurgeJob {
	return &IdempotencyPurgeJob{
		handler:   handler,
		schedule:  schedule,
		retention: retention,
		timeout:   timeout,
		cron:      newCron(),
		logger:    logger.With("component", "idempotency_purge_job"),
	}
}

// Start validates the retention before scheduling so a bad configuration
// fails at startup rather than on every tick.
func (j *IdempotencyPurgeJob) Start() error {
	if j.schedule == "" {
		j.logger.InfoContext(context.Background(), "Idempotency purge job disabled")
		return nil
	}
	if _, err := commands.NewPurgeIdempotencyRecordsCommand(j.retention); err != nil {
		return err
	}
	if _, err := j.cron.AddFunc(j.schedule, j.Run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Idempotency purge job started",
		"schedule", j.schedule, "retention", j.retention.String())
	return nil
}

func (j *IdempotencyPurgeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	cmd, err := commands.NewPurgeIdempotencyRecordsCommand(j.retention)
	if err != nil {
		j.logger.ErrorContext(ctx, "Idempotency purge job misconfigured", "error", err)
		return
	}
	deleted, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Idempotency purge job failed", "error", err)
		return
	}
	if deleted > 0 {
		j.logger.InfoContext(ctx, "Idempotency records purged", "deleted", deleted)
	}
}

func (j *IdempotencyPurgeJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Idempotency purge job stopped")
}
