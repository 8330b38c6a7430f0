package jobs

import (
	"context"
	"log/slog"
	"time"

	"freight/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

type ProductSyncer interface {
	Handle(ctx context.Context, cmd commands.SyncCarrierProductsCommand) ([]commands.CarrierSync, error)
}

// ProductSyncJob refreshes the container catalog from the carriers' product
// feeds on a cron schedule.
type ProductSyncJob struct {
	handler  ProductSyncer
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewProductSyncJob creates the job. An empty schedule disables it.
func NewProductSyncJob(handler ProductSyncer, schedule string, timeout time.Duration, logger *slog.Logger) *ProductSyncJob {
	return &ProductSyncJob{
		handler:  handler,
		schedule: schedule,
		timeout:  timeout,
		cron:     newCron(),
		logger:   logger.With("component", "product_sync_job"),
	}
}

func (j *ProductSyncJob) Start() error {
	if j.schedule == "" {
		j.logger.InfoContext(context.Background(), "Product sync job disabled")
		return nil
	}
	if _, err := j.cron.AddFunc(j.schedule, j.Run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Product sync job started", "schedule", j.schedule)
	return nil
}

// Run syncs every registered carrier once.
func (j *ProductSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	report, err := j.handler.Handle(ctx, commands.NewSyncCarrierProductsCommand())
	if err != nil {
		j.logger.ErrorContext(ctx, "Product sync job failed", "error", err)
	}
	for _, r := range report {
		if r.Err == nil && r.Skipped == "" {
			j.logger.InfoContext(ctx, "Product sync finished", "carrier", r.Carrier, "created", r.Created, "updated", r.Updated)
		}
	}
}

// Stop stops the schedule and waits for a running sync to finish.
func (j *ProductSyncJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Product sync job stopped")
}
