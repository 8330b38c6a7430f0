package commands

import (
	"context"

	"freight/internal/core/ports"
)

type PurgeIdempotencyRecordsCommandHandler struct {
	uowFactory IdempotencyUoWFactory
	clock      ports.Clock
}

func NewPurgeIdempotencyRecordsCommandHandler(uowFactory IdempotencyUoWFactory, clock ports.Clock) PurgeIdempotencyRecordsCommandHandler {
	return PurgeIdempotencyRecordsCommandHandler{uowFactory: uowFactory, clock: clock}
}

// Handle returns the number of deleted records.
func (h PurgeIdempotencyRecordsCommandHandler) Handle(ctx context.Context, cmd PurgeIdempotencyRecordsCommand) (int64, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	deleted, err := uow.IdempotencyRepository().DeleteOlderThan(ctx, h.clock.Now().Add(-cmd.Retention()))
	if err != nil {
		return 0, err
	}
	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}
	return deleted, nil
}
