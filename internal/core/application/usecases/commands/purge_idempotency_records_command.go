package commands

import (
	"errors"
	"fmt"
	"time"

	"freight/internal/pkg/guard"
)

var ErrPurgeIdempotencyRecordsCommandIsNotConstructed = errors.New(
	"PurgeIdempotencyRecordsCommand must be created via NewPurgeIdempotencyRecordsCommand constructor",
)

// PurgeIdempotencyRecordsCommand deletes stored responses older than the
// retention period. A key seen again after the purge is treated as new.
type PurgeIdempotencyRecordsCommand struct {
	retention time.Duration

	guard guard.ConstructorGuard
}

func NewPurgeIdempotencyRecordsCommand(retention time.Duration) (PurgeIdempotencyRecordsCommand, error) {
	if retention < time.Hour {
		return PurgeIdempotencyRecordsCommand{}, fmt.Errorf("retention %s is shorter than one hour", retention)
	}
	return PurgeIdempotencyRecordsCommand{retention: retention, guard: guard.NewConstructorGuard()}, nil
}

func (c PurgeIdempotencyRecordsCommand) Validate() error {
	return c.guard.Validate(ErrPurgeIdempotencyRecordsCommandIsNotConstructed)
}

func (c PurgeIdempotencyRecordsCommand) Retention() time.Duration { return c.retention }
