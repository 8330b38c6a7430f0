package ports

import (
	"context"
	"time"

	"freight/internal/core/domain/model/idempotency"
)

// IdempotencyRepository stores replayable responses keyed by the client's
// idempotency key.
type IdempotencyRepository interface {
	// Get returns the record for key, or errs.ErrObjectNotFound.
	Get(ctx context.Context, key idempotency.Key) (*idempotency.Record, error)

	// Add inserts a record. A concurrent insert of the same key fails with
	// a unique violation and the caller's transaction rolls back.
	Add(ctx context.Context, record *idempotency.Record) error

	// DeleteOlderThan removes records created before cutoff and reports how
	// many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
