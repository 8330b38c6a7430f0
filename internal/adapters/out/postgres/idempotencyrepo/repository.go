package idempotencyrepo

import (
	"context"
	"errors"
	"time"

	"freight/internal/adapters/out/postgres/pgerrs"
	"freight/internal/core/domain/model/idempotency"
	"freight/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormIdempotencyRepository implements ports.IdempotencyRepository using GORM.
type GormIdempotencyRepository struct {
	db *gorm.DB
}

func NewGormIdempotencyRepository(db *gorm.DB) *GormIdempotencyRepository {
	return &GormIdempotencyRepository{db: db}
}

func (r *GormIdempotencyRepository) Get(ctx context.Context, key idempotency.Key) (*idempotency.Record, error) {
	var dto RecordDTO
	if err := r.db.WithContext(ctx).First(&dto, "key = ?", string(key)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("idempotency record", string(key))
		}
		return nil, pgerrs.Wrap("get idempotency record", err)
	}

	return toDomain(dto), nil
}

// Add inserts the record. A duplicate key surfaces as a CONFLICT error.
func (r *GormIdempotencyRepository) Add(ctx context.Context, record *idempotency.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	dto := fromDomain(record)
	return pgerrs.Wrap("add idempotency record", r.db.WithContext(ctx).Create(&dto).Error)
}

func (r *GormIdempotencyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&RecordDTO{})
	if result.Error != nil {
		return 0, pgerrs.Wrap("purge idempotency records", result.Error)
	}
	return result.RowsAffected, nil
}
