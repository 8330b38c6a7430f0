package transferrepo

import (
	"context"
	"errors"

	"freight/internal/adapters/out/postgres/pgerrs"
	"freight/internal/core/domain/model/transfer"
	"freight/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormTransferRepository implements ports.TransferRepository using GORM.
type GormTransferRepository struct {
	db *gorm.DB
}

func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

// Get loads a transfer with its lines in insertion order.
func (r *GormTransferRepository) Get(ctx context.Context, id int64) (*transfer.Transfer, error) {
	var dto TransferDTO
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&dto, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("transfer", id)
		}
		return nil, pgerrs.Wrap("get transfer", err)
	}

	return toDomain(dto)
}
