package shipmentrepo

import (
	"context"
	"errors"
	"slices"

	"freight/internal/adapters/out/postgres/pgerrs"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormShipmentRepository implements ports.ShipmentRepository using GORM.
// Update issues several statements; callers run it inside a unit of work so
// the label swap is atomic.
type GormShipmentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormShipmentRepository creates a new GORM shipment repository.
func NewGormShipmentRepository(db *gorm.DB, tracker aggregateTracker) *GormShipmentRepository {
	return &GormShipmentRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new shipment together with its parcels and labels.
func (r *GormShipmentRepository) Add(ctx context.Context, aggregate *shipment.Shipment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return pgerrs.Wrap("add shipment", err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// AddIfAbsent inserts only the shipment row, skipping it when the transfer
// already has one.
func (r *GormShipmentRepository) AddIfAbsent(ctx context.Context, aggregate *shipment.Shipment) (bool, error) {
	if err := aggregate.Validate(); err != nil {
		return false, err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transfer_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(&dto)
	if result.Error != nil {
		return false, pgerrs.Wrap("add shipment", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return true, nil
}

// Update writes the shipment row, replaces the parcel rows and upserts every
// label the aggregate holds. Soft-deleted labels are written before new ones
// so the one-active-label index never sees two active rows.
func (r *GormShipmentRepository) Update(ctx context.Context, aggregate *shipment.Shipment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	db := r.db.WithContext(ctx)

	result := db.Model(&ShipmentDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(&dto)
	if result.Error != nil {
		return pgerrs.Wrap("update shipment", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("shipment", aggregate.ID().String())
	}

	if err := db.Where("shipment_id = ?", dto.ID).Delete(&ParcelDTO{}).Error; err != nil {
		return pgerrs.Wrap("delete parcels", err)
	}
	if len(dto.Parcels) > 0 {
		if err := db.Create(&dto.Parcels).Error; err != nil {
			return pgerrs.Wrap("create parcels", err)
		}
	}

	labels := slices.Clone(dto.Labels)
	slices.SortStableFunc(labels, func(a, b LabelDTO) int {
		switch {
		case a.DeletedAt.Valid == b.DeletedAt.Valid:
			return 0
		case a.DeletedAt.Valid:
			return -1
		default:
			return 1
		}
	})
	for i := range labels {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"deleted_at"}),
		}).Create(&labels[i]).Error
		if err != nil {
			return pgerrs.Wrap("save label", err)
		}
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// GetByTransfer retrieves the shipment of a transfer with parcels and the
// active label.
func (r *GormShipmentRepository) GetByTransfer(ctx context.Context, transferID int64) (*shipment.Shipment, error) {
	return r.find(r.db.WithContext(ctx), transferID)
}

// LockByTransfer is GetByTransfer with SELECT ... FOR UPDATE on the shipment row.
func (r *GormShipmentRepository) LockByTransfer(ctx context.Context, transferID int64) (*shipment.Shipment, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), transferID)
}

func (r *GormShipmentRepository) find(db *gorm.DB, transferID int64) (*shipment.Shipment, error) {
	var dto ShipmentDTO
	err := db.
		Preload("Parcels", func(tx *gorm.DB) *gorm.DB { return tx.Order("box_number") }).
		Preload("Labels").
		First(&dto, "transfer_id = ?", transferID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("shipment", transferID)
		}
		return nil, pgerrs.Wrap("get shipment", err)
	}

	return toDomain(dto)
}
