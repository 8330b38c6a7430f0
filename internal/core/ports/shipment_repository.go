package ports

import (
	"context"

	"freight/internal/core/domain/model/shipment"
)

// ShipmentRepository persists shipment aggregates together with their
// parcels and labels.
type ShipmentRepository interface {
	// Add persists a new shipment with its parcels and labels.
	Add(ctx context.Context, aggregate *shipment.Shipment) error

	// AddIfAbsent inserts the shipment row unless the transfer already has
	// one. It blocks while another transaction holds an uncommitted row for
	// the same transfer and reports whether this call inserted.
	AddIfAbsent(ctx context.Context, aggregate *shipment.Shipment) (bool, error)

	// Update writes the shipment row, replaces its parcel rows with the
	// current set and upserts every label. Labels are never deleted; a
	// soft-deleted label keeps its row with deleted_at set.
	Update(ctx context.Context, aggregate *shipment.Shipment) error

	// GetByTransfer returns the shipment of a transfer with its parcels and
	// active label. Returns errs.ErrObjectNotFound when none exists yet.
	GetByTransfer(ctx context.Context, transferID int64) (*shipment.Shipment, error)

	// LockByTransfer is GetByTransfer with a row lock held until the
	// surrounding transaction ends. Concurrent purchases for the same
	// transfer serialize on it.
	LockByTransfer(ctx context.Context, transferID int64) (*shipment.Shipment, error)
}
