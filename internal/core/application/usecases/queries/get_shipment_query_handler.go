package queries

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GetShipmentQueryHandler reads shipments straight from the tables with SQL.
// It bypasses the aggregate mapping because it also returns soft-deleted
// labels.
type GetShipmentQueryHandler struct {
	db *gorm.DB
}

func NewGetShipmentQueryHandler(db *gorm.DB) GetShipmentQueryHandler {
	return GetShipmentQueryHandler{db: db}
}

// Handle returns NOT_FOUND when the transfer has no shipment yet.
func (h GetShipmentQueryHandler) Handle(ctx context.Context, query GetShipmentQuery) (*GetShipmentQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	db := h.db.WithContext(ctx)
	result, err := h.shipment(db, query.TransferID())
	if err != nil {
		return nil, err
	}

	shipmentID := result.ID.Value()
	if result.Parcels, err = h.parcels(db, shipmentID); err != nil {
		return nil, err
	}
	if result.Labels, err = h.labels(db, shipmentID); err != nil {
		return nil, err
	}
	for i := range result.Labels {
		if result.Labels[i].IsActive() {
			result.ActiveLabel = &result.Labels[i]
			break
		}
	}
	return result, nil
}

func (h GetShipmentQueryHandler) shipment(db *gorm.DB, transferID int64) (*GetShipmentQueryResponse, error) {
	rows, err := db.Raw(`
		SELECT
			id,
			transfer_id,
			status,
			delivery_mode,
			COALESCE(carrier_code, ''),
			COALESCE(carrier_name, ''),
			COALESCE(tracking, ''),
			COALESCE(tracking_url, ''),
			dispatched_at,
			COALESCE(dest_name, ''),
			COALESCE(dest_company, ''),
			COALESCE(dest_line1, ''),
			COALESCE(dest_line2, ''),
			COALESCE(dest_suburb, ''),
			COALESCE(dest_city, ''),
			COALESCE(dest_postcode, ''),
			COALESCE(dest_country, ''),
			COALESCE(dest_email, ''),
			COALESCE(dest_phone, ''),
			COALESCE(dest_instructions, '')
		FROM shipments
		WHERE transfer_id = ?
	`, transferID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, err
		}
		return nil, errs.NewNotFoundError(
			fmt.Sprintf("Transfer %d has no shipment yet.", transferID),
			errs.NewObjectNotFoundError("transfer_id", transferID),
		)
	}

	var (
		out          GetShipmentQueryResponse
		id           uuid.UUID
		status       int
		dispatchedAt sql.NullTime
	)
	dest := &out.Destination
	if err = rows.Scan(
		&id,
		&out.TransferID,
		&status,
		&out.DeliveryMode,
		&out.CarrierCode,
		&out.CarrierName,
		&out.Tracking,
		&out.TrackingURL,
		&dispatchedAt,
		&dest.Name,
		&dest.Company,
		&dest.Line1,
		&dest.Line2,
		&dest.Suburb,
		&dest.City,
		&dest.Postcode,
		&dest.Country,
		&dest.Email,
		&dest.Phone,
		&dest.Instructions,
	); err != nil {
		return nil, err
	}

	if out.ID, err = kernel.UUIDFromGoogle(id); err != nil {
		return nil, err
	}
	out.Status = shipment.Status(status).String()
	if dispatchedAt.Valid {
		at := dispatchedAt.Time.UTC()
		out.DispatchedAt = &at
	}
	return &out, rows.Err()
}

func (h GetShipmentQueryHandler) parcels(db *gorm.DB, shipmentID uuid.UUID) ([]ShipmentParcel, error) {
	rows, err := db.Raw(`
		SELECT
			box_number,
			weight_g,
			length_mm,
			width_mm,
			height_mm,
			COALESCE(container_code, ''),
			status,
			COALESCE(tracking, '')
		FROM shipment_parcels
		WHERE shipment_id = ?
		ORDER BY box_number
	`, shipmentID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parcels := make([]ShipmentParcel, 0)
	for rows.Next() {
		var p ShipmentParcel
		if err = rows.Scan(
			&p.BoxNumber,
			&p.WeightG,
			&p.LengthMM,
			&p.WidthMM,
			&p.HeightMM,
			&p.ContainerCode,
			&p.Status,
			&p.Tracking,
		); err != nil {
			return nil, err
		}
		parcels = append(parcels, p)
	}
	return parcels, rows.Err()
}

func (h GetShipmentQueryHandler) labels(db *gorm.DB, shipmentID uuid.UUID) ([]ShipmentLabel, error) {
	rows, err := db.Raw(`
		SELECT
			id,
			carrier_code,
			COALESCE(carrier_name, ''),
			COALESCE(service, ''),
			tracking_numbers,
			COALESCE(tracking_url, ''),
			COALESCE(document_ref, ''),
			COALESCE(carrier_order_id, ''),
			cost,
			created_at,
			deleted_at
		FROM shipment_labels
		WHERE shipment_id = ?
		ORDER BY created_at DESC, id
	`, shipmentID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := make([]ShipmentLabel, 0)
	for rows.Next() {
		var (
			l         ShipmentLabel
			id        uuid.UUID
			tracking  pq.StringArray
			createdAt time.Time
			deletedAt sql.NullTime
		)
		if err = rows.Scan(
			&id,
			&l.CarrierCode,
			&l.CarrierName,
			&l.Service,
			&tracking,
			&l.TrackingURL,
			&l.DocumentRef,
			&l.CarrierOrderID,
			&l.Cost,
			&createdAt,
			&deletedAt,
		); err != nil {
			return nil, err
		}
		if l.ID, err = kernel.UUIDFromGoogle(id); err != nil {
			return nil, err
		}
		l.TrackingNumbers = []string(tracking)
		l.CreatedAt = createdAt.UTC()
		if deletedAt.Valid {
			at := deletedAt.Time.UTC()
			l.DeletedAt = &at
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}
