// Package shipmentrepo persists shipment aggregates: the shipments table plus
// its parcels and its append-only labels.
package shipmentrepo

import (
	"encoding/json"
	"time"

	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/model/shipment"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ShipmentDTO is a row of the shipments table. One row per transfer.
type ShipmentDTO struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TransferID   int64      `gorm:"not null;uniqueIndex"`
	Destination  AddressDTO `gorm:"embedded;embeddedPrefix:dest_"`
	Status       int        `gorm:"type:smallint;not null"`
	DeliveryMode string     `gorm:"type:varchar(16);not null"`
	CarrierCode  string     `gorm:"type:varchar(32)"`
	CarrierName  string     `gorm:"type:varchar(100)"`
	Tracking     string     `gorm:"type:varchar(100)"`
	TrackingURL  string     `gorm:"type:varchar(512)"`
	DispatchedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Parcels      []ParcelDTO `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	Labels       []LabelDTO  `gorm:"foreignKey:ShipmentID;constraint:OnDelete:RESTRICT"`
}

func (ShipmentDTO) TableName() string {
	return "shipments"
}

// ParcelDTO is a row of shipment_parcels. Parcel rows are replaced wholesale
// whenever the shipment is saved.
type ParcelDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShipmentID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BoxNumber     int       `gorm:"type:int;not null"`
	WeightG       int       `gorm:"type:int;not null"`
	LengthMM      int       `gorm:"type:int;not null;default:0"`
	WidthMM       int       `gorm:"type:int;not null;default:0"`
	HeightMM      int       `gorm:"type:int;not null;default:0"`
	ContainerCode string    `gorm:"type:varchar(64)"`
	Status        string    `gorm:"type:varchar(16);not null"`
	Tracking      string    `gorm:"type:varchar(100)"`
}

func (ParcelDTO) TableName() string {
	return "shipment_parcels"
}

// LabelDTO is a row of shipment_labels. DeletedAt is the soft-delete marker;
// the partial unique index keeps at most one active label per shipment.
type LabelDTO struct {
	ID              uuid.UUID                              `gorm:"type:uuid;primaryKey"`
	ShipmentID      uuid.UUID                              `gorm:"type:uuid;not null;index;uniqueIndex:ux_shipment_labels_active,where:deleted_at IS NULL"`
	CarrierCode     string                                 `gorm:"type:varchar(32);not null"`
	CarrierName     string                                 `gorm:"type:varchar(100)"`
	Service         string                                 `gorm:"type:varchar(100)"`
	TrackingNumbers pq.StringArray                         `gorm:"type:text[]"`
	TrackingURL     string                                 `gorm:"type:varchar(512)"`
	DocumentRef     string                                 `gorm:"type:text"`
	CarrierOrderID  string                                 `gorm:"type:varchar(64)"`
	Cost            decimal.Decimal                        `gorm:"type:numeric(10,2);not null;default:0"`
	Breakdown       datatypes.JSONType[rate.CostBreakdown] `gorm:"type:jsonb"`
	RawResponse     datatypes.JSON                         `gorm:"type:jsonb"`
	Metadata        datatypes.JSONMap                      `gorm:"type:jsonb"`
	CreatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (LabelDTO) TableName() string {
	return "shipment_labels"
}

// AddressDTO is the destination embedded in the shipments table.
type AddressDTO struct {
	Name         string `gorm:"type:varchar(100)"`
	Company      string `gorm:"type:varchar(100)"`
	Line1        string `gorm:"type:varchar(255)"`
	Line2        string `gorm:"type:varchar(255)"`
	Suburb       string `gorm:"type:varchar(100)"`
	City         string `gorm:"type:varchar(100)"`
	Postcode     string `gorm:"type:varchar(16)"`
	Country      string `gorm:"type:varchar(2)"`
	Email        string `gorm:"type:varchar(255)"`
	Phone        string `gorm:"type:varchar(50)"`
	Instructions string `gorm:"type:varchar(255)"`
}

func fromDomain(s *shipment.Shipment) ShipmentDTO {
	shipmentID := s.ID().Value()

	parcels := make([]ParcelDTO, 0, len(s.Parcels()))
	for _, p := range s.Parcels() {
		parcels = append(parcels, parcelFromDomain(shipmentID, p))
	}

	labels := make([]LabelDTO, 0, len(s.Labels()))
	for _, l := range s.Labels() {
		labels = append(labels, labelFromDomain(shipmentID, l))
	}

	return ShipmentDTO{
		ID:           shipmentID,
		TransferID:   s.TransferID(),
		Destination:  addressFromDomain(s.Destination()),
		Status:       int(s.Status()),
		DeliveryMode: string(s.DeliveryMode()),
		CarrierCode:  s.CarrierCode(),
		CarrierName:  s.CarrierName(),
		Tracking:     s.Tracking(),
		TrackingURL:  s.TrackingURL(),
		DispatchedAt: s.DispatchedAt(),
		Parcels:      parcels,
		Labels:       labels,
	}
}

func parcelFromDomain(shipmentID uuid.UUID, p *shipment.Parcel) ParcelDTO {
	dims := p.Dimensions()
	return ParcelDTO{
		ID:            p.ID().Value(),
		ShipmentID:    shipmentID,
		BoxNumber:     p.BoxNumber(),
		WeightG:       p.WeightG(),
		LengthMM:      dims.Length(),
		WidthMM:       dims.Width(),
		HeightMM:      dims.Height(),
		ContainerCode: p.ContainerCode(),
		Status:        string(p.Status()),
		Tracking:      p.Tracking(),
	}
}

func labelFromDomain(shipmentID uuid.UUID, l *shipment.Label) LabelDTO {
	details := l.Details()

	var metadata datatypes.JSONMap
	if len(details.Metadata) > 0 {
		metadata = make(datatypes.JSONMap, len(details.Metadata))
		for k, v := range details.Metadata {
			metadata[k] = v
		}
	}

	var raw datatypes.JSON
	if len(details.RawResponse) > 0 {
		raw = datatypes.JSON(details.RawResponse)
	}

	dto := LabelDTO{
		ID:              l.ID().Value(),
		ShipmentID:      shipmentID,
		CarrierCode:     details.CarrierCode,
		CarrierName:     details.CarrierName,
		Service:         details.Service,
		TrackingNumbers: pq.StringArray(details.TrackingNumbers),
		TrackingURL:     details.TrackingURL,
		DocumentRef:     details.DocumentRef,
		CarrierOrderID:  details.CarrierOrderID,
		Cost:            details.Cost,
		Breakdown:       datatypes.NewJSONType(details.Breakdown),
		RawResponse:     raw,
		Metadata:        metadata,
		CreatedAt:       l.CreatedAt(),
	}
	if deleted := l.DeletedAt(); deleted != nil {
		dto.DeletedAt = gorm.DeletedAt{Time: *deleted, Valid: true}
	}
	return dto
}

func addressFromDomain(a address.Address) AddressDTO {
	return AddressDTO{
		Name:         a.Name,
		Company:      a.Company,
		Line1:        a.Line1,
		Line2:        a.Line2,
		Suburb:       a.Suburb,
		City:         a.City,
		Postcode:     a.Postcode,
		Country:      a.Country,
		Email:        a.Email,
		Phone:        a.Phone,
		Instructions: a.Instructions,
	}
}

func addressToDomain(dto AddressDTO) address.Address {
	return address.Address{
		Name:         dto.Name,
		Company:      dto.Company,
		Line1:        dto.Line1,
		Line2:        dto.Line2,
		Suburb:       dto.Suburb,
		City:         dto.City,
		Postcode:     dto.Postcode,
		Country:      dto.Country,
		Email:        dto.Email,
		Phone:        dto.Phone,
		Instructions: dto.Instructions,
	}
}

// toDomain rebuilds the aggregate. Only active labels are preloaded; if more
// than one is found the newest wins.
func toDomain(dto ShipmentDTO) (*shipment.Shipment, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}

	parcels := make([]*shipment.Parcel, 0, len(dto.Parcels))
	for _, pDto := range dto.Parcels {
		p, pErr := parcelToDomain(pDto)
		if pErr != nil {
			return nil, pErr
		}
		parcels = append(parcels, p)
	}

	var active *shipment.Label
	for _, lDto := range dto.Labels {
		if lDto.DeletedAt.Valid {
			continue
		}
		l, lErr := labelToDomain(lDto)
		if lErr != nil {
			return nil, lErr
		}
		if active == nil || l.CreatedAt().After(active.CreatedAt()) {
			active = l
		}
	}

	return shipment.RestoreShipment(
		id,
		dto.TransferID,
		addressToDomain(dto.Destination),
		shipment.Status(dto.Status),
		shipment.DeliveryMode(dto.DeliveryMode),
		dto.CarrierCode,
		dto.CarrierName,
		dto.Tracking,
		dto.TrackingURL,
		dto.DispatchedAt,
		parcels,
		active,
	), nil
}

func parcelToDomain(dto ParcelDTO) (*shipment.Parcel, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}

	dims, err := kernel.NewDimensions(dto.LengthMM, dto.WidthMM, dto.HeightMM)
	if err != nil {
		return nil, err
	}

	return shipment.RestoreParcel(
		id,
		dto.BoxNumber,
		dto.WeightG,
		dims,
		dto.ContainerCode,
		shipment.ParcelStatus(dto.Status),
		dto.Tracking,
	), nil
}

func labelToDomain(dto LabelDTO) (*shipment.Label, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}

	var metadata map[string]string
	if len(dto.Metadata) > 0 {
		metadata = make(map[string]string, len(dto.Metadata))
		for k, v := range dto.Metadata {
			if s, ok := v.(string); ok {
				metadata[k] = s
			}
		}
	}

	var raw json.RawMessage
	if len(dto.RawResponse) > 0 {
		raw = json.RawMessage(dto.RawResponse)
	}

	details := shipment.LabelDetails{
		CarrierCode:     dto.CarrierCode,
		CarrierName:     dto.CarrierName,
		Service:         dto.Service,
		TrackingNumbers: []string(dto.TrackingNumbers),
		TrackingURL:     dto.TrackingURL,
		DocumentRef:     dto.DocumentRef,
		CarrierOrderID:  dto.CarrierOrderID,
		Cost:            dto.Cost,
		Breakdown:       dto.Breakdown.Data(),
		RawResponse:     raw,
		Metadata:        metadata,
	}

	var deletedAt *time.Time
	if dto.DeletedAt.Valid {
		t := dto.DeletedAt.Time
		deletedAt = &t
	}

	return shipment.RestoreLabel(id, details, dto.CreatedAt, deletedAt), nil
}
