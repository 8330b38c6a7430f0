package queries

import (
	"errors"
	"time"

	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetShipmentQueryIsNotConstructed = errors.New(
	"GetShipmentQuery must be created via NewGetShipmentQuery constructor",
)

// GetShipmentQuery reads the shipment of a transfer with its parcels and
// full label history.
//
// Example:
//
//	query, err := NewGetShipmentQuery(42)
//	shipment, err := handler.Handle(ctx, query)
//	if shipment.ActiveLabel != nil {
//	    fmt.Println(shipment.ActiveLabel.TrackingNumbers)
//	}
type GetShipmentQuery struct {
	transferID int64

	guard guard.ConstructorGuard
}

func NewGetShipmentQuery(transferID int64) (GetShipmentQuery, error) {
	q := GetShipmentQuery{guard: guard.NewConstructorGuard()}
	if transferID <= 0 {
		return GetShipmentQuery{}, ErrTransferIDIsInvalid
	}
	q.transferID = transferID
	return q, nil
}

func (q GetShipmentQuery) Validate() error {
	return q.guard.Validate(ErrGetShipmentQueryIsNotConstructed)
}

func (q GetShipmentQuery) TransferID() int64 { return q.transferID }

// GetShipmentQueryResponse is the shipment read model. Labels lists every
// label ever attached, newest first; ActiveLabel points into it.
type GetShipmentQueryResponse struct {
	ID           kernel.UUID
	TransferID   int64
	Status       string
	DeliveryMode string
	CarrierCode  string
	CarrierName  string
	Tracking     string
	TrackingURL  string
	DispatchedAt *time.Time
	Destination  address.Address
	Parcels      []ShipmentParcel
	Labels       []ShipmentLabel
	ActiveLabel  *ShipmentLabel
}

type ShipmentParcel struct {
	BoxNumber     int
	WeightG       int
	LengthMM      int
	WidthMM       int
	HeightMM      int
	ContainerCode string
	Status        string
	Tracking      string
}

type ShipmentLabel struct {
	ID              kernel.UUID
	CarrierCode     string
	CarrierName     string
	Service         string
	TrackingNumbers []string
	TrackingURL     string
	DocumentRef     string
	CarrierOrderID  string
	Cost            decimal.Decimal
	CreatedAt       time.Time
	DeletedAt       *time.Time
}

func (l ShipmentLabel) IsActive() bool {
	return l.DeletedAt == nil
}
