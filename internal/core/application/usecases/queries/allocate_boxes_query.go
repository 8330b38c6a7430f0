package queries

import (
	"errors"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/services"
	"freight/internal/pkg/guard"
)

var (
	ErrAllocateBoxesQueryIsNotConstructed = errors.New(
		"AllocateBoxesQuery must be created via NewAllocateBoxesQuery constructor",
	)
	ErrMaxItemsIsInvalid       = errors.New("max items per box must not be negative")
	ErrFallbackWeightIsInvalid = errors.New("fallback weight must not be negative")
)

// AllocationOverrides change the packing rules for one request. Nil and
// zero fields keep the configured defaults. FallbackWeightG is split by
// weight alone when the transfer has no resolvable lines.
type AllocationOverrides struct {
	MaxItemsPerBox    int
	FragileSeparation *bool
	Consolidate       *bool
	FallbackWeightG   int
}

// AllocateBoxesQuery cartonises the lines of a transfer into boxes of one
// carrier's containers. An empty carrier code means NZ Post.
type AllocateBoxesQuery struct {
	transferID  int64
	carrierCode string
	overrides   AllocationOverrides

	guard guard.ConstructorGuard
}

func NewAllocateBoxesQuery(transferID int64, carrierCode string, overrides AllocationOverrides) (AllocateBoxesQuery, error) {
	q := AllocateBoxesQuery{overrides: overrides, guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		q.setTransferID(transferID),
		q.setOverrides(overrides),
	); err != nil {
		return AllocateBoxesQuery{}, err
	}
	q.carrierCode = catalog.NormalizeCarrierCode(carrierCode)
	if q.carrierCode == "" {
		q.carrierCode = catalog.CarrierNZPost
	}
	return q, nil
}

func (q AllocateBoxesQuery) Validate() error {
	return q.guard.Validate(ErrAllocateBoxesQueryIsNotConstructed)
}

func (q AllocateBoxesQuery) TransferID() int64              { return q.transferID }
func (q AllocateBoxesQuery) CarrierCode() string            { return q.carrierCode }
func (q AllocateBoxesQuery) Overrides() AllocationOverrides { return q.overrides }

// apply layers the overrides on top of base.
func (o AllocationOverrides) apply(base services.AllocatorOptions) services.AllocatorOptions {
	if o.MaxItemsPerBox > 0 {
		base.MaxItemsPerBox = o.MaxItemsPerBox
	}
	if o.FragileSeparation != nil {
		base.FragileSeparation = *o.FragileSeparation
	}
	if o.Consolidate != nil {
		base.Consolidate = *o.Consolidate
	}
	return base
}

func (q *AllocateBoxesQuery) setTransferID(id int64) error {
	if id <= 0 {
		return ErrTransferIDIsInvalid
	}
	q.transferID = id
	return nil
}

func (q *AllocateBoxesQuery) setOverrides(o AllocationOverrides) error {
	if o.MaxItemsPerBox < 0 {
		return ErrMaxItemsIsInvalid
	}
	if o.FallbackWeightG < 0 {
		return ErrFallbackWeightIsInvalid
	}
	return nil
}

// AllocatedBox is one packed box with the picker's verdict on it. Exactly
// one of Pick and FitError is set, except on weight-only boxes, which carry
// neither and have no items.
type AllocatedBox struct {
	Number       int
	Container    *catalog.ContainerSpec
	WeightG      int
	VolumeCM3    float64
	UnitEnvelope kernel.Dimensions
	ItemCount    int
	Categories   []string
	Items        []BoxItem
	Pick         *services.PickResult
	FitError     *services.FitError
}

// BoxItem is a product and the number of its units in a box.
type BoxItem struct {
	ProductID string
	Quantity  int
	WeightG   int
}

// AllocateBoxesQueryResponse is the cartonisation read model. Parcels holds
// the boxes in the shape rate shopping and label purchase accept.
type AllocateBoxesQueryResponse struct {
	TransferID       int64
	CarrierCode      string
	Boxes            []AllocatedBox
	Parcels          []rate.ParcelInput
	TotalWeightG     int
	TotalVolumeCM3   float64
	BoundingBox      kernel.Dimensions
	HasAllDimensions bool
	MissingIDs       []string
	WeightOnly       bool
}
