package shipment

import (
	"errors"
	"fmt"
	"strings"

	"freight/internal/core/domain/model/kernel"
	"freight/internal/pkg/errs"
	"freight/internal/pkg/guard"
)

var ErrParcelIsNotConstructed = errors.New("Parcel must be created via NewParcel constructor")

// ParcelStatus is pending until the label covering the parcel is bought.
type ParcelStatus string

const (
	ParcelPending  ParcelStatus = "pending"
	ParcelLabelled ParcelStatus = "labelled"
)

// Parcel is a finalized box bound to a container. Only its status and
// tracking number change after creation.
type Parcel struct {
	id            kernel.UUID
	boxNumber     int
	weightG       int
	dimensions    kernel.Dimensions
	containerCode string
	status        ParcelStatus
	tracking      string
	guard         guard.ConstructorGuard
}

func NewParcel(boxNumber, weightG int, dimensions kernel.Dimensions, containerCode string) (*Parcel, error) {
	p := &Parcel{
		id:            kernel.NewUUID(),
		dimensions:    dimensions,
		containerCode: strings.TrimSpace(containerCode),
		status:        ParcelPending,
		guard:         guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		p.setBoxNumber(boxNumber),
		p.setWeight(weightG),
	); err != nil {
		return nil, err
	}
	return p, nil
}

// RestoreParcel rebuilds a parcel from storage without validation.
func RestoreParcel(
	id kernel.UUID,
	boxNumber, weightG int,
	dimensions kernel.Dimensions,
	containerCode string,
	status ParcelStatus,
	tracking string,
) *Parcel {
	return &Parcel{
		id:            id,
		boxNumber:     boxNumber,
		weightG:       weightG,
		dimensions:    dimensions,
		containerCode: containerCode,
		status:        status,
		tracking:      tracking,
		guard:         guard.NewConstructorGuard(),
	}
}

func (p *Parcel) Validate() error {
	if p == nil {
		return ErrParcelIsNotConstructed
	}
	return p.guard.Validate(ErrParcelIsNotConstructed)
}

func (p *Parcel) ID() kernel.UUID               { return p.id }
func (p *Parcel) BoxNumber() int                { return p.boxNumber }
func (p *Parcel) WeightG() int                  { return p.weightG }
func (p *Parcel) Dimensions() kernel.Dimensions { return p.dimensions }
func (p *Parcel) ContainerCode() string         { return p.containerCode }
func (p *Parcel) Status() ParcelStatus          { return p.status }
func (p *Parcel) Tracking() string              { return p.tracking }

func (p *Parcel) markLabelled(tracking string) {
	p.status = ParcelLabelled
	p.tracking = tracking
}

func (p *Parcel) setBoxNumber(n int) error {
	if n < 1 {
		return errs.NewValueIsInvalidErrorWithCause("box_number", fmt.Errorf("%d is not greater than 0", n))
	}
	p.boxNumber = n
	return nil
}

func (p *Parcel) setWeight(weightG int) error {
	if weightG <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("weight_g", fmt.Errorf("%d is not greater than 0", weightG))
	}
	p.weightG = weightG
	return nil
}
