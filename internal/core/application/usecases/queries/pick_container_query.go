package queries

import (
	"errors"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/pkg/errs"
	"freight/internal/pkg/guard"
)

var (
	ErrPickContainerQueryIsNotConstructed = errors.New(
		"PickContainerQuery must be created via NewPickContainerQuery constructor",
	)
	ErrVolumeIsInvalid = errors.New("volume must not be negative")
)

// PickContainerQuery asks for the best container of one carrier for a single
// parcel. Weight is checked by the picker itself so a non-positive weight
// comes back as INVALID_WEIGHT with diagnostics rather than a constructor
// error.
//
// Example:
//
//	dims, _ := kernel.NewDimensions(400, 300, 200)
//	query, err := NewPickContainerQuery("NZPOST", 2500, 0, dims)
//	result, err := handler.Handle(ctx, query)
//	fmt.Println(result.Container.Code(), result.Analysis.UtilizationPct)
type PickContainerQuery struct {
	carrierCode string
	weightG     int
	volumeCM3   float64
	dimensions  kernel.Dimensions

	guard guard.ConstructorGuard
}

func NewPickContainerQuery(carrierCode string, weightG int, volumeCM3 float64, dimensions kernel.Dimensions) (PickContainerQuery, error) {
	q := PickContainerQuery{weightG: weightG, dimensions: dimensions, guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		q.setCarrierCode(carrierCode),
		q.setVolume(volumeCM3),
	); err != nil {
		return PickContainerQuery{}, err
	}
	return q, nil
}

func (q PickContainerQuery) Validate() error {
	return q.guard.Validate(ErrPickContainerQueryIsNotConstructed)
}

func (q PickContainerQuery) CarrierCode() string           { return q.carrierCode }
func (q PickContainerQuery) WeightG() int                  { return q.weightG }
func (q PickContainerQuery) VolumeCM3() float64            { return q.volumeCM3 }
func (q PickContainerQuery) Dimensions() kernel.Dimensions { return q.dimensions }

func (q *PickContainerQuery) setCarrierCode(code string) error {
	code = catalog.NormalizeCarrierCode(code)
	if code == "" {
		return errs.NewValueIsRequiredError("carrier code")
	}
	q.carrierCode = code
	return nil
}

func (q *PickContainerQuery) setVolume(volume float64) error {
	if volume < 0 {
		return ErrVolumeIsInvalid
	}
	q.volumeCM3 = volume
	return nil
}
