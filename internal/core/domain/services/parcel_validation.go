package services

import (
	"fmt"

	"freight/internal/core/domain/model/rate"
	"freight/internal/pkg/errs"
	"freight/internal/pkg/validation"
)

type quoteParcel struct {
	WeightG  int `json:"weight_g" validate:"omitempty,min=2,max=30000"`
	LengthMM int `json:"length_mm" validate:"gte=0,lte=1500"`
	WidthMM  int `json:"width_mm" validate:"gte=0,lte=1500"`
	HeightMM int `json:"height_mm" validate:"gte=0,lte=1500"`
}

type purchaseParcel struct {
	WeightG  int `json:"weight_g" validate:"required,min=10,max=30000"`
	LengthMM int `json:"length_mm" validate:"gte=0,lte=1500"`
	WidthMM  int `json:"width_mm" validate:"gte=0,lte=1500"`
	HeightMM int `json:"height_mm" validate:"gte=0,lte=1500"`
}

type quoteParcels struct {
	Parcels []quoteParcel `json:"parcels" validate:"dive"`
}

type purchaseParcels struct {
	Parcels []purchaseParcel `json:"parcels" validate:"min=1,dive"`
}

// ValidateParcels checks caller parcels against the shipping limits and
// returns an INPUT error with one message per failing field. Rate requests
// accept unknown weights and kilogram weights up to MaxKgWeight; a rate
// weight between MaxKgWeight and KgWeightCeiling is over the kilogram limit.
// Purchases (requireWeight) take grams only.
func ValidateParcels(parcels []rate.ParcelInput, requireWeight bool) error {
	if len(parcels) > MaxParcels {
		return errs.NewInputError(
			errs.CodeInputTooManyParcels,
			fmt.Sprintf("At most %d parcels can be shipped at once.", MaxParcels),
			map[string]string{"parcels": fmt.Sprintf("must contain at most %d entries", MaxParcels)},
		)
	}

	if requireWeight {
		in := purchaseParcels{Parcels: make([]purchaseParcel, len(parcels))}
		for i, p := range parcels {
			in.Parcels[i] = purchaseParcel{WeightG: p.WeightG, LengthMM: p.LengthMM, WidthMM: p.WidthMM, HeightMM: p.HeightMM}
		}
		return validation.Struct(in, errs.CodeInputInvalid, "Parcel data is invalid.")
	}

	in := quoteParcels{Parcels: make([]quoteParcel, len(parcels))}
	for i, p := range parcels {
		in.Parcels[i] = quoteParcel{WeightG: p.WeightG, LengthMM: p.LengthMM, WidthMM: p.WidthMM, HeightMM: p.HeightMM}
	}
	fields := validation.Fields(in)
	for i, p := range parcels {
		if p.WeightG > MaxKgWeight && p.WeightG <= KgWeightCeiling {
			if fields == nil {
				fields = make(map[string]string)
			}
			fields[fmt.Sprintf("parcels[%d].weight_g", i)] = fmt.Sprintf("reads as kilograms; must be at most %d kg", MaxKgWeight)
		}
	}
	if fields != nil {
		return errs.NewInputError(errs.CodeInputInvalid, "Parcel data is invalid.", fields)
	}
	return nil
}
