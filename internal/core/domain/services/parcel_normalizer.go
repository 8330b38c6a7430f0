package services

import (
	"fmt"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/rate"
)

// Parcel input limits shared by rate requests and label purchases.
const (
	MaxParcels           = 50
	MinParcelWeightG     = 10
	MaxParcelWeightG     = 30000
	MaxParcelDimensionMM = 1500
	DefaultParcelWeightG = 1000

	// Caller weights from MinKgWeight to KgWeightCeiling are read as
	// kilograms. Only those up to MaxKgWeight are within the parcel limit.
	MinKgWeight     = 2
	MaxKgWeight     = MaxParcelWeightG / 1000
	KgWeightCeiling = 200
)

// Input fix types reported back to the caller.
const (
	FixUnitCoerced        = "unit_coerced"
	FixVolumetricUsed     = "volumetric_used"
	FixDimensionClamped   = "dimension_clamped"
	FixCopiedDomWeight    = "copied_dom_weight"
	FixDefaultWeight      = "fallback_default_weight"
	FixWeightRounded      = "weight_rounded"
	FixParcelLimitApplied = "parcel_limit"
)

// ParcelNormalizer repairs caller parcels before they are quoted. Every change
// is reported as a rate.InputFix.
//
// Rules, applied per parcel in order:
//   - a weight between 2 and 30 is read as kilograms
//   - a missing weight with full dimensions becomes the volumetric weight
//   - missing dimensions are clamped to 1 mm
//
// Then, for the whole set: when no parcel has weight the first parcel gets the
// fallback weight (or 1 kg), weights round up to 10 g and the list is cut to
// MaxParcels. An empty list becomes one satchel.
type ParcelNormalizer struct {
	divisor int
}

func NewParcelNormalizer(volumetricDivisor int) ParcelNormalizer {
	if volumetricDivisor <= 0 {
		volumetricDivisor = catalog.DefaultVolumetricDivisor
	}
	return ParcelNormalizer{divisor: volumetricDivisor}
}

// Normalize never fails. fallbackWeightG is used when the parcels carry no
// weight at all; 0 means DefaultParcelWeightG.
func (n ParcelNormalizer) Normalize(parcels []rate.ParcelInput, fallbackWeightG int) ([]rate.ParcelInput, []rate.InputFix) {
	fixes := make([]rate.InputFix, 0)

	if len(parcels) == 0 {
		weight, fix := fallbackWeight(fallbackWeightG, "parcels")
		return []rate.ParcelInput{{Type: "satchel", WeightG: weight, LengthMM: 1, WidthMM: 1, HeightMM: 1}}, append(fixes, fix)
	}

	out := make([]rate.ParcelInput, 0, len(parcels))
	total := 0
	for i, p := range parcels {
		field := fmt.Sprintf("parcels[%d]", i)

		if p.WeightG >= MinKgWeight && p.WeightG <= MaxKgWeight {
			p.WeightG *= 1000
			fixes = append(fixes, rate.InputFix{
				Type: FixUnitCoerced, Field: field + ".weight_g", Detail: "weight looked like kg; converted to g",
			})
		}

		if p.WeightG <= 0 && p.HasDimensions() {
			volume := float64(p.LengthMM) / 10 * float64(p.WidthMM) / 10 * float64(p.HeightMM) / 10
			if w := catalog.VolumetricGramsByDivisor(volume, n.divisor); w > 0 {
				p.WeightG = w
				fixes = append(fixes, rate.InputFix{
					Type: FixVolumetricUsed, Field: field + ".weight_g", Detail: "weight derived from volume",
				})
			}
		}

		if !p.HasDimensions() {
			p.LengthMM, p.WidthMM, p.HeightMM = max(1, p.LengthMM), max(1, p.WidthMM), max(1, p.HeightMM)
			fixes = append(fixes, rate.InputFix{
				Type: FixDimensionClamped, Field: field, Detail: "missing dimensions set to 1 mm",
			})
		}

		if p.Type == "" {
			p.Type = "box"
		}
		total += max(0, p.WeightG)
		out = append(out, p)
	}

	if total <= 0 {
		weight, fix := fallbackWeight(fallbackWeightG, "parcels[0].weight_g")
		out[0].WeightG = weight
		fixes = append(fixes, fix)
	}

	for i := range out {
		rounded := roundUpTo10(out[i].WeightG)
		if rounded != out[i].WeightG {
			out[i].WeightG = rounded
			fixes = append(fixes, rate.InputFix{
				Type: FixWeightRounded, Field: fmt.Sprintf("parcels[%d].weight_g", i), Detail: "rounded up to 10 g",
			})
		}
	}

	if len(out) > MaxParcels {
		out = out[:MaxParcels]
		fixes = append(fixes, rate.InputFix{
			Type: FixParcelLimitApplied, Field: "parcels", Detail: fmt.Sprintf("trimmed to %d parcels", MaxParcels),
		})
	}
	return out, fixes
}

// TotalWeightG sums parcel weights.
func TotalWeightG(parcels []rate.ParcelInput) int {
	total := 0
	for _, p := range parcels {
		total += max(0, p.WeightG)
	}
	return total
}

func fallbackWeight(fallbackWeightG int, field string) (int, rate.InputFix) {
	if fallbackWeightG > 0 {
		return roundUpTo10(fallbackWeightG), rate.InputFix{
			Type: FixCopiedDomWeight, Field: field, Detail: "copied the transfer's recorded weight",
		}
	}
	return DefaultParcelWeightG, rate.InputFix{
		Type: FixDefaultWeight, Field: field, Detail: "no weight provided; assumed 1 kg",
	}
}

func roundUpTo10(g int) int {
	if g <= 0 {
		return 0
	}
	return (g + 9) / 10 * 10
}
