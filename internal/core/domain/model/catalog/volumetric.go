package catalog

import "math"

// Two volumetric conventions are in use and kept apart on purpose:
//
//   - the catalog/pricing path stores a cubic factor per carrier in kg/m³
//     (DefaultCubicFactor when the carrier row has none);
//   - the parcel path (live rates, manual parcels) uses a divisor in cm³/kg.
//
// 200 kg/m³ and 5000 cm³/kg give the same grams for the same volume. They are
// still configured independently so either can change per carrier.
const (
	DefaultCubicFactor       = 200
	DefaultVolumetricDivisor = 5000
)

// VolumetricGramsByFactor converts a volume to billable grams using a cubic
// factor in kg/m³. One cm³ at F kg/m³ weighs F/1000 g. Rounded up.
func VolumetricGramsByFactor(volumeCM3 float64, factorKgPerM3 int) int {
	if volumeCM3 <= 0 {
		return 0
	}
	if factorKgPerM3 <= 0 {
		factorKgPerM3 = DefaultCubicFactor
	}
	return int(math.Ceil(volumeCM3 * float64(factorKgPerM3) / 1000))
}

// VolumetricGramsByDivisor converts a volume to billable grams using a divisor
// in cm³/kg. Rounded up.
func VolumetricGramsByDivisor(volumeCM3 float64, divisorCM3PerKg int) int {
	if volumeCM3 <= 0 {
		return 0
	}
	if divisorCM3PerKg <= 0 {
		divisorCM3PerKg = DefaultVolumetricDivisor
	}
	return int(math.Ceil(volumeCM3 * 1000 / float64(divisorCM3PerKg)))
}
