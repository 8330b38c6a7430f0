package services

import (
	"slices"

	"freight/internal/core/domain/model/allocation"
	"freight/internal/core/domain/model/kernel"
)

// DefaultUnitWeightG is used when neither the product nor its category has
// a recorded weight.
const DefaultUnitWeightG = 500

// Resolution is the physical summary of a set of transfer lines.
type Resolution struct {
	Lines            []allocation.LineItem
	TotalWeightG     int
	TotalVolumeCM3   float64
	BoundingBox      kernel.Dimensions
	HasAllDimensions bool
	MissingIDs       []string
}

// DimensionResolver turns (product, quantity) pairs into line items with unit
// weights and dimensions. It never fails: missing master data falls back to
// defaults and the product id is reported in MissingIDs.
type DimensionResolver struct {
	defaultWeightG int
}

func NewDimensionResolver(defaultWeightG int) DimensionResolver {
	if defaultWeightG <= 0 {
		defaultWeightG = DefaultUnitWeightG
	}
	return DimensionResolver{defaultWeightG: defaultWeightG}
}

// Resolve looks every line up in profiles (keyed by product id). Lines with a
// blank product id or a non-positive quantity are skipped.
func (r DimensionResolver) Resolve(
	lines []allocation.LineRef,
	profiles map[string]allocation.ProductProfile,
) Resolution {
	res := Resolution{HasAllDimensions: len(lines) > 0}

	for _, line := range lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			continue
		}
		profile, found := profiles[line.ProductID]

		item, err := allocation.NewLineItem(
			line.ProductID,
			line.Quantity,
			r.unitWeight(profile, found),
			profile.Dimensions,
			profile.CategoryName,
			profile.Handling,
		)
		if err != nil {
			res.HasAllDimensions = false
			res.MissingIDs = appendUnique(res.MissingIDs, line.ProductID)
			continue
		}

		res.Lines = append(res.Lines, item)
		res.TotalWeightG += item.TotalWeightG()
		res.TotalVolumeCM3 += item.TotalVolumeCM3()
		res.BoundingBox = res.BoundingBox.Envelope(item.UnitDimensions())

		if !found || !item.UnitDimensions().HasAll() {
			res.HasAllDimensions = false
			res.MissingIDs = appendUnique(res.MissingIDs, line.ProductID)
		}
	}

	if len(res.Lines) == 0 {
		res.HasAllDimensions = false
	}
	return res
}

func (r DimensionResolver) unitWeight(profile allocation.ProductProfile, found bool) int {
	switch {
	case found && profile.WeightG > 0:
		return profile.WeightG
	case found && profile.CategoryWeightG > 0:
		return profile.CategoryWeightG
	default:
		return r.defaultWeightG
	}
}

func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
