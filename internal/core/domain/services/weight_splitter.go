package services

import (
	"fmt"
	"math"
	"slices"

	"freight/internal/core/domain/model/catalog"
)

// MaxSplitParcels caps a weight-only split.
const MaxSplitParcels = 20

// WeightParcel is one parcel of a weight-only split.
type WeightParcel struct {
	Container *catalog.ContainerSpec
	LoadG     int
}

// WeightSplitter cuts a bare total weight into parcels when nothing is known
// about the goods except what they weigh. Each round takes the container with
// the best utilization × 1/(1 + cost per kg) for the weight still left, loading
// it up to capacity × weight safety.
type WeightSplitter struct {
	weightSafety float64
}

func NewWeightSplitter(weightSafety float64) WeightSplitter {
	if weightSafety <= 0 || weightSafety > 1 {
		weightSafety = DefaultAllocatorOptions().WeightSafety
	}
	return WeightSplitter{weightSafety: weightSafety}
}

// Split returns the parcels in the order they were filled. It fails with
// ErrNoContainers when the carrier has no priced container and with
// ErrAllocationFailed when MaxSplitParcels parcels cannot carry the weight.
func (s WeightSplitter) Split(totalWeightG int, containers []*catalog.ContainerSpec) ([]WeightParcel, error) {
	if totalWeightG <= 0 {
		return nil, fmt.Errorf("%w: total weight %d g", ErrAllocationFailed, totalWeightG)
	}

	candidates := make([]*catalog.ContainerSpec, 0, len(containers))
	for _, c := range pricedContainers(containers) {
		if s.loadLimit(c) > 0 {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoContainers
	}
	slices.SortStableFunc(candidates, func(a, b *catalog.ContainerSpec) int {
		if a.CostPerKg() != b.CostPerKg() {
			if a.CostPerKg() < b.CostPerKg() {
				return -1
			}
			return 1
		}
		return compareByCostThenCapacity(a, b)
	})

	parcels := make([]WeightParcel, 0)
	remaining := totalWeightG
	for remaining > 0 && len(parcels) < MaxSplitParcels {
		var best WeightParcel
		bestScore := -1.0
		for _, c := range candidates {
			limit := s.loadLimit(c)
			loadG := min(limit, remaining)
			score := float64(loadG) / float64(limit) / (1 + c.CostPerKg())
			if score > bestScore {
				best, bestScore = WeightParcel{Container: c, LoadG: loadG}, score
			}
		}
		parcels = append(parcels, best)
		remaining -= best.LoadG
	}

	if remaining > 0 {
		return nil, fmt.Errorf("%w: %d g left after %d parcels", ErrAllocationFailed, remaining, MaxSplitParcels)
	}
	return parcels, nil
}

func (s WeightSplitter) loadLimit(c *catalog.ContainerSpec) int {
	return int(math.Floor(float64(c.CapacityG()) * s.weightSafety))
}
