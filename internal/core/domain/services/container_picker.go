package services

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/pkg/errs"
)

// Hard shipping limits applied before any container is considered.
const (
	MaxShippableDimensionMM = 3000
	MaxShippableVolumeCM3   = 1_000_000

	maxAlternatives = 3
)

// FitRequest describes what has to be shipped. VolumeCM3 may be 0, in which
// case it is derived from Dimensions when all three axes are known.
type FitRequest struct {
	WeightG    int
	VolumeCM3  float64
	Dimensions kernel.Dimensions
}

// FitAnalysis explains how the chosen container was scored.
type FitAnalysis struct {
	WeightG           int     `json:"weight_g"`
	VolumetricWeightG int     `json:"volumetric_weight_g"`
	EffectiveWeightG  int     `json:"effective_weight_g"`
	CapacityG         int     `json:"container_cap_g"`
	UtilizationPct    float64 `json:"utilization_pct"`
	CostPerKg         float64 `json:"cost_per_kg"`
}

// PickResult is the best container plus up to three runner-ups, best first.
type PickResult struct {
	Container    *catalog.ContainerSpec
	Score        float64
	Alternatives []*catalog.ContainerSpec
	Analysis     FitAnalysis
}

// FitError is a graceful picker failure. CanContinue tells the caller whether
// the flow may proceed (e.g. with manual parcels) or must stop.
type FitError struct {
	Code        string
	Message     string
	CanContinue bool
	Critical    bool
	Diagnostics map[string]any
}

func (e *FitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ContainerPicker selects the best-fitting catalog container for a single
// parcel of a given weight and size.
//
// Validation gates run in order and each ends the pick:
//   - weight ≤ 0 is INVALID_WEIGHT
//   - any axis over 3000 mm is TOO_BIG_TO_SHIP
//   - volume over 1 m³ is TOO_BIG_TO_SHIP
//   - a carrier without priced containers is NO_CONTAINERS
//
// A container is a candidate when its capacity covers the effective weight
// (the larger of actual and volumetric weight) and, if the item has any
// dimension, the container has all three and each item axis fits. Items with
// dimensions are never placed in containers without them.
//
// Candidates are ranked by fit score = 0.6 × utilization + 0.4 / (1 + cost per kg),
// where utilization scores 1.0 between 70% and 90% of capacity, u/0.7 below
// that band and 0.5 above it.
type ContainerPicker struct{}

func NewContainerPicker() ContainerPicker {
	return ContainerPicker{}
}

// Pick returns a *FitError for every expected failure.
func (p ContainerPicker) Pick(
	carrier catalog.Carrier,
	containers []*catalog.ContainerSpec,
	req FitRequest,
) (*PickResult, error) {
	dims := req.Dimensions
	volume := req.VolumeCM3
	if volume <= 0 {
		volume = dims.VolumeCM3()
	}

	if req.WeightG <= 0 {
		return nil, &FitError{
			Code:        errs.CodeInvalidWeight,
			Message:     "Weight must be greater than zero.",
			CanContinue: true,
			Diagnostics: map[string]any{"required_weight_g": req.WeightG},
		}
	}
	if dims.Longest() > MaxShippableDimensionMM {
		return nil, &FitError{
			Code:     errs.CodeTooBigToShip,
			Message:  fmt.Sprintf("%s exceeds the %d mm shippable limit.", oversizedAxes(dims), MaxShippableDimensionMM),
			Critical: true,
			Diagnostics: map[string]any{
				"dimensions":     dimensionMap(dims),
				"longest_mm":     dims.Longest(),
				"max_allowed_mm": MaxShippableDimensionMM,
			},
		}
	}
	if volume > MaxShippableVolumeCM3 {
		return nil, &FitError{
			Code:     errs.CodeTooBigToShip,
			Message:  fmt.Sprintf("Volume %.0f cm³ exceeds the 1 m³ shippable limit.", volume),
			Critical: true,
			Diagnostics: map[string]any{
				"volume_cm3":     volume,
				"max_volume_cm3": MaxShippableVolumeCM3,
			},
		}
	}

	available := pricedContainers(containers)
	if len(available) == 0 {
		return nil, &FitError{
			Code:        errs.CodeNoContainers,
			Message:     "No shipping containers are available for this carrier. Please contact support.",
			Diagnostics: map[string]any{"carrier": carrier.Code()},
		}
	}

	volumetric := catalog.VolumetricGramsByFactor(volume, carrier.VolumetricFactor())
	effective := max(req.WeightG, volumetric)

	type scored struct {
		container *catalog.ContainerSpec
		score     float64
	}
	candidates := make([]scored, 0, len(available))
	for _, c := range available {
		if !containerAccepts(c, effective, volume, dims) {
			continue
		}
		candidates = append(candidates, scored{container: c, score: fitScore(c, effective)})
	}

	if len(candidates) == 0 {
		return nil, &FitError{
			Code:     errs.CodeTooBigToShip,
			Message:  "No container can fit this shipment: " + requirementSummary(effective, volume, dims) + ".",
			Critical: true,
			Diagnostics: map[string]any{
				"required_weight_g":   effective,
				"required_volume_cm3": volume,
				"required_dimensions": dimensionMap(dims),
				"available_count":     len(available),
				"available":           containerDiagnostics(available),
			},
		}
	}

	slices.SortFunc(candidates, func(a, b scored) int {
		if a.score != b.score {
			if a.score > b.score {
				return -1
			}
			return 1
		}
		return compareByCostThenCapacity(a.container, b.container)
	})

	best := candidates[0].container
	result := &PickResult{
		Container: best,
		Score:     candidates[0].score,
		Analysis: FitAnalysis{
			WeightG:           req.WeightG,
			VolumetricWeightG: volumetric,
			EffectiveWeightG:  effective,
			CapacityG:         best.CapacityG(),
			UtilizationPct:    roundTo(float64(effective)/float64(best.CapacityG())*100, 1),
			CostPerKg:         roundTo(best.CostPerKg(), 2),
		},
	}
	for _, c := range candidates[1:min(len(candidates), maxAlternatives+1)] {
		result.Alternatives = append(result.Alternatives, c.container)
	}
	return result, nil
}

func containerAccepts(c *catalog.ContainerSpec, effectiveG int, volume float64, dims kernel.Dimensions) bool {
	if effectiveG > c.CapacityG() {
		return false
	}
	if !dims.HasAny() {
		return true
	}
	if !c.HasDimensions() || !dims.FitsWithin(c.Dimensions()) {
		return false
	}
	return volume <= 0 || volume <= c.VolumeCM3()
}

func fitScore(c *catalog.ContainerSpec, effectiveG int) float64 {
	utilization := float64(effectiveG) / float64(c.CapacityG())
	var utilizationScore float64
	switch {
	case utilization >= 0.7 && utilization <= 0.9:
		utilizationScore = 1.0
	case utilization < 0.7:
		utilizationScore = utilization / 0.7
	default:
		utilizationScore = 0.5
	}
	costScore := 1.0 / (1.0 + c.CostPerKg())
	return utilizationScore*0.6 + costScore*0.4
}

// pricedContainers keeps containers that can be offered, ordered satchels
// first and then by capacity.
func pricedContainers(containers []*catalog.ContainerSpec) []*catalog.ContainerSpec {
	out := make([]*catalog.ContainerSpec, 0, len(containers))
	for _, c := range containers {
		if c.Validate() == nil && c.IsPriced() {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b *catalog.ContainerSpec) int {
		if ra, rb := a.Kind().SortRank(), b.Kind().SortRank(); ra != rb {
			return ra - rb
		}
		return a.CapacityG() - b.CapacityG()
	})
	return out
}

func compareByCostThenCapacity(a, b *catalog.ContainerSpec) int {
	if c := a.Cost().Cmp(b.Cost()); c != 0 {
		return c
	}
	if a.CapacityG() != b.CapacityG() {
		return a.CapacityG() - b.CapacityG()
	}
	return strings.Compare(a.Code(), b.Code())
}

func oversizedAxes(d kernel.Dimensions) string {
	var parts []string
	if d.Length() > MaxShippableDimensionMM {
		parts = append(parts, fmt.Sprintf("Length %d mm", d.Length()))
	}
	if d.Width() > MaxShippableDimensionMM {
		parts = append(parts, fmt.Sprintf("Width %d mm", d.Width()))
	}
	if d.Height() > MaxShippableDimensionMM {
		parts = append(parts, fmt.Sprintf("Height %d mm", d.Height()))
	}
	return strings.Join(parts, ", ")
}

func requirementSummary(effectiveG int, volume float64, d kernel.Dimensions) string {
	parts := []string{fmt.Sprintf("weight %d g", effectiveG)}
	if d.HasAny() {
		parts = append(parts, "dimensions "+d.String())
	}
	if volume > 0 {
		parts = append(parts, fmt.Sprintf("volume %.0f cm³", volume))
	}
	return strings.Join(parts, ", ")
}

func dimensionMap(d kernel.Dimensions) map[string]int {
	return map[string]int{"length_mm": d.Length(), "width_mm": d.Width(), "height_mm": d.Height()}
}

func containerDiagnostics(containers []*catalog.ContainerSpec) []map[string]any {
	out := make([]map[string]any, 0, len(containers))
	for _, c := range containers {
		out = append(out, map[string]any{
			"code":       c.Code(),
			"kind":       c.Kind().String(),
			"capacity_g": c.CapacityG(),
			"dimensions": dimensionMap(c.Dimensions()),
		})
	}
	return out
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
