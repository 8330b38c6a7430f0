package services

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"freight/internal/core/domain/model/allocation"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
)

var (
	// ErrNoContainers is returned when the carrier offers no priced containers.
	ErrNoContainers = errors.New("no containers available")

	// ErrAllocationFailed marks catalog or master-data problems that make a
	// line impossible to pack, as opposed to a legitimately oversized parcel.
	ErrAllocationFailed = errors.New("allocation failed")
)

// sameCategoryMixLimit is the number of units a box may hold and still take
// a line from a different category.
const sameCategoryMixLimit = 2

// UnitTooLargeError reports a single unit that exceeds every container.
type UnitTooLargeError struct {
	ProductID     string
	UnitWeightG   int
	UnitVolumeCM3 float64
}

func (e *UnitTooLargeError) Error() string {
	return fmt.Sprintf("%s: product %s unit (%d g, %.0f cm³) exceeds every container",
		ErrAllocationFailed, e.ProductID, e.UnitWeightG, e.UnitVolumeCM3)
}

func (e *UnitTooLargeError) Unwrap() error {
	return ErrAllocationFailed
}

// AllocatorOptions tune the packing rules. Zero values fall back to defaults
// except for the two booleans.
type AllocatorOptions struct {
	MaxItemsPerBox    int
	FragileSeparation bool
	Consolidate       bool
	WeightSafety      float64
	VolumeSafety      float64
}

func DefaultAllocatorOptions() AllocatorOptions {
	return AllocatorOptions{
		MaxItemsPerBox:    50,
		FragileSeparation: true,
		Consolidate:       true,
		WeightSafety:      0.9,
		VolumeSafety:      0.85,
	}
}

// Allocator partitions line items into boxes and binds each box to a container.
//
// Lines are packed in priority order (high value, fragile and liquid first,
// then larger volume first, then category name) with a first-fit loop. A box
// takes a line only if:
//   - the resulting box still fits at least one container with weight at most
//     capacity × WeightSafety and, for measured items, volume at most
//     container volume × VolumeSafety and every unit inside the container
//   - the unit count stays within MaxItemsPerBox
//   - liquids and electronics never share a box
//   - with FragileSeparation, fragile and non-fragile units never share a box
//   - a different category joins only while the box holds at most two units
//
// A line that does not fit an empty box is split into chunks sized to the
// roomiest container. A single unit that fits nowhere is an
// ErrAllocationFailed. After packing, an optional consolidation pass merges
// pairs of boxes under the same container and separation rules; it only ever
// lowers the box count.
//
// Finalization binds every box to the cheapest container that holds it.
type Allocator struct {
	opts AllocatorOptions
}

func NewAllocator(opts AllocatorOptions) Allocator {
	def := DefaultAllocatorOptions()
	if opts.MaxItemsPerBox <= 0 {
		opts.MaxItemsPerBox = def.MaxItemsPerBox
	}
	if opts.WeightSafety <= 0 || opts.WeightSafety > 1 {
		opts.WeightSafety = def.WeightSafety
	}
	if opts.VolumeSafety <= 0 || opts.VolumeSafety > 1 {
		opts.VolumeSafety = def.VolumeSafety
	}
	return Allocator{opts: opts}
}

func (a Allocator) Options() AllocatorOptions {
	return a.opts
}

// Allocate packs lines into boxes numbered from 1. The result always holds
// exactly the input units.
func (a Allocator) Allocate(lines []allocation.LineItem, containers []*catalog.ContainerSpec) ([]*allocation.Box, error) {
	available := pricedContainers(containers)
	if len(available) == 0 {
		return nil, ErrNoContainers
	}
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return nil, err
		}
	}

	boxes := make([]*allocation.Box, 0)
	for _, line := range prioritize(lines) {
		var err error
		if boxes, err = a.place(boxes, line, available); err != nil {
			return nil, err
		}
	}

	if a.opts.Consolidate {
		var err error
		if boxes, err = a.consolidate(boxes, available); err != nil {
			return nil, err
		}
	}

	for i, box := range boxes {
		if err := box.Renumber(i + 1); err != nil {
			return nil, err
		}
		container := a.cheapestContainer(loadOfBox(box), available)
		if container == nil {
			return nil, fmt.Errorf("%w: box %d fits no container", ErrAllocationFailed, box.Number())
		}
		if err := box.BindContainer(container); err != nil {
			return nil, err
		}
	}
	return boxes, nil
}

// Holding returns the priced containers that take the whole box within both
// safety factors.
func (a Allocator) Holding(box *allocation.Box, containers []*catalog.ContainerSpec) []*catalog.ContainerSpec {
	l := loadOfBox(box)
	return slices.DeleteFunc(pricedContainers(containers), func(c *catalog.ContainerSpec) bool {
		return !a.holds(c, l)
	})
}

func (a Allocator) place(
	boxes []*allocation.Box,
	line allocation.LineItem,
	available []*catalog.ContainerSpec,
) ([]*allocation.Box, error) {
	if a.fitsSomeContainer(loadOfLine(line), available) && line.Quantity() <= a.opts.MaxItemsPerBox {
		return a.placeWhole(boxes, line, available)
	}

	chunk := a.unitsPerBox(line, available)
	if chunk < 1 {
		return nil, &UnitTooLargeError{
			ProductID:     line.ProductID(),
			UnitWeightG:   line.UnitWeightG(),
			UnitVolumeCM3: line.UnitVolumeCM3(),
		}
	}
	for remaining := line.Quantity(); remaining > 0; remaining -= chunk {
		part, err := line.WithQuantity(min(chunk, remaining))
		if err != nil {
			return nil, err
		}
		if boxes, err = a.placeWhole(boxes, part, available); err != nil {
			return nil, err
		}
	}
	return boxes, nil
}

// placeWhole adds the line to the first box that accepts it, or to a new box.
func (a Allocator) placeWhole(
	boxes []*allocation.Box,
	line allocation.LineItem,
	available []*catalog.ContainerSpec,
) ([]*allocation.Box, error) {
	for _, box := range boxes {
		if a.accepts(box, line, available) {
			return boxes, box.Add(line)
		}
	}
	box, err := allocation.NewBox(len(boxes) + 1)
	if err != nil {
		return nil, err
	}
	if err := box.Add(line); err != nil {
		return nil, err
	}
	return append(boxes, box), nil
}

func (a Allocator) accepts(box *allocation.Box, line allocation.LineItem, available []*catalog.ContainerSpec) bool {
	if box.ItemCount()+line.Quantity() > a.opts.MaxItemsPerBox {
		return false
	}
	if (line.Handling().Liquid && box.HasElectronics()) || (line.IsElectronics() && box.Handling().Liquid) {
		return false
	}
	if a.opts.FragileSeparation && !box.IsEmpty() {
		if (line.Handling().Fragile && box.HasNonFragile()) || (!line.Handling().Fragile && box.Handling().Fragile) {
			return false
		}
	}
	if !box.IsEmpty() && !box.HasCategory(line.Category()) && box.ItemCount() > sameCategoryMixLimit {
		return false
	}
	return a.fitsSomeContainer(loadOfBox(box).plus(loadOfLine(line)), available)
}

func (a Allocator) canMerge(x, y *allocation.Box, available []*catalog.ContainerSpec) bool {
	if x.ItemCount()+y.ItemCount() > a.opts.MaxItemsPerBox {
		return false
	}
	if (x.Handling().Liquid && y.HasElectronics()) || (y.Handling().Liquid && x.HasElectronics()) {
		return false
	}
	if a.opts.FragileSeparation {
		if (x.Handling().Fragile && y.HasNonFragile()) || (y.Handling().Fragile && x.HasNonFragile()) {
			return false
		}
	}
	return a.fitsSomeContainer(loadOfBox(x).plus(loadOfBox(y)), available)
}

// consolidate merges pairs of boxes until no pair can be merged.
func (a Allocator) consolidate(boxes []*allocation.Box, available []*catalog.ContainerSpec) ([]*allocation.Box, error) {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(boxes) && !merged; i++ {
			for j := i + 1; j < len(boxes); j++ {
				if !a.canMerge(boxes[i], boxes[j], available) {
					continue
				}
				if err := boxes[i].Absorb(boxes[j]); err != nil {
					return nil, err
				}
				boxes = slices.Delete(boxes, j, j+1)
				merged = true
				break
			}
		}
	}
	return boxes, nil
}

// unitsPerBox is how many units of the line the roomiest container can take.
func (a Allocator) unitsPerBox(line allocation.LineItem, available []*catalog.ContainerSpec) int {
	best := 0
	unit := loadOfLine(line)
	unit.weightG = line.UnitWeightG()
	unit.volumeCM3 = line.UnitVolumeCM3()
	for _, c := range available {
		if !a.holds(c, unit) {
			continue
		}
		n := int(math.Floor(float64(c.CapacityG()) * a.opts.WeightSafety / float64(line.UnitWeightG())))
		if unit.volumeCM3 > 0 {
			n = min(n, int(math.Floor(c.VolumeCM3()*a.opts.VolumeSafety/unit.volumeCM3)))
		}
		best = max(best, min(n, a.opts.MaxItemsPerBox))
	}
	return best
}

func (a Allocator) fitsSomeContainer(l load, available []*catalog.ContainerSpec) bool {
	return slices.ContainsFunc(available, func(c *catalog.ContainerSpec) bool { return a.holds(c, l) })
}

func (a Allocator) cheapestContainer(l load, available []*catalog.ContainerSpec) *catalog.ContainerSpec {
	var best *catalog.ContainerSpec
	for _, c := range available {
		if !a.holds(c, l) {
			continue
		}
		if best == nil || compareByCostThenCapacity(c, best) < 0 {
			best = c
		}
	}
	return best
}

// holds applies both safety factors and the unit envelope check.
func (a Allocator) holds(c *catalog.ContainerSpec, l load) bool {
	if float64(l.weightG) > float64(c.CapacityG())*a.opts.WeightSafety {
		return false
	}
	if !l.dimensioned {
		return true
	}
	if !c.HasDimensions() || !l.envelope.FitsWithin(c.Dimensions()) {
		return false
	}
	return l.volumeCM3 <= c.VolumeCM3()*a.opts.VolumeSafety
}

// load is the physical footprint of a box or line used for fit checks.
type load struct {
	weightG     int
	volumeCM3   float64
	envelope    kernel.Dimensions
	dimensioned bool
}

func loadOfBox(b *allocation.Box) load {
	return load{
		weightG:     b.TotalWeightG(),
		volumeCM3:   b.TotalVolumeCM3(),
		envelope:    b.UnitEnvelope(),
		dimensioned: b.HasDimensionedItems(),
	}
}

func loadOfLine(li allocation.LineItem) load {
	return load{
		weightG:     li.TotalWeightG(),
		volumeCM3:   li.TotalVolumeCM3(),
		envelope:    li.UnitDimensions(),
		dimensioned: li.UnitDimensions().HasAny(),
	}
}

func (l load) plus(o load) load {
	return load{
		weightG:     l.weightG + o.weightG,
		volumeCM3:   l.volumeCM3 + o.volumeCM3,
		envelope:    l.envelope.Envelope(o.envelope),
		dimensioned: l.dimensioned || o.dimensioned,
	}
}

// prioritize returns the lines in packing order without touching the input.
func prioritize(lines []allocation.LineItem) []allocation.LineItem {
	out := slices.Clone(lines)
	slices.SortStableFunc(out, func(x, y allocation.LineItem) int {
		hx, hy := x.Handling(), y.Handling()
		return cmp.Or(
			boolDesc(hx.HighValue, hy.HighValue),
			boolDesc(hx.Fragile, hy.Fragile),
			boolDesc(hx.Liquid, hy.Liquid),
			cmp.Compare(y.TotalVolumeCM3(), x.TotalVolumeCM3()),
			strings.Compare(x.Category(), y.Category()),
		)
	})
	return out
}

func boolDesc(x, y bool) int {
	switch {
	case x == y:
		return 0
	case x:
		return -1
	default:
		return 1
	}
}
