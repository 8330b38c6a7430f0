package allocation

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/pkg/errs"
)

var (
	ErrBoxIsNotConstructed = errors.New("Box must be created via NewBox constructor")
	ErrBoxIsEmpty          = errors.New("box has no items")
)

// Box accumulates line items during allocation.
//
// Box maintains these invariants:
//   - total weight and volume always equal the sum over its items; they are
//     only changed through Add and Absorb
//   - handling flags and the electronics marker are the OR of all items
//     ever added and are never cleared
//   - the bound container, once set, satisfies the caller's safety checks
type Box struct {
	number         int
	items          []LineItem
	totalWeightG   int
	totalVolumeCM3 float64
	itemCount      int
	categories     map[string]struct{}
	handling       Handling
	electronics    bool
	nonFragile     bool
	unitEnvelope   kernel.Dimensions
	dimensioned    bool
	container      *catalog.ContainerSpec
	isConstructed  bool
}

// NewBox opens an empty box with the given 1-based number.
func NewBox(number int) (*Box, error) {
	b := &Box{categories: map[string]struct{}{}, isConstructed: true}
	if err := b.Renumber(number); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Box) Validate() error {
	if b == nil || !b.isConstructed {
		return ErrBoxIsNotConstructed
	}
	return nil
}

func (b *Box) Number() int             { return b.number }
func (b *Box) TotalWeightG() int       { return b.totalWeightG }
func (b *Box) TotalVolumeCM3() float64 { return b.totalVolumeCM3 }
func (b *Box) Handling() Handling      { return b.handling }
func (b *Box) HasElectronics() bool    { return b.electronics }
func (b *Box) HasNonFragile() bool     { return b.nonFragile }
func (b *Box) IsEmpty() bool           { return len(b.items) == 0 }

// Container is nil until the allocator finalizes the box.
func (b *Box) Container() *catalog.ContainerSpec {
	return b.container
}

// ItemCount is the number of units in the box.
func (b *Box) ItemCount() int {
	return b.itemCount
}

// Items returns a copy of the packed lines in insertion order.
func (b *Box) Items() []LineItem {
	return slices.Clone(b.items)
}

// Categories returns the sorted category names present in the box.
func (b *Box) Categories() []string {
	return slices.Sorted(maps.Keys(b.categories))
}

func (b *Box) HasCategory(category string) bool {
	_, ok := b.categories[category]
	return ok
}

// UnitEnvelope is the per-axis maximum of the unit dimensions of every item.
func (b *Box) UnitEnvelope() kernel.Dimensions {
	return b.unitEnvelope
}

// HasDimensionedItems reports whether any item carries measurements, in
// which case only containers with dimensions may hold the box.
func (b *Box) HasDimensionedItems() bool {
	return b.dimensioned
}

// Add appends a line and updates the derived totals and flags.
func (b *Box) Add(item LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	b.items = append(b.items, item)
	b.totalWeightG += item.TotalWeightG()
	b.totalVolumeCM3 += item.TotalVolumeCM3()
	b.itemCount += item.Quantity()
	b.categories[item.Category()] = struct{}{}
	b.handling = b.handling.Merge(item.Handling())
	if item.IsElectronics() {
		b.electronics = true
	}
	if !item.Handling().Fragile {
		b.nonFragile = true
	}
	if item.UnitDimensions().HasAny() {
		b.dimensioned = true
		b.unitEnvelope = b.unitEnvelope.Envelope(item.UnitDimensions())
	}
	return nil
}

// Absorb moves every item of other into b. other is left untouched.
func (b *Box) Absorb(other *Box) error {
	if err := other.Validate(); err != nil {
		return err
	}
	for _, item := range other.items {
		if err := b.Add(item); err != nil {
			return err
		}
	}
	return nil
}

// Renumber assigns the 1-based box number.
func (b *Box) Renumber(number int) error {
	if number < 1 {
		return errs.NewValueIsInvalidErrorWithCause("box number", fmt.Errorf("%d is not greater than 0", number))
	}
	b.number = number
	return nil
}

// BindContainer records the container chosen for the finalized box.
func (b *Box) BindContainer(container *catalog.ContainerSpec) error {
	if b.IsEmpty() {
		return ErrBoxIsEmpty
	}
	if err := container.Validate(); err != nil {
		return err
	}
	b.container = container
	return nil
}
