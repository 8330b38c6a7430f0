package allocation

import "freight/internal/core/domain/model/kernel"

// LineRef is a (product, quantity) pair as it appears on a transfer.
type LineRef struct {
	ProductID string
	Quantity  int
}

// ProductProfile is the product master data the resolver needs. Zero weights
// and zero dimension axes mean the value is not recorded.
type ProductProfile struct {
	ProductID       string
	Name            string
	WeightG         int
	CategoryName    string
	CategoryWeightG int
	Dimensions      kernel.Dimensions
	Handling        Handling
}

// Handling flags drive the separation rules of the allocator.
type Handling struct {
	Fragile   bool
	Liquid    bool
	HighValue bool
}

// Merge ORs the flags of other into h.
func (h Handling) Merge(other Handling) Handling {
	return Handling{
		Fragile:   h.Fragile || other.Fragile,
		Liquid:    h.Liquid || other.Liquid,
		HighValue: h.HighValue || other.HighValue,
	}
}
