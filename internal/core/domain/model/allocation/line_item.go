package allocation

import (
	"errors"
	"fmt"
	"strings"

	"freight/internal/core/domain/model/kernel"
	"freight/internal/pkg/errs"
	"freight/internal/pkg/guard"
)

// DefaultCategory is used for products without a category.
const DefaultCategory = "GENERAL"

var ErrLineItemIsNotConstructed = errors.New("LineItem must be created via NewLineItem constructor")

var electronicsHints = []string{"electron", "battery", "device", "charger"}

// LineItem is one resolved order line: a product, how many units, and the
// per-unit physical data used for packing. It is immutable.
type LineItem struct {
	productID  string
	quantity   int
	unitWeight int
	unitDims   kernel.Dimensions
	category   string
	handling   Handling
	guard      guard.ConstructorGuard
}

// NewLineItem validates a resolved line. Unit weight must be positive; unit
// dimensions may be unknown.
func NewLineItem(
	productID string,
	quantity int,
	unitWeightG int,
	unitDims kernel.Dimensions,
	category string,
	handling Handling,
) (LineItem, error) {
	li := LineItem{unitDims: unitDims, handling: handling, guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		li.setProductID(productID),
		li.setQuantity(quantity),
		li.setUnitWeight(unitWeightG),
	); err != nil {
		return LineItem{}, err
	}
	li.category = strings.TrimSpace(category)
	if li.category == "" {
		li.category = DefaultCategory
	}
	return li, nil
}

func (li LineItem) Validate() error {
	return li.guard.Validate(ErrLineItemIsNotConstructed)
}

func (li LineItem) ProductID() string                 { return li.productID }
func (li LineItem) Quantity() int                     { return li.quantity }
func (li LineItem) UnitWeightG() int                  { return li.unitWeight }
func (li LineItem) UnitDimensions() kernel.Dimensions { return li.unitDims }
func (li LineItem) Category() string                  { return li.category }
func (li LineItem) Handling() Handling                { return li.handling }

func (li LineItem) TotalWeightG() int {
	return li.unitWeight * li.quantity
}

func (li LineItem) UnitVolumeCM3() float64 {
	return li.unitDims.VolumeCM3()
}

func (li LineItem) TotalVolumeCM3() float64 {
	return kernel.VolumeOf(li.unitDims, li.quantity)
}

// IsElectronics matches the category name against electronics keywords.
func (li LineItem) IsElectronics() bool {
	category := strings.ToLower(li.category)
	for _, hint := range electronicsHints {
		if strings.Contains(category, hint) {
			return true
		}
	}
	return false
}

// WithQuantity returns a copy of the line carrying quantity units.
func (li LineItem) WithQuantity(quantity int) (LineItem, error) {
	out := li
	if err := out.setQuantity(quantity); err != nil {
		return LineItem{}, err
	}
	return out, nil
}

func (li *LineItem) setProductID(productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return errs.NewValueIsRequiredError("product_id")
	}
	li.productID = productID
	return nil
}

func (li *LineItem) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	li.quantity = quantity
	return nil
}

func (li *LineItem) setUnitWeight(weightG int) error {
	if weightG <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("unit_weight_g", fmt.Errorf("%d is not greater than 0", weightG))
	}
	li.unitWeight = weightG
	return nil
}
