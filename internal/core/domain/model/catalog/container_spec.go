package catalog

import (
	"errors"
	"fmt"
	"strings"

	"freight/internal/core/domain/model/kernel"
	"freight/internal/pkg/errs"
	"freight/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrContainerSpecIsNotConstructed = errors.New("ContainerSpec must be created via NewContainerSpec constructor")

// ContainerSpec is a carrier container definition from the pricing catalog.
// The allocator and picker only read it; the product sync job is the single writer.
//
// Invariants:
//   - carrier code and container code are required
//   - capacity is positive
//   - cost is not negative (zero marks a synced product still awaiting a price)
type ContainerSpec struct {
	id          kernel.UUID
	carrierCode string
	code        string
	name        string
	kind        Kind
	dimensions  kernel.Dimensions
	capacityG   int
	cost        decimal.Decimal
	guard       guard.ConstructorGuard
}

// NewContainerSpec validates and builds a container definition.
//
// Example:
//
//	spec, err := catalog.NewContainerSpec(kernel.NewUUID(), catalog.CarrierNZPost,
//	    "CPOLTPA5", "A5 satchel", catalog.KindBag, dims, 5000, decimal.RequireFromString("8.00"))
func NewContainerSpec(
	id kernel.UUID,
	carrierCode, code, name string,
	kind Kind,
	dimensions kernel.Dimensions,
	capacityG int,
	cost decimal.Decimal,
) (*ContainerSpec, error) {
	c := &ContainerSpec{dimensions: dimensions, guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		c.setID(id),
		c.setCarrierCode(carrierCode),
		c.setCode(code),
		c.setKind(kind),
		c.setCapacity(capacityG),
		c.setCost(cost),
	); err != nil {
		return nil, err
	}
	c.name = strings.TrimSpace(name)
	if c.name == "" {
		c.name = c.code
	}
	return c, nil
}

func (c *ContainerSpec) Validate() error {
	if c == nil {
		return ErrContainerSpecIsNotConstructed
	}
	return c.guard.Validate(ErrContainerSpecIsNotConstructed)
}

func (c *ContainerSpec) ID() kernel.UUID               { return c.id }
func (c *ContainerSpec) CarrierCode() string           { return c.carrierCode }
func (c *ContainerSpec) Code() string                  { return c.code }
func (c *ContainerSpec) Name() string                  { return c.name }
func (c *ContainerSpec) Kind() Kind                    { return c.kind }
func (c *ContainerSpec) Dimensions() kernel.Dimensions { return c.dimensions }
func (c *ContainerSpec) CapacityG() int                { return c.capacityG }
func (c *ContainerSpec) Cost() decimal.Decimal         { return c.cost }

// HasDimensions reports whether all three axes are recorded.
func (c *ContainerSpec) HasDimensions() bool {
	return c.dimensions.HasAll()
}

// VolumeCM3 is 0 when the container has no dimensions.
func (c *ContainerSpec) VolumeCM3() float64 {
	return c.dimensions.VolumeCM3()
}

// CostPerKg is cost divided by capacity in kilograms.
func (c *ContainerSpec) CostPerKg() float64 {
	return c.cost.InexactFloat64() / (float64(max(1, c.capacityG)) / 1000)
}

// IsPriced reports whether the container has a positive cost and can be offered.
func (c *ContainerSpec) IsPriced() bool {
	return c.cost.IsPositive()
}

// ApplyProduct refreshes the fields a carrier product feed owns. A nil
// capacity keeps the current value; unknown dimensions keep the current ones.
func (c *ContainerSpec) ApplyProduct(name string, dimensions kernel.Dimensions, capacityG *int) error {
	if capacityG != nil {
		if err := c.setCapacity(*capacityG); err != nil {
			return err
		}
	}
	if name = strings.TrimSpace(name); name != "" {
		c.name = name
	}
	if dimensions.HasAny() {
		c.dimensions = dimensions
	}
	return nil
}

func (c *ContainerSpec) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *ContainerSpec) setCarrierCode(code string) error {
	normalized := NormalizeCarrierCode(code)
	if normalized == "" {
		return errs.NewValueIsRequiredError("carrier code")
	}
	c.carrierCode = normalized
	return nil
}

func (c *ContainerSpec) setCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errs.NewValueIsRequiredError("container code")
	}
	c.code = code
	return nil
}

func (c *ContainerSpec) setKind(kind Kind) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	c.kind = kind
	return nil
}

func (c *ContainerSpec) setCapacity(capacityG int) error {
	if capacityG <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("capacity_g", fmt.Errorf("%d is not greater than 0", capacityG))
	}
	c.capacityG = capacityG
	return nil
}

func (c *ContainerSpec) setCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("cost", fmt.Errorf("%s is negative", cost))
	}
	c.cost = cost
	return nil
}
