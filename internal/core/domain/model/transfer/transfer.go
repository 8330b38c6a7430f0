package transfer

import (
	"errors"
	"fmt"
	"strings"

	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/allocation"
	"freight/internal/pkg/errs"
	"freight/internal/pkg/guard"
)

var ErrTransferIsNotConstructed = errors.New("Transfer must be created via NewTransfer constructor")

// Transfer is the stock movement a shipment is created for. It is owned by
// the inventory system; the engine only reads it.
type Transfer struct {
	id           int64
	originOutlet string
	origin       address.Address
	destination  address.Address
	lines        []allocation.LineRef
	guard        guard.ConstructorGuard
}

// NewTransfer validates the identifier, the origin outlet and every line.
func NewTransfer(
	id int64,
	originOutlet string,
	origin, destination address.Address,
	lines []allocation.LineRef,
) (*Transfer, error) {
	t := &Transfer{origin: origin, destination: destination, guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		t.setID(id),
		t.setOriginOutlet(originOutlet),
		t.setLines(lines),
	); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transfer) Validate() error {
	if t == nil {
		return ErrTransferIsNotConstructed
	}
	return t.guard.Validate(ErrTransferIsNotConstructed)
}

func (t *Transfer) ID() int64                    { return t.id }
func (t *Transfer) OriginOutlet() string         { return t.originOutlet }
func (t *Transfer) Origin() address.Address      { return t.origin }
func (t *Transfer) Destination() address.Address { return t.destination }

// Lines returns a copy of the transfer lines.
func (t *Transfer) Lines() []allocation.LineRef {
	out := make([]allocation.LineRef, len(t.lines))
	copy(out, t.lines)
	return out
}

// ProductIDs returns the distinct product ids in line order.
func (t *Transfer) ProductIDs() []string {
	seen := make(map[string]struct{}, len(t.lines))
	ids := make([]string, 0, len(t.lines))
	for _, l := range t.lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

func (t *Transfer) setID(id int64) error {
	if id <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("transfer_id", fmt.Errorf("%d is not greater than 0", id))
	}
	t.id = id
	return nil
}

func (t *Transfer) setOriginOutlet(outlet string) error {
	outlet = strings.TrimSpace(outlet)
	if outlet == "" {
		return errs.NewValueIsRequiredError("origin outlet")
	}
	t.originOutlet = outlet
	return nil
}

func (t *Transfer) setLines(lines []allocation.LineRef) error {
	for i, l := range lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return errs.NewValueIsRequiredError(fmt.Sprintf("lines[%d].product_id", i))
		}
		if l.Quantity <= 0 {
			return errs.NewValueIsInvalidErrorWithCause(
				fmt.Sprintf("lines[%d].quantity", i),
				fmt.Errorf("%d is not greater than 0", l.Quantity),
			)
		}
	}
	t.lines = append([]allocation.LineRef(nil), lines...)
	return nil
}
