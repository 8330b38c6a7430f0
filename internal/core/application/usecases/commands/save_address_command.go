package commands

import (
	"errors"

	"freight/internal/core/domain/model/address"
	"freight/internal/pkg/guard"
)

var ErrSaveAddressCommandIsNotConstructed = errors.New(
	"SaveAddressCommand must be created via NewSaveAddressCommand constructor",
)

// SaveAddressCommand stores the destination labels for a transfer will be
// bought with.
//
// Example:
//
//	cmd, err := NewSaveAddressCommand(42, address.Address{
//	    Line1: "12 Queen Street", City: "Hamilton", Postcode: "3204",
//	})
//	result, err := handler.Handle(ctx, cmd)
//	// result.Address is the normalized form that was stored
type SaveAddressCommand struct {
	transferID int64
	address    address.Address

	guard guard.ConstructorGuard
}

// NewSaveAddressCommand only checks the transfer id. Address content is
// checked by the handler after normalization.
func NewSaveAddressCommand(transferID int64, a address.Address) (SaveAddressCommand, error) {
	if transferID <= 0 {
		return SaveAddressCommand{}, ErrTransferIDIsInvalid
	}
	return SaveAddressCommand{
		transferID: transferID,
		address:    a,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c SaveAddressCommand) Validate() error {
	return c.guard.Validate(ErrSaveAddressCommandIsNotConstructed)
}

func (c SaveAddressCommand) TransferID() int64        { return c.transferID }
func (c SaveAddressCommand) Address() address.Address { return c.address }
