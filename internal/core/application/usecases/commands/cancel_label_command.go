package commands

import (
	"errors"

	"freight/internal/core/domain/model/idempotency"
	"freight/internal/pkg/guard"
)

var ErrCancelLabelCommandIsNotConstructed = errors.New(
	"CancelLabelCommand must be created via NewCancelLabelCommand constructor",
)

// CancelLabelCommand voids the active label of a transfer's shipment and
// returns the shipment to packed.
type CancelLabelCommand struct {
	transferID int64
	key        idempotency.Key
	meta       RequestMeta

	guard guard.ConstructorGuard
}

func NewCancelLabelCommand(transferID int64, meta RequestMeta) (CancelLabelCommand, error) {
	if transferID <= 0 {
		return CancelLabelCommand{}, ErrTransferIDIsInvalid
	}
	key, err := idempotency.ParseKey(meta.IdempotencyKey)
	if err != nil {
		return CancelLabelCommand{}, err
	}
	return CancelLabelCommand{
		transferID: transferID,
		key:        key,
		meta:       meta,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c CancelLabelCommand) Validate() error {
	return c.guard.Validate(ErrCancelLabelCommandIsNotConstructed)
}

func (c CancelLabelCommand) TransferID() int64    { return c.transferID }
func (c CancelLabelCommand) Key() idempotency.Key { return c.key }
func (c CancelLabelCommand) Meta() RequestMeta    { return c.meta }

// Fingerprint is the same for every cancel of one transfer.
func (c CancelLabelCommand) Fingerprint() (string, error) {
	return idempotency.Fingerprint(idempotency.ScopeCancelLabel, c.transferID, struct{}{})
}
