package commands

import (
	"context"
	"errors"
	"fmt"

	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/pkg/errs"
)

// SaveAddressResult is the stored address with the adjustments
// normalization made to it.
type SaveAddressResult struct {
	TransferID int64
	ShipmentID string
	Address    address.Address
	Warnings   []address.Warning
	Created    bool
}

// SaveAddressCommandHandler normalizes a destination and stores it on the
// transfer's shipment. A packed shipment is created when none exists.
type SaveAddressCommandHandler struct {
	uowFactory ShipmentUoWFactory
}

func NewSaveAddressCommandHandler(uowFactory ShipmentUoWFactory) SaveAddressCommandHandler {
	return SaveAddressCommandHandler{uowFactory: uowFactory}
}

// Handle rejects addresses without a street or city. A missing postcode is
// only reported as a warning.
func (h SaveAddressCommandHandler) Handle(ctx context.Context, cmd SaveAddressCommand) (SaveAddressResult, error) {
	if err := cmd.Validate(); err != nil {
		return SaveAddressResult{}, err
	}

	normalized, warnings := cmd.Address().Normalize()
	fields := make(map[string]string)
	for _, w := range warnings {
		if w.Type == address.WarningMissingRequired {
			fields[w.Field] = "is required"
		}
	}
	if len(fields) > 0 {
		return SaveAddressResult{}, errs.NewInputError(errs.CodeInputInvalid, "The address is incomplete.", fields)
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return SaveAddressResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if _, err := loadTransfer(ctx, uow.TransferRepository(), cmd.TransferID()); err != nil {
		return SaveAddressResult{}, err
	}

	repo := uow.ShipmentRepository()
	s, err := repo.LockByTransfer(ctx, cmd.TransferID())
	created := errors.Is(err, errs.ErrObjectNotFound)
	switch {
	case created:
		if s, err = shipment.NewShipment(cmd.TransferID(), normalized.Address); err != nil {
			return SaveAddressResult{}, err
		}
		err = repo.Add(ctx, s)
	case err == nil:
		s.ChangeDestination(normalized.Address)
		err = repo.Update(ctx, s)
	}
	if err != nil {
		return SaveAddressResult{}, fmt.Errorf("save address for transfer %d: %w", cmd.TransferID(), err)
	}

	if err = uow.Commit(ctx); err != nil {
		return SaveAddressResult{}, err
	}

	return SaveAddressResult{
		TransferID: cmd.TransferID(),
		ShipmentID: s.ID().String(),
		Address:    s.Destination(),
		Warnings:   warnings,
		Created:    created,
	}, nil
}
