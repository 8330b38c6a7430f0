package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"freight/internal/core/domain/model/shipment"
	"freight/internal/core/ports"
	"freight/internal/pkg/errs"
)

// ManualDispatchResult describes the label row written for a manual dispatch.
type ManualDispatchResult struct {
	TransferID   int64
	ShipmentID   string
	LabelID      string
	Mode         shipment.DeliveryMode
	Carrier      string
	Tracking     []string
	DispatchedAt time.Time
	Replaced     bool
}

// ManualDispatchCommandHandler marks a shipment dispatched without calling a
// carrier. An active label is replaced; it is not voided at the carrier.
type ManualDispatchCommandHandler struct {
	uowFactory ShipmentUoWFactory
	clock      ports.Clock
	logger     *slog.Logger
}

func NewManualDispatchCommandHandler(uowFactory ShipmentUoWFactory, clock ports.Clock, logger *slog.Logger) ManualDispatchCommandHandler {
	return ManualDispatchCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
		logger:     logger.With("component", "manual_dispatch"),
	}
}

func (h ManualDispatchCommandHandler) Handle(ctx context.Context, cmd ManualDispatchCommand) (ManualDispatchResult, error) {
	if err := cmd.Validate(); err != nil {
		return ManualDispatchResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ManualDispatchResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	t, err := loadTransfer(ctx, uow.TransferRepository(), cmd.TransferID())
	if err != nil {
		return ManualDispatchResult{}, err
	}

	repo := uow.ShipmentRepository()
	s, err := repo.LockByTransfer(ctx, t.ID())
	isNew := errors.Is(err, errs.ErrObjectNotFound)
	if isNew {
		s, err = shipment.NewShipment(t.ID(), t.Destination())
	}
	if err != nil {
		return ManualDispatchResult{}, err
	}
	replaced := s.HasActiveLabel()

	now := h.clock.Now()
	label, err := shipment.NewLabel(shipment.LabelDetails{
		CarrierCode:     cmd.CarrierCode(),
		CarrierName:     cmd.CarrierName(),
		TrackingNumbers: cmd.Tracking(),
		TrackingURL:     cmd.TrackingURL(),
		Metadata:        cmd.Metadata(),
	}, now)
	if err != nil {
		return ManualDispatchResult{}, err
	}
	if err = s.RecordManualDispatch(label, cmd.Mode(), nil, now); err != nil {
		return ManualDispatchResult{}, err
	}

	if isNew {
		err = repo.Add(ctx, s)
	} else {
		err = repo.Update(ctx, s)
	}
	if err != nil {
		return ManualDispatchResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return ManualDispatchResult{}, err
	}

	h.logger.InfoContext(ctx, "manual dispatch recorded",
		"transfer_id", t.ID(), "mode", cmd.Mode(), "carrier", cmd.CarrierCode(), "replaced", replaced)
	return ManualDispatchResult{
		TransferID:   t.ID(),
		ShipmentID:   s.ID().String(),
		LabelID:      label.ID().String(),
		Mode:         s.DeliveryMode(),
		Carrier:      label.CarrierCode(),
		Tracking:     label.TrackingNumbers(),
		DispatchedAt: now.UTC(),
		Replaced:     replaced,
	}, nil
}
