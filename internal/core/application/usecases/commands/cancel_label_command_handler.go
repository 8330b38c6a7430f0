package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"freight/internal/core/domain/model/idempotency"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/core/ports"
	"freight/internal/pkg/errs"
)

// CancelLabelCommandHandler voids labels. Carriers without a cancel API,
// and labels recorded by manual dispatch, are reversed locally only.
type CancelLabelCommandHandler struct {
	uowFactory  LabelUoWFactory
	registry    ports.CarrierRegistry
	credentials ports.CredentialsProvider
	clock       ports.Clock
	metrics     ports.FreightMetrics
	logger      *slog.Logger
}

func NewCancelLabelCommandHandler(
	uowFactory LabelUoWFactory,
	registry ports.CarrierRegistry,
	credentials ports.CredentialsProvider,
	clock ports.Clock,
	metrics ports.FreightMetrics,
	logger *slog.Logger,
) CancelLabelCommandHandler {
	return CancelLabelCommandHandler{
		uowFactory:  uowFactory,
		registry:    registry,
		credentials: credentials,
		clock:       clock,
		metrics:     metrics,
		logger:      logger.With("component", "label_cancel"),
	}
}

func (h CancelLabelCommandHandler) Handle(ctx context.Context, command CancelLabelCommand) (Outcome, error) {
	if err := command.Validate(); err != nil {
		return Outcome{}, err
	}
	fingerprint, err := command.Fingerprint()
	if err != nil {
		return Outcome{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return Outcome{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if stored, err := replay(ctx, uow.IdempotencyRepository(), command.Key(), fingerprint); stored != nil || err != nil {
		return derefOutcome(stored), err
	}

	s, err := uow.ShipmentRepository().LockByTransfer(ctx, command.TransferID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return Outcome{}, errs.NewNotFoundError(
			fmt.Sprintf("Transfer %d has no shipment.", command.TransferID()), err)
	}
	if err != nil {
		return Outcome{}, err
	}
	if stored, err := replay(ctx, uow.IdempotencyRepository(), command.Key(), fingerprint); stored != nil || err != nil {
		return derefOutcome(stored), err
	}

	active := s.ActiveLabel()
	if active == nil {
		return Outcome{}, errs.NewConflictError(
			errs.CodeNoLabel,
			fmt.Sprintf("Transfer %d has no active label to cancel.", command.TransferID()),
		)
	}

	voided, err := h.voidAtCarrier(ctx, uow, command.TransferID(), active)
	if err != nil {
		return Outcome{}, err
	}

	now := h.clock.Now()
	if err = s.CancelLabel(now); err != nil {
		return Outcome{}, err
	}
	if err = s.Reopen(); err != nil {
		return Outcome{}, err
	}
	if err = uow.ShipmentRepository().Update(ctx, s); err != nil {
		return Outcome{}, err
	}

	receipt := CancelReceipt{
		TransferID:       s.TransferID(),
		ShipmentID:       s.ID().String(),
		Status:           s.Status().String(),
		LabelID:          active.ID().String(),
		Carrier:          active.CarrierCode(),
		TrackingNumbers:  active.TrackingNumbers(),
		CarrierCancelled: voided,
		CancelledAt:      now,
	}
	outcome, err := remember(ctx, uow.IdempotencyRepository(), command.Key(), idempotency.ScopeCancelLabel,
		command.TransferID(), fingerprint, command.Meta(), receipt, now)
	if err != nil {
		return Outcome{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return Outcome{}, err
	}

	h.metrics.LabelCancelled(active.CarrierCode())
	h.logger.InfoContext(ctx, "label cancelled",
		"transfer_id", command.TransferID(),
		"carrier", active.CarrierCode(),
		"tracking", active.TrackingNumbers(),
		"carrier_cancelled", voided,
	)
	return outcome, nil
}

// voidAtCarrier reports whether the carrier itself voided the label. A false
// result with no error means only local state is reversed.
func (h CancelLabelCommandHandler) voidAtCarrier(
	ctx context.Context,
	uow LabelUoW,
	transferID int64,
	label *shipment.Label,
) (bool, error) {
	client, ok := h.registry.Client(label.CarrierCode())
	if !ok {
		return false, nil
	}
	t, err := loadTransfer(ctx, uow.TransferRepository(), transferID)
	if err != nil {
		return false, err
	}
	creds, err := ports.ResolveCredentials(h.credentials, client, t.OriginOutlet())
	if err != nil {
		return false, err
	}

	err = client.Cancel(ctx, creds, ports.LabelRef{
		CarrierOrderID:  label.CarrierOrderID(),
		TrackingNumbers: label.TrackingNumbers(),
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ports.ErrCancelNotSupported):
		h.logger.InfoContext(ctx, "carrier has no cancel API, reversing locally",
			"transfer_id", transferID, "carrier", client.Code())
		return false, nil
	default:
		h.logger.WarnContext(ctx, "label cancel failed",
			"transfer_id", transferID, "carrier", client.Code(), "error", err)
		return false, asUpstream(client.Code(), err)
	}
}
