package commands

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/idempotency"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/core/domain/model/transfer"
	"freight/internal/core/ports"
	"freight/internal/pkg/errs"
)

// BuyLabelCommandHandler buys labels. The whole purchase runs in one
// LabelUoW transaction holding the shipment row lock, so concurrent
// purchases for a transfer serialize and at most one reaches the carrier.
//
// Order of work:
//  1. replay a stored response for a known idempotency key
//  2. resolve the carrier client and the origin outlet's credentials
//  3. lock (or create) the shipment and check the key again under the lock
//  4. return, reject or replace an existing label
//  5. create the label at the carrier and fetch its document
//  6. persist label, parcels, shipment and idempotency record, then commit
//
// When step 6 fails the new label is voided at the carrier on a best-effort
// basis and nothing is written.
type BuyLabelCommandHandler struct {
	uowFactory  LabelUoWFactory
	registry    ports.CarrierRegistry
	credentials ports.CredentialsProvider
	clock       ports.Clock
	metrics     ports.FreightMetrics
	logger      *slog.Logger
}

func NewBuyLabelCommandHandler(
	uowFactory LabelUoWFactory,
	registry ports.CarrierRegistry,
	credentials ports.CredentialsProvider,
	clock ports.Clock,
	metrics ports.FreightMetrics,
	logger *slog.Logger,
) BuyLabelCommandHandler {
	return BuyLabelCommandHandler{
		uowFactory:  uowFactory,
		registry:    registry,
		credentials: credentials,
		clock:       clock,
		metrics:     metrics,
		logger:      logger.With("component", "label_purchase"),
	}
}

func (h BuyLabelCommandHandler) Handle(ctx context.Context, command BuyLabelCommand) (Outcome, error) {
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

	t, err := loadTransfer(ctx, uow.TransferRepository(), command.TransferID())
	if err != nil {
		return Outcome{}, err
	}
	client, ok := h.registry.Client(command.CarrierCode())
	if !ok {
		return Outcome{}, unknownCarrier(command.CarrierCode())
	}
	creds, err := ports.ResolveCredentials(h.credentials, client, t.OriginOutlet())
	if err != nil {
		return Outcome{}, err
	}

	s, err := h.lockShipment(ctx, uow.ShipmentRepository(), t)
	if err != nil {
		return Outcome{}, err
	}
	// A request with the same key may have committed while this one waited on the lock.
	if stored, err := replay(ctx, uow.IdempotencyRepository(), command.Key(), fingerprint); stored != nil || err != nil {
		return derefOutcome(stored), err
	}

	if override := command.Purchase().Destination; override != nil {
		s.ChangeDestination(s.Destination().Merge(*override))
	}

	now := h.clock.Now()
	if active := s.ActiveLabel(); active != nil {
		switch {
		case command.Purchase().Strict && !command.Purchase().ForceNew:
			return Outcome{}, errs.NewConflictError(
				errs.CodeLabelExists,
				fmt.Sprintf("Transfer %d already has an active %s label.", t.ID(), active.CarrierCode()),
			).WithDetails(map[string]any{"label_id": active.ID().String(), "tracking": active.TrackingNumbers()})
		case !command.Purchase().ForceNew:
			return h.finish(ctx, uow, command, fingerprint, labelReceipt(s, active, true), now)
		}
		s.ClearForReplacement(now)
	}

	req, err := h.shipmentRequest(t, s, command)
	if err != nil {
		return Outcome{}, err
	}
	details, err := client.CreateShipment(ctx, creds, req)
	if err != nil {
		h.logger.WarnContext(ctx, "label purchase failed",
			"transfer_id", t.ID(), "carrier", client.Code(), "error", err)
		return Outcome{}, asUpstream(client.Code(), err)
	}
	if details.DocumentRef == "" {
		details.DocumentRef = h.fetchDocument(ctx, client, creds, details)
	}

	outcome, err := h.record(ctx, uow, command, fingerprint, s, details, now)
	if err != nil {
		h.compensate(ctx, client, creds, details, err)
		if _, ok := errs.AsAppError(err); !ok {
			err = errs.NewUpstreamError(errs.CodeCarrierError, "The label could not be recorded and was not kept.", err)
		}
		return Outcome{}, err
	}

	h.metrics.LabelPurchased(client.Code())
	h.logger.InfoContext(ctx, "label purchased",
		"transfer_id", t.ID(),
		"carrier", client.Code(),
		"service", details.Service,
		"tracking", details.TrackingNumbers,
		"parcels", len(command.Parcels()),
		"replaced", command.Purchase().ForceNew,
	)
	return outcome, nil
}

// lockShipment returns the locked shipment, inserting a packed one first when
// the transfer has none. A concurrent first purchase blocks on the insert
// until the other transaction ends and then locks the row it committed.
func (h BuyLabelCommandHandler) lockShipment(
	ctx context.Context,
	repo ports.ShipmentRepository,
	t *transfer.Transfer,
) (*shipment.Shipment, error) {
	s, err := repo.LockByTransfer(ctx, t.ID())
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return nil, err
	}
	s, err = shipment.NewShipment(t.ID(), t.Destination())
	if err != nil {
		return nil, err
	}
	inserted, err := repo.AddIfAbsent(ctx, s)
	if err != nil {
		return nil, err
	}
	if inserted {
		return s, nil
	}
	return repo.LockByTransfer(ctx, t.ID())
}

func (h BuyLabelCommandHandler) shipmentRequest(
	t *transfer.Transfer,
	s *shipment.Shipment,
	command BuyLabelCommand,
) (ports.ShipmentRequest, error) {
	origin, _ := t.Origin().Normalize()
	dest, warnings := t.Destination().Merge(s.Destination()).Normalize()

	fields := make(map[string]string)
	for _, w := range warnings {
		if w.Type == address.WarningMissingRequired {
			fields["destination."+w.Field] = "is required"
		}
	}
	if len(fields) > 0 {
		return ports.ShipmentRequest{}, errs.NewInputError(
			errs.CodeInputInvalid,
			"The delivery address is incomplete.",
			fields,
		)
	}

	reference := command.Options().Reference
	if reference == "" {
		reference = fmt.Sprintf("TR-%d", t.ID())
	}
	return ports.ShipmentRequest{
		TransferID:  t.ID(),
		Reference:   reference,
		Origin:      origin,
		Destination: dest,
		Parcels:     command.Parcels(),
		Rate:        command.Rate(),
		Options:     command.Options(),
	}, nil
}

// fetchDocument is best effort: a label without a stored document can be
// fetched again later from the carrier order id.
func (h BuyLabelCommandHandler) fetchDocument(
	ctx context.Context,
	client ports.CarrierClient,
	creds ports.Credentials,
	details shipment.LabelDetails,
) string {
	doc, err := client.FetchLabel(ctx, creds, ports.LabelRef{
		CarrierOrderID:  details.CarrierOrderID,
		TrackingNumbers: details.TrackingNumbers,
	})
	switch {
	case err != nil:
		h.logger.WarnContext(ctx, "label document not fetched",
			"carrier", client.Code(), "order_id", details.CarrierOrderID, "error", err)
		return ""
	case doc.URL != "":
		return doc.URL
	case len(doc.Data) > 0:
		return "data:" + doc.ContentType + ";base64," + base64.StdEncoding.EncodeToString(doc.Data)
	}
	return ""
}

func (h BuyLabelCommandHandler) record(
	ctx context.Context,
	uow LabelUoW,
	command BuyLabelCommand,
	fingerprint string,
	s *shipment.Shipment,
	details shipment.LabelDetails,
	now time.Time,
) (Outcome, error) {
	label, err := shipment.NewLabel(details, now)
	if err != nil {
		return Outcome{}, err
	}
	parcels, err := parcelsOf(command.Parcels())
	if err != nil {
		return Outcome{}, err
	}
	if err = s.AttachLabel(label, parcels, now); err != nil {
		return Outcome{}, err
	}
	if err = uow.ShipmentRepository().Update(ctx, s); err != nil {
		return Outcome{}, err
	}
	return h.finish(ctx, uow, command, fingerprint, labelReceipt(s, label, false), now)
}

// finish stores the receipt under the idempotency key and commits.
func (h BuyLabelCommandHandler) finish(
	ctx context.Context,
	uow LabelUoW,
	command BuyLabelCommand,
	fingerprint string,
	receipt LabelReceipt,
	now time.Time,
) (Outcome, error) {
	outcome, err := remember(ctx, uow.IdempotencyRepository(), command.Key(), idempotency.ScopeBuyLabel,
		command.TransferID(), fingerprint, command.Meta(), receipt, now)
	if err != nil {
		return Outcome{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// compensate voids a label that was bought but could not be recorded.
func (h BuyLabelCommandHandler) compensate(
	ctx context.Context,
	client ports.CarrierClient,
	creds ports.Credentials,
	details shipment.LabelDetails,
	cause error,
) {
	err := client.Cancel(context.WithoutCancel(ctx), creds, ports.LabelRef{
		CarrierOrderID:  details.CarrierOrderID,
		TrackingNumbers: details.TrackingNumbers,
	})
	h.logger.ErrorContext(ctx, "label bought but not recorded",
		"carrier", client.Code(),
		"order_id", details.CarrierOrderID,
		"tracking", details.TrackingNumbers,
		"voided", err == nil,
		"void_error", err,
		"error", cause,
	)
}

func parcelsOf(inputs []rate.ParcelInput) ([]*shipment.Parcel, error) {
	parcels := make([]*shipment.Parcel, 0, len(inputs))
	for i, in := range inputs {
		dims, err := kernel.NewDimensions(in.LengthMM, in.WidthMM, in.HeightMM)
		if err != nil {
			return nil, err
		}
		p, err := shipment.NewParcel(i+1, in.WeightG, dims, in.ContainerCode)
		if err != nil {
			return nil, err
		}
		parcels = append(parcels, p)
	}
	return parcels, nil
}

func derefOutcome(o *Outcome) Outcome {
	if o == nil {
		return Outcome{}
	}
	return *o
}
