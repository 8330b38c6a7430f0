package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"freight/internal/core/domain/model/idempotency"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/core/domain/model/transfer"
	"freight/internal/core/ports"
	"freight/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var ErrTransferIDIsInvalid = errors.New("transfer id must be greater than 0")

// RequestMeta carries the transport-level identity of a keyed request.
// IdempotencyKey may be empty; RequestID is stored with the response so a
// replay reports the request id of the first call.
type RequestMeta struct {
	IdempotencyKey string
	RequestID      string
}

// Outcome is the serialized result of a label command. Body is the JSON
// payload as first produced; a replay returns it unchanged together with the
// original status code and request id.
type Outcome struct {
	Body       json.RawMessage
	StatusCode int
	RequestID  string
	Replayed   bool
}

// LabelReceipt is the payload returned by a label purchase.
type LabelReceipt struct {
	TransferID      int64           `json:"transfer_id"`
	ShipmentID      string          `json:"shipment_id"`
	Status          string          `json:"status"`
	LabelID         string          `json:"label_id"`
	Carrier         string          `json:"carrier"`
	CarrierName     string          `json:"carrier_name"`
	Service         string          `json:"service"`
	TrackingNumbers []string        `json:"tracking_numbers"`
	TrackingURL     string          `json:"tracking_url,omitempty"`
	DocumentRef     string          `json:"document_ref,omitempty"`
	CarrierOrderID  string          `json:"carrier_order_id,omitempty"`
	Cost            decimal.Decimal `json:"cost"`
	Parcels         int             `json:"parcels"`
	Existing        bool            `json:"existing"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CancelReceipt is the payload returned by a label cancellation.
// CarrierCancelled is false when only local state was reversed.
type CancelReceipt struct {
	TransferID       int64     `json:"transfer_id"`
	ShipmentID       string    `json:"shipment_id"`
	Status           string    `json:"status"`
	LabelID          string    `json:"label_id"`
	Carrier          string    `json:"carrier"`
	TrackingNumbers  []string  `json:"tracking_numbers"`
	CarrierCancelled bool      `json:"carrier_cancelled"`
	CancelledAt      time.Time `json:"cancelled_at"`
}

func labelReceipt(s *shipment.Shipment, label *shipment.Label, existing bool) LabelReceipt {
	return LabelReceipt{
		TransferID:      s.TransferID(),
		ShipmentID:      s.ID().String(),
		Status:          s.Status().String(),
		LabelID:         label.ID().String(),
		Carrier:         label.CarrierCode(),
		CarrierName:     label.CarrierName(),
		Service:         label.Service(),
		TrackingNumbers: label.TrackingNumbers(),
		TrackingURL:     label.TrackingURL(),
		DocumentRef:     label.DocumentRef(),
		CarrierOrderID:  label.CarrierOrderID(),
		Cost:            label.Cost(),
		Parcels:         len(s.Parcels()),
		Existing:        existing,
		CreatedAt:       label.CreatedAt(),
	}
}

// replay returns the stored outcome for key. A nil outcome means the key is
// new (or empty) and the command must run.
func replay(
	ctx context.Context,
	repo ports.IdempotencyRepository,
	key idempotency.Key,
	fingerprint string,
) (*Outcome, error) {
	if key.IsZero() {
		return nil, nil
	}
	record, err := repo.Get(ctx, key)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !record.Matches(fingerprint) {
		return nil, errs.NewConflictError(
			errs.CodeIdempotencyKeyReused,
			"This idempotency key was already used for a different request.",
		).WithDetails(map[string]any{"idempotency_key": string(key)})
	}
	return &Outcome{
		Body:       record.Response(),
		StatusCode: record.StatusCode(),
		RequestID:  record.RequestID(),
		Replayed:   true,
	}, nil
}

// remember serializes payload and, when a key was supplied, stores it so
// later calls with the same key replay it.
func remember(
	ctx context.Context,
	repo ports.IdempotencyRepository,
	key idempotency.Key,
	scope idempotency.Scope,
	transferID int64,
	fingerprint string,
	meta RequestMeta,
	payload any,
	now time.Time,
) (Outcome, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("encode %s response: %w", scope, err)
	}
	outcome := Outcome{Body: body, StatusCode: http.StatusOK, RequestID: meta.RequestID}
	if key.IsZero() {
		return outcome, nil
	}

	record, err := idempotency.NewRecord(key, scope, transferID, fingerprint, outcome.StatusCode, body, meta.RequestID, now)
	if err != nil {
		return Outcome{}, err
	}
	if err = repo.Add(ctx, record); err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// loadTransfer maps a missing transfer to a NOT_FOUND error.
func loadTransfer(ctx context.Context, transfers ports.TransferRepository, id int64) (*transfer.Transfer, error) {
	t, err := transfers.Get(ctx, id)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, errs.NewNotFoundError(fmt.Sprintf("Transfer %d was not found.", id), err)
	}
	return t, err
}

func unknownCarrier(code string) error {
	return errs.NewInputError(
		errs.CodeCarrierUnknown,
		fmt.Sprintf("Carrier %s is not supported.", code),
		map[string]string{"carrier": "is not supported"},
	)
}

// asUpstream keeps application errors as they are and wraps anything else
// as a carrier failure.
func asUpstream(code string, err error) error {
	if _, ok := errs.AsAppError(err); ok {
		return err
	}
	return errs.NewUpstreamError(errs.CodeCarrierError, fmt.Sprintf("%s request failed.", code), err)
}
