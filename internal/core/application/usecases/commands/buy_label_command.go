package commands

import (
	"errors"

	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/idempotency"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/services"
	"freight/internal/pkg/guard"
)

var ErrBuyLabelCommandIsNotConstructed = errors.New(
	"BuyLabelCommand must be created via NewBuyLabelCommand constructor",
)

// PurchaseOptions control what happens when the shipment already has a label.
// Without ForceNew the existing label is returned, or with Strict a
// CONFLICT_LABEL_EXISTS error. ForceNew replaces it.
type PurchaseOptions struct {
	Destination *address.Address
	ForceNew    bool
	Strict      bool
}

// BuyLabelCommand buys a carrier label for the chosen rate and records it on
// the transfer's shipment.
//
// Example:
//
//	cmd, err := NewBuyLabelCommand(42, chosen, parcels, rate.Options{},
//	    PurchaseOptions{}, RequestMeta{IdempotencyKey: "abc", RequestID: reqID})
//	outcome, err := handler.Handle(ctx, cmd)
//	// outcome.Body is the JSON LabelReceipt, replayed verbatim for "abc"
type BuyLabelCommand struct {
	transferID  int64
	rate        rate.Rate
	carrierCode string
	parcels     []rate.ParcelInput
	options     rate.Options
	purchase    PurchaseOptions
	key         idempotency.Key
	meta        RequestMeta

	guard guard.ConstructorGuard
}

// NewBuyLabelCommand requires every parcel to carry a weight within the
// shipping limits.
func NewBuyLabelCommand(
	transferID int64,
	selected rate.Rate,
	parcels []rate.ParcelInput,
	options rate.Options,
	purchase PurchaseOptions,
	meta RequestMeta,
) (BuyLabelCommand, error) {
	c := BuyLabelCommand{
		parcels:  append([]rate.ParcelInput(nil), parcels...),
		options:  options,
		purchase: purchase,
		meta:     meta,
		guard:    guard.NewConstructorGuard(),
	}
	if purchase.Destination != nil {
		dest := *purchase.Destination
		c.purchase.Destination = &dest
	}
	if err := errors.Join(
		c.setTransferID(transferID),
		c.setRate(selected),
		c.setKey(meta.IdempotencyKey),
		services.ValidateParcels(parcels, true),
	); err != nil {
		return BuyLabelCommand{}, err
	}
	return c, nil
}

func (c BuyLabelCommand) Validate() error {
	return c.guard.Validate(ErrBuyLabelCommandIsNotConstructed)
}

func (c BuyLabelCommand) TransferID() int64           { return c.transferID }
func (c BuyLabelCommand) Rate() rate.Rate             { return c.rate }
func (c BuyLabelCommand) CarrierCode() string         { return c.carrierCode }
func (c BuyLabelCommand) Parcels() []rate.ParcelInput { return c.parcels }
func (c BuyLabelCommand) Options() rate.Options       { return c.options }
func (c BuyLabelCommand) Purchase() PurchaseOptions   { return c.purchase }
func (c BuyLabelCommand) Key() idempotency.Key        { return c.key }
func (c BuyLabelCommand) Meta() RequestMeta           { return c.meta }

// Fingerprint identifies the request payload for idempotency checks.
func (c BuyLabelCommand) Fingerprint() (string, error) {
	return idempotency.Fingerprint(idempotency.ScopeBuyLabel, c.transferID, struct {
		Carrier     string             `json:"carrier"`
		Service     string             `json:"service"`
		ServiceCode string             `json:"service_code"`
		QuoteID     string             `json:"quote_id"`
		Cost        string             `json:"cost"`
		Parcels     []rate.ParcelInput `json:"parcels"`
		Options     rate.Options       `json:"options"`
		Destination *address.Address   `json:"destination"`
		ForceNew    bool               `json:"force_new"`
		Strict      bool               `json:"strict"`
	}{
		Carrier:     c.carrierCode,
		Service:     c.rate.Service(),
		ServiceCode: c.rate.ServiceCode(),
		QuoteID:     c.rate.QuoteID(),
		Cost:        c.rate.Cost().StringFixed(2),
		Parcels:     c.parcels,
		Options:     c.options,
		Destination: c.purchase.Destination,
		ForceNew:    c.purchase.ForceNew,
		Strict:      c.purchase.Strict,
	})
}

func (c *BuyLabelCommand) setTransferID(id int64) error {
	if id <= 0 {
		return ErrTransferIDIsInvalid
	}
	c.transferID = id
	return nil
}

func (c *BuyLabelCommand) setRate(r rate.Rate) error {
	if err := r.Validate(); err != nil {
		return err
	}
	c.rate = r
	c.carrierCode = catalog.NormalizeCarrierCode(r.Provider())
	return nil
}

func (c *BuyLabelCommand) setKey(raw string) error {
	key, err := idempotency.ParseKey(raw)
	if err != nil {
		return err
	}
	c.key = key
	return nil
}
