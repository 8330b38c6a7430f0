package commands

import (
	"errors"
	"maps"
	"strings"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/pkg/errs"
	"freight/internal/pkg/guard"
)

var ErrManualDispatchCommandIsNotConstructed = errors.New(
	"ManualDispatchCommand must be created via NewManualDispatchCommand constructor",
)

// ManualCarrierCode is stored on labels recorded without a carrier name.
const ManualCarrierCode = "MANUAL"

const maxCarrierCodeLen = 32

// ManualDispatchCommand records goods that left without a bought label:
// a courier booked elsewhere, a customer pickup or a depot dropoff.
type ManualDispatchCommand struct {
	transferID  int64
	rawMode     string
	mode        shipment.DeliveryMode
	carrierCode string
	carrierName string
	tracking    []string
	trackingURL string
	metadata    map[string]string

	guard guard.ConstructorGuard
}

func NewManualDispatchCommand(
	transferID int64,
	mode string,
	carrier string,
	tracking []string,
	trackingURL string,
	metadata map[string]string,
) (ManualDispatchCommand, error) {
	c := ManualDispatchCommand{
		rawMode:     strings.ToLower(strings.TrimSpace(mode)),
		tracking:    append([]string(nil), tracking...),
		trackingURL: strings.TrimSpace(trackingURL),
		metadata:    maps.Clone(metadata),
		guard:       guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		c.setTransferID(transferID),
		c.setMode(mode),
		c.setCarrier(carrier),
	); err != nil {
		return ManualDispatchCommand{}, err
	}
	return c, nil
}

func (c ManualDispatchCommand) Validate() error {
	return c.guard.Validate(ErrManualDispatchCommandIsNotConstructed)
}

func (c ManualDispatchCommand) TransferID() int64           { return c.transferID }
func (c ManualDispatchCommand) Mode() shipment.DeliveryMode { return c.mode }
func (c ManualDispatchCommand) CarrierCode() string         { return c.carrierCode }
func (c ManualDispatchCommand) CarrierName() string         { return c.carrierName }
func (c ManualDispatchCommand) Tracking() []string          { return c.tracking }
func (c ManualDispatchCommand) TrackingURL() string         { return c.trackingURL }

// Metadata is the caller's metadata plus the dispatch mode as given.
func (c ManualDispatchCommand) Metadata() map[string]string {
	out := maps.Clone(c.metadata)
	if out == nil {
		out = make(map[string]string, 1)
	}
	out["mode"] = c.rawMode
	return out
}

func (c *ManualDispatchCommand) setTransferID(id int64) error {
	if id <= 0 {
		return ErrTransferIDIsInvalid
	}
	c.transferID = id
	return nil
}

func (c *ManualDispatchCommand) setMode(raw string) error {
	mode, err := shipment.ParseDispatchMode(raw)
	if err != nil {
		return err
	}
	c.mode = mode
	return nil
}

// setCarrier defaults an empty carrier to ManualCarrierCode.
func (c *ManualDispatchCommand) setCarrier(raw string) error {
	c.carrierName = strings.TrimSpace(raw)
	c.carrierCode = catalog.NormalizeCarrierCode(raw)
	if c.carrierCode == "" {
		c.carrierCode = ManualCarrierCode
	}
	if c.carrierName == "" {
		c.carrierName = c.carrierCode
	}
	if len(c.carrierCode) > maxCarrierCodeLen {
		return errs.NewValueIsOutOfRangeError("carrier", len(c.carrierCode), 1, maxCarrierCodeLen)
	}
	return nil
}
