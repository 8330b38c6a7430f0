package shipment

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/pkg/errs"
	"freight/internal/pkg/guard"
)

var (
	ErrShipmentIsNotConstructed = errors.New("Shipment must be created via NewShipment constructor")
	ErrActiveLabelExists        = errors.New("shipment already has an active label")
	ErrNoActiveLabel            = errors.New("shipment has no active label")
	ErrNoParcels                = errors.New("label needs at least one parcel")
)

// Shipment is the aggregate root for everything shipped against one transfer.
//
// Shipment maintains these invariants:
//   - at most one label is active at a time
//   - parcels exist only while a label is active
//   - tracking fields mirror the active label and are empty without one
//   - status changes follow Status.CanTransitionTo
//
// Labels loaded from storage are the active ones; labels soft-deleted during
// this unit of work stay in the aggregate so the repository can persist the
// deletion marker.
type Shipment struct {
	id           kernel.UUID
	transferID   int64
	destination  address.Address
	status       Status
	deliveryMode DeliveryMode
	carrierCode  string
	carrierName  string
	tracking     string
	trackingURL  string
	dispatchedAt *time.Time
	parcels      []*Parcel
	labels       []*Label
	guard        guard.ConstructorGuard
}

// NewShipment opens a packed shipment for a transfer.
func NewShipment(transferID int64, destination address.Address) (*Shipment, error) {
	if transferID <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("transfer_id", fmt.Errorf("%d is not greater than 0", transferID))
	}
	return &Shipment{
		id:           kernel.NewUUID(),
		transferID:   transferID,
		destination:  destination,
		status:       StatusPacked,
		deliveryMode: DeliveryCourier,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// RestoreShipment rebuilds the aggregate from storage without validation.
func RestoreShipment(
	id kernel.UUID,
	transferID int64,
	destination address.Address,
	status Status,
	deliveryMode DeliveryMode,
	carrierCode, carrierName, tracking, trackingURL string,
	dispatchedAt *time.Time,
	parcels []*Parcel,
	activeLabel *Label,
) *Shipment {
	s := &Shipment{
		id:           id,
		transferID:   transferID,
		destination:  destination,
		status:       status,
		deliveryMode: deliveryMode,
		carrierCode:  carrierCode,
		carrierName:  carrierName,
		tracking:     tracking,
		trackingURL:  trackingURL,
		dispatchedAt: dispatchedAt,
		parcels:      parcels,
		guard:        guard.NewConstructorGuard(),
	}
	if activeLabel != nil {
		s.labels = []*Label{activeLabel}
	}
	return s
}

func (s *Shipment) Validate() error {
	if s == nil {
		return ErrShipmentIsNotConstructed
	}
	return s.guard.Validate(ErrShipmentIsNotConstructed)
}

func (s *Shipment) ID() kernel.UUID              { return s.id }
func (s *Shipment) TransferID() int64            { return s.transferID }
func (s *Shipment) Destination() address.Address { return s.destination }
func (s *Shipment) Status() Status               { return s.status }
func (s *Shipment) DeliveryMode() DeliveryMode   { return s.deliveryMode }
func (s *Shipment) CarrierCode() string          { return s.carrierCode }
func (s *Shipment) CarrierName() string          { return s.carrierName }
func (s *Shipment) Tracking() string             { return s.tracking }
func (s *Shipment) TrackingURL() string          { return s.trackingURL }
func (s *Shipment) DispatchedAt() *time.Time     { return s.dispatchedAt }

// Parcels returns the current parcels ordered by box number.
func (s *Shipment) Parcels() []*Parcel {
	out := slices.Clone(s.parcels)
	slices.SortFunc(out, func(a, b *Parcel) int { return a.boxNumber - b.boxNumber })
	return out
}

// Labels returns every label held by the aggregate, active and deleted.
func (s *Shipment) Labels() []*Label {
	return slices.Clone(s.labels)
}

// ActiveLabel is nil when no label is attached.
func (s *Shipment) ActiveLabel() *Label {
	for _, l := range s.labels {
		if l.IsActive() {
			return l
		}
	}
	return nil
}

func (s *Shipment) HasActiveLabel() bool {
	return s.ActiveLabel() != nil
}

// ChangeDestination stores the address labels will be bought for.
func (s *Shipment) ChangeDestination(destination address.Address) {
	s.destination = destination
}

// ClearForReplacement soft-deletes the active label, drops the parcels and
// clears tracking so a new label can be attached. Status is left as is.
func (s *Shipment) ClearForReplacement(now time.Time) {
	if l := s.ActiveLabel(); l != nil {
		l.softDelete(now)
	}
	s.parcels = nil
	s.clearTracking()
}

// AttachLabel records a bought label with the parcels it covers and marks the
// shipment labelled and dispatched.
func (s *Shipment) AttachLabel(label *Label, parcels []*Parcel, now time.Time) error {
	if err := label.Validate(); err != nil {
		return err
	}
	if len(parcels) == 0 {
		return ErrNoParcels
	}
	for _, p := range parcels {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return s.attach(label, parcels, DeliveryCourier, now)
}

// RecordManualDispatch attaches an operator-recorded label. Any active label
// is replaced. Parcels are optional for manual dispatches.
func (s *Shipment) RecordManualDispatch(label *Label, mode DeliveryMode, parcels []*Parcel, now time.Time) error {
	if err := errors.Join(label.Validate(), mode.Validate()); err != nil {
		return err
	}
	if s.HasActiveLabel() {
		s.ClearForReplacement(now)
	}
	return s.attach(label, parcels, mode, now)
}

// CancelLabel soft-deletes the active label, drops the parcels and clears
// tracking. The shipment ends Cancelled; Reopen returns it to Packed.
func (s *Shipment) CancelLabel(now time.Time) error {
	active := s.ActiveLabel()
	if active == nil {
		return ErrNoActiveLabel
	}
	if err := s.status.validateTransition(StatusCancelled); err != nil {
		return err
	}
	active.softDelete(now)
	s.parcels = nil
	s.clearTracking()
	s.status = StatusCancelled
	return nil
}

// Reopen moves a cancelled shipment back to Packed.
func (s *Shipment) Reopen() error {
	if err := s.status.validateTransition(StatusPacked); err != nil {
		return err
	}
	s.status = StatusPacked
	s.deliveryMode = DeliveryCourier
	return nil
}

func (s *Shipment) attach(label *Label, parcels []*Parcel, mode DeliveryMode, now time.Time) error {
	if s.HasActiveLabel() {
		return ErrActiveLabelExists
	}
	if err := s.status.validateTransition(StatusLabelled); err != nil {
		return err
	}
	tracking := label.Tracking()
	for _, p := range parcels {
		p.markLabelled(tracking)
	}
	at := now.UTC()
	s.parcels = slices.Clone(parcels)
	s.labels = append(s.labels, label)
	s.carrierCode = label.CarrierCode()
	s.carrierName = strings.TrimSpace(label.CarrierName())
	if s.carrierName == "" {
		s.carrierName = s.carrierCode
	}
	s.tracking = tracking
	s.trackingURL = label.TrackingURL()
	s.dispatchedAt = &at
	s.deliveryMode = mode
	s.status = StatusLabelled
	return nil
}

func (s *Shipment) clearTracking() {
	s.tracking = ""
	s.trackingURL = ""
	s.dispatchedAt = nil
}
