package shipment

import (
	"fmt"
	"strings"

	"freight/internal/pkg/errs"
)

// DeliveryMode records how the goods leave the outlet.
type DeliveryMode string

const (
	DeliveryCourier DeliveryMode = "courier"
	DeliveryPickup  DeliveryMode = "pickup"
	DeliveryDropoff DeliveryMode = "dropoff"
)

// ParseDispatchMode maps a manual dispatch mode (manual, pickup, dropoff) to
// the delivery mode stored on the shipment. "manual" means a courier booked
// outside the engine.
func ParseDispatchMode(mode string) (DeliveryMode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "manual", "courier":
		return DeliveryCourier, nil
	case "pickup":
		return DeliveryPickup, nil
	case "dropoff":
		return DeliveryDropoff, nil
	}
	return "", errs.NewValueIsInvalidErrorWithCause("mode", fmt.Errorf("%q is not one of manual, pickup, dropoff", mode))
}

func (m DeliveryMode) Validate() error {
	switch m {
	case DeliveryCourier, DeliveryPickup, DeliveryDropoff:
		return nil
	}
	return errs.NewValueIsInvalidErrorWithCause("delivery mode", fmt.Errorf("%q is not supported", string(m)))
}
