package shipment

import (
	"fmt"
	"strings"

	"freight/internal/pkg/errs"
)

// Status is the lifecycle state of a shipment.
//
// State transitions:
//
//	Packed ──> Labelled ──> Cancelled ──> Packed
//
// Replacing a label keeps the shipment Labelled; the prior label is
// soft-deleted inside the same transaction.
type Status int

const (
	// StatusUnknown catches uninitialized values.
	StatusUnknown Status = iota

	// StatusPacked is the state before a label exists and after a cancel.
	StatusPacked

	// StatusLabelled means an active label is attached.
	StatusLabelled

	// StatusCancelled is the transient state between a cancel and the reset
	// to Packed.
	StatusCancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		StatusUnknown:   "unknown",
		StatusPacked:    "packed",
		StatusLabelled:  "labelled",
		StatusCancelled: "cancelled",
	}
}

// ParseStatus maps a stored status name back to a Status.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for st, name := range getStatusStrings() {
		if st != StatusUnknown && name == s {
			return st, nil
		}
	}
	return StatusUnknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if s <= StatusUnknown || s > StatusCancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// CanTransitionTo reports whether next is reachable from s in one step.
// Labelled to Labelled is the label replacement path.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPacked:
		return next == StatusLabelled
	case StatusLabelled:
		return next == StatusLabelled || next == StatusCancelled
	case StatusCancelled:
		return next == StatusPacked
	default:
		return false
	}
}

func (s Status) validateTransition(next Status) error {
	if !s.CanTransitionTo(next) {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("cannot move shipment from %s to %s", s, next),
		)
	}
	return nil
}
