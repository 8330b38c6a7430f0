package shipment

import (
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"strings"
	"time"

	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/model/rate"
	"freight/internal/pkg/errs"
	"freight/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrLabelIsNotConstructed = errors.New("Label must be created via NewLabel constructor")

// LabelDetails is what a carrier returns for a created shipment, or what an
// operator records for a manual dispatch.
type LabelDetails struct {
	CarrierCode     string
	CarrierName     string
	Service         string
	TrackingNumbers []string
	TrackingURL     string
	DocumentRef     string
	CarrierOrderID  string
	Cost            decimal.Decimal
	Breakdown       rate.CostBreakdown
	RawResponse     json.RawMessage
	Metadata        map[string]string
}

// Label is an append-only record of a bought or manually recorded label.
// Cancelling or replacing it sets the deletion marker; rows are never removed.
type Label struct {
	id        kernel.UUID
	details   LabelDetails
	createdAt time.Time
	deletedAt *time.Time
	guard     guard.ConstructorGuard
}

func NewLabel(details LabelDetails, now time.Time) (*Label, error) {
	if strings.TrimSpace(details.CarrierCode) == "" {
		return nil, errs.NewValueIsRequiredError("carrier code")
	}
	if details.Cost.IsNegative() {
		return nil, errs.NewValueIsInvalidError("cost")
	}
	details.TrackingNumbers = compactTracking(details.TrackingNumbers)
	details.Metadata = maps.Clone(details.Metadata)
	return &Label{
		id:        kernel.NewUUID(),
		details:   details,
		createdAt: now.UTC(),
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// RestoreLabel rebuilds a label from storage without validation.
func RestoreLabel(id kernel.UUID, details LabelDetails, createdAt time.Time, deletedAt *time.Time) *Label {
	return &Label{id: id, details: details, createdAt: createdAt, deletedAt: deletedAt, guard: guard.NewConstructorGuard()}
}

func (l *Label) Validate() error {
	if l == nil {
		return ErrLabelIsNotConstructed
	}
	return l.guard.Validate(ErrLabelIsNotConstructed)
}

func (l *Label) ID() kernel.UUID               { return l.id }
func (l *Label) CarrierCode() string           { return l.details.CarrierCode }
func (l *Label) CarrierName() string           { return l.details.CarrierName }
func (l *Label) Service() string               { return l.details.Service }
func (l *Label) TrackingURL() string           { return l.details.TrackingURL }
func (l *Label) DocumentRef() string           { return l.details.DocumentRef }
func (l *Label) CarrierOrderID() string        { return l.details.CarrierOrderID }
func (l *Label) Cost() decimal.Decimal         { return l.details.Cost }
func (l *Label) Breakdown() rate.CostBreakdown { return l.details.Breakdown }
func (l *Label) RawResponse() json.RawMessage  { return l.details.RawResponse }
func (l *Label) CreatedAt() time.Time          { return l.createdAt }
func (l *Label) DeletedAt() *time.Time         { return l.deletedAt }
func (l *Label) IsActive() bool                { return l.deletedAt == nil }

func (l *Label) TrackingNumbers() []string {
	return slices.Clone(l.details.TrackingNumbers)
}

// Tracking is the primary tracking number, empty when the label has none.
func (l *Label) Tracking() string {
	if len(l.details.TrackingNumbers) == 0 {
		return ""
	}
	return l.details.TrackingNumbers[0]
}

func (l *Label) Metadata() map[string]string {
	return maps.Clone(l.details.Metadata)
}

// Details returns a copy of everything recorded on the label.
func (l *Label) Details() LabelDetails {
	d := l.details
	d.TrackingNumbers = slices.Clone(d.TrackingNumbers)
	d.Metadata = maps.Clone(d.Metadata)
	return d
}

func (l *Label) softDelete(now time.Time) {
	if l.deletedAt != nil {
		return
	}
	at := now.UTC()
	l.deletedAt = &at
}

func compactTracking(numbers []string) []string {
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if n = strings.TrimSpace(n); n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
