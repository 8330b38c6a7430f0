package rate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/pkg/errs"
	"freight/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrRateIsNotConstructed = errors.New("Rate must be created via NewRate constructor")

// Source tells where a rate came from.
type Source string

const (
	SourceLive    Source = "live"
	SourceCatalog Source = "catalog"
)

// CostBreakdown splits a quoted cost into the surcharges a carrier reports.
type CostBreakdown struct {
	Base      decimal.Decimal `json:"base"`
	Fuel      decimal.Decimal `json:"fuel"`
	Rural     decimal.Decimal `json:"rural"`
	Saturday  decimal.Decimal `json:"saturday"`
	Signature decimal.Decimal `json:"signature"`
	Other     decimal.Decimal `json:"other"`
}

// Sum adds every component.
func (b CostBreakdown) Sum() decimal.Decimal {
	return b.Base.Add(b.Fuel).Add(b.Rural).Add(b.Saturday).Add(b.Signature).Add(b.Other)
}

func (b CostBreakdown) IsZero() bool {
	return b.Sum().IsZero()
}

// Rate is one priced service offer for a whole shipment. Rates live for a
// single rate-shopping call and are never persisted as such.
type Rate struct {
	provider      string
	carrierName   string
	service       string
	serviceCode   string
	cost          decimal.Decimal
	breakdown     CostBreakdown
	note          string
	quoteID       string
	containerCode string
	satchel       bool
	rural         bool
	saturday      bool
	etaDays       int
	source        Source
	raw           json.RawMessage
	guard         guard.ConstructorGuard
}

// NewRate builds a live rate. provider is the carrier code of the client that
// produced it; carrierName is the operating carrier the provider reported.
func NewRate(provider, carrierName, service string, cost decimal.Decimal) (Rate, error) {
	r := Rate{source: SourceLive, guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		r.setProvider(provider),
		r.setCost(cost),
	); err != nil {
		return Rate{}, err
	}
	r.carrierName = strings.TrimSpace(carrierName)
	if r.carrierName == "" {
		r.carrierName = r.provider
	}
	r.service = strings.TrimSpace(service)
	if r.service == "" {
		r.service = "Standard"
	}
	r.serviceCode = r.service
	return r, nil
}

func (r Rate) Validate() error {
	return r.guard.Validate(ErrRateIsNotConstructed)
}

func (r Rate) Provider() string         { return r.provider }
func (r Rate) CarrierName() string      { return r.carrierName }
func (r Rate) Service() string          { return r.service }
func (r Rate) ServiceCode() string      { return r.serviceCode }
func (r Rate) Cost() decimal.Decimal    { return r.cost }
func (r Rate) Breakdown() CostBreakdown { return r.breakdown }
func (r Rate) Note() string             { return r.note }
func (r Rate) QuoteID() string          { return r.quoteID }
func (r Rate) ContainerCode() string    { return r.containerCode }
func (r Rate) IsSatchel() bool          { return r.satchel }
func (r Rate) IsRural() bool            { return r.rural }
func (r Rate) IsSaturday() bool         { return r.saturday }
func (r Rate) Source() Source           { return r.source }

// ETADays is 0 when the carrier gave no estimate.
func (r Rate) ETADays() int {
	return r.etaDays
}

// RawPayload is the carrier row the rate was parsed from.
func (r Rate) RawPayload() json.RawMessage {
	return r.raw
}

func (r Rate) WithServiceCode(code string) Rate {
	if code = strings.TrimSpace(code); code != "" {
		r.serviceCode = code
	}
	return r
}

func (r Rate) WithBreakdown(b CostBreakdown) Rate {
	r.breakdown = b
	return r
}

func (r Rate) WithNote(note string) Rate {
	r.note = strings.TrimSpace(note)
	return r
}

func (r Rate) WithQuoteID(id string) Rate {
	r.quoteID = id
	return r
}

func (r Rate) WithContainerCode(code string) Rate {
	r.containerCode = code
	return r
}

func (r Rate) WithSatchel(satchel bool) Rate {
	r.satchel = satchel
	return r
}

func (r Rate) WithSurchargeFlags(rural, saturday bool) Rate {
	r.rural = rural
	r.saturday = saturday
	return r
}

func (r Rate) WithETADays(days int) Rate {
	r.etaDays = max(0, days)
	return r
}

func (r Rate) WithRawPayload(raw json.RawMessage) Rate {
	r.raw = raw
	return r
}

// AsCatalogEstimate marks the rate as derived from the pricing catalog.
func (r Rate) AsCatalogEstimate() Rate {
	r.source = SourceCatalog
	return r
}

// Key identifies the offer for sorting ties and for matching a chosen rate
// against a fresh quote.
func (r Rate) Key() string {
	return r.provider + "|" + r.serviceCode + "|" + r.quoteID
}

func (r *Rate) setProvider(provider string) error {
	code := catalog.NormalizeCarrierCode(provider)
	if code == "" {
		return errs.NewValueIsRequiredError("provider")
	}
	r.provider = code
	return nil
}

func (r *Rate) setCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("cost", fmt.Errorf("%s is negative", cost))
	}
	r.cost = cost.Round(2)
	return nil
}
