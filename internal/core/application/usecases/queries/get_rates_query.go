// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return read models for specific use cases and never write.
package queries

import (
	"errors"
	"strings"

	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/services"
	"freight/internal/pkg/guard"
)

// CarrierAuto asks rate shopping to try every configured carrier.
const CarrierAuto = "AUTO"

var (
	ErrGetRatesQueryIsNotConstructed = errors.New(
		"GetRatesQuery must be created via NewGetRatesQuery constructor",
	)
	ErrTransferIDIsInvalid = errors.New("transfer id must be greater than 0")
	ErrWeightsAreInvalid   = errors.New("selection weights must not be negative")
)

// RatePreferences tune how rates are shopped and which one is chosen.
// Carrier is a catalog code or AUTO (the default). CostWeight and SpeedWeight
// switch selection from cheapest-first to the weighted score when SpeedWeight
// is positive. Strategy is one of min, prefer_live, prefer_db and defaults
// to prefer_live.
type RatePreferences struct {
	Carrier       string
	PreferSatchel bool
	Strategy      string
	CostWeight    float64
	SpeedWeight   float64
}

// GetRatesQuery asks for priced service offers for a transfer's shipment.
//
// Example:
//
//	query, err := NewGetRatesQuery(42, parcels, rate.Options{Signature: true}, RatePreferences{})
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, query)
//	fmt.Println(result.Chosen.Provider(), result.Chosen.Cost())
type GetRatesQuery struct {
	transferID    int64
	parcels       []rate.ParcelInput
	options       rate.Options
	carrier       string
	preferSatchel bool
	strategy      rate.MergeStrategy
	weights       rate.Weights

	guard guard.ConstructorGuard
}

// NewGetRatesQuery validates the parcels against the shipping limits and
// returns an INPUT error with per-field messages when they are out of range.
func NewGetRatesQuery(
	transferID int64,
	parcels []rate.ParcelInput,
	options rate.Options,
	prefs RatePreferences,
) (GetRatesQuery, error) {
	q := GetRatesQuery{
		parcels:       append([]rate.ParcelInput(nil), parcels...),
		options:       options,
		preferSatchel: prefs.PreferSatchel,
		guard:         guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		q.setTransferID(transferID),
		q.setCarrier(prefs.Carrier),
		q.setStrategy(prefs.Strategy),
		q.setWeights(prefs.CostWeight, prefs.SpeedWeight),
		services.ValidateParcels(parcels, false),
	); err != nil {
		return GetRatesQuery{}, err
	}
	return q, nil
}

func (q GetRatesQuery) Validate() error {
	return q.guard.Validate(ErrGetRatesQueryIsNotConstructed)
}

func (q GetRatesQuery) TransferID() int64            { return q.transferID }
func (q GetRatesQuery) Parcels() []rate.ParcelInput  { return q.parcels }
func (q GetRatesQuery) Options() rate.Options        { return q.options }
func (q GetRatesQuery) PreferSatchel() bool          { return q.preferSatchel }
func (q GetRatesQuery) Strategy() rate.MergeStrategy { return q.strategy }
func (q GetRatesQuery) Weights() rate.Weights        { return q.weights }
func (q GetRatesQuery) Carrier() string              { return q.carrier }
func (q GetRatesQuery) IsAuto() bool                 { return q.carrier == CarrierAuto }

func (q *GetRatesQuery) setTransferID(id int64) error {
	if id <= 0 {
		return ErrTransferIDIsInvalid
	}
	q.transferID = id
	return nil
}

func (q *GetRatesQuery) setCarrier(carrier string) error {
	code := catalog.NormalizeCarrierCode(carrier)
	if code == "" {
		code = CarrierAuto
	}
	q.carrier = code
	return nil
}

func (q *GetRatesQuery) setStrategy(strategy string) error {
	if strings.TrimSpace(strategy) == "" {
		q.strategy = rate.MergePreferLive
		return nil
	}
	parsed, err := rate.ParseMergeStrategy(strategy)
	if err != nil {
		return err
	}
	q.strategy = parsed
	return nil
}

func (q *GetRatesQuery) setWeights(cost, speed float64) error {
	if cost < 0 || speed < 0 {
		return ErrWeightsAreInvalid
	}
	if cost == 0 && speed == 0 {
		q.weights = rate.CheapestOnly()
		return nil
	}
	q.weights = rate.Weights{Cost: cost, Speed: speed}
	return nil
}

// CarrierFailure is a carrier that could not quote during rate shopping.
type CarrierFailure struct {
	Carrier string `json:"carrier"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetRatesQueryResponse is the rate shopping read model. Rates are sorted
// for display; Chosen is the selected offer after reconciling with the
// catalog estimate (see Merge). Fallback is set when no carrier returned a
// live rate and the catalog estimate is offered instead.
type GetRatesQueryResponse struct {
	TransferID      int64
	Carrier         string
	Rates           []rate.Rate
	Chosen          rate.Rate
	CatalogEstimate *rate.Rate
	Merge           rate.MergeResult
	Fallback        bool
	Note            string
	Parcels         []rate.ParcelInput
	InputFixes      []rate.InputFix
	AddressWarnings []address.Warning
	CarrierErrors   []CarrierFailure
}
