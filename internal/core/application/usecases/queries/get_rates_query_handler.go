package queries

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/core/domain/model/transfer"
	"freight/internal/core/domain/services"
	"freight/internal/core/ports"
	"freight/internal/pkg/errs"

	"golang.org/x/sync/errgroup"
)

const (
	estimateOnlyNote     = "Estimated from container view"
	estimateFallbackNote = "Showing NZ Post estimate."
)

// GetRatesQueryHandler shops rates across carriers for one transfer.
//
// The catalog estimate is always computed first as a baseline. In AUTO mode
// every carrier with credentials is quoted concurrently; carrier failures are
// collected and the estimate is offered when none of them returns a rate.
// A pinned carrier that fails surfaces its error instead.
//
// Example:
//
//	handler := NewGetRatesQueryHandler(transfers, shipments, catalogRepo, registry, creds, metrics, logger)
//	result, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
//	for _, r := range result.Rates {
//	    fmt.Println(r.CarrierName(), r.Service(), r.Cost())
//	}
type GetRatesQueryHandler struct {
	transfers   ports.TransferRepository
	shipments   ports.ShipmentRepository
	catalog     ports.CatalogRepository
	registry    ports.CarrierRegistry
	credentials ports.CredentialsProvider
	metrics     ports.FreightMetrics
	logger      *slog.Logger

	normalizer services.ParcelNormalizer
	estimator  services.CatalogEstimator
	selector   services.RateSelector
}

func NewGetRatesQueryHandler(
	transfers ports.TransferRepository,
	shipments ports.ShipmentRepository,
	catalogRepo ports.CatalogRepository,
	registry ports.CarrierRegistry,
	credentials ports.CredentialsProvider,
	metrics ports.FreightMetrics,
	logger *slog.Logger,
) GetRatesQueryHandler {
	return GetRatesQueryHandler{
		transfers:   transfers,
		shipments:   shipments,
		catalog:     catalogRepo,
		registry:    registry,
		credentials: credentials,
		metrics:     metrics,
		logger:      logger.With("component", "rate_shopping"),
		normalizer:  services.NewParcelNormalizer(catalog.DefaultVolumetricDivisor),
		estimator:   services.NewCatalogEstimator(),
		selector:    services.NewRateSelector(),
	}
}

func (h GetRatesQueryHandler) Handle(ctx context.Context, query GetRatesQuery) (GetRatesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetRatesQueryResponse{}, err
	}

	t, err := loadTransfer(ctx, h.transfers, query.TransferID())
	if err != nil {
		return GetRatesQueryResponse{}, err
	}
	destination, err := h.destination(ctx, t)
	if err != nil {
		return GetRatesQueryResponse{}, err
	}

	origin, _ := t.Origin().Normalize()
	dest, warnings := destination.Normalize()
	parcels, fixes := h.normalizer.Normalize(query.Parcels(), 0)

	result := GetRatesQueryResponse{
		TransferID:      t.ID(),
		Carrier:         query.Carrier(),
		Parcels:         parcels,
		InputFixes:      fixes,
		AddressWarnings: warnings,
		CarrierErrors:   make([]CarrierFailure, 0),
	}
	result.CatalogEstimate = h.estimate(ctx, parcels, query)

	req := ports.QuoteRequest{Origin: origin, Destination: dest, Parcels: parcels, Options: query.Options()}
	cache := newQuoteCache()

	var live []rate.Rate
	if query.IsAuto() {
		live, result.CarrierErrors = h.shopAll(ctx, cache, t.OriginOutlet(), req)
	} else {
		live, err = h.shopPinned(ctx, cache, query.Carrier(), t.OriginOutlet(), req)
		if err != nil {
			h.metrics.RateShopped(ports.RateShopPinnedFailure)
			return GetRatesQueryResponse{}, err
		}
	}

	if len(live) == 0 {
		if result.CatalogEstimate == nil {
			h.metrics.RateShopped(ports.RateShopNoRates)
			return GetRatesQueryResponse{}, errs.NewUpstreamError(
				errs.CodeNoRatesAvailable,
				"No carrier returned a rate and no catalog estimate is available.",
				nil,
			).WithDetails(map[string]any{"carrier_errors": result.CarrierErrors})
		}
		estimate := result.CatalogEstimate.WithNote(fallbackNote(result.CarrierErrors))
		result.CatalogEstimate = &estimate
		result.Rates = []rate.Rate{estimate}
		result.Chosen = estimate
		result.Merge = h.selector.Merge(&estimate, nil, query.Strategy())
		result.Fallback = true
		result.Note = estimate.Note()
		h.metrics.RateShopped(ports.RateShopFallback)
		return result, nil
	}

	result.Rates = h.selector.Sort(live, query.PreferSatchel())
	best := result.Rates[0]
	if query.Weights().Speed > 0 {
		if weighted, ok := h.selector.ChooseBest(result.Rates, query.Weights()); ok {
			best = weighted
		}
	}
	result.Merge = h.selector.Merge(result.CatalogEstimate, []rate.Rate{best}, query.Strategy())
	result.Chosen = *result.Merge.Chosen
	h.metrics.RateShopped(ports.RateShopLive)

	h.logger.InfoContext(ctx, "rates shopped",
		"transfer_id", t.ID(),
		"carrier", query.Carrier(),
		"rates", len(result.Rates),
		"chosen", result.Chosen.Key(),
		"merge", result.Merge.Source,
	)
	return result, nil
}

// destination prefers the address saved on the shipment over the
// transfer's own.
func (h GetRatesQueryHandler) destination(ctx context.Context, t *transfer.Transfer) (address.Address, error) {
	s, err := h.shipments.GetByTransfer(ctx, t.ID())
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return t.Destination(), nil
	case err != nil:
		return address.Address{}, err
	}
	return shipmentDestination(t, s), nil
}

// estimate prices the parcels from NZ Post catalog containers. A catalog
// read failure leaves the shipment without a baseline.
func (h GetRatesQueryHandler) estimate(ctx context.Context, parcels []rate.ParcelInput, query GetRatesQuery) *rate.Rate {
	containers, err := h.catalog.ListContainers(ctx, catalog.CarrierNZPost)
	if err != nil {
		h.logger.WarnContext(ctx, "catalog estimate unavailable", "error", err)
		return nil
	}
	est := h.estimator.Estimate(containers, parcels, query.Options(), query.PreferSatchel())
	r := est.Rate(estimateOnlyNote)
	return &r
}

func (h GetRatesQueryHandler) shopPinned(
	ctx context.Context,
	cache *quoteCache,
	code, outlet string,
	req ports.QuoteRequest,
) ([]rate.Rate, error) {
	client, ok := h.registry.Client(code)
	if !ok {
		return nil, unknownCarrier(code)
	}
	creds, err := ports.ResolveCredentials(h.credentials, client, outlet)
	if err != nil {
		return nil, err
	}

	rates, err := cache.quote(ctx, client, creds, req)
	if err != nil {
		h.logger.WarnContext(ctx, "pinned carrier failed", "carrier", code, "error", err)
		return nil, asUpstream(code, err)
	}
	if len(rates) == 0 {
		return nil, errs.NewUpstreamError(
			errs.CodeNoRatesAvailable,
			fmt.Sprintf("%s returned no rates for this shipment.", code),
			nil,
		).WithDetails(map[string]any{"carrier": code})
	}
	return rates, nil
}

type carrierQuote struct {
	rates   []rate.Rate
	failure *CarrierFailure
}

func (h GetRatesQueryHandler) shopAll(
	ctx context.Context,
	cache *quoteCache,
	outlet string,
	req ports.QuoteRequest,
) ([]rate.Rate, []CarrierFailure) {
	codes := h.enabledCodes(ctx)
	results := make([]carrierQuote, len(codes))

	var g errgroup.Group
	for i, code := range codes {
		g.Go(func() error {
			results[i] = h.quoteOne(ctx, cache, code, outlet, req)
			return nil
		})
	}
	_ = g.Wait()

	live := make([]rate.Rate, 0)
	failures := make([]CarrierFailure, 0)
	for _, r := range results {
		live = append(live, r.rates...)
		if r.failure != nil {
			failures = append(failures, *r.failure)
		}
	}
	return live, failures
}

func (h GetRatesQueryHandler) quoteOne(
	ctx context.Context,
	cache *quoteCache,
	code, outlet string,
	req ports.QuoteRequest,
) carrierQuote {
	client, ok := h.registry.Client(code)
	if !ok {
		return carrierQuote{failure: &CarrierFailure{Carrier: code, Code: errs.CodeCarrierUnknown, Message: "carrier is not registered"}}
	}
	creds, err := ports.ResolveCredentials(h.credentials, client, outlet)
	if err != nil {
		h.logger.DebugContext(ctx, "carrier skipped", "carrier", code, "reason", "credentials missing")
		return carrierQuote{failure: failureOf(code, err)}
	}

	rates, err := cache.quote(ctx, client, creds, req)
	if err != nil {
		h.logger.WarnContext(ctx, "carrier quote failed", "carrier", code, "error", err)
		return carrierQuote{failure: failureOf(code, err)}
	}
	return carrierQuote{rates: rates}
}

// enabledCodes returns the registered carriers, minus those the catalog
// marks disabled. A carrier missing from the catalog is still tried.
func (h GetRatesQueryHandler) enabledCodes(ctx context.Context) []string {
	codes := h.registry.Codes()
	carriers, err := h.catalog.ListCarriers(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "carrier list unavailable", "error", err)
		return codes
	}

	disabled := make(map[string]bool, len(carriers))
	for _, c := range carriers {
		disabled[c.Code()] = !c.Enabled()
	}
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if !disabled[code] {
			out = append(out, code)
		}
	}
	return out
}

// fallbackNote names the carriers that failed upstream apart from those
// skipped for missing outlet credentials.
func fallbackNote(failures []CarrierFailure) string {
	if len(failures) == 0 {
		return estimateOnlyNote
	}
	var failed, unconfigured []string
	for _, f := range failures {
		if f.Code == errs.CodeCarrierCredentialsMissing {
			unconfigured = append(unconfigured, f.Carrier)
			continue
		}
		failed = append(failed, f.Carrier)
	}

	parts := make([]string, 0, 2)
	if len(failed) > 0 {
		parts = append(parts, strings.Join(failed, ", ")+" unavailable")
	}
	if len(unconfigured) > 0 {
		parts = append(parts, strings.Join(unconfigured, ", ")+" not configured for this outlet")
	}
	return strings.Join(parts, "; ") + ". " + estimateFallbackNote
}

func failureOf(code string, err error) *CarrierFailure {
	f := &CarrierFailure{Carrier: code, Code: errs.CodeCarrierError, Message: err.Error()}
	if appErr, ok := errs.AsAppError(err); ok {
		f.Code = appErr.Code
		f.Message = appErr.Message
	}
	return f
}

// quoteCache deduplicates identical quote calls within one rate-shopping
// request. It is created per Handle call and never shared.
type quoteCache struct {
	mu      sync.Mutex
	entries map[string][]rate.Rate
}

func newQuoteCache() *quoteCache {
	return &quoteCache{entries: make(map[string][]rate.Rate)}
}

func (c *quoteCache) quote(
	ctx context.Context,
	client ports.CarrierClient,
	creds ports.Credentials,
	req ports.QuoteRequest,
) ([]rate.Rate, error) {
	key := quoteKey(client.Code(), req)

	c.mu.Lock()
	cached, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	rates, err := client.Quote(ctx, creds, req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = rates
	c.mu.Unlock()
	return rates, nil
}

func quoteKey(code string, req ports.QuoteRequest) string {
	body, _ := json.Marshal(req)
	sum := sha256.Sum256(append([]byte(code+"|"), body...))
	return hex.EncodeToString(sum[:])
}

// loadTransfer maps a missing transfer to a NOT_FOUND error.
func loadTransfer(ctx context.Context, transfers ports.TransferRepository, id int64) (*transfer.Transfer, error) {
	t, err := transfers.Get(ctx, id)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, errs.NewNotFoundError(fmt.Sprintf("Transfer %d was not found.", id), err)
	}
	return t, err
}

func shipmentDestination(t *transfer.Transfer, s *shipment.Shipment) address.Address {
	if s == nil || s.Destination().IsZero() {
		return t.Destination()
	}
	return t.Destination().Merge(s.Destination())
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
