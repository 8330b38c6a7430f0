package queries

import (
	"context"
	"log/slog"
	"math"

	"freight/internal/core/ports"
)

// CatalogHealthQueryHandler builds the catalog QA view: unpriced containers,
// carriers that cannot be allocated against, and product weight coverage.
type CatalogHealthQueryHandler struct {
	catalog  ports.CatalogRepository
	products ports.ProductRepository
	logger   *slog.Logger
}

func NewCatalogHealthQueryHandler(
	catalogRepo ports.CatalogRepository,
	products ports.ProductRepository,
	logger *slog.Logger,
) CatalogHealthQueryHandler {
	return CatalogHealthQueryHandler{
		catalog:  catalogRepo,
		products: products,
		logger:   logger.With("component", "catalog_health"),
	}
}

func (h CatalogHealthQueryHandler) Handle(ctx context.Context, query CatalogHealthQuery) (CatalogHealthQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return CatalogHealthQueryResponse{}, err
	}

	carriers, err := h.catalog.ListCarriers(ctx)
	if err != nil {
		return CatalogHealthQueryResponse{}, err
	}

	result := CatalogHealthQueryResponse{
		Healthy:                   true,
		ZeroPriceContainers:       make([]ContainerRef, 0),
		CarriersWithoutContainers: make([]string, 0),
		Carriers:                  make([]CarrierCapacity, 0, len(carriers)),
	}
	for _, carrier := range carriers {
		containers, err := h.catalog.ListContainers(ctx, carrier.Code())
		if err != nil {
			return CatalogHealthQueryResponse{}, err
		}

		capacity := CarrierCapacity{CarrierCode: carrier.Code(), Enabled: carrier.Enabled(), Containers: len(containers)}
		for _, c := range containers {
			if !c.IsPriced() {
				result.ZeroPriceContainers = append(result.ZeroPriceContainers, ContainerRef{
					CarrierCode: carrier.Code(),
					Code:        c.Code(),
					Name:        c.Name(),
				})
				continue
			}
			capacity.Priced++
			capacity.MaxCapacityG = max(capacity.MaxCapacityG, c.CapacityG())
		}
		if capacity.Priced == 0 {
			result.CarriersWithoutContainers = append(result.CarriersWithoutContainers, carrier.Code())
			if carrier.Enabled() {
				result.Healthy = false
			}
		}
		result.Carriers = append(result.Carriers, capacity)
	}

	coverage, err := h.products.WeightCoverage(ctx, query.GapLimit())
	if err != nil {
		return CatalogHealthQueryResponse{}, err
	}
	result.WeightCoverage = coverageView(coverage)

	if !result.Healthy {
		h.logger.WarnContext(ctx, "catalog has carriers without priced containers",
			"carriers", result.CarriersWithoutContainers)
	}
	return result, nil
}

func coverageView(c ports.WeightCoverage) WeightCoverageView {
	view := WeightCoverageView{
		Products:       c.Products,
		OwnWeight:      c.OwnWeight,
		CategoryWeight: c.CategoryWeight,
		Missing:        c.Missing,
		CoveragePct:    100,
		MissingIDs:     c.MissingIDs,
	}
	if view.MissingIDs == nil {
		view.MissingIDs = []string{}
	}
	if c.Products > 0 {
		covered := float64(c.OwnWeight+c.CategoryWeight) / float64(c.Products) * 100
		view.CoveragePct = math.Round(covered*10) / 10
	}
	return view
}
