package queries

import (
	"context"
	"errors"

	"freight/internal/core/domain/services"
	"freight/internal/core/ports"
)

// PickContainerQueryHandler runs the container picker against the catalog of
// one carrier. A picker failure is returned as an INPUT error whose details
// carry can_continue, critical and the fit diagnostics.
type PickContainerQueryHandler struct {
	catalog ports.CatalogRepository
	picker  services.ContainerPicker
}

func NewPickContainerQueryHandler(catalogRepo ports.CatalogRepository) PickContainerQueryHandler {
	return PickContainerQueryHandler{catalog: catalogRepo, picker: services.NewContainerPicker()}
}

func (h PickContainerQueryHandler) Handle(ctx context.Context, query PickContainerQuery) (*services.PickResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	carrier, containers, err := loadCarrierCatalog(ctx, h.catalog, query.CarrierCode())
	if err != nil {
		return nil, err
	}

	result, err := h.picker.Pick(carrier, containers, services.FitRequest{
		WeightG:    query.WeightG(),
		VolumeCM3:  query.VolumeCM3(),
		Dimensions: query.Dimensions(),
	})
	var fitErr *services.FitError
	if errors.As(err, &fitErr) {
		return nil, fitAppError(fitErr)
	}
	return result, err
}
