package queries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"freight/internal/core/domain/model/allocation"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/services"
	"freight/internal/core/ports"
	"freight/internal/pkg/errs"
)

// AllocateBoxesQueryHandler resolves a transfer's products into line items,
// packs them into boxes and runs the container picker on every box.
//
// The picker only sees containers that hold the box within the allocator's
// safety factors, and the box is bound to its pick, so Container and
// Pick.Container always agree. When the picker rejects every safe container
// the box keeps the allocator's cheapest one and carries the FitError.
//
// A transfer without resolvable lines is split by weight alone when the
// request supplies a fallback weight.
//
// Picker failures are reported per box and do not fail the request; only
// NO_CONTAINERS and unit-level allocation failures do.
type AllocateBoxesQueryHandler struct {
	transfers ports.TransferRepository
	products  ports.ProductRepository
	catalog   ports.CatalogRepository
	defaults  services.AllocatorOptions
	resolver  services.DimensionResolver
	picker    services.ContainerPicker
	logger    *slog.Logger
}

func NewAllocateBoxesQueryHandler(
	transfers ports.TransferRepository,
	products ports.ProductRepository,
	catalogRepo ports.CatalogRepository,
	defaults services.AllocatorOptions,
	defaultUnitWeightG int,
	logger *slog.Logger,
) AllocateBoxesQueryHandler {
	return AllocateBoxesQueryHandler{
		transfers: transfers,
		products:  products,
		catalog:   catalogRepo,
		defaults:  defaults,
		resolver:  services.NewDimensionResolver(defaultUnitWeightG),
		picker:    services.NewContainerPicker(),
		logger:    logger.With("component", "allocation"),
	}
}

func (h AllocateBoxesQueryHandler) Handle(ctx context.Context, query AllocateBoxesQuery) (AllocateBoxesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return AllocateBoxesQueryResponse{}, err
	}

	t, err := loadTransfer(ctx, h.transfers, query.TransferID())
	if err != nil {
		return AllocateBoxesQueryResponse{}, err
	}
	carrier, containers, err := loadCarrierCatalog(ctx, h.catalog, query.CarrierCode())
	if err != nil {
		return AllocateBoxesQueryResponse{}, err
	}
	profiles, err := h.products.GetProfiles(ctx, t.ProductIDs())
	if err != nil {
		return AllocateBoxesQueryResponse{}, err
	}

	res := h.resolver.Resolve(t.Lines(), profiles)
	options := query.Overrides().apply(h.defaults)
	if len(res.Lines) == 0 {
		if query.Overrides().FallbackWeightG > 0 {
			return h.splitByWeight(ctx, t.ID(), carrier, containers, options, query.Overrides().FallbackWeightG)
		}
		return AllocateBoxesQueryResponse{}, errs.NewInputError(
			errs.CodeInputInvalid,
			fmt.Sprintf("Transfer %d has no shippable lines.", t.ID()),
			map[string]string{"lines": "no line has a product and a positive quantity"},
		)
	}

	allocator := services.NewAllocator(options)
	boxes, err := allocator.Allocate(res.Lines, containers)
	if err != nil {
		return AllocateBoxesQueryResponse{}, allocationError(query.CarrierCode(), err)
	}

	result := AllocateBoxesQueryResponse{
		TransferID:       t.ID(),
		CarrierCode:      carrier.Code(),
		Boxes:            make([]AllocatedBox, 0, len(boxes)),
		Parcels:          make([]rate.ParcelInput, 0, len(boxes)),
		TotalWeightG:     res.TotalWeightG,
		TotalVolumeCM3:   res.TotalVolumeCM3,
		BoundingBox:      res.BoundingBox,
		HasAllDimensions: res.HasAllDimensions,
		MissingIDs:       res.MissingIDs,
	}
	for _, box := range boxes {
		allocated, err := h.pick(carrier, allocator.Holding(box, containers), box)
		if err != nil {
			return AllocateBoxesQueryResponse{}, err
		}
		result.Boxes = append(result.Boxes, allocated)
		result.Parcels = append(result.Parcels, parcelOf(box))
	}

	h.logger.InfoContext(ctx, "transfer allocated",
		"transfer_id", t.ID(),
		"carrier", carrier.Code(),
		"boxes", len(boxes),
		"weight_g", res.TotalWeightG,
		"missing_dimensions", len(res.MissingIDs),
	)
	return result, nil
}

func (h AllocateBoxesQueryHandler) pick(
	carrier catalog.Carrier,
	safe []*catalog.ContainerSpec,
	box *allocation.Box,
) (AllocatedBox, error) {
	pick, err := h.picker.Pick(carrier, safe, services.FitRequest{
		WeightG:    box.TotalWeightG(),
		VolumeCM3:  box.TotalVolumeCM3(),
		Dimensions: box.UnitEnvelope(),
	})
	var fitErr *services.FitError
	switch {
	case errors.As(err, &fitErr):
	case err != nil:
		return AllocatedBox{}, err
	default:
		if err = box.BindContainer(pick.Container); err != nil {
			return AllocatedBox{}, err
		}
	}

	return AllocatedBox{
		Number:       box.Number(),
		Container:    box.Container(),
		WeightG:      box.TotalWeightG(),
		VolumeCM3:    box.TotalVolumeCM3(),
		UnitEnvelope: box.UnitEnvelope(),
		ItemCount:    box.ItemCount(),
		Categories:   box.Categories(),
		Items:        boxItems(box),
		Pick:         pick,
		FitError:     fitErr,
	}, nil
}

// splitByWeight answers for a transfer whose goods are known only by their
// total weight.
func (h AllocateBoxesQueryHandler) splitByWeight(
	ctx context.Context,
	transferID int64,
	carrier catalog.Carrier,
	containers []*catalog.ContainerSpec,
	options services.AllocatorOptions,
	weightG int,
) (AllocateBoxesQueryResponse, error) {
	parcels, err := services.NewWeightSplitter(options.WeightSafety).Split(weightG, containers)
	if err != nil {
		return AllocateBoxesQueryResponse{}, allocationError(carrier.Code(), err)
	}

	result := AllocateBoxesQueryResponse{
		TransferID:   transferID,
		CarrierCode:  carrier.Code(),
		Boxes:        make([]AllocatedBox, 0, len(parcels)),
		Parcels:      make([]rate.ParcelInput, 0, len(parcels)),
		TotalWeightG: weightG,
		WeightOnly:   true,
	}
	for i, p := range parcels {
		result.Boxes = append(result.Boxes, AllocatedBox{Number: i + 1, Container: p.Container, WeightG: p.LoadG})
		result.Parcels = append(result.Parcels, parcelFor(p.Container, p.LoadG))
	}

	h.logger.InfoContext(ctx, "transfer split by weight",
		"transfer_id", transferID,
		"carrier", carrier.Code(),
		"parcels", len(parcels),
		"weight_g", weightG,
	)
	return result, nil
}

// boxItems merges the box's line chunks per product.
func boxItems(box *allocation.Box) []BoxItem {
	items := make([]BoxItem, 0)
	index := make(map[string]int)
	for _, li := range box.Items() {
		if i, ok := index[li.ProductID()]; ok {
			items[i].Quantity += li.Quantity()
			items[i].WeightG += li.TotalWeightG()
			continue
		}
		index[li.ProductID()] = len(items)
		items = append(items, BoxItem{ProductID: li.ProductID(), Quantity: li.Quantity(), WeightG: li.TotalWeightG()})
	}
	return items
}

// parcelOf describes a box with its bound container's outer size.
func parcelOf(box *allocation.Box) rate.ParcelInput {
	return parcelFor(box.Container(), box.TotalWeightG())
}

func parcelFor(c *catalog.ContainerSpec, weightG int) rate.ParcelInput {
	p := rate.ParcelInput{WeightG: weightG, Type: "box"}
	if c == nil {
		return p
	}
	p.ContainerCode = c.Code()
	if c.Kind().IsSatchel() {
		p.Type = "satchel"
	}
	if d := c.Dimensions(); d.HasAll() {
		p.LengthMM, p.WidthMM, p.HeightMM = d.Length(), d.Width(), d.Height()
	}
	return p
}

func loadCarrierCatalog(
	ctx context.Context,
	repo ports.CatalogRepository,
	code string,
) (catalog.Carrier, []*catalog.ContainerSpec, error) {
	carrier, err := repo.GetCarrier(ctx, code)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return catalog.Carrier{}, nil, unknownCarrier(code)
	}
	if err != nil {
		return catalog.Carrier{}, nil, err
	}
	containers, err := repo.ListContainers(ctx, carrier.Code())
	if err != nil {
		return catalog.Carrier{}, nil, err
	}
	return carrier, containers, nil
}

func allocationError(carrierCode string, err error) error {
	var tooLarge *services.UnitTooLargeError
	switch {
	case errors.Is(err, services.ErrNoContainers):
		return errs.NewInputError(
			errs.CodeNoContainers,
			fmt.Sprintf("No shipping containers are available for %s. Please contact support.", carrierCode),
			nil,
		).WithDetails(map[string]any{"carrier": carrierCode})
	case errors.As(err, &tooLarge):
		appErr := errs.NewInternalError("A product is larger than every container in the catalog.", err)
		appErr.Code = errs.CodeAllocationFailed
		return appErr.WithDetails(map[string]any{
			"product_id":      tooLarge.ProductID,
			"unit_weight_g":   tooLarge.UnitWeightG,
			"unit_volume_cm3": tooLarge.UnitVolumeCM3,
		})
	case errors.Is(err, services.ErrAllocationFailed):
		appErr := errs.NewInternalError("The transfer could not be packed into boxes.", err)
		appErr.Code = errs.CodeAllocationFailed
		return appErr
	}
	return err
}

// fitAppError exposes a picker failure as an INPUT error with the picker's
// diagnostics and continuation flags in Details.
func fitAppError(fe *services.FitError) *errs.AppError {
	details := maps.Clone(fe.Diagnostics)
	if details == nil {
		details = make(map[string]any, 2)
	}
	details["can_continue"] = fe.CanContinue
	details["critical"] = fe.Critical
	return errs.NewInputError(fe.Code, fe.Message, nil).WithDetails(details)
}
