package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/ports"
	"freight/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// DefaultSyncedCapacityG is the capacity given to a new product whose feed
// does not state one.
const DefaultSyncedCapacityG = 25000

// CarrierSync is the outcome of syncing one carrier.
type CarrierSync struct {
	Carrier string
	Created int
	Updated int
	Skipped string
	Err     error
}

// SyncCarrierProductsCommandHandler upserts carrier products into the
// pricing catalog. New products are stored unpriced (cost 0) so the
// allocator ignores them until someone sets a price; existing rows keep
// their cost. Each carrier is written in its own transaction.
type SyncCarrierProductsCommandHandler struct {
	uowFactory      CatalogUoWFactory
	registry        ports.CarrierRegistry
	credentials     ports.CredentialsProvider
	defaultCapacity int
	logger          *slog.Logger
}

func NewSyncCarrierProductsCommandHandler(
	uowFactory CatalogUoWFactory,
	registry ports.CarrierRegistry,
	credentials ports.CredentialsProvider,
	defaultCapacityG int,
	logger *slog.Logger,
) SyncCarrierProductsCommandHandler {
	if defaultCapacityG <= 0 {
		defaultCapacityG = DefaultSyncedCapacityG
	}
	return SyncCarrierProductsCommandHandler{
		uowFactory:      uowFactory,
		registry:        registry,
		credentials:     credentials,
		defaultCapacity: defaultCapacityG,
		logger:          logger.With("component", "product_sync"),
	}
}

// Handle syncs every requested carrier and reports each outcome. The
// returned error joins the per-carrier failures; skipped carriers are not
// failures.
func (h SyncCarrierProductsCommandHandler) Handle(ctx context.Context, cmd SyncCarrierProductsCommand) ([]CarrierSync, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	codes := cmd.Carriers()
	if len(codes) == 0 {
		codes = h.registry.Codes()
	}

	report := make([]CarrierSync, 0, len(codes))
	var failures []error
	for _, code := range codes {
		result := h.syncCarrier(ctx, code)
		switch {
		case result.Err != nil:
			failures = append(failures, fmt.Errorf("%s: %w", code, result.Err))
			h.logger.WarnContext(ctx, "product sync failed", "carrier", code, "error", result.Err)
		case result.Skipped != "":
			h.logger.InfoContext(ctx, "product sync skipped", "carrier", code, "reason", result.Skipped)
		default:
			h.logger.InfoContext(ctx, "products synced", "carrier", code, "created", result.Created, "updated", result.Updated)
		}
		report = append(report, result)
	}
	return report, errors.Join(failures...)
}

func (h SyncCarrierProductsCommandHandler) syncCarrier(ctx context.Context, code string) CarrierSync {
	result := CarrierSync{Carrier: code}

	client, ok := h.registry.Client(code)
	if !ok {
		result.Skipped = "carrier is not registered"
		return result
	}
	source, ok := client.(ports.ProductSource)
	if !ok {
		result.Skipped = "carrier publishes no products"
		return result
	}
	creds, err := ports.ResolveCredentials(h.credentials, client, "")
	if err != nil {
		result.Skipped = "credentials are not configured"
		return result
	}

	products, err := source.Products(ctx, creds)
	if err != nil {
		result.Err = err
		return result
	}

	result.Created, result.Updated, result.Err = h.store(ctx, code, products)
	return result
}

func (h SyncCarrierProductsCommandHandler) store(
	ctx context.Context,
	carrierCode string,
	products []ports.CarrierProduct,
) (created, updated int, err error) {
	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.CatalogRepository()
	for _, p := range products {
		container, getErr := repo.GetContainer(ctx, carrierCode, p.Code)
		switch {
		case errors.Is(getErr, errs.ErrObjectNotFound):
			if container, err = h.newContainer(carrierCode, p); err != nil {
				return 0, 0, err
			}
			created++
		case getErr != nil:
			return 0, 0, getErr
		default:
			if err = container.ApplyProduct(p.Name, p.Dimensions, p.CapacityG); err != nil {
				return 0, 0, err
			}
			updated++
		}
		if err = repo.UpsertContainer(ctx, container); err != nil {
			return 0, 0, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}

func (h SyncCarrierProductsCommandHandler) newContainer(carrierCode string, p ports.CarrierProduct) (*catalog.ContainerSpec, error) {
	capacity := h.defaultCapacity
	if p.CapacityG != nil {
		capacity = *p.CapacityG
	}
	kind := p.Kind
	if kind.Validate() != nil {
		kind = catalog.KindBox
	}
	return catalog.NewContainerSpec(kernel.NewUUID(), carrierCode, p.Code, p.Name, kind, p.Dimensions, capacity, decimal.Zero)
}
