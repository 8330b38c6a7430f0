// Package ports defines the contracts between the freight core and its
// infrastructure: persistence, carrier integrations and the clock.
package ports

import (
	"context"

	"freight/internal/core/domain/model/catalog"
)

// CatalogRepository reads the pricing catalog. Carriers and their containers
// are reference data; UpsertContainer exists for the product sync flow only.
type CatalogRepository interface {
	// GetCarrier returns the carrier with the given code.
	// Returns errs.ErrObjectNotFound when the code is not in the catalog.
	GetCarrier(ctx context.Context, code string) (catalog.Carrier, error)

	// ListCarriers returns every carrier, enabled or not, ordered by code.
	ListCarriers(ctx context.Context) ([]catalog.Carrier, error)

	// ListContainers returns the containers of one carrier. Unpriced
	// containers are included; callers decide whether they are usable.
	ListContainers(ctx context.Context, carrierCode string) ([]*catalog.ContainerSpec, error)

	// GetContainer returns a single container by carrier and container code.
	GetContainer(ctx context.Context, carrierCode, code string) (*catalog.ContainerSpec, error)

	// UpsertContainer inserts or updates a container keyed by (carrier, code).
	// The cost of an existing row is never overwritten.
	UpsertContainer(ctx context.Context, container *catalog.ContainerSpec) error
}
