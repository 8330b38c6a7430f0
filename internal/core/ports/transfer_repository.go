package ports

import (
	"context"

	"freight/internal/core/domain/model/allocation"
	"freight/internal/core/domain/model/transfer"
)

// TransferRepository reads stock transfers. Transfers are owned by another
// system; the engine never writes them.
type TransferRepository interface {
	// Get returns the transfer with its origin, destination and lines.
	// Returns errs.ErrObjectNotFound for an unknown id.
	Get(ctx context.Context, id int64) (*transfer.Transfer, error)
}

// ProductRepository reads product master data used for weights and sizes.
type ProductRepository interface {
	// GetProfiles returns the profiles of the requested products keyed by
	// product id. Unknown ids are simply absent from the map.
	GetProfiles(ctx context.Context, productIDs []string) (map[string]allocation.ProductProfile, error)

	// WeightCoverage counts products by where their weight comes from and
	// lists up to gapLimit ids that have neither an own nor a category weight.
	WeightCoverage(ctx context.Context, gapLimit int) (WeightCoverage, error)
}

// WeightCoverage summarizes how much of the product master can be weighed
// without falling back to the default unit weight.
type WeightCoverage struct {
	Products       int
	OwnWeight      int
	CategoryWeight int
	Missing        int
	MissingIDs     []string
}
