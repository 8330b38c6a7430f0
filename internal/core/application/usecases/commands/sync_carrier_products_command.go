package commands

import (
	"errors"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/pkg/guard"
)

var ErrSyncCarrierProductsCommandIsNotConstructed = errors.New(
	"SyncCarrierProductsCommand must be created via NewSyncCarrierProductsCommand constructor",
)

// SyncCarrierProductsCommand pulls container products from the given
// carriers, or from every registered carrier when none are given.
type SyncCarrierProductsCommand struct {
	carriers []string

	guard guard.ConstructorGuard
}

func NewSyncCarrierProductsCommand(carriers ...string) SyncCarrierProductsCommand {
	codes := make([]string, 0, len(carriers))
	for _, c := range carriers {
		if code := catalog.NormalizeCarrierCode(c); code != "" {
			codes = append(codes, code)
		}
	}
	return SyncCarrierProductsCommand{carriers: codes, guard: guard.NewConstructorGuard()}
}

func (c SyncCarrierProductsCommand) Validate() error {
	return c.guard.Validate(ErrSyncCarrierProductsCommandIsNotConstructed)
}

func (c SyncCarrierProductsCommand) Carriers() []string { return c.carriers }
