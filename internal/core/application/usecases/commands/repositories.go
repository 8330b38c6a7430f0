// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"freight/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// Each handler asks only for the repositories it writes through.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// ShipmentRepoFactory provides access to the shipment repository within a transaction.
	ShipmentRepoFactory interface {
		ShipmentRepository() ports.ShipmentRepository
	}

	// TransferRepoFactory provides access to the transfer repository within a transaction.
	TransferRepoFactory interface {
		TransferRepository() ports.TransferRepository
	}

	// IdempotencyRepoFactory provides access to the idempotency store within a transaction.
	IdempotencyRepoFactory interface {
		IdempotencyRepository() ports.IdempotencyRepository
	}

	// CatalogRepoFactory provides access to the pricing catalog within a transaction.
	CatalogRepoFactory interface {
		CatalogRepository() ports.CatalogRepository
	}

	// ShipmentUoW manages transactions that change a transfer's shipment
	// without touching the idempotency store.
	ShipmentUoW interface {
		TxManager
		ShipmentRepoFactory
		TransferRepoFactory
	}

	// ShipmentUoWFactory creates new shipment unit of work instances.
	ShipmentUoWFactory interface {
		Create() ShipmentUoW
	}

	// LabelUoW spans the shipment, its labels and parcels, and the
	// idempotency record of a label purchase or cancellation.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   record, err := uow.IdempotencyRepository().Get(ctx, key)
	//   s, err := uow.ShipmentRepository().LockByTransfer(ctx, transferID)
	//   // ... call the carrier, attach the label
	//
	//   err = uow.Commit(ctx)
	LabelUoW interface {
		TxManager
		ShipmentRepoFactory
		TransferRepoFactory
		IdempotencyRepoFactory
	}

	// LabelUoWFactory creates new label unit of work instances.
	LabelUoWFactory interface {
		Create() LabelUoW
	}

	// CatalogUoW manages transactions for catalog writes (product sync).
	CatalogUoW interface {
		TxManager
		CatalogRepoFactory
	}

	// CatalogUoWFactory creates new catalog unit of work instances.
	CatalogUoWFactory interface {
		Create() CatalogUoW
	}

	// IdempotencyUoW manages transactions over the idempotency store alone.
	IdempotencyUoW interface {
		TxManager
		IdempotencyRepoFactory
	}

	// IdempotencyUoWFactory creates new idempotency unit of work instances.
	IdempotencyUoWFactory interface {
		Create() IdempotencyUoW
	}
)
