package postgres

import (
	"freight/internal/adapters/out/postgres/catalogrepo"
	"freight/internal/adapters/out/postgres/idempotencyrepo"
	"freight/internal/adapters/out/postgres/productrepo"
	"freight/internal/adapters/out/postgres/shipmentrepo"
	"freight/internal/adapters/out/postgres/transferrepo"

	"gorm.io/gorm"
)

// Models lists every table the engine owns or reads, in dependency order.
func Models() []any {
	return []any{
		&catalogrepo.CarrierDTO{},
		&catalogrepo.ContainerDTO{},
		&productrepo.CategoryDTO{},
		&productrepo.ProductDTO{},
		&transferrepo.TransferDTO{},
		&transferrepo.TransferLineDTO{},
		&shipmentrepo.ShipmentDTO{},
		&shipmentrepo.ParcelDTO{},
		&shipmentrepo.LabelDTO{},
		&idempotencyrepo.RecordDTO{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
