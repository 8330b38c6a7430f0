package catalogrepo

import (
	"context"
	"errors"

	"freight/internal/adapters/out/postgres/pgerrs"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalogRepository implements ports.CatalogRepository using GORM.
type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// GetCarrier retrieves a carrier by its code. Codes are normalized first so
// "nz post" and "NZPOST" resolve to the same row.
func (r *GormCatalogRepository) GetCarrier(ctx context.Context, code string) (catalog.Carrier, error) {
	code = catalog.NormalizeCarrierCode(code)

	var dto CarrierDTO
	if err := r.db.WithContext(ctx).First(&dto, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Carrier{}, errs.NewObjectNotFoundError("carrier", code)
		}
		return catalog.Carrier{}, pgerrs.Wrap("get carrier", err)
	}

	return carrierToDomain(dto)
}

func (r *GormCatalogRepository) ListCarriers(ctx context.Context) ([]catalog.Carrier, error) {
	var dtos []CarrierDTO
	if err := r.db.WithContext(ctx).Order("code").Find(&dtos).Error; err != nil {
		return nil, pgerrs.Wrap("list carriers", err)
	}

	carriers := make([]catalog.Carrier, 0, len(dtos))
	for _, dto := range dtos {
		c, err := carrierToDomain(dto)
		if err != nil {
			return nil, err
		}
		carriers = append(carriers, c)
	}

	return carriers, nil
}

// ListContainers returns the containers of one carrier ordered by code.
// Picker and allocator impose their own ordering.
func (r *GormCatalogRepository) ListContainers(ctx context.Context, carrierCode string) ([]*catalog.ContainerSpec, error) {
	var dtos []ContainerDTO
	if err := r.db.WithContext(ctx).
		Where("carrier_code = ?", catalog.NormalizeCarrierCode(carrierCode)).
		Order("code").
		Find(&dtos).Error; err != nil {
		return nil, pgerrs.Wrap("list containers", err)
	}

	containers := make([]*catalog.ContainerSpec, 0, len(dtos))
	for _, dto := range dtos {
		c, err := containerToDomain(dto)
		if err != nil {
			return nil, err
		}
		containers = append(containers, c)
	}

	return containers, nil
}

func (r *GormCatalogRepository) GetContainer(ctx context.Context, carrierCode, code string) (*catalog.ContainerSpec, error) {
	carrierCode = catalog.NormalizeCarrierCode(carrierCode)

	var dto ContainerDTO
	if err := r.db.WithContext(ctx).
		First(&dto, "carrier_code = ? AND code = ?", carrierCode, code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("container", carrierCode+"/"+code)
		}
		return nil, pgerrs.Wrap("get container", err)
	}

	return containerToDomain(dto)
}

// UpsertContainer inserts a container or refreshes the columns a carrier
// product feed owns. Cost is left untouched on conflict because prices are
// maintained by hand.
func (r *GormCatalogRepository) UpsertContainer(ctx context.Context, container *catalog.ContainerSpec) error {
	if err := container.Validate(); err != nil {
		return err
	}

	dto := containerFromDomain(container)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "carrier_code"}, {Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "kind", "length_mm", "width_mm", "height_mm", "capacity_g", "updated_at",
		}),
	}).Create(&dto).Error

	return pgerrs.Wrap("upsert container", err)
}
