package productrepo

import (
	"context"

	"freight/internal/adapters/out/postgres/pgerrs"
	"freight/internal/core/domain/model/allocation"
	"freight/internal/core/ports"

	"gorm.io/gorm"
)

// GormProductRepository implements ports.ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// GetProfiles loads the requested products with their categories in one
// query plus one preload.
func (r *GormProductRepository) GetProfiles(
	ctx context.Context,
	productIDs []string,
) (map[string]allocation.ProductProfile, error) {
	profiles := make(map[string]allocation.ProductProfile, len(productIDs))
	if len(productIDs) == 0 {
		return profiles, nil
	}

	var dtos []ProductDTO
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id IN ?", productIDs).
		Find(&dtos).Error; err != nil {
		return nil, pgerrs.Wrap("get product profiles", err)
	}

	for _, dto := range dtos {
		profiles[dto.ID] = toDomain(dto)
	}
	return profiles, nil
}

const joinCategories = "LEFT JOIN product_categories ON product_categories.id = products.category_id"

// WeightCoverage runs one aggregate and, when gaps exist, one id lookup.
func (r *GormProductRepository) WeightCoverage(ctx context.Context, gapLimit int) (ports.WeightCoverage, error) {
	var counts struct {
		Products       int
		OwnWeight      int
		CategoryWeight int
	}
	db := r.db.WithContext(ctx)
	err := db.Model(&ProductDTO{}).
		Joins(joinCategories).
		Select(`COUNT(*) AS products,
			COUNT(*) FILTER (WHERE products.weight_g > 0) AS own_weight,
			COUNT(*) FILTER (WHERE products.weight_g <= 0 AND product_categories.avg_weight_g > 0) AS category_weight`).
		Scan(&counts).Error
	if err != nil {
		return ports.WeightCoverage{}, pgerrs.Wrap("count product weights", err)
	}

	coverage := ports.WeightCoverage{
		Products:       counts.Products,
		OwnWeight:      counts.OwnWeight,
		CategoryWeight: counts.CategoryWeight,
		Missing:        counts.Products - counts.OwnWeight - counts.CategoryWeight,
		MissingIDs:     []string{},
	}
	if coverage.Missing == 0 || gapLimit <= 0 {
		return coverage, nil
	}

	err = db.Model(&ProductDTO{}).
		Joins(joinCategories).
		Where("products.weight_g <= 0 AND COALESCE(product_categories.avg_weight_g, 0) <= 0").
		Order("products.id").
		Limit(gapLimit).
		Pluck("products.id", &coverage.MissingIDs).Error
	if err != nil {
		return ports.WeightCoverage{}, pgerrs.Wrap("list products without weight", err)
	}
	return coverage, nil
}
