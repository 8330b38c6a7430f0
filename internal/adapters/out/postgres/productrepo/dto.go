// Package productrepo reads the product master data the dimension resolver
// needs: per-product weight and size, plus category average weights.
package productrepo

import (
	"freight/internal/core/domain/model/allocation"
	"freight/internal/core/domain/model/kernel"
)

// ProductDTO is a row of the products table. Zero measurements are unknown.
type ProductDTO struct {
	ID         string       `gorm:"type:varchar(64);primaryKey"`
	Name       string       `gorm:"type:varchar(255)"`
	WeightG    int          `gorm:"type:int;not null;default:0"`
	LengthMM   int          `gorm:"type:int;not null;default:0"`
	WidthMM    int          `gorm:"type:int;not null;default:0"`
	HeightMM   int          `gorm:"type:int;not null;default:0"`
	CategoryID *int64       `gorm:"index"`
	Category   *CategoryDTO `gorm:"foreignKey:CategoryID"`
	Fragile    bool         `gorm:"not null;default:false"`
	Liquid     bool         `gorm:"not null;default:false"`
	HighValue  bool         `gorm:"not null;default:false"`
}

func (ProductDTO) TableName() string {
	return "products"
}

// CategoryDTO carries the fallback weight for products without their own.
type CategoryDTO struct {
	ID         int64  `gorm:"primaryKey"`
	Name       string `gorm:"type:varchar(100);not null"`
	AvgWeightG int    `gorm:"type:int;not null;default:0"`
}

func (CategoryDTO) TableName() string {
	return "product_categories"
}

// toDomain maps a product row. Out-of-range measurements are treated as
// unknown so a bad row degrades to defaults instead of failing the request.
func toDomain(dto ProductDTO) allocation.ProductProfile {
	dims, err := kernel.NewDimensions(dto.LengthMM, dto.WidthMM, dto.HeightMM)
	if err != nil {
		dims = kernel.UnknownDimensions()
	}

	p := allocation.ProductProfile{
		ProductID:  dto.ID,
		Name:       dto.Name,
		WeightG:    max(dto.WeightG, 0),
		Dimensions: dims,
		Handling: allocation.Handling{
			Fragile:   dto.Fragile,
			Liquid:    dto.Liquid,
			HighValue: dto.HighValue,
		},
	}
	if dto.Category != nil {
		p.CategoryName = dto.Category.Name
		p.CategoryWeightG = max(dto.Category.AvgWeightG, 0)
	}
	return p
}
