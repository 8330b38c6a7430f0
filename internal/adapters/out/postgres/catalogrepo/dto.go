// Package catalogrepo persists the pricing catalog: carriers and the
// containers each carrier offers.
package catalogrepo

import (
	"time"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CarrierDTO is a row of the carriers table.
type CarrierDTO struct {
	Code             string `gorm:"type:varchar(32);primaryKey"`
	Name             string `gorm:"type:varchar(255);not null"`
	VolumetricFactor int    `gorm:"type:int;not null;default:200"`
	Enabled          bool   `gorm:"not null;default:true"`
}

func (CarrierDTO) TableName() string {
	return "carriers"
}

// ContainerDTO is a row of the carrier_containers table. (carrier_code, code)
// is the natural key the product sync upserts on.
type ContainerDTO struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CarrierCode string          `gorm:"type:varchar(32);not null;uniqueIndex:ux_container_carrier_code,priority:1"`
	Code        string          `gorm:"type:varchar(64);not null;uniqueIndex:ux_container_carrier_code,priority:2"`
	Name        string          `gorm:"type:varchar(255)"`
	Kind        string          `gorm:"type:varchar(16);not null"`
	LengthMM    int             `gorm:"type:int;not null;default:0"`
	WidthMM     int             `gorm:"type:int;not null;default:0"`
	HeightMM    int             `gorm:"type:int;not null;default:0"`
	CapacityG   int             `gorm:"type:int;not null"`
	Cost        decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`
	UpdatedAt   time.Time
}

func (ContainerDTO) TableName() string {
	return "carrier_containers"
}

func carrierToDomain(dto CarrierDTO) (catalog.Carrier, error) {
	return catalog.NewCarrier(dto.Code, dto.Name, dto.VolumetricFactor, dto.Enabled)
}

func containerFromDomain(c *catalog.ContainerSpec) ContainerDTO {
	dims := c.Dimensions()
	return ContainerDTO{
		ID:          c.ID().Value(),
		CarrierCode: c.CarrierCode(),
		Code:        c.Code(),
		Name:        c.Name(),
		Kind:        c.Kind().String(),
		LengthMM:    dims.Length(),
		WidthMM:     dims.Width(),
		HeightMM:    dims.Height(),
		CapacityG:   c.CapacityG(),
		Cost:        c.Cost(),
	}
}

func containerToDomain(dto ContainerDTO) (*catalog.ContainerSpec, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}

	kind, err := catalog.ParseKind(dto.Kind)
	if err != nil {
		return nil, err
	}

	dims, err := kernel.NewDimensions(dto.LengthMM, dto.WidthMM, dto.HeightMM)
	if err != nil {
		return nil, err
	}

	return catalog.NewContainerSpec(id, dto.CarrierCode, dto.Code, dto.Name, kind, dims, dto.CapacityG, dto.Cost)
}
