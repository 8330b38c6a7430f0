// Package transferrepo reads stock transfers and their lines. The tables are
// written by the transfer workflow; this package only maps them.
package transferrepo

import (
	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/allocation"
	"freight/internal/core/domain/model/transfer"
)

// TransferDTO is a row of the transfers table.
type TransferDTO struct {
	ID           int64             `gorm:"primaryKey;autoIncrement:false"`
	OriginOutlet string            `gorm:"type:varchar(64);not null"`
	Origin       AddressDTO        `gorm:"embedded;embeddedPrefix:origin_"`
	Destination  AddressDTO        `gorm:"embedded;embeddedPrefix:dest_"`
	Lines        []TransferLineDTO `gorm:"foreignKey:TransferID;constraint:OnDelete:CASCADE"`
}

func (TransferDTO) TableName() string {
	return "transfers"
}

// TransferLineDTO is one product line of a transfer.
type TransferLineDTO struct {
	ID         int64  `gorm:"primaryKey"`
	TransferID int64  `gorm:"not null;index"`
	ProductID  string `gorm:"type:varchar(64);not null"`
	Quantity   int    `gorm:"type:int;not null"`
}

func (TransferLineDTO) TableName() string {
	return "transfer_lines"
}

// AddressDTO is embedded in the transfers table once per side.
type AddressDTO struct {
	Name         string `gorm:"type:varchar(100)"`
	Company      string `gorm:"type:varchar(100)"`
	Line1        string `gorm:"type:varchar(255)"`
	Line2        string `gorm:"type:varchar(255)"`
	Suburb       string `gorm:"type:varchar(100)"`
	City         string `gorm:"type:varchar(100)"`
	Postcode     string `gorm:"type:varchar(16)"`
	Country      string `gorm:"type:varchar(2)"`
	Email        string `gorm:"type:varchar(255)"`
	Phone        string `gorm:"type:varchar(50)"`
	Instructions string `gorm:"type:varchar(255)"`
}

func addressToDomain(dto AddressDTO) address.Address {
	return address.Address{
		Name:         dto.Name,
		Company:      dto.Company,
		Line1:        dto.Line1,
		Line2:        dto.Line2,
		Suburb:       dto.Suburb,
		City:         dto.City,
		Postcode:     dto.Postcode,
		Country:      dto.Country,
		Email:        dto.Email,
		Phone:        dto.Phone,
		Instructions: dto.Instructions,
	}
}

func toDomain(dto TransferDTO) (*transfer.Transfer, error) {
	lines := make([]allocation.LineRef, 0, len(dto.Lines))
	for _, l := range dto.Lines {
		lines = append(lines, allocation.LineRef{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	return transfer.NewTransfer(
		dto.ID,
		dto.OriginOutlet,
		addressToDomain(dto.Origin),
		addressToDomain(dto.Destination),
		lines,
	)
}
