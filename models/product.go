package models

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog entry shared by all cafes.
// It includes a price, a sales unit, and a unique SKU.
type Product struct {
	ID    uint            `gorm:"primaryKey"`
	Name  string          `gorm:"not null"`
	Price decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Unit  string          `gorm:"not null;default:pcs"`
	SKU   string          `gorm:"column:sku;uniqueIndex"`
}

func (p *Product) TableName() string {
	return "products"
}

// Inventory tracks quantity on hand, one row per product. Qty never goes
// negative; it is only decremented inside the order confirmation transaction.
type Inventory struct {
	ID        uint    `gorm:"primaryKey"`
	ProductID uint    `gorm:"uniqueIndex;not null"`
	Product   Product `gorm:"foreignKey:ProductID"`
	Qty       int     `gorm:"not null;default:0"`
}

func (i *Inventory) TableName() string {
	return "inventory"
}
