package models

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// CatalogProduct is a product row joined with its current stock level.
type CatalogProduct struct {
	ID    uint
	Name  string
	Price decimal.Decimal
	Unit  string
	Stock int
}

// ListWithStock returns the whole catalog with quantities on hand. Products
// without an inventory row report stock 0.
func (r *ProductsRepository) ListWithStock(ctx context.Context) ([]CatalogProduct, error) {
	var rows []CatalogProduct
	if err := r.db.WithContext(ctx).
		Model(&Product{}).
		Select("products.id, products.name, products.price, products.unit, COALESCE(inventory.qty, 0) AS stock").
		Joins("LEFT JOIN inventory ON inventory.product_id = products.id").
		Order("products.id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a product together with its inventory row in one
// transaction.
func (r *ProductsRepository) Create(ctx context.Context, product *Product, initialStock int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateSKU
			}
			return err
		}
		return tx.Create(&Inventory{ProductID: product.ID, Qty: initialStock}).Error
	})
}
