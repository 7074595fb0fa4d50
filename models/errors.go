package models

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when an order does not exist or belongs
	// to another cafe; callers cannot tell the two apart.
	ErrOrderNotFound = errors.New("order not found")

	// ErrUserNotFound is returned when a cafe user cannot be resolved.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmptyOrder is returned when an order is created without items.
	ErrEmptyOrder = errors.New("items required")

	// ErrInvalidOrderState is returned when a lifecycle transition starts
	// from a non-pending order.
	ErrInvalidOrderState = errors.New("order not in pending state")

	// ErrDuplicateSKU is returned when a product with the same SKU exists.
	ErrDuplicateSKU = errors.New("sku already exists")
)

// UnknownProductsError lists every requested product id that does not exist.
type UnknownProductsError struct {
	IDs []uint
}

func (e *UnknownProductsError) Error() string {
	return fmt.Sprintf("products not found: %v", e.IDs)
}

// InsufficientStockError names the first product whose inventory cannot cover
// the requested quantity.
type InsufficientStockError struct {
	ProductID uint
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product_id=%d", e.ProductID)
}
