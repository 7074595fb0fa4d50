package models

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrdersRepository struct {
	db *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		db: db,
	}
}

// NewOrderItem is a line item as requested by a client.
type NewOrderItem struct {
	ProductID uint
	Qty       int
}

// OrderSummary is one row of a cafe's order listing.
type OrderSummary struct {
	ID        uint
	Status    OrderStatus
	CreatedAt time.Time
	Total     decimal.Decimal
}

// Create validates the requested products and stores the order (pending)
// together with all its items, snapshotting each product's current price.
// The order and its items become visible together or not at all.
func (r *OrdersRepository) Create(ctx context.Context, cafeID uint, items []NewOrderItem, comment string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	var products []Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	if missing := missingProductIDs(items, byID); len(missing) > 0 {
		return nil, &UnknownProductsError{IDs: missing}
	}

	order := &Order{
		CafeID:  cafeID,
		Status:  StatusPending,
		Comment: comment,
		Items:   buildOrderItems(items, byID),
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}

	// attach products for the response; they were not part of the insert
	for i := range order.Items {
		order.Items[i].Product = byID[order.Items[i].ProductID]
	}
	return order, nil
}

// GetByID loads an order only if it belongs to the given cafe. An order owned
// by another tenant is indistinguishable from a missing one.
func (r *OrdersRepository) GetByID(ctx context.Context, orderID, cafeID uint) (*Order, error) {
	var order Order
	if err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Where("id = ? AND cafe_id = ?", orderID, cafeID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetForInvoice loads an order with everything the invoice needs, without
// tenant scoping: invoice callers have already been authorized.
func (r *OrdersRepository) GetForInvoice(ctx context.Context, orderID uint) (*Order, error) {
	var order Order
	if err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Cafe").
		First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ListByCafe returns order summaries for one cafe, newest id first, with the
// total computed from the stored price snapshots.
func (r *OrdersRepository) ListByCafe(ctx context.Context, cafeID uint, page, pageSize int) ([]OrderSummary, error) {
	var rows []OrderSummary
	if err := r.db.WithContext(ctx).
		Model(&Order{}).
		Select("orders.id, orders.status, orders.created_at, COALESCE(SUM(order_items.price * order_items.qty), 0) AS total").
		Joins("LEFT JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.cafe_id = ?", cafeID).
		Group("orders.id, orders.status, orders.created_at").
		Order("orders.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Confirm runs the guarded pending→confirmed transition. The whole check and
// decrement happen in a single transaction: the order row is locked first, so
// a concurrent confirmation of the same order blocks here and then fails the
// pending check, then the touched inventory rows are locked in product-id
// order, so two confirmations contending for the same products cannot both
// pass the stock check and cannot deadlock. A shortfall rolls everything back.
func (r *OrdersRepository) Confirm(ctx context.Context, orderID, cafeID uint) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND cafe_id = ?", orderID, cafeID).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := order.TransitionTo(StatusConfirmed); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Find(&order.Items).Error; err != nil {
			return err
		}

		ids := sortedProductIDs(order.Items)
		var invs []Inventory
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id IN ?", ids).
			Order("product_id").
			Find(&invs).Error; err != nil {
			return err
		}
		locked := make(map[uint]*Inventory, len(invs))
		for i := range invs {
			locked[invs[i].ProductID] = &invs[i]
		}
		if err := reserveStock(locked, order.Items); err != nil {
			return err
		}

		for i := range invs {
			if err := tx.Model(&Inventory{}).
				Where("id = ?", invs[i].ID).
				Update("qty", invs[i].Qty).Error; err != nil {
				return err
			}
		}
		return tx.Model(&order).Update("status", StatusConfirmed).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// missingProductIDs returns the distinct requested ids absent from the loaded
// products, ascending.
func missingProductIDs(items []NewOrderItem, products map[uint]Product) []uint {
	seen := make(map[uint]struct{}, len(items))
	var missing []uint
	for _, it := range items {
		if _, ok := products[it.ProductID]; ok {
			continue
		}
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		missing = append(missing, it.ProductID)
	}
	slices.Sort(missing)
	return missing
}

// buildOrderItems snapshots the current product price into each line item.
func buildOrderItems(items []NewOrderItem, products map[uint]Product) []OrderItem {
	out := make([]OrderItem, len(items))
	for i, it := range items {
		out[i] = OrderItem{
			ProductID: it.ProductID,
			Qty:       it.Qty,
			Price:     products[it.ProductID].Price,
		}
	}
	return out
}
