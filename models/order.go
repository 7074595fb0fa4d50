package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCanceled  OrderStatus = "canceled"
)

// Order belongs to exactly one cafe and exclusively owns its items.
type Order struct {
	ID        uint        `gorm:"primaryKey"`
	CafeID    uint        `gorm:"not null;index"`
	Cafe      Cafe        `gorm:"foreignKey:CafeID"`
	Status    OrderStatus `gorm:"type:varchar(16);not null;default:pending"`
	Comment   string
	CreatedAt time.Time
	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (o *Order) TableName() string {
	return "orders"
}

// TransitionTo enforces the order lifecycle: pending is the only state an
// order may leave, and it may only move to confirmed or canceled.
func (o *Order) TransitionTo(next OrderStatus) error {
	if o.Status != StatusPending {
		return ErrInvalidOrderState
	}
	if next != StatusConfirmed && next != StatusCanceled {
		return ErrInvalidOrderState
	}
	o.Status = next
	return nil
}

// Total is the sum of price times qty over the order's items.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return total
}

// OrderItem snapshots the product price at order creation time; later catalog
// price changes never touch it.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"not null;index"`
	ProductID uint            `gorm:"not null"`
	Product   Product         `gorm:"foreignKey:ProductID"`
	Qty       int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (i *OrderItem) TableName() string {
	return "order_items"
}

// sortedProductIDs returns the distinct product ids of the items in ascending
// order. Inventory rows are locked in this order so that concurrent
// confirmations cannot deadlock.
func sortedProductIDs(items []OrderItem) []uint {
	seen := make(map[uint]struct{}, len(items))
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	slices.Sort(ids)
	return ids
}

// reserveStock checks every item against the given inventory rows and, only
// if all of them can be satisfied, applies the decrements. A shortfall leaves
// every row untouched.
func reserveStock(rows map[uint]*Inventory, items []OrderItem) error {
	need := make(map[uint]int, len(items))
	for _, it := range items {
		need[it.ProductID] += it.Qty
	}
	ids := make([]uint, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		inv, ok := rows[id]
		if !ok || inv.Qty < need[id] {
			return &InsufficientStockError{ProductID: id}
		}
	}
	for _, id := range ids {
		rows[id].Qty -= need[id]
	}
	return nil
}
