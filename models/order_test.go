package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransitionTo(t *testing.T) {
	testCases := []struct {
		name        string
		from        OrderStatus
		to          OrderStatus
		expectError bool
	}{
		{name: "pending to confirmed", from: StatusPending, to: StatusConfirmed},
		{name: "pending to canceled", from: StatusPending, to: StatusCanceled},
		{name: "confirmed is terminal", from: StatusConfirmed, to: StatusCanceled, expectError: true},
		{name: "canceled is terminal", from: StatusCanceled, to: StatusConfirmed, expectError: true},
		{name: "never re-enters pending", from: StatusPending, to: StatusPending, expectError: true},
		{name: "no double confirm", from: StatusConfirmed, to: StatusConfirmed, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			order := Order{Status: tc.from}
			err := order.TransitionTo(tc.to)
			if tc.expectError {
				assert.ErrorIs(t, err, ErrInvalidOrderState)
				assert.Equal(t, tc.from, order.Status, "failed transition must not change status")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.to, order.Status)
			}
		})
	}
}

func TestOrderTotal(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{Qty: 2, Price: decimal.NewFromFloat(3.20)},
			{Qty: 1, Price: decimal.NewFromFloat(4.50)},
		},
	}
	assert.True(t, order.Total().Equal(decimal.NewFromFloat(10.90)),
		"expected 10.90, got %s", order.Total())

	empty := Order{}
	assert.True(t, empty.Total().IsZero())
}

func TestSortedProductIDs(t *testing.T) {
	items := []OrderItem{
		{ProductID: 7},
		{ProductID: 2},
		{ProductID: 7},
		{ProductID: 5},
	}
	assert.Equal(t, []uint{2, 5, 7}, sortedProductIDs(items))
}

func TestReserveStock(t *testing.T) {
	newRows := func() map[uint]*Inventory {
		return map[uint]*Inventory{
			1: {ProductID: 1, Qty: 10},
			2: {ProductID: 2, Qty: 3},
		}
	}

	t.Run("decrements every row on success", func(t *testing.T) {
		rows := newRows()
		err := reserveStock(rows, []OrderItem{
			{ProductID: 1, Qty: 2},
			{ProductID: 2, Qty: 1},
		})
		assert.NoError(t, err)
		assert.Equal(t, 8, rows[1].Qty)
		assert.Equal(t, 2, rows[2].Qty)
	})

	t.Run("aggregates duplicate items per product", func(t *testing.T) {
		rows := newRows()
		err := reserveStock(rows, []OrderItem{
			{ProductID: 2, Qty: 2},
			{ProductID: 2, Qty: 2},
		})
		var short *InsufficientStockError
		assert.ErrorAs(t, err, &short)
		assert.Equal(t, uint(2), short.ProductID)
		assert.Equal(t, 3, rows[2].Qty, "failed reservation must leave qty untouched")
	})

	t.Run("shortfall leaves all rows untouched", func(t *testing.T) {
		rows := newRows()
		err := reserveStock(rows, []OrderItem{
			{ProductID: 1, Qty: 2},
			{ProductID: 2, Qty: 4},
		})
		var short *InsufficientStockError
		assert.ErrorAs(t, err, &short)
		assert.Equal(t, uint(2), short.ProductID)
		assert.Equal(t, 10, rows[1].Qty, "no partial decrement")
		assert.Equal(t, 3, rows[2].Qty)
	})

	t.Run("missing inventory row is insufficient", func(t *testing.T) {
		rows := newRows()
		err := reserveStock(rows, []OrderItem{{ProductID: 9, Qty: 1}})
		var short *InsufficientStockError
		assert.ErrorAs(t, err, &short)
		assert.Equal(t, uint(9), short.ProductID)
	})

	t.Run("exact stock drains to zero", func(t *testing.T) {
		rows := newRows()
		err := reserveStock(rows, []OrderItem{{ProductID: 2, Qty: 3}})
		assert.NoError(t, err)
		assert.Equal(t, 0, rows[2].Qty)
	})
}
