package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMissingProductIDs(t *testing.T) {
	products := map[uint]Product{
		1: {ID: 1},
		3: {ID: 3},
	}

	testCases := []struct {
		name     string
		items    []NewOrderItem
		expected []uint
	}{
		{
			name:     "all known",
			items:    []NewOrderItem{{ProductID: 1, Qty: 1}, {ProductID: 3, Qty: 2}},
			expected: nil,
		},
		{
			name:     "every missing id listed once, sorted",
			items:    []NewOrderItem{{ProductID: 9, Qty: 1}, {ProductID: 2, Qty: 1}, {ProductID: 9, Qty: 1}, {ProductID: 1, Qty: 1}},
			expected: []uint{2, 9},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, missingProductIDs(tc.items, products))
		})
	}
}

func TestBuildOrderItems(t *testing.T) {
	products := map[uint]Product{
		1: {ID: 1, Name: "Baguette", Price: decimal.NewFromFloat(2.80)},
		2: {ID: 2, Name: "Cinnamon roll", Price: decimal.NewFromFloat(4.50)},
	}

	items := buildOrderItems([]NewOrderItem{
		{ProductID: 1, Qty: 2},
		{ProductID: 2, Qty: 1},
	}, products)

	assert.Len(t, items, 2)
	assert.Equal(t, uint(1), items[0].ProductID)
	assert.Equal(t, 2, items[0].Qty)
	assert.True(t, items[0].Price.Equal(decimal.NewFromFloat(2.80)))
	assert.True(t, items[1].Price.Equal(decimal.NewFromFloat(4.50)))

	// snapshot is a copy: a later catalog price change must not reach it
	p := products[1]
	p.Price = decimal.NewFromFloat(99.99)
	products[1] = p
	assert.True(t, items[0].Price.Equal(decimal.NewFromFloat(2.80)),
		"item price must be immune to later product price changes")
}
