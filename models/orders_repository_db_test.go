package models

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// These tests exercise the confirmation transaction against a real database.
// They are skipped unless TEST_DATABASE_DSN points at a disposable Postgres.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Cafe{}, &CafeUser{}, &Product{}, &Inventory{}, &Order{}, &OrderItem{}))
	require.NoError(t, db.Exec(
		"TRUNCATE order_items, orders, inventory, products, cafe_users, cafes RESTART IDENTITY CASCADE",
	).Error)
	return db
}

type confirmFixture struct {
	cafeID    uint
	productID uint
}

func seedConfirmFixture(t *testing.T, db *gorm.DB, stock int) confirmFixture {
	t.Helper()
	cafe := Cafe{Name: "Cafe Central", APIKey: "test-key"}
	require.NoError(t, db.Create(&cafe).Error)
	product := Product{Name: "Classic croissant", Price: decimal.NewFromFloat(3.20), Unit: "pcs", SKU: "CR-CLASSIC"}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, db.Create(&Inventory{ProductID: product.ID, Qty: stock}).Error)
	return confirmFixture{cafeID: cafe.ID, productID: product.ID}
}

func pendingOrder(t *testing.T, repo *OrdersRepository, fx confirmFixture, qty int) uint {
	t.Helper()
	order, err := repo.Create(context.Background(), fx.cafeID, []NewOrderItem{{ProductID: fx.productID, Qty: qty}}, "")
	require.NoError(t, err)
	return order.ID
}

func stockOf(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var inv Inventory
	require.NoError(t, db.Where("product_id = ?", productID).First(&inv).Error)
	return inv.Qty
}

func TestConfirmTwiceDecrementsOnce(t *testing.T) {
	db := testDB(t)
	repo := NewOrdersRepository(db)
	fx := seedConfirmFixture(t, db, 10)
	orderID := pendingOrder(t, repo, fx, 2)

	order, err := repo.Confirm(context.Background(), orderID, fx.cafeID)
	assert.NoError(t, err)
	assert.Equal(t, StatusConfirmed, order.Status)
	assert.Equal(t, 8, stockOf(t, db, fx.productID))

	_, err = repo.Confirm(context.Background(), orderID, fx.cafeID)
	assert.ErrorIs(t, err, ErrInvalidOrderState)
	assert.Equal(t, 8, stockOf(t, db, fx.productID), "a repeated confirmation must not touch inventory")
}

func TestConfirmConcurrentSameOrder(t *testing.T) {
	db := testDB(t)
	repo := NewOrdersRepository(db)
	fx := seedConfirmFixture(t, db, 10)
	orderID := pendingOrder(t, repo, fx, 2)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Confirm(context.Background(), orderID, fx.cafeID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrInvalidOrderState)
		}
	}
	assert.Equal(t, 1, successes, "exactly one confirmation may win")
	assert.Equal(t, 8, stockOf(t, db, fx.productID))
}

func TestConfirmConcurrentOrdersDrainStock(t *testing.T) {
	db := testDB(t)
	repo := NewOrdersRepository(db)
	fx := seedConfirmFixture(t, db, 5)

	// four orders of two items against a stock of five: exactly two can win
	const orders = 4
	ids := make([]uint, orders)
	for i := range ids {
		ids[i] = pendingOrder(t, repo, fx, 2)
	}

	errs := make([]error, orders)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, errs[i] = repo.Confirm(context.Background(), id, fx.cafeID)
		}(i, id)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var stockErr *InsufficientStockError
		assert.ErrorAs(t, err, &stockErr)
		assert.Equal(t, fx.productID, stockErr.ProductID)
	}
	assert.Equal(t, 2, successes, fmt.Sprintf("stock of 5 admits exactly 2 orders of qty 2, got %d", successes))
	assert.Equal(t, 1, stockOf(t, db, fx.productID))
}
