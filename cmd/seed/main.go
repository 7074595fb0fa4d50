// Command seed loads a small demo dataset: two cafes with one user each and
// a handful of products with stock. It is idempotent per table: already
// populated tables are left alone.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/almaty-bakery/bakery-api/config"
	"github.com/almaty-bakery/bakery-api/models"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.Cafe{},
		&models.CafeUser{},
		&models.Product{},
		&models.Inventory{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}

	if err := seed(db); err != nil {
		log.Fatal("seed", zap.Error(err))
	}
	log.Info("seed ok")
}

func seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var cafes int64
		if err := tx.Model(&models.Cafe{}).Count(&cafes).Error; err != nil {
			return err
		}
		if cafes == 0 {
			demo := []models.Cafe{
				{Name: "Cafe Central", APIKey: apiKey()},
				{Name: "Bitter Beans", APIKey: apiKey()},
			}
			if err := tx.Create(&demo).Error; err != nil {
				return err
			}
			for i, cafe := range demo {
				hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
				if err != nil {
					return err
				}
				user := models.CafeUser{
					CafeID:       cafe.ID,
					Login:        fmt.Sprintf("cafe%d", i+1),
					PasswordHash: string(hash),
					IsAdmin:      i == 0,
				}
				if err := tx.Create(&user).Error; err != nil {
					return err
				}
			}
		}

		var products int64
		if err := tx.Model(&models.Product{}).Count(&products).Error; err != nil {
			return err
		}
		if products == 0 {
			demo := []models.Product{
				{Name: "Classic croissant", Price: decimal.NewFromFloat(3.20), Unit: "pcs", SKU: "CR-CLASSIC"},
				{Name: "Almond croissant", Price: decimal.NewFromFloat(4.10), Unit: "pcs", SKU: "CR-ALMOND"},
				{Name: "Cinnamon roll", Price: decimal.NewFromFloat(4.50), Unit: "pcs", SKU: "CIN-ROLL"},
				{Name: "Baguette", Price: decimal.NewFromFloat(2.80), Unit: "pcs", SKU: "BAGUETTE"},
			}
			if err := tx.Create(&demo).Error; err != nil {
				return err
			}
			for _, p := range demo {
				if err := tx.Create(&models.Inventory{ProductID: p.ID, Qty: 100}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func apiKey() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
