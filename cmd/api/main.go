package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/almaty-bakery/bakery-api/app/auth"
	"github.com/almaty-bakery/bakery-api/app/catalog"
	"github.com/almaty-bakery/bakery-api/app/httpx"
	ordersapp "github.com/almaty-bakery/bakery-api/app/orders"
	"github.com/almaty-bakery/bakery-api/config"
	"github.com/almaty-bakery/bakery-api/invoice"
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

	users := models.NewUsersRepository(db)
	products := models.NewProductsRepository(db)
	orderRepo := models.NewOrdersRepository(db)

	gen, err := invoice.NewGenerator(orderRepo, cfg.InvoiceDir)
	if err != nil {
		log.Fatal("invoice generator", zap.Error(err))
	}
	worker := invoice.NewWorker(gen, log, 64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(users, tokens, log)
	catalogHandler := catalog.NewHandler(products, log)
	orderHandler := ordersapp.NewHandler(orderRepo, gen, worker, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "Bakery API is alive"})
	})
	authHandler.Register(r)
	catalogHandler.Register(r, authHandler.Middleware)
	orderHandler.Register(r, authHandler.Middleware)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
	worker.Wait()
}
