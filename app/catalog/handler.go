package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/almaty-bakery/bakery-api/app/auth"
	"github.com/almaty-bakery/bakery-api/app/httpx"
	"github.com/almaty-bakery/bakery-api/models"
)

type Product struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Unit  string  `json:"unit"`
	Stock int     `json:"stock"`
}

type ProductProvider interface {
	ListWithStock(ctx context.Context) ([]models.CatalogProduct, error)
	Create(ctx context.Context, product *models.Product, initialStock int) error
}

type Handler struct {
	repo ProductProvider
	log  *zap.Logger
}

func NewHandler(repo ProductProvider, log *zap.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log,
	}
}

// Register mounts the catalog routes. Listing is deliberately unauthenticated
// (the catalog is tenant-agnostic); creation is for bakery admins only.
func (h *Handler) Register(r chi.Router, authMW func(http.Handler) http.Handler) {
	r.Get("/products", h.HandleGet)
	r.With(authMW).Post("/products", h.HandleCreate)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.ListWithStock(r.Context())
	if err != nil {
		h.log.Error("catalog listing failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "failed to get products")
		return
	}

	products := make([]Product, len(rows))
	for i, p := range rows {
		products[i] = Product{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price.InexactFloat64(),
			Unit:  p.Unit,
			Stock: p.Stock,
		}
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok || !identity.IsAdmin {
		httpx.Error(w, http.StatusForbidden, "admin access required")
		return
	}

	var input struct {
		Name         string  `json:"name"`
		Price        float64 `json:"price"`
		Unit         string  `json:"unit"`
		SKU          string  `json:"sku"`
		InitialStock int     `json:"initial_stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if input.Name == "" || input.SKU == "" {
		httpx.Error(w, http.StatusBadRequest, "missing name or sku")
		return
	}
	if input.Price < 0 || input.InitialStock < 0 {
		httpx.Error(w, http.StatusBadRequest, "price and initial_stock must not be negative")
		return
	}
	if input.Unit == "" {
		input.Unit = "pcs"
	}

	product := &models.Product{
		Name:  input.Name,
		Price: decimal.NewFromFloat(input.Price).Round(2),
		Unit:  input.Unit,
		SKU:   input.SKU,
	}
	if err := h.repo.Create(r.Context(), product, input.InitialStock); err != nil {
		if errors.Is(err, models.ErrDuplicateSKU) {
			httpx.Error(w, http.StatusConflict, "sku already exists")
			return
		}
		h.log.Error("product creation failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	httpx.JSON(w, http.StatusCreated, Product{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price.InexactFloat64(),
		Unit:  product.Unit,
		Stock: input.InitialStock,
	})
}
