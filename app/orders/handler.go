package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/almaty-bakery/bakery-api/app/auth"
	"github.com/almaty-bakery/bakery-api/app/httpx"
	"github.com/almaty-bakery/bakery-api/models"
)

type OrderStore interface {
	Create(ctx context.Context, cafeID uint, items []models.NewOrderItem, comment string) (*models.Order, error)
	GetByID(ctx context.Context, orderID, cafeID uint) (*models.Order, error)
	Confirm(ctx context.Context, orderID, cafeID uint) (*models.Order, error)
	ListByCafe(ctx context.Context, cafeID uint, page, pageSize int) ([]models.OrderSummary, error)
}

// InvoiceStore resolves an order's invoice document, rendering it on demand.
type InvoiceStore interface {
	Fetch(ctx context.Context, orderID uint) (string, error)
}

// InvoiceQueue accepts best-effort render jobs after a confirmation commits.
type InvoiceQueue interface {
	Enqueue(orderID uint)
}

type Handler struct {
	orders   OrderStore
	invoices InvoiceStore
	queue    InvoiceQueue
	log      *zap.Logger
}

func NewHandler(orders OrderStore, invoices InvoiceStore, queue InvoiceQueue, log *zap.Logger) *Handler {
	return &Handler{
		orders:   orders,
		invoices: invoices,
		queue:    queue,
		log:      log,
	}
}

func (h *Handler) Register(r chi.Router, authMW func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMW)
		r.Post("/orders", h.HandleCreate)
		r.Get("/orders/my", h.HandleListMine)
		r.Get("/orders/{id}", h.HandleGet)
		r.Post("/orders/{id}/confirm", h.HandleConfirm)
		r.Get("/orders/{id}/invoice", h.HandleInvoice)
	})
}

type Item struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
}

type OrderResponse struct {
	ID     uint   `json:"id"`
	CafeID uint   `json:"cafe_id"`
	Status string `json:"status"`
	Items  []Item `json:"items"`
}

func toResponse(order *models.Order) OrderResponse {
	items := make([]Item, len(order.Items))
	for i, it := range order.Items {
		items[i] = Item{
			ProductID: it.ProductID,
			Name:      it.Product.Name,
			Qty:       it.Qty,
		}
	}
	return OrderResponse{
		ID:     order.ID,
		CafeID: order.CafeID,
		Status: string(order.Status),
		Items:  items,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var input struct {
		Items []struct {
			ProductID uint `json:"product_id"`
			Qty       int  `json:"qty"`
		} `json:"items"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	items := make([]models.NewOrderItem, len(input.Items))
	for i, it := range input.Items {
		if it.Qty <= 0 {
			httpx.Error(w, http.StatusBadRequest, "qty must be positive")
			return
		}
		items[i] = models.NewOrderItem{ProductID: it.ProductID, Qty: it.Qty}
	}

	order, err := h.orders.Create(r.Context(), identity.CafeID, items, input.Comment)
	if err != nil {
		var unknown *models.UnknownProductsError
		switch {
		case errors.Is(err, models.ErrEmptyOrder):
			httpx.Error(w, http.StatusBadRequest, "items required")
		case errors.As(err, &unknown):
			httpx.Error(w, http.StatusBadRequest, unknown.Error())
		default:
			h.log.Error("order creation failed", zap.Error(err))
			httpx.Error(w, http.StatusInternalServerError, "failed to create order")
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(order))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetByID(r.Context(), orderID, identity.CafeID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			httpx.Error(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error("order lookup failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(order))
}

func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.orders.Confirm(r.Context(), orderID, identity.CafeID)
	if err != nil {
		var short *models.InsufficientStockError
		switch {
		case errors.Is(err, models.ErrOrderNotFound):
			httpx.Error(w, http.StatusNotFound, "order not found")
		case errors.Is(err, models.ErrInvalidOrderState):
			httpx.Error(w, http.StatusBadRequest, "order not in pending state")
		case errors.As(err, &short):
			httpx.Error(w, http.StatusConflict, short.Error())
		default:
			h.log.Error("order confirmation failed", zap.Uint("order_id", orderID), zap.Error(err))
			httpx.Error(w, http.StatusInternalServerError, "failed to confirm order")
		}
		return
	}

	// best effort: a failed render is logged by the worker and the invoice
	// endpoint regenerates lazily
	h.queue.Enqueue(order.ID)

	httpx.JSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"status":      string(order.Status),
		"invoice_url": fmt.Sprintf("/orders/%d/invoice", order.ID),
	})
}

func (h *Handler) HandleInvoice(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	// scope check first so other tenants only ever see 404
	if _, err := h.orders.GetByID(r.Context(), orderID, identity.CafeID); err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			httpx.Error(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error("order lookup failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	path, err := h.invoices.Fetch(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			httpx.Error(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error("invoice fetch failed", zap.Uint("order_id", orderID), zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "failed to get invoice")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice_order_%d.pdf", orderID))
	http.ServeFile(w, r, path)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	page := 1
	pageSize := 20
	if pStr := r.URL.Query().Get("page"); pStr != "" {
		if p, err := strconv.Atoi(pStr); err == nil && p >= 1 {
			page = p
		}
	}
	if sStr := r.URL.Query().Get("page_size"); sStr != "" {
		if s, err := strconv.Atoi(sStr); err == nil {
			if s < 1 {
				pageSize = 1
			} else if s > 100 {
				pageSize = 100
			} else {
				pageSize = s
			}
		}
	}

	rows, err := h.orders.ListByCafe(r.Context(), identity.CafeID, page, pageSize)
	if err != nil {
		h.log.Error("order listing failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	type summary struct {
		ID        uint      `json:"id"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"created_at"`
		Total     float64   `json:"total"`
	}
	out := make([]summary, len(rows))
	for i, row := range rows {
		out[i] = summary{
			ID:        row.ID,
			Status:    string(row.Status),
			CreatedAt: row.CreatedAt,
			Total:     row.Total.Round(2).InexactFloat64(),
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return uint(id), true
}
