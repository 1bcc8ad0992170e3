package transport

import (
	"net/http"

	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/middleware"
	"alpha-clothing/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateOrderRequest carries the shipping address of a checkout. The address is
// validated after the cart, so an empty cart is reported first.
type CreateOrderRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress" validate:"-"`
}

// CreateOrderResponse is returned after a successful checkout
type CreateOrderResponse struct {
	Message string                `json:"message"`
	Order   *service.OrderSummary `json:"order"`
}

// OrderHandler handles checkout and the caller's order history
type OrderHandler struct {
	checkout service.CheckoutService
	logger   *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkout service.CheckoutService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		checkout: checkout,
		logger:   logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(guards.Authenticate)
		r.With(guards.RateLimit).Post("/create", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
	})
}

// CreateOrder checks out the caller's cart
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if !middleware.BindJSON(w, r, &req, h.logger) {
		return
	}

	summary, err := h.checkout.CreateOrder(r.Context(), userID, req.ShippingAddress)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, CreateOrderResponse{
		Message: "Order created successfully",
		Order:   summary,
	})
}

// ListOrders returns the caller's orders newest first
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.checkout.ListOrders(r.Context(), userID)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns one of the caller's orders
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.checkout.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}
