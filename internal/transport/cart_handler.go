package transport

import (
	"net/http"

	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/middleware"
	"alpha-clothing/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCartRequest adds a (product, size) line. A missing, unreadable or
// non-positive quantity adds one unit.
type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Size      string    `json:"size" validate:"required"`
	Quantity  Quantity  `json:"quantity"`
}

// UpdateCartRequest sets a line's quantity; zero or less removes the line
type UpdateCartRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// MergeCartRequest carries the lines of a cart built before login
type MergeCartRequest struct {
	Items []service.GuestLine `json:"items" validate:"dive"`
}

// MergeCartResponse reports how a guest cart was merged
type MergeCartResponse struct {
	Message string `json:"message"`
	service.MergeResult
}

// CartHandler handles the authenticated user's cart
type CartHandler struct {
	carts  service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

// RegisterRoutes registers all cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(guards.Authenticate)
		r.Get("/", h.GetCart)
		r.Post("/add", h.AddItem)
		r.Put("/update/{itemId}", h.UpdateItem)
		r.Delete("/remove/{itemId}", h.RemoveItem)
		r.Delete("/clear", h.ClearCart)
		r.Post("/merge", h.MergeGuestCart)
	})
}

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (service.CartSession, bool) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return nil, false
	}
	return h.carts.Session(userID), true
}

// GetCart returns the cart with live product data and its total
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.session(w, r)
	if !ok {
		return
	}

	view, err := cart.View(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// AddItem adds a product in a size to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !middleware.BindJSON(w, r, &req, h.logger) {
		return
	}

	if err := cart.Add(r.Context(), req.ProductID, domain.Size(req.Size), domain.NormalizeQuantity(int(req.Quantity))); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "Item added to cart successfully")
}

// UpdateItem sets the quantity of a cart line
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.session(w, r)
	if !ok {
		return
	}

	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}

	var req UpdateCartRequest
	if !middleware.BindJSON(w, r, &req, h.logger) {
		return
	}

	if err := cart.Update(r.Context(), itemID, *req.Quantity); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "Cart updated successfully")
}

// RemoveItem deletes a cart line
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.session(w, r)
	if !ok {
		return
	}

	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}

	if err := cart.Remove(r.Context(), itemID); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "Item removed from cart successfully")
}

// ClearCart deletes the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := cart.Clear(r.Context()); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "Cart cleared successfully")
}

// MergeGuestCart replays a guest cart into the user's cart
func (h *CartHandler) MergeGuestCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req MergeCartRequest
	if !middleware.BindJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.carts.MergeGuestCart(r.Context(), userID, req.Items)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, MergeCartResponse{
		Message:     "Cart merged successfully",
		MergeResult: *result,
	})
}
