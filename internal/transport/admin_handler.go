package transport

import (
	"net/http"

	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/middleware"
	"alpha-clothing/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpdateOrderStatusRequest moves an order to a new status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateRoleRequest changes an account's role
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// OrderResponse is returned by order writes
type OrderResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

// UserResponse is returned by account writes
type UserResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// AdminHandler serves order and account administration
type AdminHandler struct {
	admin  service.AdminService
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  admin,
		logger: logger,
	}
}

// RegisterRoutes registers the admin order and user routes
func (h *AdminHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/admin/orders", func(r chi.Router) {
		r.Use(guards.Authenticate, guards.RequireAdmin)
		r.Get("/", h.ListOrders)
		r.Get("/stats/overview", h.OrderStats)
		r.Get("/analytics/sales", h.SalesAnalytics)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}/status", h.UpdateOrderStatus)
	})

	r.Route("/admin/users", func(r chi.Router) {
		r.Use(guards.Authenticate, guards.RequireAdmin)
		r.Get("/", h.ListUsers)
		r.Get("/stats/overview", h.UserStats)
		r.Get("/{id}", h.GetUser)
		r.Put("/{id}/role", h.UpdateUserRole)
		r.Delete("/{id}", h.DeleteUser)
	})
}

// ListOrders lists all orders, optionally filtered by ?status=
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	orders, err := h.admin.ListOrders(r.Context(), r.URL.Query().Get("status"), page, limit)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns any order
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.admin.GetOrder(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus applies a status transition
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !middleware.BindJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.admin.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, OrderResponse{
		Message: "Order status updated successfully",
		Order:   order,
	})
}

// OrderStats returns order totals and the most recent orders
func (h *AdminHandler) OrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.OrderStats(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// SalesAnalytics returns daily sales for ?period=7d|30d|90d|1y
func (h *AdminHandler) SalesAnalytics(w http.ResponseWriter, r *http.Request) {
	sales, err := h.admin.SalesAnalytics(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, sales)
}

// ListUsers lists accounts
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	users, err := h.admin.ListUsers(r.Context(), page, limit)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, users)
}

// GetUser returns one account
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.admin.GetUser(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// UpdateUserRole changes an account's role
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if !middleware.BindJSON(w, r, &req, h.logger) {
		return
	}

	user, err := h.admin.UpdateUserRole(r.Context(), actorID, id, req.Role)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, UserResponse{
		Message: "User role updated successfully",
		User:    user,
	})
}

// DeleteUser removes an account
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.admin.DeleteUser(r.Context(), actorID, id); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "User deleted successfully")
}

// UserStats returns account totals
func (h *AdminHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.UserStats(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}
