package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RecentOrdersCount is how many orders the admin overview lists
	RecentOrdersCount = 5

	defaultSalesPeriod = 30 * 24 * time.Hour
)

var salesPeriods = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

var (
	ErrUnknownOrderStatus = domain.Validation("unknown order status")
	ErrUnknownRole        = domain.Validation("role must be user or admin")
	ErrUnknownSalesPeriod = domain.Validation("period must be one of 7d, 30d, 90d, 1y")
	ErrSelfModification   = domain.NewError(domain.KindForbidden, "administrators cannot change or delete their own account")
)

// PageInfo describes where a page sits in an admin listing
type PageInfo struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	Total       int  `json:"total"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// OrderPage is one page of orders for administration
type OrderPage struct {
	Orders     []*domain.Order `json:"orders"`
	Pagination PageInfo        `json:"pagination"`
}

// UserPage is one page of accounts for administration
type UserPage struct {
	Users      []*domain.User `json:"users"`
	Pagination PageInfo       `json:"pagination"`
}

// AdminService defines the interface for order and account administration
type AdminService interface {
	ListOrders(ctx context.Context, status string, page, limit int) (*OrderPage, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error)
	OrderStats(ctx context.Context) (*domain.OrderStats, error)
	SalesAnalytics(ctx context.Context, period string) ([]domain.DailySales, error)

	ListUsers(ctx context.Context, page, limit int) (*UserPage, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateUserRole(ctx context.Context, actorID, id uuid.UUID, role string) (*domain.User, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error
	UserStats(ctx context.Context) (*domain.UserStats, error)
}

type adminService struct {
	orderRepo        repository.OrderRepository
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	logger           *zap.Logger
}

// NewAdminService creates a new instance of AdminService
func NewAdminService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	logger *zap.Logger,
) AdminService {
	return &adminService{
		orderRepo:        orderRepo,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		logger:           logger,
	}
}

// ListOrders lists all orders newest first, optionally only those in one status
func (s *adminService) ListOrders(ctx context.Context, status string, page, limit int) (*OrderPage, error) {
	page, limit = normalizePage(page, limit)

	filter := repository.OrderFilter{Page: page, PageSize: limit}
	if status != "" {
		st := domain.OrderStatus(status)
		if !st.Valid() {
			return nil, ErrUnknownOrderStatus
		}
		filter.Status = &st
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &OrderPage{Orders: orders, Pagination: pageInfo(page, limit, total)}, nil
}

// GetOrder returns any order
func (s *adminService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// UpdateOrderStatus moves an order along its lifecycle
func (s *adminService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error) {
	next := domain.OrderStatus(status)
	if !next.Valid() {
		return nil, ErrUnknownOrderStatus
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, domain.ErrInvalidStatusTransition.WithCause(
			fmt.Errorf("cannot change order status from %s to %s", order.Status, next))
	}

	now := time.Now().UTC()
	if err := s.orderRepo.UpdateStatus(ctx, id, next, now); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", id.String()),
		zap.String("from", string(order.Status)),
		zap.String("to", string(next)),
	)

	order.Status = next
	order.UpdatedAt = now
	return order, nil
}

// OrderStats summarizes orders for the dashboard
func (s *adminService) OrderStats(ctx context.Context) (*domain.OrderStats, error) {
	stats, err := s.orderRepo.Stats(ctx, RecentOrdersCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get order stats: %w", err)
	}
	return stats, nil
}

// SalesAnalytics returns daily sales over the period (7d, 30d, 90d or 1y; default 30d)
func (s *adminService) SalesAnalytics(ctx context.Context, period string) ([]domain.DailySales, error) {
	window := defaultSalesPeriod
	if period != "" {
		w, ok := salesPeriods[period]
		if !ok {
			return nil, ErrUnknownSalesPeriod
		}
		window = w
	}

	sales, err := s.orderRepo.SalesSince(ctx, time.Now().UTC().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to get sales analytics: %w", err)
	}
	return sales, nil
}

// ListUsers lists accounts newest first
func (s *adminService) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	page, limit = normalizePage(page, limit)

	users, total, err := s.userRepo.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &UserPage{Users: users, Pagination: pageInfo(page, limit, total)}, nil
}

// GetUser returns one account
func (s *adminService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUserRole grants or revokes admin rights. The user's refresh tokens are
// revoked so the new role applies from their next login.
func (s *adminService) UpdateUserRole(ctx context.Context, actorID, id uuid.UUID, role string) (*domain.User, error) {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, ErrUnknownRole
	}
	if actorID == id {
		return nil, ErrSelfModification
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateRole(ctx, id, role, now); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}

	sessions, err := s.refreshTokenRepo.RevokeAllForUser(ctx, id)
	if err != nil {
		s.logger.Warn("Failed to revoke sessions after role change",
			zap.String("user_id", id.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("User role updated",
		zap.String("user_id", id.String()),
		zap.String("role", role),
		zap.String("by", actorID.String()),
		zap.Int64("sessions_revoked", sessions),
	)

	user.Role = role
	user.UpdatedAt = now
	return user, nil
}

// DeleteUser removes an account with its cart, tokens and orders
func (s *adminService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return ErrSelfModification
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User deleted", zap.String("user_id", id.String()), zap.String("by", actorID.String()))
	return nil
}

// UserStats counts accounts for the dashboard
func (s *adminService) UserStats(ctx context.Context) (*domain.UserStats, error) {
	stats, err := s.userRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func pageInfo(page, limit, total int) PageInfo {
	totalPages := (total + limit - 1) / limit
	return PageInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}
