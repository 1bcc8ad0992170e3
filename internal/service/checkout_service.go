package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// orderNumberAttempts bounds regeneration when an order number collides
const orderNumberAttempts = 3

// OrderNotifier is told about every placed order. Implementations must not block.
type OrderNotifier interface {
	NotifyOrderPlaced(ctx context.Context, order *domain.Order) error
}

// OrderSummary is returned to the client after checkout
type OrderSummary struct {
	ID          uuid.UUID          `json:"id"`
	OrderNumber string             `json:"orderNumber"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Status      domain.OrderStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// CheckoutService turns carts into orders and serves a user's order history
type CheckoutService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, address domain.ShippingAddress) (*OrderSummary, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
}

type checkoutService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	notifier    OrderNotifier
	orderNumber OrderNumberFunc
	validate    *validator.Validate
	logger      *zap.Logger
}

// CheckoutOption customizes a CheckoutService
type CheckoutOption func(*checkoutService)

// WithOrderNumbers replaces the order number generator
func WithOrderNumbers(fn OrderNumberFunc) CheckoutOption {
	return func(s *checkoutService) {
		s.orderNumber = fn
	}
}

// NewCheckoutService creates a new instance of CheckoutService. notifier may be nil.
func NewCheckoutService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	notifier OrderNotifier,
	logger *zap.Logger,
	opts ...CheckoutOption,
) CheckoutService {
	s := &checkoutService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		notifier:    notifier,
		orderNumber: NewOrderNumber,
		validate:    newJSONValidator(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder snapshots the user's cart into a pending order, deletes the cart
// and queues the confirmation e-mail
func (s *checkoutService) CreateOrder(ctx context.Context, userID uuid.UUID, address domain.ShippingAddress) (*OrderSummary, error) {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, domain.ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	address = trimAddress(address)
	if err := s.validateAddress(address); err != nil {
		return nil, err
	}

	items, total, err := s.snapshotItems(ctx, cart)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: address,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.persist(ctx, order); err != nil {
		return nil, err
	}

	// The order exists now; a leftover cart is tolerated
	if err := s.cartRepo.DeleteByUserID(ctx, userID); err != nil {
		s.logger.Error("Failed to delete cart after checkout",
			zap.String("user_id", userID.String()),
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyOrderPlaced(ctx, order); err != nil {
			s.logger.Warn("Order confirmation not queued",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)

	return &OrderSummary{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
	}, nil
}

// ListOrders returns the user's orders, newest first
func (s *checkoutService) ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns one of the user's orders; other users' orders are reported as missing
func (s *checkoutService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// snapshotItems copies the current name, price and image of every cart product
func (s *checkoutService) snapshotItems(ctx context.Context, cart *domain.Cart) ([]domain.OrderItem, decimal.Decimal, error) {
	products, err := s.productRepo.FindByIDs(ctx, cartProductIDs(cart))
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to resolve cart products: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	total := decimal.Zero
	for _, cartItem := range cart.Items {
		product, ok := products[cartItem.ProductID]
		if !ok {
			return nil, decimal.Zero, repository.ErrProductNotFound.WithCause(
				fmt.Errorf("cart item %s references product %s", cartItem.ID, cartItem.ProductID))
		}

		item := domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			ImageURL:  product.ImageURL,
			Size:      cartItem.Size,
			Quantity:  cartItem.Quantity,
		}
		items = append(items, item)
		total = total.Add(item.Subtotal())
	}

	return items, total, nil
}

// persist stores the order, drawing a new number if the current one is taken
func (s *checkoutService) persist(ctx context.Context, order *domain.Order) error {
	var err error
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		order.OrderNumber = s.orderNumber(order.CreatedAt)

		err = s.orderRepo.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			return fmt.Errorf("failed to create order: %w", err)
		}

		s.logger.Warn("Order number collision",
			zap.String("order_number", order.OrderNumber),
			zap.Int("attempt", attempt),
		)
	}
	return domain.Internal("could not allocate an order number", err)
}

func (s *checkoutService) validateAddress(address domain.ShippingAddress) error {
	err := s.validate.Struct(address)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return domain.Validation("invalid shipping address")
	}

	missing := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		missing = append(missing, fe.Field())
	}
	return domain.Validation("shipping address is missing: " + strings.Join(missing, ", "))
}

func trimAddress(a domain.ShippingAddress) domain.ShippingAddress {
	return domain.ShippingAddress{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Country: strings.TrimSpace(a.Country),
	}
}

// newJSONValidator reports fields by their JSON names
func newJSONValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}
