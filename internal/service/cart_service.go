package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultCartMaxRetries bounds how often a conflicting cart write is retried
const DefaultCartMaxRetries = 3

// CartProduct is the live catalog view of a cart line's product
type CartProduct struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
}

// CartLine is a cart item joined with its product. Product is nil when the
// product no longer exists.
type CartLine struct {
	ID       uuid.UUID    `json:"id"`
	Product  *CartProduct `json:"product"`
	Size     domain.Size  `json:"size"`
	Quantity int          `json:"quantity"`
}

// CartView is what a client sees of a cart
type CartView struct {
	Items []CartLine `json:"items"`
	Total string     `json:"total"`
}

// GuestLine is one line of a cart built before login
type GuestLine struct {
	ProductID uuid.UUID   `json:"productId" validate:"required"`
	Size      domain.Size `json:"size" validate:"required"`
	Quantity  int         `json:"quantity"`
}

// MergeResult counts how guest lines fared when replayed into a user cart
type MergeResult struct {
	Merged int `json:"merged"`
	Failed int `json:"failed"`
}

// CartService defines the interface for cart business logic
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, size domain.Size, quantity int) error
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	MergeGuestCart(ctx context.Context, userID uuid.UUID, lines []GuestLine) (*MergeResult, error)
	Session(userID uuid.UUID) CartSession
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	maxRetries  int
	logger      *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	maxRetries int,
	logger *zap.Logger,
) CartService {
	if maxRetries < 0 {
		maxRetries = DefaultCartMaxRetries
	}
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		maxRetries:  maxRetries,
		logger:      logger,
	}
}

// GetCart returns the user's cart with products resolved from the catalog
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return emptyCartView(), nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	products, err := s.productRepo.FindByIDs(ctx, cartProductIDs(cart))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart products: %w", err)
	}

	view := emptyCartView()
	total := decimal.Zero
	for _, item := range cart.Items {
		line := CartLine{ID: item.ID, Size: item.Size, Quantity: item.Quantity}

		if product, ok := products[item.ProductID]; ok {
			line.Product = &CartProduct{
				ID:       product.ID,
				Name:     product.Name,
				Price:    product.Price,
				ImageURL: product.ImageURL,
			}
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		} else {
			s.logger.Warn("Cart references a missing product",
				zap.String("user_id", userID.String()),
				zap.String("product_id", item.ProductID.String()),
			)
		}

		view.Items = append(view.Items, line)
	}
	view.Total = total.StringFixed(2)

	return view, nil
}

// AddItem validates the product and size, then merges the line into the cart
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, size domain.Size, quantity int) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to find product: %w", err)
	}

	if !product.HasSize(size) {
		return domain.ErrInvalidSize
	}

	return s.mutate(ctx, userID, true, func(cart *domain.Cart) error {
		cart.AddItem(productID, size, quantity)
		return nil
	})
}

// UpdateItemQuantity sets a line's quantity; zero or less removes the line
func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	return s.mutate(ctx, userID, false, func(cart *domain.Cart) error {
		return cart.SetQuantity(itemID, quantity)
	})
}

// RemoveItem deletes a line from the cart
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.mutate(ctx, userID, false, func(cart *domain.Cart) error {
		return cart.RemoveItem(itemID)
	})
}

// ClearCart deletes the user's cart; clearing a missing cart succeeds
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// MergeGuestCart replays guest lines into the user's cart in order. Lines whose
// product is gone or whose size is no longer offered are counted as failed and
// skipped; any other error stops the merge.
func (s *cartService) MergeGuestCart(ctx context.Context, userID uuid.UUID, lines []GuestLine) (*MergeResult, error) {
	result := &MergeResult{}

	for _, line := range lines {
		err := s.AddItem(ctx, userID, line.ProductID, line.Size, line.Quantity)
		switch domain.KindOf(err) {
		case domain.KindNotFound, domain.KindValidation:
			result.Failed++
			s.logger.Info("Skipped guest cart line",
				zap.String("user_id", userID.String()),
				zap.String("product_id", line.ProductID.String()),
				zap.String("size", string(line.Size)),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			return result, err
		}
		result.Merged++
	}

	s.logger.Info("Guest cart merged",
		zap.String("user_id", userID.String()),
		zap.Int("merged", result.Merged),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// Session binds the cart operations to an authenticated user
func (s *cartService) Session(userID uuid.UUID) CartSession {
	return &ServerCart{carts: s, userID: userID}
}

// mutate runs a load, modify, conditional-save cycle and repeats it when another
// writer saved the cart in between
func (s *cartService) mutate(ctx context.Context, userID uuid.UUID, create bool, apply func(*domain.Cart) error) error {
	for attempt := 0; ; attempt++ {
		cart, err := s.cartRepo.FindByUserID(ctx, userID)
		if err != nil {
			if !errors.Is(err, repository.ErrCartNotFound) {
				return fmt.Errorf("failed to load cart: %w", err)
			}
			if !create {
				return err
			}
			cart = domain.NewCart(userID)
		}

		if err := apply(cart); err != nil {
			return err
		}
		cart.UpdatedAt = time.Now().UTC()

		err = s.cartRepo.Save(ctx, cart)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrCartVersionConflict) {
			return fmt.Errorf("failed to save cart: %w", err)
		}
		if attempt >= s.maxRetries {
			s.logger.Warn("Cart write kept conflicting",
				zap.String("user_id", userID.String()),
				zap.Int("attempts", attempt+1),
			)
			return err
		}

		s.logger.Debug("Retrying cart write after conflict",
			zap.String("user_id", userID.String()),
			zap.Int("attempt", attempt+1),
		)
	}
}

func emptyCartView() *CartView {
	return &CartView{Items: []CartLine{}, Total: decimal.Zero.StringFixed(2)}
}

func cartProductIDs(cart *domain.Cart) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(cart.Items))
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
