package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartSession is the cart a client works with for the length of a session.
// Authenticated clients get a ServerCart, guests a LocalCart.
type CartSession interface {
	Add(ctx context.Context, productID uuid.UUID, size domain.Size, quantity int) error
	Update(ctx context.Context, itemID uuid.UUID, quantity int) error
	Remove(ctx context.Context, itemID uuid.UUID) error
	Clear(ctx context.Context) error
	View(ctx context.Context) (*CartView, error)
}

// ServerCart is a CartSession persisted per user
type ServerCart struct {
	carts  CartService
	userID uuid.UUID
}

// NewServerCart binds a cart service to one user
func NewServerCart(carts CartService, userID uuid.UUID) *ServerCart {
	return &ServerCart{carts: carts, userID: userID}
}

func (c *ServerCart) Add(ctx context.Context, productID uuid.UUID, size domain.Size, quantity int) error {
	return c.carts.AddItem(ctx, c.userID, productID, size, quantity)
}

func (c *ServerCart) Update(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return c.carts.UpdateItemQuantity(ctx, c.userID, itemID, quantity)
}

func (c *ServerCart) Remove(ctx context.Context, itemID uuid.UUID) error {
	return c.carts.RemoveItem(ctx, c.userID, itemID)
}

func (c *ServerCart) Clear(ctx context.Context) error {
	return c.carts.ClearCart(ctx, c.userID)
}

func (c *ServerCart) View(ctx context.Context) (*CartView, error) {
	return c.carts.GetCart(ctx, c.userID)
}

// ProductLookup resolves a single catalog product
type ProductLookup interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

// LocalCart is an in-memory guest cart. The catalog is consulted when a line is
// first added; that line shows the captured name and price from then on.
type LocalCart struct {
	mu      sync.Mutex
	catalog ProductLookup
	cart    *domain.Cart
	lines   map[uuid.UUID]CartProduct // by CartItem.ID
}

// NewLocalCart creates an empty guest cart
func NewLocalCart(catalog ProductLookup) *LocalCart {
	return &LocalCart{
		catalog: catalog,
		cart:    domain.NewCart(uuid.Nil),
		lines:   make(map[uuid.UUID]CartProduct),
	}
}

func (c *LocalCart) Add(ctx context.Context, productID uuid.UUID, size domain.Size, quantity int) error {
	product, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to find product: %w", err)
	}
	if !product.HasSize(size) {
		return domain.ErrInvalidSize
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line := c.cart.AddItem(productID, size, quantity)
	if _, captured := c.lines[line.ID]; !captured {
		c.lines[line.ID] = CartProduct{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			ImageURL: product.ImageURL,
		}
	}
	return nil
}

func (c *LocalCart) Update(_ context.Context, itemID uuid.UUID, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.SetQuantity(itemID, quantity)
}

func (c *LocalCart) Remove(_ context.Context, itemID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.RemoveItem(itemID)
}

func (c *LocalCart) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cart.Items = []domain.CartItem{}
	c.lines = make(map[uuid.UUID]CartProduct)
	return nil
}

func (c *LocalCart) View(_ context.Context) (*CartView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := emptyCartView()
	total := decimal.Zero
	for _, item := range c.cart.Items {
		product := c.lines[item.ID]
		view.Items = append(view.Items, CartLine{
			ID:       item.ID,
			Product:  &product,
			Size:     item.Size,
			Quantity: item.Quantity,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	view.Total = total.StringFixed(2)
	return view, nil
}

// Lines returns the guest lines in the order they were first added
func (c *LocalCart) Lines() []GuestLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]GuestLine, 0, len(c.cart.Items))
	for _, item := range c.cart.Items {
		lines = append(lines, GuestLine{ProductID: item.ProductID, Size: item.Size, Quantity: item.Quantity})
	}
	return lines
}

// MergeInto replays the guest cart into a user's server cart. Processed lines
// leave the local cart, so after a successful merge it is empty and after an
// aborted one only the unprocessed lines remain.
func (c *LocalCart) MergeInto(ctx context.Context, carts CartService, userID uuid.UUID) (*MergeResult, error) {
	result, err := carts.MergeGuestCart(ctx, userID, c.Lines())
	if result != nil {
		c.dropFirst(result.Merged + result.Failed)
	}
	return result, err
}

func (c *LocalCart) dropFirst(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n > len(c.cart.Items) {
		n = len(c.cart.Items)
	}
	c.cart.Items = append([]domain.CartItem{}, c.cart.Items[n:]...)

	live := make(map[uuid.UUID]CartProduct, len(c.cart.Items))
	for _, item := range c.cart.Items {
		live[item.ID] = c.lines[item.ID]
	}
	c.lines = live
}
