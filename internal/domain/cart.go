package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultQuantity is used when an add request carries no usable quantity
const DefaultQuantity = 1

// CartItem is one (product, size, quantity) line of a cart
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Size      Size      `json:"size"`
	Quantity  int       `json:"quantity"`
}

// Cart is a user's in-progress selection. Version is bumped on every
// successful save and guards against lost updates.
type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	Items     []CartItem `json:"items"`
	Version   int        `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewCart creates an empty, not yet persisted cart for a user
func NewCart(userID uuid.UUID) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeQuantity coerces a requested add quantity to a positive integer
func NormalizeQuantity(quantity int) int {
	if quantity <= 0 {
		return DefaultQuantity
	}
	return quantity
}

// AddItem merges the line into an existing (product, size) line or appends a
// new one. It returns the resulting line.
func (c *Cart) AddItem(productID uuid.UUID, size Size, quantity int) CartItem {
	quantity = NormalizeQuantity(quantity)

	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Size == size {
			c.Items[i].Quantity += quantity
			return c.Items[i]
		}
	}

	item := CartItem{
		ID:        uuid.New(),
		ProductID: productID,
		Size:      size,
		Quantity:  quantity,
	}
	c.Items = append(c.Items, item)
	return item
}

// SetQuantity sets the quantity of a line; a non-positive quantity removes it
func (c *Cart) SetQuantity(itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(itemID)
	}

	i := c.indexOf(itemID)
	if i < 0 {
		return ErrCartItemNotFound
	}
	c.Items[i].Quantity = quantity
	return nil
}

// RemoveItem deletes a line, keeping the order of the remaining lines
func (c *Cart) RemoveItem(itemID uuid.UUID) error {
	i := c.indexOf(itemID)
	if i < 0 {
		return ErrCartItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return nil
}

// Item returns the line with the given id
func (c *Cart) Item(itemID uuid.UUID) (CartItem, bool) {
	i := c.indexOf(itemID)
	if i < 0 {
		return CartItem{}, false
	}
	return c.Items[i], true
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount is the total number of units across all lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) indexOf(itemID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}
