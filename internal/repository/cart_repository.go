package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"alpha-clothing/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound        = domain.NewError(domain.KindNotFound, "cart not found")
	ErrCartVersionConflict = domain.NewError(domain.KindConflict, "cart was modified concurrently")
)

// CartRepository defines the interface for cart data access. A user has at most one cart.
type CartRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	// Save persists the cart if nobody else saved it since it was loaded.
	// On success cart.Version holds the new version.
	Save(ctx context.Context, cart *domain.Cart) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// FindByUserID retrieves the cart owned by a user
func (r *cartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	query := `
		SELECT id, user_id, items, version, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	var (
		cart  domain.Cart
		items []byte
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&items,
		&cart.Version,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	cart.Items = []domain.CartItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &cart.Items); err != nil {
			return nil, fmt.Errorf("failed to decode cart items: %w", err)
		}
	}

	return &cart, nil
}

// Save inserts a new cart (Version 0) or updates an existing one at its loaded version
func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart items: %w", err)
	}

	var result sql.Result
	if cart.Version == 0 {
		// A concurrent first insert for the same user loses here and retries as an update
		query := `
			INSERT INTO carts (id, user_id, items, version, created_at, updated_at)
			VALUES ($1, $2, $3, 1, $4, $5)
			ON CONFLICT (user_id) DO NOTHING
		`
		result, err = r.db.ExecContext(ctx, query,
			cart.ID,
			cart.UserID,
			string(encoded),
			cart.CreatedAt,
			cart.UpdatedAt,
		)
	} else {
		query := `
			UPDATE carts
			SET items = $3, version = version + 1, updated_at = $4
			WHERE user_id = $1 AND version = $2
		`
		result, err = r.db.ExecContext(ctx, query,
			cart.UserID,
			cart.Version,
			string(encoded),
			cart.UpdatedAt,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	if err := expectAffected(result, ErrCartVersionConflict); err != nil {
		return err
	}

	cart.Version++
	return nil
}

// DeleteByUserID removes a user's cart. Deleting a missing cart is not an error.
func (r *cartRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
