package repository

import (
	"context"
	"database/sql"
	"fmt"

	"alpha-clothing/internal/domain"
)

// CategoryRepository aggregates the catalog per category
type CategoryRepository interface {
	Stats(ctx context.Context) (*domain.CatalogStats, error)
	InUse(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Stats counts products and stock, overall and per category
func (r *categoryRepository) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	query := `
		SELECT category, COUNT(*), COALESCE(SUM(stock), 0)
		FROM products
		GROUP BY category
		ORDER BY category ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	defer rows.Close()

	stats := &domain.CatalogStats{CategoryStats: []domain.CategoryStats{}}
	for rows.Next() {
		var (
			category string
			cs       domain.CategoryStats
		)
		if err := rows.Scan(&category, &cs.Count, &cs.TotalStock); err != nil {
			return nil, fmt.Errorf("failed to scan category stats: %w", err)
		}
		cs.Category = domain.Category(category)

		stats.TotalProducts += cs.Count
		stats.TotalStock += cs.TotalStock
		stats.CategoryStats = append(stats.CategoryStats, cs)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category stats: %w", err)
	}

	return stats, nil
}

// InUse lists the categories that currently have at least one product
func (r *categoryRepository) InUse(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM products ORDER BY category ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, domain.Category(category))
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}
