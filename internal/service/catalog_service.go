package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ProductQuery is a public catalog listing request
type ProductQuery struct {
	Search    string
	Category  *domain.Category
	Size      *domain.Size
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Pagination describes where a page sits in a listing
type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalProducts int  `json:"totalProducts"`
	HasNext       bool `json:"hasNext"`
	HasPrev       bool `json:"hasPrev"`
}

// ProductPage is one page of catalog results
type ProductPage struct {
	Products   []*domain.Product `json:"products"`
	Pagination Pagination        `json:"pagination"`
}

// ProductInput carries the writable fields of a product
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl" validate:"required"`
	Category    domain.Category `json:"category" validate:"required,oneof=Men Women Kids"`
	Sizes       []domain.Size   `json:"sizes" validate:"dive,oneof=S M L XL"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// CatalogService defines the interface for catalog business logic
type CatalogService interface {
	ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Categories() []domain.Category
	Sizes() []domain.Size

	ListAllProducts(ctx context.Context) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*domain.CatalogStats, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	logger       *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// ListProducts returns one page of products matching the query
func (s *catalogService) ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	page, limit := normalizePage(query.Page, query.Limit)

	if query.MinPrice != nil && query.MaxPrice != nil && query.MinPrice.GreaterThan(*query.MaxPrice) {
		return nil, domain.Validation("minPrice must not exceed maxPrice")
	}

	sortOrder := repository.SortOrderDesc
	if strings.EqualFold(query.SortOrder, "asc") {
		sortOrder = repository.SortOrderAsc
	}

	products, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		Search:    query.Search,
		Category:  query.Category,
		Size:      query.Size,
		MinPrice:  query.MinPrice,
		MaxPrice:  query.MaxPrice,
		SortBy:    query.SortBy,
		SortOrder: sortOrder,
		Page:      page,
		PageSize:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	totalPages := (total + limit - 1) / limit
	return &ProductPage{
		Products: products,
		Pagination: Pagination{
			CurrentPage:   page,
			TotalPages:    totalPages,
			TotalProducts: total,
			HasNext:       page < totalPages,
			HasPrev:       page > 1,
		},
	}, nil
}

// GetProduct retrieves a single product
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// Categories returns the fixed category enumeration
func (s *catalogService) Categories() []domain.Category {
	return append([]domain.Category(nil), domain.Categories...)
}

// Sizes returns the fixed size enumeration
func (s *catalogService) Sizes() []domain.Size {
	return append([]domain.Size(nil), domain.Sizes...)
}

// ListAllProducts returns the whole catalog, newest first
func (s *catalogService) ListAllProducts(ctx context.Context) ([]*domain.Product, error) {
	products, _, err := s.productRepo.List(ctx, repository.ProductFilter{
		SortBy:    "createdAt",
		SortOrder: repository.SortOrderDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// CreateProduct adds a product to the catalog
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:        uuid.New(),
		CreatedAt: now,
	}
	applyProductInput(product, input, now)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("name", product.Name))
	return product, nil
}

// UpdateProduct replaces the writable fields of a product. Existing cart lines and
// orders are not touched.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	applyProductInput(product, input, time.Now().UTC())

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("Product updated", zap.String("product_id", product.ID.String()))
	return product, nil
}

// DeleteProduct removes a product from the catalog
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

// Stats aggregates the catalog per category
func (s *catalogService) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	stats, err := s.categoryRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog stats: %w", err)
	}
	return stats, nil
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return domain.Validation("name is required")
	}
	if input.Price.IsNegative() {
		return domain.Validation("price must not be negative")
	}
	if !input.Category.Valid() {
		return domain.Validation("category must be one of Men, Women, Kids")
	}
	for _, size := range input.Sizes {
		if !size.Valid() {
			return domain.Validation(fmt.Sprintf("unknown size %q", size))
		}
	}
	if input.Stock < 0 {
		return domain.Validation("stock must not be negative")
	}
	return nil
}

func applyProductInput(product *domain.Product, input ProductInput, now time.Time) {
	sizes := make([]domain.Size, 0, len(input.Sizes))
	for _, size := range input.Sizes {
		if !slices.Contains(sizes, size) {
			sizes = append(sizes, size)
		}
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price.Round(2)
	product.ImageURL = input.ImageURL
	product.Category = input.Category
	product.Sizes = sizes
	product.Stock = input.Stock
	product.UpdatedAt = now
}
