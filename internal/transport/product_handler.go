package transport

import (
	"net/http"
	"strings"

	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/middleware"
	"alpha-clothing/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductResponse is returned by product writes
type ProductResponse struct {
	Message string          `json:"message"`
	Product *domain.Product `json:"product"`
}

// ProductHandler serves the public catalog and its administration
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers the public and admin product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/categories/list", h.ListCategories)
		r.Get("/sizes/list", h.ListSizes)
		r.Get("/{id}", h.GetProduct)
	})

	r.Route("/admin/products", func(r chi.Router) {
		r.Use(guards.Authenticate, guards.RequireAdmin)
		r.Get("/", h.ListAllProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/stats/overview", h.Stats)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})
}

// ListProducts handles filtered, paginated catalog listing
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query, err := parseProductQuery(r)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	page, err := h.catalog.ListProducts(r.Context(), query)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// GetProduct returns one product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// ListCategories returns the category enumeration
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.catalog.Categories())
}

// ListSizes returns the size enumeration
func (h *ProductHandler) ListSizes(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.catalog.Sizes())
}

// ListAllProducts returns the whole catalog for administration
func (h *ProductHandler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListAllProducts(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// CreateProduct adds a product to the catalog
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input service.ProductInput
	if !middleware.BindJSON(w, r, &input, h.logger) {
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, ProductResponse{
		Message: "Product created successfully",
		Product: product,
	})
}

// UpdateProduct replaces the writable fields of a product
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input service.ProductInput
	if !middleware.BindJSON(w, r, &input, h.logger) {
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, input)
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{
		Message: "Product updated successfully",
		Product: product,
	})
}

// DeleteProduct removes a product from the catalog
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "Product deleted successfully")
}

// Stats returns catalog totals
func (h *ProductHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

func parseProductQuery(r *http.Request) (service.ProductQuery, error) {
	q := r.URL.Query()
	query := service.ProductQuery{
		Search:    strings.TrimSpace(q.Get("search")),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	if raw := q.Get("category"); raw != "" {
		category := domain.Category(raw)
		if !category.Valid() {
			return query, domain.Validation("unknown category")
		}
		query.Category = &category
	}

	if raw := q.Get("size"); raw != "" {
		size := domain.Size(raw)
		if !size.Valid() {
			return query, domain.Validation("unknown size")
		}
		query.Size = &size
	}

	var err error
	if query.MinPrice, err = queryDecimal(r, "minPrice"); err != nil {
		return query, err
	}
	if query.MaxPrice, err = queryDecimal(r, "maxPrice"); err != nil {
		return query, err
	}
	if query.Page, err = queryInt(r, "page"); err != nil {
		return query, domain.Validation("page must be a number")
	}
	if query.Limit, err = queryInt(r, "limit"); err != nil {
		return query, domain.Validation("limit must be a number")
	}
	return query, nil
}

func queryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.Validation(key + " must be a number")
	}
	return &d, nil
}
