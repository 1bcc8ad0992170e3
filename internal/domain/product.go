package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals are written as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Category is one of the fixed catalog sections
type Category string

const (
	CategoryMen   Category = "Men"
	CategoryWomen Category = "Women"
	CategoryKids  Category = "Kids"
)

// Categories lists every catalog section in display order
var Categories = []Category{CategoryMen, CategoryWomen, CategoryKids}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Size is a garment size
type Size string

const (
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

// Sizes lists every size in display order
var Sizes = []Size{SizeS, SizeM, SizeL, SizeXL}

// Valid reports whether s is a known size
func (s Size) Valid() bool {
	return slices.Contains(Sizes, s)
}

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	ImageURL    string          `json:"imageUrl" db:"image_url"`
	Category    Category        `json:"category" db:"category"`
	Sizes       []Size          `json:"sizes" db:"sizes"`
	Stock       int             `json:"stock" db:"stock"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// HasSize reports whether the product is offered in size s
func (p *Product) HasSize(s Size) bool {
	return slices.Contains(p.Sizes, s)
}

// CategoryStats aggregates the catalog for one category
type CategoryStats struct {
	Category   Category `json:"category"`
	Count      int      `json:"count"`
	TotalStock int      `json:"totalStock"`
}

// CatalogStats is the admin overview of the catalog
type CatalogStats struct {
	TotalProducts int             `json:"totalProducts"`
	TotalStock    int             `json:"totalStock"`
	CategoryStats []CategoryStats `json:"categoryStats"`
}
