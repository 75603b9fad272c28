package catalog

import (
	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/pagination"
)

// CategoryInput creates a product category.
type CategoryInput struct {
	Name        string
	Slug        *string
	Description *string
	SortOrder   int
	IsActive    *bool
}

// CategoryPatch updates a product category.
type CategoryPatch struct {
	Name        *string
	Slug        *string
	Description *string
	SortOrder   *int
	IsActive    *bool
}

// ProductInput creates a product template.
type ProductInput struct {
	CategoryID           uuid.UUID
	Name                 string
	Slug                 *string
	Description          *string
	BasePriceCents       int64
	RentalPeriodDays     int
	DepositCents         int64
	ReplacementCostCents int64
	IsActive             *bool
}

// ProductPatch updates a product template.
type ProductPatch struct {
	CategoryID           *uuid.UUID
	Name                 *string
	Slug                 *string
	Description          *string
	BasePriceCents       *int64
	RentalPeriodDays     *int
	DepositCents         *int64
	ReplacementCostCents *int64
	IsActive             *bool
}

// ProductFilters narrows the product list.
type ProductFilters struct {
	CategoryID      *uuid.UUID
	IsActive        *bool
	Query           string
	IncludeInactive bool
}

// ListProductsInput pairs filters with pagination.
type ListProductsInput struct {
	Filters    ProductFilters
	Pagination pagination.Params
}

// ColorInput creates a product color.
type ColorInput struct {
	Name     string
	HexCode  *string
	IsActive *bool
}

// ColorPatch updates a product color.
type ColorPatch struct {
	Name     *string
	HexCode  *string
	IsActive *bool
}

// ProductDetail is a template with its colors and accessory links.
type ProductDetail struct {
	models.ProductTemplate
	Accessories []models.ProductAccessoryLink `json:"accessories"`
}
