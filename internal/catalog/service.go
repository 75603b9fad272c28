package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/types"
)

const (
	entityCategory = "Category"
	entityProduct  = "Product"
	entityColor    = "Color"
)

// Service exposes the product catalog.
type Service interface {
	ListCategories(ctx context.Context, includeInactive bool) ([]models.ProductCategory, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*models.ProductCategory, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*models.ProductCategory, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListProducts(ctx context.Context, input ListProductsInput) (*types.ListEnvelope[models.ProductTemplate], error)
	GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDetail, error)
	CreateProduct(ctx context.Context, input ProductInput) (*models.ProductTemplate, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.ProductTemplate, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	AddColor(ctx context.Context, productID uuid.UUID, input ColorInput) (*models.ProductColor, error)
	UpdateColor(ctx context.Context, colorID uuid.UUID, patch ColorPatch) (*models.ProductColor, error)
	DeleteColor(ctx context.Context, colorID uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func requireName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", pkgerrors.Validation("name is required", nil)
	}
	return trimmed, nil
}

func requireSlug(slug string) error {
	if slug == "" {
		return pkgerrors.Validation("slug must contain letters or digits", nil)
	}
	return nil
}

func (s *service) ListCategories(ctx context.Context, includeInactive bool) ([]models.ProductCategory, error) {
	cats, err := s.repo.ListCategories(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return cats, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.ProductCategory, error) {
	name, err := requireName(input.Name)
	if err != nil {
		return nil, err
	}
	slug := types.SlugOrDerive(input.Slug, name)
	if err := requireSlug(slug); err != nil {
		return nil, err
	}
	cat := &models.ProductCategory{
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		SortOrder:   input.SortOrder,
		IsActive:    input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.CreateCategory(ctx, cat); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityCategory)
	}
	return cat, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*models.ProductCategory, error) {
	cat, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityCategory)
	}
	if patch.Name != nil {
		if cat.Name, err = requireName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Slug != nil {
		cat.Slug = types.Slugify(*patch.Slug)
		if err := requireSlug(cat.Slug); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		cat.Description = patch.Description
	}
	if patch.SortOrder != nil {
		cat.SortOrder = *patch.SortOrder
	}
	if patch.IsActive != nil {
		cat.IsActive = *patch.IsActive
	}
	if err := s.repo.SaveCategory(ctx, cat); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityCategory)
	}
	return cat, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.CountProductsInCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count category products")
	}
	if n > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "Category still has products").
			WithDetails(map[string]any{"products": n})
	}
	affected, err := s.repo.DeleteCategory(ctx, id)
	if err != nil {
		return db.Classify(err, db.OpDelete, entityCategory)
	}
	if affected == 0 {
		return pkgerrors.NotFound(entityCategory)
	}
	return nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*types.ListEnvelope[models.ProductTemplate], error) {
	input.Pagination = input.Pagination.Normalize()
	products, total, err := s.repo.ListProducts(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	if products == nil {
		products = []models.ProductTemplate{}
	}
	return &types.ListEnvelope[models.ProductTemplate]{
		Items:  products,
		Total:  total,
		Limit:  input.Pagination.Limit,
		Offset: input.Pagination.Offset,
	}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDetail, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityProduct)
	}
	if !product.IsActive && !includeInactive {
		return nil, pkgerrors.NotFound(entityProduct)
	}
	if !includeInactive {
		active := product.Colors[:0]
		for _, c := range product.Colors {
			if c.IsActive {
				active = append(active, c)
			}
		}
		product.Colors = active
	}

	links, err := s.repo.ListProductAccessories(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list product accessories")
	}
	if links == nil {
		links = []models.ProductAccessoryLink{}
	}
	return &ProductDetail{ProductTemplate: *product, Accessories: links}, nil
}

func validateMoney(field string, v int64) error {
	if v < 0 {
		return pkgerrors.Validation(field+" must not be negative", map[string]any{field: v})
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.ProductTemplate, error) {
	name, err := requireName(input.Name)
	if err != nil {
		return nil, err
	}
	slug := types.SlugOrDerive(input.Slug, name)
	if err := requireSlug(slug); err != nil {
		return nil, err
	}
	if input.CategoryID == uuid.Nil {
		return nil, pkgerrors.Validation("category_id is required", nil)
	}
	for field, v := range map[string]int64{
		"base_price_cents":       input.BasePriceCents,
		"deposit_cents":          input.DepositCents,
		"replacement_cost_cents": input.ReplacementCostCents,
	} {
		if err := validateMoney(field, v); err != nil {
			return nil, err
		}
	}
	period := input.RentalPeriodDays
	if period == 0 {
		period = 1
	}
	if period < 1 {
		return nil, pkgerrors.Validation("rental_period_days must be at least 1", nil)
	}

	product := &models.ProductTemplate{
		CategoryID:           input.CategoryID,
		Name:                 name,
		Slug:                 slug,
		Description:          input.Description,
		BasePriceCents:       input.BasePriceCents,
		RentalPeriodDays:     period,
		DepositCents:         input.DepositCents,
		ReplacementCostCents: input.ReplacementCostCents,
		IsActive:             input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityProduct)
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.ProductTemplate, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityProduct)
	}

	if patch.CategoryID != nil {
		product.CategoryID = *patch.CategoryID
	}
	if patch.Name != nil {
		if product.Name, err = requireName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Slug != nil {
		product.Slug = types.Slugify(*patch.Slug)
		if err := requireSlug(product.Slug); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		product.Description = patch.Description
	}
	if patch.BasePriceCents != nil {
		if err := validateMoney("base_price_cents", *patch.BasePriceCents); err != nil {
			return nil, err
		}
		product.BasePriceCents = *patch.BasePriceCents
	}
	if patch.DepositCents != nil {
		if err := validateMoney("deposit_cents", *patch.DepositCents); err != nil {
			return nil, err
		}
		product.DepositCents = *patch.DepositCents
	}
	if patch.ReplacementCostCents != nil {
		if err := validateMoney("replacement_cost_cents", *patch.ReplacementCostCents); err != nil {
			return nil, err
		}
		product.ReplacementCostCents = *patch.ReplacementCostCents
	}
	if patch.RentalPeriodDays != nil {
		if *patch.RentalPeriodDays < 1 {
			return nil, pkgerrors.Validation("rental_period_days must be at least 1", nil)
		}
		product.RentalPeriodDays = *patch.RentalPeriodDays
	}
	if patch.IsActive != nil {
		product.IsActive = *patch.IsActive
	}

	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityProduct)
	}
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	referenced, err := s.repo.ProductReferenced(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product references")
	}
	if referenced {
		return pkgerrors.New(pkgerrors.CodeConflict, "Product is referenced by inventory or rentals")
	}
	affected, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return db.Classify(err, db.OpDelete, entityProduct)
	}
	if affected == 0 {
		return pkgerrors.NotFound(entityProduct)
	}
	return nil
}

func (s *service) AddColor(ctx context.Context, productID uuid.UUID, input ColorInput) (*models.ProductColor, error) {
	name, err := requireName(input.Name)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityProduct)
	}
	color := &models.ProductColor{
		ProductTemplateID: productID,
		Name:              name,
		HexCode:           input.HexCode,
		IsActive:          input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.CreateColor(ctx, color); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityColor)
	}
	return color, nil
}

func (s *service) UpdateColor(ctx context.Context, colorID uuid.UUID, patch ColorPatch) (*models.ProductColor, error) {
	color, err := s.repo.FindColor(ctx, colorID)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityColor)
	}
	if patch.Name != nil {
		if color.Name, err = requireName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.HexCode != nil {
		color.HexCode = patch.HexCode
	}
	if patch.IsActive != nil {
		color.IsActive = *patch.IsActive
	}
	if err := s.repo.SaveColor(ctx, color); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityColor)
	}
	return color, nil
}

func (s *service) DeleteColor(ctx context.Context, colorID uuid.UUID) error {
	affected, err := s.repo.DeleteColor(ctx, colorID)
	if err != nil {
		return db.Classify(err, db.OpDelete, entityColor)
	}
	if affected == 0 {
		return pkgerrors.NotFound(entityColor)
	}
	return nil
}
