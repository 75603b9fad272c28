package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository handles category, product template and color persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) ListCategories(ctx context.Context, includeInactive bool) ([]models.ProductCategory, error) {
	var cats []models.ProductCategory
	q := r.db.WithContext(ctx).Order("sort_order ASC, name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.ProductCategory, error) {
	var cat models.ProductCategory
	if err := r.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *Repository) CreateCategory(ctx context.Context, cat *models.ProductCategory) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

func (r *Repository) SaveCategory(ctx context.Context, cat *models.ProductCategory) error {
	return r.db.WithContext(ctx).Save(cat).Error
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.ProductCategory{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *Repository) CountProductsInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ProductTemplate{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

func (r *Repository) ListProducts(ctx context.Context, in ListProductsInput) ([]models.ProductTemplate, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.ProductTemplate{})
	f := in.Filters
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	switch {
	case !f.IncludeInactive:
		q = q.Where("is_active = ?", true)
	case f.IsActive != nil:
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.ProductTemplate
	if err := q.
		Preload("Colors", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Order("name ASC").
		Limit(in.Pagination.Limit).
		Offset(in.Pagination.Offset).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.ProductTemplate, error) {
	var product models.ProductTemplate
	if err := r.db.WithContext(ctx).
		Preload("Colors", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) ListProductAccessories(ctx context.Context, productID uuid.UUID) ([]models.ProductAccessoryLink, error) {
	var links []models.ProductAccessoryLink
	if err := r.db.WithContext(ctx).
		Preload("Accessory.Colors").
		Where("product_template_id = ?", productID).
		Order("sort_order ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.ProductTemplate) error {
	return r.db.WithContext(ctx).Omit("Colors").Create(product).Error
}

func (r *Repository) SaveProduct(ctx context.Context, product *models.ProductTemplate) error {
	return r.db.WithContext(ctx).Omit("Colors").Save(product).Error
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.ProductTemplate{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// ProductReferenced reports whether inventory or live rentals still point at the product.
func (r *Repository) ProductReferenced(ctx context.Context, productID uuid.UUID) (bool, error) {
	var items int64
	if err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("product_template_id = ?", productID).
		Count(&items).Error; err != nil {
		return false, err
	}
	if items > 0 {
		return true, nil
	}
	var rentals int64
	if err := r.db.WithContext(ctx).Model(&models.Rental{}).
		Where("product_template_id = ? AND status IN ?", productID, enums.RentalStatusStrings(enums.BlockingRentalStatuses)).
		Count(&rentals).Error; err != nil {
		return false, err
	}
	return rentals > 0, nil
}

func (r *Repository) FindColor(ctx context.Context, id uuid.UUID) (*models.ProductColor, error) {
	var color models.ProductColor
	if err := r.db.WithContext(ctx).First(&color, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &color, nil
}

func (r *Repository) CreateColor(ctx context.Context, color *models.ProductColor) error {
	return r.db.WithContext(ctx).Create(color).Error
}

func (r *Repository) SaveColor(ctx context.Context, color *models.ProductColor) error {
	return r.db.WithContext(ctx).Save(color).Error
}

func (r *Repository) DeleteColor(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.ProductColor{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
