package accessories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository handles accessories, their colors and product links.
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

func (r *Repository) List(ctx context.Context, includeInactive bool, query string) ([]models.Accessory, error) {
	q := r.db.WithContext(ctx).Preload("Colors", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") })
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if term := strings.TrimSpace(query); term != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	var out []models.Accessory
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Accessory, error) {
	var acc models.Accessory
	if err := r.db.WithContext(ctx).
		Preload("Colors", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		First(&acc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Accessory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.Accessory
	if err := r.db.WithContext(ctx).Preload("Colors").Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, acc *models.Accessory) error {
	return r.db.WithContext(ctx).Omit("Colors").Create(acc).Error
}

func (r *Repository) Save(ctx context.Context, acc *models.Accessory) error {
	return r.db.WithContext(ctx).Omit("Colors").Save(acc).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Accessory{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *Repository) CreateColor(ctx context.Context, color *models.AccessoryColor) error {
	return r.db.WithContext(ctx).Create(color).Error
}

func (r *Repository) DeleteColor(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.AccessoryColor{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *Repository) ListLinks(ctx context.Context, productID uuid.UUID) ([]models.ProductAccessoryLink, error) {
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

// ReplaceLinks swaps the full link set of a product; callers run it inside a transaction.
func (r *Repository) ReplaceLinks(ctx context.Context, productID uuid.UUID, links []models.ProductAccessoryLink) error {
	if err := r.db.WithContext(ctx).
		Where("product_template_id = ?", productID).
		Delete(&models.ProductAccessoryLink{}).Error; err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Accessory").Create(&links).Error
}

func (r *Repository) DeleteLink(ctx context.Context, productID, accessoryID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("product_template_id = ? AND accessory_id = ?", productID, accessoryID).
		Delete(&models.ProductAccessoryLink{})
	return res.RowsAffected, res.Error
}

func (r *Repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ProductTemplate{}).Where("id = ?", productID).Count(&n).Error
	return n > 0, err
}
