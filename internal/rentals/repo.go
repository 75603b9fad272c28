package rentals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles rentals and the rows they touch while booking.
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

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
func (r *Repository) forUpdate(tx *gorm.DB) *gorm.DB {
	if db.IsPostgres(r.db) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *Repository) List(ctx context.Context, in ListInput) ([]models.Rental, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Rental{})
	f := in.Filters
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.InventoryItemID != nil {
		q = q.Where("inventory_item_id = ?", *f.InventoryItemID)
	}
	if f.ProductTemplateID != nil {
		q = q.Where("product_template_id = ?", *f.ProductTemplateID)
	}
	if f.From != nil {
		q = q.Where("end_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("start_date <= ?", *f.To)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rentals []models.Rental
	if err := q.Preload("Accessories").
		Order("start_date DESC, created_at DESC").
		Limit(in.Pagination.Limit).
		Offset(in.Pagination.Offset).
		Find(&rentals).Error; err != nil {
		return nil, 0, err
	}
	return rentals, total, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	var rental models.Rental
	if err := r.db.WithContext(ctx).Preload("Accessories").First(&rental, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rental, nil
}

// LockByID reads the rental row with a row lock; callers hold a transaction.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	var rental models.Rental
	if err := r.forUpdate(r.db.WithContext(ctx)).First(&rental, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rental, nil
}

// LockItem reads an inventory unit with a row lock; callers hold a transaction.
func (r *Repository) LockItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.forUpdate(r.db.WithContext(ctx)).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) SetItemStatus(ctx context.Context, id uuid.UUID, status enums.InventoryStatus, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": now}).Error
}

func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.ProductTemplate, error) {
	var product models.ProductTemplate
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindColor(ctx context.Context, id uuid.UUID) (*models.ProductColor, error) {
	var color models.ProductColor
	if err := r.db.WithContext(ctx).First(&color, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &color, nil
}

// Links returns the product's accessory links with accessories and their colors.
func (r *Repository) Links(ctx context.Context, productID uuid.UUID) ([]models.ProductAccessoryLink, error) {
	var links []models.ProductAccessoryLink
	err := r.db.WithContext(ctx).
		Preload("Accessory.Colors").
		Where("product_template_id = ?", productID).
		Order("sort_order ASC").
		Find(&links).Error
	return links, err
}

// Create inserts the rental and its accessory lines.
func (r *Repository) Create(ctx context.Context, rental *models.Rental) error {
	if err := r.db.WithContext(ctx).Omit("Accessories").Create(rental).Error; err != nil {
		return err
	}
	if len(rental.Accessories) == 0 {
		return nil
	}
	for i := range rental.Accessories {
		rental.Accessories[i].RentalID = rental.ID
	}
	return r.db.WithContext(ctx).Create(&rental.Accessories).Error
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Rental{}).Where("id = ?", id).Updates(fields).Error
}

// IDsByStatusBefore lists rentals in status whose column falls before day.
func (r *Repository) IDsByStatusBefore(ctx context.Context, status enums.RentalStatus, column string, day time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Rental{}).
		Where("status = ?", status).
		Where(clause.Lt{Column: clause.Column{Name: column}, Value: day}).
		Order("start_date ASC").
		Pluck("id", &ids).Error
	return ids, err
}
