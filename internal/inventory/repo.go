package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository handles inventory persistence.
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

func (r *Repository) List(ctx context.Context, in ListInput) ([]models.InventoryItem, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.InventoryItem{})
	f := in.Filters
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.ProductTemplateID != nil {
		q = q.Where("product_template_id = ?", *f.ProductTemplateID)
	}
	if f.AccessoryID != nil {
		q = q.Where("accessory_id = ?", *f.AccessoryID)
	}
	if f.ColorID != nil {
		q = q.Where("color_id = ?", *f.ColorID)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		q = q.Where("LOWER(serial_number) LIKE ?", "%"+strings.ToLower(term)+"%")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.InventoryItem
	if err := q.Order("serial_number ASC").
		Limit(in.Pagination.Limit).
		Offset(in.Pagination.Offset).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// StatusCount is one (product, status) bucket of the inventory summary.
type StatusCount struct {
	ProductTemplateID uuid.UUID
	ProductName       string
	Status            enums.InventoryStatus
	Count             int64
}

// Summary counts product units grouped by product and status.
func (r *Repository) Summary(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Table("inventory_items AS i").
		Select("i.product_template_id AS product_template_id, p.name AS product_name, i.status AS status, COUNT(*) AS count").
		Joins("JOIN product_templates p ON p.id = i.product_template_id").
		Group("i.product_template_id, p.name, i.status").
		Order("p.name ASC, i.status ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpcomingRentals lists live rentals on the item that end on or after day.
func (r *Repository) UpcomingRentals(ctx context.Context, itemID uuid.UUID, day time.Time) ([]models.Rental, error) {
	var rentals []models.Rental
	err := r.db.WithContext(ctx).
		Where("inventory_item_id = ? AND status IN ? AND end_date >= ?", itemID, enums.RentalStatusStrings(enums.BlockingRentalStatuses), day).
		Order("start_date ASC").
		Find(&rentals).Error
	return rentals, err
}

// CountRentals counts rentals on the item in the given statuses.
func (r *Repository) CountRentals(ctx context.Context, itemID uuid.UUID, statuses []enums.RentalStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Rental{}).
		Where("inventory_item_id = ? AND status IN ?", itemID, enums.RentalStatusStrings(statuses)).
		Count(&n).Error
	return n, err
}

// ExistingSerials returns which of the serial numbers are already taken.
func (r *Repository) ExistingSerials(ctx context.Context, serials []string) (map[string]bool, error) {
	out := map[string]bool{}
	if len(serials) == 0 {
		return out, nil
	}
	var taken []string
	if err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("serial_number IN ?", serials).
		Pluck("serial_number", &taken).Error; err != nil {
		return nil, err
	}
	for _, s := range taken {
		out[s] = true
	}
	return out, nil
}

func (r *Repository) ProductIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	return r.existingIDs(ctx, &models.ProductTemplate{}, ids)
}

func (r *Repository) AccessoryIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	return r.existingIDs(ctx, &models.Accessory{}, ids)
}

func (r *Repository) existingIDs(ctx context.Context, model any, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := map[uuid.UUID]bool{}
	if len(ids) == 0 {
		return out, nil
	}
	var found []uuid.UUID
	if err := r.db.WithContext(ctx).Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

// ColorOwners maps product color ids to their product template.
func (r *Repository) ColorOwners(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	out := map[uuid.UUID]uuid.UUID{}
	if len(ids) == 0 {
		return out, nil
	}
	var colors []models.ProductColor
	if err := r.db.WithContext(ctx).Select("id", "product_template_id").Where("id IN ?", ids).Find(&colors).Error; err != nil {
		return nil, err
	}
	for _, c := range colors {
		out[c.ID] = c.ProductTemplateID
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) CreateBatch(ctx context.Context, items []models.InventoryItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *Repository) Save(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.InventoryStatus) error {
	return r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.InventoryItem{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
