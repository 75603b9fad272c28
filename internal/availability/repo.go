// Package availability answers which inventory units are free for a date range.
//
// Ranges are inclusive calendar days: two bookings overlap when
// existing.start_date <= requested.end AND existing.end_date >= requested.start.
// Only rentals in a blocking status hold a unit.
package availability

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

// Query selects units of one product for an inclusive date range.
type Query struct {
	ProductTemplateID uuid.UUID
	ColorID           *uuid.UUID
	StartDate         time.Time
	EndDate           time.Time
	// ExcludeRentalID ignores one booking, e.g. the rental being rescheduled.
	ExcludeRentalID *uuid.UUID
	// ExcludeItemIDs skips units already rejected by the caller.
	ExcludeItemIDs []uuid.UUID
}

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

func (r *Repository) overlapping(ctx context.Context, start, end time.Time, exclude *uuid.UUID) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Rental{}).
		Select("inventory_item_id").
		Where("inventory_item_id IS NOT NULL").
		Where("status IN ?", enums.RentalStatusStrings(enums.BlockingRentalStatuses)).
		Where("start_date <= ? AND end_date >= ?", end, start)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	return q
}

func (r *Repository) freeUnits(ctx context.Context, q Query) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("product_template_id = ?", q.ProductTemplateID).
		Where("status = ?", enums.InventoryStatusAvailable).
		Where("id NOT IN (?)", r.overlapping(ctx, q.StartDate, q.EndDate, q.ExcludeRentalID))
	if q.ColorID != nil {
		tx = tx.Where("color_id = ?", *q.ColorID)
	}
	if len(q.ExcludeItemIDs) > 0 {
		tx = tx.Where("id NOT IN ?", q.ExcludeItemIDs)
	}
	return tx
}

// CountFree returns how many units of the product are free for the whole range.
func (r *Repository) CountFree(ctx context.Context, q Query) (int64, error) {
	var n int64
	err := r.freeUnits(ctx, q).Count(&n).Error
	return n, err
}

// PickFree returns the best-condition free unit, oldest first among equals, locking it on
// Postgres. It returns gorm.ErrRecordNotFound when nothing is free.
func (r *Repository) PickFree(ctx context.Context, q Query) (*models.InventoryItem, error) {
	tx := r.freeUnits(ctx, q).
		Order(enums.ConditionRankSQL + " DESC").
		Order("created_at ASC").
		Limit(1)
	if db.IsPostgres(r.db) {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item models.InventoryItem
	if err := tx.Take(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemBooked reports whether a blocking rental on the item overlaps the range.
func (r *Repository) ItemBooked(ctx context.Context, itemID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	var n int64
	err := r.overlapping(ctx, start, end, exclude).
		Where("inventory_item_id = ?", itemID).
		Count(&n).Error
	return n > 0, err
}

// UnitCounts returns total (non-retired) and currently available units per product.
func (r *Repository) UnitCounts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]UnitCount, error) {
	out := map[uuid.UUID]UnitCount{}
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ProductTemplateID uuid.UUID
		Total             int64
		Available         int64
	}
	err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Select("product_template_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS available", enums.InventoryStatusAvailable).
		Where("product_template_id IN ? AND status <> ?", productIDs, enums.InventoryStatusRetired).
		Group("product_template_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductTemplateID] = UnitCount{Total: row.Total, Available: row.Available}
	}
	return out, nil
}

// UnitCount is the stock of one product.
type UnitCount struct {
	Total     int64 `json:"total_units"`
	Available int64 `json:"available_units"`
}
