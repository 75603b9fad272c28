package pricing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository handles pricing modifier persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to modifier operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.PricingModifier, error) {
	var mods []models.PricingModifier
	q := r.db.WithContext(ctx).Order("code ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&mods).Error; err != nil {
		return nil, err
	}
	return mods, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PricingModifier, error) {
	var mod models.PricingModifier
	if err := r.db.WithContext(ctx).First(&mod, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &mod, nil
}

func (r *Repository) Create(ctx context.Context, mod *models.PricingModifier) error {
	return r.db.WithContext(ctx).Create(mod).Error
}

func (r *Repository) Update(ctx context.Context, mod *models.PricingModifier) error {
	return r.db.WithContext(ctx).Save(mod).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.PricingModifier{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// Automatic returns every active modifier flagged to apply without a code.
func (r *Repository) Automatic(ctx context.Context) ([]models.PricingModifier, error) {
	var mods []models.PricingModifier
	if err := r.db.WithContext(ctx).
		Where("is_automatic = ? AND is_active = ?", true, true).
		Order("code ASC").
		Find(&mods).Error; err != nil {
		return nil, err
	}
	return mods, nil
}

// FindByCodes loads modifiers matching the codes regardless of their active flag.
func (r *Repository) FindByCodes(ctx context.Context, codes []string) ([]models.PricingModifier, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	normalized := make([]string, 0, len(codes))
	for _, c := range codes {
		normalized = append(normalized, NormalizeCode(c))
	}
	var mods []models.PricingModifier
	if err := r.db.WithContext(ctx).Where("code IN ?", normalized).Find(&mods).Error; err != nil {
		return nil, err
	}
	return mods, nil
}

// NormalizeCode trims and upper-cases a modifier code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
