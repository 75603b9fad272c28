package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PricingModifier is a percentage discount or fee. Automatic modifiers apply to every quote.
type PricingModifier struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string               `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name        string               `gorm:"column:name;not null" json:"name"`
	Kind        enums.ModifierKind   `gorm:"column:kind;type:text;not null" json:"kind"`
	Percentage  decimal.Decimal      `gorm:"column:percentage;type:numeric(5,2);not null" json:"percentage"`
	AppliesTo   enums.ModifierTarget `gorm:"column:applies_to;type:text;not null" json:"applies_to"`
	IsAutomatic bool                 `gorm:"column:is_automatic;not null" json:"is_automatic"`
	IsActive    bool                 `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (m *PricingModifier) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
