package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductCategory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	SortOrder   int       `gorm:"column:sort_order;not null" json:"sort_order"`
	IsActive    bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (c *ProductCategory) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ProductTemplate is a rentable product line; physical units live in inventory_items.
type ProductTemplate struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID           uuid.UUID `gorm:"column:category_id;type:uuid;not null" json:"category_id"`
	Name                 string    `gorm:"column:name;not null" json:"name"`
	Slug                 string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Description          *string   `gorm:"column:description" json:"description,omitempty"`
	BasePriceCents       int64     `gorm:"column:base_price_cents;not null" json:"base_price_cents"`
	RentalPeriodDays     int       `gorm:"column:rental_period_days;not null" json:"rental_period_days"`
	DepositCents         int64     `gorm:"column:deposit_cents;not null" json:"deposit_cents"`
	ReplacementCostCents int64     `gorm:"column:replacement_cost_cents;not null" json:"replacement_cost_cents"`
	IsActive             bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Colors []ProductColor `gorm:"foreignKey:ProductTemplateID" json:"colors,omitempty"`
}

func (p *ProductTemplate) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.RentalPeriodDays < 1 {
		p.RentalPeriodDays = 1
	}
	return nil
}

type ProductColor struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductTemplateID uuid.UUID `gorm:"column:product_template_id;type:uuid;not null" json:"product_template_id"`
	Name              string    `gorm:"column:name;not null" json:"name"`
	HexCode           *string   `gorm:"column:hex_code" json:"hex_code,omitempty"`
	IsActive          bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (c *ProductColor) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
