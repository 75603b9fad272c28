package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Accessory is an add-on priced flat per rental.
type Accessory struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Slug           string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Description    *string   `gorm:"column:description" json:"description,omitempty"`
	PriceCents     int64     `gorm:"column:price_cents;not null" json:"price_cents"`
	IsActive       bool      `gorm:"column:is_active;not null" json:"is_active"`
	TrackInventory bool      `gorm:"column:track_inventory;not null" json:"track_inventory"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Colors []AccessoryColor `gorm:"foreignKey:AccessoryID" json:"colors,omitempty"`
}

func (a *Accessory) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

type AccessoryColor struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccessoryID uuid.UUID `gorm:"column:accessory_id;type:uuid;not null" json:"accessory_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	HexCode     *string   `gorm:"column:hex_code" json:"hex_code,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (c *AccessoryColor) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ProductAccessoryLink offers an accessory on a product template.
type ProductAccessoryLink struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductTemplateID uuid.UUID `gorm:"column:product_template_id;type:uuid;not null" json:"product_template_id"`
	AccessoryID       uuid.UUID `gorm:"column:accessory_id;type:uuid;not null" json:"accessory_id"`
	IsRequired        bool      `gorm:"column:is_required;not null" json:"is_required"`
	IsDefault         bool      `gorm:"column:is_default;not null" json:"is_default"`
	SortOrder         int       `gorm:"column:sort_order;not null" json:"sort_order"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Accessory *Accessory `gorm:"foreignKey:AccessoryID" json:"accessory,omitempty"`
}

func (l *ProductAccessoryLink) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
