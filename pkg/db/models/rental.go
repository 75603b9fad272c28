package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"gorm.io/gorm"
)

// Rental books one inventory unit for an inclusive date range.
// Price columns are a snapshot taken when the booking was made.
type Rental struct {
	ID                uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID          `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	InventoryItemID   *uuid.UUID         `gorm:"column:inventory_item_id;type:uuid" json:"inventory_item_id,omitempty"`
	ProductTemplateID uuid.UUID          `gorm:"column:product_template_id;type:uuid;not null" json:"product_template_id"`
	ColorID           *uuid.UUID         `gorm:"column:color_id;type:uuid" json:"color_id,omitempty"`
	StartDate         time.Time          `gorm:"column:start_date;type:date;not null" json:"start_date"`
	EndDate           time.Time          `gorm:"column:end_date;type:date;not null" json:"end_date"`
	Status            enums.RentalStatus `gorm:"column:status;type:text;not null" json:"status"`
	RentalDays        int                `gorm:"column:rental_days;not null" json:"rental_days"`
	BasePriceCents    int64              `gorm:"column:base_price_cents;not null" json:"base_price_cents"`
	AccessoriesCents  int64              `gorm:"column:accessories_cents;not null" json:"accessories_cents"`
	SubtotalCents     int64              `gorm:"column:subtotal_cents;not null" json:"subtotal_cents"`
	DiscountCents     int64              `gorm:"column:discount_cents;not null" json:"discount_cents"`
	FeeCents          int64              `gorm:"column:fee_cents;not null" json:"fee_cents"`
	DepositCents      int64              `gorm:"column:deposit_cents;not null" json:"deposit_cents"`
	TotalCents        int64              `gorm:"column:total_cents;not null" json:"total_cents"`
	AppliedModifiers  *string            `gorm:"column:applied_modifiers" json:"applied_modifiers,omitempty"`
	Notes             *string            `gorm:"column:notes" json:"notes,omitempty"`
	CancelledAt       *time.Time         `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason      *string            `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`
	PickedUpAt        *time.Time         `gorm:"column:picked_up_at" json:"picked_up_at,omitempty"`
	ReturnedAt        *time.Time         `gorm:"column:returned_at" json:"returned_at,omitempty"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Accessories []RentalAccessory `gorm:"foreignKey:RentalID" json:"accessories,omitempty"`
}

func (r *Rental) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = enums.RentalStatusPending
	}
	return nil
}

type RentalAccessory struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RentalID         uuid.UUID  `gorm:"column:rental_id;type:uuid;not null" json:"rental_id"`
	AccessoryID      uuid.UUID  `gorm:"column:accessory_id;type:uuid;not null" json:"accessory_id"`
	AccessoryColorID *uuid.UUID `gorm:"column:accessory_color_id;type:uuid" json:"accessory_color_id,omitempty"`
	Quantity         int        `gorm:"column:quantity;not null" json:"quantity"`
	UnitPriceCents   int64      `gorm:"column:unit_price_cents;not null" json:"unit_price_cents"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (a *RentalAccessory) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
