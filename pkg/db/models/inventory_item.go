package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"gorm.io/gorm"
)

// InventoryItem is one physical, serial-numbered unit of a product or accessory.
type InventoryItem struct {
	ID                 uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	ProductTemplateID  *uuid.UUID            `gorm:"column:product_template_id;type:uuid" json:"product_template_id,omitempty"`
	AccessoryID        *uuid.UUID            `gorm:"column:accessory_id;type:uuid" json:"accessory_id,omitempty"`
	ColorID            *uuid.UUID            `gorm:"column:color_id;type:uuid" json:"color_id,omitempty"`
	SerialNumber       string                `gorm:"column:serial_number;not null;uniqueIndex" json:"serial_number"`
	Status             enums.InventoryStatus `gorm:"column:status;type:text;not null" json:"status"`
	Condition          enums.ItemCondition   `gorm:"column:condition;type:text;not null" json:"condition"`
	Location           *string               `gorm:"column:location" json:"location,omitempty"`
	Notes              *string               `gorm:"column:notes" json:"notes,omitempty"`
	PurchaseDate       *time.Time            `gorm:"column:purchase_date;type:date" json:"purchase_date,omitempty"`
	PurchasePriceCents *int64                `gorm:"column:purchase_price_cents" json:"purchase_price_cents,omitempty"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	if i.Status == "" {
		i.Status = enums.InventoryStatusAvailable
	}
	if i.Condition == "" {
		i.Condition = enums.ItemConditionGood
	}
	return nil
}
