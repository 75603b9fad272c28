package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"github.com/rentwise/rentwise-backend/pkg/pagination"
	"github.com/rentwise/rentwise-backend/pkg/types"
)

// ItemInput creates one inventory unit. Exactly one of ProductTemplateID and AccessoryID is set.
type ItemInput struct {
	ProductTemplateID  *uuid.UUID
	AccessoryID        *uuid.UUID
	ColorID            *uuid.UUID
	SerialNumber       string
	Status             enums.InventoryStatus
	Condition          enums.ItemCondition
	Location           *string
	Notes              *string
	PurchaseDate       *time.Time
	PurchasePriceCents *int64
}

// ItemPatch updates descriptive fields. Status changes go through UpdateStatus.
type ItemPatch struct {
	ColorID            types.NullableUUID
	SerialNumber       *string
	Condition          *enums.ItemCondition
	Location           *string
	Notes              *string
	PurchaseDate       *time.Time
	PurchasePriceCents *int64
}

// ListFilters narrows the inventory list.
type ListFilters struct {
	Status            *enums.InventoryStatus
	ProductTemplateID *uuid.UUID
	AccessoryID       *uuid.UUID
	ColorID           *uuid.UUID
	Query             string
}

// ListInput pairs filters with pagination.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// SummaryRow counts the units of one product template by status.
type SummaryRow struct {
	ProductTemplateID uuid.UUID                       `json:"product_template_id"`
	ProductName       string                          `json:"product_name"`
	Total             int64                           `json:"total"`
	ByStatus          map[enums.InventoryStatus]int64 `json:"by_status"`
}

// ItemDetail is an item with its current and upcoming bookings.
type ItemDetail struct {
	models.InventoryItem
	Rentals []models.Rental `json:"rentals"`
}

// BulkFailure describes one rejected entry of a bulk create.
type BulkFailure struct {
	Index        int    `json:"index"`
	SerialNumber string `json:"serial_number"`
	Error        string `json:"error"`
}

// BulkResult is the mixed outcome of a bulk create.
type BulkResult struct {
	Created []models.InventoryItem `json:"created"`
	Failed  []BulkFailure          `json:"failed"`
}
