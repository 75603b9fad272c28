package rentals

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/internal/pricing"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"github.com/rentwise/rentwise-backend/pkg/pagination"
)

// CreateInput books a specific inventory unit.
type CreateInput struct {
	// UserID books on behalf of another user; honored for staff only.
	UserID          *uuid.UUID
	InventoryItemID uuid.UUID
	StartDate       time.Time
	EndDate         time.Time
	ModifierCodes   []string
	Notes           *string
}

// AccessorySelection is one accessory line of an enhanced booking.
type AccessorySelection struct {
	AccessoryID      uuid.UUID
	AccessoryColorID *uuid.UUID
	Quantity         int
}

// EnhancedInput books any free unit of a product with accessories.
type EnhancedInput struct {
	UserID            *uuid.UUID
	ProductTemplateID uuid.UUID
	ColorID           *uuid.UUID
	Accessories       []AccessorySelection
	StartDate         time.Time
	EndDate           time.Time
	ModifierCodes     []string
	Notes             *string
}

// Quote is a priced enhanced booking that was not persisted.
type Quote struct {
	pricing.Breakdown
	ProductTemplateID uuid.UUID        `json:"product_template_id"`
	ColorID           *uuid.UUID       `json:"color_id,omitempty"`
	StartDate         string           `json:"start_date"`
	EndDate           string           `json:"end_date"`
	Lines             []QuoteAccessory `json:"accessories"`
	AvailableUnits    int64            `json:"available_units"`
}

// QuoteAccessory is one priced accessory line.
type QuoteAccessory struct {
	AccessoryID      uuid.UUID  `json:"accessory_id"`
	AccessoryColorID *uuid.UUID `json:"accessory_color_id,omitempty"`
	Name             string     `json:"name"`
	Quantity         int        `json:"quantity"`
	UnitPriceCents   int64      `json:"unit_price_cents"`
	LineTotalCents   int64      `json:"line_total_cents"`
}

// ListFilters narrows the rental list. From/To select rentals overlapping the window.
type ListFilters struct {
	Status            *enums.RentalStatus
	UserID            *uuid.UUID
	InventoryItemID   *uuid.UUID
	ProductTemplateID *uuid.UUID
	From              *time.Time
	To                *time.Time
}

// ListInput pairs filters with pagination.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// SweepResult reports a batch status sweep.
type SweepResult struct {
	Matched int `json:"matched"`
	Updated int `json:"updated"`
}

func newRentalFromBreakdown(b pricing.Breakdown) models.Rental {
	return models.Rental{
		RentalDays:       b.RentalDays,
		BasePriceCents:   b.BasePriceCents,
		AccessoriesCents: b.AccessoriesCents,
		SubtotalCents:    b.SubtotalCents,
		DiscountCents:    b.DiscountCents,
		FeeCents:         b.FeeCents,
		DepositCents:     b.DepositCents,
		TotalCents:       b.TotalCents,
		AppliedModifiers: b.AppliedModifiersString(),
		Status:           enums.RentalStatusPending,
	}
}
