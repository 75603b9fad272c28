package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/api/responses"
	"github.com/rentwise/rentwise-backend/api/validators"
	"github.com/rentwise/rentwise-backend/internal/rentals"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"github.com/rentwise/rentwise-backend/pkg/logger"
)

type rentalRequest struct {
	UserID          *uuid.UUID `json:"user_id,omitempty"`
	InventoryItemID uuid.UUID  `json:"inventory_item_id" validate:"required"`
	StartDate       string     `json:"start_date" validate:"required,date"`
	EndDate         string     `json:"end_date" validate:"required,date"`
	ModifierCodes   []string   `json:"modifier_codes,omitempty" validate:"max=10,dive,min=1,max=50"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type accessorySelectionRequest struct {
	AccessoryID      uuid.UUID  `json:"accessory_id" validate:"required"`
	AccessoryColorID *uuid.UUID `json:"accessory_color_id,omitempty"`
	Quantity         int        `json:"quantity" validate:"required,min=1,max=100"`
}

type enhancedRentalRequest struct {
	UserID            *uuid.UUID                  `json:"user_id,omitempty"`
	ProductTemplateID uuid.UUID                   `json:"product_template_id" validate:"required"`
	ColorID           *uuid.UUID                  `json:"color_id,omitempty"`
	Accessories       []accessorySelectionRequest `json:"accessories,omitempty" validate:"max=50,dive"`
	StartDate         string                      `json:"start_date" validate:"required,date"`
	EndDate           string                      `json:"end_date" validate:"required,date"`
	ModifierCodes     []string                    `json:"modifier_codes,omitempty" validate:"max=10,dive,min=1,max=50"`
	Notes             *string                     `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (req enhancedRentalRequest) toInput() (rentals.EnhancedInput, error) {
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return rentals.EnhancedInput{}, err
	}
	selections := make([]rentals.AccessorySelection, 0, len(req.Accessories))
	for _, a := range req.Accessories {
		selections = append(selections, rentals.AccessorySelection{
			AccessoryID:      a.AccessoryID,
			AccessoryColorID: a.AccessoryColorID,
			Quantity:         a.Quantity,
		})
	}
	return rentals.EnhancedInput{
		UserID:            req.UserID,
		ProductTemplateID: req.ProductTemplateID,
		ColorID:           req.ColorID,
		Accessories:       selections,
		StartDate:         start,
		EndDate:           end,
		ModifierCodes:     req.ModifierCodes,
		Notes:             req.Notes,
	}, nil
}

type cancelRentalRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type rentalStatusRequest struct {
	Status enums.RentalStatus `json:"status" validate:"required,oneof=pending confirmed active completed cancelled overdue"`
}

func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := validators.ParseDateField("start_date", startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := validators.ParseDateField("end_date", endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// decodeCancelBody allows an empty body since the reason is optional.
func decodeCancelBody(r *http.Request) (cancelRentalRequest, error) {
	var body cancelRentalRequest
	if r.ContentLength == 0 {
		return body, nil
	}
	err := validators.DecodeJSONBody(r, &body)
	return body, err
}

// RentalsList scopes customers to their own rentals; staff may filter by any user.
func RentalsList(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("rental"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters rentals.ListFilters
		if filters.Status, err = parseQueryEnum(r, "status", enums.ParseRentalStatus); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		for key, dest := range map[string]**uuid.UUID{
			"user_id":             &filters.UserID,
			"inventory_item_id":   &filters.InventoryItemID,
			"product_template_id": &filters.ProductTemplateID,
		} {
			if *dest, err = validators.ParseQueryUUID(r, key); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if filters.From, err = validators.ParseQueryDate(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.To, err = validators.ParseQueryDate(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), actor, rentals.ListInput{Filters: filters, Pagination: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func RentalsGet(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("rental"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rental, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}

// RentalsCreate books the requested inventory unit.
func RentalsCreate(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("rental"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body rentalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		start, end, err := parseRange(body.StartDate, body.EndDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rental, err := svc.Create(r.Context(), actor, rentals.CreateInput{
			UserID:          body.UserID,
			InventoryItemID: body.InventoryItemID,
			StartDate:       start,
			EndDate:         end,
			ModifierCodes:   body.ModifierCodes,
			Notes:           body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, rental)
	}
}

// RentalsCreateEnhanced books any free unit of a product together with accessories.
func RentalsCreateEnhanced(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("rental"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body enhancedRentalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rental, err := svc.CreateEnhanced(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, rental)
	}
}

// RentalsQuote prices an enhanced booking without reserving anything.
func RentalsQuote(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("rental"))
			return
		}
		var body enhancedRentalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func RentalsCancel(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("rental"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body, err := decodeCancelBody(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rental, err := svc.Cancel(r.Context(), actor, id, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}

// RentalsUpdateStatus applies a staff-driven lifecycle transition.
func RentalsUpdateStatus(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("rental"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body rentalStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rental, err := svc.UpdateStatus(r.Context(), actor, id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}
