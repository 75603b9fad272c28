package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/api/responses"
	"github.com/rentwise/rentwise-backend/api/validators"
	"github.com/rentwise/rentwise-backend/internal/inventory"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/logger"
	"github.com/rentwise/rentwise-backend/pkg/types"
)

// Shape rules (one of product or accessory, color ownership, serial uniqueness) are enforced by
// the service so bulk imports can report them per item.
type inventoryItemRequest struct {
	ProductTemplateID  *uuid.UUID            `json:"product_template_id,omitempty"`
	AccessoryID        *uuid.UUID            `json:"accessory_id,omitempty"`
	ColorID            *uuid.UUID            `json:"color_id,omitempty"`
	SerialNumber       string                `json:"serial_number" validate:"max=100"`
	Status             enums.InventoryStatus `json:"status,omitempty"`
	Condition          enums.ItemCondition   `json:"condition,omitempty"`
	Location           *string               `json:"location,omitempty" validate:"omitempty,max=200"`
	Notes              *string               `json:"notes,omitempty"`
	PurchaseDate       *string               `json:"purchase_date,omitempty" validate:"omitempty,date"`
	PurchasePriceCents *int64                `json:"purchase_price_cents,omitempty" validate:"omitempty,gte=0"`
}

func (req inventoryItemRequest) toInput() inventory.ItemInput {
	return inventory.ItemInput{
		ProductTemplateID:  req.ProductTemplateID,
		AccessoryID:        req.AccessoryID,
		ColorID:            req.ColorID,
		SerialNumber:       req.SerialNumber,
		Status:             req.Status,
		Condition:          req.Condition,
		Location:           req.Location,
		Notes:              req.Notes,
		PurchaseDate:       optionalDate(req.PurchaseDate),
		PurchasePriceCents: req.PurchasePriceCents,
	}
}

type bulkInventoryRequest struct {
	Items []inventoryItemRequest `json:"items" validate:"required,min=1,dive"`
}

type inventoryPatchRequest struct {
	ColorID            types.NullableUUID   `json:"color_id,omitempty"`
	SerialNumber       *string              `json:"serial_number,omitempty" validate:"omitempty,min=1,max=100"`
	Condition          *enums.ItemCondition `json:"condition,omitempty" validate:"omitempty,oneof=new excellent good fair poor"`
	Location           *string              `json:"location,omitempty" validate:"omitempty,max=200"`
	Notes              *string              `json:"notes,omitempty"`
	PurchaseDate       *string              `json:"purchase_date,omitempty" validate:"omitempty,date"`
	PurchasePriceCents *int64               `json:"purchase_price_cents,omitempty" validate:"omitempty,gte=0"`
}

type inventoryStatusRequest struct {
	Status enums.InventoryStatus `json:"status" validate:"required,oneof=available rented maintenance retired"`
}

// optionalDate converts an already validated date string.
func optionalDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	t, err := types.ParseDate(*raw)
	if err != nil {
		return nil
	}
	return &t
}

func InventoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parseQueryEnum(r, "status", enums.ParseInventoryStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := inventory.ListFilters{Status: status, Query: validators.ParseQueryString(r, "q", 100)}
		for key, dest := range map[string]**uuid.UUID{
			"product_template_id": &filters.ProductTemplateID,
			"accessory_id":        &filters.AccessoryID,
			"color_id":            &filters.ColorID,
		} {
			if *dest, err = validators.ParseQueryUUID(r, key); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.List(r.Context(), inventory.ListInput{Filters: filters, Pagination: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// InventorySummary counts units per product template and status.
func InventorySummary(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		rows, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func InventoryGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func InventoryCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		var body inventoryItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, item)
	}
}

// InventoryBulkCreate answers 201 when at least one unit was created and 400 with the
// per-item failures otherwise.
func InventoryBulkCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		var body bulkInventoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]inventory.ItemInput, 0, len(body.Items))
		for _, item := range body.Items {
			inputs = append(inputs, item.toInput())
		}
		result, err := svc.BulkCreate(r.Context(), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(result.Created) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("no inventory items were created", map[string]any{"failed": result.Failed}))
			return
		}
		responses.WriteCreated(w, result)
	}
}

func InventoryUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inventoryPatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Update(r.Context(), id, inventory.ItemPatch{
			ColorID:            body.ColorID,
			SerialNumber:       body.SerialNumber,
			Condition:          body.Condition,
			Location:           body.Location,
			Notes:              body.Notes,
			PurchaseDate:       optionalDate(body.PurchaseDate),
			PurchasePriceCents: body.PurchasePriceCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func InventoryUpdateStatus(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inventoryStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateStatus(r.Context(), id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func InventoryDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
