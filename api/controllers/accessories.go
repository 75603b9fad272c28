package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/api/middleware"
	"github.com/rentwise/rentwise-backend/api/responses"
	"github.com/rentwise/rentwise-backend/api/validators"
	"github.com/rentwise/rentwise-backend/internal/accessories"
	"github.com/rentwise/rentwise-backend/pkg/logger"
)

type accessoryRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Slug           *string `json:"slug,omitempty" validate:"omitempty,max=220"`
	Description    *string `json:"description,omitempty"`
	PriceCents     int64   `json:"price_cents" validate:"gte=0"`
	IsActive       *bool   `json:"is_active,omitempty"`
	TrackInventory bool    `json:"track_inventory"`
}

type accessoryPatchRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Slug           *string `json:"slug,omitempty" validate:"omitempty,max=220"`
	Description    *string `json:"description,omitempty"`
	PriceCents     *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	IsActive       *bool   `json:"is_active,omitempty"`
	TrackInventory *bool   `json:"track_inventory,omitempty"`
}

type accessoryColorRequest struct {
	Name    string  `json:"name" validate:"required,max=60"`
	HexCode *string `json:"hex_code,omitempty" validate:"omitempty,hexcolor"`
}

type accessoryLinkRequest struct {
	AccessoryID uuid.UUID `json:"accessory_id" validate:"required"`
	IsRequired  bool      `json:"is_required"`
	IsDefault   bool      `json:"is_default"`
	SortOrder   int       `json:"sort_order"`
}

type replaceLinksRequest struct {
	Accessories []accessoryLinkRequest `json:"accessories" validate:"dive"`
}

func AccessoriesList(svc accessories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("accessory"))
			return
		}
		items, err := svc.List(r.Context(), middleware.IsStaffContext(r.Context()), validators.ParseQueryString(r, "q", 100))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func AccessoriesGet(svc accessories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("accessory"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id, middleware.IsStaffContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func AccessoriesCreate(svc accessories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("accessory"))
			return
		}
		var body accessoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), accessories.Input{
			Name:           body.Name,
			Slug:           body.Slug,
			Description:    body.Description,
			PriceCents:     body.PriceCents,
			IsActive:       body.IsActive,
			TrackInventory: body.TrackInventory,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, item)
	}
}

func AccessoriesUpdate(svc accessories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("accessory"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body accessoryPatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Update(r.Context(), id, accessories.Patch{
			Name:           body.Name,
			Slug:           body.Slug,
			Description:    body.Description,
			PriceCents:     body.PriceCents,
			IsActive:       body.IsActive,
			TrackInventory: body.TrackInventory,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func AccessoriesDelete(svc accessories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("accessory"))
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

func AccessoriesAddColor(svc accessories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("accessory"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body accessoryColorRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		color, err := svc.AddColor(r.Context(), id, accessories.ColorInput{Name: body.Name, HexCode: body.HexCode})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, color)
	}
}

func AccessoriesDeleteColor(svc accessories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("accessory"))
			return
		}
		colorID, err := validators.URLParamUUID(r, "colorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteColor(r.Context(), colorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ProductAccessoriesList returns the accessories linked to a product template.
func ProductAccessoriesList(svc accessories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("accessory"))
			return
		}
		productID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		links, err := svc.ListLinks(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, links)
	}
}

// ProductAccessoriesReplace swaps the whole link set of a product template.
func ProductAccessoriesReplace(svc accessories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("accessory"))
			return
		}
		productID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body replaceLinksRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]accessories.LinkInput, 0, len(body.Accessories))
		for _, l := range body.Accessories {
			inputs = append(inputs, accessories.LinkInput{
				AccessoryID: l.AccessoryID,
				IsRequired:  l.IsRequired,
				IsDefault:   l.IsDefault,
				SortOrder:   l.SortOrder,
			})
		}
		links, err := svc.ReplaceLinks(r.Context(), productID, inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, links)
	}
}

func ProductAccessoriesRemove(svc accessories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("accessory"))
			return
		}
		productID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		accessoryID, err := validators.URLParamUUID(r, "accessoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveLink(r.Context(), productID, accessoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
