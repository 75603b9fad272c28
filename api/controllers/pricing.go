package controllers

import (
	"net/http"

	"github.com/rentwise/rentwise-backend/api/responses"
	"github.com/rentwise/rentwise-backend/api/validators"
	"github.com/rentwise/rentwise-backend/internal/pricing"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// Percentages accept JSON numbers or strings; range checks live in the service.
type modifierRequest struct {
	Code        string               `json:"code" validate:"required,max=50"`
	Name        string               `json:"name" validate:"required,max=100"`
	Kind        enums.ModifierKind   `json:"kind" validate:"required,oneof=discount fee"`
	Percentage  *decimal.Decimal     `json:"percentage"`
	AppliesTo   enums.ModifierTarget `json:"applies_to,omitempty" validate:"omitempty,oneof=subtotal deposit"`
	IsAutomatic bool                 `json:"is_automatic"`
	IsActive    *bool                `json:"is_active,omitempty"`
}

type modifierPatchRequest struct {
	Name        *string               `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Kind        *enums.ModifierKind   `json:"kind,omitempty" validate:"omitempty,oneof=discount fee"`
	Percentage  *decimal.Decimal      `json:"percentage,omitempty"`
	AppliesTo   *enums.ModifierTarget `json:"applies_to,omitempty" validate:"omitempty,oneof=subtotal deposit"`
	IsAutomatic *bool                 `json:"is_automatic,omitempty"`
	IsActive    *bool                 `json:"is_active,omitempty"`
}

func PricingListModifiers(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("pricing"))
			return
		}
		activeOnly, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mods, err := svc.ListModifiers(r.Context(), activeOnly != nil && *activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mods)
	}
}

func PricingCreateModifier(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("pricing"))
			return
		}
		var body modifierRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Percentage == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("percentage is required", map[string]any{"field": "percentage"}))
			return
		}

		mod, err := svc.CreateModifier(r.Context(), pricing.CreateModifierInput{
			Code:        body.Code,
			Name:        body.Name,
			Kind:        body.Kind,
			Percentage:  *body.Percentage,
			AppliesTo:   body.AppliesTo,
			IsAutomatic: body.IsAutomatic,
			IsActive:    body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, mod)
	}
}

func PricingUpdateModifier(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("pricing"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body modifierPatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mod, err := svc.UpdateModifier(r.Context(), id, pricing.UpdateModifierInput{
			Name:        body.Name,
			Kind:        body.Kind,
			Percentage:  body.Percentage,
			AppliesTo:   body.AppliesTo,
			IsAutomatic: body.IsAutomatic,
			IsActive:    body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mod)
	}
}

func PricingDeleteModifier(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("pricing"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteModifier(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
