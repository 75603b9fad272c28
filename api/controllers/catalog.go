package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/api/middleware"
	"github.com/rentwise/rentwise-backend/api/responses"
	"github.com/rentwise/rentwise-backend/api/validators"
	"github.com/rentwise/rentwise-backend/internal/catalog"
	"github.com/rentwise/rentwise-backend/pkg/logger"
)

type categoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty"`
	SortOrder   int     `json:"sort_order"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type categoryPatchRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type productRequest struct {
	CategoryID           uuid.UUID `json:"category_id" validate:"required"`
	Name                 string    `json:"name" validate:"required,max=200"`
	Slug                 *string   `json:"slug,omitempty" validate:"omitempty,max=220"`
	Description          *string   `json:"description,omitempty"`
	BasePriceCents       int64     `json:"base_price_cents" validate:"gte=0"`
	RentalPeriodDays     int       `json:"rental_period_days" validate:"omitempty,gte=1"`
	DepositCents         int64     `json:"deposit_cents" validate:"gte=0"`
	ReplacementCostCents int64     `json:"replacement_cost_cents" validate:"gte=0"`
	IsActive             *bool     `json:"is_active,omitempty"`
}

type productPatchRequest struct {
	CategoryID           *uuid.UUID `json:"category_id,omitempty"`
	Name                 *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Slug                 *string    `json:"slug,omitempty" validate:"omitempty,max=220"`
	Description          *string    `json:"description,omitempty"`
	BasePriceCents       *int64     `json:"base_price_cents,omitempty" validate:"omitempty,gte=0"`
	RentalPeriodDays     *int       `json:"rental_period_days,omitempty" validate:"omitempty,gte=1"`
	DepositCents         *int64     `json:"deposit_cents,omitempty" validate:"omitempty,gte=0"`
	ReplacementCostCents *int64     `json:"replacement_cost_cents,omitempty" validate:"omitempty,gte=0"`
	IsActive             *bool      `json:"is_active,omitempty"`
}

type colorRequest struct {
	Name     string  `json:"name" validate:"required,max=60"`
	HexCode  *string `json:"hex_code,omitempty" validate:"omitempty,hexcolor"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type colorPatchRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=60"`
	HexCode  *string `json:"hex_code,omitempty" validate:"omitempty,hexcolor"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// CatalogListCategories shows active categories, or all of them to staff.
func CatalogListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		cats, err := svc.ListCategories(r.Context(), middleware.IsStaffContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cats)
	}
}

func CatalogCreateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		var body categoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cat, err := svc.CreateCategory(r.Context(), catalog.CategoryInput{
			Name:        body.Name,
			Slug:        body.Slug,
			Description: body.Description,
			SortOrder:   body.SortOrder,
			IsActive:    body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, cat)
	}
}

func CatalogUpdateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body categoryPatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cat, err := svc.UpdateCategory(r.Context(), id, catalog.CategoryPatch{
			Name:        body.Name,
			Slug:        body.Slug,
			Description: body.Description,
			SortOrder:   body.SortOrder,
			IsActive:    body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cat)
	}
}

func CatalogDeleteCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CatalogListProducts filters templates by category, active flag and a name search.
func CatalogListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		active, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), catalog.ListProductsInput{
			Filters: catalog.ProductFilters{
				CategoryID:      categoryID,
				IsActive:        active,
				Query:           validators.ParseQueryString(r, "q", 100),
				IncludeInactive: middleware.IsStaffContext(r.Context()),
			},
			Pagination: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CatalogGetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.GetProduct(r.Context(), id, middleware.IsStaffContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func CatalogCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		var body productRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), catalog.ProductInput{
			CategoryID:           body.CategoryID,
			Name:                 body.Name,
			Slug:                 body.Slug,
			Description:          body.Description,
			BasePriceCents:       body.BasePriceCents,
			RentalPeriodDays:     body.RentalPeriodDays,
			DepositCents:         body.DepositCents,
			ReplacementCostCents: body.ReplacementCostCents,
			IsActive:             body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}

func CatalogUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productPatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, catalog.ProductPatch{
			CategoryID:           body.CategoryID,
			Name:                 body.Name,
			Slug:                 body.Slug,
			Description:          body.Description,
			BasePriceCents:       body.BasePriceCents,
			RentalPeriodDays:     body.RentalPeriodDays,
			DepositCents:         body.DepositCents,
			ReplacementCostCents: body.ReplacementCostCents,
			IsActive:             body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CatalogDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func CatalogAddColor(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		productID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body colorRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		color, err := svc.AddColor(r.Context(), productID, catalog.ColorInput{
			Name:     body.Name,
			HexCode:  body.HexCode,
			IsActive: body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, color)
	}
}

func CatalogUpdateColor(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		colorID, err := validators.URLParamUUID(r, "colorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body colorPatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		color, err := svc.UpdateColor(r.Context(), colorID, catalog.ColorPatch{
			Name:     body.Name,
			HexCode:  body.HexCode,
			IsActive: body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, color)
	}
}

func CatalogDeleteColor(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
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
