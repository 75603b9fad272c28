package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/api/responses"
	"github.com/rentwise/rentwise-backend/api/validators"
	"github.com/rentwise/rentwise-backend/internal/equipment"
	"github.com/rentwise/rentwise-backend/pkg/logger"
)

func EquipmentList(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("equipment"))
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

		result, err := svc.List(r.Context(), categoryID, validators.ParseQueryString(r, "q", 100), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func EquipmentGet(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("equipment"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// EquipmentAvailability answers for the template in the path.
func EquipmentAvailability(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("equipment"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeAvailability(w, r, svc, id, logg)
	}
}

// RentalAvailability is the same check keyed by the product_template_id query parameter.
func RentalAvailability(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("equipment"))
			return
		}
		id, err := validators.ParseQueryUUID(r, "product_template_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if id == nil {
			responses.WriteError(r.Context(), logg, w, requiredParam("product_template_id"))
			return
		}
		writeAvailability(w, r, svc, *id, logg)
	}
}

func writeAvailability(w http.ResponseWriter, r *http.Request, svc equipment.Service, productID uuid.UUID, logg *logger.Logger) {
	start, err := validators.RequireQueryDate(r, "start_date")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	end, err := validators.RequireQueryDate(r, "end_date")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	colorID, err := validators.ParseQueryUUID(r, "color_id")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	result, err := svc.Availability(r.Context(), equipment.AvailabilityQuery{
		ProductTemplateID: productID,
		ColorID:           colorID,
		StartDate:         start,
		EndDate:           end,
	})
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}
