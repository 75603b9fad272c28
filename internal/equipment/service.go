// Package equipment is the customer-facing read view of rentable products and their stock.
package equipment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/internal/availability"
	"github.com/rentwise/rentwise-backend/internal/catalog"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/pagination"
	"github.com/rentwise/rentwise-backend/pkg/types"
)

// View is a product template with unit counts.
type View struct {
	models.ProductTemplate
	availability.UnitCount
}

// DetailView adds accessory links to View.
type DetailView struct {
	View
	Accessories []models.ProductAccessoryLink `json:"accessories"`
}

// AvailabilityQuery asks how many units are free for a range.
type AvailabilityQuery struct {
	ProductTemplateID uuid.UUID
	ColorID           *uuid.UUID
	StartDate         time.Time
	EndDate           time.Time
}

// Availability answers an AvailabilityQuery.
type Availability struct {
	ProductTemplateID uuid.UUID  `json:"product_template_id"`
	ColorID           *uuid.UUID `json:"color_id,omitempty"`
	StartDate         string     `json:"start_date"`
	EndDate           string     `json:"end_date"`
	AvailableUnits    int64      `json:"available_units"`
	Available         bool       `json:"available"`
}

type Service interface {
	List(ctx context.Context, categoryID *uuid.UUID, query string, page pagination.Params) (*types.ListEnvelope[View], error)
	Get(ctx context.Context, id uuid.UUID) (*DetailView, error)
	Availability(ctx context.Context, q AvailabilityQuery) (*Availability, error)
}

type service struct {
	catalog catalog.Service
	avail   *availability.Repository
}

func NewService(catalogSvc catalog.Service, avail *availability.Repository) (Service, error) {
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if avail == nil {
		return nil, fmt.Errorf("availability repository required")
	}
	return &service{catalog: catalogSvc, avail: avail}, nil
}

func (s *service) List(ctx context.Context, categoryID *uuid.UUID, query string, page pagination.Params) (*types.ListEnvelope[View], error) {
	products, err := s.catalog.ListProducts(ctx, catalog.ListProductsInput{
		Filters:    catalog.ProductFilters{CategoryID: categoryID, Query: query},
		Pagination: page,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(products.Items))
	for _, p := range products.Items {
		ids = append(ids, p.ID)
	}
	counts, err := s.avail.UnitCounts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count units")
	}

	views := make([]View, 0, len(products.Items))
	for _, p := range products.Items {
		views = append(views, View{ProductTemplate: p, UnitCount: counts[p.ID]})
	}
	return &types.ListEnvelope[View]{
		Items:  views,
		Total:  products.Total,
		Limit:  products.Limit,
		Offset: products.Offset,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DetailView, error) {
	detail, err := s.catalog.GetProduct(ctx, id, false)
	if err != nil {
		return nil, err
	}
	counts, err := s.avail.UnitCounts(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count units")
	}
	return &DetailView{
		View:        View{ProductTemplate: detail.ProductTemplate, UnitCount: counts[id]},
		Accessories: detail.Accessories,
	}, nil
}

func (s *service) Availability(ctx context.Context, q AvailabilityQuery) (*Availability, error) {
	if q.EndDate.Before(q.StartDate) {
		return nil, pkgerrors.Validation("end_date must not be before start_date", nil)
	}
	if _, err := s.catalog.GetProduct(ctx, q.ProductTemplateID, false); err != nil {
		return nil, err
	}
	n, err := s.avail.CountFree(ctx, availability.Query{
		ProductTemplateID: q.ProductTemplateID,
		ColorID:           q.ColorID,
		StartDate:         q.StartDate,
		EndDate:           q.EndDate,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count free units")
	}
	return &Availability{
		ProductTemplateID: q.ProductTemplateID,
		ColorID:           q.ColorID,
		StartDate:         q.StartDate.Format(types.DateLayout),
		EndDate:           q.EndDate.Format(types.DateLayout),
		AvailableUnits:    n,
		Available:         n > 0,
	}, nil
}
