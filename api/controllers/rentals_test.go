package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/internal/rentals"
	"github.com/rentwise/rentwise-backend/pkg/auth"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/types"
	"github.com/stretchr/testify/require"
)

type stubRentalService struct {
	rentals.Service
	err         error
	gotActor    auth.Actor
	gotCreate   rentals.CreateInput
	gotEnhanced rentals.EnhancedInput
	gotList     rentals.ListInput
	gotReason   *string
	gotStatus   enums.RentalStatus
}

func (s *stubRentalService) List(_ context.Context, actor auth.Actor, input rentals.ListInput) (*types.ListEnvelope[models.Rental], error) {
	s.gotActor, s.gotList = actor, input
	if s.err != nil {
		return nil, s.err
	}
	return &types.ListEnvelope[models.Rental]{Items: []models.Rental{}, Limit: input.Pagination.Limit}, nil
}

func (s *stubRentalService) Create(_ context.Context, actor auth.Actor, input rentals.CreateInput) (*models.Rental, error) {
	s.gotActor, s.gotCreate = actor, input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Rental{ID: uuid.New(), Status: enums.RentalStatusPending}, nil
}

func (s *stubRentalService) CreateEnhanced(_ context.Context, actor auth.Actor, input rentals.EnhancedInput) (*models.Rental, error) {
	s.gotActor, s.gotEnhanced = actor, input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Rental{ID: uuid.New(), Status: enums.RentalStatusPending}, nil
}

func (s *stubRentalService) Quote(_ context.Context, input rentals.EnhancedInput) (*rentals.Quote, error) {
	s.gotEnhanced = input
	return &rentals.Quote{ProductTemplateID: input.ProductTemplateID, AvailableUnits: 2}, s.err
}

func (s *stubRentalService) Cancel(_ context.Context, actor auth.Actor, id uuid.UUID, reason *string) (*models.Rental, error) {
	s.gotActor, s.gotReason = actor, reason
	if s.err != nil {
		return nil, s.err
	}
	return &models.Rental{ID: id, Status: enums.RentalStatusCancelled}, nil
}

func (s *stubRentalService) UpdateStatus(_ context.Context, actor auth.Actor, id uuid.UUID, next enums.RentalStatus) (*models.Rental, error) {
	s.gotActor, s.gotStatus = actor, next
	if s.err != nil {
		return nil, s.err
	}
	return &models.Rental{ID: id, Status: next}, nil
}

func TestRentalsCreate(t *testing.T) {
	svc := &stubRentalService{}
	itemID := uuid.New()
	actor := actorWith(enums.RoleCustomer)

	rec := do(RentalsCreate(svc, testLogger()), newRequest(http.MethodPost, "/v1/rentals", requestOpts{
		body:  `{"inventory_item_id":"` + itemID.String() + `","start_date":"2030-05-01","end_date":"2030-05-04","notes":"weekend trip"}`,
		actor: actor,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, actor.UserID, svc.gotActor.UserID)
	require.Equal(t, itemID, svc.gotCreate.InventoryItemID)
	require.Equal(t, time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC), svc.gotCreate.StartDate)
	require.Equal(t, "weekend trip", *svc.gotCreate.Notes)
}

func TestRentalsCreateRejectsBadInput(t *testing.T) {
	svc := &stubRentalService{}
	handler := RentalsCreate(svc, testLogger())

	noActor := do(handler, newRequest(http.MethodPost, "/v1/rentals", requestOpts{body: `{}`}))
	require.Equal(t, http.StatusUnauthorized, noActor.Code)

	badDate := do(handler, newRequest(http.MethodPost, "/v1/rentals", requestOpts{
		body:  `{"inventory_item_id":"` + uuid.NewString() + `","start_date":"05/01/2030","end_date":"2030-05-04"}`,
		actor: actorWith(enums.RoleCustomer),
	}))
	require.Equal(t, http.StatusBadRequest, badDate.Code)

	unknownField := do(handler, newRequest(http.MethodPost, "/v1/rentals", requestOpts{
		body:  `{"inventory_item_id":"` + uuid.NewString() + `","start_date":"2030-05-01","end_date":"2030-05-04","price":1}`,
		actor: actorWith(enums.RoleCustomer),
	}))
	require.Equal(t, http.StatusBadRequest, unknownField.Code)

	svc.err = pkgerrors.New(pkgerrors.CodeConflict, "inventory item is already booked for these dates")
	conflict := do(handler, newRequest(http.MethodPost, "/v1/rentals", requestOpts{
		body:  `{"inventory_item_id":"` + uuid.NewString() + `","start_date":"2030-05-01","end_date":"2030-05-04"}`,
		actor: actorWith(enums.RoleCustomer),
	}))
	require.Equal(t, http.StatusConflict, conflict.Code)
}

func TestRentalsCreateEnhancedAndQuote(t *testing.T) {
	svc := &stubRentalService{}
	productID := uuid.New()
	accessoryID := uuid.New()
	body := `{"product_template_id":"` + productID.String() + `","accessories":[{"accessory_id":"` + accessoryID.String() + `","quantity":2}],"start_date":"2030-06-01","end_date":"2030-06-08","modifier_codes":["WEEKLY"]}`

	rec := do(RentalsCreateEnhanced(svc, testLogger()), newRequest(http.MethodPost, "/v1/rentals/enhanced", requestOpts{
		body:  body,
		actor: actorWith(enums.RoleCustomer),
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, productID, svc.gotEnhanced.ProductTemplateID)
	require.Len(t, svc.gotEnhanced.Accessories, 1)
	require.Equal(t, 2, svc.gotEnhanced.Accessories[0].Quantity)
	require.Equal(t, []string{"WEEKLY"}, svc.gotEnhanced.ModifierCodes)

	quote := do(RentalsQuote(svc, testLogger()), newRequest(http.MethodPost, "/v1/rentals/quote", requestOpts{body: body}))
	require.Equal(t, http.StatusOK, quote.Code)
	require.Contains(t, string(decodeEnvelope(t, quote).Data), `"available_units":2`)

	zeroQty := do(RentalsQuote(svc, testLogger()), newRequest(http.MethodPost, "/v1/rentals/quote", requestOpts{
		body: `{"product_template_id":"` + productID.String() + `","accessories":[{"accessory_id":"` + accessoryID.String() + `","quantity":0}],"start_date":"2030-06-01","end_date":"2030-06-08"}`,
	}))
	require.Equal(t, http.StatusBadRequest, zeroQty.Code)
}

func TestRentalsListParsesFilters(t *testing.T) {
	svc := &stubRentalService{}
	userID := uuid.New()
	rec := do(RentalsList(svc, testLogger()), newRequest(http.MethodGet, "/v1/rentals?status=active&user_id="+userID.String()+"&from=2030-01-01&limit=10", requestOpts{
		actor: actorWith(enums.RoleStaff),
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, enums.RentalStatusActive, *svc.gotList.Filters.Status)
	require.Equal(t, userID, *svc.gotList.Filters.UserID)
	require.NotNil(t, svc.gotList.Filters.From)
	require.Nil(t, svc.gotList.Filters.To)
	require.Equal(t, 10, svc.gotList.Pagination.Limit)

	bad := do(RentalsList(svc, testLogger()), newRequest(http.MethodGet, "/v1/rentals?status=lost", requestOpts{
		actor: actorWith(enums.RoleStaff),
	}))
	require.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestRentalsCancelAndStatus(t *testing.T) {
	svc := &stubRentalService{}
	id := uuid.New()

	rec := do(RentalsCancel(svc, testLogger()), newRequest(http.MethodPost, "/v1/rentals/"+id.String()+"/cancel", requestOpts{
		params: map[string]string{"id": id.String()},
		actor:  actorWith(enums.RoleCustomer),
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Nil(t, svc.gotReason)

	rec = do(RentalsCancel(svc, testLogger()), newRequest(http.MethodPost, "/v1/rentals/"+id.String()+"/cancel", requestOpts{
		body:   `{"reason":"plans changed"}`,
		params: map[string]string{"id": id.String()},
		actor:  actorWith(enums.RoleCustomer),
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "plans changed", *svc.gotReason)

	status := do(RentalsUpdateStatus(svc, testLogger()), newRequest(http.MethodPatch, "/v1/rentals/"+id.String()+"/status", requestOpts{
		body:   `{"status":"confirmed"}`,
		params: map[string]string{"id": id.String()},
		actor:  actorWith(enums.RoleStaff),
	}))
	require.Equal(t, http.StatusOK, status.Code)
	require.Equal(t, enums.RentalStatusConfirmed, svc.gotStatus)

	svc.err = pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move rental from completed to active")
	invalid := do(RentalsUpdateStatus(svc, testLogger()), newRequest(http.MethodPatch, "/v1/rentals/"+id.String()+"/status", requestOpts{
		body:   `{"status":"active"}`,
		params: map[string]string{"id": id.String()},
		actor:  actorWith(enums.RoleStaff),
	}))
	require.Equal(t, http.StatusBadRequest, invalid.Code)
	require.Equal(t, "STATE_CONFLICT", decodeEnvelope(t, invalid).Code)

	badID := do(RentalsCancel(svc, testLogger()), newRequest(http.MethodPost, "/v1/rentals/x/cancel", requestOpts{
		params: map[string]string{"id": "x"},
		actor:  actorWith(enums.RoleCustomer),
	}))
	require.Equal(t, http.StatusBadRequest, badID.Code)
}
