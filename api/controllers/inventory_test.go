package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/internal/inventory"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"github.com/rentwise/rentwise-backend/pkg/types"
	"github.com/stretchr/testify/require"
)

type stubInventoryService struct {
	inventory.Service
	bulk      *inventory.BulkResult
	gotBulk   []inventory.ItemInput
	gotPatch  inventory.ItemPatch
	gotStatus enums.InventoryStatus
	gotList   inventory.ListInput
}

func (s *stubInventoryService) BulkCreate(_ context.Context, inputs []inventory.ItemInput) (*inventory.BulkResult, error) {
	s.gotBulk = inputs
	return s.bulk, nil
}

func (s *stubInventoryService) Update(_ context.Context, id uuid.UUID, patch inventory.ItemPatch) (*models.InventoryItem, error) {
	s.gotPatch = patch
	return &models.InventoryItem{ID: id}, nil
}

func (s *stubInventoryService) UpdateStatus(_ context.Context, id uuid.UUID, status enums.InventoryStatus) (*models.InventoryItem, error) {
	s.gotStatus = status
	return &models.InventoryItem{ID: id, Status: status}, nil
}

func (s *stubInventoryService) List(_ context.Context, input inventory.ListInput) (*types.ListEnvelope[models.InventoryItem], error) {
	s.gotList = input
	return &types.ListEnvelope[models.InventoryItem]{Items: []models.InventoryItem{}}, nil
}

func TestInventoryBulkCreateStatus(t *testing.T) {
	productID := uuid.New()
	body := `{"items":[{"product_template_id":"` + productID.String() + `","serial_number":"T-1","purchase_date":"2024-03-01"},{"serial_number":"T-1"}]}`

	t.Run("partial success is created", func(t *testing.T) {
		svc := &stubInventoryService{bulk: &inventory.BulkResult{
			Created: []models.InventoryItem{{ID: uuid.New(), SerialNumber: "T-1"}},
			Failed:  []inventory.BulkFailure{{Index: 1, SerialNumber: "T-1", Error: "serial_number duplicates item 0"}},
		}}
		rec := do(InventoryBulkCreate(svc, testLogger()), newRequest(http.MethodPost, "/v1/inventory/bulk", requestOpts{body: body}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.Len(t, svc.gotBulk, 2)
		require.NotNil(t, svc.gotBulk[0].PurchaseDate)
		require.Equal(t, 2024, svc.gotBulk[0].PurchaseDate.Year())
		require.Contains(t, string(decodeEnvelope(t, rec).Data), `"index":1`)
	})

	t.Run("nothing created is a bad request", func(t *testing.T) {
		svc := &stubInventoryService{bulk: &inventory.BulkResult{
			Created: []models.InventoryItem{},
			Failed:  []inventory.BulkFailure{{Index: 0, Error: "serial_number is required"}},
		}}
		rec := do(InventoryBulkCreate(svc, testLogger()), newRequest(http.MethodPost, "/v1/inventory/bulk", requestOpts{body: `{"items":[{}]}`}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		require.Contains(t, env.Details, "failed")
	})

	t.Run("empty batch", func(t *testing.T) {
		rec := do(InventoryBulkCreate(&stubInventoryService{}, testLogger()), newRequest(http.MethodPost, "/v1/inventory/bulk", requestOpts{body: `{"items":[]}`}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInventoryUpdateClearsColor(t *testing.T) {
	svc := &stubInventoryService{}
	id := uuid.New()
	rec := do(InventoryUpdate(svc, testLogger()), newRequest(http.MethodPatch, "/v1/inventory/"+id.String(), requestOpts{
		body:   `{"color_id":null,"location":"Shelf B"}`,
		params: map[string]string{"id": id.String()},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, svc.gotPatch.ColorID.Valid)
	require.Nil(t, svc.gotPatch.ColorID.Value)
	require.Equal(t, "Shelf B", *svc.gotPatch.Location)
}

func TestInventoryUpdateStatusValidatesValue(t *testing.T) {
	svc := &stubInventoryService{}
	id := uuid.New()
	opts := requestOpts{params: map[string]string{"id": id.String()}}

	opts.body = `{"status":"lost"}`
	rec := do(InventoryUpdateStatus(svc, testLogger()), newRequest(http.MethodPatch, "/v1/inventory/"+id.String()+"/status", opts))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	opts.body = `{"status":"maintenance"}`
	rec = do(InventoryUpdateStatus(svc, testLogger()), newRequest(http.MethodPatch, "/v1/inventory/"+id.String()+"/status", opts))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, enums.InventoryStatusMaintenance, svc.gotStatus)
}

func TestInventoryListFilters(t *testing.T) {
	svc := &stubInventoryService{}
	colorID := uuid.New()
	rec := do(InventoryList(svc, testLogger()), newRequest(http.MethodGet, "/v1/inventory?status=available&color_id="+colorID.String()+"&q=T-", requestOpts{}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, enums.InventoryStatusAvailable, *svc.gotList.Filters.Status)
	require.Equal(t, colorID, *svc.gotList.Filters.ColorID)
	require.Nil(t, svc.gotList.Filters.ProductTemplateID)
	require.Equal(t, "T-", svc.gotList.Filters.Query)

	bad := do(InventoryList(svc, testLogger()), newRequest(http.MethodGet, "/v1/inventory?accessory_id=nope", requestOpts{}))
	require.Equal(t, http.StatusBadRequest, bad.Code)
}
