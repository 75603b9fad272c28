package rentals

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/internal/availability"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// racingPicker hands out units from its queue while ignoring exclusions, the way a locking
// read returns a unit whose overlapping rental committed during the lock wait.
type racingPicker struct {
	queue    []*models.InventoryItem
	booked   map[uuid.UUID]bool
	excluded [][]uuid.UUID
	pickErr  error
}

func (p *racingPicker) PickFree(_ context.Context, q availability.Query) (*models.InventoryItem, error) {
	p.excluded = append(p.excluded, append([]uuid.UUID(nil), q.ExcludeItemIDs...))
	if p.pickErr != nil {
		return nil, p.pickErr
	}
	if len(p.queue) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	item := p.queue[0]
	p.queue = p.queue[1:]
	return item, nil
}

func (p *racingPicker) ItemBooked(_ context.Context, itemID uuid.UUID, _, _ time.Time, _ *uuid.UUID) (bool, error) {
	return p.booked[itemID], nil
}

func TestAssignUnitRechecksBookingAfterLock(t *testing.T) {
	taken := &models.InventoryItem{ID: uuid.New()}
	free := &models.InventoryItem{ID: uuid.New()}
	picker := &racingPicker{
		queue:  []*models.InventoryItem{taken, free},
		booked: map[uuid.UUID]bool{taken.ID: true},
	}

	got, err := assignUnit(context.Background(), picker, availability.Query{ProductTemplateID: uuid.New()})
	require.NoError(t, err)
	require.Equal(t, free.ID, got.ID)
	require.Equal(t, [][]uuid.UUID{nil, {taken.ID}}, picker.excluded)
}

func TestAssignUnitConflictsWhenEveryUnitIsTaken(t *testing.T) {
	taken := &models.InventoryItem{ID: uuid.New()}
	picker := &racingPicker{
		queue:  []*models.InventoryItem{taken},
		booked: map[uuid.UUID]bool{taken.ID: true},
	}
	_, err := assignUnit(context.Background(), picker, availability.Query{})
	require.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = assignUnit(context.Background(), &racingPicker{pickErr: errors.New("connection reset")}, availability.Query{})
	require.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}
