package rentals

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/internal/availability"
	"github.com/rentwise/rentwise-backend/internal/pricing"
	"github.com/rentwise/rentwise-backend/pkg/auth"
	"github.com/rentwise/rentwise-backend/pkg/db/dbtest"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc      Service
	conn     *gorm.DB
	customer auth.Actor
	staff    auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()

	pricingSvc, err := pricing.NewService(pricing.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(conn),
		Availability: availability.NewRepository(conn),
		Pricing:      pricingSvc,
		Tx:           client,
		Now:          func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	customer := dbtest.MustUser(t, conn, enums.RoleCustomer)
	staff := dbtest.MustUser(t, conn, enums.RoleStaff)
	return &fixture{
		svc:      svc,
		conn:     conn,
		customer: auth.Actor{UserID: customer.ID, Role: enums.RoleCustomer},
		staff:    auth.Actor{UserID: staff.ID, Role: enums.RoleStaff},
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	return pkgerrors.MetadataFor(typed.Code()).HTTPStatus
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestCreatePricesAndBooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, f.conn, 2500)
	item := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)

	rental, err := f.svc.Create(ctx, f.customer, CreateInput{
		InventoryItemID: item.ID,
		StartDate:       dbtest.Day(2025, 6, 12),
		EndDate:         dbtest.Day(2025, 6, 15),
	})
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusPending, rental.Status)
	require.Equal(t, f.customer.UserID, rental.UserID)
	require.Equal(t, 3, rental.RentalDays)
	require.EqualValues(t, 7500, rental.TotalCents)
}

func TestCreateUnavailableEquipmentConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, f.conn, 1000)
	item := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)

	in := CreateInput{InventoryItemID: item.ID, StartDate: dbtest.Day(2025, 6, 12), EndDate: dbtest.Day(2025, 6, 14)}
	_, err := f.svc.Create(ctx, f.customer, in)
	require.NoError(t, err)

	in.StartDate, in.EndDate = dbtest.Day(2025, 6, 14), dbtest.Day(2025, 6, 16)
	_, err = f.svc.Create(ctx, f.customer, in)
	require.Equal(t, http.StatusConflict, statusOf(t, err))

	broken := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionPoor)
	require.NoError(t, f.conn.Model(&models.InventoryItem{}).Where("id = ?", broken.ID).Update("status", enums.InventoryStatusMaintenance).Error)
	_, err = f.svc.Create(ctx, f.customer, CreateInput{InventoryItemID: broken.ID, StartDate: dbtest.Day(2025, 7, 1), EndDate: dbtest.Day(2025, 7, 2)})
	require.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = f.svc.Create(ctx, f.customer, CreateInput{InventoryItemID: uuid.New(), StartDate: dbtest.Day(2025, 7, 1), EndDate: dbtest.Day(2025, 7, 2)})
	require.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestCreateDateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, f.conn, 1000)
	item := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)

	_, err := f.svc.Create(ctx, f.customer, CreateInput{InventoryItemID: item.ID, StartDate: dbtest.Day(2025, 6, 14), EndDate: dbtest.Day(2025, 6, 12)})
	require.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.svc.Create(ctx, f.customer, CreateInput{InventoryItemID: item.ID, StartDate: dbtest.Day(2025, 6, 9), EndDate: dbtest.Day(2025, 6, 12)})
	require.Equal(t, http.StatusBadRequest, statusOf(t, err))

	// today is allowed, and staff may backdate on behalf of a customer
	_, err = f.svc.Create(ctx, f.customer, CreateInput{InventoryItemID: item.ID, StartDate: dbtest.Day(2025, 6, 10), EndDate: dbtest.Day(2025, 6, 10)})
	require.NoError(t, err)

	other := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)
	rental, err := f.svc.Create(ctx, f.staff, CreateInput{
		UserID:          &f.customer.UserID,
		InventoryItemID: other.ID,
		StartDate:       dbtest.Day(2025, 6, 1),
		EndDate:         dbtest.Day(2025, 6, 2),
	})
	require.NoError(t, err)
	require.Equal(t, f.customer.UserID, rental.UserID)
}

func TestCancelTwiceIsBadRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, f.conn, 1000)
	item := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)

	rental, err := f.svc.Create(ctx, f.customer, CreateInput{InventoryItemID: item.ID, StartDate: dbtest.Day(2025, 6, 12), EndDate: dbtest.Day(2025, 6, 13)})
	require.NoError(t, err)

	reason := "changed plans"
	cancelled, err := f.svc.Cancel(ctx, f.customer, rental.ID, &reason)
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	require.Equal(t, reason, *cancelled.CancelReason)

	_, err = f.svc.Cancel(ctx, f.customer, rental.ID, nil)
	require.Equal(t, http.StatusBadRequest, statusOf(t, err))

	// the unit is bookable again
	_, err = f.svc.Create(ctx, f.customer, CreateInput{InventoryItemID: item.ID, StartDate: dbtest.Day(2025, 6, 12), EndDate: dbtest.Day(2025, 6, 13)})
	require.NoError(t, err)
}

func TestCancelByAnotherCustomerIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, f.conn, 1000)
	item := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)
	rental, err := f.svc.Create(ctx, f.customer, CreateInput{InventoryItemID: item.ID, StartDate: dbtest.Day(2025, 6, 12), EndDate: dbtest.Day(2025, 6, 13)})
	require.NoError(t, err)

	stranger := auth.Actor{UserID: dbtest.MustUser(t, f.conn, enums.RoleCustomer).ID, Role: enums.RoleCustomer}
	_, err = f.svc.Cancel(ctx, stranger, rental.ID, nil)
	require.Equal(t, http.StatusForbidden, statusOf(t, err))
	_, err = f.svc.Get(ctx, stranger, rental.ID)
	require.Equal(t, http.StatusForbidden, statusOf(t, err))

	got, err := f.svc.Get(ctx, f.staff, rental.ID)
	require.NoError(t, err)
	require.Equal(t, rental.ID, got.ID)
}

func TestStatusTransitionsDriveItemStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, f.conn, 1000)
	item := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)
	rental, err := f.svc.Create(ctx, f.customer, CreateInput{InventoryItemID: item.ID, StartDate: dbtest.Day(2025, 6, 10), EndDate: dbtest.Day(2025, 6, 12)})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.customer, rental.ID, enums.RentalStatusConfirmed)
	require.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = f.svc.UpdateStatus(ctx, f.staff, rental.ID, enums.RentalStatusActive)
	require.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.svc.UpdateStatus(ctx, f.staff, rental.ID, enums.RentalStatusConfirmed)
	require.NoError(t, err)

	active, err := f.svc.UpdateStatus(ctx, f.staff, rental.ID, enums.RentalStatusActive)
	require.NoError(t, err)
	require.NotNil(t, active.PickedUpAt)
	requireItemStatus(t, f.conn, item.ID, enums.InventoryStatusRented)

	_, err = f.svc.Cancel(ctx, f.customer, rental.ID, nil)
	require.Equal(t, http.StatusBadRequest, statusOf(t, err))

	done, err := f.svc.UpdateStatus(ctx, f.staff, rental.ID, enums.RentalStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, done.ReturnedAt)
	requireItemStatus(t, f.conn, item.ID, enums.InventoryStatusAvailable)

	_, err = f.svc.UpdateStatus(ctx, f.staff, rental.ID, enums.RentalStatusActive)
	require.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func requireItemStatus(t *testing.T, conn *gorm.DB, id uuid.UUID, want enums.InventoryStatus) {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, conn.First(&item, "id = ?", id).Error)
	require.Equal(t, want, item.Status)
}

func linkedAccessory(t *testing.T, conn *gorm.DB, productID uuid.UUID, price int64, required bool) *models.Accessory {
	t.Helper()
	acc := dbtest.MustAccessory(t, conn, price)
	dbtest.MustCreate(t, conn, &models.ProductAccessoryLink{ProductTemplateID: productID, AccessoryID: acc.ID, IsRequired: required})
	return acc
}

func TestCreateEnhancedAutoAssignsWithoutOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, f.conn, 1000)
	first := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionNew)
	second := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionFair)
	cover := linkedAccessory(t, f.conn, product.ID, 300, true)

	in := EnhancedInput{
		ProductTemplateID: product.ID,
		Accessories:       []AccessorySelection{{AccessoryID: cover.ID, Quantity: 2}},
		StartDate:         dbtest.Day(2025, 6, 20),
		EndDate:           dbtest.Day(2025, 6, 22),
	}

	a, err := f.svc.CreateEnhanced(ctx, f.customer, in)
	require.NoError(t, err)
	require.Equal(t, first.ID, *a.InventoryItemID)
	require.EqualValues(t, 600, a.AccessoriesCents)
	require.EqualValues(t, 2600, a.TotalCents)
	require.Len(t, a.Accessories, 1)

	b, err := f.svc.CreateEnhanced(ctx, f.customer, in)
	require.NoError(t, err)
	require.Equal(t, second.ID, *b.InventoryItemID)

	_, err = f.svc.CreateEnhanced(ctx, f.customer, in)
	require.Equal(t, http.StatusConflict, statusOf(t, err))

	// a later, disjoint range gets the best unit again
	in.StartDate, in.EndDate = dbtest.Day(2025, 6, 23), dbtest.Day(2025, 6, 24)
	c, err := f.svc.CreateEnhanced(ctx, f.customer, in)
	require.NoError(t, err)
	require.Equal(t, first.ID, *c.InventoryItemID)

	var stored []models.RentalAccessory
	require.NoError(t, f.conn.Where("rental_id = ?", a.ID).Find(&stored).Error)
	require.Len(t, stored, 1)
	require.EqualValues(t, 300, stored[0].UnitPriceCents)
}

func TestCreateEnhancedValidatesSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, f.conn, 1000)
	dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)
	required := linkedAccessory(t, f.conn, product.ID, 100, true)
	unlinked := dbtest.MustAccessory(t, f.conn, 100)
	foreignColor := dbtest.MustColor(t, f.conn, dbtest.MustProduct(t, f.conn, 1).ID, "Red")

	base := EnhancedInput{ProductTemplateID: product.ID, StartDate: dbtest.Day(2025, 6, 20), EndDate: dbtest.Day(2025, 6, 21)}

	_, err := f.svc.CreateEnhanced(ctx, f.customer, base)
	require.Equal(t, http.StatusBadRequest, statusOf(t, err), "missing required accessory")

	in := base
	in.Accessories = []AccessorySelection{{AccessoryID: required.ID, Quantity: 1}, {AccessoryID: unlinked.ID, Quantity: 1}}
	_, err = f.svc.CreateEnhanced(ctx, f.customer, in)
	require.Equal(t, http.StatusBadRequest, statusOf(t, err), "unlinked accessory")

	in = base
	in.Accessories = []AccessorySelection{{AccessoryID: required.ID, Quantity: 1}}
	in.ColorID = &foreignColor.ID
	_, err = f.svc.CreateEnhanced(ctx, f.customer, in)
	require.Equal(t, http.StatusBadRequest, statusOf(t, err), "foreign color")

	in.ColorID = nil
	in.ModifierCodes = []string{"NOPE"}
	_, err = f.svc.CreateEnhanced(ctx, f.customer, in)
	require.Equal(t, http.StatusBadRequest, statusOf(t, err), "unknown modifier")

	var count int64
	require.NoError(t, f.conn.Model(&models.Rental{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestQuoteAppliesModifiersWithoutBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, f.conn, 1000)
	dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)
	dbtest.MustCreate(t, f.conn, &models.PricingModifier{
		Code: "HALF", Name: "Half off", Kind: enums.ModifierKindDiscount,
		Percentage: decimal.NewFromInt(50), AppliesTo: enums.ModifierTargetSubtotal, IsActive: true,
	})

	q, err := f.svc.Quote(ctx, EnhancedInput{
		ProductTemplateID: product.ID,
		StartDate:         dbtest.Day(2025, 6, 20),
		EndDate:           dbtest.Day(2025, 6, 24),
		ModifierCodes:     []string{"half"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 4000, q.SubtotalCents)
	require.EqualValues(t, 2000, q.DiscountCents)
	require.EqualValues(t, 2000, q.TotalCents)
	require.EqualValues(t, 1, q.AvailableUnits)
	require.Equal(t, []string{"HALF"}, q.AppliedModifiers)

	var count int64
	require.NoError(t, f.conn.Model(&models.Rental{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestListScopesCustomersToTheirOwnRentals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, f.conn, 1000)
	item := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)
	other := dbtest.MustUser(t, f.conn, enums.RoleCustomer)

	dbtest.MustRental(t, f.conn, f.customer.UserID, item, dbtest.Day(2025, 6, 1), dbtest.Day(2025, 6, 2), enums.RentalStatusCompleted)
	dbtest.MustRental(t, f.conn, other.ID, item, dbtest.Day(2025, 6, 3), dbtest.Day(2025, 6, 4), enums.RentalStatusCompleted)

	mine, err := f.svc.List(ctx, f.customer, ListInput{Filters: ListFilters{UserID: &other.ID}})
	require.NoError(t, err)
	require.EqualValues(t, 1, mine.Total)
	require.Equal(t, f.customer.UserID, mine.Items[0].UserID)

	all, err := f.svc.List(ctx, f.staff, ListInput{})
	require.NoError(t, err)
	require.EqualValues(t, 2, all.Total)

	from := dbtest.Day(2025, 6, 4)
	windowed, err := f.svc.List(ctx, f.staff, ListInput{Filters: ListFilters{From: &from}})
	require.NoError(t, err)
	require.EqualValues(t, 1, windowed.Total)
}

func TestSweeps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, f.conn, 1000)
	late := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)
	onTime := dbtest.MustItem(t, f.conn, product.ID, enums.ItemConditionGood)

	overdue := dbtest.MustRental(t, f.conn, f.customer.UserID, late, dbtest.Day(2025, 6, 1), dbtest.Day(2025, 6, 9), enums.RentalStatusActive)
	dbtest.MustRental(t, f.conn, f.customer.UserID, onTime, dbtest.Day(2025, 6, 1), dbtest.Day(2025, 6, 10), enums.RentalStatusActive)
	stale := dbtest.MustRental(t, f.conn, f.customer.UserID, onTime, dbtest.Day(2025, 6, 9), dbtest.Day(2025, 6, 20), enums.RentalStatusPending)
	dbtest.MustRental(t, f.conn, f.customer.UserID, late, dbtest.Day(2025, 6, 10), dbtest.Day(2025, 6, 20), enums.RentalStatusPending)

	res, err := f.svc.MarkOverdue(ctx)
	require.NoError(t, err)
	require.Equal(t, SweepResult{Matched: 1, Updated: 1}, res)
	got, err := f.svc.Get(ctx, f.staff, overdue.ID)
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusOverdue, got.Status)

	res, err = f.svc.ExpirePending(ctx)
	require.NoError(t, err)
	require.Equal(t, SweepResult{Matched: 1, Updated: 1}, res)
	got, err = f.svc.Get(ctx, f.staff, stale.ID)
	require.NoError(t, err)
	require.Equal(t, enums.RentalStatusCancelled, got.Status)
	require.Equal(t, ExpiredReason, *got.CancelReason)
}
