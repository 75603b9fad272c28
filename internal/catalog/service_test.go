package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db/dbtest"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/pagination"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}

func TestCreateCategoryDerivesSlugAndRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: "Party Tents"})
	require.NoError(t, err)
	require.Equal(t, "party-tents", cat.Slug)
	require.True(t, cat.IsActive)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "party tents!"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "   "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListCategoriesHidesInactive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	inactive := false

	_, err := svc.CreateCategory(ctx, CategoryInput{Name: "Visible"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Hidden", IsActive: &inactive})
	require.NoError(t, err)

	public, err := svc.ListCategories(ctx, false)
	require.NoError(t, err)
	require.Len(t, public, 1)

	all, err := svc.ListCategories(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestDeleteCategoryInUse(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, conn, 1000)

	err := svc.DeleteCategory(ctx, product.CategoryID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	empty := dbtest.MustCategory(t, conn)
	require.NoError(t, svc.DeleteCategory(ctx, empty.ID))
	require.True(t, pkgerrors.IsCode(svc.DeleteCategory(ctx, empty.ID), pkgerrors.CodeNotFound))
}

func TestProductLifecycle(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	cat := dbtest.MustCategory(t, conn)

	product, err := svc.CreateProduct(ctx, ProductInput{
		CategoryID:     cat.ID,
		Name:           "Folding Chair",
		BasePriceCents: 350,
		DepositCents:   1000,
	})
	require.NoError(t, err)
	require.Equal(t, "folding-chair", product.Slug)
	require.Equal(t, 1, product.RentalPeriodDays)

	_, err = svc.CreateProduct(ctx, ProductInput{CategoryID: cat.ID, Name: "Folding Chair"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.CreateProduct(ctx, ProductInput{CategoryID: uuid.New(), Name: "Orphan"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	price := int64(400)
	updated, err := svc.UpdateProduct(ctx, product.ID, ProductPatch{BasePriceCents: &price})
	require.NoError(t, err)
	require.EqualValues(t, 400, updated.BasePriceCents)

	negative := int64(-1)
	_, err = svc.UpdateProduct(ctx, product.ID, ProductPatch{DepositCents: &negative})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddColor(ctx, product.ID, ColorInput{Name: "White"})
	require.NoError(t, err)
	_, err = svc.AddColor(ctx, product.ID, ColorInput{Name: "White"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	detail, err := svc.GetProduct(ctx, product.ID, false)
	require.NoError(t, err)
	require.Len(t, detail.Colors, 1)
	require.Empty(t, detail.Accessories)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID))
	_, err = svc.GetProduct(ctx, product.ID, true)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetProductHidesInactiveFromPublic(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, conn, 100)
	require.NoError(t, conn.Model(&models.ProductTemplate{}).Where("id = ?", product.ID).Update("is_active", false).Error)

	_, err := svc.GetProduct(ctx, product.ID, false)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetProduct(ctx, product.ID, true)
	require.NoError(t, err)
}

func TestDeleteProductReferencedByInventory(t *testing.T) {
	svc, conn := newTestService(t)
	product := dbtest.MustProduct(t, conn, 100)
	dbtest.MustItem(t, conn, product.ID, enums.ItemConditionGood)

	err := svc.DeleteProduct(context.Background(), product.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestListProductsFiltersAndPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	cat := dbtest.MustCategory(t, conn)

	for _, name := range []string{"Round Table", "Square Table", "Chair"} {
		_, err := svc.CreateProduct(ctx, ProductInput{CategoryID: cat.ID, Name: name, BasePriceCents: 100})
		require.NoError(t, err)
	}
	dbtest.MustProduct(t, conn, 100)

	page, err := svc.ListProducts(ctx, ListProductsInput{
		Filters:    ProductFilters{CategoryID: &cat.ID, Query: "table"},
		Pagination: pagination.Params{Limit: 1},
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Round Table", page.Items[0].Name)

	all, err := svc.ListProducts(ctx, ListProductsInput{})
	require.NoError(t, err)
	require.EqualValues(t, 4, all.Total)
	require.Equal(t, pagination.DefaultLimit, all.Limit)
}

func TestColorUpdateAndDelete(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	product := dbtest.MustProduct(t, conn, 100)
	color := dbtest.MustColor(t, conn, product.ID, "Black")

	hex := "#000000"
	updated, err := svc.UpdateColor(ctx, color.ID, ColorPatch{HexCode: &hex})
	require.NoError(t, err)
	require.Equal(t, "#000000", *updated.HexCode)

	require.NoError(t, svc.DeleteColor(ctx, color.ID))
	require.True(t, pkgerrors.IsCode(svc.DeleteColor(ctx, color.ID), pkgerrors.CodeNotFound))
}
