package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"gorm.io/gorm"
)

// MustCreate inserts v or fails the test.
func MustCreate(t *testing.T, conn *gorm.DB, v any) {
	t.Helper()
	if err := conn.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func MustUser(t *testing.T, conn *gorm.DB, role enums.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:     fmt.Sprintf("rw_test_%s@example.com", uuid.NewString()),
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		IsActive:  true,
	}
	MustCreate(t, conn, user)
	return user
}

func MustCategory(t *testing.T, conn *gorm.DB) *models.ProductCategory {
	t.Helper()
	suffix := uuid.NewString()[:8]
	cat := &models.ProductCategory{Name: "Category " + suffix, Slug: "category-" + suffix, IsActive: true}
	MustCreate(t, conn, cat)
	return cat
}

// MustProduct creates an active template priced per day in its own category.
func MustProduct(t *testing.T, conn *gorm.DB, basePriceCents int64) *models.ProductTemplate {
	t.Helper()
	cat := MustCategory(t, conn)
	suffix := uuid.NewString()[:8]
	product := &models.ProductTemplate{
		CategoryID:       cat.ID,
		Name:             "Product " + suffix,
		Slug:             "product-" + suffix,
		BasePriceCents:   basePriceCents,
		RentalPeriodDays: 1,
		IsActive:         true,
	}
	MustCreate(t, conn, product)
	return product
}

func MustColor(t *testing.T, conn *gorm.DB, productID uuid.UUID, name string) *models.ProductColor {
	t.Helper()
	color := &models.ProductColor{ProductTemplateID: productID, Name: name, IsActive: true}
	MustCreate(t, conn, color)
	return color
}

func MustAccessory(t *testing.T, conn *gorm.DB, priceCents int64) *models.Accessory {
	t.Helper()
	suffix := uuid.NewString()[:8]
	acc := &models.Accessory{Name: "Accessory " + suffix, Slug: "accessory-" + suffix, PriceCents: priceCents, IsActive: true}
	MustCreate(t, conn, acc)
	return acc
}

// MustItem creates an available unit of the product.
func MustItem(t *testing.T, conn *gorm.DB, productID uuid.UUID, condition enums.ItemCondition) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		ProductTemplateID: &productID,
		SerialNumber:      "SN-" + uuid.NewString()[:12],
		Status:            enums.InventoryStatusAvailable,
		Condition:         condition,
	}
	MustCreate(t, conn, item)
	return item
}

// MustRental books item for [start, end] with the given status.
func MustRental(t *testing.T, conn *gorm.DB, userID uuid.UUID, item *models.InventoryItem, start, end time.Time, status enums.RentalStatus) *models.Rental {
	t.Helper()
	rental := &models.Rental{
		UserID:            userID,
		InventoryItemID:   &item.ID,
		ProductTemplateID: *item.ProductTemplateID,
		StartDate:         start,
		EndDate:           end,
		Status:            status,
		RentalDays:        1,
	}
	MustCreate(t, conn, rental)
	return rental
}

// Day returns midnight UTC of the given calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
