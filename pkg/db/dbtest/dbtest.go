// Package dbtest opens throwaway sqlite databases migrated with the ledger
// models, for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/agency-ledger/pkg/db"
	"github.com/angelmondragon/agency-ledger/pkg/db/models"
	"github.com/angelmondragon/agency-ledger/pkg/enums"
)

// Open returns an isolated in-memory database. A single connection is kept
// open so concurrent transactions queue instead of failing with SQLITE_BUSY.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return conn
}

// OpenClient wraps Open in a db.Client.
func OpenClient(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.FromGorm(conn), conn
}

// SeedRetailer inserts a retailer with the given balances.
func SeedRetailer(t testing.TB, conn *gorm.DB, shopName, due, advance string) *models.Retailer {
	t.Helper()
	retailer := &models.Retailer{
		UserName:     shopName + " owner",
		ShopName:     shopName,
		Address:      "Market Road",
		MobileNumber: "01" + uuid.NewString()[:9],
		PasswordHash: "hash",
		Role:         enums.RoleRetailer,
		DueAmount:    decimal.RequireFromString(due),
		Advance:      decimal.RequireFromString(advance),
	}
	if err := conn.Create(retailer).Error; err != nil {
		t.Fatalf("seed retailer: %v", err)
	}
	return retailer
}

// SeedProduct inserts an available product.
func SeedProduct(t testing.TB, conn *gorm.DB, name, price, cost string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Cost:   decimal.RequireFromString(cost),
		Status: enums.ProductStatusAvailable,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedOrder inserts a morning order for the retailer holding one line of the
// product. Balances are not touched.
func SeedOrder(t testing.TB, conn *gorm.DB, retailerID uuid.UUID, product *models.Product, quantity int) *models.Order {
	t.Helper()
	qty := decimal.NewFromInt(int64(quantity))
	now := time.Now().UTC()
	order := &models.Order{
		RetailerID:  retailerID,
		OrderDate:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		OrderTime:   now,
		TotalAmount: product.Price.Mul(qty),
		CostAmount:  product.Cost.Mul(qty),
		Lines: []models.OrderLine{{
			ProductID:    product.ID,
			Quantity:     quantity,
			UnitPrice:    product.Price,
			UnitCost:     product.Cost,
			Subtotal:     product.Price.Mul(qty),
			CostSubtotal: product.Cost.Mul(qty),
		}},
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

// ReloadRetailer reads the retailer row back from the store.
func ReloadRetailer(t testing.TB, conn *gorm.DB, id uuid.UUID) *models.Retailer {
	t.Helper()
	var retailer models.Retailer
	if err := conn.First(&retailer, "id = ?", id).Error; err != nil {
		t.Fatalf("reload retailer: %v", err)
	}
	return &retailer
}

// RequireDecimal fails the test unless got equals want numerically.
func RequireDecimal(t testing.TB, want string, got decimal.Decimal, label string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", label, want, got.String())
	}
}
