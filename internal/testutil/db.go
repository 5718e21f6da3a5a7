// Package testutil opens throwaway databases and seeds ledger rows for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"fishledger-backend/internal/database"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var nameCleaner = strings.NewReplacer("/", "_", " ", "_", "#", "_")

// OpenDB returns a migrated in-memory sqlite database private to the test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", nameCleaner.Replace(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection keeps shared-cache sqlite from reporting locked tables
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// D parses a decimal literal and panics on typos.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func Supplier(t *testing.T, db *gorm.DB, name string) models.Supplier {
	t.Helper()
	s := models.Supplier{Name: name}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	return s
}

func Customer(t *testing.T, db *gorm.DB, name string) models.Customer {
	t.Helper()
	c := models.Customer{Name: name, Type: models.CustomerTypeRetail}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}

// Purchase seeds a purchase with total_cost = qty * price.
func Purchase(t *testing.T, db *gorm.DB, supplierID uint, qty, price string, date time.Time) models.Purchase {
	t.Helper()
	p := models.Purchase{
		SupplierID:   supplierID,
		PurchaseDate: date,
		QuantityKg:   D(qty),
		PricePerKg:   D(price),
		TotalCost:    D(qty).Mul(D(price)),
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
	return p
}

// Item builds an unsaved sale item.
func Item(purchaseID uint, qty, price string) models.SaleItem {
	return models.SaleItem{
		PurchaseID: purchaseID,
		QuantityKg: D(qty),
		PricePerKg: D(price),
		TotalPrice: D(qty).Mul(D(price)).Round(2),
	}
}

// Sale seeds a sale and its items with totals derived from the items.
func Sale(t *testing.T, db *gorm.DB, customerID uint, date time.Time, credit bool, items ...models.SaleItem) models.Sale {
	t.Helper()
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.TotalPrice)
	}
	s := models.Sale{
		CustomerID:  customerID,
		SaleDate:    date,
		IsCredit:    credit,
		Subtotal:    subtotal,
		TotalAmount: subtotal,
		Items:       items,
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return s
}

func Payment(t *testing.T, db *gorm.DB, saleID uint, amount string, date time.Time) models.Payment {
	t.Helper()
	p := models.Payment{SaleID: saleID, Amount: D(amount), PaymentDate: date}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return p
}

func Expense(t *testing.T, db *gorm.DB, purchaseID *uint, typ models.ExpenseType, amount string, date time.Time) models.Expense {
	t.Helper()
	e := models.Expense{PurchaseID: purchaseID, Type: typ, Amount: D(amount), ExpenseDate: date}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("seed expense: %v", err)
	}
	return e
}

func User(t *testing.T, db *gorm.DB, name string, role models.UserRole) models.User {
	t.Helper()
	u := models.User{Name: name, Email: strings.ToLower(name) + "@example.com", PasswordHash: "x", Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}
