package actions

import (
	"context"
	"testing"
	"time"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/config"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"
	"fishledger-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingListener struct{ n int }

func (l *countingListener) LedgerChanged(context.Context) { l.n++ }

type fixture struct {
	svc      *Service
	db       *gorm.DB
	admin    auth.Caller
	clerk    auth.Caller
	listener *countingListener
	supplier models.Supplier
	customer models.Customer
}

var dec = testutil.D

var testNow = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	admin := testutil.User(t, db, "Ada", models.RoleAdmin)
	clerk := testutil.User(t, db, "Cleo", models.RoleClerk)
	l := &countingListener{}
	svc := NewService(db, config.NewLogger("error"), WithListener(l), WithClock(func() time.Time { return testNow }))
	return &fixture{
		svc:      svc,
		db:       db,
		admin:    auth.NewCaller(admin.ID, admin.Name, admin.Role),
		clerk:    auth.NewCaller(clerk.ID, clerk.Name, clerk.Role),
		listener: l,
		supplier: testutil.Supplier(t, db, "Harbour Co"),
		customer: testutil.Customer(t, db, "Mama Put"),
	}
}

func (f *fixture) purchase(t *testing.T, qty, price string) models.Purchase {
	t.Helper()
	p, err := f.svc.RecordPurchase(context.Background(), f.admin, PurchaseInput{
		SupplierID:   f.supplier.ID,
		PurchaseDate: "2024-03-01",
		QuantityKg:   testutil.D(qty),
		PricePerKg:   testutil.D(price),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) saleInput(credit bool, items ...SaleItemInput) SaleInput {
	return SaleInput{
		CustomerID: f.customer.ID,
		SaleDate:   "2024-03-02",
		IsCredit:   credit,
		Items:      items,
	}
}

func line(purchaseID uint, qty, price string) SaleItemInput {
	return SaleItemInput{PurchaseID: purchaseID, QuantityKg: testutil.D(qty), PricePerKg: testutil.D(price)}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, testutil.D(want).Equal(got), "want %s got %s", want, got.String())
}

func requireViolation(t *testing.T, err error, rule string) *ledger.BusinessRuleViolation {
	t.Helper()
	var v *ledger.BusinessRuleViolation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, rule, v.Rule)
	return v
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestPermissionDeniedBeforeAnyWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, "10", "10")
	sale, err := f.svc.RecordSale(ctx, f.clerk, f.saleInput(false, line(p.ID, "2", "12")))
	require.NoError(t, err)

	audits := countRows(t, f.db, &models.AuditLog{})
	err = f.svc.DeleteSale(ctx, f.clerk, sale.ID)
	var pe *auth.PermissionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, auth.PermSaleDelete, pe.Permission)
	assert.Equal(t, audits, countRows(t, f.db, &models.AuditLog{}))
	assert.Equal(t, int64(1), countRows(t, f.db, &models.Sale{}))
}

func TestListenerOnlyNotifiedOnCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, "10", "10")
	assert.Equal(t, 1, f.listener.n)

	_, err := f.svc.RecordSale(ctx, f.admin, f.saleInput(false, line(p.ID, "11", "12")))
	require.Error(t, err)
	assert.Equal(t, 1, f.listener.n)

	_, err = f.svc.RecordSale(ctx, f.admin, f.saleInput(false, line(p.ID, "10", "12")))
	require.NoError(t, err)
	assert.Equal(t, 2, f.listener.n)
}
