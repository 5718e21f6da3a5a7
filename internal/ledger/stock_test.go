package ledger_test

import (
	"testing"

	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"
	"fishledger-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, testutil.D(want).Equal(got), "want %s got %s", want, got.String())
}

func TestRemainingQuantityTracksSaleItems(t *testing.T) {
	db := testutil.OpenDB(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	cust := testutil.Customer(t, db, "Mama Put")
	day := testutil.Day(2024, 3, 1)
	p := testutil.Purchase(t, db, sup.ID, "100", "10", day)

	remaining, err := ledger.RemainingQuantity(db, p.ID)
	require.NoError(t, err)
	assertDecimal(t, "100", remaining)

	sale := testutil.Sale(t, db, cust.ID, day, false, testutil.Item(p.ID, "20", "12"))
	remaining, err = ledger.RemainingQuantity(db, p.ID)
	require.NoError(t, err)
	assertDecimal(t, "80", remaining)

	// Excluding the item reproduces the pre-sale state.
	sold, err := ledger.SoldQuantity(db, p.ID, sale.Items[0].ID)
	require.NoError(t, err)
	assertDecimal(t, "0", sold)

	require.NoError(t, db.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error)
	remaining, err = ledger.RemainingQuantity(db, p.ID)
	require.NoError(t, err)
	assertDecimal(t, "100", remaining)
}

func TestRemainingQuantityClampsCorruptedData(t *testing.T) {
	db := testutil.OpenDB(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	cust := testutil.Customer(t, db, "Mama Put")
	day := testutil.Day(2024, 3, 1)
	p := testutil.Purchase(t, db, sup.ID, "10", "10", day)
	testutil.Sale(t, db, cust.ID, day, false, testutil.Item(p.ID, "15", "12"))

	level, err := ledger.PurchaseStockLevel(db, p.ID)
	require.NoError(t, err)
	assertDecimal(t, "-5", level.RemainingKg)
	assertDecimal(t, "0", level.Available())

	// stored quantity untouched
	var stored models.Purchase
	require.NoError(t, db.First(&stored, p.ID).Error)
	assertDecimal(t, "10", stored.QuantityKg)
}

func TestRemainingQuantityUnknownPurchase(t *testing.T) {
	db := testutil.OpenDB(t)
	_, err := ledger.RemainingQuantity(db, 999)
	var nf *ledger.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "purchase", nf.Entity)
}

func TestStockBySupplierAndGlobal(t *testing.T) {
	db := testutil.OpenDB(t)
	a := testutil.Supplier(t, db, "Alpha Fisheries")
	b := testutil.Supplier(t, db, "Bravo Nets")
	testutil.Supplier(t, db, "Charlie Empty")
	cust := testutil.Customer(t, db, "Mama Put")
	day := testutil.Day(2024, 3, 1)

	a1 := testutil.Purchase(t, db, a.ID, "50", "8", day)
	a2 := testutil.Purchase(t, db, a.ID, "30", "9", day)
	b1 := testutil.Purchase(t, db, b.ID, "40", "7", day)
	testutil.Sale(t, db, cust.ID, day, false,
		testutil.Item(a1.ID, "10", "12"),
		testutil.Item(a2.ID, "30", "12"),
		testutil.Item(b1.ID, "5", "11"),
	)

	stocks, err := ledger.StockBySupplier(db)
	require.NoError(t, err)
	require.Len(t, stocks, 3)
	assert.Equal(t, "Alpha Fisheries", stocks[0].SupplierName)
	assertDecimal(t, "80", stocks[0].PurchasedKg)
	assertDecimal(t, "40", stocks[0].SoldKg)
	assertDecimal(t, "40", stocks[0].RemainingKg)
	assertDecimal(t, "35", stocks[1].RemainingKg)
	assertDecimal(t, "0", stocks[2].RemainingKg)

	supplierA, err := ledger.SupplierRemainingStock(db, a.ID)
	require.NoError(t, err)
	assertDecimal(t, "40", supplierA)

	total, err := ledger.CurrentStock(db)
	require.NoError(t, err)
	assertDecimal(t, "75", total)
}

func TestStockEngineIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	cust := testutil.Customer(t, db, "Mama Put")
	day := testutil.Day(2024, 3, 1)
	p := testutil.Purchase(t, db, sup.ID, "60", "10", day)
	testutil.Sale(t, db, cust.ID, day, false, testutil.Item(p.ID, "25", "12"))

	first, err := ledger.PurchaseStockLevels(db, ledger.StockFilter{})
	require.NoError(t, err)
	second, err := ledger.PurchaseStockLevels(db, ledger.StockFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.True(t, first[0].RemainingKg.Equal(second[0].RemainingKg))
	assertDecimal(t, "35", first[0].RemainingKg)
}
