package ledger_test

import (
	"testing"

	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"
	"fishledger-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSaleTotalsWithDeliveryFee(t *testing.T) {
	items := []models.SaleItem{
		testutil.Item(1, "20", "12"),
		testutil.Item(1, "10", "18"),
	}
	got := ledger.ComputeSaleTotals(items, testutil.D("0"), testutil.D("10"))
	assertDecimal(t, "420", got.Subtotal)
	assertDecimal(t, "0", got.DiscountAmount)
	assertDecimal(t, "430", got.TotalAmount)
	assertDecimal(t, "30", got.QuantityKg)
}

func TestComputeSaleTotalsWithDiscount(t *testing.T) {
	items := []models.SaleItem{testutil.Item(1, "20", "12")}
	got := ledger.ComputeSaleTotals(items, testutil.D("12.5"), testutil.D("5"))
	assertDecimal(t, "30", got.DiscountAmount)
	assertDecimal(t, "215", got.TotalAmount)
}

func TestApplySaleTotalsRecomputesLines(t *testing.T) {
	sale := models.Sale{
		DeliveryFee: testutil.D("0"),
		Items: []models.SaleItem{
			{QuantityKg: testutil.D("1.333"), PricePerKg: testutil.D("3")},
		},
	}
	ledger.ApplySaleTotals(&sale)
	assertDecimal(t, "4", sale.Items[0].TotalPrice)
	assertDecimal(t, "4", sale.TotalAmount)
}

func TestValidateReportsJSONPaths(t *testing.T) {
	type line struct {
		QuantityKg string `json:"quantity_kg" validate:"required"`
	}
	type input struct {
		CustomerID uint   `json:"customer_id" validate:"required"`
		Items      []line `json:"items" validate:"min=1,dive"`
	}

	err := ledger.Validate(input{Items: []line{{QuantityKg: "1"}, {}}})
	var ve *ledger.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "is required", ve.Fields["customer_id"])
	assert.Equal(t, "is required", ve.Fields["items[1].quantity_kg"])
	assert.Len(t, ve.Fields, 2)
}
