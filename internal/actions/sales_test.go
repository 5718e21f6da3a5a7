package actions

import (
	"context"
	"testing"

	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleConsumesWholePurchaseThenRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, "100", "10")

	_, err := f.svc.RecordSale(ctx, f.clerk, f.saleInput(false, line(p.ID, "100", "12")))
	require.NoError(t, err)

	remaining, err := ledger.RemainingQuantity(f.db, p.ID)
	require.NoError(t, err)
	assertDecimal(t, "0", remaining)

	_, err = f.svc.RecordSale(ctx, f.clerk, f.saleInput(false, line(p.ID, "0.5", "12")))
	v := requireViolation(t, err, ledger.RuleInsufficientStock)
	assert.Equal(t, p.ID, v.EntityID)
	assert.Equal(t, 0, v.ItemIndex)
	assert.Equal(t, int64(1), countRows(t, f.db, &models.Sale{}))
}

func TestSaleTotalsWithDeliveryFee(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(t, "100", "10")
	in := f.saleInput(false, line(p.ID, "20", "12"), line(p.ID, "10", "18"))
	in.IsDelivery = true
	in.DeliveryFee = dec("10")

	sale, err := f.svc.RecordSale(context.Background(), f.clerk, in)
	require.NoError(t, err)
	assertDecimal(t, "420", sale.Subtotal)
	assertDecimal(t, "0", sale.DiscountAmount)
	assertDecimal(t, "430", sale.TotalAmount)
	require.Len(t, sale.Items, 2)
	assertDecimal(t, "180", sale.Items[1].TotalPrice)

	var stored models.Sale
	require.NoError(t, f.db.First(&stored, sale.ID).Error)
	assertDecimal(t, "430", stored.TotalAmount)
}

func TestSaleDiscountApplied(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(t, "100", "10")
	in := f.saleInput(false, line(p.ID, "20", "12"))
	in.DiscountPercentage = dec("10")

	sale, err := f.svc.RecordSale(context.Background(), f.clerk, in)
	require.NoError(t, err)
	assertDecimal(t, "24", sale.DiscountAmount)
	assertDecimal(t, "216", sale.TotalAmount)
}

func TestInsufficientStockPointsAtOffendingItem(t *testing.T) {
	f := newFixture(t)
	plenty := f.purchase(t, "100", "10")
	scarce := f.purchase(t, "10", "10")

	_, err := f.svc.RecordSale(context.Background(), f.clerk,
		f.saleInput(false, line(plenty.ID, "5", "12"), line(scarce.ID, "15", "12")))
	v := requireViolation(t, err, ledger.RuleInsufficientStock)
	assert.Equal(t, 1, v.ItemIndex)
	assert.Equal(t, "items[1].quantity_kg", v.Field)
	assert.Equal(t, scarce.ID, v.EntityID)

	assert.Equal(t, int64(0), countRows(t, f.db, &models.Sale{}))
	assert.Equal(t, int64(0), countRows(t, f.db, &models.SaleItem{}))
}

func TestItemsOnSamePurchaseCheckedTogether(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(t, "10", "10")

	_, err := f.svc.RecordSale(context.Background(), f.clerk,
		f.saleInput(false, line(p.ID, "6", "12"), line(p.ID, "6", "12")))
	v := requireViolation(t, err, ledger.RuleInsufficientStock)
	assert.Equal(t, 1, v.ItemIndex)
	assert.Contains(t, v.Reason, "4 kg available")
}

func TestSaleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, "10", "10")

	in := f.saleInput(false, line(p.ID, "0", "12"), line(999, "1", "12"))
	in.CustomerID = 0
	_, err := f.svc.RecordSale(ctx, f.clerk, in)
	var ve *ledger.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "customer_id")
	assert.Contains(t, ve.Fields, "items[0].quantity_kg")

	_, err = f.svc.RecordSale(ctx, f.clerk, f.saleInput(false, line(999, "1", "12")))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "does not exist", ve.Fields["items[0].purchase_id"])

	bad := f.saleInput(false, line(p.ID, "1", "12"))
	bad.SaleDate = "02/03/2024"
	_, err = f.svc.RecordSale(ctx, f.clerk, bad)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "sale_date")

	noItems := f.saleInput(false)
	_, err = f.svc.RecordSale(ctx, f.clerk, noItems)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "items")

	fee := f.saleInput(false, line(p.ID, "1", "12"))
	fee.DeliveryFee = dec("5")
	_, err = f.svc.RecordSale(ctx, f.clerk, fee)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "delivery_fee")
}

func TestUpdateSaleReallocatesOwnItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, "10", "10")
	sale, err := f.svc.RecordSale(ctx, f.clerk, f.saleInput(false, line(p.ID, "10", "12")))
	require.NoError(t, err)

	updated, err := f.svc.UpdateSale(ctx, f.clerk, sale.ID, f.saleInput(false, line(p.ID, "4", "12"), line(p.ID, "6", "13")))
	require.NoError(t, err)
	assertDecimal(t, "126", updated.TotalAmount)
	assert.Equal(t, int64(2), countRows(t, f.db, &models.SaleItem{}))

	_, err = f.svc.UpdateSale(ctx, f.clerk, sale.ID, f.saleInput(false, line(p.ID, "11", "12")))
	requireViolation(t, err, ledger.RuleInsufficientStock)

	view, err := f.svc.GetSale(ctx, f.clerk, sale.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assertDecimal(t, "10", view.QuantityKg)
	assert.Equal(t, "Mama Put", view.CustomerName)
}

func TestUpdateSaleItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, "10", "10")
	sale, err := f.svc.RecordSale(ctx, f.clerk, f.saleInput(false, line(p.ID, "4", "10"), line(p.ID, "4", "10")))
	require.NoError(t, err)
	first := sale.Items[0].ID

	updated, err := f.svc.UpdateSaleItem(ctx, f.clerk, sale.ID, first, line(p.ID, "6", "10"))
	require.NoError(t, err)
	assertDecimal(t, "100", updated.TotalAmount)

	// the other item still holds 4 kg
	_, err = f.svc.UpdateSaleItem(ctx, f.clerk, sale.ID, first, line(p.ID, "7", "10"))
	v := requireViolation(t, err, ledger.RuleInsufficientStock)
	assert.Equal(t, "quantity_kg", v.Field)
	assert.Equal(t, 0, v.ItemIndex)

	_, err = f.svc.UpdateSaleItem(ctx, f.clerk, sale.ID, 9999, line(p.ID, "1", "10"))
	var nf *ledger.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestUpdateSaleRespectsPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, "100", "10")
	sale, err := f.svc.RecordSale(ctx, f.clerk, f.saleInput(true, line(p.ID, "10", "10")))
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(ctx, f.clerk, PaymentInput{SaleID: sale.ID, PaymentDate: "2024-03-05", Amount: dec("80")})
	require.NoError(t, err)

	_, err = f.svc.UpdateSale(ctx, f.clerk, sale.ID, f.saleInput(true, line(p.ID, "5", "10")))
	requireViolation(t, err, ledger.RulePaymentsExceedTotal)

	_, err = f.svc.UpdateSale(ctx, f.clerk, sale.ID, f.saleInput(false, line(p.ID, "10", "10")))
	requireViolation(t, err, ledger.RuleNotCreditSale)

	_, err = f.svc.UpdateSale(ctx, f.clerk, sale.ID, f.saleInput(true, line(p.ID, "9", "10")))
	require.NoError(t, err)
}

func TestDeleteSaleCascadesUnlessReceipted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, "100", "10")
	sale, err := f.svc.RecordSale(ctx, f.clerk, f.saleInput(true, line(p.ID, "10", "10")))
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(ctx, f.clerk, PaymentInput{SaleID: sale.ID, PaymentDate: "2024-03-05", Amount: dec("20")})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSale(ctx, f.admin, sale.ID))
	assert.Equal(t, int64(0), countRows(t, f.db, &models.SaleItem{}))
	assert.Equal(t, int64(0), countRows(t, f.db, &models.Payment{}))
	remaining, err := ledger.RemainingQuantity(f.db, p.ID)
	require.NoError(t, err)
	assertDecimal(t, "100", remaining)

	receipted, err := f.svc.RecordSale(ctx, f.clerk, f.saleInput(false, line(p.ID, "1", "10")))
	require.NoError(t, err)
	_, err = f.svc.IssueReceipt(ctx, f.clerk, receipted.ID)
	require.NoError(t, err)
	requireViolation(t, f.svc.DeleteSale(ctx, f.admin, receipted.ID), ledger.RuleHasDependents)
}

func TestListSalesFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, "100", "10")
	credit, err := f.svc.RecordSale(ctx, f.clerk, f.saleInput(true, line(p.ID, "10", "10")))
	require.NoError(t, err)
	_, err = f.svc.RecordSale(ctx, f.clerk, f.saleInput(false, line(p.ID, "10", "10")))
	require.NoError(t, err)
	settled, err := f.svc.RecordSale(ctx, f.clerk, f.saleInput(true, line(p.ID, "1", "10")))
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(ctx, f.clerk, PaymentInput{SaleID: settled.ID, PaymentDate: "2024-03-03", Amount: dec("10")})
	require.NoError(t, err)

	all, err := f.svc.ListSales(ctx, f.clerk, SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	open, err := f.svc.ListSales(ctx, f.clerk, SaleFilter{OutstandingOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, credit.ID, open[0].ID)
	assertDecimal(t, "100", open[0].Outstanding)
	assert.Equal(t, 29, open[0].DaysOutstanding)

	none, err := f.svc.ListSales(ctx, f.clerk, SaleFilter{Range: ledger.DateRange{From: testNow}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordSaleWritesAudit(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(t, "100", "10")
	sale, err := f.svc.RecordSale(context.Background(), f.clerk, f.saleInput(false, line(p.ID, "10", "10")))
	require.NoError(t, err)

	var log models.AuditLog
	require.NoError(t, f.db.Where("entity_type = ? AND entity_id = ?", "sale", sale.ID).First(&log).Error)
	assert.Equal(t, models.AuditActionCreate, log.Action)
	assert.Equal(t, "Cleo", log.UserName)
	assert.Contains(t, log.AfterData, `"items"`)
}
