package actions

import (
	"context"
	"testing"

	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplierLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sup, err := f.svc.CreateSupplier(ctx, f.clerk, SupplierInput{Name: "  Delta Boats ", Email: "delta@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Delta Boats", sup.Name)

	_, err = f.svc.CreateSupplier(ctx, f.clerk, SupplierInput{Email: "not-an-email"})
	var ve *ledger.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "email")

	sup, err = f.svc.UpdateSupplier(ctx, f.clerk, sup.ID, SupplierInput{Name: "Delta Boats Ltd"})
	require.NoError(t, err)
	assert.Equal(t, "Delta Boats Ltd", sup.Name)

	_, err = f.svc.RecordPurchase(ctx, f.admin, PurchaseInput{
		SupplierID: sup.ID, PurchaseDate: "2024-03-01", QuantityKg: dec("40"), PricePerKg: dec("5"),
	})
	require.NoError(t, err)

	view, err := f.svc.GetSupplier(ctx, f.clerk, sup.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.PurchaseCount)
	assertDecimal(t, "40", view.RemainingStock)

	list, err := f.svc.ListSuppliers(ctx, f.clerk, "delta")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assertDecimal(t, "40", list[0].RemainingStock)

	err = f.svc.DeleteSupplier(ctx, f.admin, sup.ID)
	requireViolation(t, err, ledger.RuleHasDependents)

	empty, err := f.svc.CreateSupplier(ctx, f.admin, SupplierInput{Name: "Echo"})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteSupplier(ctx, f.admin, empty.ID))
	_, err = f.svc.GetSupplier(ctx, f.admin, empty.ID)
	var nf *ledger.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCustomerOutstandingAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cust, err := f.svc.CreateCustomer(ctx, f.clerk, CustomerInput{Name: "Foxtrot Grill", Type: models.CustomerTypeWholesale})
	require.NoError(t, err)
	assert.Equal(t, models.CustomerTypeWholesale, cust.Type)

	_, err = f.svc.CreateCustomer(ctx, f.clerk, CustomerInput{Name: "Bad", Type: "vip"})
	var ve *ledger.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "type")

	p := f.purchase(t, "50", "10")
	in := f.saleInput(true, line(p.ID, "10", "15"))
	in.CustomerID = cust.ID
	_, err = f.svc.RecordSale(ctx, f.clerk, in)
	require.NoError(t, err)

	view, err := f.svc.GetCustomer(ctx, f.clerk, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.SaleCount)
	assertDecimal(t, "150", view.Outstanding)

	requireViolation(t, f.svc.DeleteCustomer(ctx, f.admin, cust.ID), ledger.RuleHasDependents)

	other, err := f.svc.CreateCustomer(ctx, f.clerk, CustomerInput{Name: "Golf Cafe"})
	require.NoError(t, err)
	assert.Equal(t, models.CustomerTypeRetail, other.Type)
	require.NoError(t, f.svc.DeleteCustomer(ctx, f.admin, other.ID))
}
