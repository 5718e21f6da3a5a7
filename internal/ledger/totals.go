package ledger

import (
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MoneyPlaces is the precision money amounts are rounded to.
const MoneyPlaces = 2

// LineTotal is quantity_kg * price_per_kg rounded to money precision.
func LineTotal(qty, price decimal.Decimal) decimal.Decimal {
	return qty.Mul(price).Round(MoneyPlaces)
}

type SaleTotals struct {
	QuantityKg     decimal.Decimal `json:"quantity_kg"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// ComputeSaleTotals derives sale totals from its items:
// subtotal = sum of item totals, discount = subtotal * pct / 100,
// total = subtotal - discount + delivery fee.
func ComputeSaleTotals(items []models.SaleItem, discountPct, deliveryFee decimal.Decimal) SaleTotals {
	qty := decimal.Zero
	subtotal := decimal.Zero
	for _, it := range items {
		qty = qty.Add(it.QuantityKg)
		subtotal = subtotal.Add(it.TotalPrice)
	}
	discount := subtotal.Mul(discountPct).Div(hundred).Round(MoneyPlaces)
	return SaleTotals{
		QuantityKg:     qty,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TotalAmount:    subtotal.Sub(discount).Add(deliveryFee),
	}
}

// ApplySaleTotals recomputes item totals and stores the derived sale totals on sale.
func ApplySaleTotals(sale *models.Sale) SaleTotals {
	for i := range sale.Items {
		sale.Items[i].TotalPrice = LineTotal(sale.Items[i].QuantityKg, sale.Items[i].PricePerKg)
	}
	t := ComputeSaleTotals(sale.Items, sale.DiscountPercentage, sale.DeliveryFee)
	sale.Subtotal = t.Subtotal
	sale.DiscountAmount = t.DiscountAmount
	sale.TotalAmount = t.TotalAmount
	return t
}
