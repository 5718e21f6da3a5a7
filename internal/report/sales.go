package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesSummaryRow struct {
	SaleID             uint            `json:"sale_id"`
	SaleDate           time.Time       `json:"sale_date"`
	CustomerName       string          `json:"customer_name"`
	QuantityKg         decimal.Decimal `json:"quantity_kg"`
	AvgPricePerKg      decimal.Decimal `json:"avg_price_per_kg"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	DeliveryFee        decimal.Decimal `json:"delivery_fee"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	IsCredit           bool            `json:"is_credit"`
	Notes              string          `json:"notes"`
}

type SalesSummaryTotals struct {
	SaleCount      int             `json:"sale_count"`
	QuantityKg     decimal.Decimal `json:"quantity_kg"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DeliveryFees   decimal.Decimal `json:"delivery_fees"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CashTotal      decimal.Decimal `json:"cash_total"`
	CreditTotal    decimal.Decimal `json:"credit_total"`
}

type SalesSummary struct {
	From   string             `json:"from"`
	To     string             `json:"to"`
	Rows   []SalesSummaryRow  `json:"rows"`
	Totals SalesSummaryTotals `json:"totals"`
}

// SalesSummary lists sales in the range, oldest first. customerID 0 means all.
func (r *Reporter) SalesSummary(ctx context.Context, caller auth.Caller, rg ledger.DateRange, customerID uint) (SalesSummary, error) {
	params := append(rangeParams(rg), strconv.FormatUint(uint64(customerID), 10))
	return run(ctx, r, caller, "sales_summary", params, func(db *gorm.DB) (SalesSummary, error) {
		q := rg.Apply(db.Preload("Customer").Preload("Items"), "sale_date")
		if customerID != 0 {
			q = q.Where("customer_id = ?", customerID)
		}
		var sales []models.Sale
		if err := q.Order("sale_date asc, id asc").Find(&sales).Error; err != nil {
			return SalesSummary{}, err
		}

		out := SalesSummary{
			From: formatDate(rg.From),
			To:   formatDate(rg.To),
			Rows: make([]SalesSummaryRow, 0, len(sales)),
			Totals: SalesSummaryTotals{
				QuantityKg:     decimal.Zero,
				Subtotal:       decimal.Zero,
				DiscountAmount: decimal.Zero,
				DeliveryFees:   decimal.Zero,
				TotalAmount:    decimal.Zero,
				CashTotal:      decimal.Zero,
				CreditTotal:    decimal.Zero,
			},
		}
		for _, s := range sales {
			t := ledger.ComputeSaleTotals(s.Items, s.DiscountPercentage, s.DeliveryFee)
			avg := decimal.Zero
			if t.QuantityKg.IsPositive() {
				avg = t.Subtotal.Div(t.QuantityKg).Round(ledger.MoneyPlaces)
			}
			out.Rows = append(out.Rows, SalesSummaryRow{
				SaleID:             s.ID,
				SaleDate:           s.SaleDate,
				CustomerName:       s.Customer.Name,
				QuantityKg:         t.QuantityKg,
				AvgPricePerKg:      avg,
				DiscountPercentage: s.DiscountPercentage,
				Subtotal:           s.Subtotal,
				DiscountAmount:     s.DiscountAmount,
				DeliveryFee:        s.DeliveryFee,
				TotalAmount:        s.TotalAmount,
				IsCredit:           s.IsCredit,
				Notes:              s.Notes,
			})

			tot := &out.Totals
			tot.SaleCount++
			tot.QuantityKg = tot.QuantityKg.Add(t.QuantityKg)
			tot.Subtotal = tot.Subtotal.Add(s.Subtotal)
			tot.DiscountAmount = tot.DiscountAmount.Add(s.DiscountAmount)
			tot.DeliveryFees = tot.DeliveryFees.Add(s.DeliveryFee)
			tot.TotalAmount = tot.TotalAmount.Add(s.TotalAmount)
			if s.IsCredit {
				tot.CreditTotal = tot.CreditTotal.Add(s.TotalAmount)
			} else {
				tot.CashTotal = tot.CashTotal.Add(s.TotalAmount)
			}
		}
		return out, nil
	})
}

func saleType(credit bool) string {
	if credit {
		return "Credit"
	}
	return "Cash"
}

func (s SalesSummary) Table() Table {
	t := Table{
		Title:   "Sales Summary",
		Columns: []string{"Sale ID", "Date", "Customer", "Quantity", "Price/kg", "Discount %", "Subtotal", "Delivery Fee", "Total", "Type", "Notes"},
		Rows:    make([][]string, 0, len(s.Rows)),
	}
	for _, r := range s.Rows {
		t.Rows = append(t.Rows, []string{
			strconv.FormatUint(uint64(r.SaleID), 10),
			r.SaleDate.Format(dateLayout),
			r.CustomerName,
			kg(r.QuantityKg),
			money(r.AvgPricePerKg),
			r.DiscountPercentage.StringFixed(2),
			money(r.Subtotal),
			money(r.DeliveryFee),
			money(r.TotalAmount),
			saleType(r.IsCredit),
			r.Notes,
		})
	}
	t.Summary = []SummaryLine{
		{"Period", fmt.Sprintf("%s to %s", orAll(s.From), orAll(s.To))},
		{"Total Sales", strconv.Itoa(s.Totals.SaleCount)},
		{"Total Quantity (kg)", kg(s.Totals.QuantityKg)},
		{"Subtotal", money(s.Totals.Subtotal)},
		{"Discounts", money(s.Totals.DiscountAmount)},
		{"Delivery Fees", money(s.Totals.DeliveryFees)},
		{"Total Revenue", money(s.Totals.TotalAmount)},
		{"Cash Sales", money(s.Totals.CashTotal)},
		{"Credit Sales", money(s.Totals.CreditTotal)},
	}
	return t
}

func orAll(date string) string {
	if date == "" {
		return "(open)"
	}
	return date
}
