package report

import (
	"context"
	"strconv"
	"time"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProfitabilityRow struct {
	PurchaseID    uint            `json:"purchase_id"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	SupplierName  string          `json:"supplier_name"`
	QuantityKg    decimal.Decimal `json:"quantity_kg"`
	PricePerKg    decimal.Decimal `json:"price_per_kg"`
	SoldKg        decimal.Decimal `json:"sold_kg"`
	RemainingKg   decimal.Decimal `json:"remaining_kg"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Profit        decimal.Decimal `json:"profit"`
}

type PurchaseProfitability struct {
	From          string             `json:"from"`
	To            string             `json:"to"`
	Rows          []ProfitabilityRow `json:"rows"`
	TotalCost     decimal.Decimal    `json:"total_cost"`
	TotalRevenue  decimal.Decimal    `json:"total_revenue"`
	TotalExpenses decimal.Decimal    `json:"total_expenses"`
	TotalProfit   decimal.Decimal    `json:"total_profit"`
}

// PurchaseProfitability reports profit per purchase made in the range.
func (r *Reporter) PurchaseProfitability(ctx context.Context, caller auth.Caller, rg ledger.DateRange, supplierID uint) (PurchaseProfitability, error) {
	params := append(rangeParams(rg), strconv.FormatUint(uint64(supplierID), 10))
	return run(ctx, r, caller, "purchase_profitability", params, func(db *gorm.DB) (PurchaseProfitability, error) {
		q := rg.Apply(db.Preload("Supplier"), "purchase_date")
		if supplierID != 0 {
			q = q.Where("supplier_id = ?", supplierID)
		}
		var purchases []models.Purchase
		if err := q.Order("purchase_date asc, id asc").Find(&purchases).Error; err != nil {
			return PurchaseProfitability{}, err
		}
		profits, err := ledger.ProfitForPurchases(db, purchases)
		if err != nil {
			return PurchaseProfitability{}, err
		}

		out := PurchaseProfitability{
			From:          formatDate(rg.From),
			To:            formatDate(rg.To),
			Rows:          make([]ProfitabilityRow, 0, len(purchases)),
			TotalCost:     decimal.Zero,
			TotalRevenue:  decimal.Zero,
			TotalExpenses: decimal.Zero,
			TotalProfit:   decimal.Zero,
		}
		for _, p := range purchases {
			pp := profits[p.ID]
			out.Rows = append(out.Rows, ProfitabilityRow{
				PurchaseID:    p.ID,
				PurchaseDate:  p.PurchaseDate,
				SupplierName:  p.Supplier.Name,
				QuantityKg:    p.QuantityKg,
				PricePerKg:    p.PricePerKg,
				SoldKg:        pp.SoldKg,
				RemainingKg:   decimal.Max(decimal.Zero, p.QuantityKg.Sub(pp.SoldKg)),
				TotalCost:     pp.TotalCost,
				TotalRevenue:  pp.TotalRevenue,
				TotalExpenses: pp.TotalExpenses,
				Profit:        pp.Profit,
			})
			out.TotalCost = out.TotalCost.Add(pp.TotalCost)
			out.TotalRevenue = out.TotalRevenue.Add(pp.TotalRevenue)
			out.TotalExpenses = out.TotalExpenses.Add(pp.TotalExpenses)
			out.TotalProfit = out.TotalProfit.Add(pp.Profit)
		}
		return out, nil
	})
}

func (p PurchaseProfitability) Table() Table {
	t := Table{
		Title:   "Purchase Profitability",
		Columns: []string{"Purchase ID", "Date", "Supplier", "Quantity", "Cost/kg", "Sold", "Remaining", "Total Cost", "Revenue", "Expenses", "Profit"},
		Rows:    make([][]string, 0, len(p.Rows)),
	}
	for _, r := range p.Rows {
		t.Rows = append(t.Rows, []string{
			strconv.FormatUint(uint64(r.PurchaseID), 10),
			r.PurchaseDate.Format(dateLayout),
			r.SupplierName,
			kg(r.QuantityKg),
			money(r.PricePerKg),
			kg(r.SoldKg),
			kg(r.RemainingKg),
			money(r.TotalCost),
			money(r.TotalRevenue),
			money(r.TotalExpenses),
			money(r.Profit),
		})
	}
	t.Summary = []SummaryLine{
		{"Purchases", strconv.Itoa(len(p.Rows))},
		{"Total Cost", money(p.TotalCost)},
		{"Total Revenue", money(p.TotalRevenue)},
		{"Total Expenses", money(p.TotalExpenses)},
		{"Total Profit", money(p.TotalProfit)},
	}
	return t
}
