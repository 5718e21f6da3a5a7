package report

import (
	"context"
	"fmt"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProfitAndLoss is an accrual view of a period. Cost of goods sold is the
// purchase price of the kilograms sold in the period; stock still on hand is
// not an expense. Purchases is the cash spent on new stock, for reference.
type ProfitAndLoss struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discounts       decimal.Decimal `json:"discounts"`
	DeliveryFees    decimal.Decimal `json:"delivery_fees"`
	Revenue         decimal.Decimal `json:"revenue"`
	SoldKg          decimal.Decimal `json:"sold_kg"`
	CostOfGoodsSold decimal.Decimal `json:"cost_of_goods_sold"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	LinkedExpenses  decimal.Decimal `json:"linked_expenses"`
	GeneralExpenses decimal.Decimal `json:"general_expenses"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	NetProfit       decimal.Decimal `json:"net_profit"`
	Purchases       decimal.Decimal `json:"purchases"`
}

func (r *Reporter) ProfitAndLoss(ctx context.Context, caller auth.Caller, rg ledger.DateRange) (ProfitAndLoss, error) {
	return run(ctx, r, caller, "profit_and_loss", rangeParams(rg), func(db *gorm.DB) (ProfitAndLoss, error) {
		var sales struct {
			Subtotal     decimal.Decimal
			Discounts    decimal.Decimal
			DeliveryFees decimal.Decimal
			Revenue      decimal.Decimal
		}
		if err := rg.Apply(db.Model(&models.Sale{}), "sale_date").
			Select("COALESCE(SUM(subtotal), 0) AS subtotal, COALESCE(SUM(discount_amount), 0) AS discounts, " +
				"COALESCE(SUM(delivery_fee), 0) AS delivery_fees, COALESCE(SUM(total_amount), 0) AS revenue").
			Scan(&sales).Error; err != nil {
			return ProfitAndLoss{}, err
		}

		var cogs struct {
			SoldKg decimal.Decimal
			Cost   decimal.Decimal
		}
		if err := rg.Apply(db.Table("sale_items AS si"), "s.sale_date").
			Select("COALESCE(SUM(si.quantity_kg), 0) AS sold_kg, COALESCE(SUM(si.quantity_kg * p.price_per_kg), 0) AS cost").
			Joins("JOIN sales s ON s.id = si.sale_id").
			Joins("JOIN purchases p ON p.id = si.purchase_id").
			Scan(&cogs).Error; err != nil {
			return ProfitAndLoss{}, err
		}

		var expenses struct {
			Linked  decimal.Decimal
			General decimal.Decimal
		}
		if err := rg.Apply(db.Model(&models.Expense{}), "expense_date").
			Select("COALESCE(SUM(CASE WHEN purchase_id IS NOT NULL THEN amount ELSE 0 END), 0) AS linked, " +
				"COALESCE(SUM(CASE WHEN purchase_id IS NULL THEN amount ELSE 0 END), 0) AS general").
			Scan(&expenses).Error; err != nil {
			return ProfitAndLoss{}, err
		}

		var purchases struct {
			Total decimal.Decimal
		}
		if err := rg.Apply(db.Model(&models.Purchase{}), "purchase_date").
			Select("COALESCE(SUM(total_cost), 0) AS total").
			Scan(&purchases).Error; err != nil {
			return ProfitAndLoss{}, err
		}

		cost := cogs.Cost.Round(ledger.MoneyPlaces)
		gross := sales.Revenue.Sub(cost)
		totalExp := expenses.Linked.Add(expenses.General)
		return ProfitAndLoss{
			From:            formatDate(rg.From),
			To:              formatDate(rg.To),
			Subtotal:        sales.Subtotal,
			Discounts:       sales.Discounts,
			DeliveryFees:    sales.DeliveryFees,
			Revenue:         sales.Revenue,
			SoldKg:          cogs.SoldKg,
			CostOfGoodsSold: cost,
			GrossProfit:     gross,
			LinkedExpenses:  expenses.Linked,
			GeneralExpenses: expenses.General,
			TotalExpenses:   totalExp,
			NetProfit:       gross.Sub(totalExp),
			Purchases:       purchases.Total,
		}, nil
	})
}

func (p ProfitAndLoss) Table() Table {
	lines := []SummaryLine{
		{"Sales subtotal", money(p.Subtotal)},
		{"Discounts", money(p.Discounts.Neg())},
		{"Delivery fees", money(p.DeliveryFees)},
		{"Revenue", money(p.Revenue)},
		{"Cost of goods sold", money(p.CostOfGoodsSold.Neg())},
		{"Gross profit", money(p.GrossProfit)},
		{"Purchase linked expenses", money(p.LinkedExpenses.Neg())},
		{"General expenses", money(p.GeneralExpenses.Neg())},
		{"Net profit", money(p.NetProfit)},
	}
	t := Table{
		Title:   "Profit and Loss",
		Columns: []string{"Line", "Amount"},
		Rows:    make([][]string, 0, len(lines)),
		Summary: []SummaryLine{
			{"Period", fmt.Sprintf("%s to %s", orAll(p.From), orAll(p.To))},
			{"Sold (kg)", kg(p.SoldKg)},
			{"Stock purchased", money(p.Purchases)},
		},
	}
	for _, l := range lines {
		t.Rows = append(t.Rows, []string{l.Label, l.Value})
	}
	return t
}
