package ledger

import (
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseProfit is the cost-of-goods view of one purchase batch:
// profit = revenue - total_cost - expenses. An unsold batch shows a loss equal
// to its cost plus expenses.
type PurchaseProfit struct {
	PurchaseID    uint            `json:"purchase_id"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	SoldKg        decimal.Decimal `json:"sold_kg"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Profit        decimal.Decimal `json:"profit"`
}

func newPurchaseProfit(p models.Purchase, soldKg, revenue, expenses decimal.Decimal) PurchaseProfit {
	return PurchaseProfit{
		PurchaseID:    p.ID,
		TotalCost:     p.TotalCost,
		SoldKg:        soldKg,
		TotalRevenue:  revenue,
		TotalExpenses: expenses,
		Profit:        revenue.Sub(p.TotalCost).Sub(expenses),
	}
}

// TotalRevenue sums the sale price of every item sold from the purchase.
func TotalRevenue(db *gorm.DB, purchaseID uint) (decimal.Decimal, error) {
	var row sumRow
	err := db.Model(&models.SaleItem{}).
		Select("COALESCE(SUM(total_price), 0) AS total").
		Where("purchase_id = ?", purchaseID).
		Scan(&row).Error
	return row.Total, err
}

// TotalExpenses sums expenses linked to the purchase.
func TotalExpenses(db *gorm.DB, purchaseID uint) (decimal.Decimal, error) {
	var row sumRow
	err := db.Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("purchase_id = ?", purchaseID).
		Scan(&row).Error
	return row.Total, err
}

// ProfitForPurchase computes the profit breakdown of one purchase.
func ProfitForPurchase(db *gorm.DB, purchaseID uint) (PurchaseProfit, error) {
	var p models.Purchase
	if err := db.First(&p, purchaseID).Error; err != nil {
		return PurchaseProfit{}, Wrap(err, "load purchase", "purchase", purchaseID)
	}
	revenue, err := TotalRevenue(db, purchaseID)
	if err != nil {
		return PurchaseProfit{}, &IntegrityError{Op: "sum revenue", Err: err}
	}
	expenses, err := TotalExpenses(db, purchaseID)
	if err != nil {
		return PurchaseProfit{}, &IntegrityError{Op: "sum expenses", Err: err}
	}
	sold, err := SoldQuantity(db, purchaseID)
	if err != nil {
		return PurchaseProfit{}, &IntegrityError{Op: "sum sold quantity", Err: err}
	}
	return newPurchaseProfit(p, sold, revenue, expenses), nil
}

// ProfitForPurchases computes profit for a set of purchases. Revenue and
// expenses are aggregated in separate grouped queries so that a purchase with
// several items and several expenses is never multiplied by a join.
func ProfitForPurchases(db *gorm.DB, purchases []models.Purchase) (map[uint]PurchaseProfit, error) {
	out := make(map[uint]PurchaseProfit, len(purchases))
	if len(purchases) == 0 {
		return out, nil
	}
	ids := make([]uint, len(purchases))
	for i, p := range purchases {
		ids[i] = p.ID
	}

	type salesRow struct {
		PurchaseID uint
		SoldKg     decimal.Decimal
		Revenue    decimal.Decimal
	}
	var sales []salesRow
	if err := db.Model(&models.SaleItem{}).
		Select("purchase_id, COALESCE(SUM(quantity_kg), 0) AS sold_kg, COALESCE(SUM(total_price), 0) AS revenue").
		Where("purchase_id IN ?", ids).
		Group("purchase_id").
		Scan(&sales).Error; err != nil {
		return nil, &IntegrityError{Op: "sum revenue by purchase", Err: err}
	}

	type expenseRow struct {
		PurchaseID uint
		Total      decimal.Decimal
	}
	var expenses []expenseRow
	if err := db.Model(&models.Expense{}).
		Select("purchase_id, COALESCE(SUM(amount), 0) AS total").
		Where("purchase_id IN ?", ids).
		Group("purchase_id").
		Scan(&expenses).Error; err != nil {
		return nil, &IntegrityError{Op: "sum expenses by purchase", Err: err}
	}

	salesByID := make(map[uint]salesRow, len(sales))
	for _, s := range sales {
		salesByID[s.PurchaseID] = s
	}
	expByID := make(map[uint]decimal.Decimal, len(expenses))
	for _, e := range expenses {
		expByID[e.PurchaseID] = e.Total
	}

	for _, p := range purchases {
		s, ok := salesByID[p.ID]
		if !ok {
			s = salesRow{SoldKg: decimal.Zero, Revenue: decimal.Zero}
		}
		exp, ok := expByID[p.ID]
		if !ok {
			exp = decimal.Zero
		}
		out[p.ID] = newPurchaseProfit(p, s.SoldKg, s.Revenue, exp)
	}
	return out, nil
}
