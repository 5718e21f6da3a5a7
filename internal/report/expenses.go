package report

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseRow struct {
	ExpenseID   uint               `json:"expense_id"`
	ExpenseDate time.Time          `json:"expense_date"`
	Type        models.ExpenseType `json:"type"`
	Description string             `json:"description"`
	PurchaseID  *uint              `json:"purchase_id"`
	Amount      decimal.Decimal    `json:"amount"`
}

type ExpenseTypeTotal struct {
	Type   models.ExpenseType `json:"type"`
	Count  int                `json:"count"`
	Amount decimal.Decimal    `json:"amount"`
}

type ExpenseReport struct {
	From         string             `json:"from"`
	To           string             `json:"to"`
	Rows         []ExpenseRow       `json:"rows"`
	ByType       []ExpenseTypeTotal `json:"by_type"`
	LinkedTotal  decimal.Decimal    `json:"linked_total"`
	GeneralTotal decimal.Decimal    `json:"general_total"`
	Total        decimal.Decimal    `json:"total"`
}

// Expenses lists expenses in the range grouped by type. Expenses without a
// purchase are general expenses.
func (r *Reporter) Expenses(ctx context.Context, caller auth.Caller, rg ledger.DateRange) (ExpenseReport, error) {
	return run(ctx, r, caller, "expenses", rangeParams(rg), func(db *gorm.DB) (ExpenseReport, error) {
		var expenses []models.Expense
		if err := rg.Apply(db, "expense_date").Order("expense_date asc, id asc").Find(&expenses).Error; err != nil {
			return ExpenseReport{}, err
		}

		out := ExpenseReport{
			From:         formatDate(rg.From),
			To:           formatDate(rg.To),
			Rows:         make([]ExpenseRow, 0, len(expenses)),
			LinkedTotal:  decimal.Zero,
			GeneralTotal: decimal.Zero,
			Total:        decimal.Zero,
		}
		byType := make(map[models.ExpenseType]*ExpenseTypeTotal)
		for _, e := range expenses {
			out.Rows = append(out.Rows, ExpenseRow{
				ExpenseID:   e.ID,
				ExpenseDate: e.ExpenseDate,
				Type:        e.Type,
				Description: e.Description,
				PurchaseID:  e.PurchaseID,
				Amount:      e.Amount,
			})
			tt, ok := byType[e.Type]
			if !ok {
				tt = &ExpenseTypeTotal{Type: e.Type, Amount: decimal.Zero}
				byType[e.Type] = tt
			}
			tt.Count++
			tt.Amount = tt.Amount.Add(e.Amount)
			if e.PurchaseID == nil {
				out.GeneralTotal = out.GeneralTotal.Add(e.Amount)
			} else {
				out.LinkedTotal = out.LinkedTotal.Add(e.Amount)
			}
			out.Total = out.Total.Add(e.Amount)
		}

		out.ByType = make([]ExpenseTypeTotal, 0, len(byType))
		for _, tt := range byType {
			out.ByType = append(out.ByType, *tt)
		}
		sort.Slice(out.ByType, func(i, j int) bool { return out.ByType[i].Type < out.ByType[j].Type })
		return out, nil
	})
}

func purchaseLabel(id *uint) string {
	if id == nil {
		return "General"
	}
	return fmt.Sprintf("Purchase #%d", *id)
}

func (e ExpenseReport) Table() Table {
	t := Table{
		Title:   "Expenses",
		Columns: []string{"Expense ID", "Date", "Type", "Description", "Purchase", "Amount"},
		Rows:    make([][]string, 0, len(e.Rows)),
	}
	for _, r := range e.Rows {
		t.Rows = append(t.Rows, []string{
			strconv.FormatUint(uint64(r.ExpenseID), 10),
			r.ExpenseDate.Format(dateLayout),
			string(r.Type),
			r.Description,
			purchaseLabel(r.PurchaseID),
			money(r.Amount),
		})
	}
	for _, tt := range e.ByType {
		t.Summary = append(t.Summary, SummaryLine{string(tt.Type), money(tt.Amount)})
	}
	t.Summary = append(t.Summary,
		SummaryLine{"Linked to purchases", money(e.LinkedTotal)},
		SummaryLine{"General", money(e.GeneralTotal)},
		SummaryLine{"Total", money(e.Total)},
	)
	return t
}
