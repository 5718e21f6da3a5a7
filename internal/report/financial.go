package report

import (
	"context"
	"fmt"
	"time"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// SummaryQuery selects the window of a financial summary. Daily uses From and
// To, weekly uses Year and Week (weeks start on Monday, week 1 holds Jan 1),
// monthly uses Year and Month.
type SummaryQuery struct {
	Period Period
	From   time.Time
	To     time.Time
	Year   int
	Week   int
	Month  int
}

func (q SummaryQuery) window() (time.Time, time.Time, error) {
	switch q.Period {
	case PeriodDaily:
		if q.From.IsZero() || q.To.IsZero() {
			return time.Time{}, time.Time{}, ledger.NewValidationError("from", "from and to are required (YYYY-MM-DD)")
		}
		from, to := dayStart(q.From), dayStart(q.To)
		if to.Before(from) {
			return time.Time{}, time.Time{}, ledger.NewValidationError("to", "must not be before from")
		}
		if to.Sub(from) > 366*24*time.Hour {
			return time.Time{}, time.Time{}, ledger.NewValidationError("to", "range must not exceed one year")
		}
		return from, to, nil
	case PeriodWeekly:
		if q.Year < 2000 {
			return time.Time{}, time.Time{}, ledger.NewValidationError("year", "invalid year")
		}
		if q.Week < 1 || q.Week > 53 {
			return time.Time{}, time.Time{}, ledger.NewValidationError("week", "must be between 1 and 53")
		}
		start := mondayOf(time.Date(q.Year, 1, 1, 0, 0, 0, 0, time.UTC)).AddDate(0, 0, (q.Week-1)*7)
		return start, start.AddDate(0, 0, 6), nil
	case PeriodMonthly:
		if q.Year < 2000 {
			return time.Time{}, time.Time{}, ledger.NewValidationError("year", "invalid year")
		}
		if q.Month < 1 || q.Month > 12 {
			return time.Time{}, time.Time{}, ledger.NewValidationError("month", "must be between 1 and 12")
		}
		first := time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, time.UTC)
		return first, first.AddDate(0, 1, -1), nil
	}
	return time.Time{}, time.Time{}, ledger.NewValidationError("period", "must be one of: daily weekly monthly")
}

func mondayOf(t time.Time) time.Time {
	t = dayStart(t)
	return t.AddDate(0, 0, -((int(t.Weekday()) + 6) % 7))
}

type DailyFigures struct {
	Date          string          `json:"date"`
	Revenue       decimal.Decimal `json:"revenue"`
	Collected     decimal.Decimal `json:"collected"`
	Expenses      decimal.Decimal `json:"expenses"`
	PurchaseCosts decimal.Decimal `json:"purchase_costs"`
}

type FinancialSummary struct {
	Period         Period          `json:"period"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	PurchaseCosts  decimal.Decimal `json:"purchase_costs"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	// Monthly only: credit still owed at the end of the month
	OutstandingCredit *decimal.Decimal `json:"outstanding_credit,omitempty"`
	DailyBreakdown    []DailyFigures   `json:"daily_breakdown,omitempty"`
}

// FinancialSummary is the cash view of a day range, an ISO-like week or a
// month. Revenue is sale totals by sale date; collected is cash sales plus
// credit payments by payment date; net is revenue minus expenses minus stock
// purchased.
func (r *Reporter) FinancialSummary(ctx context.Context, caller auth.Caller, q SummaryQuery) (FinancialSummary, error) {
	if err := caller.Require(auth.PermReportRead); err != nil {
		return FinancialSummary{}, err
	}
	start, end, err := q.window()
	if err != nil {
		return FinancialSummary{}, err
	}
	params := []string{string(q.Period), start.Format(dateLayout), end.Format(dateLayout)}
	return run(ctx, r, caller, "financial_summary", params, func(db *gorm.DB) (FinancialSummary, error) {
		rg := ledger.DateRange{From: start, To: end}

		days := make(map[string]*DailyFigures)
		order := make([]string, 0)
		for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
			key := cur.Format(dateLayout)
			days[key] = &DailyFigures{
				Date:          key,
				Revenue:       decimal.Zero,
				Collected:     decimal.Zero,
				Expenses:      decimal.Zero,
				PurchaseCosts: decimal.Zero,
			}
			order = append(order, key)
		}
		add := func(t time.Time, amount decimal.Decimal, field func(*DailyFigures) *decimal.Decimal) {
			if d, ok := days[t.Format(dateLayout)]; ok {
				f := field(d)
				*f = f.Add(amount)
			}
		}

		var sales []models.Sale
		if err := rg.Apply(db.Select("id", "sale_date", "is_credit", "total_amount"), "sale_date").Find(&sales).Error; err != nil {
			return FinancialSummary{}, err
		}
		for _, s := range sales {
			add(s.SaleDate, s.TotalAmount, func(d *DailyFigures) *decimal.Decimal { return &d.Revenue })
			if !s.IsCredit {
				add(s.SaleDate, s.TotalAmount, func(d *DailyFigures) *decimal.Decimal { return &d.Collected })
			}
		}

		var payments []models.Payment
		if err := rg.Apply(db.Select("id", "payment_date", "amount"), "payment_date").Find(&payments).Error; err != nil {
			return FinancialSummary{}, err
		}
		for _, p := range payments {
			add(p.PaymentDate, p.Amount, func(d *DailyFigures) *decimal.Decimal { return &d.Collected })
		}

		var expenses []models.Expense
		if err := rg.Apply(db.Select("id", "expense_date", "amount"), "expense_date").Find(&expenses).Error; err != nil {
			return FinancialSummary{}, err
		}
		for _, e := range expenses {
			add(e.ExpenseDate, e.Amount, func(d *DailyFigures) *decimal.Decimal { return &d.Expenses })
		}

		var purchases []models.Purchase
		if err := rg.Apply(db.Select("id", "purchase_date", "total_cost"), "purchase_date").Find(&purchases).Error; err != nil {
			return FinancialSummary{}, err
		}
		for _, p := range purchases {
			add(p.PurchaseDate, p.TotalCost, func(d *DailyFigures) *decimal.Decimal { return &d.PurchaseCosts })
		}

		out := FinancialSummary{
			Period:         q.Period,
			StartDate:      start.Format(dateLayout),
			EndDate:        end.Format(dateLayout),
			TotalRevenue:   decimal.Zero,
			TotalCollected: decimal.Zero,
			TotalExpenses:  decimal.Zero,
			PurchaseCosts:  decimal.Zero,
		}
		breakdown := make([]DailyFigures, 0, len(order))
		for _, key := range order {
			d := days[key]
			breakdown = append(breakdown, *d)
			out.TotalRevenue = out.TotalRevenue.Add(d.Revenue)
			out.TotalCollected = out.TotalCollected.Add(d.Collected)
			out.TotalExpenses = out.TotalExpenses.Add(d.Expenses)
			out.PurchaseCosts = out.PurchaseCosts.Add(d.PurchaseCosts)
		}
		out.NetProfit = out.TotalRevenue.Sub(out.TotalExpenses).Sub(out.PurchaseCosts)

		if q.Period == PeriodMonthly {
			_, statuses, err := ledger.OpenCreditSales(db, end.AddDate(0, 0, 1).Add(-time.Nanosecond))
			if err != nil {
				return FinancialSummary{}, err
			}
			owed := decimal.Zero
			for _, st := range statuses {
				owed = owed.Add(st.Outstanding)
			}
			out.OutstandingCredit = &owed
		} else {
			out.DailyBreakdown = breakdown
		}
		return out, nil
	})
}

func (f FinancialSummary) Table() Table {
	t := Table{
		Title:   fmt.Sprintf("Financial Summary %s %s", f.Period, f.StartDate),
		Columns: []string{"Date", "Revenue", "Collected", "Expenses", "Purchase Costs"},
		Rows:    make([][]string, 0, len(f.DailyBreakdown)),
	}
	for _, d := range f.DailyBreakdown {
		t.Rows = append(t.Rows, []string{d.Date, money(d.Revenue), money(d.Collected), money(d.Expenses), money(d.PurchaseCosts)})
	}
	t.Summary = []SummaryLine{
		{"Period", f.StartDate + " to " + f.EndDate},
		{"Total Revenue", money(f.TotalRevenue)},
		{"Total Collected", money(f.TotalCollected)},
		{"Total Expenses", money(f.TotalExpenses)},
		{"Purchase Costs", money(f.PurchaseCosts)},
		{"Net Profit", money(f.NetProfit)},
	}
	if f.OutstandingCredit != nil {
		t.Summary = append(t.Summary, SummaryLine{"Outstanding Credit", money(*f.OutstandingCredit)})
	}
	return t
}
