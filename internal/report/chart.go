package report

import (
	"context"
	"strconv"
	"time"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ChartPoint struct {
	Label    string          `json:"label"` // day, week start or month start
	Cash     decimal.Decimal `json:"cash"`
	Credit   decimal.Decimal `json:"credit"`
	Total    decimal.Decimal `json:"total"`
	Expenses decimal.Decimal `json:"expenses"`
}

type ChartTotals struct {
	Cash     decimal.Decimal `json:"cash"`
	Credit   decimal.Decimal `json:"credit"`
	Total    decimal.Decimal `json:"total"`
	Expenses decimal.Decimal `json:"expenses"`
}

type Chart struct {
	Period      Period       `json:"period"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []ChartPoint `json:"points"`
	GrandTotals ChartTotals  `json:"grand_totals"`
}

// DefaultChartCount is the number of buckets shown when none is requested.
func DefaultChartCount(p Period) int {
	switch p {
	case PeriodWeekly:
		return 8
	case PeriodMonthly:
		return 12
	}
	return 7
}

func bucketOf(p Period, t time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		return mondayOf(t)
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return dayStart(t)
}

func nextBucket(p Period, t time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case PeriodMonthly:
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// DashboardChart returns sales split into cash and credit plus expenses for
// the last count buckets ending with the current one. Empty buckets are
// included so the series has no gaps.
func (r *Reporter) DashboardChart(ctx context.Context, caller auth.Caller, period Period, count int) (Chart, error) {
	switch period {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
	default:
		period = PeriodDaily
	}
	if count <= 0 {
		count = DefaultChartCount(period)
	}
	if count > 366 {
		count = 366
	}

	last := bucketOf(period, r.now())
	start := last
	for i := 1; i < count; i++ {
		switch period {
		case PeriodWeekly:
			start = start.AddDate(0, 0, -7)
		case PeriodMonthly:
			start = start.AddDate(0, -1, 0)
		default:
			start = start.AddDate(0, 0, -1)
		}
	}
	end := nextBucket(period, last)

	params := []string{string(period), strconv.Itoa(count), start.Format(dateLayout)}
	return run(ctx, r, caller, "dashboard_chart", params, func(db *gorm.DB) (Chart, error) {
		buckets := make(map[string]*ChartPoint)
		order := make([]string, 0, count)
		for b := start; b.Before(end); b = nextBucket(period, b) {
			label := b.Format(dateLayout)
			buckets[label] = &ChartPoint{
				Label:    label,
				Cash:     decimal.Zero,
				Credit:   decimal.Zero,
				Total:    decimal.Zero,
				Expenses: decimal.Zero,
			}
			order = append(order, label)
		}

		var sales []models.Sale
		if err := db.Select("id", "sale_date", "is_credit", "total_amount").
			Where("sale_date >= ? AND sale_date < ?", start, end).
			Find(&sales).Error; err != nil {
			return Chart{}, err
		}
		for _, s := range sales {
			p, ok := buckets[bucketOf(period, s.SaleDate).Format(dateLayout)]
			if !ok {
				continue
			}
			if s.IsCredit {
				p.Credit = p.Credit.Add(s.TotalAmount)
			} else {
				p.Cash = p.Cash.Add(s.TotalAmount)
			}
			p.Total = p.Total.Add(s.TotalAmount)
		}

		var expenses []models.Expense
		if err := db.Select("id", "expense_date", "amount").
			Where("expense_date >= ? AND expense_date < ?", start, end).
			Find(&expenses).Error; err != nil {
			return Chart{}, err
		}
		for _, e := range expenses {
			if p, ok := buckets[bucketOf(period, e.ExpenseDate).Format(dateLayout)]; ok {
				p.Expenses = p.Expenses.Add(e.Amount)
			}
		}

		out := Chart{
			Period: period,
			From:   start.Format(dateLayout),
			To:     end.AddDate(0, 0, -1).Format(dateLayout),
			Points: make([]ChartPoint, 0, len(order)),
			GrandTotals: ChartTotals{
				Cash:     decimal.Zero,
				Credit:   decimal.Zero,
				Total:    decimal.Zero,
				Expenses: decimal.Zero,
			},
		}
		for _, b := range order {
			p := buckets[b]
			out.Points = append(out.Points, *p)
			out.GrandTotals.Cash = out.GrandTotals.Cash.Add(p.Cash)
			out.GrandTotals.Credit = out.GrandTotals.Credit.Add(p.Credit)
			out.GrandTotals.Total = out.GrandTotals.Total.Add(p.Total)
			out.GrandTotals.Expenses = out.GrandTotals.Expenses.Add(p.Expenses)
		}
		return out, nil
	})
}
