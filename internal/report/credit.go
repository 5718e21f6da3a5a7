package report

import (
	"context"
	"strconv"
	"time"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Aging buckets by days outstanding.
const (
	Bucket0to30  = "0-30"
	Bucket31to60 = "31-60"
	Bucket61to90 = "61-90"
	BucketOver90 = "90+"
)

var agingOrder = []string{Bucket0to30, Bucket31to60, Bucket61to90, BucketOver90}

func agingBucket(days int) string {
	switch {
	case days <= 30:
		return Bucket0to30
	case days <= 60:
		return Bucket31to60
	case days <= 90:
		return Bucket61to90
	}
	return BucketOver90
}

type CreditRow struct {
	SaleID          uint            `json:"sale_id"`
	SaleDate        time.Time       `json:"sale_date"`
	CustomerID      uint            `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Outstanding     decimal.Decimal `json:"outstanding_balance"`
	DaysOutstanding int             `json:"days_outstanding"`
	Bucket          string          `json:"bucket"`
}

type AgingBucket struct {
	Label  string          `json:"label"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type CreditReport struct {
	AsOf             string          `json:"as_of"`
	Rows             []CreditRow     `json:"rows"`
	Aging            []AgingBucket   `json:"aging"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// Credit lists credit sales with an outstanding balance as of asOf, oldest
// first, with aging buckets. A zero asOf means today.
func (r *Reporter) Credit(ctx context.Context, caller auth.Caller, asOf time.Time) (CreditReport, error) {
	if asOf.IsZero() {
		asOf = r.now()
	}
	day := dayStart(asOf)
	return run(ctx, r, caller, "credit", []string{day.Format(dateLayout)}, func(db *gorm.DB) (CreditReport, error) {
		// sales on asOf itself count, so compare against the end of that day
		sales, statuses, err := ledger.OpenCreditSales(db, day.AddDate(0, 0, 1).Add(-time.Nanosecond))
		if err != nil {
			return CreditReport{}, err
		}

		buckets := make(map[string]*AgingBucket, len(agingOrder))
		aging := make([]AgingBucket, len(agingOrder))
		for i, label := range agingOrder {
			aging[i] = AgingBucket{Label: label, Amount: decimal.Zero}
			buckets[label] = &aging[i]
		}

		out := CreditReport{AsOf: day.Format(dateLayout), Rows: make([]CreditRow, 0, len(sales)), TotalOutstanding: decimal.Zero}
		for _, s := range sales {
			st := statuses[s.ID]
			days := ledger.DaysOutstanding(s.SaleDate, day)
			label := agingBucket(days)
			out.Rows = append(out.Rows, CreditRow{
				SaleID:          s.ID,
				SaleDate:        s.SaleDate,
				CustomerID:      s.CustomerID,
				CustomerName:    s.Customer.Name,
				TotalAmount:     s.TotalAmount,
				PaidAmount:      st.PaidAmount,
				Outstanding:     st.Outstanding,
				DaysOutstanding: days,
				Bucket:          label,
			})
			b := buckets[label]
			b.Count++
			b.Amount = b.Amount.Add(st.Outstanding)
			out.TotalOutstanding = out.TotalOutstanding.Add(st.Outstanding)
		}
		out.Aging = aging
		return out, nil
	})
}

func (c CreditReport) Table() Table {
	t := Table{
		Title:   "Outstanding Credit",
		Columns: []string{"Sale ID", "Date", "Customer", "Total", "Paid", "Outstanding", "Days", "Bucket"},
		Rows:    make([][]string, 0, len(c.Rows)),
	}
	for _, r := range c.Rows {
		t.Rows = append(t.Rows, []string{
			strconv.FormatUint(uint64(r.SaleID), 10),
			r.SaleDate.Format(dateLayout),
			r.CustomerName,
			money(r.TotalAmount),
			money(r.PaidAmount),
			money(r.Outstanding),
			strconv.Itoa(r.DaysOutstanding),
			r.Bucket,
		})
	}
	t.Summary = []SummaryLine{{"As of", c.AsOf}}
	for _, b := range c.Aging {
		t.Summary = append(t.Summary, SummaryLine{b.Label + " days (" + strconv.Itoa(b.Count) + ")", money(b.Amount)})
	}
	t.Summary = append(t.Summary, SummaryLine{"Total Outstanding", money(c.TotalOutstanding)})
	return t
}
