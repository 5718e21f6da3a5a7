package report_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"testing"
	"time"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"
	"fishledger-backend/internal/report"
	"fishledger-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	testNow = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	admin   = auth.NewCaller(1, "Ada", models.RoleAdmin)
	clerk   = auth.NewCaller(2, "Cleo", models.RoleClerk)
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newReporter(t *testing.T, opts ...report.Option) (*report.Reporter, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	opts = append([]report.Option{report.WithClock(func() time.Time { return testNow })}, opts...)
	return report.NewReporter(db, quietLogger(), opts...), db
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, testutil.D(want).Equal(got), "want %s, got %s", want, got)
}

func readCSV(t *testing.T, tbl report.Table) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))
	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestSalesSummaryCSVColumnsAndSummary(t *testing.T) {
	rep, db := newReporter(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	cust := testutil.Customer(t, db, "Mama Put")
	p := testutil.Purchase(t, db, sup.ID, "100", "10", testutil.Day(2024, 3, 1))
	testutil.Sale(t, db, cust.ID, testutil.Day(2024, 3, 2), false, testutil.Item(p.ID, "10", "42"))
	testutil.Sale(t, db, cust.ID, testutil.Day(2024, 3, 5), true,
		testutil.Item(p.ID, "5", "40"), testutil.Item(p.ID, "5", "50"))
	// outside the range
	testutil.Sale(t, db, cust.ID, testutil.Day(2024, 4, 1), false, testutil.Item(p.ID, "1", "40"))

	sum, err := rep.SalesSummary(context.Background(), admin,
		ledger.DateRange{From: testutil.Day(2024, 3, 1), To: testutil.Day(2024, 3, 31)}, 0)
	require.NoError(t, err)
	require.Len(t, sum.Rows, 2)
	assert.Equal(t, 2, sum.Totals.SaleCount)
	assertDecimal(t, "870", sum.Totals.TotalAmount)
	assertDecimal(t, "420", sum.Totals.CashTotal)
	assertDecimal(t, "450", sum.Totals.CreditTotal)
	assertDecimal(t, "45", sum.Rows[1].AvgPricePerKg)

	var raw bytes.Buffer
	require.NoError(t, sum.Table().WriteCSV(&raw))
	assert.Contains(t, raw.String(), "\n\nSummary\n")

	records := readCSV(t, sum.Table())
	assert.Equal(t, []string{"Sale ID", "Date", "Customer", "Quantity", "Price/kg", "Discount %", "Subtotal", "Delivery Fee", "Total", "Type", "Notes"}, records[0])
	assert.Equal(t, "2024-03-02", records[1][1])
	assert.Equal(t, "Mama Put", records[1][2])
	assert.Equal(t, "420.00", records[1][8])
	assert.Equal(t, "Cash", records[1][9])
	assert.Equal(t, "Credit", records[2][9])

	// the csv reader skips the blank separator line
	assert.Equal(t, []string{"Summary"}, records[3])
	assert.Contains(t, records, []string{"Total Revenue", "870.00"})
	assert.Contains(t, records, []string{"Total Sales", "2"})
}

func TestPurchaseProfitability(t *testing.T) {
	rep, db := newReporter(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	cust := testutil.Customer(t, db, "Mama Put")
	day := testutil.Day(2024, 3, 1)
	p := testutil.Purchase(t, db, sup.ID, "100", "10", day)
	testutil.Sale(t, db, cust.ID, day, false, testutil.Item(p.ID, "20", "12"))
	testutil.Expense(t, db, &p.ID, models.ExpenseTypeIce, "15", day)

	out, err := rep.PurchaseProfitability(context.Background(), admin, ledger.DateRange{}, 0)
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	row := out.Rows[0]
	assert.Equal(t, "Harbour Co", row.SupplierName)
	assertDecimal(t, "80", row.RemainingKg)
	assertDecimal(t, "-775", row.Profit)
	assertDecimal(t, "-775", out.TotalProfit)

	records := readCSV(t, out.Table())
	assert.Equal(t, "-775.00", records[1][10])
}

func TestStockReport(t *testing.T) {
	rep, db := newReporter(t)
	a := testutil.Supplier(t, db, "Atlantic")
	b := testutil.Supplier(t, db, "Bay Fish")
	cust := testutil.Customer(t, db, "Mama Put")
	day := testutil.Day(2024, 3, 1)
	pa := testutil.Purchase(t, db, a.ID, "50", "10", day)
	pb := testutil.Purchase(t, db, b.ID, "30", "10", day)
	testutil.Sale(t, db, cust.ID, day, false, testutil.Item(pa.ID, "20", "12"), testutil.Item(pb.ID, "30", "12"))

	out, err := rep.Stock(context.Background(), admin, false)
	require.NoError(t, err)
	assertDecimal(t, "30", out.TotalRemainingKg)
	require.Len(t, out.Suppliers, 2)
	assertDecimal(t, "30", out.Suppliers[0].RemainingKg)
	assertDecimal(t, "0", out.Suppliers[1].RemainingKg)
	// sold out purchase hidden
	require.Len(t, out.Purchases, 1)
	assert.Equal(t, pa.ID, out.Purchases[0].PurchaseID)

	all, err := rep.Stock(context.Background(), admin, true)
	require.NoError(t, err)
	assert.Len(t, all.Purchases, 2)
}

func TestCreditReportAging(t *testing.T) {
	rep, db := newReporter(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	cust := testutil.Customer(t, db, "Mama Put")
	p := testutil.Purchase(t, db, sup.ID, "500", "10", testutil.Day(2024, 1, 1))

	recent := testutil.Sale(t, db, cust.ID, testutil.Day(2024, 3, 25), true, testutil.Item(p.ID, "10", "20"))
	old := testutil.Sale(t, db, cust.ID, testutil.Day(2024, 1, 20), true, testutil.Item(p.ID, "10", "30"))
	testutil.Payment(t, db, old.ID, "100", testutil.Day(2024, 2, 1))
	settled := testutil.Sale(t, db, cust.ID, testutil.Day(2024, 2, 1), true, testutil.Item(p.ID, "5", "20"))
	testutil.Payment(t, db, settled.ID, "100", testutil.Day(2024, 2, 2))
	cash := testutil.Sale(t, db, cust.ID, testutil.Day(2024, 1, 2), false, testutil.Item(p.ID, "5", "20"))
	// stray payment on a cash sale must not show up
	testutil.Payment(t, db, cash.ID, "10", testutil.Day(2024, 1, 3))

	out, err := rep.Credit(context.Background(), admin, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", out.AsOf)
	require.Len(t, out.Rows, 2)

	assert.Equal(t, old.ID, out.Rows[0].SaleID)
	assert.Equal(t, 71, out.Rows[0].DaysOutstanding)
	assert.Equal(t, report.Bucket61to90, out.Rows[0].Bucket)
	assertDecimal(t, "200", out.Rows[0].Outstanding)

	assert.Equal(t, recent.ID, out.Rows[1].SaleID)
	assert.Equal(t, 6, out.Rows[1].DaysOutstanding)
	assert.Equal(t, report.Bucket0to30, out.Rows[1].Bucket)

	assertDecimal(t, "400", out.TotalOutstanding)
	require.Len(t, out.Aging, 4)
	assert.Equal(t, 1, out.Aging[0].Count)
	assertDecimal(t, "200", out.Aging[0].Amount)
	assert.Equal(t, 0, out.Aging[1].Count)
	assert.Equal(t, 1, out.Aging[2].Count)
}

func TestExpenseReportGeneralExpenses(t *testing.T) {
	rep, db := newReporter(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	day := testutil.Day(2024, 3, 1)
	p := testutil.Purchase(t, db, sup.ID, "10", "10", day)
	testutil.Expense(t, db, &p.ID, models.ExpenseTypeIce, "15", day)
	testutil.Expense(t, db, &p.ID, models.ExpenseTypeShipping, "40", day)
	testutil.Expense(t, db, nil, models.ExpenseTypeOther, "5", day)

	out, err := rep.Expenses(context.Background(), admin, ledger.DateRange{})
	require.NoError(t, err)
	require.Len(t, out.Rows, 3)
	assertDecimal(t, "55", out.LinkedTotal)
	assertDecimal(t, "5", out.GeneralTotal)
	assertDecimal(t, "60", out.Total)
	require.Len(t, out.ByType, 3)
	assert.Equal(t, models.ExpenseTypeIce, out.ByType[0].Type)

	records := readCSV(t, out.Table())
	assert.Equal(t, "General", records[3][4])
	assert.Equal(t, "Purchase #1", records[1][4])
}

func TestProfitAndLoss(t *testing.T) {
	rep, db := newReporter(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	cust := testutil.Customer(t, db, "Mama Put")
	day := testutil.Day(2024, 3, 1)
	p := testutil.Purchase(t, db, sup.ID, "100", "10", day)
	testutil.Sale(t, db, cust.ID, day, false, testutil.Item(p.ID, "20", "12"))
	testutil.Expense(t, db, &p.ID, models.ExpenseTypeIce, "15", day)
	testutil.Expense(t, db, nil, models.ExpenseTypeOther, "5", day)

	out, err := rep.ProfitAndLoss(context.Background(), admin, ledger.DateRange{From: day, To: day})
	require.NoError(t, err)
	assertDecimal(t, "240", out.Revenue)
	assertDecimal(t, "20", out.SoldKg)
	assertDecimal(t, "200", out.CostOfGoodsSold)
	assertDecimal(t, "40", out.GrossProfit)
	assertDecimal(t, "20", out.TotalExpenses)
	assertDecimal(t, "20", out.NetProfit)
	assertDecimal(t, "1000", out.Purchases)
}

func TestFinancialSummaryWeekly(t *testing.T) {
	rep, db := newReporter(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	cust := testutil.Customer(t, db, "Mama Put")
	// 2024-01-01 is a Monday
	p := testutil.Purchase(t, db, sup.ID, "100", "10", testutil.Day(2024, 1, 1))
	testutil.Sale(t, db, cust.ID, testutil.Day(2024, 1, 2), false, testutil.Item(p.ID, "10", "20"))
	credit := testutil.Sale(t, db, cust.ID, testutil.Day(2024, 1, 3), true, testutil.Item(p.ID, "10", "30"))
	testutil.Payment(t, db, credit.ID, "100", testutil.Day(2024, 1, 7))
	testutil.Expense(t, db, nil, models.ExpenseTypeOther, "50", testutil.Day(2024, 1, 4))
	// next week
	testutil.Expense(t, db, nil, models.ExpenseTypeOther, "999", testutil.Day(2024, 1, 8))

	out, err := rep.FinancialSummary(context.Background(), admin, report.SummaryQuery{Period: report.PeriodWeekly, Year: 2024, Week: 1})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", out.StartDate)
	assert.Equal(t, "2024-01-07", out.EndDate)
	require.Len(t, out.DailyBreakdown, 7)
	assert.Equal(t, "2024-01-01", out.DailyBreakdown[0].Date)
	assertDecimal(t, "500", out.TotalRevenue)
	assertDecimal(t, "300", out.TotalCollected)
	assertDecimal(t, "50", out.TotalExpenses)
	assertDecimal(t, "1000", out.PurchaseCosts)
	assertDecimal(t, "-550", out.NetProfit)
	assertDecimal(t, "100", out.DailyBreakdown[6].Collected)
}

func TestFinancialSummaryMonthlyOutstanding(t *testing.T) {
	rep, db := newReporter(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	cust := testutil.Customer(t, db, "Mama Put")
	p := testutil.Purchase(t, db, sup.ID, "100", "10", testutil.Day(2024, 2, 1))
	s := testutil.Sale(t, db, cust.ID, testutil.Day(2024, 2, 10), true, testutil.Item(p.ID, "10", "30"))
	testutil.Payment(t, db, s.ID, "120", testutil.Day(2024, 2, 20))

	out, err := rep.FinancialSummary(context.Background(), admin, report.SummaryQuery{Period: report.PeriodMonthly, Year: 2024, Month: 2})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", out.EndDate)
	assert.Empty(t, out.DailyBreakdown)
	require.NotNil(t, out.OutstandingCredit)
	assertDecimal(t, "180", *out.OutstandingCredit)
}

func TestFinancialSummaryRejectsBadWindow(t *testing.T) {
	rep, _ := newReporter(t)
	_, err := rep.FinancialSummary(context.Background(), admin, report.SummaryQuery{Period: report.PeriodWeekly, Year: 2024, Week: 54})
	var ve *ledger.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "week")

	_, err = rep.FinancialSummary(context.Background(), admin, report.SummaryQuery{
		Period: report.PeriodDaily, From: testutil.Day(2024, 3, 2), To: testutil.Day(2024, 3, 1),
	})
	require.ErrorAs(t, err, &ve)
}

func TestDashboardChartDaily(t *testing.T) {
	rep, db := newReporter(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	cust := testutil.Customer(t, db, "Mama Put")
	p := testutil.Purchase(t, db, sup.ID, "100", "10", testutil.Day(2024, 3, 1))
	testutil.Sale(t, db, cust.ID, testutil.Day(2024, 3, 25), false, testutil.Item(p.ID, "1", "10"))
	testutil.Sale(t, db, cust.ID, testutil.Day(2024, 3, 31), true, testutil.Item(p.ID, "2", "10"))
	testutil.Sale(t, db, cust.ID, testutil.Day(2024, 3, 24), false, testutil.Item(p.ID, "4", "10"))

	out, err := rep.DashboardChart(context.Background(), admin, report.PeriodDaily, 0)
	require.NoError(t, err)
	require.Len(t, out.Points, 7)
	assert.Equal(t, "2024-03-25", out.From)
	assert.Equal(t, "2024-03-31", out.To)
	assertDecimal(t, "10", out.Points[0].Cash)
	assertDecimal(t, "20", out.Points[6].Credit)
	assertDecimal(t, "30", out.GrandTotals.Total)
}

func TestDashboardChartMonthly(t *testing.T) {
	rep, db := newReporter(t)
	sup := testutil.Supplier(t, db, "Harbour Co")
	p := testutil.Purchase(t, db, sup.ID, "100", "10", testutil.Day(2024, 1, 1))
	testutil.Expense(t, db, &p.ID, models.ExpenseTypeIce, "7", testutil.Day(2024, 1, 15))

	out, err := rep.DashboardChart(context.Background(), admin, report.PeriodMonthly, 3)
	require.NoError(t, err)
	require.Len(t, out.Points, 3)
	assert.Equal(t, "2024-01-01", out.Points[0].Label)
	assert.Equal(t, "2024-03-01", out.Points[2].Label)
	assertDecimal(t, "7", out.Points[0].Expenses)
}

func TestReportsRequirePermission(t *testing.T) {
	rep, _ := newReporter(t)
	_, err := rep.ProfitAndLoss(context.Background(), clerk, ledger.DateRange{})
	var pe *auth.PermissionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, auth.PermReportRead, pe.Permission)
}

func TestUnreachableCacheFallsBackToDatabase(t *testing.T) {
	cache := report.NewCache("127.0.0.1:1", time.Minute, quietLogger())
	t.Cleanup(func() { _ = cache.Close() })
	rep, db := newReporter(t, report.WithCache(cache))
	sup := testutil.Supplier(t, db, "Harbour Co")
	testutil.Purchase(t, db, sup.ID, "12", "10", testutil.Day(2024, 3, 1))

	cache.LedgerChanged(context.Background())
	out, err := rep.Stock(context.Background(), admin, true)
	require.NoError(t, err)
	assertDecimal(t, "12", out.TotalRemainingKg)
}

func TestNewCacheDisabledWithoutAddress(t *testing.T) {
	assert.Nil(t, report.NewCache("", time.Minute, quietLogger()))
	var c *report.Cache
	c.LedgerChanged(context.Background())
	assert.NoError(t, c.Close())
}
