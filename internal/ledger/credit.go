package ledger

import (
	"time"

	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreditStatus is the settlement position of one sale.
type CreditStatus struct {
	SaleID          uint            `json:"sale_id"`
	IsCredit        bool            `json:"is_credit"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Outstanding     decimal.Decimal `json:"outstanding_balance"`
	DaysOutstanding int             `json:"days_outstanding"`
}

// OutstandingBalance is max(0, total - paid) for credit sales and always zero
// for cash sales, whatever payments exist.
func OutstandingBalance(sale models.Sale, paid decimal.Decimal) decimal.Decimal {
	if !sale.IsCredit {
		return decimal.Zero
	}
	return clampZero(sale.TotalAmount.Sub(paid))
}

// DaysOutstanding counts calendar days from the sale date to now.
func DaysOutstanding(saleDate, now time.Time) int {
	y1, m1, d1 := saleDate.Date()
	y2, m2, d2 := now.In(saleDate.Location()).Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// PaidAmount sums the payments of a sale, leaving out the listed payment ids.
func PaidAmount(db *gorm.DB, saleID uint, exclude ...uint) (decimal.Decimal, error) {
	q := db.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("sale_id = ?", saleID)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var row sumRow
	if err := q.Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// PaidAmounts sums payments for many sales at once.
func PaidAmounts(db *gorm.DB, saleIDs []uint) (map[uint]decimal.Decimal, error) {
	out := make(map[uint]decimal.Decimal, len(saleIDs))
	if len(saleIDs) == 0 {
		return out, nil
	}
	type row struct {
		SaleID uint
		Total  decimal.Decimal
	}
	var rows []row
	if err := db.Model(&models.Payment{}).
		Select("sale_id, COALESCE(SUM(amount), 0) AS total").
		Where("sale_id IN ?", saleIDs).
		Group("sale_id").
		Scan(&rows).Error; err != nil {
		return nil, &IntegrityError{Op: "sum payments by sale", Err: err}
	}
	for _, r := range rows {
		out[r.SaleID] = r.Total
	}
	return out, nil
}

func creditStatus(sale models.Sale, paid decimal.Decimal, now time.Time) CreditStatus {
	cs := CreditStatus{
		SaleID:      sale.ID,
		IsCredit:    sale.IsCredit,
		TotalAmount: sale.TotalAmount,
		PaidAmount:  paid,
		Outstanding: OutstandingBalance(sale, paid),
	}
	if !sale.IsCredit {
		cs.PaidAmount = decimal.Zero
	}
	if cs.Outstanding.IsPositive() {
		cs.DaysOutstanding = DaysOutstanding(sale.SaleDate, now)
	}
	return cs
}

// CreditStatusForSale loads a sale and computes its outstanding balance.
func CreditStatusForSale(db *gorm.DB, saleID uint, now time.Time) (CreditStatus, error) {
	var sale models.Sale
	if err := db.First(&sale, saleID).Error; err != nil {
		return CreditStatus{}, Wrap(err, "load sale", "sale", saleID)
	}
	paid := decimal.Zero
	if sale.IsCredit {
		var err error
		if paid, err = PaidAmount(db, saleID); err != nil {
			return CreditStatus{}, &IntegrityError{Op: "sum payments", Err: err}
		}
	}
	return creditStatus(sale, paid, now), nil
}

// CreditStatuses computes the position of the given sales in two queries.
func CreditStatuses(db *gorm.DB, sales []models.Sale, now time.Time) (map[uint]CreditStatus, error) {
	ids := make([]uint, 0, len(sales))
	for _, s := range sales {
		if s.IsCredit {
			ids = append(ids, s.ID)
		}
	}
	paid, err := PaidAmounts(db, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]CreditStatus, len(sales))
	for _, s := range sales {
		p, ok := paid[s.ID]
		if !ok {
			p = decimal.Zero
		}
		out[s.ID] = creditStatus(s, p, now)
	}
	return out, nil
}

// OpenCreditSales returns every credit sale dated on or before asOf that still
// has an outstanding balance, oldest first.
func OpenCreditSales(db *gorm.DB, asOf time.Time) ([]models.Sale, map[uint]CreditStatus, error) {
	var sales []models.Sale
	if err := db.Preload("Customer").
		Where("is_credit = ? AND sale_date <= ?", true, asOf).
		Order("sale_date asc, id asc").
		Find(&sales).Error; err != nil {
		return nil, nil, &IntegrityError{Op: "list credit sales", Err: err}
	}
	statuses, err := CreditStatuses(db, sales, asOf)
	if err != nil {
		return nil, nil, err
	}
	open := sales[:0]
	for _, s := range sales {
		if statuses[s.ID].Outstanding.IsPositive() {
			open = append(open, s)
		}
	}
	return open, statuses, nil
}
