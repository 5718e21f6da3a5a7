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

type StockRow struct {
	PurchaseID   uint            `json:"purchase_id"`
	PurchaseDate time.Time       `json:"purchase_date"`
	SupplierName string          `json:"supplier_name"`
	QuantityKg   decimal.Decimal `json:"quantity_kg"`
	SoldKg       decimal.Decimal `json:"sold_kg"`
	RemainingKg  decimal.Decimal `json:"remaining_kg"`
}

type StockReport struct {
	TotalRemainingKg decimal.Decimal        `json:"total_remaining_kg"`
	Suppliers        []ledger.SupplierStock `json:"suppliers"`
	Purchases        []StockRow             `json:"purchases"`
}

// Stock reports remaining stock globally, per supplier and per purchase.
// Fully sold purchases are left out of the per purchase list unless all is set.
func (r *Reporter) Stock(ctx context.Context, caller auth.Caller, all bool) (StockReport, error) {
	return run(ctx, r, caller, "stock", []string{strconv.FormatBool(all)}, func(db *gorm.DB) (StockReport, error) {
		levels, err := ledger.PurchaseStockLevels(db, ledger.StockFilter{})
		if err != nil {
			return StockReport{}, err
		}
		suppliers, err := ledger.StockBySupplier(db)
		if err != nil {
			return StockReport{}, err
		}

		var purchases []models.Purchase
		if err := db.Preload("Supplier").Order("purchase_date asc, id asc").Find(&purchases).Error; err != nil {
			return StockReport{}, err
		}
		byID := make(map[uint]ledger.PurchaseStock, len(levels))
		for _, l := range levels {
			byID[l.PurchaseID] = l
		}

		out := StockReport{TotalRemainingKg: decimal.Zero, Suppliers: suppliers, Purchases: []StockRow{}}
		for _, p := range purchases {
			l := byID[p.ID]
			out.TotalRemainingKg = out.TotalRemainingKg.Add(l.Available())
			if !all && !l.Available().IsPositive() {
				continue
			}
			out.Purchases = append(out.Purchases, StockRow{
				PurchaseID:   p.ID,
				PurchaseDate: p.PurchaseDate,
				SupplierName: p.Supplier.Name,
				QuantityKg:   p.QuantityKg,
				SoldKg:       l.SoldKg,
				RemainingKg:  l.Available(),
			})
		}
		return out, nil
	})
}

func (s StockReport) Table() Table {
	t := Table{
		Title:   "Stock",
		Columns: []string{"Purchase ID", "Date", "Supplier", "Quantity", "Sold", "Remaining"},
		Rows:    make([][]string, 0, len(s.Purchases)),
	}
	for _, r := range s.Purchases {
		t.Rows = append(t.Rows, []string{
			strconv.FormatUint(uint64(r.PurchaseID), 10),
			r.PurchaseDate.Format(dateLayout),
			r.SupplierName,
			kg(r.QuantityKg),
			kg(r.SoldKg),
			kg(r.RemainingKg),
		})
	}
	for _, sup := range s.Suppliers {
		t.Summary = append(t.Summary, SummaryLine{sup.SupplierName + " (kg)", kg(sup.RemainingKg)})
	}
	t.Summary = append(t.Summary, SummaryLine{"Total Remaining (kg)", kg(s.TotalRemainingKg)})
	return t
}
