package ledger

import (
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseStock is the stock position of one purchase batch.
type PurchaseStock struct {
	PurchaseID uint            `json:"purchase_id"`
	SupplierID uint            `json:"supplier_id"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
	SoldKg     decimal.Decimal `json:"sold_kg"`
	// Raw difference; negative only when stored data is corrupted
	RemainingKg decimal.Decimal `json:"remaining_kg"`
}

// Available is the remaining quantity clamped at zero for display.
func (s PurchaseStock) Available() decimal.Decimal {
	return clampZero(s.RemainingKg)
}

// SupplierStock is the remaining kg across one supplier's purchases.
type SupplierStock struct {
	SupplierID   uint            `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	PurchasedKg  decimal.Decimal `json:"purchased_kg"`
	SoldKg       decimal.Decimal `json:"sold_kg"`
	RemainingKg  decimal.Decimal `json:"remaining_kg"`
}

// StockFilter narrows a stock query. Zero values mean "all".
type StockFilter struct {
	SupplierID  uint
	PurchaseIDs []uint
}

type sumRow struct {
	Total decimal.Decimal
}

// SoldQuantity sums sale item quantities allocated to a purchase. Items whose
// ids are listed in exclude are left out, which lets an edit be checked as if
// the item being replaced did not exist yet.
func SoldQuantity(db *gorm.DB, purchaseID uint, exclude ...uint) (decimal.Decimal, error) {
	q := db.Model(&models.SaleItem{}).
		Select("COALESCE(SUM(quantity_kg), 0) AS total").
		Where("purchase_id = ?", purchaseID)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var row sumRow
	if err := q.Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// PurchaseStockLevel returns quantity, sold and remaining kg for one purchase.
func PurchaseStockLevel(db *gorm.DB, purchaseID uint) (PurchaseStock, error) {
	var p models.Purchase
	if err := db.Select("id", "supplier_id", "quantity_kg").First(&p, purchaseID).Error; err != nil {
		return PurchaseStock{}, Wrap(err, "load purchase", "purchase", purchaseID)
	}
	sold, err := SoldQuantity(db, purchaseID)
	if err != nil {
		return PurchaseStock{}, Wrap(err, "sum sold quantity", "purchase", purchaseID)
	}
	return PurchaseStock{
		PurchaseID:  p.ID,
		SupplierID:  p.SupplierID,
		QuantityKg:  p.QuantityKg,
		SoldKg:      sold,
		RemainingKg: p.QuantityKg.Sub(sold),
	}, nil
}

// RemainingQuantity is quantity_kg minus everything sold from the purchase,
// clamped at zero.
func RemainingQuantity(db *gorm.DB, purchaseID uint) (decimal.Decimal, error) {
	s, err := PurchaseStockLevel(db, purchaseID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Available(), nil
}

// PurchaseStockLevels computes stock for many purchases in one grouped query.
func PurchaseStockLevels(db *gorm.DB, f StockFilter) ([]PurchaseStock, error) {
	type row struct {
		PurchaseID uint
		SupplierID uint
		QuantityKg decimal.Decimal
		SoldKg     decimal.Decimal
	}

	q := db.Table("purchases AS p").
		Select("p.id AS purchase_id, p.supplier_id AS supplier_id, p.quantity_kg AS quantity_kg, COALESCE(SUM(si.quantity_kg), 0) AS sold_kg").
		Joins("LEFT JOIN sale_items si ON si.purchase_id = p.id").
		Group("p.id, p.supplier_id, p.quantity_kg").
		Order("p.id")
	if f.SupplierID != 0 {
		q = q.Where("p.supplier_id = ?", f.SupplierID)
	}
	if len(f.PurchaseIDs) > 0 {
		q = q.Where("p.id IN ?", f.PurchaseIDs)
	}

	var rows []row
	if err := q.Scan(&rows).Error; err != nil {
		return nil, &IntegrityError{Op: "purchase stock levels", Err: err}
	}

	out := make([]PurchaseStock, 0, len(rows))
	for _, r := range rows {
		out = append(out, PurchaseStock{
			PurchaseID:  r.PurchaseID,
			SupplierID:  r.SupplierID,
			QuantityKg:  r.QuantityKg,
			SoldKg:      r.SoldKg,
			RemainingKg: r.QuantityKg.Sub(r.SoldKg),
		})
	}
	return out, nil
}

// SupplierRemainingStock sums the remaining quantity of every purchase of a supplier.
func SupplierRemainingStock(db *gorm.DB, supplierID uint) (decimal.Decimal, error) {
	levels, err := PurchaseStockLevels(db, StockFilter{SupplierID: supplierID})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, l := range levels {
		total = total.Add(l.Available())
	}
	return total, nil
}

// CurrentStock is the global remaining stock over all purchases.
func CurrentStock(db *gorm.DB) (decimal.Decimal, error) {
	levels, err := PurchaseStockLevels(db, StockFilter{})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, l := range levels {
		total = total.Add(l.Available())
	}
	return total, nil
}

// StockBySupplier groups purchase stock per supplier, ordered by supplier name.
func StockBySupplier(db *gorm.DB) ([]SupplierStock, error) {
	var suppliers []models.Supplier
	if err := db.Order("name asc, id asc").Find(&suppliers).Error; err != nil {
		return nil, &IntegrityError{Op: "list suppliers", Err: err}
	}
	levels, err := PurchaseStockLevels(db, StockFilter{})
	if err != nil {
		return nil, err
	}

	bySupplier := make(map[uint]*SupplierStock, len(suppliers))
	out := make([]SupplierStock, len(suppliers))
	for i, s := range suppliers {
		out[i] = SupplierStock{
			SupplierID:   s.ID,
			SupplierName: s.Name,
			PurchasedKg:  decimal.Zero,
			SoldKg:       decimal.Zero,
			RemainingKg:  decimal.Zero,
		}
		bySupplier[s.ID] = &out[i]
	}
	for _, l := range levels {
		s, ok := bySupplier[l.SupplierID]
		if !ok {
			continue
		}
		s.PurchasedKg = s.PurchasedKg.Add(l.QuantityKg)
		s.SoldKg = s.SoldKg.Add(l.SoldKg)
		s.RemainingKg = s.RemainingKg.Add(l.Available())
	}
	return out, nil
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
