package actions

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleItemInput struct {
	PurchaseID uint            `json:"purchase_id" validate:"required"`
	QuantityKg decimal.Decimal `json:"quantity_kg" validate:"gt=0"`
	PricePerKg decimal.Decimal `json:"price_per_kg" validate:"gte=0"`
}

func (in SaleItemInput) item() models.SaleItem {
	return models.SaleItem{
		PurchaseID: in.PurchaseID,
		QuantityKg: in.QuantityKg,
		PricePerKg: in.PricePerKg,
		TotalPrice: ledger.LineTotal(in.QuantityKg, in.PricePerKg),
	}
}

type SaleInput struct {
	CustomerID         uint            `json:"customer_id" validate:"required"`
	SaleDate           string          `json:"sale_date" validate:"required"`
	IsCredit           bool            `json:"is_credit"`
	IsDelivery         bool            `json:"is_delivery"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" validate:"gte=0,lte=100"`
	DeliveryFee        decimal.Decimal `json:"delivery_fee" validate:"gte=0"`
	Notes              string          `json:"notes" validate:"max=500"`
	Items              []SaleItemInput `json:"items" validate:"required,min=1,dive"`
}

// header validates the input and copies the non-item fields onto sale.
func (in SaleInput) header(tx *gorm.DB, sale *models.Sale) error {
	if err := ledger.Validate(in); err != nil {
		return err
	}
	date, err := parseDate("sale_date", in.SaleDate)
	if err != nil {
		return err
	}
	if !in.IsDelivery && in.DeliveryFee.IsPositive() {
		return ledger.NewValidationError("delivery_fee", "must be 0 when is_delivery is false")
	}
	if err := requireRef(tx, &models.Customer{}, in.CustomerID, "customer_id"); err != nil {
		return err
	}
	sale.CustomerID = in.CustomerID
	sale.SaleDate = date
	sale.IsCredit = in.IsCredit
	sale.IsDelivery = in.IsDelivery
	sale.DiscountPercentage = in.DiscountPercentage
	sale.DeliveryFee = in.DeliveryFee
	sale.Notes = in.Notes
	return nil
}

func (in SaleInput) items() []models.SaleItem {
	out := make([]models.SaleItem, len(in.Items))
	for i, it := range in.Items {
		out[i] = it.item()
	}
	return out
}

// stockRequest is one quantity to be taken from a purchase. Prefix is the
// field path of the item in the request ("items[2]." or "").
type stockRequest struct {
	PurchaseID uint
	QuantityKg decimal.Decimal
	Index      int
	Prefix     string
}

func itemRequests(items []models.SaleItem) []stockRequest {
	out := make([]stockRequest, len(items))
	for i, it := range items {
		out[i] = stockRequest{PurchaseID: it.PurchaseID, QuantityKg: it.QuantityKg, Index: i, Prefix: fmt.Sprintf("items[%d].", i)}
	}
	return out
}

// checkStock locks every referenced purchase row and verifies that the
// requested quantities fit the remaining stock. Sale items listed in exclude
// are treated as already returned to stock. Requests against the same
// purchase are summed, and the first request that no longer fits is reported.
func checkStock(tx *gorm.DB, reqs []stockRequest, exclude []uint) error {
	idSet := make(map[uint]struct{}, len(reqs))
	for _, r := range reqs {
		idSet[r.PurchaseID] = struct{}{}
	}
	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	// consistent lock order
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var purchases []models.Purchase
	if err := lockForUpdate(tx).Where("id IN ?", ids).Order("id").Find(&purchases).Error; err != nil {
		return err
	}
	available := make(map[uint]decimal.Decimal, len(purchases))
	for _, p := range purchases {
		sold, err := ledger.SoldQuantity(tx, p.ID, exclude...)
		if err != nil {
			return err
		}
		available[p.ID] = p.QuantityKg.Sub(sold)
	}

	missing := map[string]string{}
	for _, r := range reqs {
		if _, ok := available[r.PurchaseID]; !ok {
			missing[r.Prefix+"purchase_id"] = "does not exist"
		}
	}
	if len(missing) > 0 {
		return &ledger.ValidationError{Fields: missing}
	}

	requested := make(map[uint]decimal.Decimal, len(available))
	for _, r := range reqs {
		prev, ok := requested[r.PurchaseID]
		if !ok {
			prev = decimal.Zero
		}
		total := prev.Add(r.QuantityKg)
		if total.GreaterThan(available[r.PurchaseID]) {
			left := decimal.Max(decimal.Zero, available[r.PurchaseID].Sub(prev))
			v := ledger.NewViolation(ledger.RuleInsufficientStock, "purchase", r.PurchaseID, r.Prefix+"quantity_kg",
				fmt.Sprintf("insufficient stock in purchase %d: requested %s kg, %s kg available", r.PurchaseID, r.QuantityKg.String(), left.String()))
			v.ItemIndex = r.Index
			return v
		}
		requested[r.PurchaseID] = total
	}
	return nil
}

// checkPayments keeps the sale consistent with payments already recorded.
func checkPayments(tx *gorm.DB, sale *models.Sale) error {
	paid, err := ledger.PaidAmount(tx, sale.ID)
	if err != nil {
		return err
	}
	if !paid.IsPositive() {
		return nil
	}
	if !sale.IsCredit {
		return ledger.NewViolation(ledger.RuleNotCreditSale, "sale", sale.ID, "is_credit",
			fmt.Sprintf("sale has %s in payments and must stay a credit sale", paid.StringFixed(2)))
	}
	if sale.TotalAmount.LessThan(paid) {
		return ledger.NewViolation(ledger.RulePaymentsExceedTotal, "sale", sale.ID, "total_amount",
			fmt.Sprintf("new total %s is below the %s already paid", sale.TotalAmount.StringFixed(2), paid.StringFixed(2)))
	}
	return nil
}

func (s *Service) RecordSale(ctx context.Context, caller auth.Caller, in SaleInput) (models.Sale, error) {
	var sale models.Sale
	err := s.mutate(ctx, caller, auth.PermSaleWrite, "RecordSale", func(tx *gorm.DB) error {
		if err := in.header(tx, &sale); err != nil {
			return err
		}
		sale.Items = in.items()
		if err := checkStock(tx, itemRequests(sale.Items), nil); err != nil {
			return err
		}
		ledger.ApplySaleTotals(&sale)
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "sale", sale.ID, models.AuditActionCreate,
			fmt.Sprintf("sale of %d items recorded, total %s", len(sale.Items), sale.TotalAmount.StringFixed(2)), nil, sale)
	})
	return sale, err
}

// UpdateSale replaces the header and every item of a sale. The sale's current
// items are excluded from the stock check so they can be re-allocated.
func (s *Service) UpdateSale(ctx context.Context, caller auth.Caller, id uint, in SaleInput) (models.Sale, error) {
	var sale models.Sale
	err := s.mutate(ctx, caller, auth.PermSaleWrite, "UpdateSale", func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&sale, id).Error; err != nil {
			return ledger.Wrap(err, "load sale", "sale", id)
		}
		var oldItems []models.SaleItem
		if err := tx.Where("sale_id = ?", id).Order("id").Find(&oldItems).Error; err != nil {
			return err
		}
		before := sale
		before.Items = oldItems

		if err := in.header(tx, &sale); err != nil {
			return err
		}
		newItems := in.items()
		oldIDs := make([]uint, len(oldItems))
		for i, it := range oldItems {
			oldIDs[i] = it.ID
		}
		if err := checkStock(tx, itemRequests(newItems), oldIDs); err != nil {
			return err
		}
		sale.Items = newItems
		ledger.ApplySaleTotals(&sale)
		if err := checkPayments(tx, &sale); err != nil {
			return err
		}

		if err := tx.Where("sale_id = ?", id).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		for i := range newItems {
			newItems[i].SaleID = id
		}
		if err := tx.Create(&newItems).Error; err != nil {
			return err
		}
		sale.Items = newItems
		if err := tx.Omit(clause.Associations).Save(&sale).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "sale", id, models.AuditActionUpdate,
			fmt.Sprintf("sale updated, total %s", sale.TotalAmount.StringFixed(2)), before, sale)
	})
	return sale, err
}

// UpdateSaleItem changes one item and recomputes the sale totals. Only the
// edited item is excluded from the stock check.
func (s *Service) UpdateSaleItem(ctx context.Context, caller auth.Caller, saleID, itemID uint, in SaleItemInput) (models.Sale, error) {
	var sale models.Sale
	err := s.mutate(ctx, caller, auth.PermSaleWrite, "UpdateSaleItem", func(tx *gorm.DB) error {
		if err := ledger.Validate(in); err != nil {
			return err
		}
		if err := lockForUpdate(tx).First(&sale, saleID).Error; err != nil {
			return ledger.Wrap(err, "load sale", "sale", saleID)
		}
		var items []models.SaleItem
		if err := tx.Where("sale_id = ?", saleID).Order("id").Find(&items).Error; err != nil {
			return err
		}
		idx := -1
		for i, it := range items {
			if it.ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &ledger.NotFoundError{Entity: "sale item", ID: itemID}
		}
		before := items[idx]

		req := []stockRequest{{PurchaseID: in.PurchaseID, QuantityKg: in.QuantityKg, Index: idx}}
		if err := checkStock(tx, req, []uint{itemID}); err != nil {
			return err
		}
		updated := in.item()
		updated.ID = itemID
		updated.SaleID = saleID
		updated.CreatedAt = before.CreatedAt
		items[idx] = updated

		sale.Items = items
		ledger.ApplySaleTotals(&sale)
		if err := checkPayments(tx, &sale); err != nil {
			return err
		}
		if err := tx.Save(&sale.Items[idx]).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&sale).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "sale_item", itemID, models.AuditActionUpdate,
			fmt.Sprintf("item of sale %d updated, sale total %s", saleID, sale.TotalAmount.StringFixed(2)), before, sale.Items[idx])
	})
	return sale, err
}

// DeleteSale removes a sale with its items and payments. A sale that has had
// a receipt issued is kept for the receipt trail.
func (s *Service) DeleteSale(ctx context.Context, caller auth.Caller, id uint) error {
	return s.mutate(ctx, caller, auth.PermSaleDelete, "DeleteSale", func(tx *gorm.DB) error {
		var sale models.Sale
		if err := lockForUpdate(tx).First(&sale, id).Error; err != nil {
			return ledger.Wrap(err, "load sale", "sale", id)
		}
		var receipts int64
		if err := tx.Model(&models.Receipt{}).Where("sale_id = ?", id).Count(&receipts).Error; err != nil {
			return err
		}
		if receipts > 0 {
			return ledger.NewViolation(ledger.RuleHasDependents, "sale", id, "",
				fmt.Sprintf("sale has %d receipts and cannot be deleted", receipts))
		}
		if err := tx.Where("sale_id = ?", id).Find(&sale.Items).Error; err != nil {
			return err
		}
		if err := tx.Where("sale_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sale_id = ?", id).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Delete(&sale).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "sale", id, models.AuditActionDelete, "sale deleted", sale, nil)
	})
}

// SaleView is a sale with its customer name and credit position.
type SaleView struct {
	models.Sale
	CustomerName    string          `json:"customer_name"`
	QuantityKg      decimal.Decimal `json:"quantity_kg"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Outstanding     decimal.Decimal `json:"outstanding_balance"`
	DaysOutstanding int             `json:"days_outstanding"`
}

type SaleFilter struct {
	Range           ledger.DateRange
	CustomerID      uint
	CreditOnly      bool
	OutstandingOnly bool
}

func (s *Service) GetSale(ctx context.Context, caller auth.Caller, id uint) (SaleView, error) {
	var view SaleView
	err := s.read(ctx, caller, auth.PermSaleRead, "GetSale", func(db *gorm.DB) error {
		var sale models.Sale
		if err := db.Preload("Customer").Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id") }).
			First(&sale, id).Error; err != nil {
			return ledger.Wrap(err, "load sale", "sale", id)
		}
		views, err := saleViews(db, []models.Sale{sale}, s.now())
		if err != nil {
			return err
		}
		view = views[0]
		return nil
	})
	return view, err
}

func (s *Service) ListSales(ctx context.Context, caller auth.Caller, f SaleFilter) ([]SaleView, error) {
	var out []SaleView
	err := s.read(ctx, caller, auth.PermSaleRead, "ListSales", func(db *gorm.DB) error {
		q := f.Range.Apply(db.Preload("Customer").Preload("Items"), "sale_date")
		if f.CustomerID != 0 {
			q = q.Where("customer_id = ?", f.CustomerID)
		}
		if f.CreditOnly || f.OutstandingOnly {
			q = q.Where("is_credit = ?", true)
		}
		var sales []models.Sale
		if err := q.Order("sale_date desc, id desc").Find(&sales).Error; err != nil {
			return err
		}
		views, err := saleViews(db, sales, s.now())
		if err != nil {
			return err
		}
		out = views[:0]
		for _, v := range views {
			if f.OutstandingOnly && !v.Outstanding.IsPositive() {
				continue
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

func saleViews(db *gorm.DB, sales []models.Sale, now time.Time) ([]SaleView, error) {
	statuses, err := ledger.CreditStatuses(db, sales, now)
	if err != nil {
		return nil, err
	}
	out := make([]SaleView, 0, len(sales))
	for _, sale := range sales {
		st := statuses[sale.ID]
		qty := decimal.Zero
		for _, it := range sale.Items {
			qty = qty.Add(it.QuantityKg)
		}
		out = append(out, SaleView{
			Sale:            sale,
			CustomerName:    sale.Customer.Name,
			QuantityKg:      qty,
			PaidAmount:      st.PaidAmount,
			Outstanding:     st.Outstanding,
			DaysOutstanding: st.DaysOutstanding,
		})
	}
	return out, nil
}
