package actions

import (
	"context"
	"fmt"
	"io"

	"fishledger-backend/internal/attachment"
	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseInput struct {
	SupplierID   uint            `json:"supplier_id" validate:"required"`
	PurchaseDate string          `json:"purchase_date" validate:"required"`
	QuantityKg   decimal.Decimal `json:"quantity_kg" validate:"gt=0"`
	PricePerKg   decimal.Decimal `json:"price_per_kg" validate:"gte=0"`
	Notes        string          `json:"notes" validate:"max=500"`
}

// PurchaseView is a purchase with its derived stock and profit figures.
type PurchaseView struct {
	models.Purchase
	SupplierName  string          `json:"supplier_name"`
	SoldKg        decimal.Decimal `json:"sold_kg"`
	RemainingKg   decimal.Decimal `json:"remaining_kg"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Profit        decimal.Decimal `json:"profit"`
}

type PurchaseFilter struct {
	Range      ledger.DateRange
	SupplierID uint
	// InStockOnly keeps purchases with remaining quantity above zero
	InStockOnly bool
}

func (in PurchaseInput) build(tx *gorm.DB, p *models.Purchase) error {
	if err := ledger.Validate(in); err != nil {
		return err
	}
	date, err := parseDate("purchase_date", in.PurchaseDate)
	if err != nil {
		return err
	}
	if err := requireRef(tx, &models.Supplier{}, in.SupplierID, "supplier_id"); err != nil {
		return err
	}
	p.SupplierID = in.SupplierID
	p.PurchaseDate = date
	p.QuantityKg = in.QuantityKg
	p.PricePerKg = in.PricePerKg
	p.TotalCost = ledger.LineTotal(in.QuantityKg, in.PricePerKg)
	p.Notes = in.Notes
	return nil
}

func (s *Service) RecordPurchase(ctx context.Context, caller auth.Caller, in PurchaseInput) (models.Purchase, error) {
	var p models.Purchase
	err := s.mutate(ctx, caller, auth.PermPurchaseWrite, "RecordPurchase", func(tx *gorm.DB) error {
		if err := in.build(tx, &p); err != nil {
			return err
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "purchase", p.ID, models.AuditActionCreate,
			fmt.Sprintf("purchase of %s kg recorded", p.QuantityKg.String()), nil, p)
	})
	return p, err
}

// UpdatePurchase rejects a quantity below what has already been sold from the batch.
func (s *Service) UpdatePurchase(ctx context.Context, caller auth.Caller, id uint, in PurchaseInput) (models.Purchase, error) {
	var p models.Purchase
	err := s.mutate(ctx, caller, auth.PermPurchaseWrite, "UpdatePurchase", func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&p, id).Error; err != nil {
			return ledger.Wrap(err, "load purchase", "purchase", id)
		}
		before := p
		if err := in.build(tx, &p); err != nil {
			return err
		}
		sold, err := ledger.SoldQuantity(tx, id)
		if err != nil {
			return err
		}
		if p.QuantityKg.LessThan(sold) {
			return ledger.NewViolation(ledger.RuleQuantityBelowSold, "purchase", id, "quantity_kg",
				fmt.Sprintf("quantity %s kg is below the %s kg already sold", p.QuantityKg.String(), sold.String()))
		}
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "purchase", p.ID, models.AuditActionUpdate, "purchase updated", before, p)
	})
	return p, err
}

// DeletePurchase is blocked while sale items or expenses reference the purchase.
func (s *Service) DeletePurchase(ctx context.Context, caller auth.Caller, id uint) error {
	var p models.Purchase
	err := s.mutate(ctx, caller, auth.PermPurchaseDelete, "DeletePurchase", func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&p, id).Error; err != nil {
			return ledger.Wrap(err, "load purchase", "purchase", id)
		}
		var items, expenses int64
		if err := tx.Model(&models.SaleItem{}).Where("purchase_id = ?", id).Count(&items).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Expense{}).Where("purchase_id = ?", id).Count(&expenses).Error; err != nil {
			return err
		}
		if items > 0 || expenses > 0 {
			return ledger.NewViolation(ledger.RuleHasDependents, "purchase", id, "",
				fmt.Sprintf("purchase has %d sale items and %d expenses and cannot be deleted", items, expenses))
		}
		if err := tx.Delete(&p).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "purchase", id, models.AuditActionDelete, "purchase deleted", p, nil)
	})
	if err == nil && s.attachments != nil {
		for _, path := range []string{p.InvoicePath, p.ReceiptPath} {
			s.removeAttachment(path)
		}
	}
	return err
}

// removeAttachment deletes a stored file; failures only leave an orphan on disk.
func (s *Service) removeAttachment(path string) {
	if err := s.attachments.Remove(path); err != nil {
		s.logger.WithField("path", path).Warn("could not remove purchase attachment: " + err.Error())
	}
}

func (s *Service) GetPurchase(ctx context.Context, caller auth.Caller, id uint) (PurchaseView, error) {
	var view PurchaseView
	err := s.read(ctx, caller, auth.PermPurchaseRead, "GetPurchase", func(db *gorm.DB) error {
		var p models.Purchase
		if err := db.Preload("Supplier").First(&p, id).Error; err != nil {
			return ledger.Wrap(err, "load purchase", "purchase", id)
		}
		views, err := purchaseViews(db, []models.Purchase{p})
		if err != nil {
			return err
		}
		view = views[0]
		return nil
	})
	return view, err
}

func (s *Service) ListPurchases(ctx context.Context, caller auth.Caller, f PurchaseFilter) ([]PurchaseView, error) {
	var out []PurchaseView
	err := s.read(ctx, caller, auth.PermPurchaseRead, "ListPurchases", func(db *gorm.DB) error {
		q := f.Range.Apply(db.Preload("Supplier"), "purchase_date")
		if f.SupplierID != 0 {
			q = q.Where("supplier_id = ?", f.SupplierID)
		}
		var purchases []models.Purchase
		if err := q.Order("purchase_date desc, id desc").Find(&purchases).Error; err != nil {
			return err
		}
		views, err := purchaseViews(db, purchases)
		if err != nil {
			return err
		}
		out = views[:0]
		for _, v := range views {
			if f.InStockOnly && !v.RemainingKg.IsPositive() {
				continue
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

func purchaseViews(db *gorm.DB, purchases []models.Purchase) ([]PurchaseView, error) {
	out := make([]PurchaseView, 0, len(purchases))
	if len(purchases) == 0 {
		return out, nil
	}
	profits, err := ledger.ProfitForPurchases(db, purchases)
	if err != nil {
		return nil, err
	}
	for _, p := range purchases {
		pp := profits[p.ID]
		out = append(out, PurchaseView{
			Purchase:      p,
			SupplierName:  p.Supplier.Name,
			SoldKg:        pp.SoldKg,
			RemainingKg:   decimal.Max(decimal.Zero, p.QuantityKg.Sub(pp.SoldKg)),
			TotalRevenue:  pp.TotalRevenue,
			TotalExpenses: pp.TotalExpenses,
			Profit:        pp.Profit,
		})
	}
	return out, nil
}

// AttachPurchaseDocument stores an uploaded invoice or receipt file for a
// purchase, replacing any previous file of the same kind.
func (s *Service) AttachPurchaseDocument(ctx context.Context, caller auth.Caller, id uint, kind attachment.Kind, filename string, r io.Reader) (models.Purchase, error) {
	var p models.Purchase
	if s.attachments == nil {
		return p, &ledger.IntegrityError{Op: "attach document", Err: fmt.Errorf("attachment storage is not configured")}
	}
	if !kind.Valid() {
		return p, ledger.NewValidationError("kind", "must be one of: invoice receipt")
	}
	if err := caller.Require(auth.PermPurchaseWrite); err != nil {
		return p, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Purchase{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return p, s.fail("AttachPurchaseDocument", caller, err)
	}
	if count == 0 {
		return p, &ledger.NotFoundError{Entity: "purchase", ID: id}
	}

	saved, err := s.attachments.Save(id, kind, filename, r)
	if err != nil {
		return p, ledger.NewValidationError("file", err.Error())
	}

	var old string
	err = s.mutate(ctx, caller, auth.PermPurchaseWrite, "AttachPurchaseDocument", func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&p, id).Error; err != nil {
			return ledger.Wrap(err, "load purchase", "purchase", id)
		}
		before := p
		p.UpdatedAt = s.now()
		updates := map[string]any{"updated_at": p.UpdatedAt}
		if kind == attachment.KindInvoice {
			old = p.InvoicePath
			p.InvoicePath, p.InvoiceOriginalName = saved.Path, saved.OriginalName
			updates["invoice_path"], updates["invoice_original_name"] = saved.Path, saved.OriginalName
		} else {
			old = p.ReceiptPath
			p.ReceiptPath, p.ReceiptOriginalName = saved.Path, saved.OriginalName
			updates["receipt_path"], updates["receipt_original_name"] = saved.Path, saved.OriginalName
		}
		if err := tx.Model(&models.Purchase{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "purchase", id, models.AuditActionUpdate,
			fmt.Sprintf("%s document attached", kind), before, p)
	})
	if err != nil {
		s.removeAttachment(saved.Path)
		return p, err
	}
	if old != "" {
		s.removeAttachment(old)
	}
	return p, nil
}

// PurchaseDocument returns the stored path and original name of a document.
func (s *Service) PurchaseDocument(ctx context.Context, caller auth.Caller, id uint, kind attachment.Kind) (path, name string, err error) {
	err = s.read(ctx, caller, auth.PermPurchaseRead, "PurchaseDocument", func(db *gorm.DB) error {
		var p models.Purchase
		if err := db.First(&p, id).Error; err != nil {
			return ledger.Wrap(err, "load purchase", "purchase", id)
		}
		switch kind {
		case attachment.KindInvoice:
			path, name = p.InvoicePath, p.InvoiceOriginalName
		case attachment.KindReceipt:
			path, name = p.ReceiptPath, p.ReceiptOriginalName
		default:
			return ledger.NewValidationError("kind", "must be one of: invoice receipt")
		}
		if path == "" {
			return &ledger.NotFoundError{Entity: string(kind) + " document of purchase", ID: id}
		}
		return nil
	})
	return path, name, err
}

// Attachments exposes the store so handlers can stream files.
func (s *Service) Attachments() *attachment.Store { return s.attachments }
