package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"
	"fishledger-backend/internal/receipt"

	"gorm.io/gorm"
)

const receiptCounterID = 1

type VoidReceiptInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// nextReceiptNumber takes the next value of the locked counter row.
func nextReceiptNumber(tx *gorm.DB) (string, error) {
	var counter models.ReceiptCounter
	if err := lockForUpdate(tx).First(&counter, receiptCounterID).Error; err != nil {
		return "", err
	}
	n := counter.Next
	if err := tx.Model(&models.ReceiptCounter{}).Where("id = ?", receiptCounterID).
		Update("next", n+1).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("RCT-%06d", n), nil
}

func activeReceiptCount(tx *gorm.DB, saleID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.Receipt{}).
		Where("sale_id = ? AND status = ?", saleID, models.ReceiptStatusActive).
		Count(&count).Error
	return count, err
}

// IssueReceipt creates the first active receipt of a sale.
func (s *Service) IssueReceipt(ctx context.Context, caller auth.Caller, saleID uint) (models.Receipt, error) {
	var r models.Receipt
	err := s.mutate(ctx, caller, auth.PermReceiptIssue, "IssueReceipt", func(tx *gorm.DB) error {
		var sale models.Sale
		if err := lockForUpdate(tx).First(&sale, saleID).Error; err != nil {
			return ledger.Wrap(err, "load sale", "sale", saleID)
		}
		active, err := activeReceiptCount(tx, saleID)
		if err != nil {
			return err
		}
		if active > 0 {
			return ledger.NewViolation(ledger.RuleActiveReceiptExists, "sale", saleID, "sale_id",
				"sale already has an active receipt; void it and reissue instead")
		}
		number, err := nextReceiptNumber(tx)
		if err != nil {
			return err
		}
		r = models.Receipt{
			SaleID:        saleID,
			ReceiptNumber: number,
			Status:        models.ReceiptStatusActive,
			IssuedAt:      s.now(),
			IssuedBy:      caller.UserID,
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "receipt", r.ID, models.AuditActionCreate,
			fmt.Sprintf("receipt %s issued for sale %d", number, saleID), nil, r)
	})
	return r, err
}

// VoidReceipt moves an active receipt to voided. The row is kept.
func (s *Service) VoidReceipt(ctx context.Context, caller auth.Caller, id uint, in VoidReceiptInput) (models.Receipt, error) {
	var r models.Receipt
	in.Reason = strings.TrimSpace(in.Reason)
	err := s.mutate(ctx, caller, auth.PermReceiptVoid, "VoidReceipt", func(tx *gorm.DB) error {
		if err := ledger.Validate(in); err != nil {
			return err
		}
		if err := lockForUpdate(tx).First(&r, id).Error; err != nil {
			return ledger.Wrap(err, "load receipt", "receipt", id)
		}
		if r.Status != models.ReceiptStatusActive {
			return ledger.NewViolation(ledger.RuleReceiptState, "receipt", id, "status",
				fmt.Sprintf("receipt %s is %s and cannot be voided", r.ReceiptNumber, r.Status))
		}
		before := r
		now := s.now()
		by := caller.UserID
		reason := in.Reason
		r.Status = models.ReceiptStatusVoided
		r.VoidedAt = &now
		r.VoidedBy = &by
		r.VoidReason = &reason
		if err := tx.Omit("Sale").Save(&r).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "receipt", id, models.AuditActionVoid,
			fmt.Sprintf("receipt %s voided: %s", r.ReceiptNumber, reason), before, r)
	})
	return r, err
}

// ReissueReceipt creates a new active receipt for the sale of a voided one.
func (s *Service) ReissueReceipt(ctx context.Context, caller auth.Caller, id uint) (models.Receipt, error) {
	var r models.Receipt
	err := s.mutate(ctx, caller, auth.PermReceiptIssue, "ReissueReceipt", func(tx *gorm.DB) error {
		var old models.Receipt
		if err := lockForUpdate(tx).First(&old, id).Error; err != nil {
			return ledger.Wrap(err, "load receipt", "receipt", id)
		}
		if old.Status != models.ReceiptStatusVoided {
			return ledger.NewViolation(ledger.RuleReceiptState, "receipt", id, "status",
				fmt.Sprintf("receipt %s must be voided before it is reissued", old.ReceiptNumber))
		}
		var sale models.Sale
		if err := lockForUpdate(tx).First(&sale, old.SaleID).Error; err != nil {
			return ledger.Wrap(err, "load sale", "sale", old.SaleID)
		}
		active, err := activeReceiptCount(tx, old.SaleID)
		if err != nil {
			return err
		}
		if active > 0 {
			return ledger.NewViolation(ledger.RuleActiveReceiptExists, "sale", old.SaleID, "sale_id",
				"sale already has an active receipt")
		}
		number, err := nextReceiptNumber(tx)
		if err != nil {
			return err
		}
		from := old.ID
		r = models.Receipt{
			SaleID:         old.SaleID,
			ReceiptNumber:  number,
			Status:         models.ReceiptStatusActive,
			IssuedAt:       s.now(),
			IssuedBy:       caller.UserID,
			ReissuedFromID: &from,
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "receipt", r.ID, models.AuditActionCreate,
			fmt.Sprintf("receipt %s reissued as %s", old.ReceiptNumber, number), old, r)
	})
	return r, err
}

func (s *Service) GetReceipt(ctx context.Context, caller auth.Caller, id uint) (models.Receipt, error) {
	var r models.Receipt
	err := s.read(ctx, caller, auth.PermReceiptRead, "GetReceipt", func(db *gorm.DB) error {
		return ledger.Wrap(db.First(&r, id).Error, "load receipt", "receipt", id)
	})
	return r, err
}

// ListReceipts returns every receipt of a sale, voided ones included, or all
// receipts when saleID is 0.
func (s *Service) ListReceipts(ctx context.Context, caller auth.Caller, saleID uint) ([]models.Receipt, error) {
	var out []models.Receipt
	err := s.read(ctx, caller, auth.PermReceiptRead, "ListReceipts", func(db *gorm.DB) error {
		q := db.Model(&models.Receipt{})
		if saleID != 0 {
			q = q.Where("sale_id = ?", saleID)
		}
		return q.Order("id asc").Find(&out).Error
	})
	return out, err
}

// ReceiptDocument assembles the printable content of a receipt.
func (s *Service) ReceiptDocument(ctx context.Context, caller auth.Caller, id uint) (receipt.Document, error) {
	var doc receipt.Document
	err := s.read(ctx, caller, auth.PermReceiptRead, "ReceiptDocument", func(db *gorm.DB) error {
		var r models.Receipt
		if err := db.First(&r, id).Error; err != nil {
			return ledger.Wrap(err, "load receipt", "receipt", id)
		}
		var sale models.Sale
		if err := db.Preload("Customer").
			Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id") }).
			Preload("Items.Purchase.Supplier").
			First(&sale, r.SaleID).Error; err != nil {
			return ledger.Wrap(err, "load sale", "sale", r.SaleID)
		}
		status, err := ledger.CreditStatusForSale(db, sale.ID, s.now())
		if err != nil {
			return err
		}

		doc = receipt.Document{
			Business:       s.business,
			Number:         r.ReceiptNumber,
			Status:         r.Status,
			IssuedAt:       r.IssuedAt,
			SaleID:         sale.ID,
			SaleDate:       sale.SaleDate,
			CustomerName:   sale.Customer.Name,
			CustomerPhone:  sale.Customer.Phone,
			CustomerEmail:  sale.Customer.Email,
			IsCredit:       sale.IsCredit,
			Subtotal:       sale.Subtotal,
			DiscountPct:    sale.DiscountPercentage,
			DiscountAmount: sale.DiscountAmount,
			DeliveryFee:    sale.DeliveryFee,
			Total:          sale.TotalAmount,
			Paid:           status.PaidAmount,
			Outstanding:    status.Outstanding,
		}
		if r.VoidReason != nil {
			doc.VoidReason = *r.VoidReason
		}
		if r.ReissuedFromID != nil {
			var prev models.Receipt
			if err := db.Select("receipt_number").First(&prev, *r.ReissuedFromID).Error; err == nil {
				doc.ReissuedFrom = prev.ReceiptNumber
			}
		}
		for _, it := range sale.Items {
			desc := fmt.Sprintf("Fish, purchase #%d", it.PurchaseID)
			if it.Purchase.Supplier.Name != "" {
				desc += " (" + it.Purchase.Supplier.Name + ")"
			}
			doc.Lines = append(doc.Lines, receipt.Line{
				Description: desc,
				QuantityKg:  it.QuantityKg,
				PricePerKg:  it.PricePerKg,
				Total:       it.TotalPrice,
			})
		}
		return nil
	})
	return doc, err
}

// SendReceipt mails an active receipt to the sale's customer.
func (s *Service) SendReceipt(ctx context.Context, caller auth.Caller, id uint) error {
	doc, err := s.ReceiptDocument(ctx, caller, id)
	if err != nil {
		return err
	}
	if doc.Voided() {
		return ledger.NewViolation(ledger.RuleReceiptState, "receipt", id, "status", "a voided receipt cannot be sent")
	}
	err = receipt.Deliver(ctx, s.mailer, doc)
	var de *receipt.DeliveryError
	if errors.As(err, &de) && de.Err != nil {
		s.logger.WithField("receipt", doc.Number).Warn(err.Error())
	}
	return err
}
