package actions

import (
	"context"
	"errors"
	"fmt"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentInput struct {
	SaleID      uint            `json:"sale_id" validate:"required"`
	PaymentDate string          `json:"payment_date" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Notes       string          `json:"notes" validate:"max=500"`
}

// lockCreditSale loads the sale FOR UPDATE and checks that it accepts payments.
func lockCreditSale(tx *gorm.DB, saleID uint) (models.Sale, error) {
	var sale models.Sale
	if err := lockForUpdate(tx).First(&sale, saleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sale, ledger.NewValidationError("sale_id", "does not exist")
		}
		return sale, err
	}
	if !sale.IsCredit {
		return sale, ledger.NewViolation(ledger.RuleNotCreditSale, "sale", saleID, "sale_id",
			"payments can only be recorded against credit sales")
	}
	return sale, nil
}

// checkOverpayment rejects an amount that would take payments above the sale total.
func checkOverpayment(tx *gorm.DB, sale models.Sale, amount decimal.Decimal, exclude ...uint) error {
	paid, err := ledger.PaidAmount(tx, sale.ID, exclude...)
	if err != nil {
		return err
	}
	remaining := ledger.OutstandingBalance(sale, paid)
	if amount.GreaterThan(remaining) {
		return ledger.NewViolation(ledger.RuleOverpayment, "sale", sale.ID, "amount",
			fmt.Sprintf("payment %s exceeds the outstanding balance of %s", amount.StringFixed(2), remaining.StringFixed(2)))
	}
	return nil
}

// paymentAmount rounds to cents; the rounded amount must stay positive.
func paymentAmount(d decimal.Decimal) (decimal.Decimal, error) {
	amount := d.Round(ledger.MoneyPlaces)
	if !amount.IsPositive() {
		return amount, ledger.NewValidationError("amount", "must be at least 0.01")
	}
	return amount, nil
}

func (s *Service) RecordPayment(ctx context.Context, caller auth.Caller, in PaymentInput) (models.Payment, error) {
	var p models.Payment
	err := s.mutate(ctx, caller, auth.PermPaymentWrite, "RecordPayment", func(tx *gorm.DB) error {
		if err := ledger.Validate(in); err != nil {
			return err
		}
		date, err := parseDate("payment_date", in.PaymentDate)
		if err != nil {
			return err
		}
		sale, err := lockCreditSale(tx, in.SaleID)
		if err != nil {
			return err
		}
		amount, err := paymentAmount(in.Amount)
		if err != nil {
			return err
		}
		if err := checkOverpayment(tx, sale, amount); err != nil {
			return err
		}
		p = models.Payment{SaleID: sale.ID, PaymentDate: date, Amount: amount, Notes: in.Notes}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "payment", p.ID, models.AuditActionCreate,
			fmt.Sprintf("payment of %s against sale %d", amount.StringFixed(2), sale.ID), nil, p)
	})
	return p, err
}

// UpdatePayment changes date, amount or notes; the sale link is fixed.
func (s *Service) UpdatePayment(ctx context.Context, caller auth.Caller, id uint, in PaymentInput) (models.Payment, error) {
	var p models.Payment
	err := s.mutate(ctx, caller, auth.PermPaymentWrite, "UpdatePayment", func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&p, id).Error; err != nil {
			return ledger.Wrap(err, "load payment", "payment", id)
		}
		if in.SaleID == 0 {
			in.SaleID = p.SaleID
		}
		if err := ledger.Validate(in); err != nil {
			return err
		}
		if in.SaleID != p.SaleID {
			return ledger.NewValidationError("sale_id", "cannot move a payment to another sale")
		}
		date, err := parseDate("payment_date", in.PaymentDate)
		if err != nil {
			return err
		}
		sale, err := lockCreditSale(tx, p.SaleID)
		if err != nil {
			return err
		}
		amount, err := paymentAmount(in.Amount)
		if err != nil {
			return err
		}
		if err := checkOverpayment(tx, sale, amount, id); err != nil {
			return err
		}
		before := p
		p.PaymentDate = date
		p.Amount = amount
		p.Notes = in.Notes
		if err := tx.Omit("Sale").Save(&p).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "payment", id, models.AuditActionUpdate, "payment updated", before, p)
	})
	return p, err
}

func (s *Service) DeletePayment(ctx context.Context, caller auth.Caller, id uint) error {
	return s.mutate(ctx, caller, auth.PermPaymentDelete, "DeletePayment", func(tx *gorm.DB) error {
		var p models.Payment
		if err := lockForUpdate(tx).First(&p, id).Error; err != nil {
			return ledger.Wrap(err, "load payment", "payment", id)
		}
		if err := tx.Delete(&p).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "payment", id, models.AuditActionDelete,
			fmt.Sprintf("payment of %s removed from sale %d", p.Amount.StringFixed(2), p.SaleID), p, nil)
	})
}

// ListPayments returns the payments of one sale, or all payments when saleID is 0.
func (s *Service) ListPayments(ctx context.Context, caller auth.Caller, saleID uint, r ledger.DateRange) ([]models.Payment, error) {
	var out []models.Payment
	err := s.read(ctx, caller, auth.PermPaymentRead, "ListPayments", func(db *gorm.DB) error {
		q := r.Apply(db.Model(&models.Payment{}), "payment_date")
		if saleID != 0 {
			q = q.Where("sale_id = ?", saleID)
		}
		return q.Order("payment_date desc, id desc").Find(&out).Error
	})
	return out, err
}
