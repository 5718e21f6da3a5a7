package actions

import (
	"context"
	"fmt"

	"fishledger-backend/internal/auth"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseInput struct {
	// PurchaseID is nil for general expenses
	PurchaseID  *uint              `json:"purchase_id"`
	ExpenseDate string             `json:"expense_date" validate:"required"`
	Type        models.ExpenseType `json:"type" validate:"required,oneof=shipping ice other"`
	Description string             `json:"description" validate:"max=255"`
	Amount      decimal.Decimal    `json:"amount" validate:"gte=0"`
}

func (in ExpenseInput) build(tx *gorm.DB, e *models.Expense) error {
	if err := ledger.Validate(in); err != nil {
		return err
	}
	date, err := parseDate("expense_date", in.ExpenseDate)
	if err != nil {
		return err
	}
	if in.PurchaseID != nil && *in.PurchaseID == 0 {
		in.PurchaseID = nil
	}
	if in.PurchaseID != nil {
		if err := requireRef(tx, &models.Purchase{}, *in.PurchaseID, "purchase_id"); err != nil {
			return err
		}
	}
	e.PurchaseID = in.PurchaseID
	e.ExpenseDate = date
	e.Type = in.Type
	e.Description = in.Description
	amount := in.Amount.Round(ledger.MoneyPlaces)
	if amount.IsNegative() {
		return ledger.NewValidationError("amount", "must be greater than or equal to 0")
	}
	e.Amount = amount
	return nil
}

type ExpenseFilter struct {
	Range      ledger.DateRange
	Type       models.ExpenseType
	PurchaseID uint
	// GeneralOnly keeps expenses not linked to a purchase
	GeneralOnly bool
}

func (s *Service) RecordExpense(ctx context.Context, caller auth.Caller, in ExpenseInput) (models.Expense, error) {
	var e models.Expense
	err := s.mutate(ctx, caller, auth.PermExpenseWrite, "RecordExpense", func(tx *gorm.DB) error {
		if err := in.build(tx, &e); err != nil {
			return err
		}
		if err := tx.Create(&e).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "expense", e.ID, models.AuditActionCreate,
			fmt.Sprintf("%s expense of %s recorded", e.Type, e.Amount.StringFixed(2)), nil, e)
	})
	return e, err
}

func (s *Service) UpdateExpense(ctx context.Context, caller auth.Caller, id uint, in ExpenseInput) (models.Expense, error) {
	var e models.Expense
	err := s.mutate(ctx, caller, auth.PermExpenseWrite, "UpdateExpense", func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&e, id).Error; err != nil {
			return ledger.Wrap(err, "load expense", "expense", id)
		}
		before := e
		if err := in.build(tx, &e); err != nil {
			return err
		}
		if err := tx.Save(&e).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "expense", id, models.AuditActionUpdate, "expense updated", before, e)
	})
	return e, err
}

func (s *Service) DeleteExpense(ctx context.Context, caller auth.Caller, id uint) error {
	return s.mutate(ctx, caller, auth.PermExpenseDelete, "DeleteExpense", func(tx *gorm.DB) error {
		var e models.Expense
		if err := lockForUpdate(tx).First(&e, id).Error; err != nil {
			return ledger.Wrap(err, "load expense", "expense", id)
		}
		if err := tx.Delete(&e).Error; err != nil {
			return err
		}
		return writeAudit(tx, caller, "expense", id, models.AuditActionDelete, "expense deleted", e, nil)
	})
}

func (s *Service) ListExpenses(ctx context.Context, caller auth.Caller, f ExpenseFilter) ([]models.Expense, error) {
	var out []models.Expense
	err := s.read(ctx, caller, auth.PermExpenseRead, "ListExpenses", func(db *gorm.DB) error {
		q := f.Range.Apply(db.Model(&models.Expense{}), "expense_date")
		if f.Type != "" {
			q = q.Where("type = ?", f.Type)
		}
		switch {
		case f.GeneralOnly:
			q = q.Where("purchase_id IS NULL")
		case f.PurchaseID != 0:
			q = q.Where("purchase_id = ?", f.PurchaseID)
		}
		return q.Order("expense_date desc, id desc").Find(&out).Error
	})
	return out, err
}
