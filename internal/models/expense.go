package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseType string

const (
	ExpenseTypeShipping ExpenseType = "shipping"
	ExpenseTypeIce      ExpenseType = "ice"
	ExpenseTypeOther    ExpenseType = "other"
)

func (t ExpenseType) Valid() bool {
	switch t {
	case ExpenseTypeShipping, ExpenseTypeIce, ExpenseTypeOther:
		return true
	}
	return false
}

// Expense - an operating cost. When PurchaseID is set it is added to that
// purchase's cost basis, otherwise it is a general expense.
type Expense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PurchaseID  *uint           `gorm:"index" json:"purchase_id"`
	Purchase    *Purchase       `gorm:"foreignKey:PurchaseID;constraint:OnDelete:RESTRICT" json:"-"`
	ExpenseDate time.Time       `gorm:"index;not null" json:"expense_date"`
	Type        ExpenseType     `gorm:"size:20;not null;index" json:"type"`
	Description string          `gorm:"size:255" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
