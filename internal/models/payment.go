package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment - money received against a credit sale
type Payment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SaleID      uint            `gorm:"index;not null" json:"sale_id"`
	Sale        Sale            `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"-"`
	PaymentDate time.Time       `gorm:"index;not null" json:"payment_date"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Notes       string          `gorm:"size:500" json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
